package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// logTimeFormat renders timestamps as "14:32:01.45".
const logTimeFormat = "15:04:05.00"

// newLogger creates the logger shared by every command. At debug level it
// also reports the calling file and line.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    level <= log.DebugLevel,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// setLevel changes the level of l, toggling caller reports with debug.
func setLevel(l *log.Logger, level log.Level) {
	l.SetLevel(level)
	l.SetReportCaller(level <= log.DebugLevel)
}

// progress measures one command stage for a completion log line.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level with keyvals and the elapsed time, rounded
// to the millisecond, e.g. `INFO ranked nodes=42 elapsed=3ms`.
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}
