package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("loaded") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("rank pass") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("rank pass") }, true},
		{"warn at error level", log.ErrorLevel, func(l *log.Logger) { l.Warn("no cache dir") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestSetLevelReportsCaller(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)

	l.Info("quiet")
	if strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("info logger reports its caller: %q", buf.String())
	}

	buf.Reset()
	setLevel(l, log.DebugLevel)
	l.Debug("loud")
	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("debug logger does not report its caller: %q", buf.String())
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("ranked", "nodes", 42)

	out := buf.String()
	for _, want := range []string{"ranked", "nodes=42", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("progress output %q missing %q", out, want)
		}
	}
}
