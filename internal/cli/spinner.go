package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/gradlayer/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner draws a single status line with the current pipeline stage and
// the elapsed time. It stops on its own when ctx is cancelled.
type Spinner struct {
	w      io.Writer
	ctx    context.Context
	cancel context.CancelFunc
	start  time.Time

	mu      sync.Mutex
	message string
	width   int // widest line written, for clearing

	started  bool
	halted   bool // Stop was called
	stopOnce sync.Once
	stopped  chan struct{}
}

// newSpinner creates a spinner writing to w. Nothing is drawn until Start.
func newSpinner(ctx context.Context, w io.Writer, message string) *Spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		ctx:     sctx,
		cancel:  cancel,
		message: message,
		stopped: make(chan struct{}),
	}
}

// SetMessage replaces the text shown next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Message returns the text currently shown.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Start begins the animation. Calling Start twice has no effect.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.start = time.Now()
	s.mu.Unlock()

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	elapsed := time.Since(s.start).Round(100 * time.Millisecond)
	line := fmt.Sprintf("%s %s %s", frame, s.message, elapsed)
	s.width = max(s.width, len(line))
	fmt.Fprintf(s.w, "\r%s %s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message), StyleDim.Render(elapsed.String()))
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	}
}

// Stop ends the animation and clears the line. It is safe to call more
// than once, and before Start.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		started := s.started
		if s.ctx.Err() == nil {
			s.halted = true
		}
		s.mu.Unlock()
		s.cancel()
		if started {
			<-s.stopped
		}
	})
}

// StopWithError stops the spinner and prints message as an error line.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the parent context ended before Stop.
func (s *Spinner) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx.Err() != nil && !s.halted
}

// Attach installs pipeline hooks that narrate each stage on the spinner
// line, and returns a function restoring the previous hooks.
func (s *Spinner) Attach() (restore func()) {
	prev := observability.Pipeline()
	observability.SetPipelineHooks(stageHooks{PipelineHooks: prev, s: s})
	return func() { observability.SetPipelineHooks(prev) }
}

// stageHooks forwards every event to the wrapped hooks and updates the
// spinner on stage starts.
type stageHooks struct {
	observability.PipelineHooks
	s *Spinner
}

func (h stageHooks) OnLoadStart(ctx context.Context, variant string) {
	h.s.SetMessage(fmt.Sprintf("Loading %s input...", variant))
	h.PipelineHooks.OnLoadStart(ctx, variant)
}

func (h stageHooks) OnLayoutStart(ctx context.Context, variant string, nodes int) {
	h.s.SetMessage(fmt.Sprintf("Laying out %d nodes...", nodes))
	h.PipelineHooks.OnLayoutStart(ctx, variant, nodes)
}

func (h stageHooks) OnRenderStart(ctx context.Context, format string) {
	h.s.SetMessage(fmt.Sprintf("Rendering %s...", format))
	h.PipelineHooks.OnRenderStart(ctx, format)
}
