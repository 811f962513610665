package statusline

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/gigurra/nowplaying/cmd/monitor"
)

// LineSink prints one label per line, skipping a label equal to the previous one.
// Meant for status bars that read a command's stdout line by line (tmux, polybar, i3blocks).
type LineSink struct {
	out      io.Writer
	renderer *Renderer

	mu      sync.Mutex
	current monitor.StateChange
	last    string
	written bool
}

func NewLineSink(out io.Writer, renderer *Renderer) *LineSink {
	return &LineSink{out: out, renderer: renderer}
}

func (s *LineSink) StateChanged(change monitor.StateChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = change
	s.write(s.renderer.Label(change))
}

func (s *LineSink) SourceNotRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = monitor.StateChange{}
	s.write(s.renderer.Idle())
}

// Refresh re-renders the last state, e.g. after the renderer's settings changed.
func (s *LineSink) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(s.renderer.Label(s.current))
}

func (s *LineSink) write(label string) {
	if s.written && label == s.last {
		return
	}
	if _, err := fmt.Fprintln(s.out, label); err != nil {
		slog.Warn("failed to write label", "error", err)
		return
	}
	s.last, s.written = label, true
}
