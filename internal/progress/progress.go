// SPDX-License-Identifier: MPL-2.0

package progress

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type (
	// Reporter receives progress for one task at a time.
	Reporter interface {
		// Start begins a task made of length steps.
		Start(title string, length int)
		// SetValue reports the number of completed steps.
		SetValue(n int)
		// SetLabel describes the step currently running.
		SetLabel(label string)
		// Done ends the current task.
		Done()
	}

	// Nop discards all progress.
	Nop struct{}

	// Logger writes progress as structured log lines. It is safe for
	// concurrent use; concurrent tasks are distinguished by their title.
	Logger struct {
		mu      sync.Mutex
		logger  *log.Logger
		title   string
		length  int
		value   int
		started time.Time
		now     func() time.Time
	}

	// Event is one call recorded by a Recorder.
	Event struct {
		Kind  string
		Title string
		Label string
		Value int
	}

	// Recorder keeps every call in order. It is used where progress must be
	// inspected after the fact, such as the journal and tests.
	Recorder struct {
		mu     sync.Mutex
		events []Event
	}
)

// Start implements Reporter.
func (Nop) Start(string, int) {}

// SetValue implements Reporter.
func (Nop) SetValue(int) {}

// SetLabel implements Reporter.
func (Nop) SetLabel(string) {}

// Done implements Reporter.
func (Nop) Done() {}

// NewLogger returns a Reporter that logs to l.
func NewLogger(l *log.Logger) *Logger {
	return &Logger{logger: l, now: time.Now}
}

// Start implements Reporter.
func (p *Logger) Start(title string, length int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.title, p.length, p.value = title, length, 0
	p.started = p.now()
	p.logger.Info(title, "steps", length)
}

// SetValue implements Reporter.
func (p *Logger) SetValue(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = n
}

// SetLabel implements Reporter.
func (p *Logger) SetLabel(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger.Debug(label, "task", p.title, "step", p.value+1, "of", p.length)
}

// Done implements Reporter.
func (p *Logger) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger.Info(p.title+" done", "elapsed", p.now().Sub(p.started).Round(time.Millisecond))
}

// Start implements Reporter.
func (r *Recorder) Start(title string, length int) {
	r.add(Event{Kind: "start", Title: title, Value: length})
}

// SetValue implements Reporter.
func (r *Recorder) SetValue(n int) { r.add(Event{Kind: "value", Value: n}) }

// SetLabel implements Reporter.
func (r *Recorder) SetLabel(label string) { r.add(Event{Kind: "label", Label: label}) }

// Done implements Reporter.
func (r *Recorder) Done() { r.add(Event{Kind: "done"}) }

// Events returns a copy of the recorded calls.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Labels returns the recorded labels in order.
func (r *Recorder) Labels() []string {
	var out []string
	for _, e := range r.Events() {
		if e.Kind == "label" {
			out = append(out, e.Label)
		}
	}
	return out
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}
