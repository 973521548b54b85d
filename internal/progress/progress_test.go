// SPDX-License-Identifier: MPL-2.0

package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

var (
	_ Reporter = Nop{}
	_ Reporter = (*Logger)(nil)
	_ Reporter = (*Recorder)(nil)
)

func TestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	p := NewLogger(l)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return clock }

	p.Start("reorder op.miz", 3)
	p.SetLabel("unzip")
	p.SetValue(1)
	p.SetLabel("decode")
	clock = clock.Add(1500 * time.Millisecond)
	p.Done()

	out := buf.String()
	for _, want := range []string{"reorder op.miz", "steps=3", "unzip", "step=2", "decode", "reorder op.miz done", "elapsed=1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := &Recorder{}
	r.Start("job", 2)
	r.SetLabel("a")
	r.SetValue(1)
	r.SetLabel("b")
	r.Done()

	events := r.Events()
	if len(events) != 5 {
		t.Fatalf("recorded %d events, want 5", len(events))
	}
	if events[0] != (Event{Kind: "start", Title: "job", Value: 2}) {
		t.Errorf("first event = %+v", events[0])
	}
	if events[4].Kind != "done" {
		t.Errorf("last event = %+v, want done", events[4])
	}
	if got := strings.Join(r.Labels(), ","); got != "a,b" {
		t.Errorf("Labels() = %s, want a,b", got)
	}
}
