package indicator

import (
	"bytes"
	"testing"
)

// recording captures every call made on an Indicator.
type recording struct {
	calls []string
}

func (r *recording) Closed()             { r.calls = append(r.calls, "closed") }
func (r *recording) Opening()            { r.calls = append(r.calls, "opening") }
func (r *recording) Open()               { r.calls = append(r.calls, "open") }
func (r *recording) Closing()            { r.calls = append(r.calls, "closing") }
func (r *recording) Fault(reason string) { r.calls = append(r.calls, "fault:"+reason) }
func (r *recording) ConnectionLost()     { r.calls = append(r.calls, "lost") }
func (r *recording) Shutdown()           { r.calls = append(r.calls, "shutdown") }
func (r *recording) Release() error      { r.calls = append(r.calls, "release"); return nil }

func TestNew_NothingConfigured(t *testing.T) {
	ind, err := New(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ind.(*Noop); !ok {
		t.Errorf("expected *Noop, got %T", ind)
	}
}

func TestMulti_FansOut(t *testing.T) {
	a, b := &recording{}, &recording{}
	m := NewMulti(a, b)

	m.Opening()
	m.Fault("blocked")
	m.Release()

	want := []string{"opening", "fault:blocked", "release"}
	for _, r := range []*recording{a, b} {
		if len(r.calls) != len(want) {
			t.Fatalf("expected %v, got %v", want, r.calls)
		}
		for i := range want {
			if r.calls[i] != want[i] {
				t.Errorf("call %d: expected %s, got %s", i, want[i], r.calls[i])
			}
		}
	}
}

type bufferPipe struct {
	bytes.Buffer
	closed bool
}

func (b *bufferPipe) Close() error {
	b.closed = true
	return nil
}

func TestNeopixel_Commands(t *testing.T) {
	tests := []struct {
		name string
		call func(*Neopixel)
		want string
	}{
		{"Closed", (*Neopixel).Closed, neoClosed},
		{"Opening", (*Neopixel).Opening, neoMoving},
		{"Open", (*Neopixel).Open, neoOpen},
		{"Closing", (*Neopixel).Closing, neoMoving},
		{"Fault", func(n *Neopixel) { n.Fault("timeout") }, neoFault},
		{"ConnectionLost", (*Neopixel).ConnectionLost, neoConnectionLost},
		{"Shutdown", (*Neopixel).Shutdown, neoTerminated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipe := &bufferPipe{}
			n := &Neopixel{pipe: pipe}
			tt.call(n)
			if got := pipe.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNeopixel_ReleaseStopsWrites(t *testing.T) {
	pipe := &bufferPipe{}
	n := &Neopixel{pipe: pipe}

	if err := n.Release(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pipe.closed {
		t.Error("expected the pipe to be closed")
	}
	n.Open()
	if pipe.Len() != 0 {
		t.Errorf("expected no writes after release, got %q", pipe.String())
	}
}
