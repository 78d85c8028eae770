package eventpipe

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		wantErr bool
	}{
		{"open", Command{Name: CmdOpen}, false},
		{"CLOSE", Command{Name: CmdClose}, false},
		{"toggle", Command{Name: CmdToggle}, false},
		{"on", Command{Name: CmdOpen}, false},
		{"off", Command{Name: CmdClose}, false},
		{"target 120.5", Command{Name: CmdTarget, Value: 120.5}, false},
		{"fan 40", Command{Name: CmdFan, Value: 40}, false},
		{"fan 40%", Command{Name: CmdFan, Value: 40}, false},
		{"target", Command{}, true},
		{"target far", Command{}, true},
		{"target NaN", Command{}, true},
		{"fan", Command{}, true},
		{"fan 4.5", Command{}, true},
		{"rotate", Command{}, true},
	}

	for _, tt := range tests {
		got, err := parseLine(tt.line)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected an error, got %+v", tt.line, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.line, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: expected %+v, got %+v", tt.line, tt.want, got)
		}
	}
}

func TestNew_NoPath(t *testing.T) {
	ep, err := New(Config{}, nil)
	if err != nil || ep != nil {
		t.Errorf("expected nil pipe without error, got %v, %v", ep, err)
	}
}

func TestEventPipe_DeliversCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events")

	var mu sync.Mutex
	var got []Command
	ep, err := New(Config{Path: path}, func(c Command) {
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		ep.Start()
		close(done)
	}()

	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open pipe for writing: %v", err)
	}
	w.WriteString("# comment\nopen\n\nbogus\ntarget 80\n")
	w.Close()

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	if len(got) != 2 || got[0].Name != CmdOpen || got[1] != (Command{Name: CmdTarget, Value: 80}) {
		t.Errorf("unexpected commands: %+v", got)
	}
	mu.Unlock()

	if err := ep.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop after Close")
	}
}
