package scope

import (
	"errors"
	"testing"
)

// recorder counts enter/exit calls and keeps the values exit received.
type recorder struct {
	enters int
	exits  []int
}

func (r *recorder) enter() int {
	r.enters++
	return 42
}

func (r *recorder) exit(v int) {
	r.exits = append(r.exits, v)
}

func TestCancelableExitRunsOnce(t *testing.T) {
	var r recorder
	g := New(r.enter, r.exit)

	if r.enters != 1 {
		t.Fatalf("Expected enter to run at construction, got %d calls", r.enters)
	}
	if len(r.exits) != 0 {
		t.Fatalf("Exit ran before Close: %v", r.exits)
	}
	if !g.Valid() {
		t.Error("New guard should be valid")
	}

	g.Close()
	g.Close()

	if len(r.exits) != 1 {
		t.Fatalf("Expected exactly one exit, got %d", len(r.exits))
	}
	if r.exits[0] != 42 {
		t.Errorf("Expected exit to receive 42, got %d", r.exits[0])
	}
}

func TestCancelableValidity(t *testing.T) {
	tests := []struct {
		name  string
		ops   string // i = Invalidate, v = Validate
		valid bool
	}{
		{"untouched", "", true},
		{"invalidate", "i", false},
		{"invalidate twice", "ii", false},
		{"invalidate then validate", "iv", true},
		{"validate twice", "vv", true},
		{"validate then invalidate", "vi", false},
		{"toggle ending invalid", "ivivi", false},
		{"toggle ending valid", "iviiv", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r recorder
			g := New(r.enter, r.exit)
			for _, op := range tt.ops {
				switch op {
				case 'i':
					g.Invalidate()
				case 'v':
					g.Validate()
				}
			}

			if g.Valid() != tt.valid {
				t.Errorf("Valid() = %v, want %v", g.Valid(), tt.valid)
			}

			g.Close()

			want := 0
			if tt.valid {
				want = 1
			}
			if len(r.exits) != want {
				t.Errorf("Expected %d exit calls, got %d", want, len(r.exits))
			}
		})
	}
}

func TestCancelableCloseFreezesOutcome(t *testing.T) {
	var r recorder
	g := New(r.enter, r.exit)
	g.Invalidate()
	g.Close()

	// Re-validating a closed guard must not resurrect the exit action.
	g.Validate()
	g.Close()

	if len(r.exits) != 0 {
		t.Errorf("Closed guard ran exit %d times", len(r.exits))
	}
}

func TestTryNewEnterFailure(t *testing.T) {
	errBusy := errors.New("resource busy")
	exitCalled := false

	g, err := TryNew(func() (int, error) {
		return 0, errBusy
	}, func(int) {
		exitCalled = true
	})

	if !errors.Is(err, errBusy) {
		t.Fatalf("Expected errBusy, got %v", err)
	}
	if g != nil {
		t.Error("Expected nil guard on enter failure")
	}
	if exitCalled {
		t.Error("Exit must not run when enter fails")
	}
}

func TestTryNewSuccess(t *testing.T) {
	var got []string
	g, err := TryNew(func() (string, error) {
		return "port0", nil
	}, func(s string) {
		got = append(got, s)
	})
	if err != nil {
		t.Fatalf("TryNew failed: %v", err)
	}
	g.Close()

	if len(got) != 1 || got[0] != "port0" {
		t.Errorf("Expected exit with [port0], got %v", got)
	}
}

func TestStatefulAlwaysExits(t *testing.T) {
	type snapshot struct {
		mask  uint32
		depth uint8
	}
	in := snapshot{mask: 0xdeadbeef, depth: 3}
	var out []snapshot

	g := NewStateful(func() snapshot { return in }, func(s snapshot) {
		out = append(out, s)
	})
	g.Close()
	g.Close()

	if len(out) != 1 {
		t.Fatalf("Expected exactly one exit, got %d", len(out))
	}
	if out[0] != in {
		t.Errorf("Expected exit to receive %+v, got %+v", in, out[0])
	}
}

func TestStatelessInvalidateIsOneWay(t *testing.T) {
	entered, exited := 0, 0
	g := NewStateless(func() { entered++ }, func() { exited++ })

	if entered != 1 {
		t.Fatalf("Expected enter once, got %d", entered)
	}
	if !g.Valid() {
		t.Error("New stateless guard should be valid")
	}

	g.Invalidate()
	g.Invalidate()
	if g.Valid() {
		t.Error("Invalidated guard reports valid")
	}

	g.Close()
	if exited != 0 {
		t.Errorf("Invalidated guard ran exit %d times", exited)
	}
}

func TestStatelessExit(t *testing.T) {
	exited := 0
	g := NewStateless(func() {}, func() { exited++ })
	g.Close()
	g.Close()

	if exited != 1 {
		t.Errorf("Expected exit once, got %d", exited)
	}
}

func TestStatelessNilExit(t *testing.T) {
	g := NewStateless(func() {}, nil)
	g.Close()
}

func TestEnterPanicSchedulesNothing(t *testing.T) {
	exited := false
	func() {
		defer func() {
			if recover() == nil {
				t.Error("Expected enter panic to propagate")
			}
		}()
		g := New(func() int { panic("no hardware") }, func(int) { exited = true })
		defer g.Close()
	}()

	if exited {
		t.Error("Exit ran although enter never completed")
	}
}
