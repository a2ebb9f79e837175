package scope

// Wrap yields a Stateless guard exactly once. The guard is closed when the
// loop body is left, by any path.
//
//	for g := range scope.Wrap(lock, unlock) {
//	    ...
//	}
func Wrap(enter, exit func()) func(yield func(*Stateless) bool) {
	return func(yield func(*Stateless) bool) {
		g := NewStateless(enter, exit)
		defer g.Close()
		yield(g)
	}
}

// Bind yields a Cancelable guard exactly once and closes it when the loop
// body is left.
func Bind[S any](enter func() S, exit func(S)) func(yield func(*Cancelable[S]) bool) {
	return func(yield func(*Cancelable[S]) bool) {
		g := New(enter, exit)
		defer g.Close()
		yield(g)
	}
}

// With runs body inside a Cancelable guard.
func With[S any](enter func() S, exit func(S), body func(*Cancelable[S])) {
	g := New(enter, exit)
	defer g.Close()
	body(g)
}

// Run is With for fallible enter actions and bodies. An enter error is
// returned as is and body does not run. Otherwise body's error is returned
// after the guard has been closed.
func Run[S any](enter func() (S, error), exit func(S), body func(*Cancelable[S]) error) error {
	g, err := TryNew(enter, exit)
	if err != nil {
		return err
	}
	defer g.Close()
	return body(g)
}
