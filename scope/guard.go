package scope

// noCopy may be embedded into structs which must not be copied after first
// use. go vet's copylocks check reports copies.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// guard is the single implementation behind every guard shape.
// The state is captured at construction and never changed.
type guard[S any] struct {
	_      noCopy
	state  S
	exit   func(S)
	valid  bool
	closed bool
}

func (g *guard[S]) init(state S, exit func(S)) {
	g.state = state
	g.exit = exit
	g.valid = true
}

// close runs the exit action at most once over the guard's life.
func (g *guard[S]) close() {
	if g.closed {
		return
	}
	g.closed = true
	if g.valid && g.exit != nil {
		g.exit(g.state)
	}
}

// Cancelable is a stateful guard whose exit action can be switched off and
// on again until the guard is closed.
type Cancelable[S any] struct {
	g guard[S]
}

// New runs enter and returns a valid guard that passes enter's result to
// exit on Close.
func New[S any](enter func() S, exit func(S)) *Cancelable[S] {
	c := &Cancelable[S]{}
	c.g.init(enter(), exit)
	return c
}

// TryNew is New for enter actions that can fail. On failure no guard is
// returned and exit is never scheduled.
func TryNew[S any](enter func() (S, error), exit func(S)) (*Cancelable[S], error) {
	state, err := enter()
	if err != nil {
		return nil, err
	}
	c := &Cancelable[S]{}
	c.g.init(state, exit)
	return c, nil
}

// Valid reports whether Close will run the exit action.
func (c *Cancelable[S]) Valid() bool {
	return c.g.valid
}

// Invalidate skips the exit action at Close. Idempotent.
func (c *Cancelable[S]) Invalidate() {
	c.g.valid = false
}

// Validate re-enables the exit action. Idempotent.
func (c *Cancelable[S]) Validate() {
	c.g.valid = true
}

// Close ends the guard, running exit if the guard is valid.
// Calls after the first do nothing.
func (c *Cancelable[S]) Close() {
	c.g.close()
}

// Stateful is a guard whose exit action always runs exactly once.
type Stateful[S any] struct {
	g guard[S]
}

// NewStateful runs enter and returns a guard that hands the result to exit
// on Close.
func NewStateful[S any](enter func() S, exit func(S)) *Stateful[S] {
	s := &Stateful[S]{}
	s.g.init(enter(), exit)
	return s
}

// Close runs the exit action. Calls after the first do nothing.
func (s *Stateful[S]) Close() {
	s.g.close()
}

// Stateless is a guard around actions that carry nothing from enter to
// exit. Once invalidated it stays invalid.
type Stateless struct {
	g guard[struct{}]
}

// NewStateless runs enter and returns a guard that runs exit on Close.
func NewStateless(enter, exit func()) *Stateless {
	enter()
	s := &Stateless{}
	s.g.init(struct{}{}, nil)
	if exit != nil {
		s.g.exit = func(struct{}) { exit() }
	}
	return s
}

// Valid reports whether Close will run the exit action.
func (s *Stateless) Valid() bool {
	return s.g.valid
}

// Invalidate permanently disables the exit action.
func (s *Stateless) Invalidate() {
	s.g.valid = false
}

// Close runs the exit action unless the guard was invalidated.
func (s *Stateless) Close() {
	s.g.close()
}
