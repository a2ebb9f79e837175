package critical

// Section is a named kernel-style critical section. It counts nesting
// itself: interrupts are masked when the outermost Enter runs and restored
// when the matching outermost Exit runs. Inner levels only move the count.
type Section struct {
	name  string
	depth uint32
	saved State
}

// Kernel is the section used by atomic blocks in rtos builds.
var Kernel = NewSection("kernel")

// NewSection returns a section with the given name.
func NewSection(name string) *Section {
	return &Section{name: name}
}

// Name returns the section name.
func (s *Section) Name() string {
	return s.name
}

// Depth returns the current nesting depth.
func (s *Section) Depth() uint32 {
	return s.depth
}

// Enter takes the section.
func (s *Section) Enter() struct{} {
	state := disableInterrupts()
	if s.depth == 0 {
		s.saved = state
	}
	s.depth++
	return struct{}{}
}

// Exit leaves the section. Leaving a section that is not held is a fatal
// misuse.
func (s *Section) Exit(struct{}) {
	if s.depth == 0 {
		panic("critical: exit of section " + s.name + " that is not held")
	}
	s.depth--
	if s.depth == 0 {
		restoreInterrupts(s.saved)
	}
}
