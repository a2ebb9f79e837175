package protocol

import (
	"scopeblock/critical"
	"scopeblock/scope"
)

// InputBuffer provides an abstraction for reading incoming protocol data
type InputBuffer interface {
	// Data returns the available data slice
	Data() []byte

	// Available returns the number of bytes available
	Available() int

	// Pop removes n bytes from the front of the buffer
	Pop(n int)
}

// OutputBuffer provides an abstraction for writing outgoing protocol data
type OutputBuffer interface {
	// Output writes data to the buffer
	Output(data []byte)

	// CurPosition returns the current write position
	CurPosition() int

	// Update modifies a byte at a specific position
	Update(pos int, val byte)

	// DataSince returns data from a specific position to current
	DataSince(pos int) []byte
}

// SliceInputBuffer implements InputBuffer using a byte slice
type SliceInputBuffer struct {
	data []byte
}

// NewSliceInputBuffer creates a new SliceInputBuffer
func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{data: data}
}

func (s *SliceInputBuffer) Data() []byte {
	return s.data
}

func (s *SliceInputBuffer) Available() int {
	return len(s.data)
}

func (s *SliceInputBuffer) Pop(n int) {
	if n > len(s.data) {
		n = len(s.data)
	}
	s.data = s.data[n:]
}

// ScratchOutput implements OutputBuffer using a fixed-size scratch buffer.
// Writes past the end are dropped and flag the buffer as overflowed.
type ScratchOutput struct {
	buf      [MessageMax]byte
	pos      int
	overflow bool
}

// NewScratchOutput creates a new ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
	if n < len(data) {
		s.overflow = true
	}
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Overflowed reports whether a write was cut short since the last
// Reset or Truncate.
func (s *ScratchOutput) Overflowed() bool {
	return s.overflow
}

// Truncate drops everything written after pos
func (s *ScratchOutput) Truncate(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos < s.pos {
		s.pos = pos
	}
	s.overflow = false
}

// Checkpoint is a saved write position together with the overflow flag
type Checkpoint struct {
	pos      int
	overflow bool
}

// Checkpoint records the current write position and overflow flag
func (s *ScratchOutput) Checkpoint() Checkpoint {
	return Checkpoint{pos: s.pos, overflow: s.overflow}
}

// Rollback drops everything written after c and puts back the overflow
// flag as it was, so an overflow from before c is still reported.
func (s *ScratchOutput) Rollback(c Checkpoint) {
	s.Truncate(c.pos)
	s.overflow = c.overflow
}

// Mark starts an output transaction. Closing the returned guard rolls back
// to the Checkpoint taken at Mark unless the guard was invalidated first.
func (s *ScratchOutput) Mark() *scope.Cancelable[Checkpoint] {
	return scope.New(s.Checkpoint, s.Rollback)
}

// Result returns the accumulated output data
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Reset clears the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
	s.overflow = false
}

// FifoBuffer is a circular buffer for serial I/O. One side is normally fed
// from an interrupt handler, so every access runs in an atomic block.
type FifoBuffer struct {
	buf   []byte
	read  int
	write int
	size  int
}

// NewFifoBuffer creates a new FifoBuffer with the specified capacity.
// One slot stays free to tell full from empty.
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// Write appends data to the FIFO buffer
func (f *FifoBuffer) Write(data []byte) int {
	written := 0
	for range critical.Block() {
		for _, b := range data {
			nextWrite := (f.write + 1) % f.size
			if nextWrite == f.read {
				break
			}
			f.buf[f.write] = b
			f.write = nextWrite
			written++
		}
	}
	return written
}

// Read reads up to len(data) bytes from the FIFO buffer
func (f *FifoBuffer) Read(data []byte) int {
	read := 0
	for range critical.Block() {
		for i := range data {
			if f.read == f.write {
				break
			}
			data[i] = f.buf[f.read]
			f.read = (f.read + 1) % f.size
			read++
		}
	}
	return read
}

func (f *FifoBuffer) available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Available returns the number of bytes available for reading
func (f *FifoBuffer) Available() int {
	var n int
	for range critical.Block() {
		n = f.available()
	}
	return n
}

// Free returns the number of bytes available for writing
func (f *FifoBuffer) Free() int {
	return f.size - f.Available() - 1
}

// Data returns a copy of the buffered bytes in order
func (f *FifoBuffer) Data() []byte {
	var result []byte
	for range critical.Block() {
		result = make([]byte, f.available())
		if f.read <= f.write {
			copy(result, f.buf[f.read:f.write])
			break
		}
		n := copy(result, f.buf[f.read:])
		copy(result[n:], f.buf[:f.write])
	}
	return result
}

// Pop removes n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	for range critical.Block() {
		for i := 0; i < n && f.read != f.write; i++ {
			f.read = (f.read + 1) % f.size
		}
	}
}

// IsEmpty returns true if the buffer is empty
func (f *FifoBuffer) IsEmpty() bool {
	return f.Available() == 0
}

// Reset clears the buffer
func (f *FifoBuffer) Reset() {
	for range critical.Block() {
		f.read = 0
		f.write = 0
	}
}
