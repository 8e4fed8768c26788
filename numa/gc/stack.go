package gc

import (
	"fmt"

	"github.com/joshuapare/numakit/internal/buf"
	"github.com/joshuapare/numakit/numa/alloc"
)

// ShadowStack is a word stack, growing down from a fixed base, whose live
// part is scanned for roots on every collection. Mutators push the addresses
// they need kept alive and pop or unwind when the owning scope ends.
type ShadowStack struct {
	mem []byte
	sp  int // offset of the top word; len(mem) when empty
}

func newShadowStack(mem []byte) *ShadowStack {
	size := buf.AlignDown(len(mem), buf.WordSize)
	return &ShadowStack{mem: mem[:size], sp: size}
}

// Base returns the address one past the highest stack word. Scans run from
// the current stack pointer up to Base.
func (s *ShadowStack) Base() alloc.Addr {
	return alloc.Addr(buf.Addr(s.mem)) + alloc.Addr(len(s.mem))
}

// SP returns the current stack pointer as an offset. Save it on scope entry
// and pass it to Unwind on exit.
func (s *ShadowStack) SP() int { return s.sp }

// Depth returns the number of words on the stack.
func (s *ShadowStack) Depth() int { return (len(s.mem) - s.sp) / buf.WordSize }

// Push places w on top of the stack.
func (s *ShadowStack) Push(w uintptr) error {
	if s.sp < buf.WordSize {
		return ErrStackOverflow
	}
	s.sp -= buf.WordSize
	buf.PutWord(s.mem, s.sp, w)
	return nil
}

// Pop removes and returns the top word.
func (s *ShadowStack) Pop() (uintptr, error) {
	if s.sp >= len(s.mem) {
		return 0, ErrStackUnderflow
	}
	w := buf.Word(s.mem, s.sp)
	s.sp += buf.WordSize
	return w, nil
}

// Peek returns the word i slots below the top (0 is the top).
func (s *ShadowStack) Peek(i int) (uintptr, error) {
	off, err := s.slot(i)
	if err != nil {
		return 0, err
	}
	return buf.Word(s.mem, off), nil
}

// Set overwrites the word i slots below the top.
func (s *ShadowStack) Set(i int, w uintptr) error {
	off, err := s.slot(i)
	if err != nil {
		return err
	}
	buf.PutWord(s.mem, off, w)
	return nil
}

// Unwind resets the stack pointer to a value previously returned by SP,
// dropping every word pushed since.
func (s *ShadowStack) Unwind(sp int) error {
	if sp < s.sp || sp > len(s.mem) || !buf.IsAligned(sp, buf.WordSize) {
		return fmt.Errorf("%w: unwind to %d (sp %d)", ErrBadSlot, sp, s.sp)
	}
	s.sp = sp
	return nil
}

func (s *ShadowStack) slot(i int) (int, error) {
	if i < 0 || i >= s.Depth() {
		return 0, fmt.Errorf("%w: %d of %d", ErrBadSlot, i, s.Depth())
	}
	return s.sp + i*buf.WordSize, nil
}

// live returns the words between the stack pointer and the base.
func (s *ShadowStack) live() []byte {
	return s.mem[s.sp:]
}
