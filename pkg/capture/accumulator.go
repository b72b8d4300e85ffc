package capture

import (
	"errors"
	"sync"
)

var ErrAccumulatorClosed = errors.New("the chunk accumulator is already closed")

// Accumulator collects the chunks a media recorder emits, in emission
// order, until it is assembled.
type Accumulator struct {
	locker sync.Mutex
	chunks [][]byte
	size   int
	closed bool
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) Append(chunk []byte) error {
	a.locker.Lock()
	defer a.locker.Unlock()
	if a.closed {
		return ErrAccumulatorClosed
	}
	if len(chunk) == 0 {
		return nil
	}
	a.chunks = append(a.chunks, append([]byte{}, chunk...))
	a.size += len(chunk)
	return nil
}

// Len returns the amount of chunks collected so far.
func (a *Accumulator) Len() int {
	a.locker.Lock()
	defer a.locker.Unlock()
	return len(a.chunks)
}

// Assemble closes the accumulator and returns the concatenation of all
// the chunks.
func (a *Accumulator) Assemble() []byte {
	a.locker.Lock()
	defer a.locker.Unlock()
	a.closed = true
	result := make([]byte, 0, a.size)
	for _, chunk := range a.chunks {
		result = append(result, chunk...)
	}
	return result
}
