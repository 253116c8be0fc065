// Package history implements the bounded time-travel log.
//
// The buffer records (action, resulting state) pairs after every normal
// dispatch and exposes a pointer to the entry whose state is live.
//
// Semantics follow linear undo/redo:
//   - Append discards every entry after the pointer, appends, then evicts
//     the oldest entries beyond capacity; the pointer moves to the new entry
//   - Travel moves the pointer without appending
//
// Buffer is not safe for concurrent use; the engine Store owns it.
package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/teamsplit/internal/ir"
)

// DefaultCapacity is the default number of retained entries.
const DefaultCapacity = 50

// ErrOutOfRange is returned by Travel for an index with no entry.
var ErrOutOfRange = errors.New("history index out of range")

// Entry is one recorded dispatch.
type Entry struct {
	Seq       int64     `json:"seq"` // Logical clock from the engine
	Action    ir.Action `json:"action"`
	State     ir.State  `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

// Buffer is a bounded log of entries with a current pointer.
type Buffer struct {
	capacity int
	entries  []Entry
	pointer  int // -1 when empty
}

// New creates a buffer holding at most capacity entries.
// Non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		entries:  make([]Entry, 0, capacity),
		pointer:  -1,
	}
}

// Capacity returns the maximum number of retained entries.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Len returns the number of retained entries.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Pointer returns the index of the live entry, or -1 when empty.
func (b *Buffer) Pointer() int {
	return b.pointer
}

// AtHead reports whether the pointer is on the newest entry.
func (b *Buffer) AtHead() bool {
	return b.pointer == len(b.entries)-1
}

// Append records e after discarding any entries beyond the pointer.
// The entry's state is cloned so later mutation of the caller's copy
// cannot reach the log.
func (b *Buffer) Append(e Entry) {
	b.Truncate()
	e.State = e.State.Clone()
	b.entries = append(b.entries, e)

	if over := len(b.entries) - b.capacity; over > 0 {
		// Shift down in place so evicted states are released.
		n := copy(b.entries, b.entries[over:])
		clear(b.entries[n:])
		b.entries = b.entries[:n]
	}
	b.pointer = len(b.entries) - 1
}

// Truncate discards every entry after the pointer.
func (b *Buffer) Truncate() {
	keep := b.pointer + 1
	if keep >= len(b.entries) {
		return
	}
	clear(b.entries[keep:])
	b.entries = b.entries[:keep]
}

// Travel moves the pointer to index and returns that entry.
func (b *Buffer) Travel(index int) (Entry, error) {
	e, ok := b.At(index)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %d (len %d)", ErrOutOfRange, index, len(b.entries))
	}
	b.pointer = index
	return e, nil
}

// At returns a copy of the entry at index.
func (b *Buffer) At(index int) (Entry, bool) {
	if index < 0 || index >= len(b.entries) {
		return Entry{}, false
	}
	e := b.entries[index]
	e.State = e.State.Clone()
	return e, true
}

// Entries returns copies of all retained entries, oldest first.
func (b *Buffer) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	for i, e := range b.entries {
		e.State = e.State.Clone()
		out[i] = e
	}
	return out
}

// Reset drops every entry.
func (b *Buffer) Reset() {
	clear(b.entries)
	b.entries = b.entries[:0]
	b.pointer = -1
}
