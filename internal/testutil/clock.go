// Package testutil holds deterministic stand-ins for the clocks, session IDs
// and log sinks the store depends on.
package testutil

import (
	"sync"
	"time"
)

// DeterministicClock is a resettable sequencer for history entries.
// The first Next after construction or Reset returns 1.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock at 0.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset returns the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

// Epoch is the fixed wall time used by SteppingTime.
var Epoch = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

// SteppingTime is a wall clock that advances by Step on every call to Now.
type SteppingTime struct {
	mu   sync.Mutex
	at   time.Time
	Step time.Duration
}

// NewSteppingTime starts at Epoch and advances one second per call.
func NewSteppingTime() *SteppingTime {
	return &SteppingTime{at: Epoch, Step: time.Second}
}

// Now returns the current time and advances.
func (s *SteppingTime) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.at
	s.at = s.at.Add(s.Step)
	return now
}

// FixedSession always returns the same session ID.
type FixedSession string

// DefaultSession is returned by FixedSession("").
const DefaultSession = "test-session-default"

// Generate returns the session ID.
func (f FixedSession) Generate() string {
	if f == "" {
		return DefaultSession
	}
	return string(f)
}
