package engine

import (
	"log/slog"
	"slices"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/teamsplit/internal/history"
	"github.com/roach88/teamsplit/internal/ir"
	"github.com/roach88/teamsplit/internal/reducer"
)

// ReducerFunc computes the next state for an action. A non-nil error leaves
// the current state unchanged.
type ReducerFunc func(s ir.State, action ir.Action) (ir.State, error)

// Listener receives the new and previous state after every dispatch.
type Listener func(next, prev ir.State)

// Selector derives the slice of state a subscriber cares about. The selected
// value is compared structurally, so it must not hold unexported fields.
type Selector func(s ir.State) any

// Store is the single source of truth for a teamsplit session.
//
// INVARIANTS:
//   - state is replaced wholesale, never mutated in place
//   - every value handed out (State, listener arguments, history) is a copy
//   - pipeline stage order never changes after construction
type Store struct {
	state    ir.State
	reduce   ReducerFunc
	pipeline *Pipeline
	history  *history.Buffer
	clock    Sequencer
	sessions SessionGenerator
	session  string
	logger   *slog.Logger
	now      func() time.Time

	capacity int
	extra    []Middleware
	subs     []*subscription
}

type subscription struct {
	listener Listener
	selector Selector
	last     any
	active   bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the built-in stages.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithHistoryCapacity bounds the history buffer.
// Non-positive values use history.DefaultCapacity.
func WithHistoryCapacity(capacity int) Option {
	return func(s *Store) {
		s.capacity = capacity
	}
}

// WithMiddleware appends stages after the built-in ones, closest to the reducer.
func WithMiddleware(stages ...Middleware) Option {
	return func(s *Store) {
		s.extra = append(s.extra, stages...)
	}
}

// WithReducer replaces reducer.Reduce.
func WithReducer(fn ReducerFunc) Option {
	return func(s *Store) {
		s.reduce = fn
	}
}

// WithClock sets the sequencer stamping history entries.
func WithClock(clock Sequencer) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithSessionGenerator sets the generator for the session ID.
func WithSessionGenerator(gen SessionGenerator) Option {
	return func(s *Store) {
		s.sessions = gen
	}
}

// WithNow sets the wall clock used for history timestamps and snapshots.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithInitialState starts the store from a copy of state instead of
// ir.DefaultState.
func WithInitialState(state ir.State) Option {
	return func(s *Store) {
		s.state = state.Clone()
	}
}

// New creates a Store with the default pipeline:
// logging, containment, history, invariants, then any WithMiddleware stages.
func New(opts ...Option) *Store {
	s := &Store{
		state:    ir.DefaultState(),
		reduce:   reducer.Reduce,
		clock:    NewClock(),
		sessions: UUIDv7Generator{},
		logger:   slog.Default(),
		now:      time.Now,
		capacity: history.DefaultCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.history = history.New(s.capacity)
	s.session = s.sessions.Generate()

	stages := []Middleware{
		LoggingStage{Logger: s.logger},
		ContainStage{Logger: s.logger},
		HistoryStage{Buffer: s.history, Clock: s.clock, Now: s.now},
		InvariantStage{Logger: s.logger},
	}
	s.pipeline = NewPipeline(append(stages, s.extra...)...)

	s.logger.Debug("store created",
		"session", s.session,
		"history_capacity", s.history.Capacity(),
		"stages", s.pipeline.Len(),
	)
	return s
}

// State returns a copy of the current state.
func (s *Store) State() ir.State {
	return s.state.Clone()
}

// Dispatch runs action through the pipeline and notifies subscribers.
// It returns the action it was given. Nothing escapes: see the package doc.
func (s *Store) Dispatch(action ir.Action) ir.Action {
	prev := s.state
	if err := s.pipeline.Run(s, action, s.apply); err != nil {
		// Only reachable if a custom stage sits outside containment.
		s.logger.Error("dispatch error not contained", "action", action.Type, "error", err)
	}
	s.notify(s.state, prev)
	return action
}

func (s *Store) apply(action ir.Action) error {
	next, err := s.reduce(s.state, action)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Store) replace(state ir.State) {
	s.state = state.Clone()
}

// Subscribe registers listener and returns a function that removes it.
//
// With a nil selector the listener runs after every dispatch. Otherwise it
// runs only when the selected value differs structurally from the value
// selected at the previous notification (or at subscription time).
// Unsubscribing twice is a no-op.
func (s *Store) Subscribe(listener Listener, selector Selector) func() {
	sub := &subscription{listener: listener, selector: selector, active: true}
	if selector != nil {
		sub.last = selector(s.State())
	}
	s.subs = append(s.subs, sub)

	return func() {
		if !sub.active {
			return
		}
		sub.active = false
		s.subs = slices.DeleteFunc(s.subs, func(x *subscription) bool { return x == sub })
	}
}

func (s *Store) notify(next, prev ir.State) {
	// Listeners may unsubscribe (or subscribe) while being notified.
	for _, sub := range slices.Clone(s.subs) {
		if !sub.active {
			continue
		}
		if sub.selector != nil {
			selected := sub.selector(next.Clone())
			if cmp.Equal(sub.last, selected) {
				continue
			}
			sub.last = selected
		}
		sub.listener(next.Clone(), prev.Clone())
	}
}

// Undo travels one entry back in history. Reports false at the oldest entry.
func (s *Store) Undo() bool {
	p := s.history.Pointer()
	if p <= 0 {
		return false
	}
	s.Dispatch(ir.TimeTravel(p - 1))
	return true
}

// Redo travels one entry forward in history. Reports false at the newest entry.
func (s *Store) Redo() bool {
	if s.history.AtHead() {
		return false
	}
	s.Dispatch(ir.TimeTravel(s.history.Pointer() + 1))
	return true
}

// History returns copies of the retained history entries, oldest first.
func (s *Store) History() []history.Entry {
	return s.history.Entries()
}

// HistoryPointer returns the index of the current history entry, or -1.
func (s *Store) HistoryPointer() int {
	return s.history.Pointer()
}

// Session returns the ID generated for this store.
func (s *Store) Session() string {
	return s.session
}

// Snapshot captures the current teams for persistence.
func (s *Store) Snapshot() (ir.Snapshot, error) {
	return ir.NewSnapshot(s.state, s.session, s.now())
}
