package engine

import "github.com/roach88/teamsplit/internal/ir"

// API is the view of the Store handed to middleware.
//
// State returns a copy of the current state. Dispatch re-enters the full
// pipeline from the first stage. replace is reserved for the history stage.
type API interface {
	State() ir.State
	Dispatch(action ir.Action) ir.Action
	replace(s ir.State)
}

// Next forwards an action to the remainder of the pipeline.
type Next func(action ir.Action) error

// Middleware is one stage of the dispatch pipeline.
//
// A stage may inspect the action, call next zero or one time, and act after
// next returns. Errors flow outward toward the containment stage.
type Middleware interface {
	Handle(api API, action ir.Action, next Next) error
}

// MiddlewareFunc adapts a function to the Middleware interface.
type MiddlewareFunc func(api API, action ir.Action, next Next) error

// Handle calls f.
func (f MiddlewareFunc) Handle(api API, action ir.Action, next Next) error {
	return f(api, action, next)
}

// Pipeline is an ordered chain of middleware ending in a terminal Next.
//
// Stage order is fixed at construction: the first stage is outermost.
type Pipeline struct {
	stages []Middleware
}

// NewPipeline creates a pipeline from stages in outermost-first order.
// The slice is copied.
func NewPipeline(stages ...Middleware) *Pipeline {
	copied := make([]Middleware, len(stages))
	copy(copied, stages)
	return &Pipeline{stages: copied}
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Run sends action through every stage and finally into terminal.
func (p *Pipeline) Run(api API, action ir.Action, terminal Next) error {
	return p.at(0, api, terminal)(action)
}

func (p *Pipeline) at(i int, api API, terminal Next) Next {
	if i >= len(p.stages) {
		return terminal
	}
	stage := p.stages[i]
	return func(action ir.Action) error {
		return stage.Handle(api, action, p.at(i+1, api, terminal))
	}
}
