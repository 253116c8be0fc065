package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/teamsplit/internal/engine"
	"github.com/roach88/teamsplit/internal/ir"
)

func tracing(name string, trace *[]string) engine.Middleware {
	return engine.MiddlewareFunc(func(_ engine.API, a ir.Action, next engine.Next) error {
		*trace = append(*trace, name+">")
		err := next(a)
		*trace = append(*trace, "<"+name)
		return err
	})
}

func TestPipeline_RunsOutermostFirst(t *testing.T) {
	var trace []string
	p := engine.NewPipeline(tracing("a", &trace), tracing("b", &trace))
	require.Equal(t, 2, p.Len())

	err := p.Run(nil, ir.ResetState(), func(ir.Action) error {
		trace = append(trace, "reduce")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a>", "b>", "reduce", "<b", "<a"}, trace)
}

func TestPipeline_StageCanShortCircuit(t *testing.T) {
	reached := false
	stop := engine.MiddlewareFunc(func(engine.API, ir.Action, engine.Next) error { return nil })
	p := engine.NewPipeline(stop)

	require.NoError(t, p.Run(nil, ir.ResetState(), func(ir.Action) error {
		reached = true
		return nil
	}))
	assert.False(t, reached)
}

func TestPipeline_StageCanRewriteAction(t *testing.T) {
	rewrite := engine.MiddlewareFunc(func(_ engine.API, _ ir.Action, next engine.Next) error {
		return next(ir.SetTotalMembers(9))
	})
	var got ir.Action
	p := engine.NewPipeline(rewrite)

	require.NoError(t, p.Run(nil, ir.ResetState(), func(a ir.Action) error {
		got = a
		return nil
	}))
	assert.Equal(t, ir.SetTotalMembers(9), got)
}

func TestPipeline_EmptyRunsTerminal(t *testing.T) {
	calls := 0
	p := engine.NewPipeline()
	require.NoError(t, p.Run(nil, ir.ResetState(), func(ir.Action) error {
		calls++
		return nil
	}))
	assert.Equal(t, 1, calls)
}
