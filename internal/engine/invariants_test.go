package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/teamsplit/internal/engine"
	"github.com/roach88/teamsplit/internal/ir"
)

func TestCheckInvariants(t *testing.T) {
	valid := ir.State{
		Members:              ir.Names("A", "B", "C"),
		TotalMembers:         3,
		IsTotalConfirmed:     true,
		TeamCount:            2,
		IsTeamCountConfirmed: true,
		Teams: []ir.Team{
			{Index: 0, Members: ir.Names("A", "C")},
			{Index: 1, Members: ir.Names("B")},
		},
	}

	tests := []struct {
		name   string
		mutate func(s *ir.State)
		want   []string
	}{
		{"valid", func(*ir.State) {}, nil},
		{"default state", func(s *ir.State) { *s = ir.DefaultState() }, nil},
		{
			"confirmed zero total",
			func(s *ir.State) { *s = ir.DefaultState(); s.IsTotalConfirmed = true },
			[]string{engine.InvariantTotalPositive},
		},
		{
			"members over total",
			func(s *ir.State) { s.TotalMembers = 2; s.TeamCount = 1; s.Teams = nil },
			[]string{engine.InvariantMembersInTotal},
		},
		{
			"team count over total",
			func(s *ir.State) { s.TeamCount = 4; s.Teams = nil },
			[]string{engine.InvariantTeamCountRange},
		},
		{
			"duplicate member",
			func(s *ir.State) { s.Members[2] = ir.NewName("A"); s.Teams = nil },
			[]string{engine.InvariantUniqueMembers},
		},
		{
			"team holds stranger",
			func(s *ir.State) { s.Teams[1].Members = ir.Names("Z") },
			[]string{engine.InvariantTeamsCoverage},
		},
		{
			"wrong team count",
			func(s *ir.State) { s.Teams = s.Teams[:1]; s.Teams[0].Members = ir.Names("A", "B", "C") },
			[]string{engine.InvariantTeamsCoverage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid.Clone()
			tt.mutate(&s)

			var got []string
			for _, v := range engine.CheckInvariants(s) {
				got = append(got, v.Invariant)
				assert.Contains(t, v.Error(), string(engine.ErrCodeInvariant))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
