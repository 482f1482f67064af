// internal/game/phase_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseTransitions(t *testing.T) {
	legal := [][2]Phase{
		{PhaseLobby, PhaseRoundSetup},
		{PhaseRoundSetup, PhaseAnswering},
		{PhaseAnswering, PhaseAllAnswersIn},
		{PhaseAllAnswersIn, PhaseScoring},
		{PhaseAllAnswersIn, PhaseAnswering},
		{PhaseAllAnswersIn, PhaseRoundSetup},
		{PhaseScoring, PhaseAnswering},
		{PhaseScoring, PhaseRoundSetup},
	}
	for _, edge := range legal {
		assert.True(t, edge[0].CanTransitionTo(edge[1]), "%s -> %s should be legal", edge[0], edge[1])
	}

	illegal := [][2]Phase{
		{PhaseLobby, PhaseAnswering},
		{PhaseLobby, PhaseScoring},
		{PhaseAnswering, PhaseScoring},
		{PhaseAnswering, PhaseRoundSetup},
		{PhaseScoring, PhaseLobby},
		{PhaseEnded, PhaseLobby},
		{PhaseEnded, PhaseEnded},
	}
	for _, edge := range illegal {
		assert.False(t, edge[0].CanTransitionTo(edge[1]), "%s -> %s should be illegal", edge[0], edge[1])
	}

	// Ended is reachable from every live phase.
	for _, p := range []Phase{PhaseLobby, PhaseRoundSetup, PhaseAnswering, PhaseAllAnswersIn, PhaseScoring} {
		assert.True(t, p.CanTransitionTo(PhaseEnded))
	}
}

func TestGameStatusCollapse(t *testing.T) {
	assert.Equal(t, "lobby", PhaseLobby.GameStatus())
	assert.Equal(t, "playing", PhaseRoundSetup.GameStatus())
	assert.Equal(t, "playing", PhaseAnswering.GameStatus())
	assert.Equal(t, "playing", PhaseAllAnswersIn.GameStatus())
	assert.Equal(t, "scoring", PhaseScoring.GameStatus())
	assert.Equal(t, "ended", PhaseEnded.GameStatus())
}
