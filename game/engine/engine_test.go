package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// solutionForDefault solves DefaultLevel in 11 moves.
var solutionForDefault = []string{"l", "l", "u", "r", "r", "d", "l", "l", "d", "r", "r"}

func TestNewEngine(t *testing.T) {
	eng, err := NewEngine(DefaultLevel())
	require.NoError(t, err)

	assert.False(t, eng.IsWon())
	assert.Equal(t, GameplaySummary{State: Playing, MovesCount: 0}, eng.Summary())
	assert.Equal(t, 2, eng.GetTotalGoals())
	assert.Equal(t, 0, eng.GetBoxesOnGoals())
	assert.Len(t, eng.GetRemainingGoals(), 2)
	assert.Nil(t, eng.GetLastMove())
}

func TestNewEngine_InvalidLevel(t *testing.T) {
	_, err := NewEngine(&LevelConfig{Name: "bad", Layout: []string{"#@#"}})
	assert.Error(t, err)
}

func TestNewEngineWithDefaults(t *testing.T) {
	eng := NewEngineWithDefaults()
	require.NotNil(t, eng.GetConfig())
	assert.Equal(t, "default", eng.GetState().LevelName)
}

func TestEngine_SolveDefaultLevel(t *testing.T) {
	eng := NewEngineWithDefaults()

	for i, move := range solutionForDefault {
		require.False(t, eng.IsWon(), "won too early at move %d", i)
		require.True(t, eng.Move(move), "move %d (%s) rejected", i, move)
	}

	assert.True(t, eng.IsWon())
	assert.Equal(t, GameplaySummary{State: Won, MovesCount: 11}, eng.Summary())
	assert.Empty(t, eng.GetRemainingGoals())
	assert.Empty(t, eng.GetPossibleMoves())

	assert.False(t, eng.Move("up"))
	assert.Equal(t, 11, eng.Summary().MovesCount)
}

func TestEngine_MoveRecordsHistory(t *testing.T) {
	eng := NewEngineWithDefaults()

	eng.Move("up")
	eng.Move("sideways")

	history := eng.GetMoveHistory()
	require.Len(t, history, 2)
	assert.True(t, history[0].Accepted)
	assert.False(t, history[1].Accepted)
	assert.Equal(t, "invalid", eng.LastOutcome().BlockedBy)
	assert.Equal(t, "sideways", eng.GetLastMove().Action)
	assert.Equal(t, 1, eng.Summary().MovesCount)
}

func TestEngine_CanMoveAndPossibleMoves(t *testing.T) {
	eng := NewEngineWithDefaults()

	assert.True(t, eng.CanMove("up"))
	assert.False(t, eng.CanMove("diagonal"))
	assert.ElementsMatch(t, []string{"up", "down", "left", "right"}, eng.GetPossibleMoves())
}

func TestEngine_Reset(t *testing.T) {
	eng := NewEngineWithDefaults()
	for _, move := range solutionForDefault {
		eng.Move(move)
	}
	require.True(t, eng.IsWon())

	state := eng.Reset()

	assert.Equal(t, Playing, state.Gameplay.State)
	assert.Equal(t, 0, state.Gameplay.MovesCount)
	assert.Equal(t, pos(3, 3), state.PlayerPos)
	assert.Len(t, state.MoveHistory, len(solutionForDefault), "history is cumulative across resets")
	assert.Equal(t, len(solutionForDefault), state.TotalMoves)
}

func TestEngine_BulkMoveStopsOnWin(t *testing.T) {
	eng, err := NewEngine(newCorridorLevel())
	require.NoError(t, err)

	outcomes := eng.BulkMove([]string{"right", "left", "left"})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Won)
	assert.True(t, eng.IsWon())
}

func TestEngine_SetStateAndConfig(t *testing.T) {
	eng := NewEngineWithDefaults()

	assert.Error(t, eng.SetState(nil))

	other := InitGameStateFromConfig(newCorridorLevel())
	require.NoError(t, eng.SetState(other))
	assert.Equal(t, "corridor", eng.GetState().LevelName)

	require.NoError(t, eng.SetConfig(newCorridorLevel()))
	assert.Equal(t, "corridor", eng.GetConfig().Name)
	assert.Error(t, eng.SetConfig(&LevelConfig{}))
}
