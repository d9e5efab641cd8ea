package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

func TestSolve_DefaultLevel(t *testing.T) {
	eng := engine.NewEngineWithDefaults()

	result, err := Solve(eng.GetState(), Options{})
	require.NoError(t, err)
	require.NotEmpty(t, result.Moves)
	assert.LessOrEqual(t, len(result.Moves), 11)
	assert.Greater(t, result.Explored, 1)

	for _, dir := range result.Moves {
		require.True(t, eng.Move(string(dir)), "solver produced a rejected move %s", dir)
	}
	assert.True(t, eng.IsWon())
	assert.Equal(t, len(result.Moves), eng.Summary().MovesCount)
}

func TestSolve_DoesNotMutateState(t *testing.T) {
	eng := engine.NewEngineWithDefaults()
	before := eng.GetState().Clone()

	_, err := Solve(eng.GetState(), Options{})
	require.NoError(t, err)

	assert.Equal(t, before.PlayerPos, eng.GetState().PlayerPos)
	assert.Equal(t, before.Boxes, eng.GetState().Boxes)
	assert.Equal(t, 0, eng.Summary().MovesCount)
}

func TestSolve_NoSolution(t *testing.T) {
	level := &engine.LevelConfig{Name: "stuck", Layout: []string{"######", "#@$#.#", "######"}}
	require.NoError(t, engine.ValidateLevelConfig(level))

	_, err := Solve(engine.InitGameStateFromConfig(level), Options{})
	assert.ErrorIs(t, err, ErrNoSolution)
}

func TestSolve_SearchLimit(t *testing.T) {
	_, err := Solve(engine.InitGameStateFromConfig(engine.DefaultLevel()), Options{MaxStates: 1})
	assert.ErrorIs(t, err, ErrSearchLimit)
}

func TestSolve_AlreadyWon(t *testing.T) {
	level := &engine.LevelConfig{Name: "corridor", Layout: []string{"#####", "#@$.#", "#####"}}
	eng, err := engine.NewEngine(level)
	require.NoError(t, err)
	require.True(t, eng.Move("right"))

	_, err = Solve(eng.GetState(), Options{})
	assert.ErrorIs(t, err, ErrAlreadyWon)
}

func TestLowerBound(t *testing.T) {
	tests := []struct {
		name   string
		layout []string
		want   int
	}{
		{"corridor", []string{"######", "#@$ .#", "######"}, 2},
		{"box on goal", []string{"#####", "#@* #", "#####"}, 0},
		{"nearest goal per box", []string{"#######", "#. $ .#", "#  @  #", "#  $  #", "#######"}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level := &engine.LevelConfig{Name: tt.name, Layout: tt.layout}
			assert.Equal(t, tt.want, LowerBound(engine.InitGameStateFromConfig(level)))
		})
	}
}
