package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

func TestSummary(t *testing.T) {
	assert.Equal(t, "Playing\nMoves: 0", Summary(engine.GameplaySummary{}))
	assert.Equal(t, "Won\nMoves: 12", Summary(engine.GameplaySummary{State: engine.Won, MovesCount: 12}))
}

func TestBoard_RoundTripsLayout(t *testing.T) {
	level := engine.DefaultLevel()
	state := engine.InitGameStateFromConfig(level)

	assert.Equal(t, level.Layout, Board(state))
}

func TestBoard_OverlappingEntities(t *testing.T) {
	layout := []string{"#####", "#+$*#", "#####"}
	state := engine.InitGameStateFromConfig(&engine.LevelConfig{Name: "x", Layout: layout})

	assert.Equal(t, layout, Board(state))
	assert.Nil(t, Board(nil))
}

func TestCellChar(t *testing.T) {
	state := engine.InitGameStateFromConfig(engine.DefaultLevel())

	assert.Equal(t, "@", CellChar(state, engine.Position{X: 3, Y: 3}))
	assert.Equal(t, "$", CellChar(state, engine.Position{X: 2, Y: 2}))
	assert.Equal(t, ".", CellChar(state, engine.Position{X: 4, Y: 2}))
	assert.Equal(t, " ", CellChar(state, engine.Position{X: 1, Y: 1}))
	assert.Equal(t, "#", CellChar(state, engine.Position{X: 0, Y: 0}))
	assert.Equal(t, "#", CellChar(state, engine.Position{X: -1, Y: 40}))
}

func TestStatus(t *testing.T) {
	state := engine.InitGameStateFromConfig(engine.DefaultLevel())

	status := Status(state)

	assert.True(t, strings.HasPrefix(status, "#######\n"))
	assert.Contains(t, status, "Playing\nMoves: 0")
	assert.Contains(t, status, "Boxes on goals: 0/2")
	assert.Contains(t, status, "Push every box onto a goal.")
	assert.Empty(t, Status(nil))
}
