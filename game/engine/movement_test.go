package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCorridorLevel() *LevelConfig {
	return &LevelConfig{
		Name:        "corridor",
		Description: "One push wins",
		Layout: []string{
			"#####",
			"#@$.#",
			"#####",
		},
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"up", Up, true},
		{"U", Up, true},
		{" down ", Down, true},
		{"l", Left, true},
		{"RIGHT", Right, true},
		{"north", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidDirection)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMovePlayer_FreeMoveCounts(t *testing.T) {
	state := InitGameStateFromConfig(DefaultLevel())
	require.Equal(t, pos(3, 3), state.PlayerPos)

	outcome := state.MovePlayer(Up, DefaultLevel())

	assert.True(t, outcome.Accepted)
	assert.Empty(t, outcome.PushedBox)
	assert.Equal(t, pos(3, 2), state.PlayerPos)
	assert.Equal(t, 1, state.Gameplay.MovesCount)
	assert.Equal(t, 0, state.Pushes)
}

func TestMovePlayer_WallBlocksWithoutCounting(t *testing.T) {
	level := DefaultLevel()
	state := InitGameStateFromConfig(level)

	state.MovePlayer(Up, level)
	state.MovePlayer(Up, level)
	outcome := state.MovePlayer(Up, level)

	assert.False(t, outcome.Accepted)
	assert.Equal(t, "wall", outcome.BlockedBy)
	assert.Equal(t, pos(3, 1), state.PlayerPos)
	assert.Equal(t, 2, state.Gameplay.MovesCount)
}

func TestMovePlayer_PushBox(t *testing.T) {
	level := DefaultLevel()
	state := InitGameStateFromConfig(level)

	state.MovePlayer(Left, level)
	outcome := state.MovePlayer(Up, level)

	require.True(t, outcome.Accepted)
	assert.Equal(t, "box_0", outcome.PushedBox)
	assert.Equal(t, pos(2, 1), state.Boxes[0].Position)
	assert.Equal(t, pos(2, 2), state.PlayerPos)
	assert.Equal(t, 2, state.Gameplay.MovesCount, "a push counts exactly like a move")
	assert.Equal(t, 1, state.Pushes)
}

func TestMovePlayer_BoxAgainstWallIsBlocked(t *testing.T) {
	level := DefaultLevel()
	state := InitGameStateFromConfig(level)

	state.MovePlayer(Left, level)
	state.MovePlayer(Up, level)
	outcome := state.MovePlayer(Up, level)

	assert.False(t, outcome.Accepted)
	assert.Equal(t, "box", outcome.BlockedBy)
	assert.Equal(t, pos(2, 1), state.Boxes[0].Position)
	assert.Equal(t, 2, state.Gameplay.MovesCount)
}

func TestMovePlayer_BoxAgainstBoxIsBlocked(t *testing.T) {
	level := &LevelConfig{
		Name:   "train",
		Layout: []string{"#######", "#@$$..#", "#######"},
	}
	require.NoError(t, ValidateLevelConfig(level))
	state := InitGameStateFromConfig(level)

	outcome := state.MovePlayer(Right, level)

	assert.False(t, outcome.Accepted)
	assert.Equal(t, "box", outcome.BlockedBy)
	assert.Equal(t, 0, state.Gameplay.MovesCount)
}

func TestMovePlayer_BoundaryIsBlocked(t *testing.T) {
	level := &LevelConfig{Name: "open", Layout: []string{"@$."}}
	state := InitGameStateFromConfig(level)

	outcome := state.MovePlayer(Left, level)

	assert.False(t, outcome.Accepted)
	assert.Equal(t, "boundary", outcome.BlockedBy)
}

func TestMovePlayer_WinsAndFreezes(t *testing.T) {
	level := newCorridorLevel()
	state := InitGameStateFromConfig(level)
	require.Equal(t, Playing, state.Gameplay.State)

	outcome := state.MovePlayer(Right, level)
	require.True(t, outcome.Accepted)
	assert.True(t, outcome.Won)
	assert.Equal(t, Won, state.Gameplay.State)
	assert.Equal(t, 1, state.Gameplay.MovesCount)
	assert.Equal(t, "Level solved in 1 moves!", state.Message)

	outcome = state.MovePlayer(Left, level)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "won", outcome.BlockedBy)
	assert.Equal(t, 1, state.Gameplay.MovesCount)
	assert.Equal(t, Won, state.Gameplay.State)
}

func TestMovePlayer_PartialCoverageKeepsPlaying(t *testing.T) {
	level := DefaultLevel()
	state := InitGameStateFromConfig(level)

	for _, d := range []Direction{Left, Left, Up, Right, Right} {
		require.True(t, state.MovePlayer(d, level).Accepted, "move %s", d)
	}

	assert.Equal(t, pos(4, 2), state.Boxes[0].Position)
	assert.Equal(t, 1, state.BoxesOnGoals)
	assert.Equal(t, Playing, state.Gameplay.State)
	assert.Equal(t, 5, state.Gameplay.MovesCount)
}

func TestCanMove(t *testing.T) {
	level := newCorridorLevel()
	state := InitGameStateFromConfig(level)

	assert.True(t, state.CanMove(Right))
	assert.False(t, state.CanMove(Left))
	assert.False(t, state.CanMove(Up))
	assert.False(t, state.CanMove(Direction("sideways")))

	state.MovePlayer(Right, level)
	assert.False(t, state.CanMove(Left), "no moves once won")
}

func TestAddMoveToHistory(t *testing.T) {
	level := newCorridorLevel()
	state := InitGameStateFromConfig(level)

	blocked := state.MovePlayer(Left, level)
	state.AddMoveToHistory("left", blocked)
	pushed := state.MovePlayer(Right, level)
	state.AddMoveToHistory("right", pushed)

	require.Len(t, state.MoveHistory, 2)
	assert.Equal(t, 2, state.TotalMoves)

	first := state.MoveHistory[0]
	assert.False(t, first.Accepted)
	assert.Equal(t, 0, first.MovesCount)
	assert.Equal(t, 1, first.MoveNumber)

	second := state.MoveHistory[1]
	assert.True(t, second.Accepted)
	assert.Equal(t, "box_0", second.PushedBox)
	assert.Equal(t, 1, second.MovesCount)
	assert.Equal(t, 2, second.MoveNumber)
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"", "Moves: 3"},
		{"Step", "Step"},
		{"Won in %d", "Won in 3"},
		{"100%% in %d", "100% in 3"},
		{"100%%", "100%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatCount(tt.format, "Moves: %d", 3), tt.format)
	}
}

func TestEntityStorePositions(t *testing.T) {
	state := InitGameStateFromConfig(DefaultLevel())

	assert.Equal(t, []Position{pos(2, 2), pos(2, 4)}, state.BoxPositions())
	assert.Equal(t, []Position{pos(4, 2), pos(4, 4)}, state.GoalPositions())
	assert.Equal(t, Playing, EvaluateStore(state))
}
