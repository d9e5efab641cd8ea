// Package render turns game state into plain text for terminals, logs and
// agent-facing transports.
package render

import (
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

// Summary renders the gameplay summary as two lines: the state, then the
// moves count.
func Summary(s engine.GameplaySummary) string {
	return fmt.Sprintf("%s\nMoves: %d", s.State, s.MovesCount)
}

// Board renders the state in the layout alphabet (# wall, @ player, + player
// on goal, $ box, * box on goal, . goal, space floor).
func Board(state *engine.GameState) []string {
	if state == nil {
		return nil
	}

	boxes := make(map[engine.Position]bool, len(state.Boxes))
	for _, b := range state.Boxes {
		boxes[b.Position] = true
	}
	goals := make(map[engine.Position]bool, len(state.Goals))
	for _, g := range state.Goals {
		goals[g.Position] = true
	}

	lines := make([]string, 0, len(state.Grid))
	for y, row := range state.Grid {
		var line strings.Builder
		for x, tile := range row {
			p := engine.Position{X: x, Y: y}
			line.WriteRune(cellChar(tile, p == state.PlayerPos, boxes[p], goals[p]))
		}
		lines = append(lines, line.String())
	}
	return lines
}

// CellChar returns the layout character of a single position
func CellChar(state *engine.GameState, p engine.Position) string {
	if !state.InBounds(p) {
		return string(engine.CharWall)
	}
	return string(cellChar(state.Grid[p.Y][p.X], p == state.PlayerPos, state.BoxAt(p) >= 0, state.IsGoal(p)))
}

func cellChar(tile engine.Tile, player, box, goal bool) rune {
	switch {
	case tile == engine.Wall:
		return engine.CharWall
	case player && goal:
		return engine.CharPlayerGoal
	case player:
		return engine.CharPlayer
	case box && goal:
		return engine.CharBoxGoal
	case box:
		return engine.CharBox
	case goal:
		return engine.CharGoal
	default:
		return engine.CharFloor
	}
}

// Status renders a compact multi-line status block: board, summary and
// objective progress.
func Status(state *engine.GameState) string {
	if state == nil {
		return ""
	}
	var b strings.Builder
	for _, line := range Board(state) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(Summary(state.Gameplay))
	fmt.Fprintf(&b, "\nBoxes on goals: %d/%d", engine.CountBoxesOnGoals(state), len(state.Goals))
	if state.Message != "" {
		fmt.Fprintf(&b, "\n%s", state.Message)
	}
	return b.String()
}
