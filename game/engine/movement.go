package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidDirection = errors.New("invalid direction")

// Direction is one of the four grid moves
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions lists every direction in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// ParseDirection accepts full names and single-letter shorthands, case-insensitively
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u":
		return Up, nil
	case "down", "d":
		return Down, nil
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Delta returns the column and row offsets of the direction
func (d Direction) Delta() (int, int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	default:
		return 0, 0
	}
}

// MoveOutcome describes what a single move did
type MoveOutcome struct {
	Accepted  bool     `json:"accepted"`
	From      Position `json:"from"`
	To        Position `json:"to"`
	PushedBox string   `json:"pushed_box,omitempty"`
	BlockedBy string   `json:"blocked_by,omitempty"` // wall|boundary|box|won|invalid
	Won       bool     `json:"won,omitempty"`        // true only on the move that solved the level
}

// InBounds reports whether the position lies inside the grid
func (gs *GameState) InBounds(p Position) bool {
	return p.Y >= 0 && p.Y < len(gs.Grid) && p.X >= 0 && p.X < len(gs.Grid[p.Y])
}

// IsWall reports whether the position is a wall or outside the grid
func (gs *GameState) IsWall(p Position) bool {
	if !gs.InBounds(p) {
		return true
	}
	return gs.Grid[p.Y][p.X] == Wall
}

// BoxAt returns the index of the box at p, or -1
func (gs *GameState) BoxAt(p Position) int {
	for i, b := range gs.Boxes {
		if b.Position == p {
			return i
		}
	}
	return -1
}

// IsGoal reports whether p holds a goal spot
func (gs *GameState) IsGoal(p Position) bool {
	for _, g := range gs.Goals {
		if g.Position == p {
			return true
		}
	}
	return false
}

// BoxPositions implements EntityStore
func (gs *GameState) BoxPositions() []Position {
	positions := make([]Position, len(gs.Boxes))
	for i, b := range gs.Boxes {
		positions[i] = b.Position
	}
	return positions
}

// GoalPositions implements EntityStore
func (gs *GameState) GoalPositions() []Position {
	positions := make([]Position, len(gs.Goals))
	for i, g := range gs.Goals {
		positions[i] = g.Position
	}
	return positions
}

// CanMove checks whether a move in the direction would be accepted
func (gs *GameState) CanMove(dir Direction) bool {
	if gs.Gameplay.IsWon() {
		return false
	}
	dx, dy := dir.Delta()
	if dx == 0 && dy == 0 {
		return false
	}
	target := gs.PlayerPos.Add(dx, dy)
	if gs.IsWall(target) {
		return false
	}
	if gs.BoxAt(target) >= 0 {
		beyond := target.Add(dx, dy)
		return !gs.IsWall(beyond) && gs.BoxAt(beyond) < 0
	}
	return true
}

// MovePlayer resolves one movement input, pushing a box when one is in the way.
// An accepted move is recorded once on the gameplay summary, then the
// objective is re-evaluated.
func (gs *GameState) MovePlayer(dir Direction, level *LevelConfig) MoveOutcome {
	outcome := MoveOutcome{From: gs.PlayerPos, To: gs.PlayerPos}
	messages := LevelMessages{}
	if level != nil {
		messages = level.Messages
	}

	if gs.Gameplay.IsWon() {
		outcome.BlockedBy = "won"
		gs.Message = messages.AlreadyWon
		if gs.Message == "" {
			gs.Message = "The level is already solved."
		}
		return outcome
	}

	dx, dy := dir.Delta()
	if dx == 0 && dy == 0 {
		outcome.BlockedBy = "invalid"
		gs.Message = fmt.Sprintf("Unknown direction %q", string(dir))
		return outcome
	}

	target := gs.PlayerPos.Add(dx, dy)
	if gs.IsWall(target) {
		outcome.BlockedBy = "wall"
		if !gs.InBounds(target) {
			outcome.BlockedBy = "boundary"
		}
		gs.Message = blockedMessage(messages, dir, outcome.BlockedBy, target)
		return outcome
	}

	if idx := gs.BoxAt(target); idx >= 0 {
		beyond := target.Add(dx, dy)
		if gs.IsWall(beyond) || gs.BoxAt(beyond) >= 0 {
			outcome.BlockedBy = "box"
			gs.Message = blockedMessage(messages, dir, outcome.BlockedBy, target)
			return outcome
		}
		gs.Boxes[idx].Position = beyond
		gs.Pushes++
		outcome.PushedBox = gs.Boxes[idx].ID
	}

	gs.PlayerPos = target
	outcome.To = target
	outcome.Accepted = true
	RecordMove(&gs.Gameplay)

	if outcome.PushedBox != "" {
		gs.Message = formatCount(messages.Pushed, "Pushed a box. Moves: %d", gs.Gameplay.MovesCount)
	} else {
		gs.Message = formatCount(messages.Moved, "Moves: %d", gs.Gameplay.MovesCount)
	}

	gs.BoxesOnGoals = CountBoxesOnGoals(gs)
	if gs.Gameplay.Observe(gs.BoxPositions(), gs.GoalPositions()) {
		outcome.Won = true
		gs.Message = formatCount(messages.Victory, "Level solved in %d moves!", gs.Gameplay.MovesCount)
	}

	return outcome
}

// AddMoveToHistory appends a move attempt to the cumulative history
func (gs *GameState) AddMoveToHistory(action string, outcome MoveOutcome) {
	entry := MoveHistoryEntry{
		Action:       action,
		FromPosition: outcome.From,
		ToPosition:   outcome.To,
		PushedBox:    outcome.PushedBox,
		Accepted:     outcome.Accepted,
		MovesCount:   gs.Gameplay.MovesCount,
		Timestamp:    time.Now().Unix(),
		MoveNumber:   gs.TotalMoves + 1,
	}
	gs.MoveHistory = append(gs.MoveHistory, entry)
	gs.TotalMoves++
}

func blockedMessage(messages LevelMessages, dir Direction, reason string, at Position) string {
	if messages.Blocked != "" {
		return messages.Blocked + fmt.Sprintf(" [Blocked by: %s]", reason)
	}
	return fmt.Sprintf("Can't move %s: %s at (%d,%d)", dir, reason, at.X, at.Y)
}

func formatCount(format, fallback string, n int) string {
	if format == "" {
		format = fallback
	}
	if !strings.Contains(strings.ReplaceAll(format, "%%", ""), "%d") {
		return strings.ReplaceAll(format, "%%", "%")
	}
	return fmt.Sprintf(format, n)
}
