package engine

// CountBoxesOnGoals counts the goal spots currently covered by a box
func CountBoxesOnGoals(state *GameState) int {
	occupied := make(map[Position]struct{}, len(state.Boxes))
	for _, b := range state.Boxes {
		occupied[b.Position] = struct{}{}
	}
	count := 0
	for _, g := range state.Goals {
		if _, ok := occupied[g.Position]; ok {
			count++
		}
	}
	return count
}

// RemainingGoals returns the goal spots not yet covered by a box
func RemainingGoals(state *GameState) []GoalSpot {
	occupied := make(map[Position]struct{}, len(state.Boxes))
	for _, b := range state.Boxes {
		occupied[b.Position] = struct{}{}
	}
	remaining := []GoalSpot{}
	for _, g := range state.Goals {
		if _, ok := occupied[g.Position]; !ok {
			remaining = append(remaining, g)
		}
	}
	return remaining
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Clone returns a deep copy of the mutable parts of the state. The grid is
// shared since it never changes after the level loads.
func (gs *GameState) Clone() *GameState {
	clone := *gs
	clone.Boxes = append([]Box(nil), gs.Boxes...)
	clone.Goals = append([]GoalSpot(nil), gs.Goals...)
	clone.MoveHistory = append([]MoveHistoryEntry(nil), gs.MoveHistory...)
	clone.Board = append([]string(nil), gs.Board...)
	return &clone
}
