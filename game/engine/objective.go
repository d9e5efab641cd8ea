package engine

import "fmt"

// GameplayState is the overall puzzle status. The zero value is Playing.
type GameplayState int

const (
	Playing GameplayState = iota
	Won
)

func (s GameplayState) String() string {
	switch s {
	case Playing:
		return "Playing"
	case Won:
		return "Won"
	default:
		return fmt.Sprintf("GameplayState(%d)", int(s))
	}
}

// MarshalText encodes the state as "Playing" or "Won"
func (s GameplayState) MarshalText() ([]byte, error) {
	switch s {
	case Playing, Won:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("unknown gameplay state %d", int(s))
	}
}

// UnmarshalText decodes "Playing" or "Won"
func (s *GameplayState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Playing", "":
		*s = Playing
	case "Won":
		*s = Won
	default:
		return fmt.Errorf("unknown gameplay state %q", string(text))
	}
	return nil
}

// GameplaySummary aggregates the puzzle state and the accepted move count
type GameplaySummary struct {
	State      GameplayState `json:"state"`
	MovesCount int           `json:"moves_count"`
}

// EntityStore supplies the current box positions and the fixed goal positions
type EntityStore interface {
	BoxPositions() []Position
	GoalPositions() []Position
}

// Evaluate returns Won if and only if every goal position is occupied by a
// box. Duplicate positions collapse; an empty goal set is won vacuously.
func Evaluate(boxes, goals []Position) GameplayState {
	occupied := make(map[Position]struct{}, len(boxes))
	for _, b := range boxes {
		occupied[b] = struct{}{}
	}
	for _, g := range goals {
		if _, ok := occupied[g]; !ok {
			return Playing
		}
	}
	return Won
}

// EvaluateStore evaluates the positions currently held by store
func EvaluateStore(store EntityStore) GameplayState {
	return Evaluate(store.BoxPositions(), store.GoalPositions())
}

// RecordMove counts one accepted player move
func RecordMove(summary *GameplaySummary) {
	summary.MovesCount++
}

// Observe applies the Playing -> Won transition. It reports whether the
// transition happened on this call. Won is terminal.
func (s *GameplaySummary) Observe(boxes, goals []Position) bool {
	if s.State == Won {
		return false
	}
	if Evaluate(boxes, goals) == Won {
		s.State = Won
		return true
	}
	return false
}

// IsWon reports whether the puzzle has been solved
func (s GameplaySummary) IsWon() bool {
	return s.State == Won
}
