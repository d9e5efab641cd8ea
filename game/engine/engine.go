package engine

import "fmt"

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsWon() bool
	Summary() GameplaySummary
	GetPlayerPosition() Position

	// Movement operations
	Move(direction string) bool
	CanMove(direction string) bool
	GetPossibleMoves() []string

	// Configuration
	GetConfig() *LevelConfig
	SetConfig(level *LevelConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	// Objectives
	GetTotalGoals() int
	GetBoxesOnGoals() int
	GetRemainingGoals() []GoalSpot
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state       *GameState
	config      *LevelConfig
	lastOutcome MoveOutcome
}

// NewEngine creates a new game engine with the provided level
func NewEngine(level *LevelConfig) (*GameEngine, error) {
	if err := ValidateLevelConfig(level); err != nil {
		return nil, err
	}

	return &GameEngine{
		config: level,
		state:  InitGameStateFromConfig(level),
	}, nil
}

// NewEngineWithDefaults creates a new game engine with the built-in level
func NewEngineWithDefaults() *GameEngine {
	level := DefaultLevel()
	return &GameEngine{
		config: level,
		state:  InitGameStateFromConfig(level),
	}
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState sets the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	e.state = state
	return nil
}

// Reset starts the level over as a fresh game. The cumulative move history
// survives; the gameplay summary does not.
func (e *GameEngine) Reset() *GameState {
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	e.state = InitGameStateFromConfig(e.config)

	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal
	e.lastOutcome = MoveOutcome{}

	return e.state
}

// IsWon returns whether every goal is covered
func (e *GameEngine) IsWon() bool {
	return e.state.Gameplay.IsWon()
}

// Summary returns a copy of the gameplay summary
func (e *GameEngine) Summary() GameplaySummary {
	return e.state.Gameplay
}

// GetPlayerPosition returns the current player position
func (e *GameEngine) GetPlayerPosition() Position {
	return e.state.PlayerPos
}

// Move attempts to move the player in the specified direction
func (e *GameEngine) Move(direction string) bool {
	return e.MoveWithOutcome(direction).Accepted
}

// MoveWithOutcome moves the player and reports what happened
func (e *GameEngine) MoveWithOutcome(direction string) MoveOutcome {
	dir, err := ParseDirection(direction)
	if err != nil {
		dir = Direction(direction)
	}

	outcome := e.state.MovePlayer(dir, e.config)
	e.state.AddMoveToHistory(direction, outcome)
	e.lastOutcome = outcome

	return outcome
}

// LastOutcome returns the outcome of the most recent move
func (e *GameEngine) LastOutcome() MoveOutcome {
	return e.lastOutcome
}

// CanMove checks if the player can move in the specified direction
func (e *GameEngine) CanMove(direction string) bool {
	dir, err := ParseDirection(direction)
	if err != nil {
		return false
	}
	return e.state.CanMove(dir)
}

// GetPossibleMoves returns all directions the player can currently move
func (e *GameEngine) GetPossibleMoves() []string {
	var possible []string
	for _, dir := range Directions {
		if e.state.CanMove(dir) {
			possible = append(possible, string(dir))
		}
	}
	return possible
}

// GetConfig returns the current level
func (e *GameEngine) GetConfig() *LevelConfig {
	return e.config
}

// SetConfig sets a new level and starts a fresh game
func (e *GameEngine) SetConfig(level *LevelConfig) error {
	if err := ValidateLevelConfig(level); err != nil {
		return err
	}

	e.config = level
	e.state = InitGameStateFromConfig(level)
	return nil
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// GetTotalGoals returns the number of goal spots in the level
func (e *GameEngine) GetTotalGoals() int {
	return len(e.state.Goals)
}

// GetBoxesOnGoals returns the number of covered goal spots
func (e *GameEngine) GetBoxesOnGoals() int {
	return CountBoxesOnGoals(e.state)
}

// GetRemainingGoals returns the goal spots still uncovered
func (e *GameEngine) GetRemainingGoals() []GoalSpot {
	return RemainingGoals(e.state)
}

// BulkMove executes multiple moves in sequence, returning the outcome of each.
// It stops once the level is won.
func (e *GameEngine) BulkMove(moves []string) []MoveOutcome {
	results := make([]MoveOutcome, 0, len(moves))

	for _, direction := range moves {
		if e.IsWon() {
			break
		}
		results = append(results, e.MoveWithOutcome(direction))
	}

	return results
}
