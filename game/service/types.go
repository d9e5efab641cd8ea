package service

import (
	"time"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string                 `json:"id"`
	ConfigName     string                 `json:"config_name"`
	CreatedAt      time.Time              `json:"created_at"`
	LastAccessedAt time.Time              `json:"last_accessed_at"`
	GameState      *engine.GameState      `json:"game_state"`
	Summary        engine.GameplaySummary `json:"summary"`
	SummaryText    string                 `json:"summary_text"`
	LevelConfig    *engine.LevelConfig    `json:"level_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success     bool                   `json:"success"`
	GameState   *engine.GameState      `json:"game_state"`
	Summary     engine.GameplaySummary `json:"summary"`
	SummaryText string                 `json:"summary_text"`
	Message     string                 `json:"message"`
	Outcome     engine.MoveOutcome     `json:"outcome"`
	Events      []GameEvent            `json:"events,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	MovesExecuted  int                    `json:"moves_executed"`
	RequestedMoves int                    `json:"requested_moves"`
	Success        bool                   `json:"success"`
	GameState      *engine.GameState      `json:"game_state"`
	Summary        engine.GameplaySummary `json:"summary"`
	SummaryText    string                 `json:"summary_text"`
	Events         []GameEvent            `json:"events"`
	StoppedReason  string                 `json:"stopped_reason,omitempty"`
	StopReasonCode string                 `json:"stop_reason_code,omitempty"` // blocked_wall|blocked_boundary|blocked_box|already_won|victory
	StoppedOnMove  int                    `json:"stopped_on_move,omitempty"`  // 1-based
	Truncated      bool                   `json:"truncated,omitempty"`
	Limit          int                    `json:"limit,omitempty"`

	StartPos   engine.Position `json:"start_pos"`
	EndPos     engine.Position `json:"end_pos"`
	PushesMade int             `json:"pushes_made"`

	Steps []StepInfo `json:"steps,omitempty"`

	Won           bool     `json:"won"`
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
}

// StepInfo is a compact record of one executed move in a bulk call
type StepInfo struct {
	Idx        int             `json:"idx"`
	Dir        string          `json:"dir"`
	From       engine.Position `json:"from"`
	To         engine.Position `json:"to"`
	PushedBox  string          `json:"pushed_box,omitempty"`
	MovesCount int             `json:"moves_count"`
	Victory    bool            `json:"victory,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // move|push|blocked|victory|reset
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// SummaryResponse is the gameplay summary with its text rendering
type SummaryResponse struct {
	SessionID    string                 `json:"session_id"`
	Summary      engine.GameplaySummary `json:"summary"`
	Text         string                 `json:"text"`
	BoxesOnGoals int                    `json:"boxes_on_goals"`
	TotalGoals   int                    `json:"total_goals"`
}

// HintResult suggests the next move from the current position
type HintResult struct {
	SessionID      string   `json:"session_id"`
	Solvable       bool     `json:"solvable"`
	Direction      string   `json:"direction,omitempty"`
	SolutionLength int      `json:"solution_length,omitempty"`
	Solution       []string `json:"solution,omitempty"`
	Explored       int      `json:"explored"`
	Message        string   `json:"message"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo describes a level file
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // identifier to use for session creation
	Name        string `json:"name"`
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Boxes       int    `json:"boxes"`
	Goals       int    `json:"goals"`
}
