package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/solver"
	"github.com/wricardo/mcp-training/sokoban/render"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	hintLimit int
	// saved records the last store write per session, keyed by lowercase ID
	saved map[string]time.Time
	mu    sync.RWMutex
}

// accessSaveInterval throttles the store writes made by read-only access.
// Reads refresh the stored access time so store pruning keeps live sessions.
const accessSaveInterval = time.Minute

// Option configures the game service
type Option func(*gameServiceImpl)

// WithHintLimit bounds the number of positions a hint search may explore
func WithHintLimit(states int) Option {
	return func(s *gameServiceImpl) {
		s.hintLimit = states
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions:  sessions,
		configs:   configs,
		hintLimit: solver.DefaultMaxStates,
		saved:     make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the level id for a display name, for consistent responses
func (s *gameServiceImpl) getConfigID(levelName string) string {
	if infos, err := s.configs.ListConfigs(); err == nil {
		for _, info := range infos {
			if info.Name == levelName {
				return info.ConfigID
			}
		}
	}
	if levelName == "" {
		return "default"
	}
	return levelName
}

// CreateSession creates a new game session on the named level, or the
// default level when configName is empty.
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var level *engine.LevelConfig
	if configName != "" {
		var err error
		level, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrLevelNotFound) {
				if infos, listErr := s.configs.ListConfigs(); listErr == nil && len(infos) > 0 {
					ids := make([]string, 0, len(infos))
					for _, info := range infos {
						ids = append(ids, info.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available levels: %s", ErrLevelNotFound, configName, strings.Join(ids, ", "))
				}
			}
			return nil, fmt.Errorf("failed to load level %s: %w", configName, err)
		}
	} else {
		level = s.configs.GetDefault()
	}

	sess, err := s.sessions.Create("", level)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(level.Name)
	}

	log.Info().Str("session", sess.ID).Str("level", configID).Msg("session created")
	return s.sessionInfo(sess, configID), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.persistAccess(sess.ID)

	return s.sessionInfo(sess, s.getConfigID(sess.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.sessions.Get(sessionID); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	delete(s.saved, strings.ToLower(sessionID))
	return s.sessions.Delete(sessionID)
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	events := []GameEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, resetEvent())
	}

	outcome := sess.Engine.MoveWithOutcome(string(dir))
	state := sess.Engine.GetState()
	events = append(events, outcomeEvents(dir, outcome, state)...)

	s.persist(sessionID, "move")

	summary := sess.Engine.Summary()
	return &MoveResult{
		Success:     outcome.Accepted,
		GameState:   snapshot(sess.Engine),
		Summary:     summary,
		SummaryText: render.Summary(summary),
		Message:     state.Message,
		Outcome:     outcome,
		Events:      events,
	}, nil
}

// BulkMove executes moves in order. It stops at the first rejected move or
// when the level is solved.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	dirs := make([]engine.Direction, 0, len(moves))
	for i, m := range moves {
		dir, err := engine.ParseDirection(m)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
		dirs = append(dirs, dir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, resetEvent())
	}

	if len(dirs) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		dirs = dirs[:engine.MaxBulkMoves]
	}

	start := sess.Engine.GetState()
	result.StartPos = start.PlayerPos
	startPushes := start.Pushes

	for i, dir := range dirs {
		outcome := sess.Engine.MoveWithOutcome(string(dir))
		state := sess.Engine.GetState()
		result.Events = append(result.Events, outcomeEvents(dir, outcome, state)...)

		if !outcome.Accepted {
			result.Success = false
			result.StoppedOnMove = i + 1
			if outcome.BlockedBy == "won" {
				result.StopReasonCode = "already_won"
				result.StoppedReason = "level already solved"
			} else {
				result.StopReasonCode = "blocked_" + outcome.BlockedBy
				result.StoppedReason = fmt.Sprintf("move %d blocked: %s (%s)", i+1, dir, outcome.BlockedBy)
			}
			break
		}

		result.MovesExecuted++
		result.Steps = append(result.Steps, StepInfo{
			Idx:        i + 1,
			Dir:        string(dir),
			From:       outcome.From,
			To:         outcome.To,
			PushedBox:  outcome.PushedBox,
			MovesCount: state.Gameplay.MovesCount,
			Victory:    outcome.Won,
		})

		if outcome.Won {
			result.StopReasonCode = "victory"
			if i+1 < len(dirs) {
				result.StoppedOnMove = i + 1
				result.StoppedReason = fmt.Sprintf("level solved on move %d", i+1)
			}
			break
		}
	}

	end := snapshot(sess.Engine)
	result.GameState = end
	result.EndPos = end.PlayerPos
	result.PushesMade = end.Pushes - startPushes
	result.Summary = end.Gameplay
	result.SummaryText = render.Summary(end.Gameplay)
	result.Won = end.Gameplay.IsWon()
	result.Message = end.Message
	result.PossibleMoves = sess.Engine.GetPossibleMoves()

	s.persist(sessionID, "bulk move")
	return result, nil
}

// Reset starts the session's level over
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Engine.Reset()
	s.persist(sessionID, "reset")
	return snapshot(sess.Engine), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.persistAccess(sess.ID)

	return snapshot(sess.Engine), nil
}

// GetSummary returns the gameplay summary of a session
func (s *gameServiceImpl) GetSummary(ctx context.Context, sessionID string) (*SummaryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.persistAccess(sess.ID)

	summary := sess.Engine.Summary()
	return &SummaryResponse{
		SessionID:    sess.ID,
		Summary:      summary,
		Text:         render.Summary(summary),
		BoxesOnGoals: sess.Engine.GetBoxesOnGoals(),
		TotalGoals:   sess.Engine.GetTotalGoals(),
	}, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// Hint searches for the shortest solution from the current position
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string) (*HintResult, error) {
	s.mu.RLock()
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		s.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	snapshot := sess.Engine.GetState().Clone()
	s.mu.RUnlock()

	res, err := solver.Solve(snapshot, solver.Options{MaxStates: s.hintLimit})
	switch {
	case errors.Is(err, solver.ErrAlreadyWon):
		return nil, fmt.Errorf("%w: reset to play again", ErrAlreadyWon)
	case errors.Is(err, solver.ErrNoSolution):
		return &HintResult{
			SessionID: sessionID,
			Solvable:  false,
			Message:   "No solution from this position. Reset to try again.",
		}, nil
	case errors.Is(err, solver.ErrSearchLimit):
		log.Debug().Str("session", sessionID).Int("limit", s.hintLimit).Msg("hint search limit reached")
		return nil, fmt.Errorf("%w: %v", ErrHintUnavailable, err)
	case err != nil:
		return nil, err
	}

	solution := make([]string, len(res.Moves))
	for i, dir := range res.Moves {
		solution[i] = string(dir)
	}
	return &HintResult{
		SessionID:      sessionID,
		Solvable:       true,
		Direction:      solution[0],
		SolutionLength: len(solution),
		Solution:       solution,
		Explored:       res.Explored,
		Message:        fmt.Sprintf("Try %s. Solvable in %d more moves.", solution[0], len(solution)),
	}, nil
}

// ListConfigs returns available levels
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific level
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.LevelConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a level to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, level *engine.LevelConfig) error {
	return s.configs.SaveConfig(configName, level)
}

// getSession looks up a session and touches its access time. Callers hold s.mu.
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		log.Debug().Err(err).Str("session", sessionID).Msg("failed to touch session")
	}
	return sess, nil
}

// persist writes the session to the store. Callers hold s.mu.
func (s *gameServiceImpl) persist(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msgf("failed to persist session after %s", after)
		return
	}
	s.saved[strings.ToLower(sessionID)] = time.Now()
}

// persistAccess saves a session that was only read when its stored copy
// is older than accessSaveInterval. Callers hold s.mu.
func (s *gameServiceImpl) persistAccess(sessionID string) {
	if time.Since(s.saved[strings.ToLower(sessionID)]) < accessSaveInterval {
		return
	}
	s.persist(sessionID, "access")
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	summary := sess.Engine.Summary()
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      snapshot(sess.Engine),
		Summary:        summary,
		SummaryText:    render.Summary(summary),
		LevelConfig:    sess.Config,
	}
}

// snapshot copies the engine's state with a rendered board. Results leave
// s.mu, so they never share memory with the live state. Callers hold s.mu.
func snapshot(e *engine.GameEngine) *engine.GameState {
	state := e.GetState().Clone()
	state.Board = render.Board(state)
	return state
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      "reset",
		Message:   "Game reset to initial state",
		Timestamp: time.Now(),
	}
}

// outcomeEvents translates a move outcome into gameplay events
func outcomeEvents(dir engine.Direction, outcome engine.MoveOutcome, state *engine.GameState) []GameEvent {
	now := time.Now()

	if !outcome.Accepted {
		return []GameEvent{{
			Type:      "blocked",
			Message:   fmt.Sprintf("Move %s blocked by %s", dir, outcome.BlockedBy),
			Timestamp: now,
			Position:  outcome.From,
		}}
	}

	events := []GameEvent{{
		Type:      "move",
		Message:   fmt.Sprintf("Moved %s to (%d,%d)", dir, outcome.To.X, outcome.To.Y),
		Timestamp: now,
		Position:  outcome.To,
	}}

	if outcome.PushedBox != "" {
		dx, dy := dir.Delta()
		events = append(events, GameEvent{
			Type:      "push",
			Message:   fmt.Sprintf("Pushed %s", outcome.PushedBox),
			Timestamp: now,
			Position:  outcome.To.Add(dx, dy),
		})
	}

	if outcome.Won {
		events = append(events, GameEvent{
			Type:      "victory",
			Message:   state.Message,
			Timestamp: now,
			Position:  outcome.To,
		})
	}

	return events
}
