// Package service provides the business logic layer of the Sokoban server.
//
// GameService is the entry point for every transport (REST, WebSocket, MCP).
// It resolves sessions through a SessionManager and levels through a
// ConfigManager, drives the session's engine, and returns results carrying
// the new state, the gameplay summary and the events the move produced
// (move, push, blocked, victory, reset). Every mutation is persisted through
// SessionManager.Save.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	levelMgr, _ := config.NewManager("levels")
//	gameService := service.NewGameService(sessionMgr, levelMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	result, err := gameService.Move(ctx, info.ID, "up", false)
//	fmt.Println(result.SummaryText)
//
// Errors wrap the package sentinels (ErrSessionNotFound, ErrLevelNotFound,
// ErrInvalidLevel, ErrAlreadyWon, ErrHintUnavailable) and
// engine.ErrInvalidDirection, so callers map them with errors.Is.
package service
