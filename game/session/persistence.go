package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the stored form of a session, shared by every store
type PersistedSessionData struct {
	ID             string            `json:"id"`
	ConfigName     string            `json:"config_name"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
}

// codec converts sessions to and from PersistedSessionData. Levels are stored
// by id and re-resolved through the config manager on load.
type codec struct {
	configs service.ConfigManager
}

func (c codec) encode(session *service.Session) (*PersistedSessionData, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}

	configID, err := c.configID(session.Config.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get level id: %w", err)
	}

	state := session.Engine.GetState().Clone()
	state.Board = nil

	return &PersistedSessionData{
		ID:             session.ID,
		ConfigName:     configID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      state,
	}, nil
}

func (c codec) marshal(session *service.Session) (*PersistedSessionData, []byte, error) {
	data, err := c.encode(session)
	if err != nil {
		return nil, nil, err
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal session data: %w", err)
	}
	return data, raw, nil
}

func (c codec) unmarshal(raw []byte) (*service.Session, error) {
	var data PersistedSessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return c.decode(&data)
}

func (c codec) decode(data *PersistedSessionData) (*service.Session, error) {
	level, err := c.configs.LoadConfig(data.ConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to load level '%s': %w", data.ConfigName, err)
	}

	eng, err := engine.NewEngine(level)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}

	if data.GameState != nil {
		if err := eng.SetState(data.GameState); err != nil {
			return nil, fmt.Errorf("failed to set game state: %w", err)
		}
	}

	return &service.Session{
		ID:             data.ID,
		Engine:         eng,
		Config:         level,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

// configID maps a level display name to its id (file name without extension)
func (c codec) configID(displayName string) (string, error) {
	infos, err := c.configs.ListConfigs()
	if err != nil {
		return "", fmt.Errorf("failed to list levels: %w", err)
	}
	for _, info := range infos {
		if info.Name == displayName {
			return info.ConfigID, nil
		}
	}
	return displayName, nil
}
