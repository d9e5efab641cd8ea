package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/service"
)

var (
	ErrConfigNotFound = service.ErrLevelNotFound
	ErrInvalidConfig  = service.ErrInvalidLevel
)

// DefaultLevelName is loaded as the default level when present
const DefaultLevelName = "classic"

// Manager handles level loading and caching
type Manager struct {
	levelDir     string
	defaultLevel *engine.LevelConfig
	levels       map[string]*engine.LevelConfig
	mu           sync.RWMutex
}

// NewManager creates a new level manager rooted at levelDir
func NewManager(levelDir string) (*Manager, error) {
	if _, err := os.Stat(levelDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("level directory does not exist: %s", levelDir)
	}

	m := &Manager{
		levelDir: levelDir,
		levels:   make(map[string]*engine.LevelConfig),
	}

	m.defaultLevel = m.resolveDefault()
	return m, nil
}

// LoadConfig loads a level by its identifier (file name without .json)
func (m *Manager) LoadConfig(name string) (*engine.LevelConfig, error) {
	id := levelID(name)
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, name)
	}

	m.mu.RLock()
	if level, ok := m.levels[id]; ok {
		m.mu.RUnlock()
		return level, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if level, ok := m.levels[id]; ok {
		return level, nil
	}

	data, err := os.ReadFile(filepath.Join(m.levelDir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, id)
		}
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}

	var level engine.LevelConfig
	if err := json.Unmarshal(data, &level); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, id, err)
	}
	if err := engine.ValidateLevelConfig(&level); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, id, err)
	}

	m.levels[id] = &level
	return &level, nil
}

// ListConfigs describes every valid level in the directory, sorted by id.
// Invalid files are skipped with a warning.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.levelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	var infos []*service.ConfigInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := levelID(entry.Name())
		level, err := m.LoadConfig(id)
		if err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("skipping level")
			continue
		}

		infos = append(infos, Describe(entry.Name(), id, level))
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ConfigID < infos[j].ConfigID })
	return infos, nil
}

// Describe builds the listing entry of a level
func Describe(filename, id string, level *engine.LevelConfig) *service.ConfigInfo {
	info := &service.ConfigInfo{
		Filename:    filename,
		ConfigID:    id,
		Name:        level.Name,
		Description: level.Description,
	}
	if parsed, err := engine.ParseLayout(level.Layout); err == nil {
		info.Width = parsed.Width
		info.Height = parsed.Height
		info.Boxes = len(parsed.Boxes)
		info.Goals = len(parsed.Goals)
	}
	return info
}

// GetDefault returns the default level
func (m *Manager) GetDefault() *engine.LevelConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLevel
}

// SetDefault sets the default level by identifier
func (m *Manager) SetDefault(name string) error {
	level, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLevel = level
	return nil
}

// RefreshCache drops every cached level and re-resolves the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.levels = make(map[string]*engine.LevelConfig)
	m.mu.Unlock()

	level := m.resolveDefault()

	m.mu.Lock()
	m.defaultLevel = level
	m.mu.Unlock()
	return nil
}

// SaveConfig validates and writes a level to disk
func (m *Manager) SaveConfig(name string, level *engine.LevelConfig) error {
	if err := engine.ValidateLevelConfig(level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	id := levelID(name)
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: bad level id %q", ErrInvalidConfig, name)
	}

	data, err := json.MarshalIndent(level, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.levelDir, id+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	m.mu.Lock()
	m.levels[id] = level
	m.mu.Unlock()

	log.Info().Str("level", id).Msg("level saved")
	return nil
}

// resolveDefault picks classic, then the first valid level, then the
// built-in level.
func (m *Manager) resolveDefault() *engine.LevelConfig {
	if level, err := m.LoadConfig(DefaultLevelName); err == nil {
		return level
	}

	infos, err := m.ListConfigs()
	if err == nil && len(infos) > 0 {
		if level, err := m.LoadConfig(infos[0].ConfigID); err == nil {
			return level
		}
	}

	log.Warn().Str("dir", m.levelDir).Msg("no valid levels found, using built-in level")
	return engine.DefaultLevel()
}

func levelID(name string) string {
	return strings.TrimSuffix(strings.TrimSpace(name), ".json")
}
