package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ParsedLayout is the structural content of a level layout
type ParsedLayout struct {
	Grid   [][]Tile
	Width  int
	Height int
	Player Position
	Boxes  []Box
	Goals  []GoalSpot
}

// ParseLayout converts layout rows into a tile grid and the entities placed on it.
// Short rows are padded with walls so the grid is rectangular.
func ParseLayout(layout []string) (*ParsedLayout, error) {
	if len(layout) == 0 {
		return nil, fmt.Errorf("layout is empty")
	}

	width := 0
	for _, row := range layout {
		if len(row) > width {
			width = len(row)
		}
	}

	parsed := &ParsedLayout{
		Grid:   make([][]Tile, len(layout)),
		Width:  width,
		Height: len(layout),
	}

	players := 0
	for y, row := range layout {
		parsed.Grid[y] = make([]Tile, width)
		for x := 0; x < width; x++ {
			if x >= len(row) {
				parsed.Grid[y][x] = Wall
				continue
			}

			pos := Position{X: x, Y: y}
			tile := Floor
			switch row[x] {
			case CharWall:
				tile = Wall
			case CharFloor, CharFloorDash, CharFloorUnder:
			case CharPlayer:
				parsed.Player = pos
				players++
			case CharPlayerGoal:
				parsed.Player = pos
				players++
				parsed.Goals = append(parsed.Goals, GoalSpot{ID: fmt.Sprintf("goal_%d", len(parsed.Goals)), Position: pos})
			case CharBox:
				parsed.Boxes = append(parsed.Boxes, Box{ID: fmt.Sprintf("box_%d", len(parsed.Boxes)), Position: pos})
			case CharBoxGoal:
				parsed.Boxes = append(parsed.Boxes, Box{ID: fmt.Sprintf("box_%d", len(parsed.Boxes)), Position: pos})
				parsed.Goals = append(parsed.Goals, GoalSpot{ID: fmt.Sprintf("goal_%d", len(parsed.Goals)), Position: pos})
			case CharGoal:
				parsed.Goals = append(parsed.Goals, GoalSpot{ID: fmt.Sprintf("goal_%d", len(parsed.Goals)), Position: pos})
			default:
				return nil, fmt.Errorf("invalid character '%c' at row %d, col %d", row[x], y+1, x+1)
			}
			parsed.Grid[y][x] = tile
		}
	}

	if players != 1 {
		return nil, fmt.Errorf("layout must contain exactly one player (@ or +), got %d", players)
	}

	return parsed, nil
}

// ValidateLevelConfig validates a level definition for correctness and playability
func ValidateLevelConfig(level *LevelConfig) error {
	if level == nil {
		return fmt.Errorf("config validation: level is nil")
	}
	if level.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if len(level.Layout) > MaxGridSize {
		return fmt.Errorf("config validation: layout must have at most %d rows, got %d", MaxGridSize, len(level.Layout))
	}
	for i, row := range level.Layout {
		if len(row) > MaxGridSize {
			return fmt.Errorf("config validation: row %d must have at most %d characters, got %d", i+1, MaxGridSize, len(row))
		}
	}

	parsed, err := ParseLayout(level.Layout)
	if err != nil {
		return fmt.Errorf("config validation: %v", err)
	}

	// An empty goal set would be won before the first move.
	if len(parsed.Goals) == 0 {
		return fmt.Errorf("config validation: layout must contain at least one goal (., + or *)")
	}
	if len(parsed.Boxes) < len(parsed.Goals) {
		return fmt.Errorf("config validation: layout has %d boxes but %d goals", len(parsed.Boxes), len(parsed.Goals))
	}

	templates := []struct {
		field    string
		tmpl     string
		required bool
	}{
		{"victory", level.Messages.Victory, true},
		{"moved", level.Messages.Moved, false},
		{"pushed", level.Messages.Pushed, false},
	}
	for _, t := range templates {
		if t.tmpl == "" {
			continue
		}
		if err := checkCountTemplate(t.tmpl, t.required); err != nil {
			return fmt.Errorf("config validation: messages.%s %v", t.field, err)
		}
	}

	return nil
}

// checkCountTemplate accepts at most one %d verb, plus literal %%. Any other
// verb would render as a formatting error at runtime.
func checkCountTemplate(tmpl string, required bool) error {
	counts := 0
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '%' {
			continue
		}
		if i+1 == len(tmpl) {
			return fmt.Errorf("ends with a lone %%")
		}
		i++
		switch tmpl[i] {
		case '%':
		case 'd':
			counts++
		default:
			return fmt.Errorf("has unsupported verb %%%c, only %%d is allowed", tmpl[i])
		}
	}

	switch {
	case counts > 1:
		return fmt.Errorf("must contain %%d at most once")
	case counts == 0 && required:
		return fmt.Errorf("must contain %%d for moves count")
	}
	return nil
}

// LoadLevelConfig loads a level definition from a JSON file
func LoadLevelConfig(filename string) (*LevelConfig, error) {
	// Support LEVELS_DIR environment variable for alternative levels directory
	levelPath := filename
	if levelsDir := os.Getenv("LEVELS_DIR"); levelsDir != "" {
		if strings.HasPrefix(filename, "levels/") {
			levelPath = filepath.Join(levelsDir, strings.TrimPrefix(filename, "levels/"))
		}
	}

	data, err := os.ReadFile(levelPath)
	if err != nil {
		return nil, err
	}

	var level LevelConfig
	if err := json.Unmarshal(data, &level); err != nil {
		return nil, err
	}

	if err := ValidateLevelConfig(&level); err != nil {
		return nil, err
	}

	return &level, nil
}

// DefaultLevel returns the built-in level used when no level is provided
func DefaultLevel() *LevelConfig {
	return &LevelConfig{
		Name:        "default",
		Description: "Two boxes, two goals",
		Layout: []string{
			"#######",
			"#     #",
			"# $ . #",
			"#  @  #",
			"# $ . #",
			"#     #",
			"#######",
		},
		Messages: LevelMessages{
			Welcome:    "Push every box onto a goal.",
			Moved:      "Moves: %d",
			Pushed:     "Pushed a box. Moves: %d",
			Blocked:    "Can't move there!",
			Victory:    "Level solved in %d moves!",
			AlreadyWon: "The level is already solved.",
		},
	}
}

// InitGameStateFromConfig creates a new game state from a level definition
func InitGameStateFromConfig(level *LevelConfig) *GameState {
	if level == nil {
		level = DefaultLevel()
	}

	parsed, err := ParseLayout(level.Layout)
	if err != nil {
		// Levels are validated before reaching here; fall back to the built-in one.
		level = DefaultLevel()
		parsed, _ = ParseLayout(level.Layout)
	}

	state := &GameState{
		Grid:        parsed.Grid,
		Width:       parsed.Width,
		Height:      parsed.Height,
		PlayerPos:   parsed.Player,
		Boxes:       parsed.Boxes,
		Goals:       parsed.Goals,
		Message:     level.Messages.Welcome,
		LevelName:   level.Name,
		MoveHistory: []MoveHistoryEntry{},
	}
	if state.Boxes == nil {
		state.Boxes = []Box{}
	}

	// Levels may start with every goal already covered.
	state.Gameplay.Observe(state.BoxPositions(), state.GoalPositions())
	state.BoxesOnGoals = CountBoxesOnGoals(state)

	return state
}
