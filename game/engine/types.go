package engine

// Tile represents the static terrain of a grid cell
type Tile string

const (
	Floor Tile = "floor"
	Wall  Tile = "wall"

	// Validation constants
	MaxGridSize         = 50
	MaxBulkMoves        = 100
	WebSocketBufferSize = 256
)

// Layout characters
const (
	CharWall       = '#'
	CharFloor      = ' '
	CharPlayer     = '@'
	CharPlayerGoal = '+'
	CharBox        = '$'
	CharBoxGoal    = '*'
	CharGoal       = '.'
	CharFloorDash  = '-'
	CharFloorUnder = '_'
)

// Position represents x,y coordinates (x is the column, y is the row)
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the position offset by dx, dy
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Box is a movable entity pushed by the player
type Box struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
}

// GoalSpot is a fixed target location for boxes
type GoalSpot struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
}

// LevelMessages holds the player-facing texts of a level
type LevelMessages struct {
	Welcome    string `json:"welcome"`
	Moved      string `json:"moved"`
	Pushed     string `json:"pushed"`
	Blocked    string `json:"blocked"`
	Victory    string `json:"victory"`
	AlreadyWon string `json:"already_won"`
}

// LevelConfig represents a level definition loaded from JSON
type LevelConfig struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Layout      []string      `json:"layout"`
	Messages    LevelMessages `json:"messages"`
}

// GameState represents the complete game state
type GameState struct {
	Grid        [][]Tile           `json:"grid"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	PlayerPos   Position           `json:"player_pos"`
	Boxes       []Box              `json:"boxes"`
	Goals       []GoalSpot         `json:"goals"`
	Gameplay    GameplaySummary    `json:"gameplay"`
	Pushes      int                `json:"pushes"`
	Message     string             `json:"message"`
	LevelName   string             `json:"level_name"`
	MoveHistory []MoveHistoryEntry `json:"move_history"`

	// TotalMoves counts every attempted move across resets, accepted or not.
	TotalMoves int `json:"total_moves"`

	// Computed helper views (not required for core game logic)
	Board        []string `json:"board,omitempty"`
	BoxesOnGoals int      `json:"boxes_on_goals"`
}

// MoveHistoryEntry represents a single move attempt in the game history
type MoveHistoryEntry struct {
	Action       string   `json:"action"`
	FromPosition Position `json:"from_position"`
	ToPosition   Position `json:"to_position"`
	PushedBox    string   `json:"pushed_box,omitempty"`
	Accepted     bool     `json:"accepted"`
	MovesCount   int      `json:"moves_count"`
	Timestamp    int64    `json:"timestamp"`
	MoveNumber   int      `json:"move_number"`
}
