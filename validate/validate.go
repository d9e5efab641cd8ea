// Package validate checks Sokoban level files before they are served. For
// each file it checks:
//   - JSON structure and the required name and layout
//   - Layout alphabet, exactly one player, at least one goal and enough boxes
//   - Message templates (victory must carry %d)
//   - Connectivity: every box and goal lies in the player's walled region
//   - Dead starts: no box begins in a corner that is not a goal
//   - Solvability, by a bounded breadth-first search
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/solver"
)

// Options tunes validation
type Options struct {
	// SolverLimit bounds the solvability search; zero uses the solver default
	SolverLimit int
	// SkipSolve disables the solvability search
	SkipSolve bool
}

// Result captures the outcome of validating a single file. Errors make the
// level invalid; Info lines describe a level that passed.
type Result struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
	// SolutionLength is the shortest solution in moves, or -1 when unknown
	SolutionLength int
	// MinPushes is the nearest-goal distance bound on the pushes a solution needs
	MinPushes int
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) info(format string, args ...interface{}) {
	r.Info = append(r.Info, fmt.Sprintf(format, args...))
}

// ValidateFile loads and validates one level file
func ValidateFile(path string, opts Options) Result {
	result := Result{File: filepath.Base(path), Valid: true, SolutionLength: -1}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var level engine.LevelConfig
	if err := json.Unmarshal(data, &level); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	validateLevel(&result, &level, opts)
	return result
}

// ValidateLevel validates an in-memory level
func ValidateLevel(name string, level *engine.LevelConfig, opts Options) Result {
	result := Result{File: name, Valid: true, SolutionLength: -1}
	validateLevel(&result, level, opts)
	return result
}

// ValidateDir validates every *.json file in dir, sorted by name
func ValidateDir(dir string, opts Options) ([]Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no level files in %s", dir)
	}
	sort.Strings(files)

	results := make([]Result, 0, len(files))
	for _, f := range files {
		results = append(results, ValidateFile(f, opts))
	}
	return results, nil
}

func validateLevel(result *Result, level *engine.LevelConfig, opts Options) {
	if err := engine.ValidateLevelConfig(level); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return
	}

	parsed, err := engine.ParseLayout(level.Layout)
	if err != nil {
		result.fail("%v", err)
		return
	}

	if level.Messages.Welcome == "" {
		result.info("No welcome message; the default is used")
	}

	state := engine.InitGameStateFromConfig(level)

	checkConnectivity(result, state)
	checkDeadStarts(result, state)

	if !result.Valid {
		return
	}

	result.info("✓ Name: %s", level.Name)
	result.info("✓ Grid: %dx%d", parsed.Width, parsed.Height)
	result.info("✓ Boxes: %d, Goals: %d", len(parsed.Boxes), len(parsed.Goals))
	result.MinPushes = solver.LowerBound(state)
	result.info("✓ Needs at least %d pushes", result.MinPushes)

	if opts.SkipSolve {
		return
	}

	res, err := solver.Solve(state, solver.Options{MaxStates: opts.SolverLimit})
	switch {
	case errors.Is(err, solver.ErrAlreadyWon):
		result.fail("Level is solved before the first move")
	case errors.Is(err, solver.ErrNoSolution):
		result.fail("Level has no solution")
	case errors.Is(err, solver.ErrSearchLimit):
		result.info("? Solvability undetermined: search limit reached")
	case err != nil:
		result.fail("Solver failed: %v", err)
	default:
		result.SolutionLength = len(res.Moves)
		result.info("✓ Solvable in %d moves (%d positions explored)", len(res.Moves), res.Explored)
	}
}

// checkConnectivity flood-fills from the player over non-wall cells and
// reports boxes and goals outside that region.
func checkConnectivity(result *Result, state *engine.GameState) {
	visited := map[engine.Position]bool{state.PlayerPos: true}
	queue := []engine.Position{state.PlayerPos}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dir := range engine.Directions {
			next := current.Add(dir.Delta())
			if visited[next] || state.IsWall(next) {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	var unreachable []string
	for _, g := range state.Goals {
		if !visited[g.Position] {
			unreachable = append(unreachable, fmt.Sprintf("Goal at (%d,%d)", g.Position.X, g.Position.Y))
		}
	}
	for _, b := range state.Boxes {
		if !visited[b.Position] {
			unreachable = append(unreachable, fmt.Sprintf("Box at (%d,%d)", b.Position.X, b.Position.Y))
		}
	}

	if len(unreachable) > 0 {
		result.fail("Connectivity failure: %d objects walled off from the player", len(unreachable))
		for _, u := range unreachable {
			result.fail("Unreachable: %s", u)
		}
		return
	}
	result.info("✓ Connectivity: all boxes and goals reachable")
}

// checkDeadStarts reports boxes that start wedged in a non-goal corner
func checkDeadStarts(result *Result, state *engine.GameState) {
	for _, b := range state.Boxes {
		p := b.Position
		if state.IsGoal(p) {
			continue
		}
		vertical := state.IsWall(p.Add(0, -1)) || state.IsWall(p.Add(0, 1))
		horizontal := state.IsWall(p.Add(-1, 0)) || state.IsWall(p.Add(1, 0))
		if vertical && horizontal {
			result.fail("Box %s at (%d,%d) starts in a corner and can never move to a goal", b.ID, p.X, p.Y)
		}
	}
}

// Report prints a human-readable report and returns whether every level
// is valid.
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, r := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), r.File)
		if r.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, line := range r.Info {
				fmt.Fprintln(w, "  "+line)
			}
			continue
		}
		allValid = false
		fmt.Fprintln(w, "❌ INVALID")
		for _, e := range r.Errors {
			fmt.Fprintln(w, "  ❌ "+e)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All levels are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some levels have errors")
	}
	return allValid
}
