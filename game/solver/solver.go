// Package solver finds move sequences that solve a Sokoban position.
//
// The search is a breadth-first walk over (player, boxes) states, so the
// returned path is the shortest in player moves. Boxes pushed into a corner
// that is not a goal can never leave it; such states are pruned.
package solver

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

// DefaultMaxStates bounds the search when Options.MaxStates is zero
const DefaultMaxStates = 200000

var (
	ErrNoSolution  = errors.New("no solution")
	ErrSearchLimit = errors.New("search limit reached")
	ErrAlreadyWon  = errors.New("level already solved")
)

// Options tunes the search
type Options struct {
	MaxStates int
}

// Result is a solution path and the work spent finding it
type Result struct {
	Moves    []engine.Direction `json:"moves"`
	Explored int                `json:"explored"`
}

type node struct {
	player engine.Position
	boxes  []engine.Position
	parent int
	dir    engine.Direction
}

// Solve searches for the shortest sequence of moves from state to a win
func Solve(state *engine.GameState, opts Options) (*Result, error) {
	if state.Gameplay.IsWon() {
		return nil, ErrAlreadyWon
	}

	maxStates := opts.MaxStates
	if maxStates <= 0 {
		maxStates = DefaultMaxStates
	}

	goals := state.GoalPositions()
	goalSet := make(map[engine.Position]bool, len(goals))
	for _, g := range goals {
		goalSet[g] = true
	}

	start := node{player: state.PlayerPos, boxes: sortedPositions(state.BoxPositions()), parent: -1}
	nodes := []node{start}
	visited := map[string]bool{key(start.player, start.boxes): true}

	for head := 0; head < len(nodes); head++ {
		current := nodes[head]

		for _, dir := range engine.Directions {
			next, ok := step(state, current, dir, goalSet)
			if !ok {
				continue
			}

			k := key(next.player, next.boxes)
			if visited[k] {
				continue
			}
			visited[k] = true

			next.parent = head
			next.dir = dir
			nodes = append(nodes, next)

			if engine.Evaluate(next.boxes, goals) == engine.Won {
				return &Result{Moves: backtrack(nodes, len(nodes)-1), Explored: len(nodes)}, nil
			}
			if len(nodes) >= maxStates {
				return nil, ErrSearchLimit
			}
		}
	}

	return nil, ErrNoSolution
}

// LowerBound sums, over every box, the Manhattan distance to its nearest
// goal. No solution pushes boxes fewer times than this.
func LowerBound(state *engine.GameState) int {
	goals := state.GoalPositions()
	if len(goals) == 0 {
		return 0
	}

	total := 0
	for _, b := range state.BoxPositions() {
		nearest := -1
		for _, g := range goals {
			if d := engine.ManhattanDistance(b, g); nearest < 0 || d < nearest {
				nearest = d
			}
		}
		total += nearest
	}
	return total
}

func step(state *engine.GameState, n node, dir engine.Direction, goals map[engine.Position]bool) (node, bool) {
	dx, dy := dir.Delta()
	target := n.player.Add(dx, dy)
	if state.IsWall(target) {
		return node{}, false
	}

	idx := indexOf(n.boxes, target)
	if idx < 0 {
		return node{player: target, boxes: n.boxes}, true
	}

	beyond := target.Add(dx, dy)
	if state.IsWall(beyond) || indexOf(n.boxes, beyond) >= 0 {
		return node{}, false
	}
	if !goals[beyond] && isCorner(state, beyond) {
		return node{}, false
	}

	boxes := append([]engine.Position(nil), n.boxes...)
	boxes[idx] = beyond
	return node{player: target, boxes: sortedPositions(boxes)}, true
}

func isCorner(state *engine.GameState, p engine.Position) bool {
	up := state.IsWall(p.Add(0, -1))
	down := state.IsWall(p.Add(0, 1))
	left := state.IsWall(p.Add(-1, 0))
	right := state.IsWall(p.Add(1, 0))
	return (up || down) && (left || right)
}

func backtrack(nodes []node, i int) []engine.Direction {
	var moves []engine.Direction
	for ; nodes[i].parent >= 0; i = nodes[i].parent {
		moves = append(moves, nodes[i].dir)
	}
	for l, r := 0, len(moves)-1; l < r; l, r = l+1, r-1 {
		moves[l], moves[r] = moves[r], moves[l]
	}
	return moves
}

func indexOf(positions []engine.Position, p engine.Position) int {
	for i, q := range positions {
		if q == p {
			return i
		}
	}
	return -1
}

func sortedPositions(positions []engine.Position) []engine.Position {
	sorted := append([]engine.Position(nil), positions...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})
	return sorted
}

func key(player engine.Position, boxes []engine.Position) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(player.X))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(player.Y))
	for _, p := range boxes {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(p.X))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(p.Y))
	}
	return b.String()
}
