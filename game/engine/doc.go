// Package engine provides the core game logic for the Sokoban server.
//
// The engine package implements:
//   - The objective evaluator (Evaluate, RecordMove, GameplaySummary)
//   - Grid-based movement with box pushing
//   - Level parsing and validation
//   - Game state management and move history
//
// Objective Evaluation:
//
// A level is won when every goal spot is covered by a box. Evaluate is a
// pure function over box and goal positions; extra boxes never block a win,
// and an empty goal set is won vacuously. GameplaySummary carries the
// Playing/Won state together with the number of accepted moves. Won is
// terminal: once reached, further moves are rejected.
//
// Usage:
//
//	level, err := engine.LoadLevelConfig("levels/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(level)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.Move("right")
//	summary := gameEngine.Summary()
//
// Coordinates:
//
// Position.X is the column and Position.Y is the row, both zero-based from
// the top-left corner of the layout.
package engine
