package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/sokoban/game/config"
	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/render"
)

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "play a level in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "level",
				Usage: "level id (defaults to the configured default level)",
			},
			&cli.StringFlag{
				Name:  "moves",
				Usage: "comma-separated moves to apply without prompting",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			levels, err := config.NewManager(cmd.String("levels-dir"))
			if err != nil {
				return err
			}

			level := levels.GetDefault()
			if name := cmd.String("level"); name != "" {
				if level, err = levels.LoadConfig(name); err != nil {
					return err
				}
			}

			game, err := engine.NewEngine(level)
			if err != nil {
				return err
			}

			out := cmd.Root().Writer
			if moves := cmd.String("moves"); moves != "" {
				applyMoves(out, game, splitMoves(moves))
				fmt.Fprintln(out, render.Status(game.GetState()))
				return nil
			}
			return playInteractive(ctx, cmd.Root().Reader, out, game)
		},
	}
}

const playHelp = "Moves: u/d/l/r or up/down/left/right, several per line. Commands: reset, quit"

// playInteractive reads moves line by line until the level is won, the
// input ends or the player quits.
func playInteractive(ctx context.Context, in io.Reader, out io.Writer, game *engine.GameEngine) error {
	fmt.Fprintln(out, game.GetConfig().Name)
	fmt.Fprintln(out, playHelp)
	fmt.Fprintln(out, render.Status(game.GetState()))

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch line {
		case "":
			continue
		case "q", "quit", "exit":
			return nil
		case "reset":
			game.Reset()
		case "help", "?":
			fmt.Fprintln(out, playHelp)
			continue
		default:
			applyMoves(out, game, splitMoves(line))
		}

		fmt.Fprintln(out, render.Status(game.GetState()))
		if game.IsWon() {
			return nil
		}
	}
}

// applyMoves plays moves in order and reports blocked or invalid ones. It
// stops at victory.
func applyMoves(out io.Writer, game *engine.GameEngine, moves []string) {
	for _, m := range moves {
		if game.IsWon() {
			return
		}
		if _, err := engine.ParseDirection(m); err != nil {
			fmt.Fprintf(out, "unknown move %q\n", m)
			continue
		}
		outcome := game.MoveWithOutcome(m)
		if !outcome.Accepted {
			fmt.Fprintf(out, "%s blocked by %s\n", m, outcome.BlockedBy)
		}
	}
}

func splitMoves(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}
