// Package mcp exposes Sokoban to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call is translated into a REST
// request against a running api.Server, and the JSON response is rendered
// as compact text (board, "Playing\nMoves: N" summary, objective progress).
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, game_summary, describe_cell
//   - move, bulk_move, reset_game, move_history
//   - hint, list_levels, game_instructions
//
// Transports:
//
//	// stdio, for local MCP hosts
//	client := mcp.NewClient("http://localhost:8080", version)
//	server.ServeStdio(client.GetMCPServer())
//
//	// single JSON-RPC messages over HTTP POST
//	apiServer := api.NewServer(svc, hub, api.WithMCPHandler(client.Handler()))
package mcp
