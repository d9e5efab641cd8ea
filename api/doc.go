// Package api provides the HTTP REST API for Sokoban sessions.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                 create a session ({"config_id": "easy"}, empty for the default level)
//   - GET    /api/sessions                 list sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/unified         several boards at once (?sessionIds=a,b or ?configName=easy)
//   - GET    /api/sessions/{id}            session info with state and summary
//   - DELETE /api/sessions/{id}            delete a session
//
// Gameplay:
//   - GET  /api/sessions/{id}/state       full game state, including the rendered board
//   - GET  /api/sessions/{id}/summary     {"state": "Playing|Won", "moves_count": N} and its text form
//   - POST /api/sessions/{id}/move        {"direction": "up|down|left|right", "reset": false}
//   - POST /api/sessions/{id}/bulk-move   {"moves": ["left", "up"], "reset": false}
//   - POST /api/sessions/{id}/reset       restart the level
//   - GET  /api/sessions/{id}/history     paginated move attempts (?page=1&limit=20&order=desc)
//   - GET  /api/sessions/{id}/hint        next move on a shortest solution
//
// Levels:
//   - GET  /api/levels                    list level files
//   - GET  /api/levels/{name}             one level
//   - POST /api/levels                    save a level ({"id", "name", "layout", "messages"})
//
// Other:
//   - GET  /api/health
//   - GET  /ws?session=ID                 live updates, see package websocket
//   - POST /mcp                           MCP JSON-RPC, when mounted with WithMCPHandler
//
// Every mutation is broadcast to the session's websocket clients. Responses
// under /api are gzip-compressed when the client accepts it, and every
// request carries an X-Request-ID that is echoed back and logged.
//
// Bulk Move
//
// Moves are validated up front; one unknown direction rejects the whole
// request. Execution stops at the first blocked move or when the level is
// solved, and at most engine.MaxBulkMoves moves run per call:
//
//	{
//	  "requested_moves": 3, "moves_executed": 2,
//	  "stop_reason_code": "victory", "stopped_on_move": 2,
//	  "steps": [{"idx": 1, "dir": "left", "from": {...}, "to": {...}, "pushed_box": "box_1"}],
//	  "summary": {"state": "Won", "moves_count": 3}, "won": true
//	}
//
// Errors:
//
// Errors are returned as JSON with a status derived from the service error:
// 404 unknown session or level, 400 bad direction or level, 409 already
// solved, 422 hint search exhausted.
//
//	{
//	  "error": "session not found: ab12",
//	  "code": 404
//	}
package api
