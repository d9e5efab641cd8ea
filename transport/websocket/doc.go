// Package websocket pushes live game updates to browser and agent clients.
//
// A single Hub goroutine owns the client registry. Clients attach to a
// session with GET /ws?session=ID and receive a JSON Message after every
// mutation of that session:
//
//	{
//	  "session_id": "ab12",
//	  "event": "state_update",
//	  "game_state": {...},
//	  "summary": {"state": "Playing", "moves_count": 3},
//	  "summary_text": "Playing\nMoves: 3"
//	}
//
// Broadcasts are queued to the hub and never block the caller; a full queue
// drops the message, and a client whose buffer is full is disconnected.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	hub.BroadcastToSession(sessionID, state)
package websocket
