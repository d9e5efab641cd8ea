// Package session stores Sokoban game sessions.
//
// Manager keeps sessions in memory, keyed by a case-insensitive ID. New
// sessions get a random 4-hex-character ID. A Manager may be backed by a
// SessionPersistence store; sessions missing from memory are then loaded
// from the store on demand, and every Save writes through.
//
// Three stores share one JSON payload (PersistedSessionData):
//
//	FilePersistence      one JSON file per session
//	SQLitePersistence    a sessions table in a SQLite file
//	PostgresPersistence  a sokoban_sessions table with a JSONB column
//
// Levels are stored by id and resolved again through the level manager on
// load, so a session survives a restart as long as its level file does.
//
// Usage:
//
//	store, err := session.NewFilePersistence("sessions", levels)
//	manager := session.NewManagerWithPersistence(store)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Warn().Err(err).Msg("load sessions")
//	}
//	sess, err := manager.Create("", levels.GetDefault())
package session
