package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/mcp-training/sokoban/game/service"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sokoban_sessions (
	id               TEXT PRIMARY KEY,
	config_name      TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	last_accessed_at TIMESTAMPTZ NOT NULL,
	data             JSONB NOT NULL
);`

// PostgresPersistence stores sessions in PostgreSQL
type PostgresPersistence struct {
	pool  *pgxpool.Pool
	codec codec
}

// NewPostgresPersistence connects to the database and ensures the schema
func NewPostgresPersistence(ctx context.Context, connStr string, configManager service.ConfigManager) (*PostgresPersistence, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	var username, database string
	if err := pool.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to query database: %w", err)
	}
	log.Info().Str("database", database).Str("user", username).Msg("connected to postgres")

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresPersistence{pool: pool, codec: codec{configs: configManager}}, nil
}

// Close closes the connection pool
func (p *PostgresPersistence) Close() {
	p.pool.Close()
}

// Save upserts the session row
func (p *PostgresPersistence) Save(session *service.Session) error {
	data, raw, err := p.codec.marshal(session)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	_, err = p.pool.Exec(ctx, `
		INSERT INTO sokoban_sessions (id, config_name, created_at, last_accessed_at, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET config_name = $2, last_accessed_at = $4, data = $5`,
		strings.ToLower(data.ID), data.ConfigName, data.CreatedAt, data.LastAccessedAt, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load reads a session row
func (p *PostgresPersistence) Load(id string) (*service.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT data FROM sokoban_sessions WHERE id = $1`, strings.ToLower(id)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return p.codec.unmarshal(raw)
}

// Delete removes a session row
func (p *PostgresPersistence) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	tag, err := p.pool.Exec(ctx, `DELETE FROM sokoban_sessions WHERE id = $1`, strings.ToLower(id))
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all persisted session IDs
func (p *PostgresPersistence) ListAll() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := p.pool.Query(ctx, `SELECT id FROM sokoban_sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists checks if a session row exists
func (p *PostgresPersistence) Exists(id string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var exists bool
	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sokoban_sessions WHERE id = $1)`, strings.ToLower(id)).Scan(&exists)
	return err == nil && exists
}

// PruneOlderThan removes sessions not accessed within maxAge
func (p *PostgresPersistence) PruneOlderThan(maxAge time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	tag, err := p.pool.Exec(ctx, `DELETE FROM sokoban_sessions WHERE last_accessed_at < $1`, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
