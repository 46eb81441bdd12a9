package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables on boot if they do not exist yet. The join
// table cascades in both directions: deleting a capsule or an item removes
// the association rows only, never the other side.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			category TEXT,
			color TEXT,
			style TEXT,
			season TEXT,
			image_path TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS capsules (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			description TEXT,
			layout TEXT,
			image_path TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS capsule_items (
			capsule_id BIGINT NOT NULL REFERENCES capsules(id) ON DELETE CASCADE,
			item_id BIGINT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
			PRIMARY KEY (capsule_id, item_id)
		)`,
		`CREATE INDEX IF NOT EXISTS items_user_id_idx ON items(user_id)`,
		`CREATE INDEX IF NOT EXISTS capsules_user_id_idx ON capsules(user_id)`,
	}

	for _, stmt := range stmts {
		_, err := pool.Exec(ctx, stmt)

		if err != nil {
			return err
		}
	}

	return nil
}
