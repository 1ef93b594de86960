package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

func RunMigrations(db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL DEFAULT '',
    username TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'user',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Duplicate (user_id, diary_date) pairs are rejected by an existence check
-- before insert, not by a constraint here.
CREATE TABLE IF NOT EXISTS diaries (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id),
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    image TEXT,
    is_public BOOLEAN NOT NULL DEFAULT true,
    emotion TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    diary_date DATE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_diaries_user_date ON diaries (user_id, diary_date);
CREATE INDEX IF NOT EXISTS idx_diaries_created_at ON diaries (created_at DESC);
`
	_, err := db.ExecContext(context.Background(), schema)
	return err
}
