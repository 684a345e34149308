package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"

	"telegram-sync/internal/config"
)

const connectionLimit = 5

// DB wraps the shared Postgres pool. Sync runs check out one connection each
// via Acquire and release it when done.
type DB struct {
	pool *sql.DB
}

// ConnectDB opens the Postgres pool, verifies connectivity and applies the
// schema migration.
func ConnectDB(ctx context.Context, cfg *config.Config) (*DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open Postgres pool: %w", err)
	}
	pool.SetMaxOpenConns(connectionLimit)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.migrate(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	log.Println("Successfully connected to Postgres")

	return db, nil
}

// Close shuts down the pool.
func (d *DB) Close() error {
	return d.pool.Close()
}

// Acquire checks out one pooled connection for a sync run.
func (d *DB) Acquire(ctx context.Context) (SyncStore, error) {
	conn, err := d.pool.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &runStore{conn: conn}, nil
}

// migrate creates the schema and seeds the singleton checkpoint row.
func (d *DB) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sync_meta (
		id INT PRIMARY KEY CHECK (id = 1),
		last_sync TIMESTAMPTZ,
		last_update_id BIGINT NOT NULL DEFAULT 0,
		total_posts INT NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS telegram_posts (
		id TEXT PRIMARY KEY,
		message_id BIGINT NOT NULL,
		text TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		paragraph TEXT NOT NULL DEFAULT '',
		date TIMESTAMPTZ NOT NULL,
		image_url TEXT,
		video_url TEXT,
		telegram_link TEXT NOT NULL DEFAULT '',
		author_name TEXT NOT NULL DEFAULT '',
		author_image TEXT NOT NULL DEFAULT '',
		author_designation TEXT NOT NULL DEFAULT '',
		image_local_path TEXT,
		image_uploaded BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS post_hashtags (
		post_id TEXT NOT NULL REFERENCES telegram_posts(id) ON DELETE CASCADE,
		hashtag TEXT NOT NULL,
		PRIMARY KEY (post_id, hashtag)
	);

	CREATE INDEX IF NOT EXISTS idx_telegram_posts_date ON telegram_posts(date);
	`
	if _, err := d.pool.ExecContext(ctx, schema); err != nil {
		return err
	}

	_, err := d.pool.ExecContext(ctx,
		`INSERT INTO sync_meta (id) VALUES (1) ON CONFLICT (id) DO NOTHING`)
	return err
}
