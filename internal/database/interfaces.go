package database

import (
	"context"

	"telegram-sync/internal/database/models"
)

// SyncStore is the storage surface available to one sync run. It is bound to
// a single pooled connection; Release must be called on every exit path.
type SyncStore interface {
	// GetCheckpoint reads the singleton checkpoint. A missing row yields a
	// zero-value checkpoint, not an error.
	GetCheckpoint(ctx context.Context) (models.Checkpoint, error)
	// AdvanceUpdateID moves the cursor forward. The update is conditional on
	// the new value being strictly greater than the stored one, so a stale
	// overlapping run can never move the cursor backwards.
	AdvanceUpdateID(ctx context.Context, updateID int64) error
	// FinishRun stamps last_sync and recounts total_posts, regardless of how
	// many posts the run admitted.
	FinishRun(ctx context.Context) error
	// UpsertPost inserts the post or updates its mutable content fields when
	// the identity already exists. Never duplicates a row.
	UpsertPost(ctx context.Context, post *models.Post) error
	// SetLocalImage records a successful media mirror for the post.
	SetLocalImage(ctx context.Context, postID, localPath string) error
	// ReplaceHashtags atomically replaces the post's hashtag associations.
	ReplaceHashtags(ctx context.Context, postID string, tags []string) error
	// Release returns the underlying connection to the pool.
	Release() error
}

// StoreProvider hands out run-scoped stores from a shared pool.
type StoreProvider interface {
	Acquire(ctx context.Context) (SyncStore, error)
}
