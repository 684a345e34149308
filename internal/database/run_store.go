package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"telegram-sync/internal/database/models"
)

// runStore implements SyncStore over a single checked-out connection.
type runStore struct {
	conn *sql.Conn
}

func (s *runStore) GetCheckpoint(ctx context.Context) (models.Checkpoint, error) {
	var (
		cp       models.Checkpoint
		lastSync sql.NullTime
	)
	row := s.conn.QueryRowContext(ctx,
		`SELECT last_sync, last_update_id, total_posts FROM sync_meta WHERE id = 1`)
	if err := row.Scan(&lastSync, &cp.LastUpdateID, &cp.TotalPosts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Checkpoint{}, nil
		}
		return models.Checkpoint{}, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if lastSync.Valid {
		cp.LastSync = lastSync.Time
	}
	return cp, nil
}

func (s *runStore) AdvanceUpdateID(ctx context.Context, updateID int64) error {
	// Conditional advance: a concurrent run holding a smaller value loses.
	_, err := s.conn.ExecContext(ctx,
		`UPDATE sync_meta SET last_update_id = $1 WHERE id = 1 AND last_update_id < $1`,
		updateID)
	if err != nil {
		return fmt.Errorf("failed to advance update id: %w", err)
	}
	return nil
}

func (s *runStore) FinishRun(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE sync_meta
		 SET last_sync = NOW(),
		     total_posts = (SELECT COUNT(*) FROM telegram_posts)
		 WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

func (s *runStore) UpsertPost(ctx context.Context, post *models.Post) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO telegram_posts
		 (id, message_id, text, title, paragraph, date, image_url, video_url,
		  telegram_link, author_name, author_image, author_designation, image_uploaded)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE)
		 ON CONFLICT (id) DO UPDATE SET
		   text = EXCLUDED.text,
		   title = EXCLUDED.title,
		   paragraph = EXCLUDED.paragraph,
		   image_url = EXCLUDED.image_url,
		   video_url = EXCLUDED.video_url`,
		post.ID, post.MessageID, post.Text, post.Title, post.Paragraph, post.Date,
		nullIfEmpty(post.ImageURL), nullIfEmpty(post.VideoURL),
		post.TelegramLink, post.AuthorName, post.AuthorImage, post.AuthorDesignation)
	if err != nil {
		return fmt.Errorf("failed to upsert post %s: %w", post.ID, err)
	}
	return nil
}

func (s *runStore) SetLocalImage(ctx context.Context, postID, localPath string) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE telegram_posts SET image_local_path = $2, image_uploaded = TRUE WHERE id = $1`,
		postID, localPath)
	if err != nil {
		return fmt.Errorf("failed to set local image for %s: %w", postID, err)
	}
	return nil
}

func (s *runStore) ReplaceHashtags(ctx context.Context, postID string, tags []string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin hashtag transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM post_hashtags WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("failed to clear hashtags for %s: %w", postID, err)
	}
	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post_hashtags (post_id, hashtag) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			postID, tag); err != nil {
			return fmt.Errorf("failed to insert hashtag %q for %s: %w", tag, postID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit hashtags for %s: %w", postID, err)
	}
	return nil
}

func (s *runStore) Release() error {
	return s.conn.Close()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
