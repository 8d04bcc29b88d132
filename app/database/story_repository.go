package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var _ StoryRepository = (*storyRepository)(nil)

type storyRepository struct {
	db *DB
}

func NewStoryRepository(db *DB) StoryRepository {
	return &storyRepository{db: db}
}

// GetSnapshot returns the feed's stories dated within [from, to], newest first
func (r *storyRepository) GetSnapshot(ctx context.Context, feedID int64, from, to time.Time) ([]StoryRef, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, story_guid, story_permalink, story_title, story_content,
		       story_original_content, story_date
		FROM stories
		WHERE feed_id = ?
		  AND story_date >= ?
		  AND story_date <= ?
		ORDER BY story_date DESC, id DESC
	`, feedID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to get story snapshot: %w", err)
	}
	defer rows.Close()

	var stories []StoryRef
	for rows.Next() {
		var (
			story           StoryRef
			originalContent sql.NullString
			date            string
		)
		err := rows.Scan(
			&story.ID, &story.GUID, &story.Permalink, &story.Title, &story.Content,
			&originalContent, &date,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story row: %w", err)
		}

		if originalContent.Valid {
			baseline := originalContent.String
			story.OriginalContent = &baseline
		}
		if story.Date, err = parseTime(date); err != nil {
			return nil, err
		}

		stories = append(stories, story)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating story rows: %w", err)
	}

	return stories, nil
}

// GetStoryStats returns total and edited story counts for a feed
func (r *storyRepository) GetStoryStats(ctx context.Context, feedID int64) (StoryStats, error) {
	var stats StoryStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN story_original_content IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM stories
		WHERE feed_id = ?
	`, feedID).Scan(&stats.Total, &stats.Edited)
	if err != nil {
		return StoryStats{}, fmt.Errorf("failed to get story stats: %w", err)
	}
	return stats, nil
}

// CreateStory inserts a new story with its tags. A (feed, guid) conflict yields ErrDuplicateKey.
func (r *storyRepository) CreateStory(ctx context.Context, story Story) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now())

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO stories (
			feed_id, story_date, story_title, story_content, story_original_content,
			story_author_id, story_permalink, story_guid, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, story.FeedID, formatTime(story.Date), story.Title, story.Content, nullString(story.OriginalContent),
		story.AuthorID, story.Permalink, story.GUID, now, now).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("failed to create story %q: %w", story.GUID, ErrDuplicateKey)
		}
		return 0, fmt.Errorf("failed to create story: %w", err)
	}

	if err := insertStoryTags(ctx, tx, id, story.TagIDs); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit story: %w", err)
	}

	return id, nil
}

// UpdateStory rewrites a story in place and replaces its tag set. The stored
// original content is kept once set; story.OriginalContent only fills an empty slot.
func (r *storyRepository) UpdateStory(ctx context.Context, story Story) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE stories
		SET story_date = ?,
		    story_title = ?,
		    story_content = ?,
		    story_original_content = COALESCE(story_original_content, ?),
		    story_author_id = ?,
		    story_permalink = ?,
		    story_guid = ?,
		    updated_at = ?
		WHERE id = ? AND feed_id = ?
	`, formatTime(story.Date), story.Title, story.Content, nullString(story.OriginalContent),
		story.AuthorID, story.Permalink, story.GUID, formatTime(time.Now()),
		story.ID, story.FeedID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to update story %d: %w", story.ID, ErrDuplicateKey)
		}
		return fmt.Errorf("failed to update story: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("failed to update story %d: %w", story.ID, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM story_tags WHERE story_id = ?`, story.ID); err != nil {
		return fmt.Errorf("failed to clear story tags: %w", err)
	}

	if err := insertStoryTags(ctx, tx, story.ID, story.TagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit story update: %w", err)
	}

	return nil
}

// ListStoryIDsBeyond returns ids of the feed's stories past the newest keep, newest first
func (r *storyRepository) ListStoryIDsBeyond(ctx context.Context, feedID int64, keep int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id
		FROM stories
		WHERE feed_id = ?
		ORDER BY story_date DESC, id DESC
		LIMIT -1 OFFSET ?
	`, feedID, keep)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories beyond cap: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan story id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating story ids: %w", err)
	}

	return ids, nil
}

// DeleteStory removes a story and its tag links by id. It reports false when the
// story was already gone. Read-state rows must be removed first.
func (r *storyRepository) DeleteStory(ctx context.Context, storyID int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM story_tags WHERE story_id = ?`, storyID); err != nil {
		return false, fmt.Errorf("failed to delete story tags: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, storyID)
	if err != nil {
		return false, fmt.Errorf("failed to delete story: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit story delete: %w", err)
	}

	return rowsAffected > 0, nil
}

func insertStoryTags(ctx context.Context, tx *sql.Tx, storyID int64, tagIDs []int64) error {
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO story_tags (story_id, tag_id) VALUES (?, ?)
		`, storyID, tagID)
		if err != nil {
			return fmt.Errorf("failed to link tag %d to story %d: %w", tagID, storyID, err)
		}
	}
	return nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
