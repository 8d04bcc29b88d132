package database

import (
	"context"
	"fmt"
	"time"
)

var _ UserStoryRepository = (*userStoryRepository)(nil)

type userStoryRepository struct {
	db *DB
}

func NewUserStoryRepository(db *DB) UserStoryRepository {
	return &userStoryRepository{db: db}
}

// MarkRead records that userID has read the story
func (r *userStoryRepository) MarkRead(ctx context.Context, userID string, storyID int64) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO user_stories (user_id, story_id, feed_id, read_at)
		SELECT ?, id, feed_id, ? FROM stories WHERE id = ?
		ON CONFLICT (user_id, story_id) DO UPDATE SET read_at = excluded.read_at
	`, userID, formatTime(time.Now()), storyID)
	if err != nil {
		return fmt.Errorf("failed to mark story read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("story %d: %w", storyID, ErrNotFound)
	}

	return nil
}

func (r *userStoryRepository) CountByStory(ctx context.Context, storyID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_stories WHERE story_id = ?", storyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count user stories: %w", err)
	}
	return count, nil
}

// DeleteByStory removes every read-state record referencing the story
func (r *userStoryRepository) DeleteByStory(ctx context.Context, storyID int64) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM user_stories WHERE story_id = ?", storyID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user stories: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}
