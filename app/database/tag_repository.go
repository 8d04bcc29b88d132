package database

import (
	"context"
	"fmt"
)

var _ TagRepository = (*tagRepository)(nil)

type tagRepository struct {
	db *DB
}

func NewTagRepository(db *DB) TagRepository {
	return &tagRepository{db: db}
}

// GetOrCreateTag returns the tag id for (feed, name); name must already be normalized
func (r *tagRepository) GetOrCreateTag(ctx context.Context, feedID int64, name string) (int64, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tags (feed_id, name)
		VALUES (?, ?)
		ON CONFLICT (feed_id, name) DO NOTHING
	`, feedID, name)
	if err != nil {
		return 0, fmt.Errorf("failed to create tag: %w", err)
	}

	var id int64
	err = r.db.QueryRowContext(ctx, `
		SELECT id FROM tags WHERE feed_id = ? AND name = ?
	`, feedID, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to get tag: %w", err)
	}

	return id, nil
}
