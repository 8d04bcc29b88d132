package database

import (
	"context"
	"fmt"
)

var _ AuthorRepository = (*authorRepository)(nil)

type authorRepository struct {
	db *DB
}

func NewAuthorRepository(db *DB) AuthorRepository {
	return &authorRepository{db: db}
}

// GetOrCreateAuthor returns the author id for (feed, name), creating the row on first use.
// A concurrent creator losing the insert race reads the winner's row.
func (r *authorRepository) GetOrCreateAuthor(ctx context.Context, feedID int64, name string) (int64, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO story_authors (feed_id, author_name)
		VALUES (?, ?)
		ON CONFLICT (feed_id, author_name) DO NOTHING
	`, feedID, name)
	if err != nil {
		return 0, fmt.Errorf("failed to create author: %w", err)
	}

	var id int64
	err = r.db.QueryRowContext(ctx, `
		SELECT id FROM story_authors WHERE feed_id = ? AND author_name = ?
	`, feedID, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to get author: %w", err)
	}

	return id, nil
}
