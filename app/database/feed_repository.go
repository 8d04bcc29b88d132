package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var _ FeedRepository = (*feedRepository)(nil)

type feedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) FeedRepository {
	return &feedRepository{db: db}
}

// UpsertFeed registers a feed by name or refreshes its URL, returning the row id
func (r *feedRepository) UpsertFeed(ctx context.Context, feedName, feedURL string) (int64, error) {
	now := formatTime(time.Now())

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO feeds (name, feed_url, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			feed_url = excluded.feed_url,
			updated_at = excluded.updated_at
		RETURNING id
	`, feedName, feedURL, now, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert feed: %w", err)
	}

	return id, nil
}

// UpdateFeedMetadata records feed-level metadata after a successful fetch
func (r *feedRepository) UpdateFeedMetadata(ctx context.Context, feedName string, title string, link string, nextFetch time.Time) error {
	now := formatTime(time.Now())

	result, err := r.db.ExecContext(ctx, `
		UPDATE feeds
		SET title = ?, link = ?, last_fetched_at = ?, next_fetch_at = ?, updated_at = ?
		WHERE name = ?
	`, title, link, now, formatTime(nextFetch), now, feedName)
	if err != nil {
		return fmt.Errorf("failed to update feed metadata: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("feed %s: %w", feedName, ErrNotFound)
	}

	return nil
}

// GetFeed returns the feed registered under feedName, or nil if there is none
func (r *feedRepository) GetFeed(ctx context.Context, feedName string) (*Feed, error) {
	var (
		feed          Feed
		lastFetchedAt sql.NullString
		nextFetchAt   sql.NullString
		createdAt     string
		updatedAt     string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, feed_url, title, link, last_fetched_at, next_fetch_at, created_at, updated_at
		FROM feeds
		WHERE name = ?
	`, feedName).Scan(
		&feed.ID, &feed.Name, &feed.FeedURL, &feed.Title, &feed.Link,
		&lastFetchedAt, &nextFetchAt, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	if feed.LastFetchedAt, err = parseNullTime(lastFetchedAt); err != nil {
		return nil, err
	}
	if feed.NextFetchAt, err = parseNullTime(nextFetchAt); err != nil {
		return nil, err
	}
	if feed.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if feed.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &feed, nil
}

// GetFeedCount returns the total number of feeds
func (r *feedRepository) GetFeedCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}
