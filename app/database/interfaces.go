package database

import (
	"context"
	"time"
)

type FeedRepository interface {
	GetFeed(ctx context.Context, feedName string) (*Feed, error)
	GetFeedCount(ctx context.Context) (int, error)

	UpsertFeed(ctx context.Context, feedName, feedURL string) (int64, error)
	UpdateFeedMetadata(ctx context.Context, feedName string, title string, link string, nextFetch time.Time) error
}

type StoryRepository interface {
	GetSnapshot(ctx context.Context, feedID int64, from, to time.Time) ([]StoryRef, error)
	GetStoryStats(ctx context.Context, feedID int64) (StoryStats, error)

	CreateStory(ctx context.Context, story Story) (int64, error)
	UpdateStory(ctx context.Context, story Story) error

	ListStoryIDsBeyond(ctx context.Context, feedID int64, keep int) ([]int64, error)
	DeleteStory(ctx context.Context, storyID int64) (bool, error)
}

type AuthorRepository interface {
	GetOrCreateAuthor(ctx context.Context, feedID int64, name string) (int64, error)
}

type TagRepository interface {
	GetOrCreateTag(ctx context.Context, feedID int64, name string) (int64, error)
}

type UserStoryRepository interface {
	MarkRead(ctx context.Context, userID string, storyID int64) error
	CountByStory(ctx context.Context, storyID int64) (int, error)
	DeleteByStory(ctx context.Context, storyID int64) (int, error)
}
