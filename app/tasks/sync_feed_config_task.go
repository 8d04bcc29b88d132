package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/story-comb/app/database"
	"github.com/lysyi3m/story-comb/app/feed"
)

type SyncFeedConfigTask struct {
	Task
	FeedConfig *feed.Config
	feedRepo   database.FeedRepository
}

func NewSyncFeedConfigTask(feedName string, feedConfig *feed.Config, feedRepo database.FeedRepository) *SyncFeedConfigTask {
	return &SyncFeedConfigTask{
		Task:       NewTask(TaskTypeSyncFeedConfig, feedName),
		FeedConfig: feedConfig,
		feedRepo:   feedRepo,
	}
}

func (t *SyncFeedConfigTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	feedID, err := t.feedRepo.UpsertFeed(ctx, t.FeedConfig.Name, t.FeedConfig.URL)
	if err != nil {
		return fmt.Errorf("failed to sync feed config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncFeedConfig",
		"feed", t.FeedName,
		"feed_id", feedID,
		"duration", t.GetDuration())

	return nil
}
