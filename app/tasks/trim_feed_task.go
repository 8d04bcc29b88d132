package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/story-comb/app/feed"
)

type TrimFeedTask struct {
	Task
	FeedConfig *feed.Config
	deps       *Deps
}

func NewTrimFeedTask(feedName string, feedConfig *feed.Config, deps *Deps) *TrimFeedTask {
	return &TrimFeedTask{
		Task:       NewTask(TaskTypeTrimFeed, feedName),
		FeedConfig: feedConfig,
		deps:       deps,
	}
}

func (t *TrimFeedTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	feedRecord, err := t.deps.FeedRepo.GetFeed(ctx, t.FeedName)
	if err != nil {
		return fmt.Errorf("failed to get feed: %w", err)
	}
	if feedRecord == nil {
		slog.Debug("Feed not registered, nothing to trim", "feed", t.FeedName)
		return nil
	}

	result, err := t.deps.Trimmer.Run(ctx, feedRecord, t.FeedConfig.Settings.MaxStories)
	if err != nil {
		return fmt.Errorf("failed to trim feed: %w", err)
	}

	slog.Info("Task completed",
		"type", "TrimFeed",
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"stories_deleted", result.StoriesDeleted,
		"user_stories_deleted", result.UserStoriesDeleted)

	return nil
}
