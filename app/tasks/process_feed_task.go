package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/story-comb/app/feed"
)

var _ TaskInterface = (*ProcessFeedTask)(nil)

type ProcessFeedTask struct {
	Task
	FeedConfig *feed.Config
	deps       *Deps
}

func NewProcessFeedTask(feedName string, feedConfig *feed.Config, deps *Deps) *ProcessFeedTask {
	return &ProcessFeedTask{
		Task:       NewTask(TaskTypeProcessFeed, feedName),
		FeedConfig: feedConfig,
		deps:       deps,
	}
}

func (t *ProcessFeedTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.FeedConfig.Settings.Enabled {
		slog.Debug("Feed disabled, skipping", "feed", t.FeedName)
		return nil
	}

	timeout := time.Duration(t.FeedConfig.Settings.Timeout) * time.Second
	data, err := t.deps.Fetcher.Run(ctx, t.FeedConfig.URL, timeout)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	metadata, entries, err := t.deps.Parser.Run(data)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	err = t.storeFeedMetadata(ctx, metadata)
	if err != nil {
		return fmt.Errorf("failed to store feed metadata: %w", err)
	}

	feedRecord, err := t.deps.FeedRepo.GetFeed(ctx, t.FeedName)
	if err != nil {
		return fmt.Errorf("failed to get feed: %w", err)
	}
	if feedRecord == nil {
		return fmt.Errorf("feed %s is not registered", t.FeedName)
	}

	snapshot, err := t.deps.Classifier.LoadSnapshot(ctx, feedRecord, entries)
	if err != nil {
		return err
	}

	result, err := t.deps.Classifier.Process(ctx, feedRecord, entries, snapshot)
	if err != nil {
		slog.Error("Batch aborted",
			"feed", t.FeedName,
			"new", result.New,
			"updated", result.Updated,
			"same", result.Same,
			"err", result.Err)
		return fmt.Errorf("failed to process entries: %w", err)
	}

	slog.Info("Task completed",
		"type", "ProcessedFeed",
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"total", len(entries),
		"snapshot", len(snapshot),
		"new", result.New,
		"updated", result.Updated,
		"same", result.Same,
		"err", result.Err)

	return nil
}

func (t *ProcessFeedTask) storeFeedMetadata(ctx context.Context, metadata *feed.Metadata) error {
	now := time.Now().UTC()
	nextFetch := now.Add(time.Duration(t.FeedConfig.Settings.RefreshInterval) * time.Second)

	err := t.deps.FeedRepo.UpdateFeedMetadata(ctx, t.FeedName, metadata.Title, metadata.Link, nextFetch)
	if err != nil {
		return fmt.Errorf("failed to update feed metadata and next fetch time: %w", err)
	}

	return nil
}
