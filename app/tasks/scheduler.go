package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/story-comb/app/feed"
)

const (
	taskQueueSize = 300
	taskTimeout   = 5 * time.Minute
	maxRetryDelay = 30 * time.Second
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	configCache  *feed.ConfigCache
	deps         *Deps
	interval     time.Duration
	trimInterval time.Duration
	workerCount  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface
}

func NewScheduler(configCache *feed.ConfigCache, deps *Deps, interval, trimInterval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		configCache:  configCache,
		deps:         deps,
		interval:     interval,
		trimInterval: trimInterval,
		workerCount:  workerCount,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, taskQueueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		trimTicker := time.NewTicker(s.trimInterval)
		defer trimTicker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			case <-trimTicker.C:
				s.enqueueTrimTasks()
			}
		}
	}()

}

// Stop cancels pending work and waits for workers and scheduled retries to exit.
// The queue is left open so a late retry never sends on a closed channel.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueStartupTasks registers every configured feed before any processing
// is queued, so process and trim tasks always find their feed row.
func (s *Scheduler) enqueueStartupTasks() {
	feedConfigs := s.configCache.GetConfigs()
	if len(feedConfigs) == 0 {
		slog.Debug("No feed configurations found")
		return
	}

	slog.Debug("Processing feed configurations", "count", len(feedConfigs))

	for _, feedConfig := range feedConfigs {
		syncTask := NewSyncFeedConfigTask(feedConfig.Name, feedConfig, s.deps.FeedRepo)
		syncTask.Start()
		if err := syncTask.Execute(s.ctx); err != nil {
			slog.Warn("Failed to sync feed configuration", "feed", feedConfig.Name, "error", err)
			continue
		}

		if !feedConfig.Settings.Enabled {
			slog.Debug("Feed disabled, skipping ProcessFeedTask", "feed", feedConfig.Name)
			continue
		}

		processTask := NewProcessFeedTask(feedConfig.Name, feedConfig, s.deps)
		if err := s.EnqueueTask(processTask); err != nil {
			slog.Warn("Failed to enqueue ProcessFeedTask", "feed", feedConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	feedConfigs := s.configCache.GetEnabledConfigs()
	if len(feedConfigs) == 0 {
		slog.Debug("No enabled feed configurations found")
		return
	}

	slog.Debug("Processing enabled feed configurations for task scheduling", "count", len(feedConfigs))

	for _, feedConfig := range feedConfigs {
		feedRecord, err := s.deps.FeedRepo.GetFeed(s.ctx, feedConfig.Name)
		if err != nil {
			slog.Warn("Failed to get feed from database, skipping", "feed", feedConfig.Name, "error", err)
			continue
		}
		if feedRecord == nil {
			slog.Warn("Feed not found in database, skipping", "feed", feedConfig.Name)
			continue
		}

		now := time.Now().UTC()
		if feedRecord.NextFetchAt != nil && feedRecord.NextFetchAt.After(now) {
			slog.Debug("Feed not due for refresh yet", "feed", feedConfig.Name, "next_fetch_at", feedRecord.NextFetchAt)
			continue
		}

		processTask := NewProcessFeedTask(feedConfig.Name, feedConfig, s.deps)
		if err := s.EnqueueTask(processTask); err != nil {
			slog.Warn("Failed to enqueue ProcessFeedTask", "feed", feedConfig.Name, "error", err)
		}
	}
}

// enqueueTrimTasks queues one trim per configured feed, enabled or not, so a
// failing feed never holds back the others.
func (s *Scheduler) enqueueTrimTasks() {
	for _, feedConfig := range s.configCache.GetConfigs() {
		trimTask := NewTrimFeedTask(feedConfig.Name, feedConfig, s.deps)
		if err := s.EnqueueTask(trimTask); err != nil {
			slog.Warn("Failed to enqueue TrimFeedTask", "feed", feedConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := retryDelayFor(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "feed", task.GetFeedName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-time.After(retryDelay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

// retryDelayFor doubles from one second per attempt, capped at maxRetryDelay.
func retryDelayFor(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	retryDelay := time.Duration(1<<uint(retryCount-1)) * time.Second
	if retryDelay > maxRetryDelay {
		retryDelay = maxRetryDelay
	}
	return retryDelay
}
