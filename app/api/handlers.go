package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/story-comb/app/database"
	"github.com/lysyi3m/story-comb/app/feed"
	"github.com/lysyi3m/story-comb/app/tasks"
)

func NewHandler(configCache *feed.ConfigCache, feedRepo database.FeedRepository,
	storyRepo database.StoryRepository, userStoryRepo database.UserStoryRepository,
	scheduler tasks.TaskSchedulerInterface, deps *tasks.Deps) *Handler {
	return &Handler{
		feedRepo:      feedRepo,
		storyRepo:     storyRepo,
		userStoryRepo: userStoryRepo,
		configCache:   configCache,
		scheduler:     scheduler,
		deps:          deps,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(c.Request.Context()); err == nil {
		health["feeds"] = feedCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	ctx := c.Request.Context()
	configs := h.configCache.GetConfigs()

	feeds := make([]map[string]interface{}, 0, len(configs))

	for _, feedConfig := range configs {
		feedInfo := map[string]interface{}{
			"name":             feedConfig.Name,
			"url":              feedConfig.URL,
			"title":            "",
			"enabled":          feedConfig.Settings.Enabled,
			"max_stories":      feedConfig.Settings.MaxStories,
			"refresh_interval": (time.Duration(feedConfig.Settings.RefreshInterval) * time.Second).String(),
		}

		if feedRecord, err := h.feedRepo.GetFeed(ctx, feedConfig.Name); err == nil && feedRecord != nil {
			feedInfo["title"] = feedRecord.Title
			feedInfo["last_fetched_at"] = feedRecord.LastFetchedAt
			feedInfo["next_fetch_at"] = feedRecord.NextFetchAt
			feedInfo["updated_at"] = feedRecord.UpdatedAt

			if stats, err := h.storyRepo.GetStoryStats(ctx, feedRecord.ID); err == nil {
				feedInfo["story_count"] = stats.Total
			}
		}

		feeds = append(feeds, feedInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APIGetFeedDetails(c *gin.Context) {
	name := c.Param("name")

	feedConfig, feedRecord, ok := h.lookupFeed(c, name)
	if !ok {
		return
	}

	details := map[string]interface{}{
		"name":             name,
		"url":              feedConfig.URL,
		"title":            feedRecord.Title,
		"link":             feedRecord.Link,
		"enabled":          feedConfig.Settings.Enabled,
		"max_stories":      feedConfig.Settings.MaxStories,
		"refresh_interval": (time.Duration(feedConfig.Settings.RefreshInterval) * time.Second).String(),
		"timeout":          (time.Duration(feedConfig.Settings.Timeout) * time.Second).String(),
	}

	details["database"] = map[string]interface{}{
		"id":              feedRecord.ID,
		"name":            feedRecord.Name,
		"last_fetched_at": feedRecord.LastFetchedAt,
		"next_fetch_at":   feedRecord.NextFetchAt,
		"created_at":      feedRecord.CreatedAt,
		"updated_at":      feedRecord.UpdatedAt,
	}

	if stats, err := h.storyRepo.GetStoryStats(c.Request.Context(), feedRecord.ID); err == nil {
		details["stories"] = map[string]interface{}{
			"total":  stats.Total,
			"edited": stats.Edited,
		}
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APIRefreshFeed(c *gin.Context) {
	name := c.Param("name")

	if _, _, ok := h.lookupFeed(c, name); !ok {
		return
	}

	feedConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	// Registration is immediate so the queued fetch sees the reloaded URL.
	syncFeedTask := tasks.NewSyncFeedConfigTask(name, feedConfig, h.feedRepo)
	syncFeedTask.Start()
	if err := syncFeedTask.Execute(c.Request.Context()); err != nil {
		slog.Error("Error syncing feed configuration", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to sync feed configuration",
			"details": err.Error(),
		})
		return
	}

	processFeedTask := tasks.NewProcessFeedTask(name, feedConfig, h.deps)
	if !h.enqueue(c, name, processFeedTask) {
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Configuration reloaded and refresh enqueued",
		"feed": gin.H{
			"name": name,
			"url":  feedConfig.URL,
		},
		"tasks": []gin.H{
			{
				"id":   processFeedTask.ID,
				"type": processFeedTask.Type,
			},
		},
	})
}

func (h *Handler) APITrimFeed(c *gin.Context) {
	name := c.Param("name")

	feedConfig, _, ok := h.lookupFeed(c, name)
	if !ok {
		return
	}

	trimFeedTask := tasks.NewTrimFeedTask(name, feedConfig, h.deps)
	if !h.enqueue(c, name, trimFeedTask) {
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":     true,
		"message":     "Trim enqueued",
		"max_stories": feedConfig.Settings.MaxStories,
		"tasks": []gin.H{
			{
				"id":   trimFeedTask.ID,
				"type": trimFeedTask.Type,
			},
		},
	})
}

func (h *Handler) APIMarkStoryRead(c *gin.Context) {
	storyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || storyID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid story id"})
		return
	}

	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	err = h.userStoryRepo.MarkRead(c.Request.Context(), req.UserID, storyID)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Story not found"})
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "mark_read", "story_id", storyID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"story_id": storyID,
		"user_id":  req.UserID,
	})
}

// lookupFeed resolves a configured, registered feed or writes the error response.
func (h *Handler) lookupFeed(c *gin.Context, name string) (*feed.Config, *database.Feed, bool) {
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing feed name parameter"})
		return nil, nil, false
	}

	feedConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Feed configuration not found", "feed", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return nil, nil, false
	}

	feedRecord, err := h.feedRepo.GetFeed(c.Request.Context(), name)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, nil, false
	}

	if feedRecord == nil {
		slog.Error("Feed not found in database", "feed", name)
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found in database"})
		return nil, nil, false
	}

	return feedConfig, feedRecord, true
}

func (h *Handler) enqueue(c *gin.Context, name string, task tasks.TaskInterface) bool {
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing task", "feed", name, "type", string(task.GetType()), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue task",
			"details": err.Error(),
		})
		return false
	}
	return true
}
