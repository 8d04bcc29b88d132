package api

import (
	"github.com/lysyi3m/story-comb/app/database"
	"github.com/lysyi3m/story-comb/app/feed"
	"github.com/lysyi3m/story-comb/app/tasks"
)

type Handler struct {
	feedRepo      database.FeedRepository
	storyRepo     database.StoryRepository
	userStoryRepo database.UserStoryRepository
	configCache   *feed.ConfigCache
	scheduler     tasks.TaskSchedulerInterface
	deps          *tasks.Deps
}

type markReadRequest struct {
	UserID string `json:"user_id" binding:"required,max=255"`
}
