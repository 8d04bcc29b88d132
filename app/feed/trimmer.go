package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/story-comb/app/database"
)

// DefaultRetentionCap is the number of newest stories kept per feed when no cap is configured.
const DefaultRetentionCap = 1000

type TrimResult struct {
	StoriesDeleted     int
	UserStoriesDeleted int
}

type Trimmer struct {
	stories     database.StoryRepository
	userStories database.UserStoryRepository
}

func NewTrimmer(stories database.StoryRepository, userStories database.UserStoryRepository) *Trimmer {
	return &Trimmer{
		stories:     stories,
		userStories: userStories,
	}
}

// Run deletes every story of the feed beyond its newest retentionCap, together
// with the per-user records that reference them. A non-positive cap falls back
// to DefaultRetentionCap.
func (t *Trimmer) Run(ctx context.Context, feed *database.Feed, retentionCap int) (TrimResult, error) {
	if retentionCap <= 0 {
		retentionCap = DefaultRetentionCap
	}

	var result TrimResult

	storyIDs, err := t.stories.ListStoryIDsBeyond(ctx, feed.ID, retentionCap)
	if err != nil {
		return result, fmt.Errorf("failed to list stories to trim: %w", err)
	}
	if len(storyIDs) == 0 {
		return result, nil
	}

	for _, storyID := range storyIDs {
		userStories, err := t.userStories.DeleteByStory(ctx, storyID)
		if err != nil {
			return result, fmt.Errorf("failed to delete user stories of story %d: %w", storyID, err)
		}
		result.UserStoriesDeleted += userStories

		deleted, err := t.stories.DeleteStory(ctx, storyID)
		if err != nil {
			return result, fmt.Errorf("failed to delete story %d: %w", storyID, err)
		}
		if deleted {
			result.StoriesDeleted++
		}
	}

	slog.Info("Trimmed feed", "feed", feed.Name, "cap", retentionCap,
		"stories", result.StoriesDeleted, "user_stories", result.UserStoriesDeleted)

	return result, nil
}
