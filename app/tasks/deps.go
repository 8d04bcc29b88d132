package tasks

import (
	"github.com/lysyi3m/story-comb/app/database"
	"github.com/lysyi3m/story-comb/app/feed"
)

// Deps are the collaborators shared by every feed task.
type Deps struct {
	FeedRepo   database.FeedRepository
	Fetcher    *feed.Fetcher
	Parser     *feed.Parser
	Classifier *feed.Classifier
	Trimmer    *feed.Trimmer
}
