package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/story-comb/app/database"
)

type Outcome int

const (
	OutcomeNew Outcome = iota
	OutcomeUpdated
	OutcomeSame
	OutcomeErr
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNew:
		return "new"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSame:
		return "same"
	default:
		return "err"
	}
}

type Counts struct {
	New     int
	Updated int
	Same    int
	Err     int
}

// Write records a story row created or edited while processing a batch.
type Write struct {
	Outcome Outcome
	StoryID int64
	GUID    string
}

type Result struct {
	Counts
	Writes []Write
}

func (r *Result) add(outcome Outcome) {
	switch outcome {
	case OutcomeNew:
		r.New++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeSame:
		r.Same++
	case OutcomeErr:
		r.Err++
	}
}

type Classifier struct {
	stories database.StoryRepository
	authors database.AuthorRepository
	tags    database.TagRepository
	matcher *Matcher
	differ  *Differ
}

func NewClassifier(
	stories database.StoryRepository,
	authors database.AuthorRepository,
	tags database.TagRepository,
) *Classifier {
	return &Classifier{
		stories: stories,
		authors: authors,
		tags:    tags,
		matcher: NewMatcher(),
		differ:  NewDiffer(),
	}
}

// LoadSnapshot fetches the stored stories that any entry of the batch could
// match. Edited stories come back with their current text rebuilt from the
// stored delta.
func (c *Classifier) LoadSnapshot(ctx context.Context, feed *database.Feed, entries []RawEntry) ([]database.StoryRef, error) {
	var earliest, latest time.Time
	for _, raw := range entries {
		entry, ok := Normalize(raw)
		if !ok {
			continue
		}
		if earliest.IsZero() || entry.Published.Before(earliest) {
			earliest = entry.Published
		}
		if latest.IsZero() || entry.Published.After(latest) {
			latest = entry.Published
		}
	}
	if earliest.IsZero() {
		return nil, nil
	}

	snapshot, err := c.stories.GetSnapshot(ctx, feed.ID, earliest.Add(-MatchWindow), latest.Add(MatchWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to load story snapshot: %w", err)
	}

	for i := range snapshot {
		story := &snapshot[i]
		if story.OriginalContent == nil {
			continue
		}
		current, err := c.differ.Apply(*story.OriginalContent, story.Content)
		if err != nil {
			slog.Warn("Stored content diff is unreadable, matching against raw value",
				"feed", feed.Name, "story_id", story.ID, "error", err)
			continue
		}
		story.Content = current
	}

	return snapshot, nil
}

// Process classifies each entry against the snapshot and persists the new and
// changed ones. The snapshot is not refreshed by the batch's own writes.
// Duplicate-key and vanished-row failures count as Err and the batch goes on;
// any other storage failure aborts it with the counts reached so far.
func (c *Classifier) Process(ctx context.Context, feed *database.Feed, entries []RawEntry, snapshot []database.StoryRef) (Result, error) {
	var result Result

	for _, raw := range entries {
		entry, ok := Normalize(raw)
		if !ok {
			continue
		}

		authorID, err := c.authors.GetOrCreateAuthor(ctx, feed.ID, entry.Author)
		if err != nil {
			return result, fmt.Errorf("failed to resolve author %q: %w", entry.Author, err)
		}

		tagIDs, err := c.resolveTags(ctx, feed.ID, entry.Tags)
		if err != nil {
			return result, err
		}

		match, changed := c.matcher.Run(entry, snapshot)

		switch {
		case match == nil:
			err = c.create(ctx, feed, entry, authorID, tagIDs, &result)
		case changed:
			err = c.update(ctx, feed, entry, *match, authorID, tagIDs, &result)
		default:
			result.add(OutcomeSame)
		}
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

func (c *Classifier) create(ctx context.Context, feed *database.Feed, entry Entry, authorID int64, tagIDs []int64, result *Result) error {
	storyID, err := c.stories.CreateStory(ctx, database.Story{
		FeedID:    feed.ID,
		Date:      entry.Published,
		Title:     entry.Title,
		Content:   entry.Content,
		AuthorID:  authorID,
		Permalink: entry.Link,
		GUID:      entry.GUID,
		TagIDs:    tagIDs,
	})
	if err != nil {
		if isEntryFailure(err) {
			slog.Warn("Story could not be stored", "feed", feed.Name, "guid", entry.GUID, "error", err)
			result.add(OutcomeErr)
			return nil
		}
		return fmt.Errorf("failed to create story %q: %w", entry.GUID, err)
	}

	result.add(OutcomeNew)
	result.Writes = append(result.Writes, Write{Outcome: OutcomeNew, StoryID: storyID, GUID: entry.GUID})
	return nil
}

func (c *Classifier) update(ctx context.Context, feed *database.Feed, entry Entry, match database.StoryRef, authorID int64, tagIDs []int64, result *Result) error {
	diff := c.differ.Run(match, entry.Content)

	err := c.stories.UpdateStory(ctx, database.Story{
		ID:              match.ID,
		FeedID:          feed.ID,
		Date:            entry.Published,
		Title:           entry.Title,
		Content:         diff.Delta,
		OriginalContent: &diff.Baseline,
		AuthorID:        authorID,
		Permalink:       entry.Link,
		GUID:            entry.GUID,
		TagIDs:          tagIDs,
	})
	if err != nil {
		if isEntryFailure(err) {
			slog.Warn("Story update could not be stored",
				"feed", feed.Name, "story_id", match.ID, "guid", entry.GUID, "error", err)
			result.add(OutcomeErr)
			return nil
		}
		return fmt.Errorf("failed to update story %d: %w", match.ID, err)
	}

	slog.Debug("Story changed", "feed", feed.Name, "story_id", match.ID,
		"insertions", diff.Insertions, "deletions", diff.Deletions)

	result.add(OutcomeUpdated)
	result.Writes = append(result.Writes, Write{Outcome: OutcomeUpdated, StoryID: match.ID, GUID: entry.GUID})
	return nil
}

func (c *Classifier) resolveTags(ctx context.Context, feedID int64, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}

	tagIDs := make([]int64, 0, len(names))
	for _, name := range names {
		tagID, err := c.tags.GetOrCreateTag(ctx, feedID, name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tag %q: %w", name, err)
		}
		tagIDs = append(tagIDs, tagID)
	}
	return tagIDs, nil
}

func isEntryFailure(err error) bool {
	return errors.Is(err, database.ErrDuplicateKey) || errors.Is(err, database.ErrNotFound)
}
