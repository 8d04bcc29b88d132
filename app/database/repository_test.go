package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func newTestFeed(t *testing.T, db *DB, name string) int64 {
	t.Helper()

	id, err := NewFeedRepository(db).UpsertFeed(context.Background(), name, "https://example.com/"+name+".xml")
	if err != nil {
		t.Fatalf("Failed to upsert feed: %v", err)
	}
	return id
}

func newTestStory(t *testing.T, db *DB, feedID int64, guid string, date time.Time) int64 {
	t.Helper()

	ctx := context.Background()
	authorID, err := NewAuthorRepository(db).GetOrCreateAuthor(ctx, feedID, "")
	if err != nil {
		t.Fatalf("Failed to create author: %v", err)
	}

	id, err := NewStoryRepository(db).CreateStory(ctx, Story{
		FeedID:    feedID,
		Date:      date,
		Title:     "Story " + guid,
		Content:   "content " + guid,
		AuthorID:  authorID,
		Permalink: "https://example.com/" + guid,
		GUID:      guid,
	})
	if err != nil {
		t.Fatalf("Failed to create story %s: %v", guid, err)
	}
	return id
}

func countRows(t *testing.T, db *DB, query string, args ...any) int {
	t.Helper()

	var count int
	if err := db.QueryRow(query, args...).Scan(&count); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return count
}

func TestNewConnectionEmptyPath(t *testing.T) {
	_, err := NewConnection("")
	if err == nil {
		t.Error("Expected error for empty database path")
	}
}

func TestRunMigrations(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Expected re-running migrations to succeed, got: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected schema version 1, got %d", version)
	}
	if dirty {
		t.Error("Expected clean migration state")
	}
}

func TestFeedRepositoryUpsertAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewFeedRepository(db)
	ctx := context.Background()

	id, err := repo.UpsertFeed(ctx, "tech", "https://example.com/a.xml")
	if err != nil {
		t.Fatal(err)
	}

	sameID, err := repo.UpsertFeed(ctx, "tech", "https://example.com/b.xml")
	if err != nil {
		t.Fatal(err)
	}
	if sameID != id {
		t.Errorf("Expected upsert to keep id %d, got %d", id, sameID)
	}

	nextFetch := time.Now().Add(time.Hour)
	if err := repo.UpdateFeedMetadata(ctx, "tech", "Tech News", "https://example.com", nextFetch); err != nil {
		t.Fatal(err)
	}

	feed, err := repo.GetFeed(ctx, "tech")
	if err != nil {
		t.Fatal(err)
	}
	if feed == nil {
		t.Fatal("Expected feed to exist")
	}
	if feed.FeedURL != "https://example.com/b.xml" {
		t.Errorf("Expected updated URL, got '%s'", feed.FeedURL)
	}
	if feed.Title != "Tech News" {
		t.Errorf("Expected title 'Tech News', got '%s'", feed.Title)
	}
	if feed.NextFetchAt == nil || !feed.NextFetchAt.Equal(nextFetch.UTC().Truncate(time.Nanosecond)) {
		t.Errorf("Expected next fetch %v, got %v", nextFetch, feed.NextFetchAt)
	}

	missing, err := repo.GetFeed(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Error("Expected nil for unknown feed")
	}

	count, err := repo.GetFeedCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 feed, got %d", count)
	}

	err = repo.UpdateFeedMetadata(ctx, "missing", "", "", nextFetch)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown feed, got %v", err)
	}
}

func TestAuthorAndTagGetOrCreateArePerFeed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	authors := NewAuthorRepository(db)
	tags := NewTagRepository(db)

	feedA := newTestFeed(t, db, "a")
	feedB := newTestFeed(t, db, "b")

	first, err := authors.GetOrCreateAuthor(ctx, feedA, "Jane")
	if err != nil {
		t.Fatal(err)
	}
	second, err := authors.GetOrCreateAuthor(ctx, feedA, "Jane")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("Expected same author id, got %d and %d", first, second)
	}

	other, err := authors.GetOrCreateAuthor(ctx, feedB, "Jane")
	if err != nil {
		t.Fatal(err)
	}
	if other == first {
		t.Error("Expected a separate author row for another feed")
	}

	tagA, err := tags.GetOrCreateTag(ctx, feedA, "go")
	if err != nil {
		t.Fatal(err)
	}
	tagAAgain, err := tags.GetOrCreateTag(ctx, feedA, "go")
	if err != nil {
		t.Fatal(err)
	}
	if tagA != tagAAgain {
		t.Errorf("Expected same tag id, got %d and %d", tagA, tagAAgain)
	}
	tagB, err := tags.GetOrCreateTag(ctx, feedB, "go")
	if err != nil {
		t.Fatal(err)
	}
	if tagB == tagA {
		t.Error("Expected a separate tag row for another feed")
	}

	if n := countRows(t, db, "SELECT COUNT(*) FROM story_authors"); n != 2 {
		t.Errorf("Expected 2 authors, got %d", n)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM tags"); n != 2 {
		t.Errorf("Expected 2 tags, got %d", n)
	}
}

func TestStoryRepositoryCreateDuplicateGUID(t *testing.T) {
	db := newTestDB(t)
	feedID := newTestFeed(t, db, "tech")
	now := time.Now()

	newTestStory(t, db, feedID, "g1", now)

	authorID, err := NewAuthorRepository(db).GetOrCreateAuthor(context.Background(), feedID, "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewStoryRepository(db).CreateStory(context.Background(), Story{
		FeedID:   feedID,
		Date:     now,
		Title:    "Another",
		AuthorID: authorID,
		GUID:     "g1",
	})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	if n := countRows(t, db, "SELECT COUNT(*) FROM stories"); n != 1 {
		t.Errorf("Expected 1 story after failed insert, got %d", n)
	}
}

func TestStoryRepositoryUpdateKeepsOriginalContentAndReplacesTags(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewStoryRepository(db)
	tags := NewTagRepository(db)

	feedID := newTestFeed(t, db, "tech")
	date := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	storyID := newTestStory(t, db, feedID, "g1", date)

	goTag, _ := tags.GetOrCreateTag(ctx, feedID, "go")
	dbTag, _ := tags.GetOrCreateTag(ctx, feedID, "databases")
	webTag, _ := tags.GetOrCreateTag(ctx, feedID, "web")

	authorID, err := NewAuthorRepository(db).GetOrCreateAuthor(ctx, feedID, "")
	if err != nil {
		t.Fatal(err)
	}

	first := "first baseline"
	err = repo.UpdateStory(ctx, Story{
		ID: storyID, FeedID: feedID, Date: date, Title: "Edited", Content: "delta-1",
		OriginalContent: &first, AuthorID: authorID, GUID: "g1", TagIDs: []int64{goTag, dbTag},
	})
	if err != nil {
		t.Fatal(err)
	}

	second := "second baseline"
	err = repo.UpdateStory(ctx, Story{
		ID: storyID, FeedID: feedID, Date: date, Title: "Edited again", Content: "delta-2",
		OriginalContent: &second, AuthorID: authorID, GUID: "g1", TagIDs: []int64{webTag},
	})
	if err != nil {
		t.Fatal(err)
	}

	snapshot, err := repo.GetSnapshot(ctx, feedID, date.Add(-time.Hour), date.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshot) != 1 {
		t.Fatalf("Expected 1 story in snapshot, got %d", len(snapshot))
	}

	story := snapshot[0]
	if story.OriginalContent == nil || *story.OriginalContent != first {
		t.Errorf("Expected original content %q to survive, got %v", first, story.OriginalContent)
	}
	if story.Content != "delta-2" {
		t.Errorf("Expected content 'delta-2', got '%s'", story.Content)
	}
	if story.Title != "Edited again" {
		t.Errorf("Expected title 'Edited again', got '%s'", story.Title)
	}

	if n := countRows(t, db, "SELECT COUNT(*) FROM story_tags WHERE story_id = ?", storyID); n != 1 {
		t.Errorf("Expected tag set to be replaced with 1 tag, got %d", n)
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM story_tags WHERE story_id = ? AND tag_id = ?", storyID, webTag); n != 1 {
		t.Error("Expected the replacement tag to be linked")
	}
}

func TestStoryRepositoryUpdateErrors(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewStoryRepository(db)

	feedID := newTestFeed(t, db, "tech")
	now := time.Now()
	newTestStory(t, db, feedID, "g1", now)
	secondID := newTestStory(t, db, feedID, "g2", now)

	authorID, err := NewAuthorRepository(db).GetOrCreateAuthor(ctx, feedID, "")
	if err != nil {
		t.Fatal(err)
	}

	err = repo.UpdateStory(ctx, Story{ID: secondID, FeedID: feedID, Date: now, Title: "x", AuthorID: authorID, GUID: "g1"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey when taking another story's guid, got %v", err)
	}

	err = repo.UpdateStory(ctx, Story{ID: 9999, FeedID: feedID, Date: now, Title: "x", AuthorID: authorID, GUID: "g9"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing story, got %v", err)
	}
}

func TestStoryRepositorySnapshotWindow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewStoryRepository(db)

	feedID := newTestFeed(t, db, "tech")
	otherFeed := newTestFeed(t, db, "other")
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	newTestStory(t, db, feedID, "old", base.Add(-48*time.Hour))
	newTestStory(t, db, feedID, "early", base.Add(-time.Hour))
	newTestStory(t, db, feedID, "late", base.Add(time.Hour))
	newTestStory(t, db, otherFeed, "foreign", base)

	snapshot, err := repo.GetSnapshot(ctx, feedID, base.Add(-8*time.Hour), base.Add(8*time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	if len(snapshot) != 2 {
		t.Fatalf("Expected 2 stories in window, got %d", len(snapshot))
	}
	if snapshot[0].GUID != "late" || snapshot[1].GUID != "early" {
		t.Errorf("Expected newest first, got %s then %s", snapshot[0].GUID, snapshot[1].GUID)
	}
	if snapshot[0].OriginalContent != nil {
		t.Error("Expected unedited story to have no original content")
	}
}

func TestStoryRepositoryTrimQueries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewStoryRepository(db)
	userStories := NewUserStoryRepository(db)

	feedID := newTestFeed(t, db, "tech")
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, newTestStory(t, db, feedID, string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour)))
	}

	beyond, err := repo.ListStoryIDsBeyond(ctx, feedID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(beyond) != 2 {
		t.Fatalf("Expected 2 stories beyond cap, got %d", len(beyond))
	}
	if beyond[0] != ids[1] || beyond[1] != ids[0] {
		t.Errorf("Expected the two oldest stories, got %v", beyond)
	}

	if err := userStories.MarkRead(ctx, "alice", ids[0]); err != nil {
		t.Fatal(err)
	}
	if err := userStories.MarkRead(ctx, "alice", ids[0]); err != nil {
		t.Fatalf("Expected marking read twice to succeed, got %v", err)
	}
	if err := userStories.MarkRead(ctx, "bob", ids[0]); err != nil {
		t.Fatal(err)
	}

	count, err := userStories.CountByStory(ctx, ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("Expected 2 read-state rows, got %d", count)
	}

	removed, err := userStories.DeleteByStory(ctx, ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 read-state rows removed, got %d", removed)
	}

	deleted, err := repo.DeleteStory(ctx, ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if !deleted {
		t.Error("Expected story to be deleted")
	}

	deleted, err = repo.DeleteStory(ctx, ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if deleted {
		t.Error("Expected second delete to report nothing removed")
	}

	err = userStories.MarkRead(ctx, "alice", ids[0])
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound when marking a deleted story, got %v", err)
	}

	stats, err := repo.GetStoryStats(ctx, feedID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 4 || stats.Edited != 0 {
		t.Errorf("Expected 4 total and 0 edited, got %+v", stats)
	}
}
