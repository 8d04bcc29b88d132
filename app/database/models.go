package database

import (
	"time"
)

type Feed struct {
	ID            int64
	Name          string // Configuration feed identifier derived from filename
	FeedURL       string
	Title         string
	Link          string
	LastFetchedAt *time.Time
	NextFetchAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Story is a write request for a stories row. ID is zero for inserts.
type Story struct {
	ID              int64
	FeedID          int64
	Date            time.Time
	Title           string
	Content         string
	OriginalContent *string
	AuthorID        int64
	Permalink       string
	GUID            string
	TagIDs          []int64
}

// StoryRef is the snapshot view of a stored story used for matching.
type StoryRef struct {
	ID              int64
	GUID            string
	Permalink       string
	Title           string
	Content         string
	OriginalContent *string // nil until the first edit is recorded
	Date            time.Time
}

type StoryStats struct {
	Total  int
	Edited int
}
