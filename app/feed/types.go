package feed

import (
	"time"
)

// Feed processing types

type Metadata struct {
	Title           string
	Link            string
	Description     string
	Language        string
	FeedPublishedAt *time.Time
}

// RawEntry is a parsed feed entry before normalization. Empty strings mean absent.
type RawEntry struct {
	ID        string
	Title     string
	Link      string
	Summary   string
	Contents  []ContentValue
	Author    string
	Published time.Time
	Tags      []RawTag
}

type ContentValue struct {
	Type  string
	Value string
}

type RawTag struct {
	Label string
	Term  string
}

// Entry is the canonical form of a RawEntry used for matching and writes.
type Entry struct {
	Title     string
	Content   string
	Author    string
	Link      string
	GUID      string
	Published time.Time
	Tags      []string
}

// Configuration types

type Config struct {
	Name     string         `validate:"required"` // Derived from filename (without .yml extension)
	URL      string         `yaml:"url" validate:"required,url"`
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval" validate:"gte=0"` // seconds
	Timeout         int  `yaml:"timeout" validate:"gte=0"`          // seconds
	MaxStories      int  `yaml:"max_stories" validate:"gte=0"`      // retention cap
}
