package feed

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
	now          func() time.Time
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
		now:          time.Now,
	}
}

func (p *Parser) Run(data []byte) (*Metadata, []RawEntry, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       feed.Title,
		Link:        feed.Link,
		Description: feed.Description,
		Language:    feed.Language,
	}

	if feed.PublishedParsed != nil {
		metadata.FeedPublishedAt = feed.PublishedParsed
	}

	fetchedAt := p.now().UTC()
	entries := make([]RawEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, p.toRawEntry(item, fetchedAt))
	}

	return metadata, entries, nil
}

func (p *Parser) toRawEntry(item *gofeed.Item, fetchedAt time.Time) RawEntry {
	entry := RawEntry{
		ID:      strings.TrimSpace(item.GUID),
		Title:   strings.TrimSpace(item.Title),
		Link:    strings.TrimSpace(item.Link),
		Summary: item.Description,
		Author:  p.extractAuthor(item),
	}

	if item.Content != "" {
		entry.Contents = []ContentValue{{Type: "text/html", Value: item.Content}}
	}

	// Entries without any usable timestamp are dated at fetch time.
	switch {
	case item.PublishedParsed != nil:
		entry.Published = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		entry.Published = item.UpdatedParsed.UTC()
	default:
		entry.Published = fetchedAt
	}

	for _, category := range item.Categories {
		entry.Tags = append(entry.Tags, RawTag{Term: category})
	}

	return entry
}

func (p *Parser) extractAuthor(item *gofeed.Item) string {
	authors := item.Authors
	if len(authors) == 0 && item.Author != nil {
		authors = []*gofeed.Person{item.Author}
	}

	for _, author := range authors {
		if author == nil {
			continue
		}
		if name := strings.TrimSpace(author.Name); name != "" {
			return name
		}
		if email := strings.TrimSpace(author.Email); email != "" {
			return email
		}
	}

	return ""
}
