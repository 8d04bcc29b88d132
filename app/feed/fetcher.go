package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

type Fetcher struct {
	client *resty.Client
}

func NewFetcher(userAgent string) *Fetcher {
	return &Fetcher{
		client: resty.New().
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"),
	}
}

// Run returns the raw feed document at feedURL. file:// URLs are read from disk.
func (f *Fetcher) Run(ctx context.Context, feedURL string, timeout time.Duration) ([]byte, error) {
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed URL: %w", err)
	}

	if parsed.Scheme == "file" {
		data, err := os.ReadFile(parsed.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read feed file: %w", err)
		}
		return data, nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := f.client.R().
		SetContext(timeoutCtx).
		Get(feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body from %s", feedURL)
	}

	return body, nil
}
