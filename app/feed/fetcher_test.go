package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFetcherHTTP(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	fetcher := NewFetcher("story-comb/test")
	data, err := fetcher.Run(context.Background(), server.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(data) != "<rss></rss>" {
		t.Errorf("Expected body '<rss></rss>', got: %s", data)
	}
	if userAgent != "story-comb/test" {
		t.Errorf("Expected User-Agent 'story-comb/test', got: %s", userAgent)
	}
}

func TestFetcherHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	_, err := NewFetcher("story-comb/test").Run(context.Background(), server.URL, 5*time.Second)
	if err == nil {
		t.Error("Expected error for non-200 response")
	}
}

func TestFetcherFileURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")
	if err := os.WriteFile(path, []byte("<feed/>"), 0644); err != nil {
		t.Fatal(err)
	}

	data, err := NewFetcher("story-comb/test").Run(context.Background(), "file://"+path, time.Second)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(data) != "<feed/>" {
		t.Errorf("Expected '<feed/>', got: %s", data)
	}

	if _, err := NewFetcher("story-comb/test").Run(context.Background(), "file:///does/not/exist.xml", time.Second); err == nil {
		t.Error("Expected error for missing file")
	}
}
