package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Test Feed</title>
<item>
  <title>基金市场早报</title>
  <link>https://example.com/a</link>
  <description>&lt;p&gt;债券基金持续&lt;b&gt;走强&lt;/b&gt;&lt;/p&gt;</description>
  <pubDate>Mon, 31 Aug 2026 08:00:00 +0800</pubDate>
</item>
<item>
  <title>午间快讯</title>
  <link>https://example.com/b</link>
  <description>plain text summary</description>
  <pubDate>Mon, 31 Aug 2026 12:00:00 +0800</pubDate>
</item>
</channel></rss>`

func TestMarketNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	f := New([]string{srv.URL + "/rss"}, zerolog.Nop())
	articles, err := f.MarketNews(context.Background(), 0)
	if err != nil {
		t.Fatalf("MarketNews: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	// Newest first.
	if articles[0].Title != "午间快讯" {
		t.Errorf("first article = %q, want newest", articles[0].Title)
	}
	if articles[0].PublishedAt.Before(articles[1].PublishedAt) {
		t.Error("articles not newest-first")
	}

	// HTML stripped from summaries.
	if articles[1].Summary != "债券基金持续走强" {
		t.Errorf("summary = %q, want tags stripped", articles[1].Summary)
	}
}

func TestMarketNewsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	f := New([]string{srv.URL}, zerolog.Nop())
	articles, err := f.MarketNews(context.Background(), 1)
	if err != nil {
		t.Fatalf("MarketNews: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("expected limit of 1, got %d", len(articles))
	}
}

func TestFailedFeedSkipped(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedXML))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer bad.Close()

	f := New([]string{bad.URL, good.URL}, zerolog.Nop())
	articles, err := f.MarketNews(context.Background(), 0)
	if err != nil {
		t.Fatalf("MarketNews with one bad feed: %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("expected articles from the healthy feed, got %d", len(articles))
	}
}

func TestAllFeedsFailed(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer bad.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f := New([]string{bad.URL}, zerolog.Nop())
	if _, err := f.MarketNews(ctx, 0); err == nil {
		t.Error("expected error when every feed fails")
	}
}
