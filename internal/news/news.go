// Package news pulls market headlines from financial RSS feeds. The advisor
// folds recent headlines into follow-up answers so the model can ground
// market commentary in something current.
package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// Article is one headline with a stripped-down summary.
type Article struct {
	Title       string
	URL         string
	Source      string
	Summary     string
	PublishedAt time.Time
}

// Source is one configured RSS feed.
type Source struct {
	Name string
	URL  string
}

// DefaultSources lists the Chinese fund and market feeds queried when the
// config does not name its own.
var DefaultSources = []Source{
	{Name: "新浪财经基金", URL: "https://feed.mix.sina.com.cn/api/roll/get?pageid=372&lid=2527&format=rss"},
	{Name: "东方财富基金", URL: "https://fund.eastmoney.com/rss/news.xml"},
}

// Fetcher retrieves and merges headlines from the configured feeds.
type Fetcher struct {
	sources []Source
	parser  *gofeed.Parser
	log     zerolog.Logger
}

// New creates a Fetcher. Empty urls falls back to DefaultSources.
func New(urls []string, log zerolog.Logger) *Fetcher {
	sources := DefaultSources
	if len(urls) > 0 {
		sources = make([]Source, 0, len(urls))
		for _, u := range urls {
			sources = append(sources, Source{Name: hostOf(u), URL: u})
		}
	}
	return &Fetcher{
		sources: sources,
		parser:  gofeed.NewParser(),
		log:     log.With().Str("component", "news").Logger(),
	}
}

// MarketNews returns up to limit headlines across all feeds, newest first.
// A feed that fails is skipped; the result is only an error when every feed
// failed.
func (f *Fetcher) MarketNews(ctx context.Context, limit int) ([]Article, error) {
	var all []Article
	var lastErr error
	for _, src := range f.sources {
		articles, err := f.fetch(ctx, src)
		if err != nil {
			f.log.Debug().Err(err).Str("feed", src.Name).Msg("feed fetch failed")
			lastErr = err
			continue
		}
		all = append(all, articles...)
	}
	if len(all) == 0 && lastErr != nil {
		return nil, fmt.Errorf("all news feeds failed: %w", lastErr)
	}

	sortByDate(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *Fetcher) fetch(ctx context.Context, src Source) ([]Article, error) {
	feed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.Name, err)
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := Article{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
			Source:  src.Name,
			Summary: stripHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// stripHTML flattens feed descriptions that arrive as markup.
func stripHTML(s string) string {
	if s == "" || !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

func hostOf(url string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
	if i := strings.IndexByte(trimmed, '/'); i > 0 {
		return trimmed[:i]
	}
	return trimmed
}

// sortByDate orders newest first; insertion sort is fine at feed sizes.
func sortByDate(articles []Article) {
	for i := 1; i < len(articles); i++ {
		key := articles[i]
		j := i - 1
		for j >= 0 && articles[j].PublishedAt.Before(key.PublishedAt) {
			articles[j+1] = articles[j]
			j--
		}
		articles[j+1] = key
	}
}
