package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/DeafMist/stock-sentiment/backend/internal/models"
)

// ErrNotFound is returned when the forum has no discussion page for an instrument.
var ErrNotFound = errors.New("discussion page not found")

// Forum reads the third-party discussion forum. The discussion URL of an
// instrument is discovered through the site search and remembered.
type Forum struct {
	client  *Client
	baseURL string

	mu    sync.Mutex
	pages map[string]string
}

// NewForum returns a forum fetcher rooted at baseURL.
func NewForum(client *Client, baseURL string) *Forum {
	return &Forum{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		pages:   make(map[string]string),
	}
}

// FetchPage returns the comments of one discussion page.
func (f *Forum) FetchPage(ctx context.Context, instrument string, page int) ([]models.RawItem, error) {
	discussion, err := f.discussionURL(ctx, instrument)
	if err != nil {
		return nil, err
	}

	pageURL := fmt.Sprintf("%s/%d", discussion, page)
	doc, err := f.client.Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	comments := doc.Find("div.break-words.leading-5")
	dates := doc.Find("time")
	count := min(comments.Length(), dates.Length())

	items := make([]models.RawItem, 0, count)
	for i := 0; i < count; i++ {
		raw, _ := dates.Eq(i).Attr("datetime")
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("parse forum date: %w", err)
		}
		items = append(items, models.RawItem{
			InstrumentID: instrument,
			Source:       models.SourceForum,
			Text:         strings.TrimSpace(comments.Eq(i).Text()),
			Timestamp:    ts,
			Link:         pageURL,
		})
	}
	return items, nil
}

func (f *Forum) discussionURL(ctx context.Context, instrument string) (string, error) {
	f.mu.Lock()
	cached, ok := f.pages[instrument]
	f.mu.Unlock()
	if ok {
		return cached, nil
	}

	doc, err := f.client.Document(ctx, f.baseURL+"/search/?q="+url.QueryEscape(instrument))
	if err != nil {
		return "", fmt.Errorf("search %s: %w", instrument, err)
	}

	var href string
	doc.Find("a.js-inner-all-results-quote-item").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ = s.Attr("href")
		return href == ""
	})
	if href == "" {
		return "", fmt.Errorf("%s: %w", instrument, ErrNotFound)
	}

	discussion := f.baseURL + href + "-commentary"
	f.mu.Lock()
	f.pages[instrument] = discussion
	f.mu.Unlock()
	return discussion, nil
}
