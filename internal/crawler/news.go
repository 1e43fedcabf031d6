package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/DeafMist/stock-sentiment/backend/internal/models"
)

// News reads the per-instrument headline list.
type News struct {
	client  *Client
	baseURL string
}

// NewNews returns a news fetcher rooted at baseURL.
func NewNews(client *Client, baseURL string) *News {
	return &News{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// FetchPage returns the headlines of one list page.
func (n *News) FetchPage(ctx context.Context, instrument string, page int) ([]models.RawItem, error) {
	pageURL := fmt.Sprintf("%s/item/news_news.nhn?code=%s&page=%d", n.baseURL, url.QueryEscape(instrument), page)
	doc, err := n.client.Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	titles := doc.Find(".title")
	dates := doc.Find(".date")
	count := min(titles.Length(), dates.Length())

	items := make([]models.RawItem, 0, count)
	for i := 0; i < count; i++ {
		title := titles.Eq(i)
		ts, err := time.ParseInLocation(naverLayout, strings.TrimSpace(dates.Eq(i).Text()), kst)
		if err != nil {
			return nil, fmt.Errorf("parse news date: %w", err)
		}

		link := ""
		if href, ok := title.Find("a").Attr("href"); ok {
			link = n.baseURL + href
		}

		items = append(items, models.RawItem{
			InstrumentID: instrument,
			Source:       models.SourceNews,
			Text:         strings.TrimSpace(title.Text()),
			Timestamp:    ts,
			Link:         link,
		})
	}
	return items, nil
}
