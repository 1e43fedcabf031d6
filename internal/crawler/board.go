package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/DeafMist/stock-sentiment/backend/internal/models"
)

const naverLayout = "2006.01.02 15:04"

// Board reads the retail-investor message board.
type Board struct {
	client  *Client
	baseURL string
}

// NewBoard returns a board fetcher rooted at baseURL.
func NewBoard(client *Client, baseURL string) *Board {
	return &Board{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// FetchPage returns the posts of one board page.
func (b *Board) FetchPage(ctx context.Context, instrument string, page int) ([]models.RawItem, error) {
	pageURL := fmt.Sprintf("%s/item/board.naver?code=%s&page=%d", b.baseURL, url.QueryEscape(instrument), page)
	doc, err := b.client.Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	table := doc.Find("table.type2").First()
	if table.Length() == 0 {
		return nil, nil
	}

	var (
		items    []models.RawItem
		parseErr error
	)
	table.Find("tbody > tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		span := row.Find("td > span").First()
		anchor := row.Find("td.title > a").First()
		if span.Length() == 0 || anchor.Length() == 0 {
			return true
		}

		ts, err := time.ParseInLocation(naverLayout, strings.TrimSpace(span.Text()), kst)
		if err != nil {
			parseErr = fmt.Errorf("parse board date: %w", err)
			return false
		}

		votes := row.Find("td > strong")
		text, _ := anchor.Attr("title")
		items = append(items, models.RawItem{
			InstrumentID: instrument,
			Source:       models.SourceBoard,
			Text:         strings.TrimSpace(text),
			Timestamp:    ts,
			Upvotes:      atoi(votes.Eq(0).Text()),
			Downvotes:    atoi(votes.Eq(1).Text()),
			Link:         pageURL,
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return items, nil
}

func atoi(raw string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
	if err != nil {
		return 0
	}
	return n
}
