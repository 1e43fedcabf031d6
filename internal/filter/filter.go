// Package filter removes noise from stored records before classification.
package filter

import (
	"strings"

	"github.com/DeafMist/stock-sentiment/backend/internal/models"
)

// Filter drops consecutive duplicates for every source and, for the message
// board, blocklisted and poorly received posts.
type Filter struct {
	blocklist []string
}

// New returns a Filter with the given blocklisted substrings.
func New(blocklist []string) *Filter {
	terms := make([]string, 0, len(blocklist))
	for _, term := range blocklist {
		if term = strings.TrimSpace(term); term != "" {
			terms = append(terms, term)
		}
	}
	return &Filter{blocklist: terms}
}

// Apply returns the trimmed texts that survive, in record order. Blank texts
// never survive.
func (f *Filter) Apply(source models.Source, records []models.StoredRecord) []string {
	out := make([]string, 0, len(records))
	last := ""

	for _, rec := range records {
		text := strings.TrimSpace(rec.Text)
		if text == "" || text == last {
			continue
		}

		if source == models.SourceBoard {
			if f.blocked(text) || !Engaging(rec.Upvotes, rec.Downvotes) {
				continue
			}
		}

		out = append(out, text)
		last = text
	}
	return out
}

// Engaging reports whether a post has at least as much agreement as
// disagreement. Posts without downvotes always pass.
func Engaging(upvotes, downvotes int) bool {
	if downvotes <= 0 {
		return true
	}
	return float64(upvotes)/float64(downvotes+1) >= 1
}

func (f *Filter) blocked(text string) bool {
	for _, term := range f.blocklist {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
