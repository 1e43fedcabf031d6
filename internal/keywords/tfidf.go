// Package keywords ranks salient terms of a document set with TF-IDF.
package keywords

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/DeafMist/stock-sentiment/backend/internal/models"
	"github.com/DeafMist/stock-sentiment/backend/internal/processing"
)

// MaxFeatures caps the vocabulary to the most frequent terms of a corpus.
const MaxFeatures = 500

//go:embed stopwords.txt
var defaultStopwords []byte

// DefaultStopwords returns the built-in stopword list.
func DefaultStopwords() []string {
	words, _ := readStopwords(defaultStopwords)
	return words
}

// LoadStopwords reads one stopword per line. An empty path yields the defaults.
func LoadStopwords(path string) ([]string, error) {
	if path == "" {
		return DefaultStopwords(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stopwords: %w", err)
	}
	return readStopwords(data)
}

func readStopwords(data []byte) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if w := strings.ToLower(strings.TrimSpace(sc.Text())); w != "" {
			words = append(words, w)
		}
	}
	return words, sc.Err()
}

// Extractor selects keywords from a set of documents.
type Extractor struct {
	stopwords   map[string]struct{}
	maxFeatures int
}

// New builds an Extractor that never returns one of stopwords.
func New(stopwords []string) *Extractor {
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &Extractor{stopwords: set, maxFeatures: MaxFeatures}
}

type term struct {
	word  string
	first int
	count int
	df    int
	score float64
}

// Extract returns at most topN terms, most salient first, skipping every term
// listed in exclude. Each string of docs is one document. A term's salience is
// the sum over documents of its L2-normalized tf·ln(N/df) weight, so a term
// present in every document scores zero. Ties go to the more frequent term,
// then to the one seen first.
func (e *Extractor) Extract(docs []string, topN int, exclude ...[]string) []string {
	out := []string{}
	if len(docs) == 0 || topN <= 0 {
		return out
	}

	tokenized := make([][]string, len(docs))
	terms := make(map[string]*term)
	var order []*term
	pos := 0

	for i, doc := range docs {
		seenInDoc := make(map[string]struct{})
		for _, tok := range processing.Tokenize(doc) {
			if _, stop := e.stopwords[tok]; stop {
				continue
			}
			tokenized[i] = append(tokenized[i], tok)

			t, ok := terms[tok]
			if !ok {
				t = &term{word: tok, first: pos}
				terms[tok] = t
				order = append(order, t)
			}
			pos++
			t.count++
			if _, dup := seenInDoc[tok]; !dup {
				seenInDoc[tok] = struct{}{}
				t.df++
			}
		}
	}

	vocab := e.limitVocabulary(order)
	if len(vocab) == 0 {
		return out
	}
	inVocab := make(map[string]*term, len(vocab))
	for _, t := range vocab {
		inVocab[t.word] = t
	}

	n := float64(len(docs))
	for _, toks := range tokenized {
		tf := make(map[string]int)
		for _, tok := range toks {
			if _, ok := inVocab[tok]; ok {
				tf[tok]++
			}
		}

		weights := make(map[string]float64, len(tf))
		var norm float64
		for word, count := range tf {
			w := float64(count) * math.Log(n/float64(inVocab[word].df))
			weights[word] = w
			norm += w * w
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for word, w := range weights {
			inVocab[word].score += w / norm
		}
	}

	sort.SliceStable(vocab, func(i, j int) bool {
		a, b := vocab[i], vocab[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.count != b.count {
			return a.count > b.count
		}
		return a.first < b.first
	})

	skip := make(map[string]struct{})
	for _, list := range exclude {
		for _, w := range list {
			skip[w] = struct{}{}
		}
	}

	for _, t := range vocab {
		if len(out) == topN {
			break
		}
		if _, ok := skip[t.word]; ok {
			continue
		}
		out = append(out, t.word)
	}
	return out
}

// ExtractFor runs Extract over the sentences of one class only.
func (e *Extractor) ExtractFor(pairs []models.ClassifiedPair, sentiment models.Sentiment, topN int, exclude ...[]string) []string {
	docs := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.Sentiment == sentiment {
			docs = append(docs, p.Text)
		}
	}
	return e.Extract(docs, topN, exclude...)
}

// Texts returns the sentence texts of pairs.
func Texts(pairs []models.ClassifiedPair) []string {
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.Text)
	}
	return out
}

// limitVocabulary keeps the maxFeatures most frequent terms in first-seen order.
func (e *Extractor) limitVocabulary(order []*term) []*term {
	vocab := append([]*term(nil), order...)
	if e.maxFeatures <= 0 || len(vocab) <= e.maxFeatures {
		return vocab
	}
	sort.SliceStable(vocab, func(i, j int) bool { return vocab[i].count > vocab[j].count })
	vocab = vocab[:e.maxFeatures]
	sort.Slice(vocab, func(i, j int) bool { return vocab[i].first < vocab[j].first })
	return vocab
}
