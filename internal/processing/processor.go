package processing

import (
	"crypto/sha1"
	"encoding/hex"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var urlRegex = regexp.MustCompile(`https?://[^\s]+`)

var (
	whitespace  = regexp.MustCompile(`\s+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// RemoveURLs removes all URLs from the input text.
func RemoveURLs(input string) string {
	return urlRegex.ReplaceAllString(input, " ")
}

// CleanText strips HTML entities, punctuation, squeezes whitespace, and removes URLs.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	decoded := html.UnescapeString(input)
	decoded = RemoveURLs(decoded)
	decoded = punctuation.ReplaceAllString(decoded, " ")
	decoded = whitespace.ReplaceAllString(decoded, " ")
	return strings.TrimSpace(decoded)
}

// Tokenize lowercases the cleaned text and returns every word of at least two runes.
func Tokenize(input string) []string {
	fields := strings.Fields(strings.ToLower(CleanText(input)))
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

// StripBracketed removes every [...] aside. An opening bracket without a
// closer cuts the text at that bracket.
func StripBracketed(input string) string {
	for {
		start := strings.IndexByte(input, '[')
		if start < 0 {
			return input
		}
		end := strings.IndexByte(input[start+1:], ']')
		if end < 0 {
			return input[:start]
		}
		input = input[:start] + input[start+1+end+1:]
	}
}

// EnsureTerminator appends a period unless the text already ends a sentence.
func EnsureTerminator(input string) string {
	if strings.HasSuffix(input, ".") || strings.HasSuffix(input, "!") || strings.HasSuffix(input, "?") {
		return input
	}
	return input + "."
}

// BuildRecordID hashes the identity of a stored record. Text is the dedup key,
// so the same text under the same instrument and source always maps to one ID.
func BuildRecordID(instrument, source, text string) string {
	s := sha1.Sum([]byte(instrument + "|" + source + "|" + text))
	return hex.EncodeToString(s[:])
}
