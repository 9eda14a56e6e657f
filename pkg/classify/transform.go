// Package classify implements the five signal classifiers whose outputs feed
// the ensemble fusion engine: AI-generation, intent, stylometry, URL risk,
// and keyword risk. Each classifier is independently constructed and
// independently failable; none may panic on arbitrary input.
package classify

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/cypherlabs/guardian/pkg/patterns"
)

// NormalizeText applies NFKC normalization so homoglyph and fullwidth
// variants collapse to their canonical forms before any classifier sees the
// text. Returns the normalized text and whether it differed from the input.
func NormalizeText(text string) (string, bool) {
	normalized := norm.NFKC.String(text)
	return normalized, normalized != text
}

// ShannonEntropy returns the character-level Shannon entropy of the text in
// bits per character. Typical English prose sits around 3.5-4.5.
func ShannonEntropy(text string) float64 {
	if len(text) == 0 {
		return 0
	}
	counts := make(map[rune]float64)
	total := 0.0
	for _, r := range text {
		counts[r]++
		total++
	}

	entropy := 0.0
	for _, count := range counts {
		p := count / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// SplitSentences splits text on terminal punctuation and drops empty chunks.
func SplitSentences(text string) []string {
	parts := patterns.SentenceSplitPattern.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// UppercaseLetterRatio returns uppercase letters over total letters.
// Returns 0 when the text has no letters.
func UppercaseLetterRatio(text string) float64 {
	letters, upper := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}
