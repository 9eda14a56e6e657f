// Package features builds the fixed-dimension numeric vectors the online
// learner trains and predicts on. The vector layout is a stable contract:
// persisted snapshots and stored training samples depend on every index
// keeping its meaning, so features are only ever appended, never reordered.
package features

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/cypherlabs/guardian/pkg/classify"
	"github.com/cypherlabs/guardian/pkg/patterns"
)

// Dim is the feature vector dimension: 3 intent-layer confidences plus 16
// engineered text features.
const Dim = 19

// These lists are part of the feature contract and deliberately independent
// of the configurable keyword families: retraining must not be invalidated
// by an operator editing keyword_families.yaml.
var (
	urgencyKeywords    = []string{"urgent", "immediately", "now", "asap", "quickly", "deadline"}
	financialKeywords  = []string{"bank", "account", "payment", "money", "transfer", "credit"}
	credentialKeywords = []string{"password", "login", "verify", "confirm", "credentials"}

	shortenerMarkers = []string{"bit.ly", "tinyurl", "goo.gl", "t.co"}
)

// FeatureSet is one extracted vector plus the static-classifier metadata the
// online model falls back on.
type FeatureSet struct {
	Vector []float64 `json:"vector"`

	StaticIntent     string  `json:"static_intent"`
	StaticConfidence float64 `json:"static_confidence"`

	ExtractionMs float64 `json:"extraction_ms"`
}

// Extractor derives feature vectors from text using the hybrid intent
// classifier's per-layer confidences as its leading components.
type Extractor struct {
	intent *classify.IntentClassifier
}

// NewExtractor creates an extractor over the given intent classifier.
func NewExtractor(intent *classify.IntentClassifier) *Extractor {
	return &Extractor{intent: intent}
}

// Extract builds the feature vector for text. Empty text produces a zero
// vector with the safe static label; the dimension is always Dim.
func (e *Extractor) Extract(ctx context.Context, text string) FeatureSet {
	start := time.Now()

	if strings.TrimSpace(text) == "" {
		return FeatureSet{
			Vector:       make([]float64, Dim),
			StaticIntent: classify.IntentSafe,
			ExtractionMs: float64(time.Since(start).Microseconds()) / 1000,
		}
	}

	intentResult := e.intent.Predict(ctx, text)

	textLower := strings.ToLower(text)
	textLen := float64(len(text))
	words := strings.Fields(text)
	wordCount := float64(len(words))

	urls := patterns.URLPattern.FindAllString(text, -1)
	urlCount := float64(len(urls))
	hasURL := boolFeature(urlCount > 0)

	hasShortener := 0.0
	for _, s := range shortenerMarkers {
		if strings.Contains(textLower, s) {
			hasShortener = 1.0
			break
		}
	}

	punctCount := 0.0
	exclCount := 0.0
	questCount := 0.0
	upperCount := 0.0
	for _, r := range text {
		switch r {
		case '!':
			punctCount++
			exclCount++
		case '?':
			punctCount++
			questCount++
		case '.', ',', ';', ':':
			punctCount++
		}
		if unicode.IsUpper(r) {
			upperCount++
		}
	}

	entropy := classify.ShannonEntropy(text)

	avgWordLen := 0.0
	if wordCount > 0 {
		totalLen := 0
		for _, w := range words {
			totalLen += len(w)
		}
		avgWordLen = float64(totalLen) / wordCount
	}

	sentences := classify.SplitSentences(text)
	avgSentenceLen := 0.0
	if len(sentences) > 0 {
		avgSentenceLen = wordCount / float64(len(sentences))
	}

	vector := []float64{
		// Intent layer confidences (3)
		intentResult.MLConfidence,
		intentResult.SemanticConfidence,
		intentResult.RuleConfidence,

		// URL features (4)
		urlCount,
		hasURL,
		hasShortener,
		safeDiv(urlCount, wordCount),

		// Case (1), over all characters rather than letters only
		safeDiv(upperCount, textLen),

		// Punctuation (3)
		safeDiv(punctCount, textLen),
		safeDiv(exclCount, textLen),
		safeDiv(questCount, textLen),

		// Entropy (1), normalized to ~[0,1]
		entropy / 5.0,

		// Keyword family scores (3)
		keywordScore(textLower, urgencyKeywords),
		keywordScore(textLower, financialKeywords),
		keywordScore(textLower, credentialKeywords),

		// Word shape (2), normalized
		avgWordLen / 10.0,
		avgSentenceLen / 25.0,

		// Length (2), capped
		capAt1(textLen / 500.0),
		capAt1(wordCount / 100.0),
	}

	return FeatureSet{
		Vector:           vector,
		StaticIntent:     intentResult.Intent,
		StaticConfidence: intentResult.Confidence,
		ExtractionMs:     float64(time.Since(start).Microseconds()) / 1000,
	}
}

// keywordScore is the fraction of the family's keywords present in the text.
func keywordScore(textLower string, keywords []string) float64 {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(textLower, kw) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func capAt1(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}

func boolFeature(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
