package classify

import (
	"math"
	"strings"

	"github.com/cypherlabs/guardian/pkg/patterns"
)

// StyleResult is the stylometry classifier's output. StyleScore is
// human-likeness in [0,1]; the ensemble inverts it into a risk contribution.
type StyleResult struct {
	Style          string  `json:"style"` // "formal" or "informal"
	Confidence     float64 `json:"confidence"`
	StyleScore     float64 `json:"style_score"`
	AvgTokenLen    float64 `json:"avg_token_len"`
	AvgSentenceLen float64 `json:"avg_sentence_len"`
}

// StylometryClassifier measures writing-style patterns that correlate with
// human or machine-generated content: token-length distribution, sentence
// shape, character entropy, punctuation density, and token repetition.
type StylometryClassifier struct{}

// NewStylometryClassifier creates a stylometry classifier.
func NewStylometryClassifier() *StylometryClassifier {
	return &StylometryClassifier{}
}

// Predict returns a human-likeness score. Empty or token-free text gets the
// neutral 0.5 so a missing signal never biases the ensemble.
func (s *StylometryClassifier) Predict(text string) StyleResult {
	neutral := StyleResult{Style: "informal", Confidence: 0.5, StyleScore: 0.5}
	if text == "" {
		return neutral
	}

	tokens := strings.Fields(text)
	numTokens := len(tokens)
	if numTokens == 0 {
		return neutral
	}

	// Token length statistics
	totalLen := 0
	for _, t := range tokens {
		totalLen += len(t)
	}
	avgTokenLen := float64(totalLen) / float64(numTokens)

	variance := 0.0
	for _, t := range tokens {
		d := float64(len(t)) - avgTokenLen
		variance += d * d
	}
	variance /= float64(numTokens)
	tokenVariance := math.Min(1.0, math.Sqrt(variance)/10)

	// Sentence shape
	sentences := SplitSentences(text)
	numSentences := len(sentences)
	if numSentences == 0 {
		numSentences = 1
	}
	avgSentenceLen := float64(numTokens) / float64(numSentences)

	// Entropy and punctuation
	charEntropy := ShannonEntropy(text)
	punctCount := len(patterns.PunctuationPattern.FindAllString(text, -1))
	punctRatio := float64(punctCount) / math.Max(1, float64(len(text)))

	// Consecutive token repetition (machine tell when high)
	repetitions := 0
	for i := 0; i < numTokens-1; i++ {
		if strings.EqualFold(tokens[i], tokens[i+1]) {
			repetitions++
		}
	}
	repetitionRatio := float64(repetitions) / math.Max(1, float64(numTokens-1))

	tokenLenScore := math.Min(1.0, avgTokenLen/8)        // typical avg token 4-8 chars
	sentenceLenScore := math.Min(1.0, avgSentenceLen/25) // typical 15-25 words/sentence
	entropyScore := math.Min(1.0, charEntropy/5)
	punctuationScore := math.Min(1.0, punctRatio*10)
	repetitionScore := math.Max(0.0, 1.0-repetitionRatio*5)

	// Entropy and repetition carry the strongest signal
	styleScore := tokenLenScore*0.15 +
		tokenVariance*0.15 +
		sentenceLenScore*0.15 +
		entropyScore*0.25 +
		punctuationScore*0.15 +
		repetitionScore*0.15
	styleScore = math.Min(1.0, math.Max(0.0, styleScore))

	style, confidence := s.classifyRegister(text, avgTokenLen, avgSentenceLen)

	return StyleResult{
		Style:          style,
		Confidence:     confidence,
		StyleScore:     styleScore,
		AvgTokenLen:    avgTokenLen,
		AvgSentenceLen: avgSentenceLen,
	}
}

// classifyRegister decides formal vs informal from marker patterns,
// contractions, capitalization, and length statistics.
func (s *StylometryClassifier) classifyRegister(text string, avgTokenLen, avgSentenceLen float64) (string, float64) {
	formal, informal := 0.0, 0.0

	for _, p := range patterns.InformalMarkers {
		if p.MatchString(text) {
			informal++
		}
	}
	for _, p := range patterns.FormalMarkers {
		if p.MatchString(text) {
			formal++
		}
	}

	trimmed := strings.TrimSpace(text)
	if trimmed != "" {
		first := rune(trimmed[0])
		if first >= 'A' && first <= 'Z' &&
			(strings.HasSuffix(trimmed, ".") || strings.HasSuffix(trimmed, "!") || strings.HasSuffix(trimmed, "?")) {
			formal += 0.5
		}
	}

	// Sustained shouting is an informal (and spammy) tell
	if UppercaseLetterRatio(text) > 0.3 {
		informal++
	}

	contractions := []string{"n't", "'s", "'re", "'ve", "'ll", "'d", "'m"}
	contractionCount := 0
	lower := strings.ToLower(text)
	for _, c := range contractions {
		if strings.Contains(lower, c) {
			contractionCount++
		}
	}
	if contractionCount > 2 {
		informal++
	}

	if avgSentenceLen > 20 {
		formal++
	} else if avgSentenceLen < 10 {
		informal++
	}
	if avgTokenLen > 5.5 {
		formal++
	} else if avgTokenLen < 4 {
		informal++
	}

	switch {
	case informal > formal+1:
		return "informal", math.Min(0.95, 0.6+informal*0.1)
	case formal > informal+1:
		return "formal", math.Min(0.95, 0.6+formal*0.1)
	case avgSentenceLen > 15 || avgTokenLen > 5:
		return "formal", 0.55
	default:
		return "informal", 0.55
	}
}
