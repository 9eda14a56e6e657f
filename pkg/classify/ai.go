package classify

import (
	"context"
	"log"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/cypherlabs/guardian/pkg/config"
)

// AIResult is the AI-generation detector's output.
type AIResult struct {
	AIGenerated     bool    `json:"ai_generated"`
	AIConfidence    float64 `json:"ai_confidence"`
	HumanConfidence float64 `json:"human_confidence"`
	InferenceStatus string  `json:"inference_status"` // "onnx" or "heuristic"
}

// AIDetector predicts whether text is machine-generated. Two strategies, in
// fixed precedence resolved once at construction:
//  1. Transformer classifier via Hugot/ONNX (when a model directory exists)
//  2. Lexical heuristics (AI phrase markers, sentence uniformity, pronoun
//     density, vocabulary diversity)
//
// The active strategy is logged at startup and never re-checked per call.
type AIDetector struct {
	model     *TextModel
	strategy  config.MLStrategy
	threshold float64
}

var (
	aiPhraseMarkers = []*regexp.Regexp{
		regexp.MustCompile(`(?i)it is important to note`),
		regexp.MustCompile(`(?i)it is worth noting`),
		regexp.MustCompile(`(?i)in conclusion`),
		regexp.MustCompile(`(?i)in summary`),
		regexp.MustCompile(`(?i)\bfurthermore\b`),
		regexp.MustCompile(`(?i)\bmoreover\b`),
		regexp.MustCompile(`(?i)\bnevertheless\b`),
		regexp.MustCompile(`(?i)\btherefore\b`),
		regexp.MustCompile(`(?i)\baforementioned\b`),
		regexp.MustCompile(`(?i)\butilize\b`),
		regexp.MustCompile(`(?i)\bfacilitate\b`),
		regexp.MustCompile(`(?i)\bdemonstrate\b`),
		regexp.MustCompile(`(?i)\bcomprehensive\b`),
		regexp.MustCompile(`(?i)it should be noted`),
		regexp.MustCompile(`(?i)these findings`),
		regexp.MustCompile(`(?i)the data suggests`),
	}

	humanExpressionMarkers = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\blol\b`),
		regexp.MustCompile(`(?i)\bomg\b`),
		regexp.MustCompile(`(?i)\bwtf\b`),
		regexp.MustCompile(`(?i)\blmao\b`),
		regexp.MustCompile(`(?i)\byeah\b`),
		regexp.MustCompile(`(?i)\bnah\b`),
		regexp.MustCompile(`(?i)\bkinda\b`),
		regexp.MustCompile(`(?i)\bgonna\b`),
		regexp.MustCompile(`(?i)\bwanna\b`),
		regexp.MustCompile(`(?i)\bdude\b`),
		regexp.MustCompile(`(?i)\bi mean\b`),
		regexp.MustCompile(`(?i)\bbasically\b`),
		regexp.MustCompile(`(?i)\btotally\b`),
	}

	orderedTransitions = regexp.MustCompile(`(?i)\b(firstly|secondly|thirdly|finally|lastly)\b`)
	typoMarkers        = regexp.MustCompile(`\b(teh|hte|adn|taht|waht)\b`)
)

// NewAIDetector builds a detector. modelPath may be empty, in which case the
// heuristic strategy is used.
func NewAIDetector(modelPath string, threshold float64) *AIDetector {
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}
	d := &AIDetector{threshold: threshold}

	if modelPath != "" {
		d.model = NewTextModelWithFallback(TextModelConfig{
			ModelPath: modelPath,
			Name:      "ai-generation-detector",
			Timeout:   10 * time.Second,
		})
	}
	if d.model.IsReady() {
		d.strategy = config.StrategyONNX
		log.Printf("[AI-DETECT] Strategy: %s (%s)", d.strategy, modelPath)
	} else {
		d.strategy = config.StrategyHeuristic
		log.Printf("[AI-DETECT] Strategy: %s", d.strategy)
	}
	return d
}

// Strategy reports the backend resolved at construction.
func (d *AIDetector) Strategy() config.MLStrategy {
	return d.strategy
}

// Predict returns AI-generation confidence for the text. Never returns an
// error for unusual input; empty text yields a low-confidence human verdict.
func (d *AIDetector) Predict(ctx context.Context, text string) AIResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return AIResult{AIConfidence: 0.0, HumanConfidence: 1.0, InferenceStatus: string(config.StrategyHeuristic)}
	}

	if d.model.IsReady() {
		if pred, err := d.model.Classify(ctx, text); err == nil {
			return d.fromModelPrediction(pred)
		}
		// Inference failure falls through to heuristics for this call only
	}
	return d.heuristic(text)
}

// fromModelPrediction maps the classification head's label conventions
// ("AI"/"Fake"/"LABEL_1" vs "Human"/"Real"/"LABEL_0") to an AIResult.
func (d *AIDetector) fromModelPrediction(pred ModelPrediction) AIResult {
	aiConf := pred.Score
	switch strings.ToLower(pred.Label) {
	case "human", "real", "label_0":
		aiConf = 1.0 - pred.Score
	}
	return AIResult{
		AIGenerated:     aiConf >= d.threshold,
		AIConfidence:    aiConf,
		HumanConfidence: 1.0 - aiConf,
		InferenceStatus: string(config.StrategyONNX),
	}
}

// heuristic scores machine-likeness from lexical evidence alone.
func (d *AIDetector) heuristic(text string) AIResult {
	aiScore, humanScore := 0.0, 0.0
	textLower := strings.ToLower(text)

	// Formal AI phrase markers (strong signal)
	aiPhrases := 0
	for _, p := range aiPhraseMarkers {
		if p.MatchString(textLower) {
			aiPhrases++
		}
	}
	if aiPhrases >= 2 {
		aiScore += 0.4
	} else if aiPhrases == 1 {
		aiScore += 0.2
	}

	// Informal human expressions (strong signal)
	humanExprs := 0
	for _, p := range humanExpressionMarkers {
		if p.MatchString(textLower) {
			humanExprs++
		}
	}
	if humanExprs >= 2 {
		humanScore += 0.5
	} else if humanExprs == 1 {
		humanScore += 0.25
	}

	// Sentence-length variance: uniform sentences read as generated
	sentences := SplitSentences(text)
	if len(sentences) >= 2 {
		lengths := make([]float64, len(sentences))
		sum := 0.0
		for i, s := range sentences {
			lengths[i] = float64(len(strings.Fields(s)))
			sum += lengths[i]
		}
		mean := sum / float64(len(lengths))
		variance := 0.0
		for _, l := range lengths {
			variance += (l - mean) * (l - mean)
		}
		variance /= float64(len(lengths))
		if variance > 50 {
			humanScore += 0.2
		} else if variance < 10 {
			aiScore += 0.2
		}
	}

	// Personal pronoun density
	words := strings.Fields(textLower)
	pronouns := map[string]bool{"i": true, "me": true, "my": true, "mine": true, "we": true, "us": true, "our": true}
	pronounCount := 0
	for _, w := range words {
		if pronouns[w] {
			pronounCount++
		}
	}
	if len(words) > 0 && float64(pronounCount)/float64(len(words)) > 0.05 {
		humanScore += 0.15
	}

	// Vocabulary diversity: very high type/token ratio reads as generated
	if len(words) >= 20 {
		unique := make(map[string]bool, len(words))
		for _, w := range words {
			unique[w] = true
		}
		ratio := float64(len(unique)) / float64(len(words))
		if ratio > 0.75 {
			aiScore += 0.2
		} else if ratio < 0.5 {
			humanScore += 0.15
		}
	}

	if orderedTransitions.MatchString(textLower) {
		aiScore += 0.15
	}
	if strings.Count(text, "?")+strings.Count(text, "!") >= 2 {
		humanScore += 0.15
	}
	if typoMarkers.MatchString(textLower) {
		humanScore += 0.2
	}

	total := aiScore + humanScore
	var aiConf float64
	if total == 0 {
		// No strong signals: default to human with low confidence
		aiConf = 0.35
	} else {
		aiConf = aiScore / total
	}
	aiConf = math.Min(1.0, math.Max(0.0, aiConf))

	return AIResult{
		AIGenerated:     aiConf >= d.threshold,
		AIConfidence:    aiConf,
		HumanConfidence: 1.0 - aiConf,
		InferenceStatus: string(config.StrategyHeuristic),
	}
}
