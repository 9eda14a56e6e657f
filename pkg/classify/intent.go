package classify

import (
	"context"
	"log"
	"math"
	"strings"
	"time"
)

// Intent labels produced by the classifier.
const (
	IntentSafe       = "safe"
	IntentPhishing   = "phishing"
	IntentScam       = "scam"
	IntentSpam       = "spam"
	IntentPropaganda = "propaganda"
)

// Layer fusion weights. ML inference carries the most signal when present;
// the rule layer is the floor that always runs.
const (
	mlLayerWeight       = 0.60
	semanticLayerWeight = 0.25
	ruleLayerWeight     = 0.15
	threatThreshold     = 0.5
)

// IntentResult is the hybrid intent classifier's output. The three per-layer
// confidences are part of the stable output contract: the feature extractor
// consumes them positionally.
type IntentResult struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	IsThreat   bool    `json:"is_threat"`

	MLConfidence       float64 `json:"ml_confidence"`
	SemanticConfidence float64 `json:"semantic_confidence"`
	RuleConfidence     float64 `json:"rule_confidence"`

	Layers []string `json:"layers"` // layers that produced signal
}

// IntentClassifier fuses up to three detection layers:
//
//	ML       - transformer intent model via Hugot (optional)
//	semantic - embedding similarity against threat seeds (optional)
//	rule     - keyword scoring (always available)
//
// Absent layers contribute zero; their weight is not redistributed, so a
// rule-only deployment caps out at the rule weight and stays conservative.
type IntentClassifier struct {
	model    *TextModel
	semantic *SemanticMatcher
}

// IntentClassifierConfig configures the hybrid classifier. ModelPath and
// Semantic may both be empty/nil.
type IntentClassifierConfig struct {
	ModelPath string
	Semantic  *SemanticMatcher
}

var threatCategoryKeywords = map[string][]string{
	IntentPhishing: {
		"verify", "suspended", "confirm your", "account", "password",
		"click here", "login", "credentials", "security alert", "locked",
	},
	IntentScam: {
		"winner", "prize", "lottery", "inheritance", "wire transfer",
		"gift card", "guaranteed", "investment", "fee", "claim",
	},
	IntentSpam: {
		"buy now", "discount", "limited time", "free", "offer",
		"act now", "no experience", "earn", "cheap",
	},
	IntentPropaganda: {
		"wake up", "they don't want you to know", "mainstream media",
		"the truth", "our enemies", "before it gets deleted", "sheeple",
	},
}

// NewIntentClassifier builds the hybrid classifier, loading whichever layers
// are available and logging the active set.
func NewIntentClassifier(cfg IntentClassifierConfig) *IntentClassifier {
	c := &IntentClassifier{semantic: cfg.Semantic}

	if cfg.ModelPath != "" {
		c.model = NewTextModelWithFallback(TextModelConfig{
			ModelPath: cfg.ModelPath,
			Name:      "intent-classifier",
			Timeout:   10 * time.Second,
		})
	}

	active := []string{"rule"}
	if c.semantic.IsReady() {
		active = append([]string{"semantic"}, active...)
	}
	if c.model.IsReady() {
		active = append([]string{"ml"}, active...)
	}
	log.Printf("[INTENT] Active layers: %s", strings.Join(active, ", "))
	return c
}

// Predict fuses the available layers into a single intent verdict. Layer
// failures degrade that layer to zero rather than failing the call.
func (c *IntentClassifier) Predict(ctx context.Context, text string) IntentResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return IntentResult{Intent: IntentSafe, Layers: []string{}}
	}

	var mlConf, semConf float64
	var layers []string

	if c.model.IsReady() {
		if pred, err := c.model.Classify(ctx, text); err == nil {
			mlConf = mlThreatConfidence(pred)
			layers = append(layers, "ml")
		} else {
			log.Printf("[INTENT] ML layer failed: %v", err)
		}
	}

	var semCategory string
	if c.semantic.IsReady() {
		if match, err := c.semantic.Match(ctx, text); err == nil {
			if match.IsThreat {
				semConf = match.Score
				semCategory = match.Category
			}
			layers = append(layers, "semantic")
		} else {
			log.Printf("[INTENT] Semantic layer failed: %v", err)
		}
	}

	ruleConf, ruleCategory := c.ruleScore(text)
	layers = append(layers, "rule")

	combined := mlConf*mlLayerWeight + semConf*semanticLayerWeight + ruleConf*ruleLayerWeight
	combined = math.Min(1.0, combined)

	result := IntentResult{
		Confidence:         combined,
		MLConfidence:       mlConf,
		SemanticConfidence: semConf,
		RuleConfidence:     ruleConf,
		Layers:             layers,
	}

	if combined < threatThreshold {
		result.Intent = IntentSafe
		return result
	}

	result.IsThreat = true
	result.Intent = c.resolveThreatCategory(text, combined, semCategory, ruleCategory)
	return result
}

// mlThreatConfidence maps the intent model's label conventions to a threat
// confidence in [0,1].
func mlThreatConfidence(pred ModelPrediction) float64 {
	switch strings.ToLower(pred.Label) {
	case "safe", "benign", "label_0":
		return 1.0 - pred.Score
	default:
		return pred.Score
	}
}

// ruleScore counts category keyword hits and returns the strongest category
// with a capped confidence.
func (c *IntentClassifier) ruleScore(text string) (float64, string) {
	textLower := strings.ToLower(text)

	bestCategory := ""
	bestHits := 0
	for _, category := range []string{IntentPhishing, IntentScam, IntentSpam, IntentPropaganda} {
		hits := 0
		for _, kw := range threatCategoryKeywords[category] {
			if strings.Contains(textLower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			bestCategory = category
		}
	}

	if bestHits == 0 {
		return 0, ""
	}
	return math.Min(1.0, float64(bestHits)*0.3), bestCategory
}

// resolveThreatCategory picks the specific threat label once the fused score
// crosses the threshold. Category layers win when they agree with a match;
// otherwise high confidence defaults to phishing, low to spam.
func (c *IntentClassifier) resolveThreatCategory(text string, confidence float64, semCategory, ruleCategory string) string {
	if ruleCategory != "" {
		return ruleCategory
	}
	if semCategory != "" && semCategory != "benign" {
		return semCategory
	}

	textLower := strings.ToLower(text)
	for _, category := range []string{IntentPhishing, IntentScam, IntentSpam} {
		for _, kw := range threatCategoryKeywords[category] {
			if strings.Contains(textLower, kw) {
				return category
			}
		}
	}

	if confidence >= 0.7 {
		return IntentPhishing
	}
	return IntentSpam
}

// Close releases the ML layer's resources.
func (c *IntentClassifier) Close() error {
	if c.model != nil {
		return c.model.Close()
	}
	return nil
}
