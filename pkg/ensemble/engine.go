// Package ensemble fuses the five signal classifiers into a single risk
// score and level. Fusion is a fixed weighted sum with a rule-based boost
// when several independent signals agree; no classifier failure can abort
// an analysis.
package ensemble

import (
	"context"
	"log"
	"time"

	"github.com/cypherlabs/guardian/pkg/classify"
)

// Signal weights. These must sum to 1.0; TestWeightsSumToOne enforces it.
const (
	WeightAI      = 0.35
	WeightIntent  = 0.35
	WeightStyle   = 0.10
	WeightURL     = 0.12
	WeightKeyword = 0.08
)

// Boost multipliers applied when multiple high-risk indicators agree.
const (
	boostStrong        = 1.15 // 3+ indicators
	boostModerate      = 1.08 // 2 indicators
	highRiskScoreFloor = 0.8
)

// Risk levels.
const (
	RiskHigh   = "HIGH"
	RiskMedium = "MEDIUM"
	RiskLow    = "LOW"
)

// intentRiskTable maps the intent category to its risk contribution.
// Categories not listed (including "safe" and "unknown") contribute 0.3.
var intentRiskTable = map[string]float64{
	classify.IntentPhishing:   0.9,
	classify.IntentScam:       0.85,
	classify.IntentPropaganda: 0.7,
	classify.IntentSpam:       0.6,
}

const intentRiskDefault = 0.3

// Result is the fused analysis output.
type Result struct {
	RiskScore          float64            `json:"risk_score"`
	RiskLevel          string             `json:"risk_level"`
	ComponentScores    map[string]float64 `json:"component_scores"`
	HighRiskIndicators int                `json:"high_risk_indicators"`

	AI         classify.AIResult      `json:"ai"`
	Intent     classify.IntentResult  `json:"intent"`
	Style      classify.StyleResult   `json:"style"`
	URL        classify.URLResult     `json:"url"`
	Keyword    classify.KeywordResult `json:"keyword"`
	Normalized bool                   `json:"normalized"`

	AnalysisMs float64 `json:"analysis_ms"`
}

// Engine runs the five classifiers and fuses their outputs.
type Engine struct {
	ai        *classify.AIDetector
	intent    *classify.IntentClassifier
	style     *classify.StylometryClassifier
	url       *classify.URLClassifier
	keyword   *classify.KeywordClassifier
	highThr   float64
	mediumThr float64
}

// New creates an engine over the given classifiers and risk thresholds.
func New(
	ai *classify.AIDetector,
	intent *classify.IntentClassifier,
	style *classify.StylometryClassifier,
	url *classify.URLClassifier,
	keyword *classify.KeywordClassifier,
	highThreshold, mediumThreshold float64,
) *Engine {
	return &Engine{
		ai:        ai,
		intent:    intent,
		style:     style,
		url:       url,
		keyword:   keyword,
		highThr:   highThreshold,
		mediumThr: mediumThreshold,
	}
}

// Analyze runs all five classifiers against the text and fuses the results.
// Each classifier call is independently guarded: a panic or failure in one
// substitutes that signal's neutral default and the analysis continues.
func (e *Engine) Analyze(ctx context.Context, text string) Result {
	start := time.Now()

	normalized, changed := classify.NormalizeText(text)

	aiResult := e.guardedAI(ctx, normalized)
	intentResult := e.guardedIntent(ctx, normalized)
	styleResult := e.guardedStyle(normalized)
	urlResult := e.guardedURL(normalized)
	keywordResult := e.guardedKeyword(normalized)

	signals := Signals{
		AIScore:      aiResult.AIConfidence,
		Intent:       intentResult.Intent,
		StyleRisk:    1.0 - styleResult.StyleScore,
		URLScore:     urlResult.URLScore,
		KeywordScore: keywordResult.KeywordScore,
	}
	riskScore, indicators := Fuse(signals)

	return Result{
		RiskScore:          riskScore,
		RiskLevel:          e.riskLevel(riskScore),
		HighRiskIndicators: indicators,
		ComponentScores: map[string]float64{
			"ai":      signals.AIScore,
			"intent":  intentRisk(signals.Intent),
			"style":   signals.StyleRisk,
			"url":     signals.URLScore,
			"keyword": signals.KeywordScore,
		},
		AI:         aiResult,
		Intent:     intentResult,
		Style:      styleResult,
		URL:        urlResult,
		Keyword:    keywordResult,
		Normalized: changed,
		AnalysisMs: float64(time.Since(start).Microseconds()) / 1000,
	}
}

// Signals carries the per-classifier contributions into fusion. StyleRisk
// is already inverted: 1 - human-likeness.
type Signals struct {
	AIScore      float64
	Intent       string
	StyleRisk    float64
	URLScore     float64
	KeywordScore float64
}

// Fuse computes the weighted risk score and the high-risk indicator count.
// Agreement among independent signals amplifies the score multiplicatively;
// the result is clamped to 1.0 after boosting.
func Fuse(s Signals) (float64, int) {
	riskScore := WeightAI*s.AIScore +
		WeightIntent*intentRisk(s.Intent) +
		WeightStyle*s.StyleRisk +
		WeightURL*s.URLScore +
		WeightKeyword*s.KeywordScore

	indicators := 0
	if s.Intent == classify.IntentPhishing || s.Intent == classify.IntentScam {
		indicators++
	}
	if s.URLScore >= highRiskScoreFloor {
		indicators++
	}
	if s.KeywordScore >= highRiskScoreFloor {
		indicators++
	}
	if s.AIScore >= highRiskScoreFloor {
		indicators++
	}

	switch {
	case indicators >= 3:
		riskScore *= boostStrong
	case indicators >= 2:
		riskScore *= boostModerate
	}
	if riskScore > 1.0 {
		riskScore = 1.0
	}
	return riskScore, indicators
}

// riskLevel maps a fused score to its level. Thresholds are left-inclusive.
func (e *Engine) riskLevel(score float64) string {
	switch {
	case score >= e.highThr:
		return RiskHigh
	case score >= e.mediumThr:
		return RiskMedium
	default:
		return RiskLow
	}
}

func intentRisk(intent string) float64 {
	if risk, ok := intentRiskTable[intent]; ok {
		return risk
	}
	return intentRiskDefault
}

// The guarded wrappers substitute each signal's documented neutral default
// when its classifier is missing or panics.

func (e *Engine) guardedAI(ctx context.Context, text string) (result classify.AIResult) {
	result = classify.AIResult{HumanConfidence: 1.0, InferenceStatus: "unavailable"}
	if e.ai == nil {
		return result
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ENSEMBLE] AI detector panicked: %v", r)
			result = classify.AIResult{HumanConfidence: 1.0, InferenceStatus: "unavailable"}
		}
	}()
	return e.ai.Predict(ctx, text)
}

func (e *Engine) guardedIntent(ctx context.Context, text string) (result classify.IntentResult) {
	result = classify.IntentResult{Intent: "unknown", Layers: []string{}}
	if e.intent == nil {
		return result
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ENSEMBLE] Intent classifier panicked: %v", r)
			result = classify.IntentResult{Intent: "unknown", Layers: []string{}}
		}
	}()
	return e.intent.Predict(ctx, text)
}

func (e *Engine) guardedStyle(text string) (result classify.StyleResult) {
	result = classify.StyleResult{Style: "informal", Confidence: 0.5, StyleScore: 0.5}
	if e.style == nil {
		return result
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ENSEMBLE] Stylometry classifier panicked: %v", r)
			result = classify.StyleResult{Style: "informal", Confidence: 0.5, StyleScore: 0.5}
		}
	}()
	return e.style.Predict(text)
}

func (e *Engine) guardedURL(text string) (result classify.URLResult) {
	result = classify.URLResult{Domains: []string{}, RiskFactors: []string{}}
	if e.url == nil {
		return result
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ENSEMBLE] URL classifier panicked: %v", r)
			result = classify.URLResult{Domains: []string{}, RiskFactors: []string{}}
		}
	}()
	return e.url.Predict(text)
}

func (e *Engine) guardedKeyword(text string) (result classify.KeywordResult) {
	result = classify.KeywordResult{Keywords: []string{}}
	if e.keyword == nil {
		return result
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ENSEMBLE] Keyword classifier panicked: %v", r)
			result = classify.KeywordResult{Keywords: []string{}}
		}
	}()
	return e.keyword.Predict(text)
}
