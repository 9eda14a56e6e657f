package ensemble

import (
	"context"
	"math"
	"testing"

	"github.com/cypherlabs/guardian/pkg/classify"
)

func TestWeightsSumToOne(t *testing.T) {
	sum := WeightAI + WeightIntent + WeightStyle + WeightURL + WeightKeyword
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("signal weights sum to %.6f, want 1.0", sum)
	}
}

func TestIntentRiskTable(t *testing.T) {
	tests := []struct {
		intent string
		want   float64
	}{
		{classify.IntentPhishing, 0.9},
		{classify.IntentScam, 0.85},
		{classify.IntentPropaganda, 0.7},
		{classify.IntentSpam, 0.6},
		{"unknown", 0.3},
		{classify.IntentSafe, 0.3},
		{"", 0.3},
	}
	for _, tt := range tests {
		if got := intentRisk(tt.intent); got != tt.want {
			t.Errorf("intentRisk(%q) = %.2f, want %.2f", tt.intent, got, tt.want)
		}
	}
}

func TestFuseAllHighSignals(t *testing.T) {
	// All five signals high, four high-risk indicators: weighted sum 0.8975,
	// boosted by 1.15 and clamped to 1.0.
	score, indicators := Fuse(Signals{
		AIScore:      0.9,
		Intent:       classify.IntentPhishing,
		StyleRisk:    0.8,
		URLScore:     0.9,
		KeywordScore: 0.9,
	})
	if indicators != 4 {
		t.Fatalf("indicators = %d, want 4", indicators)
	}
	if score != 1.0 {
		t.Fatalf("score = %.4f, want 1.0 after boost and clamp", score)
	}
}

func TestFuseBoostTiers(t *testing.T) {
	tests := []struct {
		name       string
		signals    Signals
		indicators int
		multiplier float64
	}{
		{
			name:       "no boost below two indicators",
			signals:    Signals{AIScore: 0.85, Intent: classify.IntentSafe},
			indicators: 1,
			multiplier: 1.0,
		},
		{
			name:       "moderate boost at two indicators",
			signals:    Signals{AIScore: 0.85, Intent: classify.IntentScam},
			indicators: 2,
			multiplier: 1.08,
		},
		{
			name:       "strong boost at three indicators",
			signals:    Signals{AIScore: 0.85, Intent: classify.IntentScam, URLScore: 0.8},
			indicators: 3,
			multiplier: 1.15,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := WeightAI*tt.signals.AIScore +
				WeightIntent*intentRisk(tt.signals.Intent) +
				WeightStyle*tt.signals.StyleRisk +
				WeightURL*tt.signals.URLScore +
				WeightKeyword*tt.signals.KeywordScore
			want := math.Min(1.0, base*tt.multiplier)

			score, indicators := Fuse(tt.signals)
			if indicators != tt.indicators {
				t.Fatalf("indicators = %d, want %d", indicators, tt.indicators)
			}
			if math.Abs(score-want) > 1e-9 {
				t.Fatalf("score = %.6f, want %.6f", score, want)
			}
		})
	}
}

func TestFuseScoreRange(t *testing.T) {
	extremes := []Signals{
		{},
		{AIScore: 1, Intent: classify.IntentPhishing, StyleRisk: 1, URLScore: 1, KeywordScore: 1},
		{AIScore: 0.5, Intent: "unknown", StyleRisk: 0.5, URLScore: 0.5, KeywordScore: 0.5},
	}
	for _, s := range extremes {
		score, _ := Fuse(s)
		if score < 0 || score > 1 {
			t.Fatalf("score %.4f out of [0,1] for %+v", score, s)
		}
	}
}

func TestRiskLevelPartition(t *testing.T) {
	e := New(nil, nil, nil, nil, nil, 0.7, 0.4)

	tests := []struct {
		score float64
		want  string
	}{
		{0.0, RiskLow},
		{0.39, RiskLow},
		{0.4, RiskMedium},
		{0.69, RiskMedium},
		{0.7, RiskHigh},
		{1.0, RiskHigh},
	}
	for _, tt := range tests {
		if got := e.riskLevel(tt.score); got != tt.want {
			t.Errorf("riskLevel(%.2f) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestAnalyzeSurvivesMissingClassifiers(t *testing.T) {
	// All classifiers nil: every signal falls back to its neutral default and
	// the analysis still completes.
	e := New(nil, nil, nil, nil, nil, 0.7, 0.4)
	result := e.Analyze(context.Background(), "hello world")

	if result.RiskLevel != RiskLow {
		t.Fatalf("risk level = %s, want LOW with neutral defaults", result.RiskLevel)
	}
	if result.Intent.Intent != "unknown" {
		t.Fatalf("intent default = %q, want unknown", result.Intent.Intent)
	}
	if result.ComponentScores["style"] != 0.5 {
		t.Fatalf("style risk default = %.2f, want 0.5", result.ComponentScores["style"])
	}
	if result.ComponentScores["ai"] != 0.0 || result.ComponentScores["url"] != 0.0 || result.ComponentScores["keyword"] != 0.0 {
		t.Fatalf("ai/url/keyword defaults = %.2f/%.2f/%.2f, want zeros",
			result.ComponentScores["ai"], result.ComponentScores["url"], result.ComponentScores["keyword"])
	}
}

func TestAnalyzeEmptyText(t *testing.T) {
	e := New(
		classify.NewAIDetector("", 0.5),
		classify.NewIntentClassifier(classify.IntentClassifierConfig{}),
		classify.NewStylometryClassifier(),
		classify.NewURLClassifier(),
		classify.NewKeywordClassifier(""),
		0.7, 0.4,
	)
	result := e.Analyze(context.Background(), "")
	if result.RiskLevel != RiskLow {
		t.Fatalf("empty text risk level = %s, want LOW", result.RiskLevel)
	}
}

func TestAnalyzePhishingText(t *testing.T) {
	e := New(
		classify.NewAIDetector("", 0.5),
		classify.NewIntentClassifier(classify.IntentClassifierConfig{}),
		classify.NewStylometryClassifier(),
		classify.NewURLClassifier(),
		classify.NewKeywordClassifier(""),
		0.7, 0.4,
	)
	result := e.Analyze(context.Background(),
		"URGENT! Verify your bank account password now: http://bit.ly/x")

	benign := e.Analyze(context.Background(), "See you at the coffee shop tomorrow.")
	if result.RiskScore <= benign.RiskScore {
		t.Fatalf("phishing text scored %.3f, benign %.3f; want phishing higher",
			result.RiskScore, benign.RiskScore)
	}
	if result.ComponentScores["url"] == 0 || result.ComponentScores["keyword"] == 0 {
		t.Fatalf("expected url and keyword signals to fire: %+v", result.ComponentScores)
	}
}
