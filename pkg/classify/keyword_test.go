package classify

import (
	"testing"
)

func TestKeywordClassifierEmptyText(t *testing.T) {
	c := NewKeywordClassifier("")
	result := c.Predict("")
	if result.KeywordScore != 0 || len(result.Keywords) != 0 {
		t.Fatalf("empty text result = %+v, want zero score and no keywords", result)
	}
}

func TestKeywordClassifierBenignText(t *testing.T) {
	c := NewKeywordClassifier("")
	result := c.Predict("the weather looks lovely this afternoon")
	if result.KeywordScore != 0 {
		t.Fatalf("benign score = %.2f (keywords %v), want 0", result.KeywordScore, result.Keywords)
	}
}

func TestKeywordClassifierHighRiskSaturates(t *testing.T) {
	c := NewKeywordClassifier("")

	// Four high-risk prize-scam hits alone push the score to the cap.
	result := c.Predict("congratulations, you are a winner! claim your prize today")
	if result.KeywordScore != 1.0 {
		t.Fatalf("score = %.2f (keywords %v), want 1.0", result.KeywordScore, result.Keywords)
	}
	if len(result.Keywords) == 0 {
		t.Fatal("no keywords reported for a saturated score")
	}
}

func TestKeywordClassifierLowRiskAccumulatesSlowly(t *testing.T) {
	c := NewKeywordClassifier("")

	// Two ordinary financial hits, no high-risk families.
	result := c.Predict("the invoice covers last month's billing")
	want := 2 * 0.05
	if diff := result.KeywordScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("score = %.3f (keywords %v), want %.3f", result.KeywordScore, result.Keywords, want)
	}
}
