package classify

import "testing"

func TestStylometryNeutralOnEmpty(t *testing.T) {
	c := NewStylometryClassifier()

	for _, text := range []string{"", "   "} {
		result := c.Predict(text)
		if result.StyleScore != 0.5 {
			t.Fatalf("Predict(%q).StyleScore = %.2f, want neutral 0.5", text, result.StyleScore)
		}
	}
}

func TestStylometryScoreRange(t *testing.T) {
	c := NewStylometryClassifier()

	texts := []string{
		"a",
		"AAAA AAAA AAAA AAAA AAAA",
		"The quick brown fox jumps over the lazy dog. It barked!",
		"word word word word word word word word",
	}
	for _, text := range texts {
		result := c.Predict(text)
		if result.StyleScore < 0 || result.StyleScore > 1 {
			t.Fatalf("Predict(%q).StyleScore = %.2f, out of [0,1]", text, result.StyleScore)
		}
		if result.Confidence < 0 || result.Confidence > 1 {
			t.Fatalf("Predict(%q).Confidence = %.2f, out of [0,1]", text, result.Confidence)
		}
	}
}

func TestStylometryRegister(t *testing.T) {
	c := NewStylometryClassifier()

	informal := c.Predict("lol yeah dude im gonna be late, kinda stuck rn")
	if informal.Style != "informal" {
		t.Fatalf("slang text register = %s (conf %.2f), want informal", informal.Style, informal.Confidence)
	}

	formal := c.Predict("Dear Sir, I am writing to request clarification regarding the aforementioned contractual obligations. Sincerely, J. Smith.")
	if formal.Style != "formal" {
		t.Fatalf("formal letter register = %s (conf %.2f), want formal", formal.Style, formal.Confidence)
	}
}

func TestStylometryShoutingReadsAsInformal(t *testing.T) {
	c := NewStylometryClassifier()

	result := c.Predict("FINAL NOTICE!!! YOU MUST ACT NOW OR LOSE EVERYTHING!!!")
	if result.Style != "informal" {
		t.Fatalf("all-caps text register = %s (conf %.2f), want informal", result.Style, result.Confidence)
	}
}

func TestStylometryRepetitionLowersScore(t *testing.T) {
	c := NewStylometryClassifier()

	varied := c.Predict("Markets rallied sharply today after upbeat earnings reports surprised analysts.")
	repeated := c.Predict("buy buy buy buy buy buy buy buy buy buy buy buy")
	if repeated.StyleScore >= varied.StyleScore {
		t.Fatalf("repeated tokens scored %.3f, varied prose %.3f; want repeated lower",
			repeated.StyleScore, varied.StyleScore)
	}
}
