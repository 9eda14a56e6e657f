package features

import (
	"context"
	"math"
	"testing"

	"github.com/cypherlabs/guardian/pkg/classify"
)

func newTestExtractor() *Extractor {
	// Rule layer only: no model path, no semantic matcher.
	return NewExtractor(classify.NewIntentClassifier(classify.IntentClassifierConfig{}))
}

func TestExtractDimensionIsStable(t *testing.T) {
	e := newTestExtractor()
	ctx := context.Background()

	texts := []string{
		"",
		"short",
		"URGENT! Verify your bank account password now: http://bit.ly/x",
		"A perfectly ordinary sentence about the weather today.",
	}
	for _, text := range texts {
		fs := e.Extract(ctx, text)
		if len(fs.Vector) != Dim {
			t.Fatalf("Extract(%q) produced %d features, want %d", text, len(fs.Vector), Dim)
		}
	}
}

func TestExtractEmptyText(t *testing.T) {
	e := newTestExtractor()
	fs := e.Extract(context.Background(), "   ")

	for i, v := range fs.Vector {
		if v != 0 {
			t.Fatalf("empty text feature[%d] = %.4f, want 0", i, v)
		}
	}
	if fs.StaticIntent != classify.IntentSafe {
		t.Fatalf("empty text static intent = %q, want safe", fs.StaticIntent)
	}
}

func TestExtractURLFeatures(t *testing.T) {
	e := newTestExtractor()
	fs := e.Extract(context.Background(), "click http://bit.ly/abc and https://example.com/x now")

	if fs.Vector[3] != 2 {
		t.Fatalf("url_count = %.1f, want 2", fs.Vector[3])
	}
	if fs.Vector[4] != 1 {
		t.Fatalf("has_url = %.1f, want 1", fs.Vector[4])
	}
	if fs.Vector[5] != 1 {
		t.Fatalf("has_shortener = %.1f, want 1", fs.Vector[5])
	}

	plain := e.Extract(context.Background(), "no links in this message at all")
	if plain.Vector[3] != 0 || plain.Vector[4] != 0 || plain.Vector[5] != 0 {
		t.Fatalf("plain text url features = %.1f/%.1f/%.1f, want zeros",
			plain.Vector[3], plain.Vector[4], plain.Vector[5])
	}
}

func TestExtractKeywordFamilyScores(t *testing.T) {
	e := newTestExtractor()

	// 2 of 6 urgency words, 2 of 6 financial words, 2 of 5 credential words.
	fs := e.Extract(context.Background(), "urgent deadline: transfer money and verify your password")

	if got, want := fs.Vector[12], 2.0/6.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("urgency_score = %.4f, want %.4f", got, want)
	}
	if got, want := fs.Vector[13], 2.0/6.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("financial_score = %.4f, want %.4f", got, want)
	}
	if got, want := fs.Vector[14], 2.0/5.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("credential_score = %.4f, want %.4f", got, want)
	}
}

func TestExtractNormalizedFeaturesCapped(t *testing.T) {
	e := newTestExtractor()

	long := make([]byte, 2000)
	for i := range long {
		if i%6 == 5 {
			long[i] = ' '
		} else {
			long[i] = 'a'
		}
	}
	fs := e.Extract(context.Background(), string(long))

	if fs.Vector[17] != 1.0 {
		t.Fatalf("length feature = %.4f, want capped at 1.0", fs.Vector[17])
	}
	if fs.Vector[18] != 1.0 {
		t.Fatalf("word count feature = %.4f, want capped at 1.0", fs.Vector[18])
	}
}

func TestExtractDeterministic(t *testing.T) {
	e := newTestExtractor()
	ctx := context.Background()

	texts := []string{
		"URGENT! Verify your bank account password now: http://bit.ly/x",
		"A perfectly ordinary sentence about the weather today.",
		"claim your prize!!! transfer the fee immediately",
	}
	for _, text := range texts {
		first := e.Extract(ctx, text)
		second := e.Extract(ctx, text)
		if len(first.Vector) != len(second.Vector) {
			t.Fatalf("Extract(%q) dimensions diverge: %d vs %d", text, len(first.Vector), len(second.Vector))
		}
		for i := range first.Vector {
			if first.Vector[i] != second.Vector[i] {
				t.Fatalf("Extract(%q) feature[%d] diverges: %v vs %v",
					text, i, first.Vector[i], second.Vector[i])
			}
		}
		if first.StaticIntent != second.StaticIntent || first.StaticConfidence != second.StaticConfidence {
			t.Fatalf("Extract(%q) static verdict diverges: %s/%.4f vs %s/%.4f",
				text, first.StaticIntent, first.StaticConfidence, second.StaticIntent, second.StaticConfidence)
		}
	}
}

func TestExtractIntentConfidencesLeadTheVector(t *testing.T) {
	e := newTestExtractor()
	fs := e.Extract(context.Background(), "verify your account password to avoid suspension")

	// ML and semantic layers are absent in this configuration.
	if fs.Vector[0] != 0 || fs.Vector[1] != 0 {
		t.Fatalf("ml/semantic confidences = %.3f/%.3f, want 0 without those layers",
			fs.Vector[0], fs.Vector[1])
	}
	if fs.Vector[2] <= 0 {
		t.Fatalf("rule confidence = %.3f, want > 0 for credential phishing text", fs.Vector[2])
	}
}
