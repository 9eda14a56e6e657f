package classify

import (
	"math"
	"testing"
)

func TestNormalizeTextCollapsesCompatibilityForms(t *testing.T) {
	normalized, changed := NormalizeText("Ｖｅｒｉｆｙ ｎｏｗ")
	if !changed {
		t.Fatal("fullwidth text reported as unchanged")
	}
	if normalized != "Verify now" {
		t.Fatalf("normalized = %q, want %q", normalized, "Verify now")
	}

	if _, changed := NormalizeText("plain ascii"); changed {
		t.Fatal("plain ASCII reported as changed")
	}
}

func TestShannonEntropy(t *testing.T) {
	if got := ShannonEntropy(""); got != 0 {
		t.Fatalf("entropy of empty = %.4f, want 0", got)
	}
	if got := ShannonEntropy("aaaa"); got != 0 {
		t.Fatalf("entropy of uniform text = %.4f, want 0", got)
	}
	// Two equiprobable symbols carry exactly one bit.
	if got := ShannonEntropy("abab"); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("entropy of abab = %.4f, want 1.0", got)
	}

	low := ShannonEntropy("aaaaaab")
	high := ShannonEntropy("the quick brown fox")
	if low >= high {
		t.Fatalf("entropy ordering wrong: %.3f >= %.3f", low, high)
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"no terminator", 1},
		{"One. Two! Three?", 3},
		{"Trailing dots... and more!!", 2},
	}
	for _, tt := range tests {
		got := SplitSentences(tt.text)
		if len(got) != tt.want {
			t.Errorf("SplitSentences(%q) = %d sentences (%v), want %d", tt.text, len(got), got, tt.want)
		}
	}
}

func TestUppercaseLetterRatio(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"", 0},
		{"1234 !!", 0},
		{"abcd", 0},
		{"ABCD", 1},
		{"AbCd", 0.5},
	}
	for _, tt := range tests {
		if got := UppercaseLetterRatio(tt.text); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("UppercaseLetterRatio(%q) = %.2f, want %.2f", tt.text, got, tt.want)
		}
	}
}
