package classify

import (
	"math"
	"testing"
)

func TestURLClassifierNoURLs(t *testing.T) {
	c := NewURLClassifier()

	for _, text := range []string{"", "no links here", "visit example dot com"} {
		result := c.Predict(text)
		if result.URLDetected {
			t.Errorf("Predict(%q).URLDetected = true, want false", text)
		}
		if result.URLScore != 0 {
			t.Errorf("Predict(%q).URLScore = %.2f, want 0", text, result.URLScore)
		}
	}
}

func TestURLClassifierRiskTiers(t *testing.T) {
	c := NewURLClassifier()

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"known bad domain", "see http://paypai.com/path", 1.0},
		{"safe domain", "see https://github.com/octocat", 0.0},
		{"safe subdomain", "see https://docs.github.com/en", 0.0},
		{"shortener", "see http://bit.ly/abc", 0.6},
		{"suspicious tld", "see http://freeprizes.tk/win", 0.7},
		{"homoglyph", "see http://g00gle.example.net/", 0.9},
		{"ip host", "see http://192.168.10.5/admin", 0.5},
		{"deep subdomains", "see http://a.b.c.d.example.net/", 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Predict(tt.text)
			if !result.URLDetected {
				t.Fatal("URL not detected")
			}
			if math.Abs(result.URLScore-tt.want) > 1e-9 {
				t.Fatalf("URLScore = %.2f, want %.2f (factors: %v)",
					result.URLScore, tt.want, result.RiskFactors)
			}
		})
	}
}

func TestURLClassifierDomainKeywordStacks(t *testing.T) {
	c := NewURLClassifier()

	// Shortener-free unknown domain carrying a credential keyword.
	result := c.Predict("go to http://verify-payments.example.net/session")
	if math.Abs(result.URLScore-0.3) > 1e-9 {
		t.Fatalf("URLScore = %.2f, want 0.3 for keyword-only domain", result.URLScore)
	}

	// Keyword on top of a suspicious TLD stacks.
	result = c.Predict("go to http://login-helpdesk.tk/reset")
	if math.Abs(result.URLScore-1.0) > 1e-9 {
		t.Fatalf("URLScore = %.2f, want 1.0 (0.7 TLD + 0.3 keyword)", result.URLScore)
	}
}

func TestURLClassifierAveragesAcrossURLs(t *testing.T) {
	c := NewURLClassifier()

	result := c.Predict("ok https://github.com/x but also http://bit.ly/y")
	if math.Abs(result.URLScore-0.3) > 1e-9 {
		t.Fatalf("URLScore = %.2f, want 0.3 (mean of 0.0 and 0.6)", result.URLScore)
	}
	if len(result.Domains) != 2 {
		t.Fatalf("domains = %v, want 2 entries", result.Domains)
	}
}
