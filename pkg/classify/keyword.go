package classify

import (
	"strings"

	"github.com/cypherlabs/guardian/pkg/patterns"
)

// KeywordResult is the keyword classifier's output.
type KeywordResult struct {
	Keywords     []string `json:"keywords"`
	KeywordScore float64  `json:"keyword_score"`
}

// KeywordClassifier detects urgency, money, identity-theft and other risk
// markers using the shared keyword-family registry.
type KeywordClassifier struct {
	families []patterns.Family
}

// NewKeywordClassifier builds a classifier over the families loaded from
// configDir (or the built-in set when no override exists).
func NewKeywordClassifier(configDir string) *KeywordClassifier {
	return &KeywordClassifier{families: patterns.KeywordFamilies(configDir)}
}

// Predict scores the text. High-risk families (credentials, identity theft,
// prize scams) are weighted more heavily than generic hits.
func (k *KeywordClassifier) Predict(text string) KeywordResult {
	if text == "" {
		return KeywordResult{Keywords: []string{}}
	}

	textLower := strings.ToLower(text)
	var found []string
	totalHits := 0
	highRiskHits := 0

	for _, family := range k.families {
		for _, keyword := range family.Keywords {
			if strings.Contains(textLower, keyword) {
				found = append(found, keyword)
				totalHits++
				if family.HighRisk {
					highRiskHits++
				}
			}
		}
	}

	score := float64(highRiskHits)*0.25 + float64(totalHits)*0.05
	if score > 1.0 {
		score = 1.0
	}

	if found == nil {
		found = []string{}
	}
	return KeywordResult{Keywords: found, KeywordScore: score}
}
