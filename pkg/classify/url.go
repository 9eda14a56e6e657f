package classify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cypherlabs/guardian/pkg/patterns"
)

// URLResult is the URL classifier's output.
type URLResult struct {
	URLDetected bool     `json:"url_detected"`
	URLScore    float64  `json:"url_score"`
	Domains     []string `json:"domains"`
	RiskFactors []string `json:"risk_factors"`
}

// URLClassifier scores risk from URLs embedded in text: shorteners,
// suspicious TLDs, known-bad and homoglyph domains, IP hosts, deep
// subdomain chains, and credential vocabulary in hostnames.
type URLClassifier struct{}

// NewURLClassifier creates a URL classifier.
func NewURLClassifier() *URLClassifier {
	return &URLClassifier{}
}

// Predict extracts and scores every URL, averaging per-URL risk.
func (u *URLClassifier) Predict(text string) URLResult {
	empty := URLResult{Domains: []string{}, RiskFactors: []string{}}
	if text == "" {
		return empty
	}

	urls := patterns.URLPattern.FindAllString(text, -1)
	if len(urls) == 0 {
		return empty
	}

	seen := make(map[string]bool)
	var domains, riskFactors []string
	totalRisk := 0.0

	for _, raw := range urls {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Host == "" {
			// A URL the parser rejects is itself a weak risk signal
			totalRisk += 0.5
			riskFactors = append(riskFactors, fmt.Sprintf("Malformed URL: %s", raw))
			continue
		}

		domain := strings.ToLower(parsed.Hostname())
		if !seen[domain] {
			seen[domain] = true
			domains = append(domains, domain)
		}

		risk := 0.0
		switch {
		case patterns.KnownBadDomains[domain]:
			risk = 1.0
			riskFactors = append(riskFactors, fmt.Sprintf("Known malicious domain: %s", domain))
		case matchesSafeDomain(domain):
			risk = 0.0
		case patterns.URLShorteners[domain]:
			risk = 0.6
			riskFactors = append(riskFactors, fmt.Sprintf("URL shortener: %s", domain))
		case hasSuspiciousTLD(domain):
			risk = 0.7
			riskFactors = append(riskFactors, fmt.Sprintf("Suspicious TLD: %s", domain))
		case isHomoglyphDomain(domain):
			risk = 0.9
			riskFactors = append(riskFactors, fmt.Sprintf("Possible homoglyph attack: %s", domain))
		case patterns.IPHostPattern.MatchString(domain):
			risk = 0.5
			riskFactors = append(riskFactors, fmt.Sprintf("IP address used: %s", domain))
		case strings.Count(domain, ".") > 3:
			risk = 0.4
			riskFactors = append(riskFactors, fmt.Sprintf("Excessive subdomains: %s", domain))
		}

		for _, kw := range patterns.DomainSuspiciousKeywords {
			if strings.Contains(domain, kw) {
				risk += 0.3
				riskFactors = append(riskFactors, fmt.Sprintf("Suspicious keyword in domain: %s", domain))
				break
			}
		}

		if risk > 1.0 {
			risk = 1.0
		}
		totalRisk += risk
	}

	avgRisk := totalRisk / float64(len(urls))
	if avgRisk > 1.0 {
		avgRisk = 1.0
	}

	if domains == nil {
		domains = []string{}
	}
	if riskFactors == nil {
		riskFactors = []string{}
	}
	return URLResult{
		URLDetected: true,
		URLScore:    avgRisk,
		Domains:     domains,
		RiskFactors: riskFactors,
	}
}

func matchesSafeDomain(domain string) bool {
	for _, safe := range patterns.SafeDomains {
		if domain == safe || strings.HasSuffix(domain, "."+safe) {
			return true
		}
	}
	return false
}

func hasSuspiciousTLD(domain string) bool {
	for _, tld := range patterns.SuspiciousTLDs {
		if strings.HasSuffix(domain, tld) {
			return true
		}
	}
	return false
}

// isHomoglyphDomain flags digit-for-letter substitutions inside well-known
// brand names (g00gle, paypa1).
func isHomoglyphDomain(domain string) bool {
	brands := []string{"google", "microsoft", "paypal", "amazon", "facebook", "apple"}
	for _, brand := range brands {
		zeroVariant := strings.ReplaceAll(brand, "o", "0")
		oneVariant := strings.ReplaceAll(brand, "l", "1")
		if zeroVariant != brand && strings.Contains(domain, zeroVariant) {
			return true
		}
		if oneVariant != brand && strings.Contains(domain, oneVariant) {
			return true
		}
	}
	return false
}
