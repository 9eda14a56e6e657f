// Package patterns provides a centralized, compile-once registry of the
// lexical resources used by the signal classifiers: URL extraction regexes,
// domain reputation sets, stylometric marker patterns, and keyword families.
//
// Design principles:
// - COMPILE ONCE: all regexes are compiled at package init, not per-request
// - DRY: single source of truth shared by pkg/classify and pkg/features
// - OVERRIDABLE: keyword families can be replaced from YAML without code changes
package patterns

import "regexp"

// URLPattern matches http/https URLs embedded in free text.
var URLPattern = regexp.MustCompile(`(?i)https?://[^\s<>"{}\\|^` + "`" + `\[\]]+`)

// IPHostPattern matches a bare IPv4 literal used as a hostname.
var IPHostPattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

// SentenceSplitPattern splits text into sentences on terminal punctuation runs.
var SentenceSplitPattern = regexp.MustCompile(`[.!?]+`)

// PunctuationPattern matches the punctuation classes counted by stylometry.
var PunctuationPattern = regexp.MustCompile(`[.!?,;:"-]`)

// InformalMarkers are patterns whose presence suggests informal human writing.
var InformalMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\blol\b`),
	regexp.MustCompile(`(?i)\bomg\b`),
	regexp.MustCompile(`(?i)\bwtf\b`),
	regexp.MustCompile(`(?i)\blmao\b`),
	regexp.MustCompile(`(?i)\brofl\b`),
	regexp.MustCompile(`(?i)\byeah\b`),
	regexp.MustCompile(`(?i)\bnah\b`),
	regexp.MustCompile(`(?i)\bgonna\b`),
	regexp.MustCompile(`(?i)\bwanna\b`),
	regexp.MustCompile(`(?i)\bdude\b`),
	regexp.MustCompile(`(?i)\bkinda\b`),
	regexp.MustCompile(`(?i)\bsorta\b`),
}

// FormalMarkers are patterns whose presence suggests formal register.
var FormalMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bdear\s+(?:sir|madam)\b`),
	regexp.MustCompile(`(?i)\bsincerely\b`),
	regexp.MustCompile(`(?i)\bregards\b`),
	regexp.MustCompile(`(?i)\bpursuant\b`),
	regexp.MustCompile(`(?i)\btherefore\b`),
	regexp.MustCompile(`(?i)\bfurthermore\b`),
	regexp.MustCompile(`(?i)\bnevertheless\b`),
	regexp.MustCompile(`(?i)\bmoreover\b`),
	regexp.MustCompile(`(?i)\bplease find attached\b`),
	regexp.MustCompile(`(?i)\bi am writing to\b`),
	regexp.MustCompile(`(?i)\bin accordance with\b`),
}

// URLShorteners are link-shortening services frequently abused in phishing.
var URLShorteners = map[string]bool{
	"bit.ly": true, "tinyurl.com": true, "goo.gl": true, "ow.ly": true,
	"t.co": true, "buff.ly": true, "adf.ly": true, "is.gd": true,
	"cli.gs": true, "shorte.st": true, "go2l.ink": true, "x.co": true,
	"scrnch.me": true, "vzturl.com": true, "qr.net": true, "1url.com": true,
	"tweez.me": true, "v.gd": true, "tr.im": true, "link.zip": true,
}

// SuspiciousTLDs are top-level domains with high abuse rates (free or cheap
// registration, common in throwaway phishing infrastructure).
var SuspiciousTLDs = []string{
	".tk", ".ml", ".ga", ".cf", ".gq",
	".xyz", ".top", ".club", ".loan", ".work",
	".click", ".link", ".download", ".racing", ".date",
	".stream", ".review", ".country", ".science", ".party",
	".win", ".bid", ".trade", ".webcam", ".faith",
}

// KnownBadDomains are confirmed phishing/homoglyph domains.
var KnownBadDomains = map[string]bool{
	"paypai.com":    true, // homoglyph of paypal
	"amaz0n.com":    true,
	"g00gle.com":    true,
	"micros0ft.com": true,
	"facebo0k.com":  true,
}

// SafeDomains is an allowlist of well-known legitimate domains.
var SafeDomains = []string{
	"google.com", "youtube.com", "facebook.com", "amazon.com",
	"wikipedia.org", "reddit.com", "twitter.com", "instagram.com",
	"linkedin.com", "github.com", "stackoverflow.com", "microsoft.com",
	"apple.com", "paypal.com", "ebay.com", "netflix.com",
}

// DomainSuspiciousKeywords flag credential-harvesting vocabulary inside hostnames.
var DomainSuspiciousKeywords = []string{
	"login", "verify", "secure", "account", "update", "confirm",
}
