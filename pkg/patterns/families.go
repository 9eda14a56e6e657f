package patterns

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Family groups related risk keywords. Some families carry more weight than
// others when scoring (credential harvesting beats generic urgency).
type Family struct {
	Name     string
	Keywords []string
	HighRisk bool
}

// defaultFamilies is the built-in keyword set, used when no YAML override is
// present. Matching is substring-based on lowercased text.
var defaultFamilies = []Family{
	{Name: "urgency", Keywords: []string{
		"urgent", "immediately", "quickly", "now", "asap", "right away",
		"act now", "limited time", "deadline", "expire", "expiring",
	}},
	{Name: "financial", Keywords: []string{
		"bank", "account", "payment", "credit", "debit", "card",
		"transfer", "money", "wire", "refund", "invoice", "billing",
	}},
	{Name: "credentials", HighRisk: true, Keywords: []string{
		"password", "login", "username", "verify", "confirm",
		"authenticate", "credentials", "sign in", "access", "account",
	}},
	{Name: "action_verbs", Keywords: []string{
		"click", "click here", "tap", "download", "install",
		"update", "upgrade", "activate", "enable", "disable",
	}},
	{Name: "identity_theft", HighRisk: true, Keywords: []string{
		"social security", "ssn", "date of birth", "drivers license",
		"passport", "identity", "personal information", "pii",
	}},
	{Name: "urgency_money", HighRisk: true, Keywords: []string{
		"winning", "winner", "prize", "jackpot", "congratulations",
		"claim", "reward", "bonus", "free money", "unclaimed",
	}},
}

var (
	familyMu       sync.RWMutex
	loadedFamilies []Family
	loadOnce       sync.Once
)

// familiesFile mirrors the keyword_families.yaml structure.
type familiesFile struct {
	Families []struct {
		Name     string   `yaml:"name"`
		Keywords []string `yaml:"keywords"`
		HighRisk bool     `yaml:"high_risk"`
	} `yaml:"families"`
}

// KeywordFamilies returns the active keyword family set. The first call
// attempts to load keyword_families.yaml from configDir; failure falls back
// to the built-in set without erroring.
func KeywordFamilies(configDir string) []Family {
	loadOnce.Do(func() {
		loadedFamilies = loadFamiliesFromYAML(configDir)
	})
	familyMu.RLock()
	defer familyMu.RUnlock()
	return loadedFamilies
}

func loadFamiliesFromYAML(configDir string) []Family {
	if configDir == "" {
		return defaultFamilies
	}
	path := filepath.Join(configDir, "keyword_families.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		// No override file is the normal case; stay quiet unless the file
		// exists but is unreadable.
		if !os.IsNotExist(err) {
			log.Printf("[PATTERNS] Warning: could not read %s: %v. Using built-in families.", path, err)
		}
		return defaultFamilies
	}

	var cfg familiesFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Printf("[PATTERNS] Warning: could not parse %s: %v. Using built-in families.", path, err)
		return defaultFamilies
	}
	if len(cfg.Families) == 0 {
		return defaultFamilies
	}

	out := make([]Family, 0, len(cfg.Families))
	for _, f := range cfg.Families {
		if f.Name == "" || len(f.Keywords) == 0 {
			continue
		}
		out = append(out, Family{Name: f.Name, Keywords: f.Keywords, HighRisk: f.HighRisk})
	}
	if len(out) == 0 {
		return defaultFamilies
	}
	log.Printf("[PATTERNS] Loaded %d keyword families from %s", len(out), path)
	return out
}

// ResetFamilies clears the loaded family cache. Test helper.
func ResetFamilies() {
	familyMu.Lock()
	defer familyMu.Unlock()
	loadedFamilies = nil
	loadOnce = sync.Once{}
}
