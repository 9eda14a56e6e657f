package classify

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"gopkg.in/yaml.v3"
)

// ThreatSeed is one reference sentence with its threat category.
type ThreatSeed struct {
	Text     string  `yaml:"text"`
	Category string  `yaml:"category"`
	Severity float32 `yaml:"severity"`
}

// SemanticMatch is the semantic layer's verdict for one text.
type SemanticMatch struct {
	Score       float64 `json:"score"`
	Category    string  `json:"category"`
	MatchedText string  `json:"matched_text"`
	IsThreat    bool    `json:"is_threat"`
}

// SemanticMatcher scores texts by embedding similarity against a seeded
// in-memory vector store of known threat sentences. It catches paraphrases
// the rule layer's literal keyword matching misses.
type SemanticMatcher struct {
	db         *chromem.DB
	collection *chromem.Collection
	threshold  float32
	mu         sync.RWMutex
	ready      bool
}

// NewSemanticMatcher creates a matcher over the given embedding provider.
// Callers must LoadSeeds before Match.
func NewSemanticMatcher(embedder EmbeddingProvider) (*SemanticMatcher, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is nil")
	}

	db := chromem.NewDB()
	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}

	collection, err := db.CreateCollection("threat_seeds", nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return &SemanticMatcher{
		db:         db,
		collection: collection,
		threshold:  0.65,
	}, nil
}

// LoadSeeds loads threat seed sentences into the vector store. YAML seed
// files under configDir win; the built-in set is the fallback.
func (sm *SemanticMatcher) LoadSeeds(ctx context.Context, configDir string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	seeds := loadSeedFile(configDir)
	if seeds == nil {
		seeds = builtinThreatSeeds()
		log.Printf("[SEMANTIC] No seed file found, using %d built-in seeds", len(seeds))
	} else {
		log.Printf("[SEMANTIC] Loaded %d seeds from %s", len(seeds), configDir)
	}

	docs := make([]chromem.Document, len(seeds))
	for i, s := range seeds {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("seed_%d", i),
			Content: s.Text,
			Metadata: map[string]string{
				"category": s.Category,
				"severity": fmt.Sprintf("%.2f", s.Severity),
			},
		}
	}

	// Sequential embedding (1 worker) keeps load on the embedder predictable
	if err := sm.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("failed to add seeds: %w", err)
	}

	sm.ready = true
	return nil
}

// IsReady reports whether seeds have been loaded.
func (sm *SemanticMatcher) IsReady() bool {
	if sm == nil {
		return false
	}
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.ready
}

// Match returns the closest seed and its similarity.
func (sm *SemanticMatcher) Match(ctx context.Context, text string) (*SemanticMatch, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.ready {
		return nil, fmt.Errorf("semantic matcher not initialized - call LoadSeeds first")
	}

	results, err := sm.collection.Query(ctx, strings.ToLower(text), 3, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if len(results) == 0 {
		return &SemanticMatch{Category: "benign"}, nil
	}

	best := results[0]
	category := best.Metadata["category"]

	// A confident benign match suppresses the signal entirely
	if category == "benign" && best.Similarity > sm.threshold {
		return &SemanticMatch{Category: "benign"}, nil
	}

	return &SemanticMatch{
		Score:       float64(best.Similarity),
		Category:    category,
		MatchedText: best.Content,
		IsThreat:    best.Similarity >= sm.threshold && category != "benign",
	}, nil
}

// loadSeedFile reads threat_seeds.yaml from configDir; nil when absent or
// unparseable.
func loadSeedFile(configDir string) []ThreatSeed {
	if configDir == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(configDir, "threat_seeds.yaml"))
	if err != nil {
		return nil
	}
	var doc struct {
		Seeds []ThreatSeed `yaml:"seeds"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		log.Printf("[SEMANTIC] Failed to parse threat_seeds.yaml: %v", err)
		return nil
	}
	if len(doc.Seeds) == 0 {
		return nil
	}
	return doc.Seeds
}

var (
	cachedSeeds     []ThreatSeed
	cachedSeedsOnce sync.Once
)

// builtinThreatSeeds returns the curated seed set. Categories mirror the
// classifier's label vocabulary plus benign counter-examples.
func builtinThreatSeeds() []ThreatSeed {
	cachedSeedsOnce.Do(func() {
		cachedSeeds = []ThreatSeed{
			// Phishing
			{"Your account has been suspended, verify your identity immediately", "phishing", 1.0},
			{"Click this link to confirm your password before your account is locked", "phishing", 1.0},
			{"We detected unusual activity on your bank account, log in now to secure it", "phishing", 0.95},
			{"Update your payment information or your service will be cancelled", "phishing", 0.9},
			{"Security alert: confirm your login credentials within 24 hours", "phishing", 0.95},
			{"Your mailbox is full, click here to validate your email account", "phishing", 0.85},

			// Scam
			{"Congratulations, you have won a prize, send a small fee to claim it", "scam", 1.0},
			{"I am a prince with a large inheritance and need your help transferring money", "scam", 1.0},
			{"Invest now and double your money in one week, guaranteed returns", "scam", 0.95},
			{"You have been selected for a government grant, pay the processing fee", "scam", 0.9},
			{"Send gift cards to release your package held at customs", "scam", 0.9},

			// Spam
			{"Buy cheap medication online without a prescription, best prices", "spam", 0.8},
			{"Limited time offer, act now, massive discounts on everything", "spam", 0.7},
			{"Work from home and earn thousands per week, no experience needed", "spam", 0.8},
			{"Hot singles in your area are waiting to meet you", "spam", 0.75},

			// Propaganda
			{"They are hiding the truth from you, the mainstream media is lying", "propaganda", 0.8},
			{"Our enemies are destroying this country and only we can stop them", "propaganda", 0.85},
			{"Share this before it gets deleted, they don't want you to know", "propaganda", 0.8},

			// Benign counter-examples
			{"Can you help me reset my own password through the official site", "benign", 0.0},
			{"The quarterly invoice is attached, let me know if anything looks off", "benign", 0.0},
			{"Happy birthday! Hope you have a great day", "benign", 0.0},
			{"The meeting moved to 3pm, see the updated calendar invite", "benign", 0.0},
			{"Here is the article about online safety you asked for", "benign", 0.0},
		}
	})
	return cachedSeeds
}
