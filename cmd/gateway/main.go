// Guardian gateway: HTTP front end for text threat analysis and online
// learning. Wires the five signal classifiers, the ensemble engine, the
// feature extractor, the online model, and the training orchestrator.
package main

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/cypherlabs/guardian/pkg/cache"
	"github.com/cypherlabs/guardian/pkg/classify"
	"github.com/cypherlabs/guardian/pkg/config"
	"github.com/cypherlabs/guardian/pkg/ensemble"
	"github.com/cypherlabs/guardian/pkg/features"
	"github.com/cypherlabs/guardian/pkg/httputil"
	"github.com/cypherlabs/guardian/pkg/online"
	"github.com/cypherlabs/guardian/pkg/telemetry"
	"github.com/cypherlabs/guardian/pkg/training"
)

// Version is the release version, set at build time via -ldflags.
var Version = "dev"

type server struct {
	cfg       *config.Config
	engine    *ensemble.Engine
	extractor *features.Extractor
	model     *online.Model
	trainer   *training.Orchestrator
	results   *cache.Cache
	trainSem  *httputil.Semaphore
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.NewDefaultConfig()
	cfg.MustValidate()

	ctx := context.Background()
	srv := buildServer(ctx, cfg)

	app := fiber.New(fiber.Config{
		AppName: "Guardian",
	})

	app.Get("/health", srv.handleHealth)
	app.Post("/v1/analyze", srv.handleAnalyze)
	app.Post("/v1/ml/predict", srv.handlePredict)
	app.Post("/v1/ml/train", srv.handleTrain)
	app.Get("/v1/ml/training-status", srv.handleTrainingStatus)
	app.Post("/v1/ml/feedback", srv.handleFeedback)

	log.Printf("[STARTUP] Guardian v%s listening on %s", Version, cfg.ListenAddr)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatalf("[STARTUP] FATAL: server failed: %v", err)
	}
}

// buildServer constructs the full analysis and training stack. Optional
// layers (ONNX models, semantic embeddings, Postgres, Redis) degrade to
// their fallbacks instead of blocking startup.
func buildServer(ctx context.Context, cfg *config.Config) *server {
	var semantic *classify.SemanticMatcher
	if cfg.EnableSemantics {
		embedder := classify.NewOllamaEmbedder(cfg.OllamaBaseURL, cfg.EmbeddingModel)
		sm, err := classify.NewSemanticMatcher(embedder)
		if err != nil {
			log.Printf("[STARTUP] Semantic layer unavailable: %v", err)
		} else if err := sm.LoadSeeds(ctx, cfg.ConfigDir); err != nil {
			log.Printf("[STARTUP] Semantic layer unavailable: %v", err)
		} else {
			semantic = sm
		}
	}

	intent := classify.NewIntentClassifier(classify.IntentClassifierConfig{
		ModelPath: cfg.IntentModelPath,
		Semantic:  semantic,
	})
	engine := ensemble.New(
		classify.NewAIDetector(cfg.AIModelPath, 0.5),
		intent,
		classify.NewStylometryClassifier(),
		classify.NewURLClassifier(),
		classify.NewKeywordClassifier(cfg.ConfigDir),
		cfg.HighThreshold,
		cfg.MediumThreshold,
	)

	extractor := features.NewExtractor(intent)
	model := online.NewModel(cfg.ModelDir)

	var samples training.SampleStore
	var metadata training.MetadataStore
	if cfg.PostgresURL != "" {
		pg, err := training.OpenPG(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatalf("[STARTUP] FATAL: postgres connection failed: %v", err)
		}
		samples, metadata = pg, pg
		log.Println("[STARTUP] Training stores: postgres")
	} else {
		mem := training.NewMemStore()
		samples, metadata = mem, mem
		log.Println("[STARTUP] Training stores: in-memory (set GUARDIAN_POSTGRES_URL for persistence)")
	}

	trainer := training.NewOrchestrator(model, samples, metadata, training.Options{
		BatchSize:    cfg.TrainingBatchSize,
		MaxSamples:   cfg.TrainingMaxSamples,
		BatchTimeout: cfg.BatchTimeout,
	})

	return &server{
		cfg:       cfg,
		engine:    engine,
		extractor: extractor,
		model:     model,
		trainer:   trainer,
		results:   cache.New(ctx, cfg.RedisURL, cfg.CacheTTL),
		trainSem:  httputil.NewSemaphore(cfg.MaxTrainingJobs),
	}
}

func (s *server) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":        "ok",
		"version":       Version,
		"model_loaded":  s.model.IsInitialized(),
		"model_version": s.model.Version(),
	})
}

type analyzeRequest struct {
	Text            string  `json:"text"`
	AccountID       *string `json:"account_id,omitempty"`
	ConsentVerified bool    `json:"consent_verified"`
	StoreSample     bool    `json:"store_sample"`
}

func (s *server) handleAnalyze(c fiber.Ctx) error {
	var req analyzeRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "text field is required"})
	}

	key := cache.Key(req.Text)
	var cached ensemble.Result
	if s.results.Get(c.Context(), key, &cached) {
		return c.JSON(cached)
	}

	result := s.engine.Analyze(c.Context(), req.Text)
	s.results.Set(c.Context(), key, result)

	telemetry.GlobalClient.Track("analyze", map[string]interface{}{
		"risk_level": result.RiskLevel,
	})

	if req.StoreSample {
		s.storeSample(c.Context(), req, result)
	}
	return c.JSON(result)
}

// storeSample persists the analysis as a training example labeled with the
// intent verdict. The raw text is not stored, only its feature vector.
func (s *server) storeSample(ctx context.Context, req analyzeRequest, result ensemble.Result) {
	accountID, ok := parseAccountID(req.AccountID)
	if !ok {
		return
	}

	fs := s.extractor.Extract(ctx, req.Text)
	sample := &training.Sample{
		AccountID:       accountID,
		Features:        fs.Vector,
		Label:           result.Intent.Intent,
		Confidence:      result.Intent.Confidence,
		Source:          training.SourceInference,
		ConsentVerified: req.ConsentVerified,
	}
	if err := s.trainer.StoreSample(ctx, sample); err != nil {
		log.Printf("[TRAINER] Failed to store sample: %v", err)
	}
}

func (s *server) handlePredict(c fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "text field is required"})
	}

	fs := s.extractor.Extract(c.Context(), req.Text)
	prediction := s.model.Predict(fs)
	return c.JSON(prediction)
}

func (s *server) handleTrain(c fiber.Ctx) error {
	var req struct {
		AccountID *string `json:"account_id,omitempty"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	accountID, ok := parseAccountID(req.AccountID)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "invalid account_id"})
	}

	// Fire-and-forget with a bounded number of in-flight triggers. The
	// orchestrator's own exclusion flag still serializes actual training.
	if !s.trainSem.TryAcquire() {
		return c.Status(429).JSON(fiber.Map{
			"status":  "rejected",
			"message": "too many pending training requests",
		})
	}
	go func() {
		defer s.trainSem.Release()
		report := s.trainer.RunTraining(context.Background(), accountID)
		log.Printf("[TRAINER] Background run finished: status=%s samples=%d",
			report.Status, report.SamplesTrained)
	}()

	return c.Status(202).JSON(fiber.Map{"status": "training_started"})
}

func (s *server) handleTrainingStatus(c fiber.Ctx) error {
	var accountID *uuid.UUID
	if q := c.Query("account_id"); q != "" {
		id, err := uuid.Parse(q)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid account_id"})
		}
		accountID = &id
	}

	status, err := s.trainer.GetStatus(c.Context(), accountID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(status)
}

func (s *server) handleFeedback(c fiber.Ctx) error {
	var req struct {
		RecordID       string `json:"record_id"`
		CorrectedLabel string `json:"corrected_label"`
		Retrain        bool   `json:"retrain"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	recordID, err := uuid.Parse(req.RecordID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid record_id"})
	}
	if !validLabel(req.CorrectedLabel) {
		return c.Status(400).JSON(fiber.Map{"error": "invalid corrected_label"})
	}

	result := s.trainer.ApplyFeedback(c.Context(), recordID, req.CorrectedLabel, req.Retrain)
	if result.Status == training.StatusError {
		code := 500
		if result.Message == training.ErrNotFound.Error() {
			code = 404
		}
		return c.Status(code).JSON(result)
	}
	return c.JSON(result)
}

func parseAccountID(raw *string) (*uuid.UUID, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func validLabel(label string) bool {
	for _, cls := range online.Classes {
		if cls == label {
			return true
		}
	}
	return false
}
