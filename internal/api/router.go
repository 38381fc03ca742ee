package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Harshitk-cp/echoform/internal/anchor"
	"github.com/Harshitk-cp/echoform/internal/api/handlers"
	mw "github.com/Harshitk-cp/echoform/internal/api/middleware"
	"github.com/Harshitk-cp/echoform/internal/buildconfig"
	"github.com/Harshitk-cp/echoform/internal/config"
	"github.com/Harshitk-cp/echoform/internal/domain"
	"github.com/Harshitk-cp/echoform/internal/embedding"
	"github.com/Harshitk-cp/echoform/internal/metrics"
	"github.com/Harshitk-cp/echoform/internal/service"
	"github.com/Harshitk-cp/echoform/internal/store"
	"github.com/Harshitk-cp/echoform/internal/store/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router  *chi.Mux
	Drift   *service.DriftMonitor
	Metrics *metrics.Metrics
}

// NewApp builds the embedding scorer from config and wires every service
// over bs. cache may be nil.
func NewApp(bs domain.BeliefStore, cache domain.EmbeddingCache, logger *zap.Logger) (*App, error) {
	anchors := anchor.Default()
	if path := config.AnchorsPath(); path != "" {
		var err error
		anchors, err = anchor.Load(path)
		if err != nil {
			return nil, err
		}
		logger.Info("anchor table loaded", zap.String("path", path), zap.Int("anchors", len(anchors)))
	}

	provider := config.EmbeddingProvider()
	client, err := embedding.NewClient(provider, config.EmbeddingAPIKey(), config.EmbeddingModel())
	if err != nil {
		return nil, fmt.Errorf("embedding client: %w", err)
	}
	logger.Info("embedding client initialized", zap.String("provider", provider), zap.String("model", client.Model()))

	scorer := embedding.NewScorer(client, cache, logger)

	// Anchors are embedded once up front; a failure here is not fatal since
	// the scorer embeds lazily and reflections will surface the error.
	phrases := make([]string, len(anchors))
	for i, a := range anchors {
		phrases[i] = a.Phrase
	}
	warmCtx, cancel := context.WithTimeout(context.Background(), config.ScorerTimeout())
	defer cancel()
	if err := scorer.Warm(warmCtx, phrases); err != nil {
		logger.Warn("anchor warm-up failed", zap.Error(err))
	}

	return newApp(bs, scorer, anchors, logger), nil
}

func newApp(bs domain.BeliefStore, scorer domain.SimilarityScorer, anchors []domain.Anchor, logger *zap.Logger) *App {
	m := metrics.New()

	// Services
	extractor := service.NewSignalExtractor(anchors, scorer, logger)
	extractor.SetThreshold(config.SimilarityThreshold())
	extractor.SetConcurrency(config.ExtractConcurrency())
	extractor.SetTimeout(config.ScorerTimeout())
	extractor.SetMetrics(m)

	updater := service.NewBeliefUpdater(bs, logger)
	updater.SetMetrics(m)

	entropy := service.NewEntropyDetector()
	volatility := service.NewVolatilityEstimator(bs)
	reflectionSvc := service.NewReflectionService(bs, extractor, updater, entropy, volatility, logger)

	drift := service.NewDriftMonitor(bs, entropy, logger)
	drift.SetInterval(config.DriftCheckInterval())
	drift.SetMetrics(m)

	// Handlers
	reflectionHandler := handlers.NewReflectionHandler(reflectionSvc, logger)
	dashboardHandler := handlers.NewDashboardHandler(reflectionSvc, logger)
	hypothesisHandler := handlers.NewHypothesisHandler(reflectionSvc, logger)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Metrics(m))
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: config.CORSAllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders: []string{mw.RequestIDHeader},
		MaxAge:         300,
	}))

	// Health and metrics (no auth)
	r.Get("/health", healthHandler(bs))
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		r.Post("/entry", reflectionHandler.Entry)
		r.Get("/dashboard", dashboardHandler.Dashboard)
		r.Get("/entropy-check", dashboardHandler.EntropyCheck)
		r.Get("/inference-logs", dashboardHandler.InferenceLogs)

		r.Route("/hypotheses", func(r chi.Router) {
			r.Get("/", reflectionHandler.ListHypotheses)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/snapshots", hypothesisHandler.Snapshots)
				r.Get("/volatility", hypothesisHandler.Volatility)
			})
		})
	})

	return &App{Router: r, Drift: drift, Metrics: m}
}

func healthHandler(bs domain.BeliefStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		body := map[string]string{"status": "ok"}
		for k, v := range buildconfig.VersionInfo() {
			body[k] = v
		}

		status := http.StatusOK
		if err := bs.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "error"
			body["error"] = err.Error()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.BeliefStore      = (*store.BeliefStore)(nil)
	_ domain.EmbeddingCache   = (*store.EmbeddingCacheStore)(nil)
	_ domain.BeliefStore      = (*sqlite.Store)(nil)
	_ domain.EmbeddingCache   = (*sqlite.Store)(nil)
	_ domain.SimilarityScorer = (*embedding.Scorer)(nil)
	_ embedding.Client        = (*embedding.OpenAIClient)(nil)
	_ embedding.Client        = (*embedding.MockClient)(nil)
)
