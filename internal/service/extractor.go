package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/echoform/internal/domain"
	"github.com/Harshitk-cp/echoform/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultSimilarityThreshold is the similarity an anchor must exceed to emit a signal.
	DefaultSimilarityThreshold = 0.6
	// DefaultExtractConcurrency is how many anchors are scored at once.
	DefaultExtractConcurrency = 4
	// DefaultScorerTimeout bounds one extraction pass.
	DefaultScorerTimeout = 10 * time.Second
)

// SignalExtractor maps free text to signals by comparing it against a fixed
// anchor table with an injected similarity scorer.
type SignalExtractor struct {
	anchors     []domain.Anchor
	scorer      domain.SimilarityScorer
	threshold   float64
	concurrency int
	timeout     time.Duration
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

func NewSignalExtractor(anchors []domain.Anchor, scorer domain.SimilarityScorer, logger *zap.Logger) *SignalExtractor {
	return &SignalExtractor{
		anchors:     append([]domain.Anchor(nil), anchors...),
		scorer:      scorer,
		threshold:   DefaultSimilarityThreshold,
		concurrency: DefaultExtractConcurrency,
		timeout:     DefaultScorerTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

func (e *SignalExtractor) SetThreshold(t float64) {
	e.threshold = t
}

func (e *SignalExtractor) SetConcurrency(n int) {
	if n > 0 {
		e.concurrency = n
	}
}

func (e *SignalExtractor) SetTimeout(d time.Duration) {
	e.timeout = d
}

func (e *SignalExtractor) SetMetrics(m *metrics.Metrics) {
	e.metrics = m
}

// Anchors returns a copy of the anchor table.
func (e *SignalExtractor) Anchors() []domain.Anchor {
	return append([]domain.Anchor(nil), e.anchors...)
}

// Extract scores content against every anchor and returns one signal per
// anchor whose similarity exceeds the threshold, in anchor order. Blank
// content yields no signals. Any scorer failure fails the whole pass.
func (e *SignalExtractor) Extract(ctx context.Context, content string) ([]domain.Signal, error) {
	if strings.TrimSpace(content) == "" {
		return []domain.Signal{}, nil
	}

	start := time.Now()
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	scores := make([]float64, len(e.anchors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, a := range e.anchors {
		g.Go(func() error {
			sim, err := e.scorer.Similarity(gctx, content, a.Phrase)
			if err != nil {
				return err
			}
			scores[i] = sim
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if e.metrics != nil {
			e.metrics.ScorerFailures.Inc()
		}
		e.logger.Warn("signal extraction failed", zap.Error(err))
		if errors.Is(err, domain.ErrScorerUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrScorerUnavailable, err)
	}

	now := e.now()
	signals := []domain.Signal{}
	for i, a := range e.anchors {
		sim := scores[i]
		if sim <= e.threshold {
			continue
		}
		if sim > 1 {
			sim = 1
		}
		sig, err := domain.NewSignal(a.Axis, a.Direction, sim, now)
		if err != nil {
			return nil, fmt.Errorf("build signal for anchor %q: %w", a.Phrase, err)
		}
		signals = append(signals, *sig)
		if e.metrics != nil {
			e.metrics.SignalsExtracted.WithLabelValues(string(a.Axis)).Inc()
		}
	}

	if e.metrics != nil {
		e.metrics.ExtractionSeconds.Observe(time.Since(start).Seconds())
	}
	e.logger.Debug("signals extracted",
		zap.Int("anchors", len(e.anchors)),
		zap.Int("signals", len(signals)),
		zap.Duration("duration", time.Since(start)))

	return signals, nil
}
