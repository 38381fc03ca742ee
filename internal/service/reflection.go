package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/echoform/internal/domain"
	"github.com/Harshitk-cp/echoform/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrHypothesisNotFound = errors.New("hypothesis not found")
	ErrContentTooLong     = errors.New("content exceeds maximum length")
)

const (
	// MaxContentLength bounds a single reflection, in bytes.
	MaxContentLength = 10000

	DefaultInferenceLogLimit = 5
	MaxInferenceLogLimit     = 100
)

// HypothesisView is a hypothesis as shown on the dashboard.
type HypothesisView struct {
	ID              uuid.UUID           `json:"id"`
	Label           string              `json:"label"`
	Axis            domain.IdentityAxis `json:"axis"`
	ConfidenceScore float64             `json:"confidence_score"`
	Volatility      float64             `json:"volatility"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type Dashboard struct {
	Hypotheses  []HypothesisView   `json:"hypotheses"`
	DriftStatus domain.DriftStatus `json:"drift_status"`
}

// ReflectionService runs one unit of work per reflection (extract, then
// update) and answers the read-side queries.
type ReflectionService struct {
	store      domain.BeliefStore
	extractor  *SignalExtractor
	updater    *BeliefUpdater
	entropy    *EntropyDetector
	volatility *VolatilityEstimator
	logger     *zap.Logger
}

func NewReflectionService(bs domain.BeliefStore, ex *SignalExtractor, up *BeliefUpdater, ed *EntropyDetector, ve *VolatilityEstimator, logger *zap.Logger) *ReflectionService {
	return &ReflectionService{
		store:      bs,
		extractor:  ex,
		updater:    up,
		entropy:    ed,
		volatility: ve,
		logger:     logger,
	}
}

// Submit processes a reflection. The context is validated before anything
// else; extraction fully completes before any confidence is touched, so a
// scorer failure leaves no trace. Input without signals returns the current
// hypothesis set unchanged.
func (s *ReflectionService) Submit(ctx context.Context, content string, rawContext string) ([]domain.Hypothesis, error) {
	uc, err := domain.ParseUpdateContext(rawContext)
	if err != nil {
		return nil, err
	}
	if len(content) > MaxContentLength {
		return nil, ErrContentTooLong
	}

	signals, err := s.extractor.Extract(ctx, content)
	if err != nil {
		return nil, err
	}
	if len(signals) == 0 {
		return s.ListHypotheses(ctx)
	}

	updated, err := s.updater.Update(ctx, signals, uc)
	if err != nil {
		return nil, err
	}

	s.logger.Info("reflection processed",
		zap.Int("signals", len(signals)),
		zap.Int("hypotheses_updated", len(updated)),
		zap.String("context", string(uc)))
	return updated, nil
}

// ListHypotheses returns every hypothesis with its signal history.
func (s *ReflectionService) ListHypotheses(ctx context.Context) ([]domain.Hypothesis, error) {
	hyps, err := s.store.ListHypotheses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list hypotheses: %w", err)
	}
	for i := range hyps {
		sigs, err := s.store.ListSignalsByHypothesis(ctx, hyps[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list signals: %w", err)
		}
		hyps[i].Signals = sigs
	}
	if hyps == nil {
		hyps = []domain.Hypothesis{}
	}
	return hyps, nil
}

func (s *ReflectionService) Dashboard(ctx context.Context) (*Dashboard, error) {
	hyps, err := s.store.ListHypotheses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list hypotheses: %w", err)
	}

	views := make([]HypothesisView, 0, len(hyps))
	for _, h := range hyps {
		vol, err := s.volatility.Volatility(ctx, h.ID, DefaultVolatilityWindowDays)
		if err != nil {
			return nil, err
		}
		views = append(views, HypothesisView{
			ID:              h.ID,
			Label:           h.Label,
			Axis:            h.Axis,
			ConfidenceScore: h.ConfidenceScore,
			Volatility:      vol,
			CreatedAt:       h.CreatedAt,
			UpdatedAt:       h.UpdatedAt,
		})
	}

	return &Dashboard{
		Hypotheses:  views,
		DriftStatus: s.entropy.DriftStatus(hyps),
	}, nil
}

func (s *ReflectionService) Entropy(ctx context.Context) (domain.EntropyReport, error) {
	hyps, err := s.store.ListHypotheses(ctx)
	if err != nil {
		return domain.EntropyReport{}, fmt.Errorf("list hypotheses: %w", err)
	}
	return s.entropy.Check(hyps), nil
}

// History returns the snapshots of a hypothesis within the trailing window.
func (s *ReflectionService) History(ctx context.Context, id uuid.UUID, windowDays int) ([]domain.HypothesisSnapshot, error) {
	if _, err := s.getHypothesis(ctx, id); err != nil {
		return nil, err
	}
	if windowDays <= 0 {
		windowDays = DefaultVolatilityWindowDays
	}
	since := time.Now().Add(-time.Duration(windowDays) * 24 * time.Hour)
	snaps, err := s.store.ListSnapshotsSince(ctx, id, since)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	if snaps == nil {
		snaps = []domain.HypothesisSnapshot{}
	}
	return snaps, nil
}

func (s *ReflectionService) Volatility(ctx context.Context, id uuid.UUID, windowDays int) (float64, error) {
	if _, err := s.getHypothesis(ctx, id); err != nil {
		return 0, err
	}
	return s.volatility.Volatility(ctx, id, windowDays)
}

// InferenceLog describes the most recent signals, newest first.
func (s *ReflectionService) InferenceLog(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultInferenceLogLimit
	}
	if limit > MaxInferenceLogLimit {
		limit = MaxInferenceLogLimit
	}

	sigs, err := s.store.ListRecentSignals(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent signals: %w", err)
	}
	hyps, err := s.store.ListHypotheses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list hypotheses: %w", err)
	}
	labels := make(map[uuid.UUID]string, len(hyps))
	for _, h := range hyps {
		labels[h.ID] = h.Label
	}

	now := time.Now()
	logs := make([]string, 0, len(sigs))
	for _, sig := range sigs {
		line := fmt.Sprintf("Signal extracted: %s (%+.2f, weight %.2f, decayed %.2f)",
			sig.Axis.Code(), sig.Direction, sig.Weight, Decay(sig, now))
		if sig.HypothesisID != nil {
			if label, ok := labels[*sig.HypothesisID]; ok {
				line += " -> " + label
			}
		}
		logs = append(logs, line)
	}
	return logs, nil
}

func (s *ReflectionService) getHypothesis(ctx context.Context, id uuid.UUID) (*domain.Hypothesis, error) {
	h, err := s.store.GetHypothesis(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrHypothesisNotFound
		}
		return nil, err
	}
	return h, nil
}
