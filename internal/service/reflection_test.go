package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Harshitk-cp/echoform/internal/anchor"
	"github.com/Harshitk-cp/echoform/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestReflectionService(bs *memBeliefStore, scorer domain.SimilarityScorer) *ReflectionService {
	logger := zap.NewNop()
	return NewReflectionService(
		bs,
		NewSignalExtractor(anchor.Default(), scorer, logger),
		NewBeliefUpdater(bs, logger),
		NewEntropyDetector(),
		NewVolatilityEstimator(bs),
		logger,
	)
}

func riskScorer() *keywordScorer {
	return &keywordScorer{
		keywords: map[string]string{
			phraseRiskSeeking: "skydiving",
			phraseAlone:       "alone",
		},
		score: 0.8,
	}
}

func TestSubmit_UpdatesHypotheses(t *testing.T) {
	bs := newMemBeliefStore()
	svc := newTestReflectionService(bs, riskScorer())

	hyps, err := svc.Submit(context.Background(), "I want to go skydiving", "")
	require.NoError(t, err)
	require.Len(t, hyps, 1)
	assert.Equal(t, domain.AxisRiskTolerance, hyps[0].Axis)
	assert.InDelta(t, 0.5+0.9*0.8*0.1, hyps[0].ConfidenceScore, 1e-6)
	assert.Len(t, hyps[0].Signals, 1)
}

func TestSubmit_NoSignalReturnsCurrentSet(t *testing.T) {
	bs := newMemBeliefStore()
	seeded := bs.seed(domain.AxisResourceFocus, 0.7)
	svc := newTestReflectionService(bs, riskScorer())

	hyps, err := svc.Submit(context.Background(), "Had pasta for dinner.", "")
	require.NoError(t, err)
	require.Len(t, hyps, 1)
	assert.Equal(t, seeded.ID, hyps[0].ID)
	assert.Equal(t, 0.7, hyps[0].ConfidenceScore)
	assert.Zero(t, bs.txCount)
}

func TestSubmit_EmptyStateReturnsEmptyList(t *testing.T) {
	svc := newTestReflectionService(newMemBeliefStore(), riskScorer())
	hyps, err := svc.Submit(context.Background(), "", "")
	require.NoError(t, err)
	assert.NotNil(t, hyps)
	assert.Empty(t, hyps)
}

func TestSubmit_InvalidContextRejectedBeforeExtraction(t *testing.T) {
	scorer := riskScorer()
	svc := newTestReflectionService(newMemBeliefStore(), scorer)

	_, err := svc.Submit(context.Background(), "I want to go skydiving", "urgent")
	assert.ErrorIs(t, err, domain.ErrInvalidContext)
	assert.Zero(t, scorer.callCount())
}

func TestSubmit_ContentTooLong(t *testing.T) {
	scorer := riskScorer()
	svc := newTestReflectionService(newMemBeliefStore(), scorer)

	_, err := svc.Submit(context.Background(), strings.Repeat("x", MaxContentLength+1), "")
	assert.ErrorIs(t, err, ErrContentTooLong)
	assert.Zero(t, scorer.callCount())
}

func TestSubmit_ScorerFailureLeavesNoTrace(t *testing.T) {
	bs := newMemBeliefStore()
	seeded := bs.seed(domain.AxisRiskTolerance, 0.6)
	svc := newTestReflectionService(bs, &keywordScorer{err: errors.New("timeout")})

	_, err := svc.Submit(context.Background(), "I want to go skydiving", "clarification")
	require.ErrorIs(t, err, domain.ErrScorerUnavailable)

	h, _ := bs.GetHypothesis(context.Background(), seeded.ID)
	assert.Equal(t, 0.6, h.ConfidenceScore)
	assert.Zero(t, bs.txCount)
}

func TestDashboard(t *testing.T) {
	bs := newMemBeliefStore()
	svc := newTestReflectionService(bs, riskScorer())

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, d.Hypotheses)
	assert.Empty(t, d.Hypotheses)
	assert.Equal(t, domain.DriftStable, d.DriftStatus)

	risk := bs.seed(domain.AxisRiskTolerance, 0.52)
	bs.seed(domain.AxisSocialBattery, 0.5)
	bs.addSnapshot(risk.ID, 0.5, time.Now().Add(-time.Hour))
	bs.addSnapshot(risk.ID, 0.6, time.Now().Add(-time.Minute))

	d, err = svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.Len(t, d.Hypotheses, 2)
	assert.Equal(t, domain.DriftHighEntropy, d.DriftStatus)
	for _, v := range d.Hypotheses {
		if v.ID == risk.ID {
			assert.InDelta(t, 0.05, v.Volatility, 1e-9)
		} else {
			assert.Zero(t, v.Volatility)
		}
	}
}

func TestHistoryAndVolatility_UnknownHypothesis(t *testing.T) {
	svc := newTestReflectionService(newMemBeliefStore(), riskScorer())

	_, err := svc.History(context.Background(), uuid.New(), 7)
	assert.ErrorIs(t, err, ErrHypothesisNotFound)
	_, err = svc.Volatility(context.Background(), uuid.New(), 7)
	assert.ErrorIs(t, err, ErrHypothesisNotFound)
}

func TestHistory_ReturnsSnapshotsInWindow(t *testing.T) {
	bs := newMemBeliefStore()
	h := bs.seed(domain.AxisSocialBattery, 0.5)
	bs.addSnapshot(h.ID, 0.45, time.Now().Add(-30*24*time.Hour))
	bs.addSnapshot(h.ID, 0.55, time.Now().Add(-time.Hour))
	svc := newTestReflectionService(bs, riskScorer())

	snaps, err := svc.History(context.Background(), h.ID, 7)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 0.55, snaps[0].ConfidenceScore)

	snaps, err = svc.History(context.Background(), h.ID, 60)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
}

func TestInferenceLog(t *testing.T) {
	bs := newMemBeliefStore()
	svc := newTestReflectionService(bs, riskScorer())

	logs, err := svc.InferenceLog(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, logs)

	_, err = svc.Submit(context.Background(), "skydiving then home alone", "")
	require.NoError(t, err)

	logs, err = svc.InferenceLog(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Contains(t, logs, "Signal extracted: SOCIAL_BATTERY (-0.80, weight 0.80, decayed 0.80) -> High Social Battery")
	assert.Contains(t, logs, "Signal extracted: RISK_TOLERANCE (+0.90, weight 0.80, decayed 0.80) -> High Risk Tolerance")

	logs, err = svc.InferenceLog(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
