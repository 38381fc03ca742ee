package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Harshitk-cp/echoform/internal/domain"
	"github.com/Harshitk-cp/echoform/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BeliefUpdater folds signal batches into per-axis hypotheses. It is the only
// writer of hypothesis confidence.
type BeliefUpdater struct {
	store   domain.BeliefStore
	seq     *axisSequencer
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewBeliefUpdater(store domain.BeliefStore, logger *zap.Logger) *BeliefUpdater {
	return &BeliefUpdater{
		store:  store,
		seq:    newAxisSequencer(),
		logger: logger,
		now:    time.Now,
	}
}

func (u *BeliefUpdater) SetMetrics(m *metrics.Metrics) {
	u.metrics = m
}

// Update applies one batch of signals. For every axis in the batch it
// resolves (or creates) the hypothesis, stores the signals, moves the
// confidence by the decayed net impact times the context's learning rate,
// and appends a snapshot. The whole batch commits as one transaction.
// Callers touching the same axis are served in the order they called Update.
func (u *BeliefUpdater) Update(ctx context.Context, signals []domain.Signal, uc domain.UpdateContext) ([]domain.Hypothesis, error) {
	uc, err := domain.ParseUpdateContext(string(uc))
	if err != nil {
		return nil, err
	}
	if len(signals) == 0 {
		return []domain.Hypothesis{}, nil
	}

	byAxis := make(map[domain.IdentityAxis][]domain.Signal)
	var axes []domain.IdentityAxis
	for _, s := range signals {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("invalid signal: %w", err)
		}
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		if _, seen := byAxis[s.Axis]; !seen {
			axes = append(axes, s.Axis)
		}
		byAxis[s.Axis] = append(byAxis[s.Axis], s)
	}
	domain.SortAxes(axes)

	release, err := u.seq.acquire(ctx, axes)
	if err != nil {
		return nil, err
	}
	defer release()

	now := u.now()
	rate := uc.LearningRate()

	var updated []domain.Hypothesis
	err = u.store.InTx(ctx, func(ctx context.Context, tx domain.BeliefTx) error {
		updated = updated[:0]
		for _, axis := range axes {
			h, err := domain.NewHypothesis(axis)
			if err != nil {
				return err
			}
			if err := tx.UpsertHypothesis(ctx, h); err != nil {
				return fmt.Errorf("resolve hypothesis %q: %w", h.Label, err)
			}

			batch := byAxis[axis]
			for i := range batch {
				if err := batch[i].LinkTo(h.ID); err != nil {
					return err
				}
				if err := tx.CreateSignal(ctx, &batch[i]); err != nil {
					return fmt.Errorf("store signal: %w", err)
				}
			}

			net := NetImpact(batch, now)
			confidence := domain.ClampConfidence(h.ConfidenceScore + net*rate)

			if err := tx.UpdateConfidence(ctx, h.ID, confidence, now); err != nil {
				return fmt.Errorf("update confidence for %q: %w", h.Label, err)
			}
			snap := &domain.HypothesisSnapshot{
				ID:              uuid.New(),
				HypothesisID:    h.ID,
				ConfidenceScore: confidence,
				Timestamp:       now,
			}
			if err := tx.CreateSnapshot(ctx, snap); err != nil {
				return fmt.Errorf("record snapshot for %q: %w", h.Label, err)
			}

			u.logger.Debug("hypothesis updated",
				zap.String("label", h.Label),
				zap.Int("signals", len(batch)),
				zap.Float64("net_impact", net),
				zap.Float64("previous", h.ConfidenceScore),
				zap.Float64("confidence", confidence),
				zap.String("context", string(uc)))

			h.ConfidenceScore = confidence
			h.UpdatedAt = now
			h.Signals, err = tx.ListSignalsByHypothesis(ctx, h.ID)
			if err != nil {
				return fmt.Errorf("list signals for %q: %w", h.Label, err)
			}
			updated = append(updated, *h)
		}
		return nil
	})
	if err != nil {
		u.logger.Error("belief update rolled back", zap.Int("axes", len(axes)), zap.Error(err))
		return nil, err
	}

	if u.metrics != nil {
		for _, h := range updated {
			u.metrics.HypothesisUpdates.WithLabelValues(string(h.Axis), string(uc)).Inc()
			u.metrics.Confidence.WithLabelValues(string(h.Axis)).Set(h.ConfidenceScore)
		}
	}

	return updated, nil
}
