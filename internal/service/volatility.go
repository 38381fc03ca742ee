package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Harshitk-cp/echoform/internal/domain"
	"github.com/google/uuid"
)

// DefaultVolatilityWindowDays is the trailing window used by the dashboard.
const DefaultVolatilityWindowDays = 7

type VolatilityEstimator struct {
	store domain.BeliefStore
	now   func() time.Time
}

func NewVolatilityEstimator(store domain.BeliefStore) *VolatilityEstimator {
	return &VolatilityEstimator{store: store, now: time.Now}
}

// Volatility is the population standard deviation of the hypothesis'
// snapshot confidences over the trailing window. Fewer than two snapshots
// give 0. A non-positive window falls back to the default.
func (v *VolatilityEstimator) Volatility(ctx context.Context, hypothesisID uuid.UUID, windowDays int) (float64, error) {
	if windowDays <= 0 {
		windowDays = DefaultVolatilityWindowDays
	}
	since := v.now().Add(-time.Duration(windowDays) * 24 * time.Hour)

	snaps, err := v.store.ListSnapshotsSince(ctx, hypothesisID, since)
	if err != nil {
		return 0, fmt.Errorf("list snapshots: %w", err)
	}

	values := make([]float64, len(snaps))
	for i, s := range snaps {
		values[i] = s.ConfidenceScore
	}
	return PopulationStdDev(values), nil
}

// PopulationStdDev returns the unweighted population standard deviation,
// or 0 for fewer than two values.
func PopulationStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
