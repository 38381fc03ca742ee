package service

import (
	"math"
	"testing"
	"time"

	"github.com/Harshitk-cp/echoform/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDecay(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name   string
		signal domain.Signal
		want   float64
	}{
		{
			name:   "no elapsed time keeps full weight",
			signal: domain.Signal{Weight: 0.8, DecayFactor: domain.DefaultDecayFactor, Timestamp: now},
			want:   0.8,
		},
		{
			name:   "one half-life halves the weight",
			signal: domain.Signal{Weight: 0.8, DecayFactor: domain.DefaultDecayFactor, Timestamp: now.Add(-domain.HalfLifeDays * day)},
			want:   0.4,
		},
		{
			name:   "two half-lives quarter the weight",
			signal: domain.Signal{Weight: 1, DecayFactor: domain.DefaultDecayFactor, Timestamp: now.Add(-2 * domain.HalfLifeDays * day)},
			want:   0.25,
		},
		{
			name:   "future timestamp is not boosted",
			signal: domain.Signal{Weight: 0.5, DecayFactor: domain.DefaultDecayFactor, Timestamp: now.Add(3 * day)},
			want:   0.5,
		},
		{
			name:   "zero factor falls back to default",
			signal: domain.Signal{Weight: 1, Timestamp: now.Add(-domain.HalfLifeDays * day)},
			want:   0.5,
		},
		{
			name:   "custom factor",
			signal: domain.Signal{Weight: 1, DecayFactor: 0.1, Timestamp: now.Add(-10 * day)},
			want:   math.Exp(-1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Decay(tt.signal, now), 1e-9)
		})
	}
}

func TestDecay_IsRecomputedPerCall(t *testing.T) {
	start := time.Now()
	s := domain.Signal{Weight: 1, DecayFactor: domain.DefaultDecayFactor, Timestamp: start}

	early := Decay(s, start.Add(24*time.Hour))
	late := Decay(s, start.Add(48*time.Hour))
	assert.Greater(t, early, late)
	assert.InDelta(t, 1.0, Decay(s, start), 1e-12)
}

func TestNetImpact(t *testing.T) {
	now := time.Now()
	signals := []domain.Signal{
		{Direction: 0.9, Weight: 0.5, DecayFactor: domain.DefaultDecayFactor, Timestamp: now},
		{Direction: -0.8, Weight: 0.5, DecayFactor: domain.DefaultDecayFactor, Timestamp: now},
	}
	assert.InDelta(t, 0.05, NetImpact(signals, now), 1e-9)
	assert.Zero(t, NetImpact(nil, now))
}
