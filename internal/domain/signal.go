package domain

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	// HalfLifeDays is the default half-life of a signal's weight.
	HalfLifeDays = 30.0
	// DefaultDecayFactor is the per-day exponential decay rate for the default half-life.
	DefaultDecayFactor = math.Ln2 / HalfLifeDays
)

var (
	ErrInvalidDirection    = errors.New("direction must be within [-1, 1]")
	ErrInvalidWeight       = errors.New("weight must be within (0, 1]")
	ErrInvalidDecayFactor  = errors.New("decay factor must be non-negative")
	ErrSignalAlreadyLinked = errors.New("signal is already linked to another hypothesis")
)

// Signal is one piece of directional, weighted evidence for an axis.
type Signal struct {
	ID           uuid.UUID    `json:"id"`
	Axis         IdentityAxis `json:"axis"`
	Direction    float64      `json:"direction"`
	Weight       float64      `json:"weight"`
	DecayFactor  float64      `json:"decay_factor"`
	HypothesisID *uuid.UUID   `json:"hypothesis_id,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}

// NewSignal builds a validated signal created at the given instant.
// Out-of-domain values are rejected, never clamped.
func NewSignal(axis IdentityAxis, direction, weight float64, at time.Time) (*Signal, error) {
	s := &Signal{
		ID:          uuid.New(),
		Axis:        axis,
		Direction:   direction,
		Weight:      weight,
		DecayFactor: DefaultDecayFactor,
		Timestamp:   at,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Signal) Validate() error {
	if !ValidAxis(string(s.Axis)) {
		return ErrUnknownAxis
	}
	if math.IsNaN(s.Direction) || s.Direction < -1 || s.Direction > 1 {
		return ErrInvalidDirection
	}
	if math.IsNaN(s.Weight) || s.Weight <= 0 || s.Weight > 1 {
		return ErrInvalidWeight
	}
	if math.IsNaN(s.DecayFactor) || s.DecayFactor < 0 {
		return ErrInvalidDecayFactor
	}
	return nil
}

// LinkTo records the hypothesis this signal was folded into. The link is set
// once; linking again to the same hypothesis is a no-op.
func (s *Signal) LinkTo(hypothesisID uuid.UUID) error {
	if s.HypothesisID != nil {
		if *s.HypothesisID == hypothesisID {
			return nil
		}
		return ErrSignalAlreadyLinked
	}
	id := hypothesisID
	s.HypothesisID = &id
	return nil
}
