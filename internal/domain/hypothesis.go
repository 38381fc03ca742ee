package domain

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// NeutralPrior is the confidence a hypothesis starts with before any evidence.
const NeutralPrior = 0.5

var ErrInvalidConfidence = errors.New("confidence score must be within [0, 1]")

// Hypothesis is the current belief for one axis. Label is unique.
type Hypothesis struct {
	ID              uuid.UUID    `json:"id"`
	Label           string       `json:"label"`
	Axis            IdentityAxis `json:"axis"`
	ConfidenceScore float64      `json:"confidence_score"`
	Signals         []Signal     `json:"signals"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// NewHypothesis returns the lazily-created hypothesis for an axis at the
// neutral prior. The ID is assigned by the store.
func NewHypothesis(axis IdentityAxis) (*Hypothesis, error) {
	if !ValidAxis(string(axis)) {
		return nil, ErrUnknownAxis
	}
	return &Hypothesis{
		Label:           axis.Label(),
		Axis:            axis,
		ConfidenceScore: NeutralPrior,
		Signals:         []Signal{},
	}, nil
}

func ValidateConfidence(c float64) error {
	if math.IsNaN(c) || c < 0 || c > 1 {
		return ErrInvalidConfidence
	}
	return nil
}

// ClampConfidence bounds the result of an update into [0, 1]. Only computed
// results are clamped; raw inputs go through ValidateConfidence.
func ClampConfidence(c float64) float64 {
	return math.Max(0, math.Min(1, c))
}

// HypothesisSnapshot is an immutable point-in-time confidence record.
type HypothesisSnapshot struct {
	ID              uuid.UUID `json:"id"`
	HypothesisID    uuid.UUID `json:"hypothesis_id"`
	ConfidenceScore float64   `json:"confidence_score"`
	Timestamp       time.Time `json:"timestamp"`
}
