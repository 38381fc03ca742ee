package domain

import "errors"

// UpdateContext tells the updater how much to trust a reflection.
type UpdateContext string

const (
	ContextNormal UpdateContext = "normal"
	// ContextClarification marks an answer to a clarifying question raised
	// by the entropy check.
	ContextClarification UpdateContext = "clarification"
)

const (
	NormalLearningRate        = 0.1
	ClarificationLearningRate = 0.2
)

var ErrInvalidContext = errors.New("context must be one of: normal, clarification")

// ParseUpdateContext defaults an empty value to normal and rejects anything
// it does not recognize.
func ParseUpdateContext(s string) (UpdateContext, error) {
	switch UpdateContext(s) {
	case "", ContextNormal:
		return ContextNormal, nil
	case ContextClarification:
		return ContextClarification, nil
	}
	return "", ErrInvalidContext
}

func (c UpdateContext) LearningRate() float64 {
	if c == ContextClarification {
		return ClarificationLearningRate
	}
	return NormalLearningRate
}
