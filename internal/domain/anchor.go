package domain

import (
	"errors"
	"math"
	"strings"
)

var ErrEmptyAnchorPhrase = errors.New("anchor phrase is required")

// Anchor is a reference phrase with a known axis and direction.
type Anchor struct {
	Phrase    string       `json:"phrase" yaml:"phrase"`
	Axis      IdentityAxis `json:"axis" yaml:"axis"`
	Direction float64      `json:"direction" yaml:"direction"`
}

func (a Anchor) Validate() error {
	if strings.TrimSpace(a.Phrase) == "" {
		return ErrEmptyAnchorPhrase
	}
	if !ValidAxis(string(a.Axis)) {
		return ErrUnknownAxis
	}
	if math.IsNaN(a.Direction) || a.Direction < -1 || a.Direction > 1 {
		return ErrInvalidDirection
	}
	return nil
}
