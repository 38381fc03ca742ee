package service

import (
	"math"
	"time"

	"github.com/Harshitk-cp/echoform/internal/domain"
)

// Decay returns the weight of s discounted for the time elapsed until at.
// A signal evaluated before its own timestamp is not discounted (and never
// boosted). The value is recomputed on every call.
func Decay(s domain.Signal, at time.Time) float64 {
	days := at.Sub(s.Timestamp).Hours() / 24
	if days < 0 {
		days = 0
	}

	rate := s.DecayFactor
	if rate <= 0 {
		rate = domain.DefaultDecayFactor
	}
	return s.Weight * math.Exp(-rate*days)
}

// NetImpact sums the decayed, directed weight of a batch of signals.
func NetImpact(signals []domain.Signal, at time.Time) float64 {
	var net float64
	for _, s := range signals {
		net += Decay(s, at) * s.Direction
	}
	return net
}
