package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Harshitk-cp/echoform/internal/domain"
)

// DefaultEntropyMargin is the confidence gap below which the two leading
// hypotheses are considered too close to call.
const DefaultEntropyMargin = 0.1

const (
	msgInsufficientData = "Not enough data for entropy check."
	msgClearDominant    = "Clear dominant hypothesis found."
)

// EntropyDetector classifies a set of hypotheses as stable or conflicted.
// It never mutates its input.
type EntropyDetector struct {
	margin float64
}

func NewEntropyDetector() *EntropyDetector {
	return &EntropyDetector{margin: DefaultEntropyMargin}
}

func (d *EntropyDetector) Check(hypotheses []domain.Hypothesis) domain.EntropyReport {
	if len(hypotheses) < 2 {
		return domain.EntropyReport{Status: domain.EntropyStable, Message: msgInsufficientData}
	}

	top1, top2 := leadingPair(hypotheses)
	if top1.ConfidenceScore-top2.ConfidenceScore < d.margin {
		return domain.EntropyReport{
			Status: domain.EntropyUncertainty,
			Message: fmt.Sprintf("Conflict between %s and %s. Is your current behavior driven by %s or %s?",
				top1.Label, top2.Label, lastWord(top1.Label), lastWord(top2.Label)),
		}
	}
	return domain.EntropyReport{Status: domain.EntropyStable, Message: msgClearDominant}
}

// DriftStatus is the dashboard form of Check.
func (d *EntropyDetector) DriftStatus(hypotheses []domain.Hypothesis) domain.DriftStatus {
	if d.Check(hypotheses).Status == domain.EntropyUncertainty {
		return domain.DriftHighEntropy
	}
	return domain.DriftStable
}

func leadingPair(hypotheses []domain.Hypothesis) (domain.Hypothesis, domain.Hypothesis) {
	sorted := append([]domain.Hypothesis(nil), hypotheses...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ConfidenceScore > sorted[j].ConfidenceScore
	})
	return sorted[0], sorted[1]
}

func lastWord(label string) string {
	words := strings.Fields(label)
	if len(words) == 0 {
		return label
	}
	return words[len(words)-1]
}
