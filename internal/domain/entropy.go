package domain

type EntropyStatus string

const (
	EntropyStable      EntropyStatus = "stable"
	EntropyUncertainty EntropyStatus = "uncertainty"
)

// EntropyReport is the result of comparing the two most confident hypotheses.
type EntropyReport struct {
	Status  EntropyStatus `json:"status"`
	Message string        `json:"message"`
}

// DriftStatus is the dashboard wording of the entropy classification.
type DriftStatus string

const (
	DriftStable      DriftStatus = "Stable"
	DriftHighEntropy DriftStatus = "High Entropy"
)
