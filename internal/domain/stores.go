package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrScorerUnavailable wraps any failure of the similarity scorer.
var ErrScorerUnavailable = errors.New("similarity scorer unavailable")

// BeliefTx is the write side of one unit of work. Everything done through a
// BeliefTx commits together or not at all.
type BeliefTx interface {
	// UpsertHypothesis resolves the hypothesis for h.Label, creating it with
	// h.ConfidenceScore as the prior if missing, and fills h from the stored
	// row. The row stays locked until the transaction ends.
	UpsertHypothesis(ctx context.Context, h *Hypothesis) error
	CreateSignal(ctx context.Context, s *Signal) error
	UpdateConfidence(ctx context.Context, id uuid.UUID, confidence float64, at time.Time) error
	CreateSnapshot(ctx context.Context, snap *HypothesisSnapshot) error
	ListSignalsByHypothesis(ctx context.Context, hypothesisID uuid.UUID) ([]Signal, error)
}

type BeliefStore interface {
	// InTx runs fn inside a single transaction. A non-nil error from fn
	// rolls back every write made through tx.
	InTx(ctx context.Context, fn func(ctx context.Context, tx BeliefTx) error) error

	ListHypotheses(ctx context.Context) ([]Hypothesis, error)
	GetHypothesis(ctx context.Context, id uuid.UUID) (*Hypothesis, error)
	ListSignalsByHypothesis(ctx context.Context, hypothesisID uuid.UUID) ([]Signal, error)
	ListRecentSignals(ctx context.Context, limit int) ([]Signal, error)
	ListSnapshotsSince(ctx context.Context, hypothesisID uuid.UUID, since time.Time) ([]HypothesisSnapshot, error)
	Ping(ctx context.Context) error
}

// EmbeddingCache persists text embeddings keyed by a content hash.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Put(ctx context.Context, key string, model string, embedding []float32) error
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SimilarityScorer maps two texts to a similarity in roughly [-1, 1].
type SimilarityScorer interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}
