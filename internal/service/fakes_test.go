package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/echoform/internal/domain"
	"github.com/Harshitk-cp/echoform/internal/store"
	"github.com/google/uuid"
)

var errInjected = errors.New("injected store failure")

// memBeliefStore is an in-memory domain.BeliefStore. InTx holds the store
// lock for the whole callback and restores the previous state on error.
type memBeliefStore struct {
	mu         sync.Mutex
	hypotheses map[uuid.UUID]*domain.Hypothesis
	signals    []domain.Signal
	snapshots  []domain.HypothesisSnapshot

	// failSnapshot makes CreateSnapshot fail, to exercise rollback.
	failSnapshot bool
	txCount      int
}

func newMemBeliefStore() *memBeliefStore {
	return &memBeliefStore{hypotheses: make(map[uuid.UUID]*domain.Hypothesis)}
}

func (m *memBeliefStore) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.BeliefTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	savedHyps := make(map[uuid.UUID]*domain.Hypothesis, len(m.hypotheses))
	for id, h := range m.hypotheses {
		cp := *h
		savedHyps[id] = &cp
	}
	savedSignals := append([]domain.Signal(nil), m.signals...)
	savedSnaps := append([]domain.HypothesisSnapshot(nil), m.snapshots...)

	if err := fn(ctx, &memBeliefTx{m: m}); err != nil {
		m.hypotheses = savedHyps
		m.signals = savedSignals
		m.snapshots = savedSnaps
		return err
	}
	m.txCount++
	return nil
}

func (m *memBeliefStore) Ping(ctx context.Context) error { return nil }

func (m *memBeliefStore) ListHypotheses(ctx context.Context) ([]domain.Hypothesis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Hypothesis
	for _, h := range m.hypotheses {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (m *memBeliefStore) GetHypothesis(ctx context.Context, id uuid.UUID) (*domain.Hypothesis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hypotheses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (m *memBeliefStore) ListSignalsByHypothesis(ctx context.Context, id uuid.UUID) ([]domain.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signalsFor(id), nil
}

func (m *memBeliefStore) ListRecentSignals(ctx context.Context, limit int) ([]domain.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]domain.Signal(nil), m.signals...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memBeliefStore) ListSnapshotsSince(ctx context.Context, id uuid.UUID, since time.Time) ([]domain.HypothesisSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.HypothesisSnapshot
	for _, s := range m.snapshots {
		if s.HypothesisID == id && !s.Timestamp.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memBeliefStore) signalsFor(id uuid.UUID) []domain.Signal {
	var out []domain.Signal
	for _, s := range m.signals {
		if s.HypothesisID != nil && *s.HypothesisID == id {
			out = append(out, s)
		}
	}
	return out
}

// seed stores a hypothesis directly, bypassing the updater.
func (m *memBeliefStore) seed(axis domain.IdentityAxis, confidence float64) *domain.Hypothesis {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, _ := domain.NewHypothesis(axis)
	h.ID = uuid.New()
	h.ConfidenceScore = confidence
	h.CreatedAt = time.Now()
	h.UpdatedAt = h.CreatedAt
	m.hypotheses[h.ID] = h
	cp := *h
	return &cp
}

func (m *memBeliefStore) addSnapshot(id uuid.UUID, confidence float64, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, domain.HypothesisSnapshot{
		ID: uuid.New(), HypothesisID: id, ConfidenceScore: confidence, Timestamp: at,
	})
}

type memBeliefTx struct {
	m *memBeliefStore
}

func (t *memBeliefTx) UpsertHypothesis(ctx context.Context, h *domain.Hypothesis) error {
	for _, existing := range t.m.hypotheses {
		if existing.Label == h.Label {
			h.ID = existing.ID
			h.ConfidenceScore = existing.ConfidenceScore
			h.CreatedAt = existing.CreatedAt
			h.UpdatedAt = existing.UpdatedAt
			return nil
		}
	}
	now := time.Now()
	h.ID = uuid.New()
	h.CreatedAt = now
	h.UpdatedAt = now
	stored := *h
	stored.Signals = nil
	t.m.hypotheses[h.ID] = &stored
	return nil
}

func (t *memBeliefTx) CreateSignal(ctx context.Context, s *domain.Signal) error {
	t.m.signals = append(t.m.signals, *s)
	return nil
}

func (t *memBeliefTx) UpdateConfidence(ctx context.Context, id uuid.UUID, confidence float64, at time.Time) error {
	h, ok := t.m.hypotheses[id]
	if !ok {
		return store.ErrNotFound
	}
	if err := domain.ValidateConfidence(confidence); err != nil {
		return err
	}
	h.ConfidenceScore = confidence
	h.UpdatedAt = at
	return nil
}

func (t *memBeliefTx) CreateSnapshot(ctx context.Context, snap *domain.HypothesisSnapshot) error {
	if t.m.failSnapshot {
		return errInjected
	}
	t.m.snapshots = append(t.m.snapshots, *snap)
	return nil
}

func (t *memBeliefTx) ListSignalsByHypothesis(ctx context.Context, id uuid.UUID) ([]domain.Signal, error) {
	return t.m.signalsFor(id), nil
}

// keywordScorer returns a fixed similarity for anchors whose phrase maps to
// a keyword present in the content.
type keywordScorer struct {
	mu       sync.Mutex
	keywords map[string]string // anchor phrase -> keyword
	score    float64
	err      error
	calls    int
}

func (s *keywordScorer) Similarity(ctx context.Context, content, phrase string) (float64, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	if kw, ok := s.keywords[phrase]; ok && strings.Contains(strings.ToLower(content), strings.ToLower(kw)) {
		return s.score, nil
	}
	return 0.1, nil
}

func (s *keywordScorer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
