package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sync"

	"github.com/Harshitk-cp/echoform/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// maxLocalEntries bounds the in-process memo; anchors always fit.
const maxLocalEntries = 1024

// Scorer implements domain.SimilarityScorer as cosine similarity between
// embeddings. It is built once at startup and shared by reference.
type Scorer struct {
	client Client
	cache  domain.EmbeddingCache
	logger *zap.Logger

	mu    sync.RWMutex
	local map[string][]float32

	// inflight collapses concurrent misses on the same text into one
	// client call.
	inflight singleflight.Group
}

// NewScorer creates a scorer. cache may be nil.
func NewScorer(client Client, cache domain.EmbeddingCache, logger *zap.Logger) *Scorer {
	return &Scorer{
		client: client,
		cache:  cache,
		logger: logger,
		local:  make(map[string][]float32),
	}
}

func (s *Scorer) Similarity(ctx context.Context, a, b string) (float64, error) {
	va, err := s.embed(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrScorerUnavailable, err)
	}
	vb, err := s.embed(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrScorerUnavailable, err)
	}
	if len(va) != len(vb) {
		return 0, fmt.Errorf("%w: embedding dimensions differ (%d vs %d)", domain.ErrScorerUnavailable, len(va), len(vb))
	}
	return CosineSimilarity(va, vb), nil
}

// Warm embeds texts ahead of time so later comparisons hit the memo.
func (s *Scorer) Warm(ctx context.Context, texts []string) error {
	for _, t := range texts {
		if _, err := s.embed(ctx, t); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrScorerUnavailable, err)
		}
	}
	return nil
}

func (s *Scorer) embed(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(s.client.Model(), text)
	if v, ok := s.lookup(key); ok {
		return v, nil
	}

	v, err, _ := s.inflight.Do(key, func() (any, error) {
		return s.load(ctx, key, text)
	})
	if err != nil {
		return nil, err
	}
	return v.([]float32), nil
}

// load resolves a memo miss through the persistent cache and then the client.
func (s *Scorer) load(ctx context.Context, key, text string) ([]float32, error) {
	// A flight that finished just before this one started may have filled the memo.
	if v, ok := s.lookup(key); ok {
		return v, nil
	}

	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("embedding cache read failed", zap.Error(err))
		} else if found {
			s.remember(key, cached)
			return cached, nil
		}
	}

	v, err := s.client.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, s.client.Model(), v); err != nil {
			s.logger.Warn("embedding cache write failed", zap.Error(err))
		}
	}
	s.remember(key, v)
	return v, nil
}

func (s *Scorer) lookup(key string) ([]float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.local[key]
	return v, ok
}

func (s *Scorer) remember(key string, v []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.local) < maxLocalEntries {
		s.local[key] = v
	}
}

// CacheKey identifies an embedding of text under a given model.
func CacheKey(model, text string) string {
	h := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(h[:])
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector has zero length.
func CosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
