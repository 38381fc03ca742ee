package embedding

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Harshitk-cp/echoform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string][]float32
	getErr  error
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]float32)}
}

func (c *memCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memCache) Put(ctx context.Context, key string, model string, embedding []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = embedding
	c.puts++
	return nil
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScorer_SimilarityWithMock(t *testing.T) {
	scorer := NewScorer(NewMockClient(), nil, zap.NewNop())
	ctx := context.Background()

	same, err := scorer.Similarity(ctx, "I want to go skydiving", "i want to go SKYDIVING!")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, same, 1e-6)

	disjoint, err := scorer.Similarity(ctx, "budget savings", "party friends")
	require.NoError(t, err)
	assert.LessOrEqual(t, disjoint, 0.5)
}

func TestScorer_UsesMemoAndCache(t *testing.T) {
	client := NewMockClient()
	cache := newMemCache()
	scorer := NewScorer(client, cache, zap.NewNop())
	ctx := context.Background()

	_, err := scorer.Similarity(ctx, "alpha", "beta")
	require.NoError(t, err)
	_, err = scorer.Similarity(ctx, "alpha", "beta")
	require.NoError(t, err)

	assert.Equal(t, 2, client.Calls(), "second comparison should be served from memory")
	assert.Equal(t, 2, cache.puts)

	// A fresh scorer sharing the persistent cache never calls its client.
	fresh := NewMockClient()
	warm := NewScorer(fresh, cache, zap.NewNop())
	_, err = warm.Similarity(ctx, "alpha", "beta")
	require.NoError(t, err)
	assert.Zero(t, fresh.Calls())
}

// slowClient delays every call so concurrent misses overlap.
type slowClient struct {
	*MockClient
	delay time.Duration
	texts sync.Map // text -> *atomic.Int64
}

func (c *slowClient) Embed(ctx context.Context, text string) ([]float32, error) {
	n, _ := c.texts.LoadOrStore(text, new(atomic.Int64))
	n.(*atomic.Int64).Add(1)
	time.Sleep(c.delay)
	return c.MockClient.Embed(ctx, text)
}

func (c *slowClient) callsFor(text string) int64 {
	n, ok := c.texts.Load(text)
	if !ok {
		return 0
	}
	return n.(*atomic.Int64).Load()
}

func TestScorer_ConcurrentMissesEmbedOnce(t *testing.T) {
	client := &slowClient{MockClient: NewMockClient(), delay: 20 * time.Millisecond}
	cache := newMemCache()
	scorer := NewScorer(client, cache, zap.NewNop())
	ctx := context.Background()

	anchors := []string{"take a big risk", "stay safe", "save money", "meet people"}
	require.NoError(t, scorer.Warm(ctx, anchors))

	var wg sync.WaitGroup
	for _, a := range anchors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := scorer.Similarity(ctx, "a brand new reflection", a)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), client.callsFor("a brand new reflection"))
	assert.Equal(t, len(anchors)+1, cache.puts)
}

func TestTokenize_DropsStopwordsAndExpandsRelated(t *testing.T) {
	assert.Equal(t, []string{"want", "risk", "dangerous"}, tokenize("I want to go skydiving!"))
	assert.Empty(t, tokenize("I am to the"))
}

func TestScorer_CacheReadFailureFallsBackToClient(t *testing.T) {
	client := NewMockClient()
	cache := newMemCache()
	cache.getErr = errors.New("cache down")
	scorer := NewScorer(client, cache, zap.NewNop())

	_, err := scorer.Similarity(context.Background(), "alpha", "beta")
	require.NoError(t, err)
	assert.Equal(t, 2, client.Calls())
}

func TestScorer_ClientFailureIsScorerUnavailable(t *testing.T) {
	client := NewMockClient()
	client.Err = errors.New("connection refused")
	scorer := NewScorer(client, nil, zap.NewNop())

	_, err := scorer.Similarity(context.Background(), "alpha", "beta")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrScorerUnavailable)

	err = scorer.Warm(context.Background(), []string{"alpha"})
	assert.ErrorIs(t, err, domain.ErrScorerUnavailable)
}

func TestCacheKey_DependsOnModel(t *testing.T) {
	assert.Equal(t, CacheKey("m1", "text"), CacheKey("m1", "text"))
	assert.NotEqual(t, CacheKey("m1", "text"), CacheKey("m2", "text"))
	assert.Len(t, CacheKey("m1", "text"), 64)
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(ProviderMock, "", "")
	require.NoError(t, err)
	assert.IsType(t, &MockClient{}, c)

	_, err = NewClient(ProviderOpenAI, "", "")
	assert.Error(t, err)

	c, err = NewClient(ProviderOpenAI, "sk-test", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, c.Model())

	_, err = NewClient("bert", "", "")
	assert.Error(t, err)
}
