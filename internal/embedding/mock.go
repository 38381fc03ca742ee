package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync/atomic"
	"unicode"
)

const mockDimensions = 256

// stopwords carry no meaning for a bag-of-words comparison.
var stopwords = map[string]bool{
	"i": true, "me": true, "my": true, "we": true, "our": true, "you": true, "your": true,
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true, "so": true,
	"to": true, "of": true, "in": true, "on": true, "at": true, "for": true, "with": true,
	"by": true, "from": true, "just": true, "go": true, "out": true,
	"is": true, "am": true, "are": true, "was": true, "be": true, "been": true, "being": true,
	"it": true, "its": true, "this": true, "that": true, "these": true, "those": true,
}

// related maps words that never appear in an anchor onto the anchor
// vocabulary they stand for, so the mock routes everyday activities the way
// a real embedding model would.
var related = map[string][]string{
	"skydiving": {"risk", "dangerous"},
	"bungee":    {"risk", "dangerous"},
	"gamble":    {"risk", "dangerous"},
	"gambling":  {"risk", "dangerous"},
	"adventure": {"risk", "try"},
	"careful":   {"safe", "avoid"},
	"cautious":  {"safe", "avoid"},
	"drained":   {"exhausted", "alone"},
	"tired":     {"exhausted"},
	"lonely":    {"alone"},
	"socialize": {"meet", "people"},
	"concert":   {"party", "people"},
	"club":      {"party"},
	"saving":    {"save", "money"},
	"frugal":    {"save", "budget"},
	"stocks":    {"invest", "wealth"},
	"crypto":    {"invest", "wealth"},
	"splurge":   {"spend", "luxury"},
	"shopping":  {"spend", "buy"},
}

// MockClient produces deterministic bag-of-words embeddings. Texts sharing
// content words end up close; it needs no network and is stable across runs.
type MockClient struct {
	// Err, when set, is returned from every Embed call.
	Err error

	calls atomic.Int64
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Model() string {
	return "mock-bow-256"
}

func (c *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)

	if c.Err != nil {
		return nil, c.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, mockDimensions)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%mockDimensions]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// Calls returns how many times Embed has been called.
func (c *MockClient) Calls() int {
	return int(c.calls.Load())
}

// tokenize lowercases text, drops stopwords and expands related words.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if stopwords[w] {
			continue
		}
		if rel, ok := related[w]; ok {
			tokens = append(tokens, rel...)
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}
