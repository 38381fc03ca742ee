package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingCacheStore keeps anchor and reflection embeddings in a pgvector
// column so restarts do not re-embed the anchor table.
type EmbeddingCacheStore struct {
	db *pgxpool.Pool
}

func NewEmbeddingCacheStore(db *pgxpool.Pool) *EmbeddingCacheStore {
	return &EmbeddingCacheStore{db: db}
}

func (s *EmbeddingCacheStore) Get(ctx context.Context, key string) ([]float32, bool, error) {
	var vec pgvector.Vector
	err := s.db.QueryRow(ctx,
		`SELECT embedding FROM embedding_cache WHERE key = $1`, key,
	).Scan(&vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return vec.Slice(), true, nil
}

func (s *EmbeddingCacheStore) Put(ctx context.Context, key string, model string, embedding []float32) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO embedding_cache (key, model, embedding)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO NOTHING`,
		key, model, pgvector.NewVector(embedding))
	return err
}
