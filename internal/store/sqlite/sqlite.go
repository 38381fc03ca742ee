// Package sqlite is a single-file BeliefStore for local use. It holds the
// same schema as the Postgres migrations, with UUIDs as TEXT, timestamps as
// unix nanoseconds and embeddings as little-endian float32 blobs.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/Harshitk-cp/echoform/internal/domain"
	"github.com/Harshitk-cp/echoform/internal/store"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS hypotheses (
	id               TEXT PRIMARY KEY,
	label            TEXT NOT NULL UNIQUE,
	axis             TEXT NOT NULL UNIQUE,
	confidence_score REAL NOT NULL CHECK (confidence_score >= 0 AND confidence_score <= 1),
	created_at       INTEGER NOT NULL,
	updated_at       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS signals (
	id            TEXT PRIMARY KEY,
	hypothesis_id TEXT REFERENCES hypotheses(id),
	axis          TEXT NOT NULL,
	direction     REAL NOT NULL CHECK (direction >= -1 AND direction <= 1),
	weight        REAL NOT NULL CHECK (weight > 0 AND weight <= 1),
	decay_factor  REAL NOT NULL,
	created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_signals_hypothesis ON signals (hypothesis_id, created_at);
CREATE INDEX IF NOT EXISTS idx_signals_created ON signals (created_at);

CREATE TABLE IF NOT EXISTS hypothesis_snapshots (
	id               TEXT PRIMARY KEY,
	hypothesis_id    TEXT NOT NULL REFERENCES hypotheses(id),
	confidence_score REAL NOT NULL CHECK (confidence_score >= 0 AND confidence_score <= 1),
	created_at       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_hypothesis ON hypothesis_snapshots (hypothesis_id, created_at);

CREATE TABLE IF NOT EXISTS embedding_cache (
	key        TEXT PRIMARY KEY,
	model      TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Store implements domain.BeliefStore and domain.EmbeddingCache.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Writes go through one connection and every transaction starts IMMEDIATE,
// so the upsert in InTx holds the write lock until commit.
func Open(path string) (*Store, error) {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_txlock", "immediate")

	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.BeliefTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(ctx, &beliefTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) ListHypotheses(ctx context.Context) ([]domain.Hypothesis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, axis, confidence_score, created_at, updated_at
		 FROM hypotheses ORDER BY created_at, label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hyps []domain.Hypothesis
	for rows.Next() {
		h, err := scanHypothesis(rows)
		if err != nil {
			return nil, err
		}
		hyps = append(hyps, *h)
	}
	return hyps, rows.Err()
}

func (s *Store) GetHypothesis(ctx context.Context, id uuid.UUID) (*domain.Hypothesis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, label, axis, confidence_score, created_at, updated_at
		 FROM hypotheses WHERE id = ?`, id)
	h, err := scanHypothesis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

func (s *Store) ListSignalsByHypothesis(ctx context.Context, hypothesisID uuid.UUID) ([]domain.Signal, error) {
	return listSignalsByHypothesis(ctx, s.db, hypothesisID)
}

func (s *Store) ListRecentSignals(ctx context.Context, limit int) ([]domain.Signal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, hypothesis_id, axis, direction, weight, decay_factor, created_at
		 FROM signals ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSignals(rows)
}

func (s *Store) ListSnapshotsSince(ctx context.Context, hypothesisID uuid.UUID, since time.Time) ([]domain.HypothesisSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, hypothesis_id, confidence_score, created_at
		 FROM hypothesis_snapshots
		 WHERE hypothesis_id = ? AND created_at >= ?
		 ORDER BY created_at`,
		hypothesisID, since.UnixNano())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []domain.HypothesisSnapshot
	for rows.Next() {
		var sn domain.HypothesisSnapshot
		var at int64
		if err := rows.Scan(&sn.ID, &sn.HypothesisID, &sn.ConfidenceScore, &at); err != nil {
			return nil, err
		}
		sn.Timestamp = fromNanos(at)
		snaps = append(snaps, sn)
	}
	return snaps, rows.Err()
}

func (s *Store) Get(ctx context.Context, key string) ([]float32, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT embedding FROM embedding_cache WHERE key = ?`, key,
	).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return decodeVector(blob), true, nil
}

func (s *Store) Put(ctx context.Context, key string, model string, embedding []float32) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO embedding_cache (key, model, embedding, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (key) DO NOTHING`,
		key, model, encodeVector(embedding), time.Now().UnixNano())
	return err
}

// beliefTx must only touch tx: the pool has a single connection, which tx
// already holds.
type beliefTx struct {
	tx *sql.Tx
}

func (t *beliefTx) UpsertHypothesis(ctx context.Context, h *domain.Hypothesis) error {
	id := h.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := time.Now().UnixNano()
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO hypotheses (id, label, axis, confidence_score, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (label) DO NOTHING`,
		id, h.Label, h.Axis, h.ConfidenceScore, now, now); err != nil {
		return err
	}

	row := t.tx.QueryRowContext(ctx,
		`SELECT id, label, axis, confidence_score, created_at, updated_at
		 FROM hypotheses WHERE label = ?`, h.Label)
	stored, err := scanHypothesis(row)
	if err != nil {
		return err
	}
	h.ID = stored.ID
	h.ConfidenceScore = stored.ConfidenceScore
	h.CreatedAt = stored.CreatedAt
	h.UpdatedAt = stored.UpdatedAt
	return nil
}

func (t *beliefTx) CreateSignal(ctx context.Context, sig *domain.Signal) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO signals (id, hypothesis_id, axis, direction, weight, decay_factor, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sig.ID, sig.HypothesisID, sig.Axis, sig.Direction, sig.Weight, sig.DecayFactor, sig.Timestamp.UnixNano())
	return err
}

func (t *beliefTx) UpdateConfidence(ctx context.Context, id uuid.UUID, confidence float64, at time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE hypotheses SET confidence_score = ?, updated_at = ? WHERE id = ?`,
		confidence, at.UnixNano(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *beliefTx) CreateSnapshot(ctx context.Context, snap *domain.HypothesisSnapshot) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO hypothesis_snapshots (id, hypothesis_id, confidence_score, created_at)
		 VALUES (?, ?, ?, ?)`,
		snap.ID, snap.HypothesisID, snap.ConfidenceScore, snap.Timestamp.UnixNano())
	return err
}

func (t *beliefTx) ListSignalsByHypothesis(ctx context.Context, hypothesisID uuid.UUID) ([]domain.Signal, error) {
	return listSignalsByHypothesis(ctx, t.tx, hypothesisID)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listSignalsByHypothesis(ctx context.Context, q queryer, hypothesisID uuid.UUID) ([]domain.Signal, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, hypothesis_id, axis, direction, weight, decay_factor, created_at
		 FROM signals WHERE hypothesis_id = ? ORDER BY created_at, id`, hypothesisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSignals(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHypothesis(row scanner) (*domain.Hypothesis, error) {
	h := &domain.Hypothesis{}
	var created, updated int64
	if err := row.Scan(&h.ID, &h.Label, &h.Axis, &h.ConfidenceScore, &created, &updated); err != nil {
		return nil, err
	}
	h.CreatedAt = fromNanos(created)
	h.UpdatedAt = fromNanos(updated)
	return h, nil
}

func scanSignals(rows *sql.Rows) ([]domain.Signal, error) {
	var sigs []domain.Signal
	for rows.Next() {
		var sig domain.Signal
		var at int64
		if err := rows.Scan(&sig.ID, &sig.HypothesisID, &sig.Axis, &sig.Direction, &sig.Weight, &sig.DecayFactor, &at); err != nil {
			return nil, err
		}
		sig.Timestamp = fromNanos(at)
		sigs = append(sigs, sig)
	}
	return sigs, rows.Err()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
