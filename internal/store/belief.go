package store

import (
	"context"
	"errors"
	"time"

	"github.com/Harshitk-cp/echoform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type BeliefStore struct {
	db *pgxpool.Pool
}

func NewBeliefStore(db *pgxpool.Pool) *BeliefStore {
	return &BeliefStore{db: db}
}

func (s *BeliefStore) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.BeliefTx) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(ctx, &beliefTx{q: tx})
	})
}

func (s *BeliefStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *BeliefStore) ListHypotheses(ctx context.Context) ([]domain.Hypothesis, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, label, axis, confidence_score, created_at, updated_at
		 FROM hypotheses ORDER BY created_at, label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hyps []domain.Hypothesis
	for rows.Next() {
		var h domain.Hypothesis
		if err := rows.Scan(&h.ID, &h.Label, &h.Axis, &h.ConfidenceScore, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		hyps = append(hyps, h)
	}
	return hyps, rows.Err()
}

func (s *BeliefStore) GetHypothesis(ctx context.Context, id uuid.UUID) (*domain.Hypothesis, error) {
	h := &domain.Hypothesis{}
	err := s.db.QueryRow(ctx,
		`SELECT id, label, axis, confidence_score, created_at, updated_at
		 FROM hypotheses WHERE id = $1`,
		id,
	).Scan(&h.ID, &h.Label, &h.Axis, &h.ConfidenceScore, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

func (s *BeliefStore) ListSignalsByHypothesis(ctx context.Context, hypothesisID uuid.UUID) ([]domain.Signal, error) {
	return listSignalsByHypothesis(ctx, s.db, hypothesisID)
}

func (s *BeliefStore) ListRecentSignals(ctx context.Context, limit int) ([]domain.Signal, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, hypothesis_id, axis, direction, weight, decay_factor, created_at
		 FROM signals ORDER BY created_at DESC, id LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSignals(rows)
}

func (s *BeliefStore) ListSnapshotsSince(ctx context.Context, hypothesisID uuid.UUID, since time.Time) ([]domain.HypothesisSnapshot, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, hypothesis_id, confidence_score, created_at
		 FROM hypothesis_snapshots
		 WHERE hypothesis_id = $1 AND created_at >= $2
		 ORDER BY created_at`,
		hypothesisID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []domain.HypothesisSnapshot
	for rows.Next() {
		var sn domain.HypothesisSnapshot
		if err := rows.Scan(&sn.ID, &sn.HypothesisID, &sn.ConfidenceScore, &sn.Timestamp); err != nil {
			return nil, err
		}
		snaps = append(snaps, sn)
	}
	return snaps, rows.Err()
}

type beliefTx struct {
	q querier
}

// UpsertHypothesis relies on ON CONFLICT DO UPDATE taking the row lock, so
// concurrent writers on the same label serialize until commit.
func (t *beliefTx) UpsertHypothesis(ctx context.Context, h *domain.Hypothesis) error {
	return t.q.QueryRow(ctx,
		`INSERT INTO hypotheses (label, axis, confidence_score)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (label) DO UPDATE SET label = EXCLUDED.label
		 RETURNING id, confidence_score, created_at, updated_at`,
		h.Label, h.Axis, h.ConfidenceScore,
	).Scan(&h.ID, &h.ConfidenceScore, &h.CreatedAt, &h.UpdatedAt)
}

func (t *beliefTx) CreateSignal(ctx context.Context, sig *domain.Signal) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO signals (id, hypothesis_id, axis, direction, weight, decay_factor, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sig.ID, sig.HypothesisID, sig.Axis, sig.Direction, sig.Weight, sig.DecayFactor, sig.Timestamp)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (t *beliefTx) UpdateConfidence(ctx context.Context, id uuid.UUID, confidence float64, at time.Time) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE hypotheses SET confidence_score = $2, updated_at = $3 WHERE id = $1`,
		id, confidence, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *beliefTx) CreateSnapshot(ctx context.Context, snap *domain.HypothesisSnapshot) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO hypothesis_snapshots (id, hypothesis_id, confidence_score, created_at)
		 VALUES ($1, $2, $3, $4)`,
		snap.ID, snap.HypothesisID, snap.ConfidenceScore, snap.Timestamp)
	return err
}

func (t *beliefTx) ListSignalsByHypothesis(ctx context.Context, hypothesisID uuid.UUID) ([]domain.Signal, error) {
	return listSignalsByHypothesis(ctx, t.q, hypothesisID)
}

func listSignalsByHypothesis(ctx context.Context, q querier, hypothesisID uuid.UUID) ([]domain.Signal, error) {
	rows, err := q.Query(ctx,
		`SELECT id, hypothesis_id, axis, direction, weight, decay_factor, created_at
		 FROM signals WHERE hypothesis_id = $1 ORDER BY created_at, id`,
		hypothesisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSignals(rows)
}

func scanSignals(rows pgx.Rows) ([]domain.Signal, error) {
	var sigs []domain.Signal
	for rows.Next() {
		var sig domain.Signal
		if err := rows.Scan(&sig.ID, &sig.HypothesisID, &sig.Axis, &sig.Direction, &sig.Weight, &sig.DecayFactor, &sig.Timestamp); err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, rows.Err()
}
