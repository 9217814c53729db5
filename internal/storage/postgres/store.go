package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"unstakePool/internal/amount"
	"unstakePool/internal/model"
	"unstakePool/internal/pool"
)

const schema = `
CREATE TABLE IF NOT EXISTS operation_results (
	run_name        TEXT    NOT NULL,
	seq             BIGINT  NOT NULL,
	op              TEXT    NOT NULL,
	amount          NUMERIC NOT NULL,
	ok              BOOLEAN NOT NULL,
	error           TEXT,
	lp_minted       NUMERIC,
	token_out       NUMERIC,
	staked_out      NUMERIC,
	fee             NUMERIC,
	token_amount    NUMERIC NOT NULL,
	st_token_amount NUMERIC NOT NULL,
	lp_token_amount NUMERIC NOT NULL,
	applied_at      TIMESTAMPTZ NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_name, seq)
);

CREATE TABLE IF NOT EXISTS pool_state (
	name       TEXT PRIMARY KEY,
	last_seq   BIGINT NOT NULL,
	state      JSONB  NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for replay results and pool checkpoints.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pgPool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pgPool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables the store writes to.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// UpsertResults inserts or updates operation results for a run.
func (s *Store) UpsertResults(ctx context.Context, run string, results []model.OperationResult) error {
	if run == "" {
		return fmt.Errorf("run name required")
	}
	if len(results) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range results {
		batch.Queue(`
			INSERT INTO operation_results (
				run_name, seq, op, amount, ok, error, lp_minted, token_out, staked_out, fee,
				token_amount, st_token_amount, lp_token_amount, applied_at, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now(),now())
			ON CONFLICT (run_name, seq)
			DO UPDATE SET
				op = EXCLUDED.op,
				amount = EXCLUDED.amount,
				ok = EXCLUDED.ok,
				error = EXCLUDED.error,
				lp_minted = EXCLUDED.lp_minted,
				token_out = EXCLUDED.token_out,
				staked_out = EXCLUDED.staked_out,
				fee = EXCLUDED.fee,
				token_amount = EXCLUDED.token_amount,
				st_token_amount = EXCLUDED.st_token_amount,
				lp_token_amount = EXCLUDED.lp_token_amount,
				applied_at = EXCLUDED.applied_at,
				updated_at = now()
		`,
			run,
			int64(r.Seq),
			string(r.Op),
			r.Amount,
			r.OK,
			nullableText(r.Error),
			nullableAmount(r.LpMinted),
			nullableAmount(r.TokenOut),
			nullableAmount(r.StakedOut),
			nullableAmount(r.Fee),
			r.State.TokenAmount.String(),
			r.State.StTokenAmount.String(),
			r.State.LpTokenAmount.String(),
			r.AppliedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range results {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the last applied sequence number and pool state for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, pool.State, bool, error) {
	if name == "" {
		return 0, pool.State{}, false, fmt.Errorf("state name required")
	}
	var (
		lastSeq int64
		raw     []byte
	)
	row := s.pool.QueryRow(ctx, `SELECT last_seq, state FROM pool_state WHERE name=$1`, name)
	if err := row.Scan(&lastSeq, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, pool.State{}, false, nil
		}
		return 0, pool.State{}, false, err
	}

	var state pool.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return 0, pool.State{}, false, fmt.Errorf("parse pool state %q: %w", name, err)
	}
	return uint64(lastSeq), state, true, nil
}

// SaveState upserts the last applied sequence number and pool state for a name.
func (s *Store) SaveState(ctx context.Context, name string, lastSeq uint64, state pool.State) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal pool state: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO pool_state (name, last_seq, state, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET last_seq = EXCLUDED.last_seq, state = EXCLUDED.state, updated_at = now()
	`, name, int64(lastSeq), raw)
	return err
}

// ResultWriter adapts Store to the storage.Storage interface for one run.
type ResultWriter struct {
	Store *Store
	Run   string
}

func (w *ResultWriter) PutResultBatch(ctx context.Context, results []model.OperationResult) error {
	if w == nil || w.Store == nil {
		return fmt.Errorf("store is nil")
	}
	return w.Store.UpsertResults(ctx, w.Run, results)
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableAmount[U amount.Unit](a *amount.Amount[U]) *string {
	if a == nil {
		return nil
	}
	s := a.String()
	return &s
}
