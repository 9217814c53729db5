// Package replay applies a stream of pool operations read from a JSONL file,
// records every outcome and checkpoints the pool so an interrupted run can
// resume where it stopped.
package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"unstakePool/internal/model"
	"unstakePool/internal/pool"
	"unstakePool/internal/retry"
	"unstakePool/internal/storage"
)

// Config controls replay behavior.
type Config struct {
	BatchSize  int
	StateStore StateStore
	Retry      retry.Policy
}

// Summary counts what a run did.
type Summary struct {
	Total     int
	Applied   int
	Rejected  int
	Skipped   int
	Malformed int
	LastSeq   uint64
	State     pool.State
}

// Runner replays operations against a single pool.
type Runner struct {
	cfg     Config
	params  pool.Params
	storage storage.Storage
	logger  *zap.Logger
	now     func() time.Time
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg Config, params pool.Params, storageSink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:     cfg,
		params:  params,
		storage: storageSink,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type inputLine struct {
	number int
	op     model.Operation
	err    error
}

// replayState is owned by the apply goroutine.
type replayState struct {
	pool    *pool.Pool
	lastSeq uint64
	started bool
	batch   []model.OperationResult
	summary Summary
}

// Run replays the operations in inputPath.
func (r *Runner) Run(ctx context.Context, inputPath string) (Summary, error) {
	if r.storage == nil {
		return Summary{}, fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize <= 0 {
		r.cfg.BatchSize = 100
	}

	st, err := r.restore(ctx)
	if err != nil {
		return Summary{}, err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return Summary{}, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	g, gctx := errgroup.WithContext(ctx)
	lines := make(chan inputLine, r.cfg.BatchSize)

	g.Go(func() error {
		defer close(lines)
		return r.read(gctx, file, lines)
	})
	g.Go(func() error {
		return r.applyAll(gctx, st, lines)
	})

	err = g.Wait()
	st.summary.LastSeq = st.lastSeq
	st.summary.State = st.pool.State()
	if err != nil {
		return st.summary, err
	}

	r.logger.Info("replay complete",
		zap.Int("total", st.summary.Total),
		zap.Int("applied", st.summary.Applied),
		zap.Int("rejected", st.summary.Rejected),
		zap.Int("skipped", st.summary.Skipped),
		zap.Int("malformed", st.summary.Malformed),
		zap.Uint64("last_seq", st.lastSeq),
	)
	return st.summary, nil
}

func (r *Runner) restore(ctx context.Context) (*replayState, error) {
	st := &replayState{
		pool:  pool.New(r.params),
		batch: make([]model.OperationResult, 0, r.cfg.BatchSize),
	}
	if r.cfg.StateStore == nil {
		return st, nil
	}

	type loaded struct {
		cp Checkpoint
		ok bool
	}
	res, err := retry.Do(ctx, r.cfg.Retry, r.logger, "load checkpoint", func() (loaded, error) {
		cp, ok, err := r.cfg.StateStore.Load(ctx)
		return loaded{cp: cp, ok: ok}, err
	})
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if !res.ok {
		return st, nil
	}

	if res.cp.State.Params != r.params {
		return nil, fmt.Errorf("checkpoint pool parameters %+v differ from configured %+v", res.cp.State.Params, r.params)
	}
	restored, err := pool.Restore(res.cp.State)
	if err != nil {
		return nil, fmt.Errorf("restore checkpoint: %w", err)
	}
	st.pool = restored
	st.lastSeq = res.cp.LastSeq
	st.started = true

	r.logger.Info("resume from checkpoint",
		zap.Uint64("last_seq", res.cp.LastSeq),
		zap.Stringer("token_amount", res.cp.State.TokenAmount),
		zap.Stringer("st_token_amount", res.cp.State.StTokenAmount),
		zap.Stringer("lp_token_amount", res.cp.State.LpTokenAmount),
	)
	return st, nil
}

func (r *Runner) read(ctx context.Context, input io.Reader, lines chan<- inputLine) error {
	scanner := bufio.NewScanner(input)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	number := 0
	for scanner.Scan() {
		number++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		item := inputLine{number: number}
		item.err = json.Unmarshal(raw, &item.op)

		select {
		case lines <- item:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}

func (r *Runner) applyAll(ctx context.Context, st *replayState, lines <-chan inputLine) error {
	for item := range lines {
		st.summary.Total++

		if item.err != nil {
			st.summary.Malformed++
			r.logger.Warn("decode operation", zap.Int("line", item.number), zap.Error(item.err))
			continue
		}
		op := item.op
		if st.started && op.Seq <= st.lastSeq {
			st.summary.Skipped++
			r.logger.Debug("skip applied operation", zap.Uint64("seq", op.Seq), zap.Uint64("last_seq", st.lastSeq))
			continue
		}

		res, err := Apply(st.pool, op, r.now())
		if errors.Is(err, pool.ErrInvariantViolation) {
			return fmt.Errorf("apply seq %d: %w", op.Seq, err)
		}
		if err != nil {
			st.summary.Rejected++
			r.logger.Warn("operation rejected",
				zap.Uint64("seq", op.Seq),
				zap.String("op", string(op.Op)),
				zap.String("amount", res.Amount),
				zap.Error(err),
			)
		} else {
			st.summary.Applied++
		}

		st.lastSeq = op.Seq
		st.started = true
		st.batch = append(st.batch, res)

		if len(st.batch) >= r.cfg.BatchSize {
			if err := r.flush(ctx, st); err != nil {
				return err
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return r.flush(ctx, st)
}

// flush writes the pending results and then the checkpoint that covers them.
func (r *Runner) flush(ctx context.Context, st *replayState) error {
	if len(st.batch) == 0 {
		return nil
	}

	if err := retry.Run(ctx, r.cfg.Retry, r.logger, "store results", func() error {
		return r.storage.PutResultBatch(ctx, st.batch)
	}); err != nil {
		return fmt.Errorf("store results: %w", err)
	}

	if r.cfg.StateStore != nil {
		cp := Checkpoint{LastSeq: st.lastSeq, State: st.pool.State()}
		if err := retry.Run(ctx, r.cfg.Retry, r.logger, "save checkpoint", func() error {
			return r.cfg.StateStore.Save(ctx, cp)
		}); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
	}

	r.logger.Info("batch complete",
		zap.Int("results", len(st.batch)),
		zap.Uint64("from_seq", st.batch[0].Seq),
		zap.Uint64("to_seq", st.lastSeq),
		zap.Stringer("token_amount", st.pool.TokenAmount()),
		zap.Stringer("st_token_amount", st.pool.StTokenAmount()),
		zap.Stringer("lp_token_amount", st.pool.LpTokenAmount()),
	)

	st.batch = st.batch[:0]
	return nil
}
