// Package writer persists a validated snapshot in one transaction. Chunks run
// inside savepoints so transient failures are retried without giving up the
// rows already written; any other failure rolls the whole snapshot back.
package writer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/config"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/database"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataset"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/metrics"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
)

const savepointName = "ecomgen_chunk"

type Options struct {
	Mode         string
	ChunkSize    int
	MaxRetries   int
	RetryBackoff time.Duration
	ChunkTimeout time.Duration
	EnforceFKs   bool
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Mode:         cfg.Load.Mode,
		ChunkSize:    cfg.Load.ChunkSize,
		MaxRetries:   cfg.Load.MaxRetries,
		RetryBackoff: cfg.Load.RetryBackoff,
		ChunkTimeout: cfg.Load.ChunkTimeout,
		EnforceFKs:   cfg.Database.EnforceForeignKeys,
	}
}

// ChunkEvent is reported after every committed chunk.
type ChunkEvent struct {
	Table   string
	Chunk   int
	Chunks  int
	Rows    int
	Retries int
}

type TableResult struct {
	Table   string
	Rows    int
	Chunks  int
	Retries int
}

type Result struct {
	Tables   []TableResult
	Replaced map[string]int64
	Duration time.Duration
}

type Writer struct {
	store   *database.Store
	catalog *schema.Catalog
	opts    Options
	metrics *metrics.Registry
	onChunk func(ChunkEvent)
	sleep   func(context.Context, time.Duration) error
}

func New(store *database.Store, catalog *schema.Catalog, opts Options) *Writer {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1000
	}
	return &Writer{
		store:   store,
		catalog: catalog,
		opts:    opts,
		sleep:   sleepContext,
	}
}

func (w *Writer) WithMetrics(m *metrics.Registry) *Writer {
	w.metrics = m
	return w
}

func (w *Writer) OnChunk(fn func(ChunkEvent)) *Writer {
	w.onChunk = fn
	return w
}

// Load writes snap into the store. On error the store is left exactly as
// it was before the call.
func (w *Writer) Load(ctx context.Context, snap *dataset.Snapshot) (*Result, error) {
	start := time.Now()
	order, err := w.catalog.InsertionOrder()
	if err != nil {
		return nil, &dataerr.LoadError{Err: err}
	}

	if err := w.store.CreateSchema(ctx, w.catalog, w.opts.EnforceFKs); err != nil {
		return nil, &dataerr.LoadError{Err: err}
	}

	existing, err := w.store.RowCounts(ctx, order)
	if err != nil {
		return nil, &dataerr.LoadError{Err: err}
	}
	populated := false
	for _, n := range existing {
		if n > 0 {
			populated = true
		}
	}
	if populated && w.opts.Mode == config.LoadModeRefuse {
		return nil, &dataerr.LoadError{Err: fmt.Errorf("store already holds a snapshot %v and load.mode is %q", existing, config.LoadModeRefuse)}
	}

	tx, err := w.store.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, &dataerr.LoadError{Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}

	result := &Result{Replaced: make(map[string]int64)}
	if err := w.load(ctx, tx, snap, order, existing, populated, result); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return nil, fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, &dataerr.LoadError{Err: fmt.Errorf("failed to commit snapshot: %w", err)}
	}

	result.Duration = time.Since(start)
	if w.metrics != nil {
		w.metrics.LoadDurationSec.Observe(result.Duration.Seconds())
		for _, t := range result.Tables {
			w.metrics.RowsLoaded.WithLabelValues(t.Table).Add(float64(t.Rows))
		}
	}
	return result, nil
}

func (w *Writer) load(ctx context.Context, tx *sql.Tx, snap *dataset.Snapshot, order []string, existing map[string]int64, populated bool, result *Result) error {
	if populated {
		reversed := slices.Clone(order)
		slices.Reverse(reversed)
		for _, name := range reversed {
			query, args, err := w.store.Builder().Delete(w.store.Adapter().QuoteIdentifier(name)).ToSql()
			if err != nil {
				return &dataerr.LoadError{Table: name, Err: err}
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return &dataerr.LoadError{Table: name, Err: fmt.Errorf("failed to clear previous snapshot: %w", err)}
			}
			result.Replaced[name] = existing[name]
		}
	}

	for _, name := range order {
		t, ok := snap.Table(name)
		if !ok {
			return &dataerr.LoadError{Table: name, Err: errors.New("table missing from snapshot")}
		}
		tr, err := w.loadTable(ctx, tx, t)
		if err != nil {
			return err
		}
		result.Tables = append(result.Tables, tr)
	}
	return nil
}

func (w *Writer) loadTable(ctx context.Context, tx *sql.Tx, t *dataset.Table) (TableResult, error) {
	tr := TableResult{Table: t.Name(), Rows: t.Len()}
	chunks := (t.Len() + w.opts.ChunkSize - 1) / w.opts.ChunkSize

	for c := 0; c < chunks; c++ {
		lo := c * w.opts.ChunkSize
		hi := min(lo+w.opts.ChunkSize, t.Len())
		retries, err := w.writeChunk(ctx, tx, t, t.Rows[lo:hi])
		tr.Retries += retries
		if w.metrics != nil && retries > 0 {
			w.metrics.ChunkRetries.WithLabelValues(t.Name()).Add(float64(retries))
		}
		if err != nil {
			return tr, &dataerr.LoadError{Table: t.Name(), Chunk: c + 1, Retries: retries, Err: err}
		}
		tr.Chunks++
		if w.metrics != nil {
			w.metrics.ChunksCommitted.WithLabelValues(t.Name()).Inc()
		}
		if w.onChunk != nil {
			w.onChunk(ChunkEvent{Table: t.Name(), Chunk: c + 1, Chunks: chunks, Rows: hi - lo, Retries: retries})
		}
	}
	return tr, nil
}

// writeChunk inserts rows inside a savepoint and retries transient failures
// with linear backoff. It returns the number of retries used.
func (w *Writer) writeChunk(ctx context.Context, tx *sql.Tx, t *dataset.Table, rows []dataset.Row) (int, error) {
	stmts, err := w.insertStatements(t, rows)
	if err != nil {
		return 0, err
	}

	for attempt := 0; ; attempt++ {
		if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepointName); err != nil {
			return attempt, fmt.Errorf("failed to open savepoint: %w", err)
		}

		err := w.execChunk(ctx, tx, stmts)
		if err == nil {
			if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepointName); err != nil {
				return attempt, fmt.Errorf("failed to release savepoint: %w", err)
			}
			return attempt, nil
		}

		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepointName); rbErr != nil {
			return attempt, fmt.Errorf("rollback to savepoint failed: %v (original: %w)", rbErr, err)
		}
		if !w.retryable(ctx, err) || attempt >= w.opts.MaxRetries {
			return attempt, err
		}
		if err := w.sleep(ctx, w.opts.RetryBackoff*time.Duration(attempt+1)); err != nil {
			return attempt, err
		}
	}
}

func (w *Writer) execChunk(ctx context.Context, tx *sql.Tx, stmts []statement) error {
	chunkCtx := ctx
	if w.opts.ChunkTimeout > 0 {
		var cancel context.CancelFunc
		chunkCtx, cancel = context.WithTimeout(ctx, w.opts.ChunkTimeout)
		defer cancel()
	}
	for _, st := range stmts {
		if _, err := tx.ExecContext(chunkCtx, st.query, st.args...); err != nil {
			if ctx.Err() == nil && errors.Is(chunkCtx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("chunk exceeded %s: %w: %w", w.opts.ChunkTimeout, context.DeadlineExceeded, err)
			}
			return err
		}
	}
	return nil
}

// retryable treats a chunk timeout as transient; cancellation of the run is not.
func (w *Writer) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return w.store.Adapter().IsTransient(err)
}

type statement struct {
	query string
	args  []any
}

// insertStatements splits rows into multi-row INSERTs that stay under the
// provider's bind-parameter limit.
func (w *Writer) insertStatements(t *dataset.Table, rows []dataset.Row) ([]statement, error) {
	adapter := w.store.Adapter()
	cols := make([]string, len(t.Def.Columns))
	for i, c := range t.Def.Columns {
		cols[i] = adapter.QuoteIdentifier(c.Name)
	}
	perStmt := max(adapter.MaxParams()/len(cols), 1)

	var stmts []statement
	for lo := 0; lo < len(rows); lo += perStmt {
		hi := min(lo+perStmt, len(rows))
		ins := w.store.Builder().Insert(adapter.QuoteIdentifier(t.Name())).Columns(cols...)
		for _, row := range rows[lo:hi] {
			vals := make([]any, len(row))
			for i, c := range t.Def.Columns {
				vals[i] = dataset.SQLValue(c.Type, row[i])
			}
			ins = ins.Values(vals...)
		}
		query, args, err := ins.ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build insert for %s: %w", t.Name(), err)
		}
		stmts = append(stmts, statement{query: query, args: args})
	}
	return stmts, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
