package exec

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/generators"
	"github.com/mmrzaf/sbgen/internal/logging"
	"github.com/mmrzaf/sbgen/internal/metrics"
	"github.com/mmrzaf/sbgen/internal/registry"
)

type Target interface {
	Connect() error
	Close() error
	CreateTableIfNotExists(schema domain.TableSchema) error
	TruncateTable(tableName string) error
	InsertBatch(tableName string, columns []string, rows [][]any) error
}

// Progress is reported after every batch the target accepts.
type Progress struct {
	Table     string
	Part      int
	Parts     int
	Rows      int64
	TotalRows int64
}

type ProgressFunc func(Progress)

// sinkKind labels sink metrics; targets that do not report a kind are
// counted as "unknown".
func sinkKind(target Target) string {
	if k, ok := target.(interface{ Kind() string }); ok {
		return k.Kind()
	}
	return "unknown"
}

// partBuffer is how many batches a finished-early part may hold while the
// writer is still draining an earlier part.
const partBuffer = 4

type Executor struct {
	env     *registry.Env
	metrics *metrics.Metrics
	logger  *logging.Logger
}

func NewExecutor(env *registry.Env, m *metrics.Metrics, logger *logging.Logger) *Executor {
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{env: env, metrics: m, logger: logger.WithComponent("executor")}
}

// Execute generates every table in plan into target. Parts are generated
// in parallel and written in part order, so the target sees the same rows
// in the same order as a single-threaded run.
func (e *Executor) Execute(ctx context.Context, plan Plan, target Target, onProgress ProgressFunc) (*domain.RunStats, error) {
	tables, err := plan.Resolve()
	if err != nil {
		return nil, err
	}
	if onProgress == nil {
		onProgress = func(Progress) {}
	}

	if err := target.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to target: %w", err)
	}
	defer target.Close()

	runStart := time.Now()
	stats := &domain.RunStats{TableStats: make([]domain.TableRunStats, 0, len(tables))}

	for _, tp := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := prepareTable(target, tp.Entry.Schema, plan.Mode); err != nil {
			return nil, err
		}

		started := time.Now()
		rows, err := e.runTable(ctx, plan, tp, target, onProgress)
		if err != nil {
			return nil, fmt.Errorf("table '%s': %w", tp.Table, err)
		}
		duration := time.Since(started)

		e.logger.Infow("table generated", map[string]any{
			"table":    tp.Table,
			"parts":    tp.LastPart - tp.FirstPart + 1,
			"rows":     rows,
			"duration": duration.String(),
		})
		stats.TableStats = append(stats.TableStats, domain.TableRunStats{
			Table:           tp.Table,
			Parts:           tp.LastPart - tp.FirstPart + 1,
			RowsGenerated:   rows,
			DurationSeconds: duration.Seconds(),
		})
		stats.TotalRows += rows
	}

	stats.TablesGenerated = len(tables)
	stats.DurationSeconds = time.Since(runStart).Seconds()
	return stats, nil
}

func prepareTable(target Target, schema domain.TableSchema, mode string) error {
	if mode == "" {
		mode = domain.TableModeCreateIfMissing
	}
	switch mode {
	case domain.TableModeCreateIfMissing:
		if err := target.CreateTableIfNotExists(schema); err != nil {
			return fmt.Errorf("failed to create table '%s': %w", schema.Name, err)
		}
	case domain.TableModeTruncateThenInsert:
		if err := target.CreateTableIfNotExists(schema); err != nil {
			return fmt.Errorf("failed to create table '%s': %w", schema.Name, err)
		}
		if err := target.TruncateTable(schema.Name); err != nil {
			return fmt.Errorf("failed to truncate table '%s': %w", schema.Name, err)
		}
	case domain.TableModeAppendOnly:
	default:
		return fmt.Errorf("unknown table mode: %s", mode)
	}
	return nil
}

// runTable fans the parts of one table out to at most plan.Workers
// goroutines. Parts are started in order and each owns a channel, so the
// writer below can always drain the earliest unfinished part.
func (e *Executor) runTable(ctx context.Context, plan Plan, tp TablePlan, target Target, onProgress ProgressFunc) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := plan.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	n := tp.LastPart - tp.FirstPart + 1
	chans := make([]chan [][]any, n)
	for i := range chans {
		chans[i] = make(chan [][]any, partBuffer)
	}

	spawned := make(chan struct{})
	go func() {
		defer close(spawned)
		for i := 0; i < n; i++ {
			ch, part := chans[i], tp.FirstPart+i
			g.Go(func() error {
				defer close(ch)
				return e.generatePart(gctx, plan, tp, part, ch)
			})
		}
	}()

	columns := tp.Entry.Schema.ColumnNames()
	sink := sinkKind(target)
	var written int64
	var writeErr error
drain:
	for i, ch := range chans {
		for batch := range ch {
			if err := target.InsertBatch(tp.Table, columns, batch); err != nil {
				e.metrics.SinkErrors.WithLabelValues(sink).Inc()
				writeErr = fmt.Errorf("failed to insert batch: %w", err)
				cancel()
				break drain
			}
			e.metrics.SinkBatches.WithLabelValues(sink).Inc()
			written += int64(len(batch))
			onProgress(Progress{
				Table:     tp.Table,
				Part:      tp.FirstPart + i,
				Parts:     tp.Parts,
				Rows:      written,
				TotalRows: tp.TotalRows,
			})
		}
		if gctx.Err() != nil {
			break
		}
	}

	<-spawned
	genErr := g.Wait()
	if writeErr != nil {
		return written, writeErr
	}
	if genErr != nil {
		return written, genErr
	}
	return written, ctx.Err()
}

func (e *Executor) generatePart(ctx context.Context, plan Plan, tp TablePlan, part int, out chan<- [][]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	started := time.Now()
	tbl, err := tp.Entry.Build(e.env, plan.ScaleFactor, part, tp.Parts)
	if err != nil {
		return err
	}

	var it generators.Iterator
	if ct, ok := tbl.(generators.ContextTable); ok {
		it = ct.IterContext(ctx)
	} else {
		it = tbl.Iter()
	}

	size := plan.batchSize()
	batch := make([][]any, 0, size)
	send := func() error {
		select {
		case out <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
		e.metrics.RowsGenerated.WithLabelValues(tp.Table).Add(float64(len(batch)))
		batch = make([][]any, 0, size)
		return nil
	}

	for row, ok := it.Next(); ok; row, ok = it.Next() {
		batch = append(batch, row.Values())
		if len(batch) == size {
			if err := send(); err != nil {
				return err
			}
		}
	}
	if len(batch) > 0 {
		if err := send(); err != nil {
			return err
		}
	}

	elapsed := time.Since(started)
	e.metrics.PartitionDuration.WithLabelValues(tp.Table).Observe(elapsed.Seconds())
	e.logger.Debugw("part generated", map[string]any{
		"table":    tp.Table,
		"part":     part,
		"parts":    tp.Parts,
		"duration": elapsed.String(),
	})
	return nil
}
