// pkg/pipeline/driver.go
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/inspections-elt/pkg/config"
	"github.com/David-Botos/inspections-elt/pkg/model"
)

// State represents where a run currently is. Extracted comes before
// Provisioned so a failed fetch never touches the warehouse.
type State string

const (
	StateIdle        State = "idle"
	StateConnected   State = "connected"
	StateExtracted   State = "extracted"
	StateProvisioned State = "provisioned"
	StateLoaded      State = "loaded"
	StateAggregated  State = "aggregated"
	StateClosed      State = "closed"
	StateFailed      State = "failed"
)

// Extractor fetches the raw batch from the source
type Extractor interface {
	Extract(ctx context.Context, limit int) ([]model.InspectionRecord, error)
}

// Warehouse is the session the driver provisions, loads and queries
type Warehouse interface {
	EnsureDatabase(ctx context.Context, name string) error
	EnsureSchema(ctx context.Context, name string) error
	EnsureTable(ctx context.Context) error
	Load(ctx context.Context, batch []model.InspectionRecord) (int64, error)
	Aggregate(ctx context.Context) ([]model.SummaryRow, error)
	Close() error
}

// ConnectFunc opens the warehouse session for one run
type ConnectFunc func(ctx context.Context) (Warehouse, error)

// Options configures a Driver
type Options struct {
	Limit      int
	MetricsJob string
}

// Driver runs the pipeline stages in order and owns the warehouse connection
// for the duration of a run.
type Driver struct {
	extractor Extractor
	connect   ConnectFunc
	creds     config.Credentials
	opts      Options
	logger    *zap.Logger

	state     State
	stateLock sync.RWMutex
}

// NewDriver creates a new pipeline driver
func NewDriver(extractor Extractor, connect ConnectFunc, creds config.Credentials, opts Options, logger *zap.Logger) *Driver {
	return &Driver{
		extractor: extractor,
		connect:   connect,
		creds:     creds,
		opts:      opts,
		logger:    logger,
		state:     StateIdle,
	}
}

// State returns the current driver state
func (d *Driver) State() State {
	d.stateLock.RLock()
	defer d.stateLock.RUnlock()
	return d.state
}

// setState updates the driver state
func (d *Driver) setState(logger *zap.Logger, state State) {
	d.stateLock.Lock()
	defer d.stateLock.Unlock()

	prevState := d.state
	d.state = state

	if prevState != state {
		logger.Info("Pipeline state changed",
			zap.String("from", string(prevState)),
			zap.String("to", string(state)))
	}
}

// Run executes connect, extract, provision, load and aggregate, then closes
// the connection. On failure the stage's error is returned unchanged and the
// connection, if one was opened, is closed exactly once before returning.
// The result is non-nil in both cases.
func (d *Driver) Run(ctx context.Context) (*RunResult, error) {
	result := NewRunResult()
	result.Metrics = NewRunMetrics(d.opts.MetricsJob)
	logger := d.logger.With(zap.String("runID", result.RunID))

	d.setState(logger, StateIdle)
	logger.Info("Starting pipeline run",
		zap.Int("limit", d.opts.Limit),
		zap.String("database", d.creds.Database),
		zap.String("schema", d.creds.Schema))

	var (
		wh        Warehouse
		closeOnce sync.Once
		closeErr  error
	)
	release := func() error {
		closeOnce.Do(func() {
			if wh == nil {
				return
			}
			closeErr = d.timeStage(result, StageClose, wh.Close)
		})
		return closeErr
	}
	defer release()

	fail := func(stage Stage, err error) (*RunResult, error) {
		d.setState(logger, StateFailed)
		result.FailedStage = stage
		if cerr := release(); cerr != nil {
			logger.Warn("Failed to close warehouse connection", zap.Error(cerr))
		}
		result.finish(StateFailed)
		logger.Error("Pipeline run failed",
			zap.String("stage", stage.String()),
			zap.Duration("duration", result.Duration),
			zap.Error(err))
		return result, err
	}

	err := d.timeStage(result, StageConnect, func() error {
		var err error
		wh, err = d.connect(ctx)
		return err
	})
	if err != nil {
		return fail(StageConnect, err)
	}
	d.setState(logger, StateConnected)

	var batch []model.InspectionRecord
	err = d.timeStage(result, StageExtract, func() error {
		var err error
		batch, err = d.extractor.Extract(ctx, d.opts.Limit)
		return err
	})
	if err != nil {
		return fail(StageExtract, err)
	}
	result.RowsExtracted = int64(len(batch))
	result.BatchFingerprint = fmt.Sprintf("%016x", model.Fingerprint(batch))
	result.Metrics.RecordRows(RowsExtracted, result.RowsExtracted)
	logger.Info("Extracted batch",
		zap.Int64("rows", result.RowsExtracted),
		zap.String("fingerprint", result.BatchFingerprint))
	d.setState(logger, StateExtracted)

	err = d.timeStage(result, StageProvision, func() error {
		if err := wh.EnsureDatabase(ctx, d.creds.Database); err != nil {
			return err
		}
		if err := wh.EnsureSchema(ctx, d.creds.Schema); err != nil {
			return err
		}
		return wh.EnsureTable(ctx)
	})
	if err != nil {
		return fail(StageProvision, err)
	}
	d.setState(logger, StateProvisioned)

	err = d.timeStage(result, StageLoad, func() error {
		var err error
		result.RowsLoaded, err = wh.Load(ctx, batch)
		return err
	})
	if err != nil {
		return fail(StageLoad, err)
	}
	result.Metrics.RecordRows(RowsLoaded, result.RowsLoaded)
	d.setState(logger, StateLoaded)

	err = d.timeStage(result, StageAggregate, func() error {
		var err error
		result.Summary, err = wh.Aggregate(ctx)
		return err
	})
	if err != nil {
		return fail(StageAggregate, err)
	}
	result.RowsSummarized = model.TotalCount(result.Summary)
	result.RowsExcluded = result.RowsLoaded - result.RowsSummarized
	result.Metrics.RecordRows(RowsSummarized, result.RowsSummarized)
	result.Metrics.RecordRows(RowsExcluded, result.RowsExcluded)
	if result.RowsExcluded > 0 {
		logger.Warn("Rows excluded from summary due to unparsable inspection dates",
			zap.Int64("excluded", result.RowsExcluded),
			zap.Int64("loaded", result.RowsLoaded))
	}
	d.setState(logger, StateAggregated)

	// Everything is committed and summarized; a close failure no longer
	// changes the outcome.
	if err := release(); err != nil {
		logger.Warn("Failed to close warehouse connection", zap.Error(err))
	}
	d.setState(logger, StateClosed)
	result.finish(StateClosed)

	logger.Info("Pipeline run completed",
		zap.Int64("rowsExtracted", result.RowsExtracted),
		zap.Int64("rowsLoaded", result.RowsLoaded),
		zap.Int("groups", len(result.Summary)),
		zap.Duration("duration", result.Duration))

	return result, nil
}

func (d *Driver) timeStage(result *RunResult, stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	result.Metrics.RecordStage(stage, time.Since(start), err)
	return err
}
