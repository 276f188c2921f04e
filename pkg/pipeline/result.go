// pkg/pipeline/result.go
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/David-Botos/inspections-elt/pkg/model"
)

// RunResult holds the outcome of one pipeline run
type RunResult struct {
	RunID          string
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	State          State
	FailedStage    Stage
	RowsExtracted  int64
	RowsLoaded     int64
	RowsSummarized int64
	RowsExcluded   int64
	Summary        []model.SummaryRow
	Metrics        *RunMetrics

	// BatchFingerprint is the hex xxh3 hash of the extracted batch
	BatchFingerprint string
}

// NewRunResult starts a result with a fresh run ID
func NewRunResult() *RunResult {
	return &RunResult{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
		State:     StateIdle,
	}
}

// Success reports whether the run reached the closed state
func (r *RunResult) Success() bool {
	return r.State == StateClosed
}

func (r *RunResult) finish(state State) {
	r.State = state
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	if r.Metrics != nil {
		r.Metrics.Complete()
	}
}
