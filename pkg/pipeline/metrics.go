// pkg/pipeline/metrics.go
package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/David-Botos/inspections-elt/pkg/metrics"
)

// Row kinds reported to the metrics backend
const (
	RowsExtracted  = "extracted"
	RowsLoaded     = "loaded"
	RowsSummarized = "summarized"
	RowsExcluded   = "excluded"
)

// StageMetrics tracks one stage execution
type StageMetrics struct {
	Stage    Stage         `json:"stage"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RunMetrics collects timings and row counts for a single run and forwards
// them to the metrics backend.
type RunMetrics struct {
	Job       string                  `json:"job"`
	StartTime time.Time               `json:"startTime"`
	EndTime   time.Time               `json:"endTime"`
	Stages    map[Stage]*StageMetrics `json:"stages"`
	Rows      map[string]int64        `json:"rows"`
	mu        sync.Mutex
}

// NewRunMetrics creates metrics for a run reported under job
func NewRunMetrics(job string) *RunMetrics {
	return &RunMetrics{
		Job:       job,
		StartTime: time.Now(),
		Stages:    make(map[Stage]*StageMetrics),
		Rows:      make(map[string]int64),
	}
}

// RecordStage records how long stage took and whether it failed
func (rm *RunMetrics) RecordStage(stage Stage, d time.Duration, err error) {
	rm.mu.Lock()
	sm, ok := rm.Stages[stage]
	if !ok {
		sm = &StageMetrics{Stage: stage}
		rm.Stages[stage] = sm
	}
	sm.Duration += d
	if err != nil {
		sm.Error = err.Error()
	}
	rm.mu.Unlock()

	metrics.RecordStage(rm.Job, stage.String(), err, d)
}

// RecordRows adds n rows of the given kind
func (rm *RunMetrics) RecordRows(kind string, n int64) {
	rm.mu.Lock()
	rm.Rows[kind] += n
	rm.mu.Unlock()

	metrics.RecordRows(rm.Job, kind, n)
}

// Complete marks the end of the run
func (rm *RunMetrics) Complete() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.EndTime = time.Now()
}

// Duration returns the run duration so far, or the final one once complete
func (rm *RunMetrics) Duration() time.Duration {
	if rm.EndTime.IsZero() {
		return time.Since(rm.StartTime)
	}
	return rm.EndTime.Sub(rm.StartTime)
}

// loadThroughput returns loaded rows per second of load stage time
func (rm *RunMetrics) loadThroughput() float64 {
	sm, ok := rm.Stages[StageLoad]
	if !ok || sm.Duration <= 0 {
		return 0
	}
	return float64(rm.Rows[RowsLoaded]) / sm.Duration.Seconds()
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Millisecond).String()
}

// GenerateMetricsReport creates a text report of the run
func (rm *RunMetrics) GenerateMetricsReport() string {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	loaded := rm.Rows[RowsLoaded]
	var b strings.Builder
	fmt.Fprintf(&b, `
Run Metrics Report
==================
Duration:            %s
Start Time:          %s
End Time:            %s

Rows
----
Extracted:           %d
Loaded:              %d
Summarized:          %d (%.1f%%)
Excluded:            %d (%.1f%%)
Load Throughput:     %.2f rows/sec
`,
		formatDuration(rm.Duration()),
		rm.StartTime.Format(time.RFC3339),
		rm.EndTime.Format(time.RFC3339),
		rm.Rows[RowsExtracted],
		loaded,
		rm.Rows[RowsSummarized], getPercentage(float64(rm.Rows[RowsSummarized]), float64(loaded)),
		rm.Rows[RowsExcluded], getPercentage(float64(rm.Rows[RowsExcluded]), float64(loaded)),
		rm.loadThroughput(),
	)

	b.WriteString("\nStages\n------\n")
	for _, sm := range rm.sortedStages() {
		status := "ok"
		if sm.Error != "" {
			status = "failed: " + sm.Error
		}
		fmt.Fprintf(&b, "- %-10s %10s  %s\n", sm.Stage, formatDuration(sm.Duration), status)
	}

	return b.String()
}

// sortedStages returns stages in pipeline order
func (rm *RunMetrics) sortedStages() []*StageMetrics {
	order := map[Stage]int{
		StageConnect:   0,
		StageExtract:   1,
		StageProvision: 2,
		StageLoad:      3,
		StageAggregate: 4,
		StageClose:     5,
	}
	stages := make([]*StageMetrics, 0, len(rm.Stages))
	for _, sm := range rm.Stages {
		stages = append(stages, sm)
	}
	sort.Slice(stages, func(i, j int) bool {
		return order[stages[i].Stage] < order[stages[j].Stage]
	})
	return stages
}

func getPercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * 100
}

// ToJSON converts metrics to JSON
func (rm *RunMetrics) ToJSON() ([]byte, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return json.MarshalIndent(rm, "", "  ")
}
