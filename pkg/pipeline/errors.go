// pkg/pipeline/errors.go
package pipeline

import (
	"errors"

	"github.com/David-Botos/inspections-elt/pkg/extract"
	"github.com/David-Botos/inspections-elt/pkg/warehouse"
)

// Stage names one step of a pipeline run
type Stage string

const (
	StageNone      Stage = ""
	StageConnect   Stage = "connect"
	StageExtract   Stage = "extract"
	StageProvision Stage = "provision"
	StageLoad      Stage = "load"
	StageAggregate Stage = "aggregate"
	StageClose     Stage = "close"
)

// String returns a string representation of the stage
func (s Stage) String() string {
	if s == StageNone {
		return "none"
	}
	return string(s)
}

// StageOf classifies err by the component error type it carries.
// Errors without one, such as connector failures, yield StageNone.
func StageOf(err error) Stage {
	var (
		fetchErr *extract.FetchError
		provErr  *warehouse.ProvisioningError
		loadErr  *warehouse.LoadError
		aggErr   *warehouse.AggregationError
	)

	switch {
	case err == nil:
		return StageNone
	case errors.As(err, &fetchErr):
		return StageExtract
	case errors.As(err, &provErr):
		return StageProvision
	case errors.As(err, &loadErr):
		return StageLoad
	case errors.As(err, &aggErr):
		return StageAggregate
	default:
		return StageNone
	}
}
