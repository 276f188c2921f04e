// pkg/warehouse/errors.go
package warehouse

import "fmt"

// Provisioning steps reported in ProvisioningError.Step
const (
	StepDatabase = "database"
	StepSchema   = "schema"
	StepTable    = "table"
)

// ProvisioningError reports a failed DDL step. Nothing after it runs.
type ProvisioningError struct {
	Step   string // database, schema or table
	Object string
	Err    error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("failed to provision %s %s: %v", e.Step, e.Object, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// LoadError reports a failed load. The transaction was rolled back, so none
// of the Attempted rows are visible.
type LoadError struct {
	Attempted int
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %d rows: %v", e.Attempted, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// AggregationError reports a failed summary query
type AggregationError struct {
	Err error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("failed to aggregate inspections: %v", e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}
