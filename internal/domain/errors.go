package domain

import (
	"errors"
	"fmt"
)

// Engine error sentinels. The typed errors below match them via errors.Is.
var (
	// ErrConfiguration is matched by *ConfigurationError.
	ErrConfiguration = errors.New("configuration error")

	// ErrNumericAnomaly is matched by *NumericAnomalyError.
	ErrNumericAnomaly = errors.New("numeric anomaly")

	// ErrEmptyBatch is matched by *EmptyBatchError.
	ErrEmptyBatch = errors.New("empty trial batch")

	// ErrDegenerateScenarioSet is matched by *DegenerateScenarioSetError.
	ErrDegenerateScenarioSet = errors.New("degenerate scenario set")
)

// ConfigurationError reports a malformed or missing parameter.
// Aborts the run before any simulation starts.
type ConfigurationError struct {
	Field  string
	Reason string
}

// NewConfigurationError creates a ConfigurationError for field.
func NewConfigurationError(field, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NumericAnomalyError reports a NaN, Inf or out-of-domain value computed
// for a (scenario, strategy) pair.
type NumericAnomalyError struct {
	Scenario string
	Strategy string
	Quantity string // e.g. "adoption_probability", "contribution"
	Value    float64
}

func (e *NumericAnomalyError) Error() string {
	return fmt.Sprintf("numeric anomaly: scenario=%s strategy=%s: %s=%v",
		e.Scenario, e.Strategy, e.Quantity, e.Value)
}

func (e *NumericAnomalyError) Is(target error) bool {
	return target == ErrNumericAnomaly
}

// EmptyBatchError reports aggregation of a batch with zero trials.
type EmptyBatchError struct {
	Scenario string
	Strategy string
}

func (e *EmptyBatchError) Error() string {
	return fmt.Sprintf("empty trial batch: scenario=%s strategy=%s", e.Scenario, e.Strategy)
}

func (e *EmptyBatchError) Is(target error) bool {
	return target == ErrEmptyBatch
}

// DegenerateScenarioSetError reports an empty scenario list or weights
// that do not sum to one.
type DegenerateScenarioSetError struct {
	Strategy string // empty when detected before scoring a specific strategy
	Reason   string
}

func (e *DegenerateScenarioSetError) Error() string {
	if e.Strategy == "" {
		return fmt.Sprintf("degenerate scenario set: %s", e.Reason)
	}
	return fmt.Sprintf("degenerate scenario set: strategy=%s: %s", e.Strategy, e.Reason)
}

func (e *DegenerateScenarioSetError) Is(target error) bool {
	return target == ErrDegenerateScenarioSet
}
