package nasch

import "fmt"

// ConfigError reports a simulation parameter outside its valid domain.
// Validation happens at construction and at run entry; parameters are
// never clamped mid-run.
type ConfigError struct {
	Param  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Param, e.Value, e.Reason)
}

// InvariantError reports a corrupted road state detected after a step:
// two vehicles sharing a cell, an unsorted position table, or a speed
// outside [0, max_speed]. It signals an engine bug, not a caller error.
type InvariantError struct {
	Step   int
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("road invariant violated at step %d: %s", e.Step, e.Detail)
}
