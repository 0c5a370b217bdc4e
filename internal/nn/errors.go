package nn

import "fmt"

// The encoder is a pure synchronous pipeline: every failure propagates
// immediately to the caller, nothing is retried, and there are no partial
// results. The error types below are the complete taxonomy; callers match
// them with errors.As.

// ConfigError reports an invalid structural configuration, detected at
// construction time.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// ShapeError reports mismatched tensor dimensions at a computation step.
type ShapeError struct {
	Op   string
	Want string
	Got  string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: want %s, got %s", e.Op, e.Want, e.Got)
}

// InvariantError reports an internal contract violation, e.g. a layer
// returning no attention weights while weight collection is enabled.
// It indicates a bug in composition, not bad input.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: internal invariant violated: %s", e.Op, e.Detail)
}

// RangeError reports a requested sequence length or offset beyond the
// positional-encoding capacity.
type RangeError struct {
	Op        string
	Requested int
	Capacity  int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: requested position %d exceeds capacity %d", e.Op, e.Requested, e.Capacity)
}
