package errors

import (
	"fmt"
)

// TopologyError occurs when the hardware topology cannot be discovered or
// an override file cannot be interpreted
type TopologyError struct{ Reason string }

// Error returns a textual representation of this TopologyError
func (e TopologyError) Error() string {
	return fmt.Sprintf("Topology unavailable: %s", e.Reason)
}

// PlacementError occurs when the requested thread count cannot be pinned to
// distinct hardware threads on the discovered topology
type PlacementError struct {
	Requested int
	Supported int
}

// Error returns a textual representation of this PlacementError
func (e PlacementError) Error() string {
	return fmt.Sprintf("Cannot place %d threads; this machine supports up to %d", e.Requested, e.Supported)
}

// PlanError occurs when a radix plan violates an invariant the build/probe
// models rely on
type PlanError struct{ Reason string }

// Error returns a textual representation of this PlanError
func (e PlanError) Error() string {
	return fmt.Sprintf("Invalid radix plan: %s", e.Reason)
}

// ConfigError occurs when a single Options field holds an unusable value
type ConfigError struct {
	Field  string
	Reason string
}

// Error returns a textual representation of this ConfigError
func (e ConfigError) Error() string {
	return fmt.Sprintf("Option %s %s", e.Field, e.Reason)
}

// BarrierError occurs when a barrier is constructed for a party count it
// cannot support
type BarrierError struct{ Reason string }

// Error returns a textual representation of this BarrierError
func (e BarrierError) Error() string {
	return fmt.Sprintf("Barrier misuse: %s", e.Reason)
}
