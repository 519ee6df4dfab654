package attention

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidNeeds is wrapped by CapabilityError when an element reports
	// negative or non-finite needs
	ErrInvalidNeeds = errors.New("needs must be finite and non-negative")

	// ErrCapabilityPanic is wrapped by CapabilityError when an element panics
	ErrCapabilityPanic = errors.New("element panicked")

	// ErrUnknownWidget is returned by Store.Configure when the ID is not a
	// registered widget
	ErrUnknownWidget = errors.New("no registered widget with that id")
)

// ConfigurationError describes an invalid input that was replaced by a
// default or clamped. It is logged, never returned from store operations.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// CapabilityError records an element whose Score or Needs failed during a pass
type CapabilityError struct {
	ElementID string
	Op        string // "score" or "needs"
	Err       error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("element %s: %s: %v", e.ElementID, e.Op, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// InvariantViolation means a pass produced usage above capacity. It
// indicates an allocator bug.
type InvariantViolation struct {
	Dimension Dimension
	Used      float64
	Max       float64
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("%s usage %g exceeds capacity %g", e.Dimension, e.Used, e.Max)
}
