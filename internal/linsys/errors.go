package linsys

import (
	"errors"
	"fmt"
)

// Domain errors for model construction and assembly.
var (
	// ErrMissingParameter indicates a required parameter key is absent.
	ErrMissingParameter = errors.New("linsys: missing parameter")

	// ErrIllPosed indicates NaN or Inf in an assembled model.
	ErrIllPosed = errors.New("linsys: ill-posed model (NaN or Inf detected)")

	// ErrDimensionMismatch indicates matrices whose shapes do not agree.
	ErrDimensionMismatch = errors.New("linsys: dimension mismatch")

	// ErrTopology indicates an inconsistent network description.
	ErrTopology = errors.New("linsys: invalid topology")

	// ErrUnknownClass indicates a device class with no model.
	ErrUnknownClass = errors.New("linsys: unknown device class")
)

// MissingParameterError names the component and key of a failed lookup.
type MissingParameterError struct {
	Component string
	Key       string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("linsys: component %q: missing parameter %q", e.Component, e.Key)
}

func (e *MissingParameterError) Unwrap() error {
	return ErrMissingParameter
}

// TopologyError wraps ErrTopology with the offending detail.
type TopologyError struct {
	Reason string
}

func (e *TopologyError) Error() string {
	return "linsys: invalid topology: " + e.Reason
}

func (e *TopologyError) Unwrap() error {
	return ErrTopology
}

// Topologyf builds a TopologyError from a format string.
func Topologyf(format string, args ...any) error {
	return &TopologyError{Reason: fmt.Sprintf(format, args...)}
}
