// Package fault classifies the errors raised by the agent's hardware and
// persistence collaborators.
//
// Only Resource errors are fatal. Everything else is logged by the loop that
// hit it, which then carries on with its next iteration.
package fault

import (
	"errors"
	"fmt"
)

// Kind identifies the error category.
type Kind string

const (
	// HardwareRead means the sensor or the digital input could not be read.
	// The current tick is skipped.
	HardwareRead Kind = "HARDWARE_READ"

	// Display means a display command failed. Display output is best-effort.
	Display Kind = "DISPLAY"

	// SinkWrite means a sample could not be appended. The sample is dropped.
	SinkWrite Kind = "SINK_WRITE"

	// Resource means a hardware handle or destination could not be acquired
	// at startup. The process reports it and exits.
	Resource Kind = "RESOURCE"
)

// Error is a categorised failure of a single operation.
type Error struct {
	Kind Kind
	// Op names the failing operation, e.g. "sensor read" or "append walkingup".
	Op  string
	Err error
}

// New wraps err as a fault of the given kind. It returns nil if err is nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether err (or anything it wraps) is a fault of the given kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

// IsFatal reports whether err should terminate the process.
func IsFatal(err error) bool {
	return Is(err, Resource)
}
