package order

import (
	"fmt"

	"labtrack/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
//
// State transitions:
//
//	InProgress ──> Positive | WeakPositive | Negative | Invalid
//
// InProgress is the only non-terminal state. A terminal status never changes again.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// InProgress is the status of every newly registered order.
	InProgress

	Positive
	WeakPositive
	Negative
	Invalid
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:      "UNKNOWN",
		InProgress:   "IN_PROGRESS",
		Positive:     "POSITIVE",
		WeakPositive: "WEAK_POSITIVE",
		Negative:     "NEGATIVE",
		Invalid:      "INVALID",
	}
}

// Validate checks that s is one of the defined statuses other than Unknown.
func (s Status) Validate() error {
	if s <= Unknown || s > Invalid {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the wire name of the status, "UNKNOWN" for invalid values.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s.Validate() == nil && s != InProgress
}

// ParseStatus converts a wire name back to a Status.
func ParseStatus(s string) (Status, error) {
	for status, name := range getStatusStrings() {
		if status != Unknown && name == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}
