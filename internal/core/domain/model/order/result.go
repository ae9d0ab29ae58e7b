package order

import (
	"fmt"
	"strings"

	"labtrack/internal/pkg/errs"
)

// Result is the outcome a lab reports for an order. Every result maps to a
// Status; ResultPending maps to InProgress and therefore does not finish the order.
type Result int

const (
	ResultUnknown Result = iota
	ResultPending
	ResultPositive
	ResultWeakPositive
	ResultNegative
	ResultInvalid
)

var resultNames = map[string]Result{
	"PENDING":       ResultPending,
	"IN_PROGRESS":   ResultPending,
	"POSITIVE":      ResultPositive,
	"WEAK_POSITIVE": ResultWeakPositive,
	"NEGATIVE":      ResultNegative,
	"INVALID":       ResultInvalid,
}

// ParseResult accepts the wire names case-insensitively.
func ParseResult(s string) (Result, error) {
	if r, ok := resultNames[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return r, nil
	}
	return ResultUnknown, errs.NewValueIsInvalidErrorWithCause("result", fmt.Errorf("%q is not a valid result", s))
}

// Status maps the result onto the order lifecycle.
func (r Result) Status() Status {
	switch r {
	case ResultPending:
		return InProgress
	case ResultPositive:
		return Positive
	case ResultWeakPositive:
		return WeakPositive
	case ResultNegative:
		return Negative
	case ResultInvalid:
		return Invalid
	case ResultUnknown:
		return Unknown
	}
	return Unknown
}

func (r Result) String() string {
	if r == ResultPending {
		return "PENDING"
	}
	return r.Status().String()
}
