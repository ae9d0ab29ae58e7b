package order

import (
	"strings"

	"labtrack/internal/pkg/errs"
)

const maxSampleLength = 32

// Sample is the specimen type (e.g. SALIVA). Samples are upper-cased so that
// "saliva" and "SALIVA" name the same natural key.
type Sample string

// NewSample normalizes and validates a specimen type.
func NewSample(s string) (Sample, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", errs.NewValueIsRequiredError("sample")
	}
	if len(s) > maxSampleLength {
		return "", errs.NewValueIsOutOfRangeError("sample length", len(s), 1, maxSampleLength)
	}
	return Sample(s), nil
}

func (s Sample) String() string {
	return string(s)
}
