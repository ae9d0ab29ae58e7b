// Package report models negative-result reports: the filter parameters, the
// pagination token binding a page to those parameters, and report entries.
package report

import (
	"strings"
	"time"

	"labtrack/internal/pkg/errs"
)

// Parameters filter a report. They are compared by value: a pagination token
// is only accepted together with equal Parameters.
type Parameters struct {
	event         string
	reportedAfter *time.Time
	sampledAfter  *time.Time
}

// NewParameters validates the report filter. Timestamps are normalized to UTC.
func NewParameters(event string, reportedAfter, sampledAfter *time.Time) (Parameters, error) {
	event = strings.TrimSpace(event)
	if event == "" {
		return Parameters{}, errs.NewValueIsRequiredError("event")
	}
	return Parameters{
		event:         event,
		reportedAfter: utc(reportedAfter),
		sampledAfter:  utc(sampledAfter),
	}, nil
}

func (p Parameters) Event() string             { return p.event }
func (p Parameters) ReportedAfter() *time.Time { return p.reportedAfter }
func (p Parameters) SampledAfter() *time.Time  { return p.sampledAfter }

// Equal compares parameters by value; timestamps compare by instant.
func (p Parameters) Equal(other Parameters) bool {
	return p.event == other.event &&
		timesEqual(p.reportedAfter, other.reportedAfter) &&
		timesEqual(p.sampledAfter, other.sampledAfter)
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
