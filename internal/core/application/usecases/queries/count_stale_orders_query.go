package queries

import (
	"errors"
	"math"
	"time"

	"labtrack/internal/pkg/errs"
	"labtrack/internal/pkg/guard"
)

var ErrCountStaleOrdersQueryIsNotConstructed = errors.New(
	"CountStaleOrdersQuery must be created via NewCountStaleOrdersQuery constructor",
)

// CountStaleOrdersQuery asks how many orders have waited longer than
// OlderThan for a result.
type CountStaleOrdersQuery struct {
	olderThan time.Duration

	guard guard.ConstructorGuard
}

func NewCountStaleOrdersQuery(olderThan time.Duration) (CountStaleOrdersQuery, error) {
	if olderThan <= 0 {
		return CountStaleOrdersQuery{}, errs.NewValueIsOutOfRangeError("stale order age", olderThan, time.Nanosecond, time.Duration(math.MaxInt64))
	}
	return CountStaleOrdersQuery{olderThan: olderThan, guard: guard.NewConstructorGuard()}, nil
}

func (q CountStaleOrdersQuery) Validate() error {
	return q.guard.Validate(ErrCountStaleOrdersQueryIsNotConstructed)
}

func (q CountStaleOrdersQuery) OlderThan() time.Duration { return q.olderThan }
