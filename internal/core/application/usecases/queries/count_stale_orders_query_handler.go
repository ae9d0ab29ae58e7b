package queries

import (
	"context"
	"time"

	"labtrack/internal/core/ports"
)

// CountStaleOrdersQueryHandler counts InProgress orders issued before
// now minus the query's age.
type CountStaleOrdersQueryHandler struct {
	scanner ports.OrderScanner
	now     func() time.Time
}

func NewCountStaleOrdersQueryHandler(scanner ports.OrderScanner, now func() time.Time) CountStaleOrdersQueryHandler {
	return CountStaleOrdersQueryHandler{scanner: scanner, now: now}
}

func (h CountStaleOrdersQueryHandler) Handle(ctx context.Context, query CountStaleOrdersQuery) (int64, error) {
	if err := query.Validate(); err != nil {
		return 0, err
	}
	return h.scanner.CountInProgressIssuedBefore(ctx, h.now().Add(-query.OlderThan()))
}
