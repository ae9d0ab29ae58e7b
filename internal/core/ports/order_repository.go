// Package ports defines the contracts between the labtrack core and its
// infrastructure: persistence, notification transports and client authorization.
package ports

import (
	"context"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
)

// ScanFilter is the server-side part of a report query. The store applies
// every field; the event predicate lives in order metadata and is filtered by
// the caller.
type ScanFilter struct {
	Status        order.Status
	TestSiteIDs   []string
	ReportedAfter *time.Time
	SampledAfter  *time.Time
}

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order. A second order with the same (number, sample)
	// fails with errs.ErrConflict.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order. It fails with
	// errs.ErrConflict when the stored revision moved since the order was read.
	Update(ctx context.Context, aggregate *order.Order) error

	// FindByKey retrieves the order for (number, sample). Inside a unit of
	// work the row stays locked until commit or rollback.
	// Returns errs.ErrObjectNotFound when no order matches.
	FindByKey(ctx context.Context, number order.Number, sample order.Sample) (*order.Order, error)

	// ExistsByNumber reports whether any order uses number, for any sample.
	ExistsByNumber(ctx context.Context, number order.Number) (bool, error)

	OrderScanner
}

// OrderScanner is the paged, filtered read used by report generation.
type OrderScanner interface {
	// Scan returns up to one physical page of orders matching filter with ids
	// after startKey (from the beginning when nil), in id order. next is the
	// id of the last examined record, to be passed back as startKey; it is nil
	// when the store has no more matching data.
	Scan(ctx context.Context, filter ScanFilter, startKey *kernel.UUID) (orders []*order.Order, next *kernel.UUID, err error)

	// CountInProgressIssuedBefore counts orders still InProgress issued before t.
	CountInProgressIssuedBefore(ctx context.Context, t time.Time) (int64, error)
}
