package orderrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/core/ports"
	"labtrack/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultScanPageSize is the number of rows one Scan call returns at most.
const DefaultScanPageSize = 100

// GormOrderRepository implements ports.OrderRepository using GORM.
//
// Duplicate keys are reported as errs.ErrConflict; the gorm.DB must be opened
// with TranslateError enabled for that mapping to apply.
type GormOrderRepository struct {
	db           *gorm.DB
	scanPageSize int
	lockRows     bool
}

// Option configures a GormOrderRepository.
type Option func(*GormOrderRepository)

// WithScanPageSize sets the physical page size of Scan.
func WithScanPageSize(n int) Option {
	return func(r *GormOrderRepository) {
		if n > 0 {
			r.scanPageSize = n
		}
	}
}

// WithRowLocks makes FindByKey take a row lock (SELECT ... FOR UPDATE). Only
// meaningful when db is a transaction.
func WithRowLocks() Option {
	return func(r *GormOrderRepository) {
		r.lockRows = true
	}
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, opts ...Option) *GormOrderRepository {
	r := &GormOrderRepository{
		db:           db,
		scanPageSize: DefaultScanPageSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ ports.OrderRepository = (*GormOrderRepository)(nil)

// Add inserts a new order.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewConflictErrorWithCause(
				"order",
				fmt.Sprintf("%s with sample %s already exists", aggregate.Number(), aggregate.Sample()),
				err,
			)
		}
		return err
	}
	return nil
}

// Update writes the order if the stored version still equals the version it
// was loaded with, and bumps the version.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	dto.Version = aggregate.Version() + 1

	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND version = ?", dto.ID, aggregate.Version()).
		Select("*").
		Omit("id").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewConflictError("order", fmt.Sprintf("%s was modified concurrently", aggregate.Number()))
	}
	return nil
}

// FindByKey loads the order for (number, sample).
func (r *GormOrderRepository) FindByKey(ctx context.Context, number order.Number, sample order.Sample) (*order.Order, error) {
	if number == nil {
		return nil, errs.NewValueIsRequiredError("order number")
	}

	q := r.db.WithContext(ctx)
	if r.lockRows {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var dto OrderDTO
	err := q.
		Where("issuer_id = ? AND number = ? AND sample = ?", number.IssuerID(), number.Value(), sample.String()).
		Take(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", number.String()+"/"+sample.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// ExistsByNumber reports whether any sample uses number.
func (r *GormOrderRepository) ExistsByNumber(ctx context.Context, number order.Number) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("issuer_id = ? AND number = ?", number.IssuerID(), number.Value()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Scan returns the next physical page of orders matching filter in id order.
// It reads one row past the page to learn whether more data exists.
func (r *GormOrderRepository) Scan(
	ctx context.Context,
	filter ports.ScanFilter,
	startKey *kernel.UUID,
) ([]*order.Order, *kernel.UUID, error) {
	if len(filter.TestSiteIDs) == 0 {
		return nil, nil, nil
	}

	q := r.db.WithContext(ctx).
		Where("status = ?", int(filter.Status)).
		Where("test_site_id IN ?", filter.TestSiteIDs)
	if filter.ReportedAfter != nil {
		q = q.Where("reported_at > ?", filter.ReportedAfter.UTC())
	}
	if filter.SampledAfter != nil {
		q = q.Where("sampled_at > ?", filter.SampledAfter.UTC())
	}
	if startKey != nil {
		q = q.Where("id > ?", startKey.Bytes())
	}

	var dtos []OrderDTO
	if err := q.Order("id").Limit(r.scanPageSize + 1).Find(&dtos).Error; err != nil {
		return nil, nil, err
	}

	more := len(dtos) > r.scanPageSize
	if more {
		dtos = dtos[:r.scanPageSize]
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, nil, err
		}
		orders = append(orders, o)
	}

	if !more {
		return orders, nil, nil
	}
	next := orders[len(orders)-1].ID()
	return orders, &next, nil
}

// CountInProgressIssuedBefore counts open orders issued before t.
func (r *GormOrderRepository) CountInProgressIssuedBefore(ctx context.Context, t time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("status = ? AND issued_at < ?", int(order.InProgress), t.UTC()).
		Count(&count).Error
	return count, err
}
