// Package postgres provides the GORM-based Unit of Work used by command
// handlers.
//
// Every unit of work runs in its own transaction. Repositories obtained from
// an active unit of work lock the rows they read by key, so two writers of the
// same order serialize on the database instead of overwriting each other.
//
// Usage:
//
//	factory := NewGormUnitOfWorkFactory(db)
//	uow := factory.Create()
//
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer uow.Rollback(ctx)
//
//	o, err := uow.OrderRepository().FindByKey(ctx, number, sample)
//	// ... mutate o
//	if err := uow.OrderRepository().Update(ctx, o); err != nil {
//	    return err
//	}
//
//	return uow.Commit(ctx)
//
// Rollback after a successful Commit returns gorm.ErrInvalidTransaction and
// changes nothing, which makes the deferred Rollback above safe.
package postgres

import (
	"context"

	"labtrack/internal/adapters/out/postgres/clientrepo"
	"labtrack/internal/adapters/out/postgres/orderrepo"
	"labtrack/internal/core/ports"

	"gorm.io/gorm"
)

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one connection pool.
type GormUnitOfWorkFactory struct {
	db           *gorm.DB
	scanPageSize int
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work instances.
func NewGormUnitOfWorkFactory(db *gorm.DB, scanPageSize int) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db, scanPageSize: scanPageSize}
}

// Create produces a new UnitOfWork. Instances are not safe for concurrent use.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{db: f.db, scanPageSize: f.scanPageSize}
}

// GormUnitOfWork coordinates one database transaction.
type GormUnitOfWork struct {
	db           *gorm.DB
	tx           *gorm.DB
	scanPageSize int
}

// Begin starts the transaction. Calling Begin twice keeps the first one.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	tx := uow.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	uow.tx = tx
	return nil
}

// Commit finalizes the transaction.
// Returns gorm.ErrInvalidTransaction when no transaction is active.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return err
}

// Rollback discards the transaction.
// Returns gorm.ErrInvalidTransaction when no transaction is active.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	return err
}

// OrderRepository returns a repository bound to the active transaction, or to
// the pool when none is active.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	if uow.tx == nil {
		return orderrepo.NewGormOrderRepository(uow.db, orderrepo.WithScanPageSize(uow.scanPageSize))
	}
	return orderrepo.NewGormOrderRepository(uow.tx,
		orderrepo.WithScanPageSize(uow.scanPageSize),
		orderrepo.WithRowLocks(),
	)
}

// Migrate creates or updates every table this service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&orderrepo.OrderDTO{}, &clientrepo.ClientDTO{})
}
