// Package commands contains business operations that modify order state.
// All commands follow a consistent pattern: validation, transaction management,
// persistence, and post-commit side effects.
package commands

import (
	"context"

	"labtrack/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// OrderUoW manages transactions for order operations.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   existing, err := uow.OrderRepository().FindByKey(ctx, number, sample)
	//   // ... merge or create
	//
	//   err = uow.Commit(ctx)
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// ResultNotifier sends result-available notifications to raw targets and
	// reports whether all of them were delivered.
	ResultNotifier interface {
		Dispatch(ctx context.Context, targets []string, msg ports.Message) bool
	}
)
