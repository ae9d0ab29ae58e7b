package commands

import (
	"context"
	"errors"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/core/ports"
	"labtrack/internal/pkg/errs"

	"go.uber.org/zap"
)

// maxIssueAttempts bounds collision retries when issuing External numbers.
const maxIssueAttempts = 10

var ErrOrderNumberNotIssued = errors.New("could not issue a unique order number")

// RegisterOrderCommandHandler creates orders and merges repeated registrations.
//
// For an existing (number, sample):
//   - terminal orders are rejected with a conflict
//   - InProgress orders get the union of notification targets, capped at three
//
// Exactly one write happens per successful call and none on conflict.
type RegisterOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	random     order.RandomSource
	now        func() time.Time
	logger     *zap.Logger
}

// NewRegisterOrderCommandHandler creates the handler. random draws issued
// order numbers and must be safe for concurrent use.
func NewRegisterOrderCommandHandler(
	uowFactory OrderUoWFactory,
	random order.RandomSource,
	now func() time.Time,
	logger *zap.Logger,
) RegisterOrderCommandHandler {
	return RegisterOrderCommandHandler{
		uowFactory: uowFactory,
		random:     random,
		now:        now,
		logger:     logger.With(zap.String("component", "register_order")),
	}
}

// Handle registers the order and returns its persisted state. A first
// registration that loses the insert race to a concurrent one is replayed once
// as a merge into the winner's order.
func (h *RegisterOrderCommandHandler) Handle(ctx context.Context, cmd RegisterOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	o, lostInsert, err := h.register(ctx, cmd)
	if lostInsert {
		h.logger.Debug("Concurrent registration won the insert, merging", zap.Error(err))
		o, _, err = h.register(ctx, cmd)
	}
	if err != nil {
		return nil, err
	}

	h.logger.Debug("Order registered",
		zap.String("order_number", o.Number().String()),
		zap.String("sample", o.Sample().String()),
		zap.Int("notification_targets", len(o.NotificationTargets())),
	)
	return o, nil
}

// register runs one unit of work. lostInsert reports that Add hit the unique
// key; the transaction is unusable afterwards, so a replay needs a fresh one.
func (h *RegisterOrderCommandHandler) register(ctx context.Context, cmd RegisterOrderCommand) (o *order.Order, lostInsert bool, err error) {
	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()

	number := cmd.Number()
	if number == nil {
		issued, err := h.issueNumber(ctx, repo)
		if err != nil {
			return nil, false, err
		}
		number = issued
	}

	details := cmd.Details()
	details.IssuedAt = h.now()

	o, err = repo.FindByKey(ctx, number, cmd.Sample())
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		if o, err = order.NewOrder(kernel.NewUUID(), number, cmd.Sample(), details); err != nil {
			return nil, false, err
		}
		if err = repo.Add(ctx, o); err != nil {
			return nil, errors.Is(err, errs.ErrConflict), err
		}
	case err != nil:
		return nil, false, err
	default:
		if err = o.MergeRegistration(details); err != nil {
			return nil, false, err
		}
		if err = repo.Update(ctx, o); err != nil {
			return nil, false, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, false, err
	}
	return o, false, nil
}

func (h *RegisterOrderCommandHandler) issueNumber(ctx context.Context, repo ports.OrderRepository) (order.Number, error) {
	for range maxIssueAttempts {
		candidate := order.NewRandomExternal(h.random)
		exists, err := repo.ExistsByNumber(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if !exists {
			return candidate, nil
		}
		h.logger.Debug("Issued order number collided, retrying", zap.String("order_number", candidate.Value()))
	}
	return nil, ErrOrderNumberNotIssued
}
