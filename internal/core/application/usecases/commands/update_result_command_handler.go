package commands

import (
	"context"
	"time"

	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/core/ports"
	"labtrack/internal/pkg/metrics"

	"go.uber.org/zap"
)

// UpdateResultCommandHandler stores a lab result and, once the order reaches a
// terminal status, notifies every registered target.
//
// Notification runs after commit and is best-effort: a failed dispatch is
// logged and never changes the outcome of Handle.
type UpdateResultCommandHandler struct {
	uowFactory OrderUoWFactory
	notifier   ResultNotifier
	now        func() time.Time
	metrics    *metrics.Collectors
	logger     *zap.Logger
}

func NewUpdateResultCommandHandler(
	uowFactory OrderUoWFactory,
	notifier ResultNotifier,
	now func() time.Time,
	collectors *metrics.Collectors,
	logger *zap.Logger,
) UpdateResultCommandHandler {
	return UpdateResultCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		now:        now,
		metrics:    collectors,
		logger:     logger.With(zap.String("component", "update_result")),
	}
}

// Handle applies the result. Returns errs.ErrObjectNotFound when the order does
// not exist and errs.ErrConflict when it already has a terminal status.
func (h *UpdateResultCommandHandler) Handle(ctx context.Context, cmd UpdateResultCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	o, err := h.apply(ctx, cmd)
	if err != nil {
		return nil, err
	}

	h.metrics.ResultUpdatesTotal.WithLabelValues(o.Status().String()).Inc()

	targets := o.NotificationTargets()
	if !o.Status().IsTerminal() || len(targets) == 0 {
		return o, nil
	}

	// The caller may go away once the result is stored; delivery still happens.
	if !h.notifier.Dispatch(context.WithoutCancel(ctx), targets, ports.NewMessage(o)) {
		h.logger.Warn("Result notification was not delivered to every target",
			zap.String("order_number", o.Number().String()),
			zap.String("sample", o.Sample().String()),
			zap.Int("targets", len(targets)),
		)
	}
	return o, nil
}

func (h *UpdateResultCommandHandler) apply(ctx context.Context, cmd UpdateResultCommand) (*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := repo.FindByKey(ctx, cmd.Number(), cmd.Sample())
	if err != nil {
		return nil, err
	}

	if err = o.ReportResult(cmd.Result(), cmd.LabID(), cmd.TestType(), cmd.VerificationSecret(), h.now()); err != nil {
		return nil, err
	}

	if err = repo.Update(ctx, o); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}
