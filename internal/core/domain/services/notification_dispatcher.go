package services

import (
	"context"
	"fmt"
	"time"

	"labtrack/internal/core/domain/model/notification"
	"labtrack/internal/core/ports"
	"labtrack/internal/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultNotificationTimeout     = 10 * time.Second
	defaultNotificationConcurrency = 8
)

// Outcome is the delivery result for one distinct target.
type Outcome struct {
	Notification notification.Notification
	Delivered    bool
}

// NotificationDispatcher fans a message out to raw notification targets.
//
// Business rules:
//   - Duplicate raw targets are delivered once
//   - Each target is resolved independently; unsupported targets fail without
//     aborting the batch
//   - Deliveries run concurrently, each under its own timeout, so one slow or
//     failing target never affects another
//   - The batch succeeds only if every target succeeded; an empty batch fails
type NotificationDispatcher struct {
	http        ports.HTTPNotifier
	push        ports.PushNotifier
	timeout     time.Duration
	concurrency int
	metrics     *metrics.Collectors
	logger      *zap.Logger
}

// DispatcherOption configures a NotificationDispatcher.
type DispatcherOption func(*NotificationDispatcher)

// WithTimeout bounds every single delivery.
func WithTimeout(d time.Duration) DispatcherOption {
	return func(nd *NotificationDispatcher) {
		if d > 0 {
			nd.timeout = d
		}
	}
}

// WithConcurrency limits parallel deliveries per batch.
func WithConcurrency(n int) DispatcherOption {
	return func(nd *NotificationDispatcher) {
		if n > 0 {
			nd.concurrency = n
		}
	}
}

// NewNotificationDispatcher wires the per-kind notifiers.
func NewNotificationDispatcher(
	httpNotifier ports.HTTPNotifier,
	pushNotifier ports.PushNotifier,
	collectors *metrics.Collectors,
	logger *zap.Logger,
	opts ...DispatcherOption,
) NotificationDispatcher {
	d := NotificationDispatcher{
		http:        httpNotifier,
		push:        pushNotifier,
		timeout:     defaultNotificationTimeout,
		concurrency: defaultNotificationConcurrency,
		metrics:     collectors,
		logger:      logger.With(zap.String("component", "notification_dispatcher")),
	}
	for _, o := range opts {
		o(&d)
	}
	return d
}

// Dispatch delivers msg to every target and reports whether all of them
// succeeded. Per-target outcomes are dropped; use DispatchAll to inspect them.
func (d NotificationDispatcher) Dispatch(ctx context.Context, targets []string, msg ports.Message) bool {
	outcomes := d.DispatchAll(ctx, targets, msg)
	if len(outcomes) == 0 {
		return false
	}
	for _, o := range outcomes {
		if !o.Delivered {
			return false
		}
	}
	return true
}

// DispatchAll delivers msg to each distinct target and returns one Outcome per
// target in first-seen order.
func (d NotificationDispatcher) DispatchAll(ctx context.Context, targets []string, msg ports.Message) []Outcome {
	distinct := dedupe(targets)
	outcomes := make([]Outcome, len(distinct))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, raw := range distinct {
		n := notification.Resolve(raw)
		outcomes[i].Notification = n
		g.Go(func() error {
			outcomes[i].Delivered = d.deliver(ctx, n, msg)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (d NotificationDispatcher) deliver(ctx context.Context, n notification.Notification, msg ports.Message) (delivered bool) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Notifier panicked",
				zap.String("kind", string(n.Kind())),
				zap.String("panic", fmt.Sprint(r)),
			)
			delivered = false
		}
		d.record(n, delivered)
	}()

	return notification.Match(n,
		func(h notification.HTTP) bool {
			return d.http.Send(ctx, h, msg)
		},
		func(p notification.AppPush) bool {
			return d.push.Send(ctx, p, msg)
		},
		func(u notification.Unsupported) bool {
			d.logger.Warn("Unsupported notification target", zap.String("target", u.Raw))
			return false
		},
	)
}

func (d NotificationDispatcher) record(n notification.Notification, delivered bool) {
	outcome := metrics.OutcomeFailure
	switch {
	case n.Kind() == notification.KindUnsupported:
		outcome = metrics.OutcomeUnsupported
	case delivered:
		outcome = metrics.OutcomeSuccess
	}
	d.metrics.NotificationsTotal.WithLabelValues(string(n.Kind()), outcome).Inc()
}

func dedupe(targets []string) []string {
	seen := make(map[string]struct{}, len(targets))
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
