package ports

import (
	"context"

	"labtrack/internal/core/domain/model/notification"
	"labtrack/internal/core/domain/model/order"
)

// Message is what a notification tells its target: which order has a result.
// It deliberately carries no result value.
type Message struct {
	OrderNumber string
	Sample      string
}

// NewMessage builds the message for o.
func NewMessage(o *order.Order) Message {
	return Message{
		OrderNumber: o.Number().Value(),
		Sample:      o.Sample().String(),
	}
}

// HTTPNotifier delivers to HTTP targets. Send reports success for the single
// target and must not panic or block past ctx.
type HTTPNotifier interface {
	Send(ctx context.Context, target notification.HTTP, msg Message) bool
}

// PushNotifier delivers to app-push targets.
type PushNotifier interface {
	Send(ctx context.Context, target notification.AppPush, msg Message) bool
}
