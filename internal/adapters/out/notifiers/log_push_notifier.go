package notifiers

import (
	"context"

	"labtrack/internal/core/domain/model/notification"
	"labtrack/internal/core/ports"

	"go.uber.org/zap"
)

// LogPushNotifier only logs push requests. It always succeeds.
type LogPushNotifier struct {
	logger *zap.Logger
}

var _ ports.PushNotifier = (*LogPushNotifier)(nil)

func NewLogPushNotifier(logger *zap.Logger) *LogPushNotifier {
	return &LogPushNotifier{logger: logger.With(zap.String("component", "log_push_notifier"))}
}

func (n *LogPushNotifier) Send(_ context.Context, target notification.AppPush, msg ports.Message) bool {
	n.logger.Info("Push notification",
		zap.String("token", target.Token),
		zap.String("order_number", msg.OrderNumber),
		zap.String("sample", msg.Sample),
	)
	return true
}
