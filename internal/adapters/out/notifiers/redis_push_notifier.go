package notifiers

import (
	"context"

	"labtrack/internal/core/domain/model/notification"
	"labtrack/internal/core/ports"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultPushStream is the stream the push gateway consumes.
const DefaultPushStream = "labtrack:push"

// StreamAdder is the part of *redis.Client the notifier uses.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisPushNotifier appends app-push requests to a Redis stream.
type RedisPushNotifier struct {
	client StreamAdder
	stream string
	maxLen int64
	logger *zap.Logger
}

var _ ports.PushNotifier = (*RedisPushNotifier)(nil)

// NewRedisPushNotifier creates the notifier. The stream is trimmed to about
// maxLen entries; zero disables trimming.
func NewRedisPushNotifier(client StreamAdder, stream string, maxLen int64, logger *zap.Logger) *RedisPushNotifier {
	if stream == "" {
		stream = DefaultPushStream
	}
	return &RedisPushNotifier{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: logger.With(zap.String("component", "redis_push_notifier")),
	}
}

// Send enqueues one push request for target.Token.
func (n *RedisPushNotifier) Send(ctx context.Context, target notification.AppPush, msg ports.Message) bool {
	id, err := n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: n.maxLen,
		Approx: n.maxLen > 0,
		Values: map[string]any{
			"token":       target.Token,
			"orderNumber": msg.OrderNumber,
			"sample":      msg.Sample,
		},
	}).Result()
	if err != nil {
		n.logger.Warn("Push notification was not queued",
			zap.String("order_number", msg.OrderNumber),
			zap.String("stream", n.stream),
			zap.Error(err),
		)
		return false
	}

	n.logger.Debug("Push notification queued",
		zap.String("order_number", msg.OrderNumber),
		zap.String("message_id", id),
	)
	return true
}
