package notifiers

import (
	"context"
	"time"

	"labtrack/internal/core/domain/model/notification"
	"labtrack/internal/core/ports"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// HTTPNotifier POSTs a JSON document to the target URL. Any 2xx response is
// a successful delivery.
type HTTPNotifier struct {
	client *resty.Client
	logger *zap.Logger
}

var _ ports.HTTPNotifier = (*HTTPNotifier)(nil)

// NewHTTPNotifier creates a notifier with a per-request timeout and retryCount
// retries on transport errors and 5xx responses.
func NewHTTPNotifier(timeout time.Duration, retryCount int, logger *zap.Logger) *HTTPNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r == nil || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "labtrack-notifier")

	return &HTTPNotifier{
		client: client,
		logger: logger.With(zap.String("component", "http_notifier")),
	}
}

// Send delivers msg to target.URL.
func (n *HTTPNotifier) Send(ctx context.Context, target notification.HTTP, msg ports.Message) bool {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(resultAvailable{OrderNumber: msg.OrderNumber, Sample: msg.Sample}).
		Post(target.URL)
	if err != nil {
		n.logger.Warn("HTTP notification failed",
			zap.String("order_number", msg.OrderNumber),
			zap.Error(err),
		)
		return false
	}

	if !resp.IsSuccess() {
		n.logger.Warn("HTTP notification rejected",
			zap.String("order_number", msg.OrderNumber),
			zap.Int("status_code", resp.StatusCode()),
		)
		return false
	}
	return true
}
