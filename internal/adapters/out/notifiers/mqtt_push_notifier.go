package notifiers

import (
	"context"
	"encoding/json"

	"labtrack/internal/core/domain/model/notification"
	"labtrack/internal/core/ports"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// DefaultPushTopic is the topic the push gateway subscribes to.
const DefaultPushTopic = "labtrack/notifications/push"

// Publisher is the part of mqtt.Client the notifier uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
}

type pushRequest struct {
	resultAvailable
	Token string `json:"token"`
}

// MQTTPushNotifier publishes app-push requests with QoS 1 to a broker topic.
type MQTTPushNotifier struct {
	client Publisher
	topic  string
	logger *zap.Logger
}

var _ ports.PushNotifier = (*MQTTPushNotifier)(nil)

func NewMQTTPushNotifier(client Publisher, topic string, logger *zap.Logger) *MQTTPushNotifier {
	if topic == "" {
		topic = DefaultPushTopic
	}
	return &MQTTPushNotifier{
		client: client,
		topic:  topic,
		logger: logger.With(zap.String("component", "mqtt_push_notifier")),
	}
}

// Send publishes one request and waits for the broker acknowledgement or ctx.
func (n *MQTTPushNotifier) Send(ctx context.Context, target notification.AppPush, msg ports.Message) bool {
	payload, err := json.Marshal(pushRequest{
		resultAvailable: resultAvailable{OrderNumber: msg.OrderNumber, Sample: msg.Sample},
		Token:           target.Token,
	})
	if err != nil {
		n.logger.Error("Push payload could not be encoded", zap.Error(err))
		return false
	}

	token := n.client.Publish(n.topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		n.logger.Warn("Push publish timed out",
			zap.String("order_number", msg.OrderNumber),
			zap.Error(ctx.Err()),
		)
		return false
	}

	if err = token.Error(); err != nil {
		n.logger.Warn("Push publish failed",
			zap.String("order_number", msg.OrderNumber),
			zap.String("topic", n.topic),
			zap.Error(err),
		)
		return false
	}
	return true
}

// NewMQTTClient connects to broker with auto-reconnect enabled.
func NewMQTTClient(broker, clientID, username, password string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if username != "" {
		opts.SetUsername(username)
	}
	if password != "" {
		opts.SetPassword(password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return client, nil
}
