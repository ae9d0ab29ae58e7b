// Package notifiers delivers "result available" notifications.
//
// HTTPNotifier posts to webhook URLs. App-push delivery has three transports
// selected at startup: a Redis stream consumed by the push gateway, an MQTT
// topic, or a logging notifier for environments without either.
//
// Every notifier reports success for its single target and never returns an
// error or panics; failures are logged with the target kind and reason.
package notifiers

// resultAvailable is the payload every transport sends. It names the order and
// sample only, never the result.
type resultAvailable struct {
	OrderNumber string `json:"orderNumber"`
	Sample      string `json:"sample"`
}
