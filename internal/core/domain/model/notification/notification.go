// Package notification resolves raw notification target strings into the
// delivery variants the service knows how to route.
package notification

import (
	"fmt"
	"net/url"
	"strings"
)

// AppPushScheme prefixes app-push targets: "<AppPushScheme>@<token>".
const AppPushScheme = "labtrack-app"

// Kind names a variant for logging and metrics.
type Kind string

const (
	KindHTTP        Kind = "http"
	KindAppPush     Kind = "app_push"
	KindUnsupported Kind = "unsupported"
)

// Notification is one resolved target. The set of variants is closed:
// HTTP, AppPush and Unsupported. Use Match to branch on it.
type Notification interface {
	Kind() Kind
	// Target returns the raw string the variant was resolved from.
	Target() string

	sealed()
}

// HTTP is delivered by calling the URL.
type HTTP struct {
	URL string
}

// AppPush is delivered to the app push gateway with an opaque device token.
type AppPush struct {
	Token string
}

// Unsupported is any target that matches no known syntax. It always counts as
// a failed delivery.
type Unsupported struct {
	Raw string
}

// Resolve maps a raw target to its variant. It never fails: anything that is
// not an http(s) URL with a host or an app-push address is Unsupported.
func Resolve(raw string) Notification {
	if token, ok := strings.CutPrefix(raw, AppPushScheme+"@"); ok && token != "" {
		return AppPush{Token: token}
	}

	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return HTTP{URL: raw}
		}
	}

	return Unsupported{Raw: raw}
}

// Match dispatches on the variant of n. Every handler is mandatory.
func Match[T any](n Notification, onHTTP func(HTTP) T, onPush func(AppPush) T, onUnsupported func(Unsupported) T) T {
	switch v := n.(type) {
	case HTTP:
		return onHTTP(v)
	case AppPush:
		return onPush(v)
	case Unsupported:
		return onUnsupported(v)
	default:
		panic(fmt.Sprintf("notification: unknown variant %T", n))
	}
}

func (HTTP) Kind() Kind       { return KindHTTP }
func (h HTTP) Target() string { return h.URL }
func (HTTP) sealed()          {}

func (AppPush) Kind() Kind       { return KindAppPush }
func (p AppPush) Target() string { return AppPushScheme + "@" + p.Token }
func (AppPush) sealed()          {}

func (Unsupported) Kind() Kind       { return KindUnsupported }
func (u Unsupported) Target() string { return u.Raw }
func (Unsupported) sealed()          {}
