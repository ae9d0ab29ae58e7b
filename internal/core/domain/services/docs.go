// Package services contains domain services that coordinate order behaviour
// with outbound ports. NotificationDispatcher routes result notifications to
// the HTTP and app-push notifiers.
package services
