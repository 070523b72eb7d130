// Package transport talks to the alert server. The Client interface is what
// the rest of the daemon programs against; HTTPClient is the real
// implementation.
package transport

import (
	"context"
	"fmt"
)

// Client is the alert-server API surface the daemon needs.
type Client interface {
	// SendAlert delivers a message to a friend and returns the
	// server-assigned alert id.
	SendAlert(ctx context.Context, to, message string) (string, error)

	// SendDeliveredReceipt tells the server an alert from a friend reached
	// this device.
	SendDeliveredReceipt(ctx context.Context, from, alertID string) error

	// SendReadReceipt tells the server the user opened an alert.
	SendReadReceipt(ctx context.Context, from, alertID string) error

	// RegisterDevice associates a push token with this account.
	RegisterDevice(ctx context.Context, pushToken string) error

	// UnregisterDevice detaches a push token.
	UnregisterDevice(ctx context.Context, pushToken string) error

	// AddFriend accepts an inbound friend request.
	AddFriend(ctx context.Context, username string) error
}

// StatusError is a non-2xx server response. Body carries the server's
// message text, which callers inspect to tell apart sub-cases of the same
// status code.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
}
