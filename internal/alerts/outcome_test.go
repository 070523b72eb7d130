package alerts

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nudge-app/nudged/internal/transport"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeSuccess},
		{"no such user", &transport.StatusError{Code: 400, Body: "Could not find user: ghost"}, OutcomeNoSuchUser},
		{"bad request", &transport.StatusError{Code: 400, Body: "Missing field: message"}, OutcomeBadRequest},
		{"not friends", &transport.StatusError{Code: 403, Body: "This user does not have you as a friend"}, OutcomeNotFriends},
		{"auth expired", &transport.StatusError{Code: 403, Body: "Invalid token"}, OutcomeSignedOut},
		{"rate limited", &transport.StatusError{Code: 429, Body: "Too many requests"}, OutcomeRateLimited},
		{"server error", &transport.StatusError{Code: 500, Body: "Internal error"}, OutcomeServerError},
		{"cancelled", context.Canceled, OutcomeCancelled},
		{"deadline", context.DeadlineExceeded, OutcomeCancelled},
		{"network", errors.New("dial tcp: connection refused"), OutcomeFailed},
		{"wrapped status", fmt.Errorf("post /send_alert/: %w", &transport.StatusError{Code: 429, Body: ""}), OutcomeRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

// The body match must be case-insensitive; the server has changed message
// casing across releases.
func TestClassifyBodyCaseInsensitive(t *testing.T) {
	err := &transport.StatusError{Code: 403, Body: "THIS USER DOES NOT HAVE YOU AS A FRIEND"}
	if got := Classify(err); got != OutcomeNotFriends {
		t.Errorf("Classify() = %v, want not_friends", got)
	}
}
