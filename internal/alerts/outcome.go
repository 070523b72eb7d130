package alerts

import (
	"context"
	"errors"
	"strings"

	"github.com/nudge-app/nudged/internal/transport"
)

// Outcome classifies the result of a send attempt. Each class drives its
// own bookkeeping and broadcast in the engine; classification itself never
// touches state.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// OutcomeNoSuchUser: the recipient username does not exist.
	OutcomeNoSuchUser
	// OutcomeBadRequest: the server rejected the request shape.
	OutcomeBadRequest
	// OutcomeNotFriends: the recipient exists but has not friended this user.
	OutcomeNotFriends
	// OutcomeSignedOut: the auth token is missing, expired, or revoked.
	OutcomeSignedOut
	// OutcomeRateLimited: sending too fast; the alert was not delivered.
	OutcomeRateLimited
	// OutcomeServerError: any other non-2xx response.
	OutcomeServerError
	// OutcomeCancelled: the caller gave up before the server answered.
	OutcomeCancelled
	// OutcomeFailed: transport-level failure, e.g. no network.
	OutcomeFailed
)

// Server message fragments that split a status code into sub-cases. The
// server reports both "unknown user" and "not friends" under client-error
// codes; only the body text tells them apart.
const (
	fragmentNoSuchUser = "could not find user"
	fragmentNotFriends = "does not have you as a friend"
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNoSuchUser:
		return "no_such_user"
	case OutcomeBadRequest:
		return "bad_request"
	case OutcomeNotFriends:
		return "not_friends"
	case OutcomeSignedOut:
		return "signed_out"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeServerError:
		return "server_error"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// Notice returns the human-readable text shown to the user when a send
// lands on this outcome.
func (o Outcome) Notice() string {
	switch o {
	case OutcomeNoSuchUser:
		return "no such user"
	case OutcomeBadRequest:
		return "the server rejected the alert"
	case OutcomeNotFriends:
		return "this person doesn't have you as a friend"
	case OutcomeSignedOut:
		return "sign in to send alerts"
	case OutcomeRateLimited:
		return "sending too fast, try again later"
	case OutcomeServerError:
		return "the server had a problem"
	case OutcomeCancelled:
		return "the send was cancelled"
	default:
		return "could not reach the server"
	}
}

// Classify maps a send error to its outcome class.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeCancelled
	}

	var se *transport.StatusError
	if !errors.As(err, &se) {
		return OutcomeFailed
	}

	body := strings.ToLower(se.Body)
	switch {
	case se.Code == 400 && strings.Contains(body, fragmentNoSuchUser):
		return OutcomeNoSuchUser
	case se.Code == 400:
		return OutcomeBadRequest
	case se.Code == 403 && strings.Contains(body, fragmentNotFriends):
		return OutcomeNotFriends
	case se.Code == 403:
		return OutcomeSignedOut
	case se.Code == 429:
		return OutcomeRateLimited
	default:
		return OutcomeServerError
	}
}
