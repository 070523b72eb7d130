package bus

import "time"

// Event kinds published by the daemon. Subscribers filter by namespace
// prefix, e.g. "alert." receives every delivery outcome.
const (
	KindAlertSuccess       = "alert.success"
	KindAlertError         = "alert.error"
	KindAlertLoginRequired = "alert.login_required"
	KindAlertReceived      = "alert.received"
	KindAlertRead          = "alert.read"
	KindFriendUpdated      = "friend.updated"
	KindFriendRequest      = "friend.request"
	KindStatusChanged      = "session.status_changed"
)

// Raw push events, published by the push receiver and consumed by the
// alert handler. The "push." namespace keeps server-originated traffic
// separate from the daemon's own broadcasts above.
const (
	KindPushAlert     = "push.alert"
	KindPushDelivered = "push.delivered"
	KindPushRead      = "push.read"
	KindPushFriended  = "push.friended"
	KindPushAccepted  = "push.accepted"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
