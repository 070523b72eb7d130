package push

// AlertEvent is an inbound attention alert from a friend.
type AlertEvent struct {
	From      string
	To        string
	Message   string
	AlertID   string
	Timestamp int64
}

// ReceiptEvent reports a delivery or read receipt for an alert this device
// sent. Kind of receipt is carried by the bus event kind, not the payload.
type ReceiptEvent struct {
	Username string
	AlertID  string
}

// FriendedEvent reports that someone added this user as a friend.
type FriendedEvent struct {
	Username string
	Name     string
	PhotoRef string
}

// AcceptedEvent reports that a friend request this user sent was accepted.
type AcceptedEvent struct {
	Username string
	Name     string
	PhotoRef string
}
