package store

// Message delivery states, in escalation order. A state never moves
// backwards except through a brand-new alert.
const (
	StatusSending   = "sending"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusError     = "error"
)

// Message directions.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
)

// Conversation purposes. Each (friend, purpose) pair maps to its own
// stable numeric handle, so e.g. the reply thread and the silence marker
// for the same friend never collide.
const (
	PurposeDefault = "default"
	PurposeReply   = "reply"
	PurposeSilence = "silence"
	PurposeDismiss = "dismiss"
)

// Friend represents a confirmed friend and the delivery state of the most
// recent alert sent to them.
type Friend struct {
	Username          string
	DisplayName       string
	Sent              int64
	Received          int64
	Importance        float64
	LastAlertID       string
	LastMessageStatus string
	PhotoRef          string
}

// PendingFriend represents an inbound friend request awaiting a decision.
type PendingFriend struct {
	Username  string
	Name      string
	PhotoRef  string
	CreatedAt int64
}

// Message is one entry in the per-friend conversation log.
type Message struct {
	ID        int64
	Friend    string
	Direction string
	Body      string
	Timestamp int64
}

// ConversationID maps a (friend, purpose) pair to its stable numeric handle.
type ConversationID struct {
	ID      int64
	Friend  string
	Purpose string
}
