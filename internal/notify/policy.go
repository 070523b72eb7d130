// Package notify decides how inbound events are presented to the user and
// shows them. The policy is pure: it maps an event plus daemon state to a
// Descriptor, and the Notifier renders descriptors without any say in what
// they contain.
package notify

// Notification channels. Missed is the quiet channel used when the user has
// notifications disabled: the alert is still recorded and presented, but
// without demanding attention.
const (
	ChannelAlert         = "alert"
	ChannelMissed        = "missed"
	ChannelFriendRequest = "friend_request"
)

// Actions the user can take from a notification.
const (
	ActionReply      = "reply"
	ActionSilence    = "silence"
	ActionMarkAsRead = "mark_as_read"
)

// DefaultBody is shown when an alert carries no message text.
const DefaultBody = "wants your attention!"

// Descriptor is everything the notifier needs to present one event.
// Handle is the stable conversation handle: presenting two descriptors with
// the same handle replaces rather than stacks. AlertID and Timestamp let an
// action bridge target the specific alert for reply and mark-as-read.
type Descriptor struct {
	Handle    int64
	Channel   string
	Title     string
	Body      string
	AlertID   string
	Timestamp int64
	Important bool
	Missed    bool
	Actions   []string
}

// Describe builds the presentation for an inbound alert.
//
// important marks the sender as a member of the important set and escalates
// presentation; it is independent of missed routing, so an important sender
// stays flagged even on the quiet channel. enabled false routes to the
// missed channel: the user asked not to be interrupted, so the alert is
// shown quietly and the silence action (which only makes sense for a
// ringing alert) is withheld.
func Describe(title, message, alertID string, timestamp, handle int64, important, enabled bool) Descriptor {
	body := message
	if body == "" {
		body = DefaultBody
	}

	d := Descriptor{
		Handle:    handle,
		Channel:   ChannelAlert,
		Title:     title,
		Body:      body,
		AlertID:   alertID,
		Timestamp: timestamp,
		Important: important,
	}
	if !enabled {
		d.Channel = ChannelMissed
		d.Missed = true
	}

	d.Actions = []string{ActionReply, ActionMarkAsRead}
	if !d.Missed {
		d.Actions = append(d.Actions, ActionSilence)
	}
	return d
}

// DescribeSilenced rebuilds an alert's presentation after the user silenced
// it: same slot, never escalated, and without the silence action.
func DescribeSilenced(title, message, alertID string, handle int64) Descriptor {
	body := message
	if body == "" {
		body = DefaultBody
	}
	return Descriptor{
		Handle:  handle,
		Channel: ChannelAlert,
		Title:   title,
		Body:    body,
		AlertID: alertID,
		Actions: []string{ActionReply, ActionMarkAsRead},
	}
}

// DescribeSendFailure describes a failed outgoing alert. It lands on the
// recipient's dismiss handle so a later successful retry replaces it, and
// carries no actions: the retry path is a regular send.
func DescribeSendFailure(name, reason string, handle int64) Descriptor {
	return Descriptor{
		Handle:  handle,
		Channel: ChannelAlert,
		Title:   "Could not alert " + name,
		Body:    reason,
	}
}

// DescribeFriendRequest builds the presentation for an inbound friend
// request. Requests never escalate and carry no conversation actions.
func DescribeFriendRequest(name string, handle int64) Descriptor {
	return Descriptor{
		Handle:  handle,
		Channel: ChannelFriendRequest,
		Title:   name,
		Body:    "sent you a friend request",
	}
}
