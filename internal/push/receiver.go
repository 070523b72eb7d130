// Package push turns raw push payloads from the alert server into typed
// events on the bus. Payloads arrive as flat string maps with an "action"
// discriminator; anything unrecognized is logged and dropped so a server
// rolling out new actions never wedges the daemon.
package push

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nudge-app/nudged/internal/bus"
)

// Actions the server sends.
const (
	actionAlert     = "alert"
	actionDelivered = "delivered"
	actionRead      = "read"
	actionFriended  = "friended"
	actionAccepted  = "accepted"
)

// Receiver parses push payloads and publishes them on the bus.
type Receiver struct {
	bus *bus.Bus
	log *zap.Logger
}

// NewReceiver creates a Receiver.
func NewReceiver(b *bus.Bus, log *zap.Logger) *Receiver {
	return &Receiver{bus: b, log: log}
}

// Deliver ingests one raw push payload.
func (r *Receiver) Deliver(data map[string]string) {
	action := data["action"]
	switch action {
	case actionAlert:
		ts, _ := strconv.ParseInt(data["alert_timestamp"], 10, 64)
		if ts == 0 {
			ts = time.Now().UnixMilli()
		}
		r.publish(bus.KindPushAlert, AlertEvent{
			From:      data["alert_from"],
			To:        data["alert_to"],
			Message:   data["alert_message"],
			AlertID:   data["alert_id"],
			Timestamp: ts,
		})
	case actionDelivered:
		r.publish(bus.KindPushDelivered, ReceiptEvent{
			Username: data["username_to"],
			AlertID:  data["alert_id"],
		})
	case actionRead:
		r.publish(bus.KindPushRead, ReceiptEvent{
			Username: data["username_to"],
			AlertID:  data["alert_id"],
		})
	case actionFriended:
		r.publish(bus.KindPushFriended, FriendedEvent{
			Username: data["friend"],
			Name:     data["name"],
			PhotoRef: data["photo"],
		})
	case actionAccepted:
		r.publish(bus.KindPushAccepted, AcceptedEvent{
			Username: data["friend"],
			Name:     data["name"],
			PhotoRef: data["photo"],
		})
	default:
		r.log.Warn("unknown push action", zap.String("action", action))
	}
}

func (r *Receiver) publish(kind string, payload any) {
	r.bus.Publish(bus.Event{
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
