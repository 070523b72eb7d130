package push

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nudge-app/nudged/internal/bus"
)

func testReceiver(t *testing.T) (*Receiver, <-chan bus.Event) {
	t.Helper()
	b := bus.New()
	ch, unsub := b.Subscribe("push.", 10)
	t.Cleanup(unsub)
	return NewReceiver(b, zap.NewNop()), ch
}

func recvEvent(t *testing.T, ch <-chan bus.Event) bus.Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("no event published")
		return bus.Event{}
	}
}

func TestDeliverAlert(t *testing.T) {
	r, ch := testReceiver(t)

	r.Deliver(map[string]string{
		"action":          "alert",
		"alert_from":      "ada",
		"alert_to":        "me",
		"alert_message":   "lunch?",
		"alert_id":        "alert-7",
		"alert_timestamp": "1700000000000",
	})

	evt := recvEvent(t, ch)
	if evt.Kind != bus.KindPushAlert {
		t.Errorf("kind = %q, want %q", evt.Kind, bus.KindPushAlert)
	}
	alert, ok := evt.Payload.(AlertEvent)
	if !ok {
		t.Fatalf("payload type = %T", evt.Payload)
	}
	if alert.From != "ada" || alert.Message != "lunch?" || alert.AlertID != "alert-7" {
		t.Errorf("alert = %+v", alert)
	}
	if alert.Timestamp != 1700000000000 {
		t.Errorf("timestamp = %d", alert.Timestamp)
	}
}

func TestDeliverAlertMissingTimestampDefaultsToNow(t *testing.T) {
	r, ch := testReceiver(t)

	before := time.Now().UnixMilli()
	r.Deliver(map[string]string{"action": "alert", "alert_from": "ada"})

	alert := recvEvent(t, ch).Payload.(AlertEvent)
	if alert.Timestamp < before {
		t.Errorf("timestamp = %d, want >= %d", alert.Timestamp, before)
	}
}

func TestDeliverReceipts(t *testing.T) {
	r, ch := testReceiver(t)

	r.Deliver(map[string]string{"action": "delivered", "username_to": "bob", "alert_id": "a1"})
	evt := recvEvent(t, ch)
	if evt.Kind != bus.KindPushDelivered {
		t.Errorf("kind = %q, want %q", evt.Kind, bus.KindPushDelivered)
	}
	rec := evt.Payload.(ReceiptEvent)
	if rec.Username != "bob" || rec.AlertID != "a1" {
		t.Errorf("receipt = %+v", rec)
	}

	r.Deliver(map[string]string{"action": "read", "username_to": "bob", "alert_id": "a1"})
	evt = recvEvent(t, ch)
	if evt.Kind != bus.KindPushRead {
		t.Errorf("kind = %q, want %q", evt.Kind, bus.KindPushRead)
	}
}

func TestDeliverFriendEvents(t *testing.T) {
	r, ch := testReceiver(t)

	r.Deliver(map[string]string{"action": "friended", "friend": "carol", "name": "Carol", "photo": "p1"})
	evt := recvEvent(t, ch)
	if evt.Kind != bus.KindPushFriended {
		t.Errorf("kind = %q, want %q", evt.Kind, bus.KindPushFriended)
	}
	f := evt.Payload.(FriendedEvent)
	if f.Username != "carol" || f.Name != "Carol" || f.PhotoRef != "p1" {
		t.Errorf("friended = %+v", f)
	}

	r.Deliver(map[string]string{"action": "accepted", "friend": "dan"})
	evt = recvEvent(t, ch)
	if evt.Kind != bus.KindPushAccepted {
		t.Errorf("kind = %q, want %q", evt.Kind, bus.KindPushAccepted)
	}
}

func TestDeliverUnknownActionDropped(t *testing.T) {
	r, ch := testReceiver(t)

	r.Deliver(map[string]string{"action": "mystery"})

	select {
	case evt := <-ch:
		t.Errorf("unexpected event %q for unknown action", evt.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}
