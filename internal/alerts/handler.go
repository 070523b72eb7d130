package alerts

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nudge-app/nudged/internal/bus"
	"github.com/nudge-app/nudged/internal/notify"
	"github.com/nudge-app/nudged/internal/push"
	"github.com/nudge-app/nudged/internal/ranker"
	"github.com/nudge-app/nudged/internal/store"
	"github.com/nudge-app/nudged/internal/transport"
)

// Handler consumes inbound push events off the bus and applies them:
// bookkeeping, receipts back to the server, and user-facing notifications.
type Handler struct {
	db       *store.DB
	ranker   *ranker.Ranker
	client   transport.Client
	bus      *bus.Bus
	notifier notify.Notifier
	username func() string
	enabled  func() bool
	log      *zap.Logger
	cancel   context.CancelFunc
}

// NewHandler creates a Handler. username reports this session's signed-in
// username and enabled whether the user currently wants notifications; both
// are consulted per alert.
func NewHandler(db *store.DB, r *ranker.Ranker, client transport.Client, b *bus.Bus, n notify.Notifier, username func() string, enabled func() bool, log *zap.Logger) *Handler {
	return &Handler{
		db:       db,
		ranker:   r,
		client:   client,
		bus:      b,
		notifier: n,
		username: username,
		enabled:  enabled,
		log:      log,
	}
}

// Start subscribes to push traffic and begins handling it.
func (h *Handler) Start(ctx context.Context) {
	ctx, h.cancel = context.WithCancel(ctx)
	ch, unsub := h.bus.Subscribe("push.", 64)
	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				h.handle(ctx, evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the handler loop.
func (h *Handler) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
}

func (h *Handler) handle(ctx context.Context, evt bus.Event) {
	switch payload := evt.Payload.(type) {
	case push.AlertEvent:
		h.handleAlert(ctx, payload)
	case push.ReceiptEvent:
		switch evt.Kind {
		case bus.KindPushDelivered:
			h.handleReceipt(payload, store.StatusDelivered)
		case bus.KindPushRead:
			h.handleReceipt(payload, store.StatusRead)
		}
	case push.FriendedEvent:
		h.handleFriended(payload)
	case push.AcceptedEvent:
		h.handleAccepted(payload)
	default:
		h.log.Warn("unhandled push event", zap.String("kind", evt.Kind))
	}
}

// handleAlert processes one inbound attention alert: record it, tell the
// server it arrived, and present it per the notification policy.
func (h *Handler) handleAlert(ctx context.Context, a push.AlertEvent) {
	if a.From == "" {
		h.log.Warn("alert without sender dropped")
		return
	}
	if a.AlertID == "" {
		h.log.Warn("alert without id dropped", zap.String("from", a.From))
		return
	}
	// A shared push token can deliver traffic meant for another account.
	if a.To != "" && a.To != h.username() {
		h.log.Warn("alert for another user dropped", zap.String("from", a.From), zap.String("to", a.To))
		return
	}

	f, err := h.db.GetFriend(a.From)
	if err != nil {
		h.log.Error("failed to look up sender", zap.Error(err), zap.String("from", a.From))
		return
	}
	if f == nil {
		// Server-side friendship the local DB has not seen yet. Record a
		// stub so counters and messages have a row to land on.
		f = &store.Friend{Username: a.From}
		if err := h.db.UpsertFriend(f); err != nil {
			h.log.Error("failed to record sender", zap.Error(err), zap.String("from", a.From))
			return
		}
	}

	if err := h.db.IncrementReceived(a.From); err != nil {
		h.log.Error("failed to count received alert", zap.Error(err), zap.String("from", a.From))
	}
	if _, err := h.db.AppendMessage(&store.Message{
		Friend:    a.From,
		Direction: store.DirectionIncoming,
		Body:      a.Message,
		Timestamp: a.Timestamp,
	}); err != nil {
		h.log.Error("failed to append incoming message", zap.Error(err), zap.String("from", a.From))
	}

	if err := h.client.SendDeliveredReceipt(ctx, a.From, a.AlertID); err != nil {
		h.log.Warn("failed to send delivered receipt", zap.Error(err), zap.String("from", a.From))
	}

	// One decay step per inbound pass keeps the ranking biased to recency.
	if err := h.ranker.Decay(); err != nil {
		h.log.Error("failed to decay importance", zap.Error(err))
	}

	important, err := h.ranker.IsImportant(a.From)
	if err != nil {
		h.log.Error("failed to rank sender", zap.Error(err), zap.String("from", a.From))
	}

	handle, err := h.db.GetOrInsertConversationID(a.From, store.PurposeDefault)
	if err != nil {
		h.log.Error("failed to resolve conversation", zap.Error(err), zap.String("from", a.From))
		return
	}

	title := f.DisplayName
	if title == "" {
		title = a.From
	}
	d := notify.Describe(title, a.Message, a.AlertID, a.Timestamp, handle, important, h.enabled())
	if err := h.notifier.Show(d); err != nil {
		h.log.Error("failed to show notification", zap.Error(err), zap.Int64("handle", handle))
	}

	h.publish(bus.KindAlertReceived, a)
}

// handleReceipt applies a delivery or read receipt for an alert this device
// sent. The store drops receipts for superseded alerts.
func (h *Handler) handleReceipt(r push.ReceiptEvent, status string) {
	if err := h.db.SetMessageStatus(r.Username, r.AlertID, status); err != nil {
		h.log.Error("failed to apply receipt", zap.Error(err),
			zap.String("username", r.Username), zap.String("status", status))
		return
	}
	h.log.Info("receipt applied",
		zap.String("username", r.Username),
		zap.String("alert_id", r.AlertID),
		zap.String("status", status))
	h.publish(bus.KindFriendUpdated, ReceiptUpdate{
		Username: r.Username,
		AlertID:  r.AlertID,
		Status:   status,
	})
}

func (h *Handler) handleFriended(f push.FriendedEvent) {
	if f.Username == "" {
		h.log.Warn("friend request without username dropped")
		return
	}
	if err := h.db.UpsertPendingFriend(&store.PendingFriend{
		Username:  f.Username,
		Name:      f.Name,
		PhotoRef:  f.PhotoRef,
		CreatedAt: time.Now().UnixMilli(),
	}); err != nil {
		h.log.Error("failed to record friend request", zap.Error(err), zap.String("username", f.Username))
		return
	}

	handle, err := h.db.GetOrInsertConversationID(f.Username, store.PurposeDefault)
	if err != nil {
		h.log.Error("failed to resolve conversation", zap.Error(err), zap.String("username", f.Username))
		return
	}
	name := f.Name
	if name == "" {
		name = f.Username
	}
	if err := h.notifier.Show(notify.DescribeFriendRequest(name, handle)); err != nil {
		h.log.Error("failed to show friend request", zap.Error(err), zap.Int64("handle", handle))
	}

	h.publish(bus.KindFriendRequest, f)
}

// handleAccepted promotes an accepted outbound request to a full friend.
func (h *Handler) handleAccepted(a push.AcceptedEvent) {
	if a.Username == "" {
		return
	}
	if err := h.db.UpsertFriend(&store.Friend{
		Username:    a.Username,
		DisplayName: a.Name,
		PhotoRef:    a.PhotoRef,
	}); err != nil {
		h.log.Error("failed to record accepted friend", zap.Error(err), zap.String("username", a.Username))
		return
	}
	if err := h.db.DeletePendingFriend(a.Username); err != nil {
		h.log.Warn("failed to clear pending request", zap.Error(err), zap.String("username", a.Username))
	}
	h.log.Info("friend request accepted by peer", zap.String("username", a.Username))
	h.publish(bus.KindFriendUpdated, ReceiptUpdate{Username: a.Username})
}

func (h *Handler) publish(kind string, payload any) {
	h.bus.Publish(bus.Event{
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
