// Package alerts implements the attention-alert delivery flow: outgoing
// sends with per-outcome bookkeeping, notification actions, and handling of
// inbound push traffic.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nudge-app/nudged/internal/bus"
	"github.com/nudge-app/nudged/internal/notify"
	"github.com/nudge-app/nudged/internal/ranker"
	"github.com/nudge-app/nudged/internal/status"
	"github.com/nudge-app/nudged/internal/store"
	"github.com/nudge-app/nudged/internal/transport"
)

// ErrSignedOut is returned when a send is attempted without credentials.
var ErrSignedOut = errors.New("not signed in")

// SendResult is the payload of alert.success events.
type SendResult struct {
	To      string
	AlertID string
}

// SendFailure is the payload of alert.error and alert.login_required
// events. Message carries the undelivered body on login_required so the UI
// can offer a resend after re-authentication.
type SendFailure struct {
	To      string
	Message string
	Outcome Outcome
	Reason  string
}

// Engine drives outgoing alerts and notification actions.
type Engine struct {
	db       *store.DB
	ranker   *ranker.Ranker
	client   transport.Client
	bus      *bus.Bus
	notifier notify.Notifier
	machine  *status.Machine
	token    func() string
	log      *zap.Logger
}

// NewEngine creates an Engine. token reports the current auth token; empty
// means signed out.
func NewEngine(db *store.DB, r *ranker.Ranker, client transport.Client, b *bus.Bus, n notify.Notifier, m *status.Machine, token func() string, log *zap.Logger) *Engine {
	return &Engine{
		db:       db,
		ranker:   r,
		client:   client,
		bus:      b,
		notifier: n,
		machine:  m,
		token:    token,
		log:      log,
	}
}

// SendAlert delivers an attention alert to a friend and returns the
// server-assigned alert id.
//
// The friend row goes optimistic ("sending") before the network call, and
// the ranking credit is applied with it, so the UI reflects the attempt
// immediately. The outcome of the call then decides the final state: see
// applyFailure for the non-success classes.
func (e *Engine) SendAlert(ctx context.Context, to, message string) (string, error) {
	if e.token() == "" {
		e.showFailureNotice(to, OutcomeSignedOut)
		e.armAuthRequired()
		e.publish(bus.KindAlertLoginRequired, SendFailure{To: to, Message: message, Outcome: OutcomeSignedOut, Reason: "no auth token"})
		return "", ErrSignedOut
	}

	if err := e.db.SetLastAlert(to, "", store.StatusSending); err != nil {
		return "", fmt.Errorf("mark sending: %w", err)
	}
	if _, err := e.db.AppendMessage(&store.Message{
		Friend:    to,
		Direction: store.DirectionOutgoing,
		Body:      message,
		Timestamp: time.Now().UnixMilli(),
	}); err != nil {
		e.log.Error("failed to append outgoing message", zap.Error(err), zap.String("to", to))
	}
	if err := e.ranker.RecordOutgoing(to); err != nil {
		e.log.Error("failed to record ranking credit", zap.Error(err), zap.String("to", to))
	}

	alertID, err := e.client.SendAlert(ctx, to, message)
	if err != nil {
		return "", e.applyFailure(to, message, err)
	}

	if err := e.db.SetLastAlert(to, alertID, store.StatusSent); err != nil {
		e.log.Error("failed to mark sent", zap.Error(err), zap.String("to", to))
	}

	// A failure notice from a prior send may still be showing; the retry
	// went through.
	if handle, err := e.db.GetOrInsertConversationID(to, store.PurposeDismiss); err == nil {
		_ = e.notifier.Cancel(handle)
	}

	e.log.Info("alert sent", zap.String("to", to), zap.String("alert_id", alertID))
	e.publish(bus.KindAlertSuccess, SendResult{To: to, AlertID: alertID})
	return alertID, nil
}

// applyFailure runs the per-outcome bookkeeping for a failed send and
// returns the error the caller should see. Every failure shows exactly one
// user notice; only the auth sub-case swaps the error broadcast for a
// login prompt.
func (e *Engine) applyFailure(to, message string, err error) error {
	outcome := Classify(err)
	failure := SendFailure{To: to, Message: message, Outcome: outcome, Reason: err.Error()}

	e.showFailureNotice(to, outcome)

	switch outcome {
	case OutcomeSignedOut:
		// Auth problem, not a delivery verdict: prompt a re-login and
		// leave the friend row alone.
		e.log.Warn("send rejected: signed out", zap.String("to", to))
		e.armAuthRequired()
		e.publish(bus.KindAlertLoginRequired, failure)

	case OutcomeCancelled:
		// The caller gave up, but the abandoned send stays visible:
		// error bookkeeping and broadcast happen before unwinding.
		_ = e.db.SetMessageStatus(to, "", store.StatusError)
		e.log.Info("send cancelled", zap.String("to", to))
		e.publish(bus.KindAlertError, failure)

	case OutcomeRateLimited:
		_ = e.db.SetMessageStatus(to, "", store.StatusError)
		e.log.Warn("send rejected: rate limited", zap.String("to", to))
		e.publish(bus.KindAlertError, failure)

	case OutcomeServerError, OutcomeFailed:
		_ = e.db.SetMessageStatus(to, "", store.StatusError)
		var se *transport.StatusError
		if errors.As(err, &se) && se.Code/100 != 2 && se.Code/100 != 4 {
			e.log.Error("unexpected status class from server", zap.Int("code", se.Code), zap.String("to", to))
		}
		e.log.Error("send failed", zap.Error(err), zap.String("to", to), zap.String("outcome", outcome.String()))
		e.publish(bus.KindAlertError, failure)

	default:
		// NoSuchUser, BadRequest, NotFriends: definitive rejections.
		_ = e.db.SetMessageStatus(to, "", store.StatusError)
		e.log.Warn("send rejected", zap.String("to", to), zap.String("outcome", outcome.String()))
		e.publish(bus.KindAlertError, failure)
	}
	return err
}

// showFailureNotice presents the one user-facing notice for a failed send
// on the recipient's dismiss handle.
func (e *Engine) showFailureNotice(to string, outcome Outcome) {
	handle, err := e.db.GetOrInsertConversationID(to, store.PurposeDismiss)
	if err != nil {
		e.log.Error("failed to resolve failure-notice conversation", zap.Error(err), zap.String("to", to))
		return
	}
	if err := e.notifier.Show(notify.DescribeSendFailure(to, outcome.Notice(), handle)); err != nil {
		e.log.Error("failed to show failure notice", zap.Error(err), zap.Int64("handle", handle))
	}
}

// armAuthRequired moves the daemon to AuthRequired when a send reveals the
// token is missing or dead. Already being there is fine.
func (e *Engine) armAuthRequired() {
	if e.machine.Current() == status.AuthRequired {
		return
	}
	if err := e.machine.Transition(status.AuthRequired); err != nil {
		e.log.Warn("failed to arm auth-required state", zap.Error(err))
	}
}

// Reply answers an inbound alert: the original is acknowledged as read and
// the reply goes out as a regular alert.
func (e *Engine) Reply(ctx context.Context, friend, alertID, message string) error {
	if err := e.MarkAsRead(ctx, friend, alertID); err != nil {
		e.log.Warn("failed to mark read before reply", zap.Error(err), zap.String("friend", friend))
	}
	_, err := e.SendAlert(ctx, friend, message)
	return err
}

// Silence quiets a ringing alert: the sender still gets a read receipt, and
// the notification is shown again on the same slot without the silence
// action, so it stops demanding attention but stays dismissable.
func (e *Engine) Silence(ctx context.Context, friend, alertID string) error {
	if err := e.client.SendReadReceipt(ctx, friend, alertID); err != nil {
		return fmt.Errorf("send read receipt: %w", err)
	}
	handle, err := e.db.GetOrInsertConversationID(friend, store.PurposeDefault)
	if err != nil {
		return fmt.Errorf("resolve conversation: %w", err)
	}

	title := friend
	if f, err := e.db.GetFriend(friend); err == nil && f != nil && f.DisplayName != "" {
		title = f.DisplayName
	}
	var body string
	if msgs, err := e.db.ListMessages(friend, 0, 1); err == nil && len(msgs) > 0 && msgs[0].Direction == store.DirectionIncoming {
		body = msgs[0].Body
	}

	if err := e.notifier.Show(notify.DescribeSilenced(title, body, alertID, handle)); err != nil {
		e.log.Error("failed to re-show silenced alert", zap.Error(err), zap.Int64("handle", handle))
	}
	e.log.Info("alert silenced", zap.String("friend", friend), zap.String("alert_id", alertID))
	e.publish(bus.KindAlertRead, ReceiptUpdate{Username: friend, AlertID: alertID})
	return nil
}

// MarkAsRead acknowledges an inbound alert: the sender gets a read receipt
// and the local notification is dismissed.
func (e *Engine) MarkAsRead(ctx context.Context, friend, alertID string) error {
	if err := e.client.SendReadReceipt(ctx, friend, alertID); err != nil {
		return fmt.Errorf("send read receipt: %w", err)
	}
	handle, err := e.db.GetOrInsertConversationID(friend, store.PurposeDefault)
	if err != nil {
		return fmt.Errorf("resolve conversation: %w", err)
	}
	_ = e.notifier.Cancel(handle)
	e.publish(bus.KindAlertRead, ReceiptUpdate{Username: friend, AlertID: alertID})
	return nil
}

// AcceptFriend accepts a pending friend request: the server records the
// friendship and the requester is promoted to a full friend locally.
func (e *Engine) AcceptFriend(ctx context.Context, username string) error {
	if err := e.client.AddFriend(ctx, username); err != nil {
		return fmt.Errorf("accept friend %q: %w", username, err)
	}

	f := &store.Friend{Username: username}
	if p, err := e.db.GetPendingFriend(username); err == nil && p != nil {
		f.DisplayName = p.Name
		f.PhotoRef = p.PhotoRef
	}
	if err := e.db.UpsertFriend(f); err != nil {
		return fmt.Errorf("promote friend %q: %w", username, err)
	}
	if err := e.db.DeletePendingFriend(username); err != nil {
		e.log.Warn("failed to clear pending request", zap.Error(err), zap.String("username", username))
	}

	e.log.Info("friend request accepted", zap.String("username", username))
	e.publish(bus.KindFriendUpdated, ReceiptUpdate{Username: username})
	return nil
}

// ReceiptUpdate is the payload of alert.read and friend.updated events.
type ReceiptUpdate struct {
	Username string
	AlertID  string
	Status   string
}

func (e *Engine) publish(kind string, payload any) {
	e.bus.Publish(bus.Event{
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
