// Package api exposes the daemon's read surface to in-process consumers
// (CLI front ends, future UIs): store queries plus a watch stream over the
// event bus.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nudge-app/nudged/internal/bus"
	"github.com/nudge-app/nudged/internal/status"
	"github.com/nudge-app/nudged/internal/store"
)

// Envelope wraps a bus event for consumers, with a unique id for
// at-least-once dedup on their side.
type Envelope struct {
	EventID    string
	Session    string
	OccurredAt time.Time
	Kind       string
	Payload    any
}

// QueryService answers read queries against the store and streams events.
type QueryService struct {
	db          *store.DB
	bus         *bus.Bus
	machine     *status.Machine
	sessionName string
}

// NewQueryService creates a query service backed by the store.
func NewQueryService(db *store.DB, b *bus.Bus, m *status.Machine, sessionName string) *QueryService {
	return &QueryService{db: db, bus: b, machine: m, sessionName: sessionName}
}

// Status returns the daemon's current runtime state.
func (s *QueryService) Status() status.State {
	return s.machine.Current()
}

// ListFriends returns all friends, most important first.
func (s *QueryService) ListFriends() ([]store.Friend, error) {
	return s.db.ListFriends()
}

// GetFriend returns one friend, or an error if unknown.
func (s *QueryService) GetFriend(username string) (*store.Friend, error) {
	f, err := s.db.GetFriend(username)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("friend %q not found", username)
	}
	return f, nil
}

// PendingFriends returns inbound friend requests, newest first.
func (s *QueryService) PendingFriends() ([]store.PendingFriend, error) {
	return s.db.ListPendingFriends()
}

// ListMessages returns a page of a friend's conversation log, newest first.
func (s *QueryService) ListMessages(friend string, beforeID int64, limit int) ([]store.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.db.ListMessages(friend, beforeID, limit)
}

// Watch streams events matching the namespace prefix until ctx is done.
func (s *QueryService) Watch(ctx context.Context, prefix string) <-chan Envelope {
	out := make(chan Envelope, 64)
	ch, unsub := s.bus.Subscribe(prefix, 256)
	go func() {
		defer close(out)
		defer unsub()
		for {
			select {
			case evt := <-ch:
				env := Envelope{
					EventID:    uuid.New().String(),
					Session:    s.sessionName,
					OccurredAt: evt.Timestamp,
					Kind:       evt.Kind,
					Payload:    evt.Payload,
				}
				select {
				case out <- env:
				default:
					// Slow consumer; drop rather than stall the pump.
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
