// Package ranker maintains the friend-importance ordering. Importance is a
// decayed send counter: every outgoing alert bumps the recipient's score by
// one, and each inbound-alert processing pass multiplies everyone's score
// by a decay factor just below one, so the ranking tracks who the user has
// been alerting lately rather than all-time volume.
//
// Decay rides on inbound traffic rather than a timer, which means a user
// who only sends and never receives sees no decay. Kept deliberately; a
// wall-clock decay schedule would change which friends rank as important.
package ranker

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nudge-app/nudged/internal/store"
)

// Ranker scores friends by recent outgoing-alert activity.
type Ranker struct {
	db    *store.DB
	scale float64
	maxK  int
	log   *zap.Logger
}

// New creates a Ranker. scale must be in (0, 1); maxK is the size of the
// important set.
func New(db *store.DB, scale float64, maxK int, log *zap.Logger) (*Ranker, error) {
	if scale <= 0 || scale >= 1 {
		return nil, fmt.Errorf("importance scale %v out of range (0, 1)", scale)
	}
	if maxK <= 0 {
		return nil, fmt.Errorf("max important %d must be positive", maxK)
	}
	return &Ranker{db: db, scale: scale, maxK: maxK, log: log}, nil
}

// RecordOutgoing credits the recipient of one outgoing alert.
func (r *Ranker) RecordOutgoing(username string) error {
	if err := r.db.IncrementSent(username); err != nil {
		return fmt.Errorf("increment sent: %w", err)
	}
	return nil
}

// Decay applies one decay step to every friend. Called once per
// inbound-alert processing pass.
func (r *Ranker) Decay() error {
	if err := r.db.ScaleImportance(r.scale); err != nil {
		return fmt.Errorf("scale importance: %w", err)
	}
	return nil
}

// TopK returns the current important set, most important first.
func (r *Ranker) TopK() ([]store.Friend, error) {
	return r.db.TopFriends(r.maxK)
}

// IsImportant reports whether a friend is in the important set. While the
// user has fewer friends than the set size, everyone counts as important.
func (r *Ranker) IsImportant(username string) (bool, error) {
	count, err := r.db.FriendCount()
	if err != nil {
		return false, err
	}
	if count <= int64(r.maxK) {
		return true, nil
	}
	top, err := r.db.TopFriends(r.maxK)
	if err != nil {
		return false, err
	}
	for _, f := range top {
		if f.Username == username {
			return true, nil
		}
	}
	r.log.Debug("friend outside important set", zap.String("username", username))
	return false, nil
}
