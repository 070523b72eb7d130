package store

import (
	"database/sql"
	"fmt"
)

// GetOrInsertConversationID returns the stable numeric handle for a
// (friend, purpose) pair, allocating one on first use. The same pair always
// yields the same handle, so platform notifications for the same thread
// coalesce instead of stacking. The friend need not exist in the friends
// table; requesters get handles before they are accepted.
func (db *DB) GetOrInsertConversationID(friend, purpose string) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO conversation_ids (friend, purpose) VALUES (?, ?)`,
		friend, purpose); err != nil {
		return 0, err
	}

	var id int64
	err = tx.QueryRow(`SELECT id FROM conversation_ids WHERE friend = ? AND purpose = ?`,
		friend, purpose).Scan(&id)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// LookupConversation resolves a handle back to its (friend, purpose) pair.
// Returns nil if the handle was never allocated.
func (db *DB) LookupConversation(id int64) (*ConversationID, error) {
	var c ConversationID
	err := db.QueryRow(`SELECT id, friend, purpose FROM conversation_ids WHERE id = ?`, id).
		Scan(&c.ID, &c.Friend, &c.Purpose)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
