package store

import (
	"database/sql"
	"fmt"
)

// UpsertFriend inserts or updates a friend. Counters and delivery state are
// preserved on update; only identity fields (display name, photo) move.
func (db *DB) UpsertFriend(f *Friend) error {
	_, err := db.Exec(`
		INSERT INTO friends (username, display_name, sent, received, importance, last_alert_id, last_message_status, photo_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			display_name = CASE WHEN excluded.display_name != '' THEN excluded.display_name ELSE friends.display_name END,
			photo_ref = CASE WHEN excluded.photo_ref != '' THEN excluded.photo_ref ELSE friends.photo_ref END`,
		f.Username, f.DisplayName, f.Sent, f.Received, f.Importance, f.LastAlertID, f.LastMessageStatus, f.PhotoRef)
	return err
}

// GetFriend returns a friend by username, or nil if not present.
func (db *DB) GetFriend(username string) (*Friend, error) {
	var f Friend
	err := db.QueryRow(`
		SELECT username, display_name, sent, received, importance, last_alert_id, last_message_status, photo_ref
		FROM friends WHERE username = ?`, username).
		Scan(&f.Username, &f.DisplayName, &f.Sent, &f.Received, &f.Importance, &f.LastAlertID, &f.LastMessageStatus, &f.PhotoRef)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFriends returns all friends ordered by importance, most important first.
func (db *DB) ListFriends() ([]Friend, error) {
	rows, err := db.Query(`
		SELECT username, display_name, sent, received, importance, last_alert_id, last_message_status, photo_ref
		FROM friends ORDER BY importance DESC, sent DESC, username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []Friend
	for rows.Next() {
		var f Friend
		if err := rows.Scan(&f.Username, &f.DisplayName, &f.Sent, &f.Received, &f.Importance, &f.LastAlertID, &f.LastMessageStatus, &f.PhotoRef); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

// TopFriends returns the k most important friends.
func (db *DB) TopFriends(k int) ([]Friend, error) {
	rows, err := db.Query(`
		SELECT username, display_name, sent, received, importance, last_alert_id, last_message_status, photo_ref
		FROM friends ORDER BY importance DESC, sent DESC, username ASC LIMIT ?`, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []Friend
	for rows.Next() {
		var f Friend
		if err := rows.Scan(&f.Username, &f.DisplayName, &f.Sent, &f.Received, &f.Importance, &f.LastAlertID, &f.LastMessageStatus, &f.PhotoRef); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

// FriendCount returns the total number of friends.
func (db *DB) FriendCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM friends`).Scan(&count)
	return count, err
}

// DeleteFriend removes a friend. Messages and conversation handles cascade.
func (db *DB) DeleteFriend(username string) error {
	_, err := db.Exec(`DELETE FROM friends WHERE username = ?`, username)
	return err
}

// ReplaceFriends reconciles the local friend list against a server snapshot:
// friends absent from the snapshot are removed, the rest are upserted with
// counters preserved.
func (db *DB) ReplaceFriends(friends []Friend) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`CREATE TEMP TABLE keep (username TEXT PRIMARY KEY)`); err != nil {
		return err
	}
	for _, f := range friends {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO keep (username) VALUES (?)`, f.Username); err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO friends (username, display_name, photo_ref)
			VALUES (?, ?, ?)
			ON CONFLICT(username) DO UPDATE SET
				display_name = CASE WHEN excluded.display_name != '' THEN excluded.display_name ELSE friends.display_name END,
				photo_ref = CASE WHEN excluded.photo_ref != '' THEN excluded.photo_ref ELSE friends.photo_ref END`,
			f.Username, f.DisplayName, f.PhotoRef); err != nil {
			return fmt.Errorf("upsert friend %q: %w", f.Username, err)
		}
	}
	if _, err := tx.Exec(`DELETE FROM friends WHERE username NOT IN (SELECT username FROM keep)`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DROP TABLE keep`); err != nil {
		return err
	}
	return tx.Commit()
}

// IncrementSent bumps both the sent counter and the raw importance score.
// Sending someone an alert is the strongest signal they matter to the user.
func (db *DB) IncrementSent(username string) error {
	_, err := db.Exec(`UPDATE friends SET sent = sent + 1, importance = importance + 1 WHERE username = ?`, username)
	return err
}

// IncrementReceived bumps the received counter only.
func (db *DB) IncrementReceived(username string) error {
	_, err := db.Exec(`UPDATE friends SET received = received + 1 WHERE username = ?`, username)
	return err
}

// ScaleImportance multiplies every friend's importance by factor.
func (db *DB) ScaleImportance(factor float64) error {
	_, err := db.Exec(`UPDATE friends SET importance = importance * ?`, factor)
	return err
}

// SetLastAlert records the in-flight alert and resets delivery state.
func (db *DB) SetLastAlert(username, alertID, status string) error {
	_, err := db.Exec(`UPDATE friends SET last_alert_id = ?, last_message_status = ? WHERE username = ?`,
		alertID, status, username)
	return err
}

// SetMessageStatus updates the delivery state of a friend's latest alert.
// When alertID is non-empty the update only applies if it still names the
// current alert; receipts for superseded alerts are dropped. An empty
// alertID updates unconditionally.
func (db *DB) SetMessageStatus(username, alertID, status string) error {
	var aid any
	if alertID != "" {
		aid = alertID
	}
	_, err := db.Exec(`
		UPDATE friends SET last_message_status = ?
		WHERE username = ? AND (last_alert_id = ? OR ? IS NULL)`,
		status, username, aid, aid)
	return err
}
