package store

import "database/sql"

// UpsertPendingFriend records or refreshes an inbound friend request.
func (db *DB) UpsertPendingFriend(p *PendingFriend) error {
	_, err := db.Exec(`
		INSERT INTO pending_friends (username, name, photo_ref, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE pending_friends.name END,
			photo_ref = CASE WHEN excluded.photo_ref != '' THEN excluded.photo_ref ELSE pending_friends.photo_ref END`,
		p.Username, p.Name, p.PhotoRef, p.CreatedAt)
	return err
}

// GetPendingFriend returns a pending request by username, or nil.
func (db *DB) GetPendingFriend(username string) (*PendingFriend, error) {
	var p PendingFriend
	err := db.QueryRow(`SELECT username, name, photo_ref, created_at FROM pending_friends WHERE username = ?`, username).
		Scan(&p.Username, &p.Name, &p.PhotoRef, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPendingFriends returns pending requests, newest first.
func (db *DB) ListPendingFriends() ([]PendingFriend, error) {
	rows, err := db.Query(`SELECT username, name, photo_ref, created_at FROM pending_friends ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []PendingFriend
	for rows.Next() {
		var p PendingFriend
		if err := rows.Scan(&p.Username, &p.Name, &p.PhotoRef, &p.CreatedAt); err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// DeletePendingFriend removes a request once accepted or rejected.
func (db *DB) DeletePendingFriend(username string) error {
	_, err := db.Exec(`DELETE FROM pending_friends WHERE username = ?`, username)
	return err
}
