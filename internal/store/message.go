package store

// AppendMessage records one conversation entry and returns its row id.
func (db *DB) AppendMessage(m *Message) (int64, error) {
	res, err := db.Exec(`INSERT INTO messages (friend, direction, body, timestamp) VALUES (?, ?, ?, ?)`,
		m.Friend, m.Direction, m.Body, m.Timestamp)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListMessages returns a friend's conversation log, newest first. Pass
// beforeID=0 for the first page; subsequent pages pass the smallest id seen.
func (db *DB) ListMessages(friend string, beforeID int64, limit int) ([]Message, error) {
	query := `SELECT id, friend, direction, body, timestamp FROM messages WHERE friend = ?`
	args := []any{friend}
	if beforeID > 0 {
		query += ` AND id < ?`
		args = append(args, beforeID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Friend, &m.Direction, &m.Body, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
