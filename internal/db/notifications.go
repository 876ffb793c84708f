// CLAUDE:SUMMARY Notification records — created as complaint side effects, listed for admins, read-state toggles
package db

import (
	"database/sql"
	"fmt"
	"time"
)

type Notification struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	ComplaintID *string   `json:"complaintId,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`

	// Expanded complaint fields (list endpoint only).
	ComplaintCode   *string `json:"complaintCode,omitempty"`
	ComplaintStatus *string `json:"complaintStatus,omitempty"`
}

type CreateNotificationInput struct {
	Type        string
	Title       string
	Message     string
	ComplaintID string
}

func (db *DB) CreateNotification(input CreateNotificationInput) (*Notification, error) {
	id := NewID()
	var complaintID interface{}
	if input.ComplaintID != "" {
		complaintID = input.ComplaintID
	}
	_, err := db.Exec(`
		INSERT INTO notifications (id, type, title, message, complaint_id)
		VALUES (?, ?, ?, ?, ?)`,
		id, input.Type, input.Title, input.Message, complaintID)
	if err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}
	n := &Notification{ID: id, Type: input.Type, Title: input.Title, Message: input.Message}
	if input.ComplaintID != "" {
		n.ComplaintID = &input.ComplaintID
	}
	return n, nil
}

// ListNotifications returns the newest notifications with their complaint
// reference expanded (code + status) when the complaint still exists.
func (db *DB) ListNotifications(limit int) ([]*Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT n.id, n.type, n.title, n.message, n.complaint_id, n.read, n.created_at,
			c.complaint_code, c.status
		FROM notifications n
		LEFT JOIN complaints c ON c.id = n.complaint_id
		ORDER BY n.created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		n := &Notification{}
		var complaintID, code, status sql.NullString
		var read int
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &complaintID,
			&read, &n.CreatedAt, &code, &status); err != nil {
			return nil, err
		}
		n.Read = read == 1
		if complaintID.Valid {
			n.ComplaintID = &complaintID.String
		}
		if code.Valid {
			n.ComplaintCode = &code.String
		}
		if status.Valid {
			n.ComplaintStatus = &status.String
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (db *DB) MarkNotificationRead(id string) error {
	res, err := db.Exec(`UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (db *DB) MarkAllNotificationsRead() error {
	_, err := db.Exec(`UPDATE notifications SET read = 1`)
	return err
}
