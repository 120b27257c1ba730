// Package repository stores internal messages between users.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
)

const messageNotFoundMsg = "message not found"

type Repository struct {
	q db.Querier
}

func New(q db.Querier) *Repository {
	return &Repository{q: q}
}

// Message is an internal message with the usernames of both parties.
type Message struct {
	ID               uuid.UUID
	SenderID         uuid.UUID
	SenderUsername   string
	ReceiverID       uuid.UUID
	ReceiverUsername string
	Body             string
	Priority         string
	SentDate         time.Time
	Read             bool
}

// InboxParams filters a user's inbox.
type InboxParams struct {
	ReceiverID uuid.UUID
	UnreadOnly bool
	Limit      int
}

func (r *Repository) Create(ctx context.Context, m Message) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO internal_messages (id, sender_id, receiver_id, message, priority, sent_date, read_status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.ReceiverID, m.Body, m.Priority, m.SentDate.UTC(), m.Read,
	)
	switch {
	case db.IsForeignKeyViolation(err):
		return apperr.NotFound("recipient not found")
	case db.IsCheckViolation(err):
		return apperr.Validation("invalid message priority")
	case err != nil:
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

const messageSelect = `
	SELECT m.id, m.sender_id, s.username, m.receiver_id, r.username, m.message, m.priority, m.sent_date, m.read_status
	FROM internal_messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users r ON r.id = m.receiver_id`

func scanMessage(sc db.Scanner) (Message, error) {
	var m Message
	if err := sc.Scan(&m.ID, &m.SenderID, &m.SenderUsername, &m.ReceiverID, &m.ReceiverUsername,
		&m.Body, &m.Priority, &m.SentDate, &m.Read); err != nil {
		return Message{}, err
	}
	m.SentDate = m.SentDate.UTC()
	return m, nil
}

// Inbox lists messages received by a user, newest first.
func (r *Repository) Inbox(ctx context.Context, params InboxParams) ([]Message, error) {
	query := messageSelect + ` WHERE m.receiver_id = ?`
	args := []any{params.ReceiverID}
	if params.UnreadOnly {
		query += ` AND m.read_status = ?`
		args = append(args, false)
	}
	query += ` ORDER BY m.sent_date DESC`
	if params.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, params.Limit)
	}
	return r.list(ctx, query, args...)
}

// Sent lists messages sent by a user, newest first.
func (r *Repository) Sent(ctx context.Context, senderID uuid.UUID, limit int) ([]Message, error) {
	query := messageSelect + ` WHERE m.sender_id = ? ORDER BY m.sent_date DESC`
	args := []any{senderID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Message, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// MarkRead flags a message as read. Only the receiver's own messages match.
func (r *Repository) MarkRead(ctx context.Context, id, receiverID uuid.UUID) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE internal_messages SET read_status = ? WHERE id = ? AND receiver_id = ?`, true, id, receiverID)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return db.RequireAffected(res, messageNotFoundMsg)
}

// UnreadCount returns how many unread messages a user has.
func (r *Repository) UnreadCount(ctx context.Context, receiverID uuid.UUID) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM internal_messages WHERE receiver_id = ? AND read_status = ?`, receiverID, false).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return n, nil
}
