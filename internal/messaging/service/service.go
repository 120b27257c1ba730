// Package service sends and lists internal messages between users.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/events"
	"crm_backend/internal/messaging/repository"
	"crm_backend/internal/messaging/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/logger"
	"crm_backend/platform/sanitize"
)

const (
	defaultPriority = "Medium"
	defaultLimit    = 100
)

type Store interface {
	Create(ctx context.Context, m repository.Message) error
	Inbox(ctx context.Context, params repository.InboxParams) ([]repository.Message, error)
	Sent(ctx context.Context, senderID uuid.UUID, limit int) ([]repository.Message, error)
	MarkRead(ctx context.Context, id, receiverID uuid.UUID) error
	UnreadCount(ctx context.Context, receiverID uuid.UUID) (int, error)
}

// UserChecker confirms a recipient exists.
type UserChecker interface {
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

type Service struct {
	repo     Store
	users    UserChecker
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

func New(repo Store, users UserChecker, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		eventBus: eventBus,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Send stores a message from senderID. Sending to yourself is allowed.
func (s *Service) Send(ctx context.Context, senderID uuid.UUID, req transport.SendMessageRequest) (transport.MessageResponse, error) {
	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		return transport.MessageResponse{}, apperr.Validation("invalid receiver ID")
	}
	ok, err := s.users.UserExists(ctx, receiverID)
	if err != nil {
		return transport.MessageResponse{}, err
	}
	if !ok {
		return transport.MessageResponse{}, apperr.NotFound("recipient not found")
	}

	body := sanitize.Text(req.Message)
	if body == "" {
		return transport.MessageResponse{}, apperr.Validation("message is empty")
	}
	priority := req.Priority
	if priority == "" {
		priority = defaultPriority
	}

	msg := repository.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		Priority:   priority,
		SentDate:   s.now(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return transport.MessageResponse{}, err
	}

	s.log.WithContext(ctx).Info("message sent", "messageId", msg.ID, "receiverId", receiverID, "priority", priority)
	s.eventBus.Publish(ctx, events.MessageSent{
		BaseEvent:  events.NewBaseEvent(),
		MessageID:  msg.ID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Priority:   priority,
	})
	return toResponse(msg), nil
}

func (s *Service) Inbox(ctx context.Context, userID uuid.UUID, req transport.InboxRequest) (transport.InboxResponse, error) {
	limit := req.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	msgs, err := s.repo.Inbox(ctx, repository.InboxParams{ReceiverID: userID, UnreadOnly: req.UnreadOnly, Limit: limit})
	if err != nil {
		return transport.InboxResponse{}, err
	}
	unread, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return transport.InboxResponse{}, err
	}
	return transport.InboxResponse{Items: toResponses(msgs), Unread: unread}, nil
}

func (s *Service) Sent(ctx context.Context, userID uuid.UUID) ([]transport.MessageResponse, error) {
	msgs, err := s.repo.Sent(ctx, userID, defaultLimit)
	if err != nil {
		return nil, err
	}
	return toResponses(msgs), nil
}

// MarkRead marks one of userID's received messages as read.
func (s *Service) MarkRead(ctx context.Context, userID, messageID uuid.UUID) error {
	return s.repo.MarkRead(ctx, messageID, userID)
}

func toResponses(msgs []repository.Message) []transport.MessageResponse {
	out := make([]transport.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toResponse(m))
	}
	return out
}

func toResponse(m repository.Message) transport.MessageResponse {
	return transport.MessageResponse{
		ID:               m.ID.String(),
		SenderID:         m.SenderID.String(),
		SenderUsername:   m.SenderUsername,
		ReceiverID:       m.ReceiverID.String(),
		ReceiverUsername: m.ReceiverUsername,
		Message:          m.Body,
		Priority:         m.Priority,
		SentDate:         m.SentDate,
		Read:             m.Read,
	}
}
