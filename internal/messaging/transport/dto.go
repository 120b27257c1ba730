package transport

import "time"

type SendMessageRequest struct {
	ReceiverID string `json:"receiverId" validate:"required,uuid"`
	Message    string `json:"message" validate:"required,max=5000"`
	Priority   string `json:"priority" validate:"omitempty,message_priority"`
}

type InboxRequest struct {
	UnreadOnly bool `form:"unread"`
	Limit      int  `form:"limit" validate:"omitempty,min=1,max=500"`
}

type MessageResponse struct {
	ID               string    `json:"id"`
	SenderID         string    `json:"senderId"`
	SenderUsername   string    `json:"senderUsername"`
	ReceiverID       string    `json:"receiverId"`
	ReceiverUsername string    `json:"receiverUsername"`
	Message          string    `json:"message"`
	Priority         string    `json:"priority"`
	SentDate         time.Time `json:"sentDate"`
	Read             bool      `json:"read"`
}

type InboxResponse struct {
	Items  []MessageResponse `json:"items"`
	Unread int               `json:"unread"`
}
