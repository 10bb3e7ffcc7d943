package domain

import (
	"time"
)

// UserRef is a participant reference as returned by the backend.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

// LastMessage is the denormalized snapshot a conversation carries for
// directory previews.
type LastMessage struct {
	Text      string      `json:"text,omitempty"`
	Type      MessageType `json:"message_type"`
	Timestamp time.Time   `json:"timestamp"`
}

// Conversation is a two-party message thread. The backend may resolve
// OtherParticipant relative to the requesting user; when it does not,
// DisplayName falls back to the raw participant pair.
type Conversation struct {
	ID               int64        `json:"id"`
	Participant1     UserRef      `json:"participant1"`
	Participant2     UserRef      `json:"participant2"`
	OtherParticipant *UserRef     `json:"other_participant,omitempty"`
	LastMessage      *LastMessage `json:"last_message,omitempty"`
	UnreadCount      int          `json:"unread_count"`
	IsArchived       bool         `json:"is_archived"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Other returns the participant whose id differs from currentUserID.
func (c Conversation) Other(currentUserID int64) UserRef {
	if c.Participant1.ID != currentUserID {
		return c.Participant1
	}
	return c.Participant2
}
