package domain

import (
	"fmt"
	"time"
)

// Message belongs to exactly one conversation. Type tags the variant:
// text messages carry Text, image/file messages carry the attachment
// fields. Validate enforces the per-kind rules.
type Message struct {
	ID                 int64           `json:"id"`
	ConversationID     int64           `json:"conversation_id"`
	SenderID           int64           `json:"sender"`
	Text               string          `json:"text,omitempty"`
	Type               MessageType     `json:"message_type"`
	AttachmentURL      string          `json:"attachment_url,omitempty"`
	AttachmentFilename string          `json:"attachment_filename,omitempty"`
	Timestamp          time.Time       `json:"timestamp"`
	IsEdited           bool            `json:"is_edited"`
	Status             DeliveryStatus  `json:"status"`
	ReplyToID          *int64          `json:"reply_to,omitempty"`
	Reactions          ReactionSummary `json:"reaction_summary,omitempty"`
}

func (m Message) Validate() error {
	switch m.Type {
	case MessageTypeText:
		if m.Text == "" {
			return fmt.Errorf("text message %d has no text", m.ID)
		}
		if m.AttachmentURL != "" {
			return fmt.Errorf("text message %d carries an attachment", m.ID)
		}
	case MessageTypeImage, MessageTypeFile:
		if m.AttachmentURL == "" {
			return fmt.Errorf("%s message %d has no attachment", m.Type, m.ID)
		}
	default:
		return fmt.Errorf("message %d has unknown type %q", m.ID, m.Type)
	}
	return nil
}

// IsOwn reports whether the message was sent by the given user.
func (m Message) IsOwn(currentUserID int64) bool {
	return m.SenderID == currentUserID
}

// ReactionGroup aggregates one reaction kind on one message.
type ReactionGroup struct {
	Emoji string  `json:"emoji"`
	Count int     `json:"count"`
	Users []int64 `json:"users"`
}

// ReactionSummary maps reaction kind to its aggregate. At most one
// active reaction per (user, kind).
type ReactionSummary map[ReactionKind]ReactionGroup

// HasReacted reports whether userID currently reacts with kind.
func (s ReactionSummary) HasReacted(userID int64, kind ReactionKind) bool {
	group, ok := s[kind]
	if !ok {
		return false
	}
	for _, id := range group.Users {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, so reconciled summaries never alias the
// server-decoded value.
func (s ReactionSummary) Clone() ReactionSummary {
	if s == nil {
		return nil
	}
	out := make(ReactionSummary, len(s))
	for kind, group := range s {
		users := make([]int64, len(group.Users))
		copy(users, group.Users)
		out[kind] = ReactionGroup{Emoji: group.Emoji, Count: group.Count, Users: users}
	}
	return out
}
