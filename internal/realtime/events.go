package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"talentlink-inbox/internal/domain"
)

// Event type constants, format: domain.action
const (
	EventTypeMessageCreated  = "message.created"
	EventTypeTypingChanged   = "typing.changed"
	EventTypePresenceChanged = "presence.changed"
)

// Envelope is the wire frame pushed over a conversation channel.
type Envelope struct {
	EventType      string          `json:"event_type"`
	ConversationID int64           `json:"conversation_id"`
	OccurredAt     time.Time       `json:"occurred_at"`
	Payload        json.RawMessage `json:"payload"`
}

type TypingChange struct {
	ConversationID int64 `json:"conversation_id"`
	UserID         int64 `json:"user_id"`
	Typing         bool  `json:"typing"`
}

type PresenceChange struct {
	UserID int64 `json:"user_id"`
	Online bool  `json:"online"`
}

// Event is the decoded union delivered to the orchestrator. Exactly one
// of the pointer fields is set, matching Type.
type Event struct {
	Type           string
	ConversationID int64
	Message        *domain.Message
	Typing         *TypingChange
	Presence       *PresenceChange
}

func DecodeEvent(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, fmt.Errorf("decode envelope: %w", err)
	}

	ev := Event{Type: env.EventType, ConversationID: env.ConversationID}
	switch env.EventType {
	case EventTypeMessageCreated:
		var msg domain.Message
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return Event{}, fmt.Errorf("decode message payload: %w", err)
		}
		ev.Message = &msg
	case EventTypeTypingChanged:
		var typing TypingChange
		if err := json.Unmarshal(env.Payload, &typing); err != nil {
			return Event{}, fmt.Errorf("decode typing payload: %w", err)
		}
		ev.Typing = &typing
	case EventTypePresenceChanged:
		var presence PresenceChange
		if err := json.Unmarshal(env.Payload, &presence); err != nil {
			return Event{}, fmt.Errorf("decode presence payload: %w", err)
		}
		ev.Presence = &presence
	default:
		return Event{}, fmt.Errorf("unknown event type %q", env.EventType)
	}
	return ev, nil
}

// EncodeEnvelope builds the wire frame; the dev server publishes
// through this so both sides share one format.
func EncodeEnvelope(eventType string, conversationID int64, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return json.Marshal(Envelope{
		EventType:      eventType,
		ConversationID: conversationID,
		OccurredAt:     time.Now().UTC(),
		Payload:        raw,
	})
}
