package domain

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

type DeliveryStatus string

const (
	DeliveryStatusSent      DeliveryStatus = "sent"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusRead      DeliveryStatus = "read"
)

type ReactionKind string

const (
	ReactionLike  ReactionKind = "like"
	ReactionLove  ReactionKind = "love"
	ReactionLaugh ReactionKind = "laugh"
	ReactionWow   ReactionKind = "wow"
	ReactionSad   ReactionKind = "sad"
	ReactionAngry ReactionKind = "angry"
)

var reactionEmojis = map[ReactionKind]string{
	ReactionLike:  "👍",
	ReactionLove:  "❤️",
	ReactionLaugh: "😂",
	ReactionWow:   "😮",
	ReactionSad:   "😢",
	ReactionAngry: "😡",
}

func (k ReactionKind) Valid() bool {
	_, ok := reactionEmojis[k]
	return ok
}

func (k ReactionKind) Emoji() string {
	return reactionEmojis[k]
}

// ConversationCategory is a client-side directory filter.
type ConversationCategory string

const (
	// CategoryRead applies no filtering: "read" is the all-pass
	// default rather than strictly-read.
	CategoryRead    ConversationCategory = "read"
	CategoryUnread  ConversationCategory = "unread"
	CategoryPrimary ConversationCategory = "primary"
)
