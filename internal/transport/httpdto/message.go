package httpdto

import "talentlink-inbox/internal/domain"

type SendMessageRequest struct {
	Text               string `json:"text,omitempty"`
	AttachmentData     string `json:"attachment_data,omitempty"` // base64
	AttachmentFilename string `json:"attachment_filename,omitempty"`
	MessageType        string `json:"message_type"`
	ReplyToID          *int64 `json:"reply_to,omitempty"`
}

type EditMessageRequest struct {
	Text string `json:"text"`
}

type ReactionRequest struct {
	Kind string `json:"kind"`
}

type MessageListResponse struct {
	Messages []domain.Message `json:"messages"`
}

type ReactionSummaryResponse struct {
	ReactionSummary domain.ReactionSummary `json:"reaction_summary"`
}

type TypingRequest struct {
	Typing bool `json:"typing"`
}
