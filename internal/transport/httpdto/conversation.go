package httpdto

import "talentlink-inbox/internal/domain"

type ConversationListResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
}

type StartConversationRequest struct {
	TargetUserID int64 `json:"target_user_id"`
}

type StartConversationResponse struct {
	ConversationID int64 `json:"conversation_id"`
}
