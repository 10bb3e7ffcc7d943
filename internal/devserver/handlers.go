package devserver

import (
	"errors"
	"net/http"
	"strconv"

	"talentlink-inbox/internal/domain"
	"talentlink-inbox/internal/realtime"
	"talentlink-inbox/internal/transport/httpdto"
	inbox_errors "talentlink-inbox/pkg/errors"
	"talentlink-inbox/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers implements the REST contracts the inbox client consumes.
type Handlers struct {
	store *Store
	hub   *Hub
	tm    *TokenManager
	log   *logger.Logger
}

func NewHandlers(store *Store, hub *Hub, tm *TokenManager, log *logger.Logger) *Handlers {
	return &Handlers{store: store, hub: hub, tm: tm, log: log}
}

func (h *Handlers) Login(c *gin.Context) {
	var req httpdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", httpdto.CodeInvalidRequest))
		return
	}
	user, err := h.store.Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("bad credentials", httpdto.CodeUnauthorized))
		return
	}
	token, err := h.tm.Issue(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("token issue failed", httpdto.CodeInternal))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.LoginResponse{
		AccessToken: token,
		UserID:      user.ID,
		Username:    user.Username,
	}))
}

func (h *Handlers) ListConversations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ConversationListResponse{
		Conversations: h.store.ListConversations(userID),
	}))
}

func (h *Handlers) SearchConversations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ConversationListResponse{
		Conversations: h.store.SearchConversations(userID, c.Query("q")),
	}))
}

func (h *Handlers) StartConversation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
		return
	}
	var req httpdto.StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", httpdto.CodeInvalidRequest))
		return
	}
	conversationID, err := h.store.StartConversation(userID, req.TargetUserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.StartConversationResponse{
		ConversationID: conversationID,
	}))
}

func (h *Handlers) ListMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
		return
	}
	conversationID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", httpdto.CodeInvalidRequest))
		return
	}
	messages, err := h.store.Messages(conversationID, userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.MessageListResponse{Messages: messages}))
}

func (h *Handlers) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
		return
	}
	conversationID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", httpdto.CodeInvalidRequest))
		return
	}
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", httpdto.CodeInvalidRequest))
		return
	}
	msg, err := h.store.AppendMessage(conversationID, userID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.publish(realtime.EventTypeMessageCreated, conversationID, msg)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(msg))
}

func (h *Handlers) EditMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
		return
	}
	messageID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", httpdto.CodeInvalidRequest))
		return
	}
	var req httpdto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", httpdto.CodeInvalidRequest))
		return
	}
	msg, err := h.store.EditMessage(messageID, userID, req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(msg))
}

func (h *Handlers) DeleteMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
		return
	}
	messageID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", httpdto.CodeInvalidRequest))
		return
	}
	if err := h.store.DeleteMessage(messageID, userID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *Handlers) AddReaction(c *gin.Context) {
	h.reaction(c, true)
}

func (h *Handlers) RemoveReaction(c *gin.Context) {
	h.reaction(c, false)
}

func (h *Handlers) reaction(c *gin.Context, add bool) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
		return
	}
	messageID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", httpdto.CodeInvalidRequest))
		return
	}

	var kind domain.ReactionKind
	if add {
		var req httpdto.ReactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", httpdto.CodeInvalidRequest))
			return
		}
		kind = domain.ReactionKind(req.Kind)
	} else {
		kind = domain.ReactionKind(c.Param("kind"))
	}

	var summary domain.ReactionSummary
	if add {
		summary, err = h.store.AddReaction(messageID, userID, kind)
	} else {
		summary, err = h.store.RemoveReaction(messageID, userID, kind)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ReactionSummaryResponse{ReactionSummary: summary}))
}

func (h *Handlers) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
		return
	}
	conversationID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", httpdto.CodeInvalidRequest))
		return
	}
	if err := h.store.MarkRead(conversationID, userID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *Handlers) SetTyping(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
		return
	}
	conversationID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", httpdto.CodeInvalidRequest))
		return
	}
	var req httpdto.TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", httpdto.CodeInvalidRequest))
		return
	}
	if !h.store.IsParticipant(conversationID, userID) {
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("forbidden", httpdto.CodeForbidden))
		return
	}
	payload, err := realtime.EncodeEnvelope(realtime.EventTypeTypingChanged, conversationID, realtime.TypingChange{
		ConversationID: conversationID,
		UserID:         userID,
		Typing:         req.Typing,
	})
	if err == nil {
		h.hub.BroadcastExcept(conversationID, userID, payload)
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *Handlers) Attachment(c *gin.Context) {
	messageID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", httpdto.CodeInvalidRequest))
		return
	}
	data, ok := h.store.Attachment(messageID)
	if !ok {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("not found", httpdto.CodeNotFound))
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (h *Handlers) publish(eventType string, conversationID int64, payload any) {
	frame, err := realtime.EncodeEnvelope(eventType, conversationID, payload)
	if err != nil {
		h.log.Errorf("encode %s: %v", eventType, err)
		return
	}
	h.hub.Broadcast(conversationID, frame)
}

func (h *Handlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, inbox_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse(err.Error(), httpdto.CodeNotFound))
	case errors.Is(err, inbox_errors.ErrForbidden):
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse(err.Error(), httpdto.CodeForbidden))
	case errors.Is(err, inbox_errors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse(err.Error(), httpdto.CodeUnauthorized))
	case errors.Is(err, inbox_errors.ErrConflict):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), httpdto.CodeConflict))
	case errors.Is(err, inbox_errors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), httpdto.CodeInvalidRequest))
	default:
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), httpdto.CodeInternal))
	}
}

func parseID(value string) (int64, error) {
	return strconv.ParseInt(value, 10, 64)
}
