package devserver

import (
	"context"
	"net/http"
	"time"

	"talentlink-inbox/internal/realtime"
	"talentlink-inbox/internal/transport/httpdto"
	"talentlink-inbox/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSHandler upgrades per-conversation subscriptions. The client holds
// exactly one of these at a time; connect and disconnect double as
// presence signals for the counterparty.
type WSHandler struct {
	store *Store
	hub   *Hub
	tm    *TokenManager
	log   *logger.Logger
}

func NewWSHandler(store *Store, hub *Hub, tm *TokenManager, log *logger.Logger) *WSHandler {
	return &WSHandler{store: store, hub: hub, tm: tm, log: log}
}

func (h *WSHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
		return
	}
	claims, err := h.tm.Parse(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
		return
	}
	userID, err := h.tm.userID(claims)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
		return
	}

	conversationID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", httpdto.CodeInvalidRequest))
		return
	}
	if !h.store.IsParticipant(conversationID, userID) {
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("forbidden", httpdto.CodeForbidden))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, userID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	h.hub.Subscribe(client, conversationID)
	go client.WriteLoop(ctx)
	h.announcePresence(conversationID, userID, true)

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}

	h.announcePresence(conversationID, userID, false)
	h.hub.Unregister(client)
}

func (h *WSHandler) announcePresence(conversationID, userID int64, online bool) {
	payload, err := realtime.EncodeEnvelope(realtime.EventTypePresenceChanged, conversationID, realtime.PresenceChange{
		UserID: userID,
		Online: online,
	})
	if err != nil {
		h.log.Errorf("encode presence: %v", err)
		return
	}
	h.hub.BroadcastExcept(conversationID, userID, payload)
}
