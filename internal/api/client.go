package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"talentlink-inbox/internal/domain"
	"talentlink-inbox/internal/transport/httpdto"
	inbox_errors "talentlink-inbox/pkg/errors"
	"talentlink-inbox/pkg/logger"

	"github.com/go-resty/resty/v2"
)

// Client talks to the marketplace messaging API. All calls are plain
// request/response; realtime delivery lives in internal/realtime.
type Client struct {
	http *resty.Client
	log  *logger.Logger
}

func New(baseURL, accessToken string, timeout time.Duration, log *logger.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if accessToken != "" {
		httpClient.SetAuthToken(accessToken)
	}
	httpClient.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		if resp.IsError() {
			log.Warnf("api %s %s: %d", resp.Request.Method, resp.Request.URL, resp.StatusCode())
		}
		return nil
	})
	return &Client{http: httpClient, log: log}
}

// SetAccessToken swaps the bearer token, e.g. after a dev-server login.
func (c *Client) SetAccessToken(token string) {
	c.http.SetAuthToken(token)
}

func (c *Client) Login(ctx context.Context, username, password string) (httpdto.LoginResponse, error) {
	var out httpdto.Response[httpdto.LoginResponse]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(httpdto.LoginRequest{Username: username, Password: password}).
		SetResult(&out).
		Post("/auth/login")
	if err != nil {
		return httpdto.LoginResponse{}, fmt.Errorf("login: %w", err)
	}
	if err := statusError(resp); err != nil {
		return httpdto.LoginResponse{}, err
	}
	return out.Data, nil
}

func (c *Client) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	var out httpdto.Response[httpdto.ConversationListResponse]
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/conversations")
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}
	return out.Data.Conversations, nil
}

// SearchConversations is a separate server-side query path; ranking is
// whatever the backend returns.
func (c *Client) SearchConversations(ctx context.Context, query string) ([]domain.Conversation, error) {
	var out httpdto.Response[httpdto.ConversationListResponse]
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetResult(&out).
		Get("/conversations/search")
	if err != nil {
		return nil, fmt.Errorf("search conversations: %w", err)
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}
	return out.Data.Conversations, nil
}

func (c *Client) GetMessages(ctx context.Context, conversationID int64) ([]domain.Message, error) {
	var out httpdto.Response[httpdto.MessageListResponse]
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/conversations/" + strconv.FormatInt(conversationID, 10) + "/messages")
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}
	return out.Data.Messages, nil
}

func (c *Client) SendMessage(ctx context.Context, conversationID int64, req httpdto.SendMessageRequest) (domain.Message, error) {
	var out httpdto.Response[domain.Message]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/conversations/" + strconv.FormatInt(conversationID, 10) + "/messages")
	if err != nil {
		return domain.Message{}, fmt.Errorf("send message: %w", err)
	}
	if err := statusError(resp); err != nil {
		return domain.Message{}, err
	}
	return out.Data, nil
}

func (c *Client) EditMessage(ctx context.Context, messageID int64, text string) (domain.Message, error) {
	var out httpdto.Response[domain.Message]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(httpdto.EditMessageRequest{Text: text}).
		SetResult(&out).
		Patch("/messages/" + strconv.FormatInt(messageID, 10))
	if err != nil {
		return domain.Message{}, fmt.Errorf("edit message: %w", err)
	}
	if err := statusError(resp); err != nil {
		return domain.Message{}, err
	}
	return out.Data, nil
}

func (c *Client) DeleteMessage(ctx context.Context, messageID int64) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete("/messages/" + strconv.FormatInt(messageID, 10))
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return statusError(resp)
}

func (c *Client) AddReaction(ctx context.Context, messageID int64, kind domain.ReactionKind) (domain.ReactionSummary, error) {
	var out httpdto.Response[httpdto.ReactionSummaryResponse]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(httpdto.ReactionRequest{Kind: string(kind)}).
		SetResult(&out).
		Post("/messages/" + strconv.FormatInt(messageID, 10) + "/reactions")
	if err != nil {
		return nil, fmt.Errorf("add reaction: %w", err)
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}
	return out.Data.ReactionSummary, nil
}

func (c *Client) RemoveReaction(ctx context.Context, messageID int64, kind domain.ReactionKind) (domain.ReactionSummary, error) {
	var out httpdto.Response[httpdto.ReactionSummaryResponse]
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Delete("/messages/" + strconv.FormatInt(messageID, 10) + "/reactions/" + string(kind))
	if err != nil {
		return nil, fmt.Errorf("remove reaction: %w", err)
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}
	return out.Data.ReactionSummary, nil
}

func (c *Client) MarkConversationRead(ctx context.Context, conversationID int64) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Post("/conversations/" + strconv.FormatInt(conversationID, 10) + "/read")
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return statusError(resp)
}

func (c *Client) SetTyping(ctx context.Context, conversationID int64, typing bool) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(httpdto.TypingRequest{Typing: typing}).
		Post("/conversations/" + strconv.FormatInt(conversationID, 10) + "/typing")
	if err != nil {
		return fmt.Errorf("set typing: %w", err)
	}
	return statusError(resp)
}

// StartConversation creates (or reuses) the thread with targetUserID
// and returns its id. Callers navigate into it afterwards.
func (c *Client) StartConversation(ctx context.Context, targetUserID int64) (int64, error) {
	var out httpdto.Response[httpdto.StartConversationResponse]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(httpdto.StartConversationRequest{TargetUserID: targetUserID}).
		SetResult(&out).
		Post("/conversations")
	if err != nil {
		return 0, fmt.Errorf("start conversation: %w", err)
	}
	if err := statusError(resp); err != nil {
		return 0, err
	}
	return out.Data.ConversationID, nil
}

// statusError maps non-2xx responses onto the sentinel taxonomy,
// keeping the backend's error text when it sent any.
func statusError(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	base := codeToError(resp.StatusCode())
	var body httpdto.Response[any]
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		return fmt.Errorf("%s: %w", body.Error, base)
	}
	return base
}

func codeToError(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return inbox_errors.ErrUnauthorized
	case http.StatusForbidden:
		return inbox_errors.ErrForbidden
	case http.StatusNotFound:
		return inbox_errors.ErrNotFound
	case http.StatusConflict:
		return inbox_errors.ErrConflict
	case http.StatusTooManyRequests:
		return inbox_errors.ErrRateLimited
	case http.StatusBadRequest:
		return inbox_errors.ErrInvalidInput
	default:
		return inbox_errors.ErrServiceUnavailable
	}
}
