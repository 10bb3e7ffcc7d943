package devserver

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"talentlink-inbox/config"
	"talentlink-inbox/internal/api"
	"talentlink-inbox/internal/domain"
	"talentlink-inbox/internal/realtime"
	"talentlink-inbox/internal/transport/httpdto"
	inbox_errors "talentlink-inbox/pkg/errors"
	"talentlink-inbox/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	srv    *httptest.Server
	server *Server
	seed   *SeedResult
	wsBase string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		AppMode:      logger.ProductionMode,
		JWTSecret:    "test-secret",
		JWTExpiryMin: 5,
	}
	log := logger.NewNop()
	store := NewStore()
	seed, err := Seed(store, &SeedConfig{Password: "test-pass-1"})
	require.NoError(t, err)

	server := NewServer(cfg, store, log)
	ctx, cancel := context.WithCancel(context.Background())
	go server.hub.Run(ctx)

	srv := httptest.NewServer(server.Engine())
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &testEnv{
		srv:    srv,
		server: server,
		seed:   seed,
		wsBase: "ws" + strings.TrimPrefix(srv.URL, "http"),
	}
}

func (e *testEnv) login(t *testing.T, username string) (*api.Client, string) {
	t.Helper()
	client := api.New(e.srv.URL+"/api", "", 5*time.Second, logger.NewNop())
	resp, err := client.Login(context.Background(), username, "test-pass-1")
	require.NoError(t, err)
	client.SetAccessToken(resp.AccessToken)
	return client, resp.AccessToken
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	client := api.New(env.srv.URL+"/api", "", 5*time.Second, logger.NewNop())

	_, err := client.Login(context.Background(), "dana.reed", "wrong")
	assert.ErrorIs(t, err, inbox_errors.ErrUnauthorized)
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	env := newTestEnv(t)
	client := api.New(env.srv.URL+"/api", "", 5*time.Second, logger.NewNop())

	_, err := client.ListConversations(context.Background())
	assert.ErrorIs(t, err, inbox_errors.ErrUnauthorized)
}

func TestConversationAndMessageFlow(t *testing.T) {
	env := newTestEnv(t)
	recruiter, _ := env.login(t, "dana.reed")
	ctx := context.Background()

	convs, err := recruiter.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 2)

	hits, err := recruiter.SearchConversations(ctx, "okafor")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	convID := hits[0].ID

	msgs, err := recruiter.GetMessages(ctx, convID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	sent, err := recruiter.SendMessage(ctx, convID, buildTextRequest("How does Thursday 2pm sound?"))
	require.NoError(t, err)
	assert.Equal(t, env.seed.Recruiter.ID, sent.SenderID)

	edited, err := recruiter.EditMessage(ctx, sent.ID, "How does Friday 10am sound?")
	require.NoError(t, err)
	assert.True(t, edited.IsEdited)

	summary, err := recruiter.AddReaction(ctx, msgs[1].ID, domain.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, 1, summary[domain.ReactionLike].Count)
	summary, err = recruiter.RemoveReaction(ctx, msgs[1].ID, domain.ReactionLike)
	require.NoError(t, err)
	assert.NotContains(t, summary, domain.ReactionLike)

	require.NoError(t, recruiter.DeleteMessage(ctx, sent.ID))
	_, err = recruiter.EditMessage(ctx, sent.ID, "too late")
	assert.ErrorIs(t, err, inbox_errors.ErrNotFound)

	require.NoError(t, recruiter.MarkConversationRead(ctx, convID))
}

func TestOwnershipIsEnforcedOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	recruiter, _ := env.login(t, "dana.reed")
	seeker, _ := env.login(t, "sam.okafor")
	ctx := context.Background()

	convs, err := seeker.ListConversations(ctx)
	require.NoError(t, err)
	convID := convs[0].ID
	msgs, err := recruiter.GetMessages(ctx, convID)
	require.NoError(t, err)

	_, err = seeker.EditMessage(ctx, msgs[0].ID, "hijacked")
	assert.ErrorIs(t, err, inbox_errors.ErrForbidden)
	assert.ErrorIs(t, seeker.DeleteMessage(ctx, msgs[0].ID), inbox_errors.ErrForbidden)

	// mira.tan is not in this thread at all.
	outsider, _ := env.login(t, "mira.tan")
	_, err = outsider.GetMessages(ctx, convID)
	assert.ErrorIs(t, err, inbox_errors.ErrForbidden)
}

func TestStartConversationOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	seeker, _ := env.login(t, "sam.okafor")
	ctx := context.Background()

	id, err := seeker.StartConversation(ctx, env.seed.Seekers[1].ID)
	require.NoError(t, err)
	assert.NotZero(t, id)

	again, err := seeker.StartConversation(ctx, env.seed.Seekers[1].ID)
	require.NoError(t, err)
	assert.Equal(t, id, again, "the pair's existing thread is reused")

	_, err = seeker.StartConversation(ctx, 9999)
	assert.ErrorIs(t, err, inbox_errors.ErrNotFound)
}

func TestWebsocketDeliversPushes(t *testing.T) {
	env := newTestEnv(t)
	recruiter, _ := env.login(t, "dana.reed")
	_, seekerToken := env.login(t, "sam.okafor")
	ctx := context.Background()

	convs, err := recruiter.SearchConversations(ctx, "okafor")
	require.NoError(t, err)
	convID := convs[0].ID

	channel := realtime.NewChannel(env.wsBase, seekerToken, logger.NewNop())
	sub := channel.Subscribe(ctx, convID)
	defer sub.Close()
	waitStatus(t, sub, realtime.StatusConnected)
	require.Eventually(t, func() bool {
		return env.server.hub.WatcherCount(convID) == 1
	}, 5*time.Second, 10*time.Millisecond, "hub has not registered the subscription yet")

	sent, err := recruiter.SendMessage(ctx, convID, buildTextRequest("ping over the wire"))
	require.NoError(t, err)

	ev := waitPush(t, sub, realtime.EventTypeMessageCreated)
	require.NotNil(t, ev.Message)
	assert.Equal(t, sent.ID, ev.Message.ID)
	assert.Equal(t, "ping over the wire", ev.Message.Text)

	// Typing signals skip their originator, so the seeker sees the
	// recruiter's but a second recruiter socket would not.
	require.NoError(t, recruiter.SetTyping(ctx, convID, true))
	ev = waitPush(t, sub, realtime.EventTypeTypingChanged)
	require.NotNil(t, ev.Typing)
	assert.True(t, ev.Typing.Typing)
}

func TestWebsocketRejectsNonParticipants(t *testing.T) {
	env := newTestEnv(t)
	recruiter, _ := env.login(t, "dana.reed")
	_, outsiderToken := env.login(t, "mira.tan")
	ctx := context.Background()

	convs, err := recruiter.SearchConversations(ctx, "okafor")
	require.NoError(t, err)

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	channel := realtime.NewChannel(env.wsBase, outsiderToken, logger.NewNop())
	sub := channel.Subscribe(subCtx, convs[0].ID)
	defer sub.Close()
	waitStatus(t, sub, realtime.StatusDegraded)
}

func buildTextRequest(text string) httpdto.SendMessageRequest {
	return httpdto.SendMessageRequest{Text: text, MessageType: string(domain.MessageTypeText)}
}

func waitStatus(t *testing.T, sub *realtime.Subscription, want realtime.Status) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case status := <-sub.Status():
			if status == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for realtime status %v", want)
		}
	}
}

func waitPush(t *testing.T, sub *realtime.Subscription, eventType string) realtime.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				t.Fatal("subscription closed before the expected push arrived")
			}
			if ev.Type == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for a %s push", eventType)
		}
	}
}
