package composer

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"talentlink-inbox/internal/commands"
	"talentlink-inbox/internal/domain"
	"talentlink-inbox/internal/session"
	"talentlink-inbox/internal/timeline"
	"talentlink-inbox/internal/transport/httpdto"
	inbox_errors "talentlink-inbox/pkg/errors"
	"talentlink-inbox/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

type fakeAPI struct {
	mu sync.Mutex

	sendErr    error
	sendFn     func(req httpdto.SendMessageRequest) (domain.Message, error)
	sentReqs   []httpdto.SendMessageRequest
	editErr    error
	deleteErr  error
	deleted    []int64
	added      []domain.ReactionKind
	removed    []domain.ReactionKind
	summary    domain.ReactionSummary
	nextID     int64
	typingLog  []bool
	typingConv int64
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{nextID: 100}
}

func (f *fakeAPI) SendMessage(ctx context.Context, conversationID int64, req httpdto.SendMessageRequest) (domain.Message, error) {
	f.mu.Lock()
	f.sentReqs = append(f.sentReqs, req)
	fn := f.sendFn
	sendErr := f.sendErr
	f.nextID++
	id := f.nextID
	f.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	if sendErr != nil {
		return domain.Message{}, sendErr
	}
	return domain.Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       1,
		Text:           req.Text,
		Type:           domain.MessageType(req.MessageType),
		Timestamp:      base.Add(time.Duration(id) * time.Hour),
		Status:         domain.DeliveryStatusSent,
	}, nil
}

func (f *fakeAPI) EditMessage(ctx context.Context, messageID int64, text string) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return domain.Message{}, f.editErr
	}
	return domain.Message{ID: messageID, ConversationID: 10, SenderID: 1, Text: text, IsEdited: true, Timestamp: base}, nil
}

func (f *fakeAPI) DeleteMessage(ctx context.Context, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeAPI) AddReaction(ctx context.Context, messageID int64, kind domain.ReactionKind) (domain.ReactionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, kind)
	return f.summary, nil
}

func (f *fakeAPI) RemoveReaction(ctx context.Context, messageID int64, kind domain.ReactionKind) (domain.ReactionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, kind)
	return f.summary, nil
}

func (f *fakeAPI) SetTyping(ctx context.Context, conversationID int64, typing bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typingConv = conversationID
	f.typingLog = append(f.typingLog, typing)
	return nil
}

func (f *fakeAPI) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sentReqs)
}

func newComposer(t *testing.T, api *fakeAPI, confirm ConfirmFunc) (*Composer, *timeline.Timeline) {
	t.Helper()
	tl := timeline.New()
	runner := commands.NewRunner(logger.NewNop())
	self := session.Identity{UserID: 1, Username: "dana.reed"}
	return New(api, runner, tl, self, 10, confirm, logger.NewNop()), tl
}

func seedTimeline(tl *timeline.Timeline, msgs ...domain.Message) {
	tl.Replace(10, msgs)
}

func ownMessage(id int64) domain.Message {
	return domain.Message{ID: id, ConversationID: 10, SenderID: 1, Text: "mine",
		Type: domain.MessageTypeText, Timestamp: base.Add(time.Duration(id) * time.Minute)}
}

func theirMessage(id int64) domain.Message {
	return domain.Message{ID: id, ConversationID: 10, SenderID: 2, Text: "theirs",
		Type: domain.MessageTypeText, Timestamp: base.Add(time.Duration(id) * time.Minute)}
}

func TestSendRejectsEmptyDraft(t *testing.T) {
	api := newFakeAPI()
	c, _ := newComposer(t, api, nil)

	_, err := c.Send(context.Background())
	assert.ErrorIs(t, err, inbox_errors.ErrEmptyDraft)

	c.SetText(context.Background(), "   \n\t ")
	_, err = c.Send(context.Background())
	assert.ErrorIs(t, err, inbox_errors.ErrEmptyDraft)
	assert.Zero(t, api.sendCount(), "an empty draft must never reach the network")
}

func TestSendClearsDraftAndAppendsToTimeline(t *testing.T) {
	api := newFakeAPI()
	c, tl := newComposer(t, api, nil)
	seedTimeline(tl, theirMessage(1))

	c.SetText(context.Background(), "  hello there  ")
	sent, err := c.Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello there", sent.Text)

	draft := c.Draft()
	assert.Empty(t, draft.Text)
	assert.Nil(t, draft.Attachment)
	assert.Nil(t, draft.ReplyToID)

	msgs := tl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, sent.ID, msgs[1].ID, "the confirmed message lands at the end of the timeline")
}

func TestSendFailurePreservesDraft(t *testing.T) {
	api := newFakeAPI()
	api.sendErr = inbox_errors.ErrServiceUnavailable
	c, tl := newComposer(t, api, nil)
	seedTimeline(tl, theirMessage(1))

	c.SetText(context.Background(), "do not lose me")
	c.Attach("cv.pdf", "application/pdf", []byte("%PDF"))

	_, err := c.Send(context.Background())
	require.ErrorIs(t, err, inbox_errors.ErrServiceUnavailable)

	draft := c.Draft()
	assert.Equal(t, "do not lose me", draft.Text)
	require.NotNil(t, draft.Attachment)
	assert.Equal(t, "cv.pdf", draft.Attachment.Filename)
	assert.Equal(t, 1, tl.Len(), "nothing is inserted optimistically")
}

func TestSendWhilePendingIsRefused(t *testing.T) {
	api := newFakeAPI()
	started := make(chan struct{})
	release := make(chan struct{})
	api.sendFn = func(req httpdto.SendMessageRequest) (domain.Message, error) {
		close(started)
		<-release
		return domain.Message{ID: 50, ConversationID: 10, SenderID: 1, Text: req.Text, Timestamp: base}, nil
	}
	c, _ := newComposer(t, api, nil)

	c.SetText(context.Background(), "first")
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Send(context.Background())
		errCh <- err
	}()
	<-started

	_, err := c.Send(context.Background())
	assert.ErrorIs(t, err, inbox_errors.ErrSendPending)

	close(release)
	require.NoError(t, <-errCh)
}

func TestSendEncodesAttachment(t *testing.T) {
	api := newFakeAPI()
	c, _ := newComposer(t, api, nil)

	payload := []byte{0x89, 'P', 'N', 'G'}
	c.Attach("avatar.png", "image/png", payload)
	_, err := c.Send(context.Background())
	require.NoError(t, err)

	require.Len(t, api.sentReqs, 1)
	req := api.sentReqs[0]
	assert.Equal(t, string(domain.MessageTypeImage), req.MessageType)
	assert.Equal(t, "avatar.png", req.AttachmentFilename)
	assert.Equal(t, base64.StdEncoding.EncodeToString(payload), req.AttachmentData)

	c.Attach("notes.txt", "text/plain", []byte("hi"))
	_, err = c.Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, string(domain.MessageTypeFile), api.sentReqs[1].MessageType)
}

func TestReplyToRequiresTimelineMessage(t *testing.T) {
	api := newFakeAPI()
	c, tl := newComposer(t, api, nil)
	seedTimeline(tl, theirMessage(1))

	require.Error(t, c.ReplyTo(99))
	require.NoError(t, c.ReplyTo(1))

	c.SetText(context.Background(), "replying")
	_, err := c.Send(context.Background())
	require.NoError(t, err)
	require.NotNil(t, api.sentReqs[0].ReplyToID)
	assert.Equal(t, int64(1), *api.sentReqs[0].ReplyToID)

	c.SetText(context.Background(), "no reply this time")
	c.ClearReply()
	_, err = c.Send(context.Background())
	require.NoError(t, err)
	assert.Nil(t, api.sentReqs[1].ReplyToID)
}

func TestEditOnlyOwnMessages(t *testing.T) {
	api := newFakeAPI()
	c, tl := newComposer(t, api, nil)
	seedTimeline(tl, ownMessage(1), theirMessage(2))

	assert.ErrorIs(t, c.Edit(context.Background(), 2, "nope"), inbox_errors.ErrNotMessageOwner)
	assert.ErrorIs(t, c.Edit(context.Background(), 99, "gone"), inbox_errors.ErrNotFound)

	require.NoError(t, c.Edit(context.Background(), 1, "changed"))
	got, ok := tl.Get(1)
	require.True(t, ok)
	assert.Equal(t, "changed", got.Text)
	assert.True(t, got.IsEdited)
}

func TestEditFailureLeavesTimelineUntouched(t *testing.T) {
	api := newFakeAPI()
	api.editErr = inbox_errors.ErrServiceUnavailable
	c, tl := newComposer(t, api, nil)
	seedTimeline(tl, ownMessage(1))

	require.ErrorIs(t, c.Edit(context.Background(), 1, "changed"), inbox_errors.ErrServiceUnavailable)
	got, _ := tl.Get(1)
	assert.Equal(t, "mine", got.Text)
	assert.False(t, got.IsEdited)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	api := newFakeAPI()
	confirmed := false
	c, tl := newComposer(t, api, func(domain.Message) bool { return confirmed })
	seedTimeline(tl, ownMessage(1), theirMessage(2))

	assert.ErrorIs(t, c.Delete(context.Background(), 2), inbox_errors.ErrNotMessageOwner)

	err := c.Delete(context.Background(), 1)
	assert.ErrorIs(t, err, inbox_errors.ErrNotConfirmed)
	assert.Empty(t, api.deleted, "a declined delete never reaches the network")
	assert.Equal(t, 2, tl.Len())

	confirmed = true
	require.NoError(t, c.Delete(context.Background(), 1))
	assert.Equal(t, []int64{1}, api.deleted)
	assert.Equal(t, 1, tl.Len())
}

func TestDeleteFailureKeepsMessage(t *testing.T) {
	api := newFakeAPI()
	api.deleteErr = errors.New("boom")
	c, tl := newComposer(t, api, func(domain.Message) bool { return true })
	seedTimeline(tl, ownMessage(1))

	require.Error(t, c.Delete(context.Background(), 1))
	_, ok := tl.Get(1)
	assert.True(t, ok, "removal happens only after the server confirmed")
}

func TestToggleReactionAddsThenRemoves(t *testing.T) {
	api := newFakeAPI()
	api.summary = domain.ReactionSummary{
		domain.ReactionLike: {Emoji: domain.ReactionLike.Emoji(), Count: 1, Users: []int64{1}},
	}
	c, tl := newComposer(t, api, nil)
	seedTimeline(tl, theirMessage(1))

	require.NoError(t, c.ToggleReaction(context.Background(), 1, domain.ReactionLike))
	assert.Equal(t, []domain.ReactionKind{domain.ReactionLike}, api.added)
	assert.True(t, tl.HasReacted(1, 1, domain.ReactionLike))

	api.summary = domain.ReactionSummary{}
	require.NoError(t, c.ToggleReaction(context.Background(), 1, domain.ReactionLike))
	assert.Equal(t, []domain.ReactionKind{domain.ReactionLike}, api.removed)
	assert.False(t, tl.HasReacted(1, 1, domain.ReactionLike))
}

func TestTypingSignalsFollowDraftTransitions(t *testing.T) {
	api := newFakeAPI()
	c, _ := newComposer(t, api, nil)

	c.SetText(context.Background(), "h")
	c.SetText(context.Background(), "he")
	c.SetText(context.Background(), "")

	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return len(api.typingLog) == 2
	}, 2*time.Second, 10*time.Millisecond, "only transitions fire, not every keystroke")

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, int64(10), api.typingConv)
	assert.ElementsMatch(t, []bool{true, false}, api.typingLog)
}
