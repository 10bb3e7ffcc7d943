package composer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"talentlink-inbox/internal/commands"
	"talentlink-inbox/internal/domain"
	"talentlink-inbox/internal/session"
	"talentlink-inbox/internal/timeline"
	"talentlink-inbox/internal/transport/httpdto"
	inbox_errors "talentlink-inbox/pkg/errors"
	"talentlink-inbox/pkg/logger"
)

// API is the mutating slice of the backend the composer consumes.
type API interface {
	SendMessage(ctx context.Context, conversationID int64, req httpdto.SendMessageRequest) (domain.Message, error)
	EditMessage(ctx context.Context, messageID int64, text string) (domain.Message, error)
	DeleteMessage(ctx context.Context, messageID int64) error
	AddReaction(ctx context.Context, messageID int64, kind domain.ReactionKind) (domain.ReactionSummary, error)
	RemoveReaction(ctx context.Context, messageID int64, kind domain.ReactionKind) (domain.ReactionSummary, error)
	SetTyping(ctx context.Context, conversationID int64, typing bool) error
}

// ConfirmFunc gates destructive actions. Delete never reaches the
// network unless it returns true.
type ConfirmFunc func(msg domain.Message) bool

// Composer owns the draft for one selected conversation and performs
// the mutating actions. The orchestrator builds a fresh composer per
// selection, which is what discards drafts across switches.
type Composer struct {
	api            API
	runner         *commands.Runner
	tl             *timeline.Timeline
	self           session.Identity
	conversationID int64
	confirm        ConfirmFunc
	log            *logger.Logger

	mu          sync.Mutex
	draft       domain.Draft
	sendPending bool
}

func New(api API, runner *commands.Runner, tl *timeline.Timeline, self session.Identity,
	conversationID int64, confirm ConfirmFunc, log *logger.Logger) *Composer {
	return &Composer{
		api:            api,
		runner:         runner,
		tl:             tl,
		self:           self,
		conversationID: conversationID,
		confirm:        confirm,
		log:            log,
	}
}

func (c *Composer) ConversationID() int64 { return c.conversationID }

// Draft returns a snapshot of the current draft.
func (c *Composer) Draft() domain.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetText updates the pending text and signals typing state changes to
// the backend, fire-and-forget.
func (c *Composer) SetText(ctx context.Context, text string) {
	c.mu.Lock()
	c.draft.Text = text
	wasTyping := c.draft.Typing
	c.draft.Typing = strings.TrimSpace(text) != ""
	nowTyping := c.draft.Typing
	c.mu.Unlock()

	if wasTyping != nowTyping {
		go func() {
			if err := c.api.SetTyping(ctx, c.conversationID, nowTyping); err != nil {
				c.log.Warnf("typing signal: %v", err)
			}
		}()
	}
}

func (c *Composer) Attach(filename, mimeType string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Attachment = &domain.PendingAttachment{
		Filename: filename,
		MIMEType: mimeType,
		Data:     data,
	}
}

func (c *Composer) RemoveAttachment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Attachment = nil
}

// ReplyTo captures a reply reference. The target must live in the
// current conversation's timeline.
func (c *Composer) ReplyTo(messageID int64) error {
	if _, ok := c.tl.Get(messageID); !ok {
		return fmt.Errorf("reply target %d: %w", messageID, inbox_errors.ErrNotFound)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.ReplyToID = &messageID
	return nil
}

func (c *Composer) ClearReply() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.ReplyToID = nil
}

// Send delivers the draft. It refuses an empty draft and refuses to
// run concurrently with itself, which is what keeps the user's own
// sends locally ordered. On success the draft is cleared and the new
// message appended to the timeline; on failure the draft is preserved
// exactly so nothing has to be retyped.
func (c *Composer) Send(ctx context.Context) (domain.Message, error) {
	c.mu.Lock()
	if c.sendPending {
		c.mu.Unlock()
		return domain.Message{}, inbox_errors.ErrSendPending
	}
	if !c.draft.CanSend() {
		c.mu.Unlock()
		return domain.Message{}, inbox_errors.ErrEmptyDraft
	}
	req := buildSendRequest(c.draft)
	c.sendPending = true
	c.mu.Unlock()

	var sent domain.Message
	cmd := commands.NewSendMessageCommand(c.conversationID, req, c.api.SendMessage,
		func(msg domain.Message) {
			sent = msg
			c.tl.Merge(msg)
		})
	err := <-c.runner.Submit(ctx, cmd)

	c.mu.Lock()
	c.sendPending = false
	if err == nil {
		c.draft.Clear()
	}
	c.mu.Unlock()

	if err != nil {
		return domain.Message{}, err
	}
	go func() {
		if terr := c.api.SetTyping(ctx, c.conversationID, false); terr != nil {
			c.log.Warnf("typing signal: %v", terr)
		}
	}()
	return sent, nil
}

// Edit replaces the text of one of the user's own messages. On failure
// the caller keeps its dialog open with the attempted text intact.
func (c *Composer) Edit(ctx context.Context, messageID int64, newText string) error {
	msg, ok := c.tl.Get(messageID)
	if !ok {
		return fmt.Errorf("message %d: %w", messageID, inbox_errors.ErrNotFound)
	}
	if !msg.IsOwn(c.self.UserID) {
		return inbox_errors.ErrNotMessageOwner
	}

	cmd := commands.NewEditMessageCommand(messageID, newText, c.api.EditMessage,
		func(updated domain.Message) {
			c.tl.ApplyEdit(updated)
		})
	return <-c.runner.Submit(ctx, cmd)
}

// Delete removes one of the user's own messages after explicit
// confirmation. There is no optimistic removal: the message leaves the
// timeline only once the server confirmed.
func (c *Composer) Delete(ctx context.Context, messageID int64) error {
	msg, ok := c.tl.Get(messageID)
	if !ok {
		return fmt.Errorf("message %d: %w", messageID, inbox_errors.ErrNotFound)
	}
	if !msg.IsOwn(c.self.UserID) {
		return inbox_errors.ErrNotMessageOwner
	}
	if c.confirm == nil || !c.confirm(msg) {
		return inbox_errors.ErrNotConfirmed
	}

	cmd := commands.NewDeleteMessageCommand(messageID, c.api.DeleteMessage,
		func() {
			c.tl.Remove(messageID)
		})
	return <-c.runner.Submit(ctx, cmd)
}

// ToggleReaction inspects the current summary to decide between add and
// remove, then reconciles the summary from the server's answer.
func (c *Composer) ToggleReaction(ctx context.Context, messageID int64, kind domain.ReactionKind) error {
	if _, ok := c.tl.Get(messageID); !ok {
		return fmt.Errorf("message %d: %w", messageID, inbox_errors.ErrNotFound)
	}

	do := c.api.AddReaction
	if c.tl.HasReacted(messageID, c.self.UserID, kind) {
		do = c.api.RemoveReaction
	}
	cmd := commands.NewToggleReactionCommand(messageID, kind, do,
		func(summary domain.ReactionSummary) {
			c.tl.ApplyReactionSummary(messageID, summary)
		})
	return <-c.runner.Submit(ctx, cmd)
}

func buildSendRequest(draft domain.Draft) httpdto.SendMessageRequest {
	req := httpdto.SendMessageRequest{
		Text:        strings.TrimSpace(draft.Text),
		MessageType: string(domain.MessageTypeText),
		ReplyToID:   draft.ReplyToID,
	}
	if draft.Attachment != nil {
		req.AttachmentData = base64.StdEncoding.EncodeToString(draft.Attachment.Data)
		req.AttachmentFilename = draft.Attachment.Filename
		req.MessageType = string(draft.Attachment.MessageType())
	}
	return req
}
