package commands

import (
	"context"
	"errors"
	"strings"

	"talentlink-inbox/internal/domain"
	"talentlink-inbox/internal/transport/httpdto"

	"github.com/google/uuid"
)

// SendMessageCommand delivers a drafted message to one conversation.
type SendMessageCommand struct {
	ID             uuid.UUID
	ConversationID int64
	Request        httpdto.SendMessageRequest
	Do             func(ctx context.Context, conversationID int64, req httpdto.SendMessageRequest) (domain.Message, error)
	Apply          func(msg domain.Message)
}

func NewSendMessageCommand(conversationID int64, req httpdto.SendMessageRequest,
	do func(ctx context.Context, conversationID int64, req httpdto.SendMessageRequest) (domain.Message, error),
	apply func(msg domain.Message)) *SendMessageCommand {
	return &SendMessageCommand{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Request:        req,
		Do:             do,
		Apply:          apply,
	}
}

func (c *SendMessageCommand) CommandType() Kind { return KindSendMessage }

func (c *SendMessageCommand) Key() Key {
	return Key{Kind: KindSendMessage, TargetID: c.ConversationID}
}

func (c *SendMessageCommand) Validate() error {
	if c.ConversationID <= 0 {
		return errors.New("conversation_id is required")
	}
	if strings.TrimSpace(c.Request.Text) == "" && c.Request.AttachmentData == "" {
		return errors.New("message needs text or an attachment")
	}
	return nil
}

func (c *SendMessageCommand) Execute(ctx context.Context) error {
	msg, err := c.Do(ctx, c.ConversationID, c.Request)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.Apply(msg)
	return nil
}

// EditMessageCommand replaces a message's text in place.
type EditMessageCommand struct {
	ID        uuid.UUID
	MessageID int64
	Text      string
	Do        func(ctx context.Context, messageID int64, text string) (domain.Message, error)
	Apply     func(msg domain.Message)
}

func NewEditMessageCommand(messageID int64, text string,
	do func(ctx context.Context, messageID int64, text string) (domain.Message, error),
	apply func(msg domain.Message)) *EditMessageCommand {
	return &EditMessageCommand{
		ID:        uuid.New(),
		MessageID: messageID,
		Text:      text,
		Do:        do,
		Apply:     apply,
	}
}

func (c *EditMessageCommand) CommandType() Kind { return KindEditMessage }

func (c *EditMessageCommand) Key() Key {
	return Key{Kind: KindEditMessage, TargetID: c.MessageID}
}

func (c *EditMessageCommand) Validate() error {
	if c.MessageID <= 0 {
		return errors.New("message_id is required")
	}
	if strings.TrimSpace(c.Text) == "" {
		return errors.New("text cannot be empty")
	}
	return nil
}

func (c *EditMessageCommand) Execute(ctx context.Context) error {
	msg, err := c.Do(ctx, c.MessageID, c.Text)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.Apply(msg)
	return nil
}

// DeleteMessageCommand soft-deletes one of the user's own messages.
type DeleteMessageCommand struct {
	ID        uuid.UUID
	MessageID int64
	Do        func(ctx context.Context, messageID int64) error
	Apply     func()
}

func NewDeleteMessageCommand(messageID int64,
	do func(ctx context.Context, messageID int64) error,
	apply func()) *DeleteMessageCommand {
	return &DeleteMessageCommand{
		ID:        uuid.New(),
		MessageID: messageID,
		Do:        do,
		Apply:     apply,
	}
}

func (c *DeleteMessageCommand) CommandType() Kind { return KindDeleteMessage }

func (c *DeleteMessageCommand) Key() Key {
	return Key{Kind: KindDeleteMessage, TargetID: c.MessageID}
}

func (c *DeleteMessageCommand) Validate() error {
	if c.MessageID <= 0 {
		return errors.New("message_id is required")
	}
	return nil
}

func (c *DeleteMessageCommand) Execute(ctx context.Context) error {
	if err := c.Do(ctx, c.MessageID); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.Apply()
	return nil
}

// ToggleReactionCommand adds or removes one reaction kind and
// reconciles the summary from whatever the server answered.
type ToggleReactionCommand struct {
	ID        uuid.UUID
	MessageID int64
	Reaction  domain.ReactionKind
	Do        func(ctx context.Context, messageID int64, kind domain.ReactionKind) (domain.ReactionSummary, error)
	Apply     func(summary domain.ReactionSummary)
}

func NewToggleReactionCommand(messageID int64, kind domain.ReactionKind,
	do func(ctx context.Context, messageID int64, kind domain.ReactionKind) (domain.ReactionSummary, error),
	apply func(summary domain.ReactionSummary)) *ToggleReactionCommand {
	return &ToggleReactionCommand{
		ID:        uuid.New(),
		MessageID: messageID,
		Reaction:  kind,
		Do:        do,
		Apply:     apply,
	}
}

func (c *ToggleReactionCommand) CommandType() Kind { return KindToggleReaction }

func (c *ToggleReactionCommand) Key() Key {
	return Key{Kind: KindToggleReaction, TargetID: c.MessageID}
}

func (c *ToggleReactionCommand) Validate() error {
	if c.MessageID <= 0 {
		return errors.New("message_id is required")
	}
	if !c.Reaction.Valid() {
		return errors.New("unknown reaction kind")
	}
	return nil
}

func (c *ToggleReactionCommand) Execute(ctx context.Context) error {
	summary, err := c.Do(ctx, c.MessageID, c.Reaction)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.Apply(summary)
	return nil
}
