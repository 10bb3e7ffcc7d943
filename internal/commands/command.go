package commands

import "context"

type Kind string

const (
	KindSendMessage    Kind = "SendMessage"
	KindEditMessage    Kind = "EditMessage"
	KindDeleteMessage  Kind = "DeleteMessage"
	KindToggleReaction Kind = "ToggleReaction"
)

// Key identifies the slot a command occupies while in flight. Two
// commands with the same key race; the later one wins.
type Key struct {
	Kind     Kind
	TargetID int64
}

type Command interface {
	CommandType() Kind
	Key() Key
	Validate() error
	Execute(ctx context.Context) error
}
