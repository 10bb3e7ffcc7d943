package domain

import "strings"

// PendingAttachment is a file picked for sending, held locally until
// the send call encodes it.
type PendingAttachment struct {
	Filename string
	MIMEType string
	Data     []byte
}

// MessageType derives the outgoing message kind from the MIME type.
func (a PendingAttachment) MessageType() MessageType {
	if strings.HasPrefix(a.MIMEType, "image/") {
		return MessageTypeImage
	}
	return MessageTypeFile
}

// Draft is the local, unsent composer state for the active
// conversation. It is never persisted and is discarded on conversation
// switch.
type Draft struct {
	Text       string
	Attachment *PendingAttachment
	ReplyToID  *int64
	Typing     bool
}

// CanSend reports whether the draft has anything worth sending.
func (d Draft) CanSend() bool {
	return strings.TrimSpace(d.Text) != "" || d.Attachment != nil
}

// Clear resets the draft after a successful send.
func (d *Draft) Clear() {
	d.Text = ""
	d.Attachment = nil
	d.ReplyToID = nil
	d.Typing = false
}
