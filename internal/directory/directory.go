package directory

import (
	"context"
	"sync"

	"talentlink-inbox/internal/domain"
	"talentlink-inbox/pkg/logger"
)

// API is the slice of the backend the directory consumes.
type API interface {
	ListConversations(ctx context.Context) ([]domain.Conversation, error)
	SearchConversations(ctx context.Context, query string) ([]domain.Conversation, error)
}

// Directory holds the user's conversation list and answers search and
// filter queries over it. Ordering is whatever the server returned,
// most-recent-activity first in practice.
type Directory struct {
	api API
	log *logger.Logger

	mu            sync.RWMutex
	conversations []domain.Conversation
}

func New(api API, log *logger.Logger) *Directory {
	return &Directory{api: api, log: log}
}

// Load refreshes the full list from the server.
func (d *Directory) Load(ctx context.Context) ([]domain.Conversation, error) {
	conversations, err := d.api.ListConversations(ctx)
	if err != nil {
		d.log.Warnf("directory load: %v", err)
		return nil, err
	}
	d.mu.Lock()
	d.conversations = conversations
	d.mu.Unlock()
	return d.Conversations(), nil
}

// Conversations returns a copy of the current list.
func (d *Directory) Conversations() []domain.Conversation {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.Conversation, len(d.conversations))
	copy(out, d.conversations)
	return out
}

// Search hits the server-side search path while query is non-empty; an
// empty query reverts to the cached full list. Ranking is the
// backend's.
func (d *Directory) Search(ctx context.Context, query string) ([]domain.Conversation, error) {
	if query == "" {
		return d.Conversations(), nil
	}
	results, err := d.api.SearchConversations(ctx, query)
	if err != nil {
		d.log.Warnf("directory search %q: %v", query, err)
		return nil, err
	}
	return results, nil
}

// First returns the id of the first listed conversation, if any.
func (d *Directory) First() (int64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.conversations) == 0 {
		return 0, false
	}
	return d.conversations[0].ID, true
}

// MarkRead zeroes the unread badge after an explicit mark-read call
// succeeded. Unread counts are never decremented any other way.
func (d *Directory) MarkRead(conversationID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.conversations {
		if d.conversations[i].ID == conversationID {
			d.conversations[i].UnreadCount = 0
			return
		}
	}
}

// BumpLastMessage refreshes a conversation's preview snapshot from a
// newly arrived message.
func (d *Directory) BumpLastMessage(msg domain.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.conversations {
		if d.conversations[i].ID == msg.ConversationID {
			d.conversations[i].LastMessage = &domain.LastMessage{
				Text:      msg.Text,
				Type:      msg.Type,
				Timestamp: msg.Timestamp,
			}
			d.conversations[i].UpdatedAt = msg.Timestamp
			return
		}
	}
}

// FilterByCategory applies the category predicates as-is: "read"
// passes everything, "unread" keeps unread_count > 0, "primary" keeps
// non-archived threads.
func FilterByCategory(conversations []domain.Conversation, category domain.ConversationCategory) []domain.Conversation {
	switch category {
	case domain.CategoryUnread:
		out := make([]domain.Conversation, 0, len(conversations))
		for _, c := range conversations {
			if c.UnreadCount > 0 {
				out = append(out, c)
			}
		}
		return out
	case domain.CategoryPrimary:
		out := make([]domain.Conversation, 0, len(conversations))
		for _, c := range conversations {
			if !c.IsArchived {
				out = append(out, c)
			}
		}
		return out
	default:
		return conversations
	}
}

// DisplayName resolves the counterparty's name for a conversation:
// other_participant full name, then its username, then the full name of
// whichever raw participant isn't the current user, then that
// participant's username, else "Unknown User".
func DisplayName(conversation domain.Conversation, currentUserID int64) string {
	if other := conversation.OtherParticipant; other != nil {
		if other.FullName != "" {
			return other.FullName
		}
		if other.Username != "" {
			return other.Username
		}
	}
	other := conversation.Other(currentUserID)
	if other.FullName != "" {
		return other.FullName
	}
	if other.Username != "" {
		return other.Username
	}
	return "Unknown User"
}
