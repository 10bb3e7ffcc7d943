package timeline

import (
	"sort"
	"sync"

	"talentlink-inbox/internal/domain"
)

// Timeline is the ordered (oldest to newest) message set for exactly
// one conversation. Loads replace it wholesale; realtime pushes merge
// into it, deduplicated by id, so an echo of the user's own just-sent
// message never renders twice.
type Timeline struct {
	mu             sync.RWMutex
	conversationID int64
	messages       []domain.Message
	byID           map[int64]int
}

func New() *Timeline {
	return &Timeline{byID: make(map[int64]int)}
}

// Replace installs a freshly loaded history, discarding anything from a
// previously selected conversation.
func (t *Timeline) Replace(conversationID int64, messages []domain.Message) {
	sorted := make([]domain.Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	t.mu.Lock()
	defer t.mu.Unlock()
	t.conversationID = conversationID
	t.messages = sorted
	t.byID = make(map[int64]int, len(sorted))
	for i, msg := range sorted {
		t.byID[msg.ID] = i
	}
}

// Clear empties the timeline, used when selection moves before the next
// load resolves.
func (t *Timeline) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conversationID = 0
	t.messages = nil
	t.byID = make(map[int64]int)
}

func (t *Timeline) ConversationID() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conversationID
}

func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Messages returns a copy of the rendered order.
func (t *Timeline) Messages() []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Timeline) Get(messageID int64) (domain.Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.byID[messageID]
	if !ok {
		return domain.Message{}, false
	}
	return t.messages[i], true
}

// Merge appends a message unless it belongs to another conversation or
// its id is already present. Returns whether anything changed.
func (t *Timeline) Merge(msg domain.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if msg.ConversationID != t.conversationID {
		return false
	}
	if _, dup := t.byID[msg.ID]; dup {
		return false
	}
	t.messages = append(t.messages, msg)
	t.byID[msg.ID] = len(t.messages) - 1

	// Keep chronological order when a push arrives late.
	for i := len(t.messages) - 1; i > 0; i-- {
		if !t.messages[i].Timestamp.Before(t.messages[i-1].Timestamp) {
			break
		}
		t.messages[i], t.messages[i-1] = t.messages[i-1], t.messages[i]
		t.byID[t.messages[i].ID] = i
		t.byID[t.messages[i-1].ID] = i - 1
	}
	return true
}

// ApplyEdit replaces a message in place with its server-confirmed
// edited form.
func (t *Timeline) ApplyEdit(updated domain.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.byID[updated.ID]
	if !ok {
		return false
	}
	t.messages[i].Text = updated.Text
	t.messages[i].IsEdited = updated.IsEdited
	return true
}

// Remove drops a deleted message. No-op when the id is unknown.
func (t *Timeline) Remove(messageID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.byID[messageID]
	if !ok {
		return false
	}
	t.messages = append(t.messages[:i], t.messages[i+1:]...)
	delete(t.byID, messageID)
	for j := i; j < len(t.messages); j++ {
		t.byID[t.messages[j].ID] = j
	}
	return true
}

// ApplyReactionSummary reconciles a message's reactions from the server
// response. Reactions are never assumed optimistically; another user
// may have reacted concurrently.
func (t *Timeline) ApplyReactionSummary(messageID int64, summary domain.ReactionSummary) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.byID[messageID]
	if !ok {
		return false
	}
	t.messages[i].Reactions = summary.Clone()
	return true
}

// HasReacted inspects the current summary to decide whether a toggle
// should add or remove; see Composer.ToggleReaction.
func (t *Timeline) HasReacted(messageID, userID int64, kind domain.ReactionKind) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.byID[messageID]
	if !ok {
		return false
	}
	return t.messages[i].Reactions.HasReacted(userID, kind)
}
