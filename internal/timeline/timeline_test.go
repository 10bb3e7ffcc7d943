package timeline

import (
	"testing"
	"time"

	"talentlink-inbox/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(id, convID int64, at time.Time) domain.Message {
	return domain.Message{
		ID:             id,
		ConversationID: convID,
		SenderID:       1,
		Text:           "m",
		Type:           domain.MessageTypeText,
		Timestamp:      at,
	}
}

var base = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

func TestReplaceOrdersOldestFirst(t *testing.T) {
	tl := New()
	tl.Replace(1, []domain.Message{
		msg(3, 1, base.Add(2*time.Minute)),
		msg(1, 1, base),
		msg(2, 1, base.Add(time.Minute)),
	})

	got := tl.Messages()
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
	assert.Equal(t, int64(3), got[2].ID)
}

func TestReplaceDiscardsPriorConversation(t *testing.T) {
	tl := New()
	tl.Replace(1, []domain.Message{msg(1, 1, base)})
	tl.Replace(2, []domain.Message{msg(9, 2, base)})

	assert.Equal(t, int64(2), tl.ConversationID())
	got := tl.Messages()
	require.Len(t, got, 1)
	assert.Equal(t, int64(9), got[0].ID)
}

func TestMergeDeduplicatesByID(t *testing.T) {
	tl := New()
	tl.Replace(1, []domain.Message{msg(1, 1, base), msg(2, 1, base.Add(time.Minute))})

	// Echo of an already loaded message must not duplicate.
	assert.False(t, tl.Merge(msg(2, 1, base.Add(time.Minute))))
	assert.Equal(t, 2, tl.Len())

	assert.True(t, tl.Merge(msg(3, 1, base.Add(2*time.Minute))))
	assert.Equal(t, 3, tl.Len())
}

func TestMergeRejectsOtherConversations(t *testing.T) {
	tl := New()
	tl.Replace(1, []domain.Message{msg(1, 1, base)})

	assert.False(t, tl.Merge(msg(5, 2, base.Add(time.Minute))))
	assert.Equal(t, 1, tl.Len())
}

func TestMergeKeepsChronologicalOrder(t *testing.T) {
	tl := New()
	tl.Replace(1, []domain.Message{msg(1, 1, base), msg(3, 1, base.Add(2*time.Minute))})

	// A push that arrives late slots in by timestamp.
	require.True(t, tl.Merge(msg(2, 1, base.Add(time.Minute))))
	got := tl.Messages()
	assert.Equal(t, []int64{1, 2, 3}, []int64{got[0].ID, got[1].ID, got[2].ID})

	byID, ok := tl.Get(3)
	require.True(t, ok)
	assert.Equal(t, int64(3), byID.ID)
}

func TestApplyEdit(t *testing.T) {
	tl := New()
	tl.Replace(1, []domain.Message{msg(7, 1, base)})

	updated := msg(7, 1, base)
	updated.Text = "Hi there"
	updated.IsEdited = true
	require.True(t, tl.ApplyEdit(updated))

	got, ok := tl.Get(7)
	require.True(t, ok)
	assert.Equal(t, "Hi there", got.Text)
	assert.True(t, got.IsEdited)

	assert.False(t, tl.ApplyEdit(msg(99, 1, base)))
}

func TestRemove(t *testing.T) {
	tl := New()
	tl.Replace(1, []domain.Message{msg(1, 1, base), msg(2, 1, base.Add(time.Minute)), msg(3, 1, base.Add(2*time.Minute))})

	require.True(t, tl.Remove(2))
	assert.Equal(t, 2, tl.Len())
	_, ok := tl.Get(2)
	assert.False(t, ok)

	// Index stays consistent after compaction.
	got, ok := tl.Get(3)
	require.True(t, ok)
	assert.Equal(t, int64(3), got.ID)

	assert.False(t, tl.Remove(2))
}

func TestApplyReactionSummaryIsolatesCaller(t *testing.T) {
	tl := New()
	tl.Replace(1, []domain.Message{msg(1, 1, base)})

	summary := domain.ReactionSummary{
		domain.ReactionLike: {Emoji: "👍", Count: 1, Users: []int64{42}},
	}
	require.True(t, tl.ApplyReactionSummary(1, summary))

	// Mutating the caller's copy must not leak into the timeline.
	summary[domain.ReactionLike] = domain.ReactionGroup{Emoji: "👍", Count: 2, Users: []int64{42, 43}}
	got, _ := tl.Get(1)
	assert.Equal(t, 1, got.Reactions[domain.ReactionLike].Count)

	assert.True(t, tl.HasReacted(1, 42, domain.ReactionLike))
	assert.False(t, tl.HasReacted(1, 43, domain.ReactionLike))
	assert.False(t, tl.HasReacted(1, 42, domain.ReactionLove))
}
