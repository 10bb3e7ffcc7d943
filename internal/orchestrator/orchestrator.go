package orchestrator

import (
	"context"
	"sync"

	"talentlink-inbox/internal/composer"
	"talentlink-inbox/internal/directory"
	"talentlink-inbox/internal/domain"
	"talentlink-inbox/internal/realtime"
	"talentlink-inbox/internal/session"
	"talentlink-inbox/internal/timeline"
	"talentlink-inbox/pkg/logger"
)

// API is the loading slice of the backend the orchestrator consumes.
type API interface {
	GetMessages(ctx context.Context, conversationID int64) ([]domain.Message, error)
	MarkConversationRead(ctx context.Context, conversationID int64) error
	StartConversation(ctx context.Context, targetUserID int64) (int64, error)
}

// Subscription is a live per-conversation push stream; the realtime
// package provides the websocket implementation, tests use fakes.
type Subscription interface {
	Events() <-chan realtime.Event
	Status() <-chan realtime.Status
	Close()
}

type SubscribeFunc func(ctx context.Context, conversationID int64) Subscription

// NavigateFunc publishes the selected conversation id outward, e.g. to
// a route or URL, so deep links stay consistent.
type NavigateFunc func(conversationID int64)

// ComposerFactory builds the composer bound to a newly selected
// conversation. A fresh composer per selection is what discards drafts.
type ComposerFactory func(conversationID int64) *composer.Composer

type Phase int

const (
	PhaseNone Phase = iota
	PhaseLoading
	PhaseReady
	PhaseError
)

type State struct {
	Phase          Phase
	ConversationID int64
	Cause          error
}

// Orchestrator is the single source of truth for which conversation is
// selected. It wires the directory, timeline, realtime channel and
// composer, and guards against stale load responses.
type Orchestrator struct {
	api         API
	dir         *directory.Directory
	tl          *timeline.Timeline
	self        session.Identity
	subscribe   SubscribeFunc
	navigate    NavigateFunc
	newComposer ComposerFactory
	log         *logger.Logger

	// OnEvent, when set, observes every applied realtime event. The
	// CLI uses it to repaint.
	OnEvent func(ev realtime.Event)

	mu       sync.Mutex
	state    State
	gen      uint64
	sub      Subscription
	comp     *composer.Composer
	typing   map[int64]bool
	presence map[int64]bool
	rtStatus realtime.Status
}

func New(api API, dir *directory.Directory, tl *timeline.Timeline, self session.Identity,
	subscribe SubscribeFunc, navigate NavigateFunc, newComposer ComposerFactory,
	log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		api:         api,
		dir:         dir,
		tl:          tl,
		self:        self,
		subscribe:   subscribe,
		navigate:    navigate,
		newComposer: newComposer,
		log:         log,
		state:       State{Phase: PhaseNone},
		typing:      make(map[int64]bool),
		presence:    make(map[int64]bool),
	}
}

// Init loads the directory and applies the initial selection policy: a
// deep-linked id wins, else the first listed conversation, else nothing
// stays selected.
func (o *Orchestrator) Init(ctx context.Context, deepLinkID int64) error {
	if _, err := o.dir.Load(ctx); err != nil {
		return err
	}
	if deepLinkID != 0 {
		return o.Select(ctx, deepLinkID)
	}
	if first, ok := o.dir.First(); ok {
		return o.Select(ctx, first)
	}
	return nil
}

// Select switches the active conversation: tears down the previous
// realtime subscription, clears the prior message set, loads history
// and, on success, opens the new subscription and marks the thread
// read. Selecting the already-Ready conversation is a no-op. A load
// that resolves after the selection moved on is discarded.
func (o *Orchestrator) Select(ctx context.Context, conversationID int64) error {
	o.mu.Lock()
	if o.state.Phase == PhaseReady && o.state.ConversationID == conversationID {
		o.mu.Unlock()
		return nil
	}
	o.gen++
	myGen := o.gen

	if o.sub != nil {
		o.sub.Close()
		o.sub = nil
	}
	o.comp = nil
	o.typing = make(map[int64]bool)
	o.presence = make(map[int64]bool)
	o.tl.Clear()
	o.state = State{Phase: PhaseLoading, ConversationID: conversationID}
	o.mu.Unlock()

	if o.navigate != nil {
		o.navigate(conversationID)
	}

	messages, err := o.api.GetMessages(ctx, conversationID)

	o.mu.Lock()
	if o.gen != myGen {
		// A later Select won; this response is stale.
		o.mu.Unlock()
		return nil
	}
	if err != nil {
		o.state = State{Phase: PhaseError, ConversationID: conversationID, Cause: err}
		o.mu.Unlock()
		return err
	}

	o.tl.Replace(conversationID, messages)
	o.state = State{Phase: PhaseReady, ConversationID: conversationID}
	o.comp = o.newComposer(conversationID)
	if o.subscribe != nil {
		sub := o.subscribe(ctx, conversationID)
		o.sub = sub
		go o.pump(myGen, sub)
	}
	o.mu.Unlock()

	o.markRead(ctx, conversationID)
	return nil
}

// Retry reloads after a failed load. No-op unless in Error state.
func (o *Orchestrator) Retry(ctx context.Context) error {
	o.mu.Lock()
	if o.state.Phase != PhaseError {
		o.mu.Unlock()
		return nil
	}
	conversationID := o.state.ConversationID
	o.mu.Unlock()
	return o.Select(ctx, conversationID)
}

// StartWith creates (or reuses) the thread with targetUserID and
// navigates into it. This is the entry point for "Message" actions
// elsewhere in the app, e.g. a candidate-review screen.
func (o *Orchestrator) StartWith(ctx context.Context, targetUserID int64) (int64, error) {
	conversationID, err := o.api.StartConversation(ctx, targetUserID)
	if err != nil {
		return 0, err
	}
	if _, lerr := o.dir.Load(ctx); lerr != nil {
		o.log.Warnf("directory refresh after start-conversation: %v", lerr)
	}
	return conversationID, o.Select(ctx, conversationID)
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Selected returns the current conversation id, false when nothing is
// selected.
func (o *Orchestrator) Selected() (int64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Phase == PhaseNone {
		return 0, false
	}
	return o.state.ConversationID, true
}

// Composer returns the composer for the Ready conversation, nil while
// loading or unselected.
func (o *Orchestrator) Composer() *composer.Composer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.comp
}

func (o *Orchestrator) Timeline() *timeline.Timeline { return o.tl }

func (o *Orchestrator) Directory() *directory.Directory { return o.dir }

// RealtimeStatus reports the push channel's health; Degraded means the
// inbox keeps working over REST only.
func (o *Orchestrator) RealtimeStatus() realtime.Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rtStatus
}

// TypingUsers lists counterparties currently typing in the selected
// conversation.
func (o *Orchestrator) TypingUsers() []int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []int64
	for userID, typing := range o.typing {
		if typing && userID != o.self.UserID {
			out = append(out, userID)
		}
	}
	return out
}

func (o *Orchestrator) IsOnline(userID int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.presence[userID]
}

// Close tears down the active subscription, if any.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sub != nil {
		o.sub.Close()
		o.sub = nil
	}
}

func (o *Orchestrator) pump(gen uint64, sub Subscription) {
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			o.handleEvent(gen, ev)
		case status := <-sub.Status():
			o.setRealtimeStatus(gen, status)
		}
	}
}

func (o *Orchestrator) handleEvent(gen uint64, ev realtime.Event) {
	o.mu.Lock()
	if o.gen != gen {
		o.mu.Unlock()
		return
	}
	switch ev.Type {
	case realtime.EventTypeMessageCreated:
		if ev.Message != nil && o.tl.Merge(*ev.Message) {
			o.dir.BumpLastMessage(*ev.Message)
		}
	case realtime.EventTypeTypingChanged:
		if ev.Typing != nil {
			o.typing[ev.Typing.UserID] = ev.Typing.Typing
		}
	case realtime.EventTypePresenceChanged:
		if ev.Presence != nil {
			o.presence[ev.Presence.UserID] = ev.Presence.Online
		}
	}
	observer := o.OnEvent
	o.mu.Unlock()

	if observer != nil {
		observer(ev)
	}
}

func (o *Orchestrator) setRealtimeStatus(gen uint64, status realtime.Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen != gen {
		return
	}
	o.rtStatus = status
}

// markRead is best-effort: the badge resets only after the server
// confirmed, and a failure never disturbs the Ready state.
func (o *Orchestrator) markRead(ctx context.Context, conversationID int64) {
	if err := o.api.MarkConversationRead(ctx, conversationID); err != nil {
		o.log.Warnf("mark read conversation %d: %v", conversationID, err)
		return
	}
	o.dir.MarkRead(conversationID)
}
