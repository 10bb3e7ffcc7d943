package devserver

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"talentlink-inbox/internal/domain"
	"talentlink-inbox/internal/transport/httpdto"
	inbox_errors "talentlink-inbox/pkg/errors"

	"golang.org/x/crypto/bcrypt"
)

// User is a seeded dev account.
type User struct {
	ID           int64
	Username     string
	FullName     string
	PasswordHash []byte
}

type conversationRecord struct {
	id           int64
	participant1 int64
	participant2 int64
	isArchived   bool
	updatedAt    time.Time
	lastMessage  *domain.LastMessage
	messages     []domain.Message
	unread       map[int64]int // per participant
}

// Store is the dev server's in-memory state. Single process, mutex
// guarded; monotonic integer ids like the real backend's.
type Store struct {
	mu            sync.RWMutex
	users         map[int64]*User
	usersByName   map[string]*User
	conversations map[int64]*conversationRecord
	messageIndex  map[int64]int64 // message id -> conversation id
	attachments   map[int64][]byte
	nextUserID    int64
	nextConvID    int64
	nextMsgID     int64
}

func NewStore() *Store {
	return &Store{
		users:         make(map[int64]*User),
		usersByName:   make(map[string]*User),
		conversations: make(map[int64]*conversationRecord),
		messageIndex:  make(map[int64]int64),
		attachments:   make(map[int64][]byte),
	}
}

func (s *Store) CreateUser(username, fullName, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByName[username]; exists {
		return nil, fmt.Errorf("user %s: %w", username, inbox_errors.ErrConflict)
	}
	s.nextUserID++
	user := &User{ID: s.nextUserID, Username: username, FullName: fullName, PasswordHash: hash}
	s.users[user.ID] = user
	s.usersByName[username] = user
	return user, nil
}

func (s *Store) Authenticate(username, password string) (*User, error) {
	s.mu.RLock()
	user, ok := s.usersByName[username]
	s.mu.RUnlock()
	if !ok {
		return nil, inbox_errors.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, inbox_errors.ErrUnauthorized
	}
	return user, nil
}

func (s *Store) GetUser(id int64) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	return user, ok
}

// ListConversations materializes the per-user view, most recent
// activity first.
func (s *Store) ListConversations(userID int64) []domain.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Conversation
	for _, rec := range s.conversations {
		if rec.participant1 != userID && rec.participant2 != userID {
			continue
		}
		out = append(out, s.viewLocked(rec, userID))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// SearchConversations matches the counterparty's names and the last
// message preview, case-insensitively.
func (s *Store) SearchConversations(userID int64, query string) []domain.Conversation {
	needle := strings.ToLower(strings.TrimSpace(query))
	all := s.ListConversations(userID)
	if needle == "" {
		return all
	}
	var out []domain.Conversation
	for _, c := range all {
		other := c.Other(userID)
		haystack := strings.ToLower(other.FullName + " " + other.Username)
		if c.LastMessage != nil {
			haystack += " " + strings.ToLower(c.LastMessage.Text)
		}
		if strings.Contains(haystack, needle) {
			out = append(out, c)
		}
	}
	return out
}

// StartConversation returns the existing thread for the pair or
// creates a new one.
func (s *Store) StartConversation(userID, targetUserID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[targetUserID]; !ok {
		return 0, fmt.Errorf("user %d: %w", targetUserID, inbox_errors.ErrNotFound)
	}
	if targetUserID == userID {
		return 0, fmt.Errorf("cannot message yourself: %w", inbox_errors.ErrInvalidInput)
	}
	for _, rec := range s.conversations {
		if (rec.participant1 == userID && rec.participant2 == targetUserID) ||
			(rec.participant1 == targetUserID && rec.participant2 == userID) {
			return rec.id, nil
		}
	}
	s.nextConvID++
	rec := &conversationRecord{
		id:           s.nextConvID,
		participant1: userID,
		participant2: targetUserID,
		updatedAt:    time.Now().UTC(),
		unread:       map[int64]int{},
	}
	s.conversations[rec.id] = rec
	return rec.id, nil
}

func (s *Store) Messages(conversationID, userID int64) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, err := s.memberLocked(conversationID, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Message, len(rec.messages))
	copy(out, rec.messages)
	return out, nil
}

// AppendMessage validates and stores an outgoing message, bumping the
// counterparty's unread badge and the preview snapshot.
func (s *Store) AppendMessage(conversationID, senderID int64, req httpdto.SendMessageRequest) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.memberLocked(conversationID, senderID)
	if err != nil {
		return domain.Message{}, err
	}

	text := strings.TrimSpace(req.Text)
	if text == "" && req.AttachmentData == "" {
		return domain.Message{}, fmt.Errorf("message needs text or an attachment: %w", inbox_errors.ErrInvalidInput)
	}

	if req.ReplyToID != nil {
		if owner, ok := s.messageIndex[*req.ReplyToID]; !ok || owner != conversationID {
			return domain.Message{}, fmt.Errorf("reply_to %d is not in this conversation: %w",
				*req.ReplyToID, inbox_errors.ErrInvalidInput)
		}
	}

	s.nextMsgID++
	msg := domain.Message{
		ID:             s.nextMsgID,
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		Type:           domain.MessageTypeText,
		Timestamp:      time.Now().UTC(),
		Status:         domain.DeliveryStatusSent,
		ReplyToID:      req.ReplyToID,
	}
	if req.AttachmentData != "" {
		data, derr := base64.StdEncoding.DecodeString(req.AttachmentData)
		if derr != nil {
			return domain.Message{}, fmt.Errorf("attachment is not base64: %w", inbox_errors.ErrInvalidInput)
		}
		msgType := domain.MessageType(req.MessageType)
		if msgType != domain.MessageTypeImage && msgType != domain.MessageTypeFile {
			msgType = domain.MessageTypeFile
		}
		msg.Type = msgType
		msg.AttachmentFilename = req.AttachmentFilename
		msg.AttachmentURL = fmt.Sprintf("/attachments/%d/%s", msg.ID, req.AttachmentFilename)
		s.attachments[msg.ID] = data
	}
	if err := msg.Validate(); err != nil {
		return domain.Message{}, fmt.Errorf("%v: %w", err, inbox_errors.ErrInvalidInput)
	}

	rec.messages = append(rec.messages, msg)
	s.messageIndex[msg.ID] = conversationID
	rec.updatedAt = msg.Timestamp
	rec.lastMessage = &domain.LastMessage{Text: msg.Text, Type: msg.Type, Timestamp: msg.Timestamp}
	other := rec.participant1
	if other == senderID {
		other = rec.participant2
	}
	rec.unread[other]++
	return msg, nil
}

func (s *Store) EditMessage(messageID, userID int64, text string) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, i, err := s.locateLocked(messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if rec.messages[i].SenderID != userID {
		return domain.Message{}, inbox_errors.ErrForbidden
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.Message{}, fmt.Errorf("text cannot be empty: %w", inbox_errors.ErrInvalidInput)
	}
	rec.messages[i].Text = trimmed
	rec.messages[i].IsEdited = true
	return rec.messages[i], nil
}

func (s *Store) DeleteMessage(messageID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, i, err := s.locateLocked(messageID)
	if err != nil {
		return err
	}
	if rec.messages[i].SenderID != userID {
		return inbox_errors.ErrForbidden
	}
	rec.messages = append(rec.messages[:i], rec.messages[i+1:]...)
	delete(s.messageIndex, messageID)
	delete(s.attachments, messageID)
	return nil
}

// AddReaction is idempotent per (user, kind).
func (s *Store) AddReaction(messageID, userID int64, kind domain.ReactionKind) (domain.ReactionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, i, err := s.locateLocked(messageID)
	if err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown reaction kind %q: %w", kind, inbox_errors.ErrInvalidInput)
	}
	msg := &rec.messages[i]
	if msg.Reactions == nil {
		msg.Reactions = domain.ReactionSummary{}
	}
	if !msg.Reactions.HasReacted(userID, kind) {
		group := msg.Reactions[kind]
		group.Emoji = kind.Emoji()
		group.Users = append(group.Users, userID)
		group.Count = len(group.Users)
		msg.Reactions[kind] = group
	}
	return msg.Reactions.Clone(), nil
}

func (s *Store) RemoveReaction(messageID, userID int64, kind domain.ReactionKind) (domain.ReactionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, i, err := s.locateLocked(messageID)
	if err != nil {
		return nil, err
	}
	msg := &rec.messages[i]
	group, ok := msg.Reactions[kind]
	if ok {
		users := group.Users[:0]
		for _, id := range group.Users {
			if id != userID {
				users = append(users, id)
			}
		}
		if len(users) == 0 {
			delete(msg.Reactions, kind)
		} else {
			group.Users = users
			group.Count = len(users)
			msg.Reactions[kind] = group
		}
	}
	return msg.Reactions.Clone(), nil
}

// MarkRead zeroes the caller's unread badge and flips the
// counterparty's messages to read.
func (s *Store) MarkRead(conversationID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.memberLocked(conversationID, userID)
	if err != nil {
		return err
	}
	rec.unread[userID] = 0
	for i := range rec.messages {
		if rec.messages[i].SenderID != userID {
			rec.messages[i].Status = domain.DeliveryStatusRead
		}
	}
	return nil
}

// IsParticipant is used by the websocket handler before subscribing.
func (s *Store) IsParticipant(conversationID, userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := s.memberLocked(conversationID, userID)
	return err == nil
}

// Participants returns both user ids of a conversation.
func (s *Store) Participants(conversationID int64) (int64, int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.conversations[conversationID]
	if !ok {
		return 0, 0, false
	}
	return rec.participant1, rec.participant2, true
}

// Archive flags a thread; used by seeding to exercise the primary
// filter.
func (s *Store) Archive(conversationID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.conversations[conversationID]; ok {
		rec.isArchived = true
	}
}

func (s *Store) Attachment(messageID int64) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.attachments[messageID]
	return data, ok
}

func (s *Store) memberLocked(conversationID, userID int64) (*conversationRecord, error) {
	rec, ok := s.conversations[conversationID]
	if !ok {
		return nil, fmt.Errorf("conversation %d: %w", conversationID, inbox_errors.ErrNotFound)
	}
	if rec.participant1 != userID && rec.participant2 != userID {
		return nil, inbox_errors.ErrForbidden
	}
	return rec, nil
}

func (s *Store) locateLocked(messageID int64) (*conversationRecord, int, error) {
	conversationID, ok := s.messageIndex[messageID]
	if !ok {
		return nil, 0, fmt.Errorf("message %d: %w", messageID, inbox_errors.ErrNotFound)
	}
	rec := s.conversations[conversationID]
	for i := range rec.messages {
		if rec.messages[i].ID == messageID {
			return rec, i, nil
		}
	}
	return nil, 0, fmt.Errorf("message %d: %w", messageID, inbox_errors.ErrNotFound)
}

func (s *Store) viewLocked(rec *conversationRecord, userID int64) domain.Conversation {
	p1 := s.userRefLocked(rec.participant1)
	p2 := s.userRefLocked(rec.participant2)
	other := p2
	if rec.participant2 == userID {
		other = p1
	}
	return domain.Conversation{
		ID:               rec.id,
		Participant1:     p1,
		Participant2:     p2,
		OtherParticipant: &other,
		LastMessage:      rec.lastMessage,
		UnreadCount:      rec.unread[userID],
		IsArchived:       rec.isArchived,
		UpdatedAt:        rec.updatedAt,
	}
}

func (s *Store) userRefLocked(id int64) domain.UserRef {
	if user, ok := s.users[id]; ok {
		return domain.UserRef{ID: user.ID, Username: user.Username, FullName: user.FullName}
	}
	return domain.UserRef{ID: id}
}
