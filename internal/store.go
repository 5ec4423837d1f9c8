package internal

import (
	"context"
	"sync"
	"time"
)

// StorageKey is the key the conversation collection is persisted under
const StorageKey = "@conversations"

// Store owns the conversation collection, the current selection and its
// persistence. It is safe for concurrent use.
//
// Mutations take effect in memory immediately; the whole collection is then
// handed to a background writer. Persistence starts once Load has completed so
// that an early write cannot clobber the stored collection before it is read.
type Store struct {
	mu            sync.RWMutex
	conversations []Conversation
	currentID     string
	ready         bool
	dirty         bool

	kv           KeyValueStore
	key          string
	writeTimeout time.Duration
	writer       *SnapshotWriter
	now          func() time.Time
	newID        func() string
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithStorageKey overrides the key the collection is stored under
func WithStorageKey(key string) StoreOption {
	return func(s *Store) { s.key = key }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides conversation id generation
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *Store) { s.newID = newID }
}

// WithWriteTimeout bounds each backend write
func WithWriteTimeout(timeout time.Duration) StoreOption {
	return func(s *Store) { s.writeTimeout = timeout }
}

// NewStore creates an empty store persisting to kv. A nil kv keeps everything
// in memory for the lifetime of the process.
func NewStore(kv KeyValueStore, opts ...StoreOption) *Store {
	if kv == nil {
		kv = NewMemoryKV()
	}
	s := &Store{
		conversations: []Conversation{},
		kv:            kv,
		key:           StorageKey,
		now:           time.Now,
		newID:         NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.writer = NewSnapshotWriter(s.kv, s.key, s.writeTimeout)
	return s
}

// Load hydrates the store from the backend. Read and decode failures are
// logged and reported on Errors; the store becomes ready in every case.
func (s *Store) Load(ctx context.Context) {
	loaded := s.read(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		LogDebug("Conversations already loaded, ignoring reload")
		return
	}

	added := 0
	if len(loaded) > 0 {
		seen := make(map[string]bool, len(s.conversations))
		for _, conv := range s.conversations {
			seen[conv.ID] = true
		}
		for _, conv := range loaded {
			if seen[conv.ID] {
				LogWarn("Skipping stored conversation %s, id already in use", conv.ID)
				continue
			}
			s.conversations = append(s.conversations, conv)
			added++
		}
	}

	if len(s.conversations) > 0 && s.currentID == "" {
		s.currentID = s.conversations[0].ID
	}

	s.ready = true
	LogInfo("Loaded %d conversation(s)", added)

	if s.dirty {
		s.persistLocked()
	}
}

func (s *Store) read(ctx context.Context) []Conversation {
	value, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		LogError("Error loading conversations: %v", err)
		s.writer.report(err)
		return nil
	}
	if !found || value == "" {
		LogDebug("No stored conversations under %s", s.key)
		return nil
	}

	convs, err := DecodeConversations(s.key, value)
	if err != nil {
		LogError("Error loading conversations: %v", err)
		s.writer.report(err)
		return nil
	}
	return convs
}

// Ready reports whether the initial load has completed
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// IsLoading reports whether the initial load is still outstanding
func (s *Store) IsLoading() bool {
	return !s.Ready()
}

// CreateConversation inserts an empty conversation at the front, selects it
// and returns its id. The conversation is usable as soon as this returns.
func (s *Store) CreateConversation() string {
	now := s.now()
	conv := Conversation{
		ID:        s.newID(),
		Title:     DefaultTitle,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = append([]Conversation{conv}, s.conversations...)
	s.currentID = conv.ID
	s.persistLocked()

	LogDebug("Created conversation %s", conv.ID)
	return conv.ID
}

// AppendMessage appends msg to the conversation with the given id. The title
// is derived from the first message only. It returns false, changing nothing,
// when no conversation has that id or the message role is not user or assistant.
func (s *Store) AppendMessage(conversationID string, msg Message) bool {
	if !msg.Role.Valid() {
		LogWarn("Ignoring message with unknown role %q for conversation %s", msg.Role, conversationID)
		return false
	}
	if msg.ID == "" {
		msg.ID = NewID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(conversationID)
	if idx < 0 {
		LogDebug("Ignoring message for unknown conversation %s", conversationID)
		return false
	}

	conv := s.conversations[idx].Clone()
	if len(conv.Messages) == 0 {
		conv.Title = DeriveTitle(msg.Content)
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = s.now()
	s.conversations[idx] = conv

	s.persistLocked()
	return true
}

// DeleteConversation removes the conversation with the given id. Deleting the
// current conversation selects the new front conversation, or nothing.
func (s *Store) DeleteConversation(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(conversationID)
	if idx < 0 {
		return false
	}

	s.conversations = append(s.conversations[:idx:idx], s.conversations[idx+1:]...)
	if s.currentID == conversationID {
		s.currentID = ""
		if len(s.conversations) > 0 {
			s.currentID = s.conversations[0].ID
		}
	}

	s.persistLocked()
	LogDebug("Deleted conversation %s", conversationID)
	return true
}

// CurrentConversation returns the selected conversation
func (s *Store) CurrentConversation() (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentID == "" {
		return Conversation{}, false
	}
	idx := s.indexLocked(s.currentID)
	if idx < 0 {
		return Conversation{}, false
	}
	return s.conversations[idx].Clone(), true
}

// CurrentConversationID returns the selected id, or "" when nothing is selected
func (s *Store) CurrentConversationID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentID
}

// SetCurrentConversationID selects a conversation. An empty id clears the
// selection; an unknown id returns ErrConversationNotFound.
func (s *Store) SetCurrentConversationID(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conversationID != "" && s.indexLocked(conversationID) < 0 {
		return ErrConversationNotFound
	}
	s.currentID = conversationID
	return nil
}

// Conversation returns a copy of the conversation with the given id
func (s *Store) Conversation(conversationID string) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(conversationID)
	if idx < 0 {
		return Conversation{}, false
	}
	return s.conversations[idx].Clone(), true
}

// Conversations returns a copy of the collection, most recently created first
func (s *Store) Conversations() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Conversation, len(s.conversations))
	for i, conv := range s.conversations {
		out[i] = conv.Clone()
	}
	return out
}

// Len returns the number of conversations
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// Flush waits until every change made so far has been handed to the backend
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

// Errors delivers persistence failures
func (s *Store) Errors() <-chan error {
	return s.writer.Errors()
}

// Close writes pending changes and stops the background writer
func (s *Store) Close() {
	s.mu.RLock()
	unsaved := s.dirty && !s.ready
	s.mu.RUnlock()
	if unsaved {
		LogWarn("Closing before conversations were loaded, unsaved changes are discarded")
	}
	s.writer.Close()
}

func (s *Store) indexLocked(conversationID string) int {
	for i := range s.conversations {
		if s.conversations[i].ID == conversationID {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked() {
	if !s.ready {
		s.dirty = true
		return
	}
	s.dirty = false

	value, err := EncodeConversations(s.conversations)
	if err != nil {
		LogError("Error saving conversations: %v", err)
		s.writer.report(err)
		return
	}
	s.writer.Schedule(value)
}
