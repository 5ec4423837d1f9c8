package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/iksnae/acni-chat/internal"
)

const (
	// MaxInputLength caps user-typed input, in characters
	MaxInputLength = 2000

	// EmptyResponseText replaces a response that carried no text
	EmptyResponseText = "I apologize, but I couldn't generate a response."
	// FailureText replaces a response when the API call fails
	FailureText = "Sorry, I encountered an error. Please try again."
)

var (
	// ErrEmptyInput is returned when the input is blank after trimming
	ErrEmptyInput = errors.New("message is empty")
	// ErrBusy is returned while a previous message is still being answered
	ErrBusy = errors.New("still waiting for the previous response")
)

// Chat drives a conversation between the user and a Generator, recording
// both sides in a Store
type Chat struct {
	store   *internal.Store
	gen     Generator
	model   string
	timeout time.Duration

	mu   sync.Mutex
	busy bool
}

// Option configures a Chat
type Option func(*Chat)

// WithTimeout bounds each generation call. Zero means no limit.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Chat) { c.timeout = timeout }
}

// NewChat creates a chat flow over store using gen with the given model
func NewChat(store *internal.Store, gen Generator, model string, opts ...Option) *Chat {
	c := &Chat{store: store, gen: gen, model: model}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the underlying conversation store
func (c *Chat) Store() *internal.Store {
	return c.store
}

// Busy reports whether a response is being generated
func (c *Chat) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// EnsureConversation creates and selects a conversation when nothing is
// selected and the collection is empty. It returns the current id.
func (c *Chat) EnsureConversation() string {
	if id := c.store.CurrentConversationID(); id != "" || c.store.Len() > 0 {
		return id
	}
	return c.store.CreateConversation()
}

// NewChat starts a new conversation and selects it
func (c *Chat) NewChat() string {
	return c.store.CreateConversation()
}

// Select makes the conversation with id current
func (c *Chat) Select(id string) error {
	return c.store.SetCurrentConversationID(id)
}

// Delete removes the conversation with id
func (c *Chat) Delete(id string) error {
	if !c.store.DeleteConversation(id) {
		return internal.ErrConversationNotFound
	}
	return nil
}

// Send records input as a user message in the current conversation, creating
// one when nothing is selected, and appends the assistant's reply. Generation
// failures are not returned; they become a fixed apology message.
func (c *Chat) Send(ctx context.Context, input string) (internal.Message, error) {
	text := truncate(strings.TrimSpace(input), MaxInputLength)
	if text == "" {
		return internal.Message{}, ErrEmptyInput
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return internal.Message{}, ErrBusy
	}
	c.busy = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	conversationID := c.store.CurrentConversationID()
	if conversationID == "" {
		conversationID = c.store.CreateConversation()
	}

	c.store.AppendMessage(conversationID, internal.NewMessage(internal.RoleUser, text))

	reply := internal.NewMessage(internal.RoleAssistant, c.generate(ctx, text))
	c.store.AppendMessage(conversationID, reply)
	return reply, nil
}

func (c *Chat) generate(ctx context.Context, prompt string) string {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err := c.gen.Generate(ctx, c.model, prompt)
	if err != nil {
		internal.LogError("Error generating response: %v", err)
		return FailureText
	}
	if text == "" {
		return EmptyResponseText
	}
	return text
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
