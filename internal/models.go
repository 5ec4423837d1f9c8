package internal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	// DefaultTitle is used until the first message is appended
	DefaultTitle = "New Chat"
	// TitleMaxLength is the number of characters kept from the first message
	TitleMaxLength = 40
	titleEllipsis  = "..."
)

// Valid reports whether r is one of the supported roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message represents a single turn in a conversation
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Conversation represents a named, ordered thread of messages
type Conversation struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Messages  []Message `json:"messages" yaml:"messages"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// NewID returns a fresh identifier for a conversation or message
func NewID() string {
	return uuid.NewString()
}

// NewMessage creates a message stamped with a new id and the current time
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// DeriveTitle builds a conversation title from the content of its first message
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= TitleMaxLength {
		return content
	}
	return string(runes[:TitleMaxLength]) + titleEllipsis
}

// Clone returns a deep copy of the conversation
func (c Conversation) Clone() Conversation {
	out := c
	if c.Messages != nil {
		out.Messages = make([]Message, len(c.Messages))
		copy(out.Messages, c.Messages)
	}
	return out
}

// LastMessage returns the most recent message, if any
func (c *Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// String returns a short human readable description
func (c Conversation) String() string {
	return fmt.Sprintf("%s (%d messages)", c.Title, len(c.Messages))
}
