package internal

import (
	"time"
)

// CreateTestConversation creates a conversation with a short user/assistant exchange
func CreateTestConversation(id string) *Conversation {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return &Conversation{
		ID:    id,
		Title: "Hello, how are you?",
		Messages: []Message{
			{
				ID:        id + "-m1",
				Role:      RoleUser,
				Content:   "Hello, how are you?",
				Timestamp: created,
			},
			{
				ID:        id + "-m2",
				Role:      RoleAssistant,
				Content:   "I'm doing well, thank you!",
				Timestamp: created.Add(time.Second),
			},
		},
		CreatedAt: created,
		UpdatedAt: created.Add(time.Second),
	}
}

// CreateTestConversationWithMessages creates a conversation with custom messages
func CreateTestConversationWithMessages(id string, messages []Message) *Conversation {
	title := DefaultTitle
	if len(messages) > 0 {
		title = DeriveTitle(messages[0].Content)
	}
	return &Conversation{
		ID:       id,
		Title:    title,
		Messages: messages,
	}
}
