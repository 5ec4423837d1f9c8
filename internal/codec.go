package internal

import (
	"encoding/json"
	"fmt"
)

// EncodeConversations serializes the whole collection as one JSON document
func EncodeConversations(convs []Conversation) (string, error) {
	if convs == nil {
		convs = []Conversation{}
	}
	data, err := json.Marshal(convs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal conversations: %w", err)
	}
	return string(data), nil
}

// DecodeConversations parses a document produced by EncodeConversations.
// Timestamps are reconstructed from their RFC 3339 form.
func DecodeConversations(key, value string) ([]Conversation, error) {
	var convs []Conversation
	if err := json.Unmarshal([]byte(value), &convs); err != nil {
		return nil, &ParseError{Source: "conversations", Key: key, Err: err}
	}

	seen := make(map[string]bool, len(convs))
	for i := range convs {
		conv := &convs[i]
		if conv.ID == "" {
			return nil, &ParseError{Source: "conversations", Key: key, Err: fmt.Errorf("conversation %d has no id", i)}
		}
		if seen[conv.ID] {
			return nil, &ParseError{Source: "conversations", Key: key, Err: fmt.Errorf("duplicate conversation id %s", conv.ID)}
		}
		seen[conv.ID] = true

		for j, msg := range conv.Messages {
			if !msg.Role.Valid() {
				return nil, &ParseError{
					Source: "conversations",
					Key:    key,
					Err:    fmt.Errorf("conversation %s message %d has unknown role %q", conv.ID, j, msg.Role),
				}
			}
		}
		if conv.Messages == nil {
			conv.Messages = []Message{}
		}
	}

	return convs, nil
}
