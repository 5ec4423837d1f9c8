package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/acni-chat/internal"
)

// jsonlLine is one message of a JSONL export
type jsonlLine struct {
	ConversationID string `json:"conversation_id"`
	ID             string `json:"id"`
	Role           string `json:"role"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// JSONLExporter exports conversations in JSONL format (one message per line)
type JSONLExporter struct{}

// Export exports a conversation to JSONL format
func (e *JSONLExporter) Export(conv *internal.Conversation, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range conv.Messages {
		line := jsonlLine{
			ConversationID: conv.ID,
			ID:             msg.ID,
			Role:           string(msg.Role),
			Content:        msg.Content,
		}
		if !msg.Timestamp.IsZero() {
			line.Timestamp = msg.Timestamp.Format(time.RFC3339)
		}

		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
