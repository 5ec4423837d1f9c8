package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/acni-chat/internal"
)

// JSONExporter writes the conversation as one indented JSON document
type JSONExporter struct{}

// Export exports a conversation to JSON format
func (e *JSONExporter) Export(conv *internal.Conversation, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(conv)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
