package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/acni-chat/internal"
)

// MarkdownExporter exports conversations in Markdown format
type MarkdownExporter struct{}

// Export exports a conversation to Markdown format
func (e *MarkdownExporter) Export(conv *internal.Conversation, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# %s\n\n", conv.Title)
	_, _ = fmt.Fprintf(w, "**ID:** %s  \n", conv.ID)
	if !conv.CreatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Created:** %s  \n", conv.CreatedAt.Format(time.RFC3339))
	}
	if !conv.UpdatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Updated:** %s  \n", conv.UpdatedAt.Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(conv.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, msg := range conv.Messages {
		timestamp := ""
		if !msg.Timestamp.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp.Format(time.RFC3339))
		}

		_, err := fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", roleLabel(msg.Role), timestamp, escapeMarkdown(msg.Content))
		if err != nil {
			return fmt.Errorf("failed to write message: %w", err)
		}

		if i < len(conv.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func roleLabel(role internal.Role) string {
	switch role {
	case internal.RoleUser:
		return "You"
	case internal.RoleAssistant:
		return "Assistant"
	default:
		return string(role)
	}
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))
	inCodeBlock := false

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "```"):
			inCodeBlock = !inCodeBlock
		case !inCodeBlock:
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
