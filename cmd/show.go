package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/acni-chat/internal"
	"github.com/spf13/cobra"
)

var (
	limit int
	since string
)

var (
	// Styles for transcripts
	conversationHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	conversationMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [conversation-id]",
	Short: "Show the messages of a conversation",
	Long: `Display the messages of a conversation.

Without an id the most recently created conversation is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var sinceTime time.Time
		if since != "" {
			parsed, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("invalid --since timestamp format (expected RFC3339): %w", err)
			}
			sinceTime = parsed
		}

		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		conv, err := resolveConversation(sess.store, args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		displayConversationHeader(out, conv)

		messages := conv.Messages
		if !sinceTime.IsZero() {
			filtered := make([]internal.Message, 0, len(messages))
			for _, msg := range messages {
				if !msg.Timestamp.Before(sinceTime) {
					filtered = append(filtered, msg)
				}
			}
			messages = filtered
		}

		total := len(messages)
		if limit > 0 && limit < total {
			messages = messages[:limit]
		}

		for i, msg := range messages {
			displayMessage(out, i+1, msg, total)
		}

		if limit > 0 && limit < total {
			_, _ = fmt.Fprintln(out)
			_, _ = fmt.Fprintln(out, lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Italic(true).
				Render(fmt.Sprintf("... (%d more message(s))", total-limit)))
		}

		return nil
	},
}

// resolveConversation returns the conversation named by args[0], or the
// current one when no id was given
func resolveConversation(store *internal.Store, args []string) (internal.Conversation, error) {
	if len(args) > 0 {
		conv, ok := store.Conversation(args[0])
		if !ok {
			return internal.Conversation{}, fmt.Errorf("%w: %s", internal.ErrConversationNotFound, args[0])
		}
		return conv, nil
	}

	conv, ok := store.CurrentConversation()
	if !ok {
		return internal.Conversation{}, fmt.Errorf("no conversations yet, start one with `acni chat`")
	}
	return conv, nil
}

func displayConversationHeader(out io.Writer, conv internal.Conversation) {
	_, _ = fmt.Fprintln(out, conversationHeaderStyle.Render(fmt.Sprintf("💬 %s", conv.Title)))

	metaParts := []string{fmt.Sprintf("ID: %s", conv.ID)}
	if !conv.CreatedAt.IsZero() {
		metaParts = append(metaParts, fmt.Sprintf("Created: %s", conv.CreatedAt.Local().Format(time.RFC3339)))
	}
	metaParts = append(metaParts, fmt.Sprintf("Messages: %d", len(conv.Messages)))

	_, _ = fmt.Fprintln(out, conversationMetaStyle.Render(strings.Join(metaParts, " • ")))
	_, _ = fmt.Fprintln(out)
}

func displayMessage(out io.Writer, index int, msg internal.Message, total int) {
	_, _ = fmt.Fprintln(out, messageHeader(msg)+" "+timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total)))
	displayContent(out, msg.Content)
}

func messageHeader(msg internal.Message) string {
	var header string
	switch msg.Role {
	case internal.RoleUser:
		header = userMessageStyle.Render("👤 You")
	case internal.RoleAssistant:
		header = assistantMessageStyle.Render("🤖 Assistant")
	default:
		header = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Render(string(msg.Role))
	}
	if !msg.Timestamp.IsZero() {
		header += " " + timestampStyle.Render(msg.Timestamp.Local().Format("15:04:05"))
	}
	return header
}

func displayContent(out io.Writer, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		_, _ = fmt.Fprintln(out, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
	} else {
		_, _ = fmt.Fprintln(out, messageContentStyle.Render(wrapText(content, 80)))
	}
	_, _ = fmt.Fprintln(out)
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				if currentLine != "" {
					wrapped = append(wrapped, currentLine)
					currentLine = word
				} else {
					wrapped = append(wrapped, word)
					currentLine = ""
				}
			} else {
				if currentLine == "" {
					currentLine = word
				} else {
					currentLine += " " + word
				}
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of messages to show")
	showCmd.Flags().StringVar(&since, "since", "", "Show messages since timestamp (RFC3339)")
}
