package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/acni-chat/internal"
	"github.com/iksnae/acni-chat/internal/assistant"
	"github.com/iksnae/acni-chat/internal/config"
	"github.com/spf13/cobra"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)
)

// newGenerator builds the generator used by chat and send. Tests replace it.
var newGenerator = func(ctx context.Context, cfg *config.Config) (assistant.Generator, error) {
	return assistant.NewGeminiGenerator(ctx, cfg.APIKey)
}

const chatHelp = `Commands:
  /new             Start a new conversation
  /list            List conversations
  /select <n|id>   Switch to a conversation by list number or id
  /delete [n|id]   Delete a conversation (default: the current one)
  /show            Show the current conversation
  /help            Show this help
  /quit            Exit`

// chatCmd represents the interactive chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Start an interactive chat session.

Type a message and press enter to send it. Lines starting with / are
commands; type /help to list them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		chat, err := newChat(cmd.Context(), sess)
		if err != nil {
			return err
		}

		return runChat(cmd.Context(), chat, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// newChat wires a generator and the session's store into a chat flow
func newChat(ctx context.Context, sess *appSession) (*assistant.Chat, error) {
	gen, err := newGenerator(ctx, sess.cfg)
	if err != nil {
		return nil, err
	}
	return assistant.NewChat(sess.store, gen, sess.cfg.Model, assistant.WithTimeout(sess.cfg.AssistantTimeout)), nil
}

func runChat(ctx context.Context, chat *assistant.Chat, in io.Reader, out io.Writer) error {
	chat.EnsureConversation()
	if conv, ok := chat.Store().CurrentConversation(); ok {
		displayTranscript(out, conv)
	}
	_, _ = fmt.Fprintln(out, hintStyle.Render("Type /help for commands, /quit to exit."))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		_, _ = fmt.Fprint(out, promptStyle.Render("> "))
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := handleChatCommand(chat, line, out)
			if err != nil {
				internal.PrintError(err.Error())
			}
			if quit {
				return nil
			}
			continue
		}

		if err := sendAndDisplay(ctx, chat, line, out); err != nil {
			internal.PrintError(err.Error())
		}
	}
}

// sendAndDisplay sends one message and prints the assistant's reply
func sendAndDisplay(ctx context.Context, chat *assistant.Chat, text string, out io.Writer) error {
	var reply internal.Message
	err := internal.ShowProgress(ctx, "Thinking...", func() error {
		var sendErr error
		reply, sendErr = chat.Send(ctx, text)
		return sendErr
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, messageHeader(reply))
	displayContent(out, reply.Content)
	return nil
}

// handleChatCommand runs a slash command and reports whether to exit
func handleChatCommand(chat *assistant.Chat, line string, out io.Writer) (bool, error) {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]
	store := chat.Store()

	switch name {
	case "/quit", "/exit", "/q":
		return true, nil
	case "/help", "/?":
		_, _ = fmt.Fprintln(out, chatHelp)
	case "/new":
		chat.NewChat()
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ Started a new conversation"))
	case "/list":
		displayConversations(out, store.Conversations(), store.CurrentConversationID(), time.Now())
	case "/show":
		conv, ok := store.CurrentConversation()
		if !ok {
			return false, errors.New("no conversation selected")
		}
		displayTranscript(out, conv)
	case "/select":
		if len(args) != 1 {
			return false, errors.New("usage: /select <n|id>")
		}
		id, err := lookupConversationID(store.Conversations(), args[0])
		if err != nil {
			return false, err
		}
		if err := chat.Select(id); err != nil {
			return false, err
		}
		conv, _ := store.CurrentConversation()
		displayTranscript(out, conv)
	case "/delete":
		id := store.CurrentConversationID()
		if len(args) > 0 {
			var err error
			if id, err = lookupConversationID(store.Conversations(), args[0]); err != nil {
				return false, err
			}
		}
		if id == "" {
			return false, errors.New("no conversation selected")
		}
		if err := chat.Delete(id); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ Deleted conversation "+shortID(id)))
	default:
		return false, fmt.Errorf("unknown command %s, type /help for commands", name)
	}
	return false, nil
}

// lookupConversationID resolves a 1-based list position, a full id or an
// unambiguous id prefix
func lookupConversationID(convs []internal.Conversation, ref string) (string, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(convs) {
			return "", fmt.Errorf("no conversation number %d", n)
		}
		return convs[n-1].ID, nil
	}

	var match string
	for _, conv := range convs {
		if conv.ID == ref {
			return conv.ID, nil
		}
		if strings.HasPrefix(conv.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("id prefix %s is ambiguous", ref)
			}
			match = conv.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", internal.ErrConversationNotFound, ref)
	}
	return match, nil
}

func displayTranscript(out io.Writer, conv internal.Conversation) {
	displayConversationHeader(out, conv)
	for i, msg := range conv.Messages {
		displayMessage(out, i+1, msg, len(conv.Messages))
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
