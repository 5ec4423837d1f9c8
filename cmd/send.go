package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	sendConversationID string
	sendNew            bool
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send one message and print the reply",
	Long: `Send a single message and print the assistant's reply.

The message goes to the most recently created conversation unless
--conversation-id names another one or --new starts a fresh one.`,
	Args: cobra.MinimumNArgs(1),
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

		switch {
		case sendNew:
			chat.NewChat()
		case sendConversationID != "":
			if err := chat.Select(sendConversationID); err != nil {
				return fmt.Errorf("%w: %s", err, sendConversationID)
			}
		}

		return sendAndDisplay(cmd.Context(), chat, strings.Join(args, " "), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVar(&sendConversationID, "conversation-id", "", "Send to a specific conversation")
	sendCmd.Flags().BoolVar(&sendNew, "new", false, "Start a new conversation")
}
