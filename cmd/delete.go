package cmd

import (
	"fmt"

	"github.com/iksnae/acni-chat/internal"
	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>...",
	Short: "Delete conversations",
	Long:  `Delete one or more conversations by id. Deleted conversations cannot be recovered.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		var missing []string
		for _, id := range args {
			if !sess.store.DeleteConversation(id) {
				missing = append(missing, id)
				continue
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Deleted", id)
		}

		if len(missing) > 0 {
			return fmt.Errorf("%w: %v", internal.ErrConversationNotFound, missing)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
