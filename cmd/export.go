package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/acni-chat/internal"
	"github.com/iksnae/acni-chat/internal/export"
	"github.com/spf13/cobra"
)

var (
	format         string
	outputDir      string
	conversationID string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export conversations to files",
	Long: `Export conversations to various formats (jsonl, md, yaml, json).

All conversations are exported unless --conversation-id names one.
Use 'acni list' to see available conversation IDs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Fail on a bad format before touching storage
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		convs := sess.store.Conversations()
		if conversationID != "" {
			conv, ok := sess.store.Conversation(conversationID)
			if !ok {
				return fmt.Errorf("%w: %s (use 'acni list' to see available conversations)", internal.ErrConversationNotFound, conversationID)
			}
			convs = []internal.Conversation{conv}
		}

		if len(convs) == 0 {
			internal.PrintInfo("No conversations to export")
			return nil
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		var exported int
		err = internal.ShowProgress(cmd.Context(), fmt.Sprintf("Exporting %d conversation(s) to %s", len(convs), outputDir), func() error {
			for i := range convs {
				if err := exportConversation(exporter, format, &convs[i], outputDir); err != nil {
					internal.LogError("%v", err)
					continue
				}
				exported++
			}
			return nil
		})
		if err != nil {
			return err
		}

		if exported < len(convs) {
			return fmt.Errorf("exported %d of %d conversation(s)", exported, len(convs))
		}

		internal.PrintSuccess(fmt.Sprintf("Export complete: %d conversation(s) exported to %s", exported, outputDir))
		return nil
	},
}

// exportConversation writes conv to conversation_<id>.<ext> inside dir
func exportConversation(exporter export.Exporter, format string, conv *internal.Conversation, dir string) error {
	path := filepath.Join(dir, fmt.Sprintf("conversation_%s.%s", conv.ID, exporter.Extension()))

	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}

	if err := exporter.Export(conv, file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}

	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().StringVar(&conversationID, "conversation-id", "", "Export a specific conversation by ID")
}
