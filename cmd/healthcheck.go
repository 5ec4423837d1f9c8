package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/acni-chat/internal"
	"github.com/spf13/cobra"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, storage and credentials",
	Long: `Check the health of acni by verifying:
  • The configuration loads and validates
  • The storage backend opens
  • The stored conversations decode
  • A Gemini API key is configured

This command is useful for debugging storage issues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHealthcheck(cmd.Context(), cmd.OutOrStdout())
	},
}

func runHealthcheck(ctx context.Context, out io.Writer) error {
	_, _ = fmt.Fprintln(out, sectionStyle.Render("🔍 acni Health Check"))
	_, _ = fmt.Fprintln(out)

	// Step 1: Configuration
	_, _ = fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
	cfg, err := loadConfig()
	if err != nil {
		_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Configuration is invalid:"), err)
		return fmt.Errorf("health check failed: %w", err)
	}
	_, _ = fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
	if verbose {
		_, _ = fmt.Fprintf(out, "   Backend: %s\n", cfg.Storage.Backend)
		_, _ = fmt.Fprintf(out, "   Path: %s\n", cfg.Storage.Path)
		_, _ = fmt.Fprintf(out, "   Model: %s\n", cfg.Model)
	}
	_, _ = fmt.Fprintln(out)

	// Step 2: Storage backend
	_, _ = fmt.Fprintln(out, infoStyle.Render("Step 2: Opening storage backend..."))
	backend, err := internal.OpenBackend(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Failed to open storage:"), err)
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = backend.Close() }()
	_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %s storage opened", backend.Name)))
	if verbose {
		if sqliteKV, ok := backend.KV.(*internal.SQLiteKV); ok {
			pairs, err := sqliteKV.Keys(ctx, "%")
			if err != nil {
				_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Could not list keys:"), err)
			}
			for _, pair := range pairs {
				_, _ = fmt.Fprintf(out, "   Key %s (%d bytes)\n", pair.Key, len(pair.Value))
			}
		}
	}
	_, _ = fmt.Fprintln(out)

	// Step 3: Stored conversations
	_, _ = fmt.Fprintln(out, infoStyle.Render("Step 3: Reading stored conversations..."))
	count, err := checkStoredConversations(ctx, backend.KV)
	if err != nil {
		_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Stored conversations are unreadable:"), err)
		return fmt.Errorf("health check failed: %w", err)
	}
	_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Found %d conversation(s)", count)))
	_, _ = fmt.Fprintln(out)

	// Step 4: Credentials
	_, _ = fmt.Fprintln(out, infoStyle.Render("Step 4: Checking credentials..."))
	hasKey := strings.TrimSpace(cfg.APIKey) != ""
	if hasKey {
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ Gemini API key configured"))
	} else {
		_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  GEMINI_API_KEY is not set, chat and send will not work"))
	}
	_, _ = fmt.Fprintln(out)

	// Summary
	_, _ = fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
	_, _ = fmt.Fprintln(out)
	if hasKey {
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
	} else {
		_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Storage is healthy but no API key is configured"))
	}
	return nil
}

// checkStoredConversations reads and decodes the stored collection without
// building a store, so a corrupted value is reported instead of skipped
func checkStoredConversations(ctx context.Context, kv internal.KeyValueStore) (int, error) {
	value, found, err := kv.Get(ctx, internal.StorageKey)
	if err != nil {
		return 0, err
	}
	if !found || value == "" {
		return 0, nil
	}
	convs, err := internal.DecodeConversations(internal.StorageKey, value)
	if err != nil {
		return 0, err
	}
	return len(convs), nil
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
