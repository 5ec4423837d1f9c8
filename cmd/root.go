package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/iksnae/acni-chat/internal"
	"github.com/iksnae/acni-chat/internal/config"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	configPath  string
	storagePath string
	backendName string
	modelName   string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "acni",
	Short: "Chat with Gemini from the terminal",
	Long: `A terminal chat client for Google's Gemini models.

Conversations are kept in a local store (SQLite by default) and survive
restarts. Each conversation is titled after its first message.

Quick Start:
  export GEMINI_API_KEY=...
  acni chat                      # Interactive chat
  acni send "What is a goroutine?" # One message to the most recent conversation
  acni list                      # List conversations
  acni export <id> --format md   # Export a conversation as Markdown`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Custom storage location (database file or store directory)")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "Storage backend: sqlite, file or memory")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "", "Gemini model name")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// appSession is everything a command needs: settings, an open backend and a
// loaded conversation store
type appSession struct {
	cfg     *config.Config
	backend *internal.Backend
	store   *internal.Store
}

// loadConfig reads the configuration and applies command line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if backendName != "" {
		cfg.Storage.Backend = backendName
		if storagePath == "" {
			cfg.Storage.Path = config.DefaultStoragePath(backendName)
		}
	}
	if storagePath != "" {
		cfg.Storage.Path = storagePath
	}
	if modelName != "" {
		cfg.Model = modelName
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !verbose {
		level, err := internal.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			internal.LogWarn("Ignoring log level: %v", err)
		} else {
			internal.SetLogLevel(level)
		}
	}

	return cfg, nil
}

// openSession loads config, opens the storage backend and hydrates the store
func openSession(ctx context.Context) (*appSession, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	backend, err := internal.OpenBackend(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	store := internal.NewStore(backend.KV, internal.WithWriteTimeout(cfg.Storage.WriteTimeout))
	store.Load(ctx)
	reportStorageErrors(store)

	return &appSession{cfg: cfg, backend: backend, store: store}, nil
}

// Close writes pending changes and releases the backend
func (s *appSession) Close() {
	s.store.Close()
	reportStorageErrors(s.store)
	if err := s.backend.Close(); err != nil {
		internal.LogWarn("Failed to close storage: %v", err)
	}
}

// reportStorageErrors surfaces queued persistence failures to the user
func reportStorageErrors(store *internal.Store) {
	for {
		select {
		case err := <-store.Errors():
			internal.PrintWarning(fmt.Sprintf("Storage problem: %v", err))
		default:
			return
		}
	}
}
