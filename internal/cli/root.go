package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/journey-copilot/journey-copilot/internal/config"
)

var (
	dbPath  string
	envFile string
	verbose bool
	logger  *zap.Logger
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "jcp",
	Short: "Journey Copilot - persona journeys, A/B sizing and AI marketing copy",
	Long: `Journey Copilot is a marketing demo tool: pick a customer persona, simulate
behavioral events, see where they land on the journey diagram, size A/B tests
and ask a hosted model for campaign recommendations.
Single Go binary, embedded SQLite.

Running without a subcommand starts the server (same as 'jcp serve').`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = loadConfig()
		if err != nil {
			return err
		}
		if dbPath == "" {
			dbPath = cfg.DBPath
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe, // Default action is to start server
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default $JC_DB_PATH or ./jcp.db)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "read settings from this .env file instead of ./.env")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default $JC_PORT or 8080)")

	rootCmd.AddCommand(
		newPersonasCmd(),
		newPersonaCmd(),
		newSessionCmd(),
		newEventCmd(),
		newHighlightCmd(),
		newDiagramCmd(),
		newSampleSizeCmd(),
		newEvaluateCmd(),
		newGenerateCmd(),
		newExportCmd(),
		newTokenCmd(),
	)
}

// loadConfig returns the configuration read by the root command, or reads it
// now for commands run on their own.
func loadConfig() (*config.Config, error) {
	if cfg != nil {
		return cfg, nil
	}
	if envFile != "" {
		return config.LoadFile(envFile)
	}
	return config.Load()
}

// getLogger returns the command logger, or a no-op one when a command runs
// outside the root (as in tests).
func getLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
