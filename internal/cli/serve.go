package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/journey-copilot/journey-copilot/internal/server"
	"github.com/journey-copilot/journey-copilot/internal/store"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the journey-copilot HTTP server.

The server provides:
  - Persona, diagram and A/B sizing API
  - Session API with token-protected AI generation
  - Dashboard for viewing sessions and generation history
  - Health check endpoint

The model provider is configured through JC_LLM_PROVIDER (openai or gemini)
and the matching API key. A missing key only fails generation requests.

Example:
  jcp serve --port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default $JC_PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	listen := port
	if listen <= 0 {
		listen = cfg.Port
	}
	if dbPath == "" {
		dbPath = cfg.DBPath
	}

	// Open database
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	log := getLogger()
	log.Debug("starting server",
		zap.Int("port", listen),
		zap.String("db", dbPath),
		zap.String("provider", cfg.LLM.Provider),
	)

	// Create and start server
	srv := server.New(s, server.Options{
		Port:        listen,
		TokenFile:   getTokenFilePath(),
		DailyVolume: cfg.DailyVolume,
		Generator:   newGenerator,
		Logger:      log,
	})
	return srv.Start()
}

// getTokenFilePath returns the path to the token file
func getTokenFilePath() string {
	// Store token file alongside the database
	return filepath.Join(filepath.Dir(dbPath), ".jcp-token")
}
