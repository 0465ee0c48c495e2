package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/journey-copilot/journey-copilot/internal/session"
	"github.com/journey-copilot/journey-copilot/internal/store"
)

func newExportCmd() *cobra.Command {
	var (
		format    string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export generation history",
		Long: `Export the generation history of a session in CSV or JSON format.
Defaults to the active session.

Examples:
  jcp export --format csv > history.csv
  jcp export --session 3f2a --format json > history.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("invalid format: must be 'csv' or 'json'")
			}

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()

				var sess *session.Session
				var err error
				if sessionID != "" {
					sess, err = findSession(ctx, s, sessionID)
				} else {
					sess, err = currentSession(ctx, s)
				}
				if err != nil {
					return err
				}

				gens, err := s.GetGenerations(ctx, sess.ID)
				if err != nil {
					return fmt.Errorf("failed to get generations: %w", err)
				}

				if format == "csv" {
					return exportCSV(cmd.OutOrStdout(), gens)
				}
				return exportJSON(cmd.OutOrStdout(), sess, gens)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format (csv or json)")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id or prefix (default: active session)")
	return cmd
}

func exportCSV(out io.Writer, gens []*session.Generation) error {
	w := csv.NewWriter(out)

	// Write header
	if err := w.Write([]string{"timestamp", "category", "provider", "status", "error", "response"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// Write rows
	for _, g := range gens {
		row := []string{
			strconv.FormatInt(g.CreatedAt.Unix(), 10),
			string(g.Category),
			g.Provider,
			string(g.Status),
			g.Error,
			g.Response,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

type jsonExport struct {
	SessionID   string           `json:"session_id"`
	Persona     string           `json:"persona"`
	Generations []jsonGeneration `json:"generations"`
}

type jsonGeneration struct {
	Timestamp int64  `json:"timestamp"`
	Category  string `json:"category"`
	Provider  string `json:"provider"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	Prompt    string `json:"prompt"`
	Response  string `json:"response,omitempty"`
}

func exportJSON(out io.Writer, sess *session.Session, gens []*session.Generation) error {
	export := jsonExport{
		SessionID:   sess.ID,
		Persona:     string(sess.Persona),
		Generations: make([]jsonGeneration, len(gens)),
	}

	for i, g := range gens {
		export.Generations[i] = jsonGeneration{
			Timestamp: g.CreatedAt.Unix(),
			Category:  string(g.Category),
			Provider:  g.Provider,
			Status:    string(g.Status),
			Error:     g.Error,
			Prompt:    g.Prompt,
			Response:  g.Response,
		}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}
