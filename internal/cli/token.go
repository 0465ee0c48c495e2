package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/journey-copilot/journey-copilot/internal/store"
)

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Show dashboard URL with access token",
		Long: `Show the dashboard URL with your access token.

The same token authorizes generation requests:
  Authorization: Bearer <token>

Example:
  jcp token`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(getTokenFilePath())
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("no server running. Start with: jcp")
				}
				return fmt.Errorf("failed to read token file: %w", err)
			}

			token := strings.TrimSpace(string(data))
			if token == "" {
				return fmt.Errorf("token file is empty. Restart the server with: jcp")
			}

			serverURL, err := lastServerURL(context.Background())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dashboard: %s/dashboard?token=%s\n", serverURL, token)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Tip: Bookmark this URL or run 'jcp token' anytime.")
			return nil
		},
	}
}

// lastServerURL is the address recorded by the last server start, or the
// configured port on localhost when none was recorded.
func lastServerURL(ctx context.Context) (string, error) {
	s, err := store.Open(dbPath)
	if err == nil {
		defer s.Close()
		if url, err := s.GetSetting(ctx, store.SettingServerURL); err == nil && url != "" {
			return url, nil
		}
	}

	c, err := loadConfig()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://localhost:%d", c.Port), nil
}
