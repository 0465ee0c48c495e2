package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/journey-copilot/journey-copilot/internal/session"
	"github.com/journey-copilot/journey-copilot/internal/store"
)

func newHighlightCmd() *cobra.Command {
	var clearOverride bool

	cmd := &cobra.Command{
		Use:   "highlight [node]",
		Short: "Pin the diagram highlight to a journey step",
		Long: `Pin the diagram highlight to a node of the persona's journey. The
override wins over the event mapping until it is cleared.

Examples:
  jcp highlight F
  jcp highlight --clear`,
		Args: func(cmd *cobra.Command, args []string) error {
			if clearOverride {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *store.SQLiteStore, sess *session.Session) error {
				out := cmd.OutOrStdout()
				if clearOverride {
					sess.ClearOverride()
					fmt.Fprintln(out, "Override cleared")
				} else {
					n, err := sess.SetOverride(args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Override set to %s\n", n)
				}

				if h := sess.Highlight(); h != "" {
					fmt.Fprintf(out, "HIGHLIGHT: %s\n", h)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearOverride, "clear", false, "remove the override")
	return cmd
}
