package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/journey-copilot/journey-copilot/internal/session"
	"github.com/journey-copilot/journey-copilot/internal/store"
)

func newEventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Simulate behavioral events on the active session",
	}

	cmd.AddCommand(newEventAddCmd(), newEventResetCmd())
	return cmd
}

func newEventAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add [label]",
		Short: "Add an event to the timeline",
		Long: `Select an event of the session's persona and append it to the timeline.
An event already on the timeline is selected again but not duplicated.
Without an argument an interactive picker is shown.

Examples:
  jcp event add "Cart Abandoned"
  jcp event add`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *store.SQLiteStore, sess *session.Session) error {
				label := ""
				if len(args) == 1 {
					label = args[0]
				} else {
					prof, err := sess.Profile()
					if err != nil {
						return err
					}
					if label, err = pickEvent(prof); err != nil {
						return err
					}
				}

				e, added, err := sess.AddEvent(label)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if added {
					fmt.Fprintf(out, "Added %s\n", e)
				} else {
					fmt.Fprintf(out, "%s is already on the timeline\n", e)
				}
				fmt.Fprintf(out, "TIMELINE: %s\n", sess.Timeline)
				if h := sess.Highlight(); h != "" {
					fmt.Fprintf(out, "HIGHLIGHT: %s\n", h)
				} else {
					fmt.Fprintln(out, mutedStyle.Render("no journey step mapped to this event"))
				}
				return nil
			})
		},
	}
}

func newEventResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the timeline, override and responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(ctx context.Context, s *store.SQLiteStore, sess *session.Session) error {
				sess.Reset()
				fmt.Fprintf(cmd.OutOrStdout(), "Session reset. Persona is still %s.\n", sess.Persona)
				return nil
			})
		},
	}
}
