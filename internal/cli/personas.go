package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/journey-copilot/journey-copilot/internal/persona"
	"github.com/journey-copilot/journey-copilot/internal/session"
	"github.com/journey-copilot/journey-copilot/internal/store"
)

func newPersonasCmd() *cobra.Command {
	var events bool

	cmd := &cobra.Command{
		Use:   "personas",
		Short: "List the customer personas",
		Long: `List the built-in customer personas with their journey summary.

Examples:
  jcp personas
  jcp personas --events`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			// Print table
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PERSONA\tEVENTS\tSTEPS\tSUMMARY")
			for _, prof := range persona.Default().Profiles() {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
					prof.Name,
					len(prof.Events),
					len(prof.Diagram.Nodes),
					prof.Summary,
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !events {
				return nil
			}
			for _, prof := range persona.Default().Profiles() {
				fmt.Fprintln(out)
				fmt.Fprintln(out, titleStyle.Render(prof.Name.String()))
				for _, e := range prof.Events {
					node := string(prof.Highlights[e])
					if node == "" {
						node = "-"
					}
					fmt.Fprintf(out, "  %-28s -> %s\n", e, node)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&events, "events", false, "also list each persona's events and the step they highlight")
	return cmd
}

func newPersonaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "persona [name]",
		Short: "Switch the active session to another persona",
		Long: `Switch the active session to another persona. Switching clears the
timeline, the selected event, the highlight override and all responses.
Choosing the current persona changes nothing.

Examples:
  jcp persona JetQuest
  jcp persona`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p persona.Persona
			var err error
			if len(args) == 1 {
				p, err = persona.ParsePersona(args[0])
			} else {
				p, err = pickPersona()
			}
			if err != nil {
				return err
			}

			return withSession(func(ctx context.Context, s *store.SQLiteStore, sess *session.Session) error {
				if sess.Persona == p {
					fmt.Fprintf(cmd.OutOrStdout(), "Already on %s\n", p)
					return nil
				}
				if err := sess.SwitchPersona(p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Switched to %s. Timeline cleared.\n", p)
				return nil
			})
		},
	}
}
