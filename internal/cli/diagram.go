package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/journey-copilot/journey-copilot/internal/persona"
	"github.com/journey-copilot/journey-copilot/internal/store"
)

func newDiagramCmd() *cobra.Command {
	var (
		personaName string
		event       string
	)

	cmd := &cobra.Command{
		Use:   "diagram",
		Short: "Print the Mermaid journey diagram",
		Long: `Print the persona journey as a Mermaid flowchart with the current step
highlighted. By default the active session is used; --persona renders a
diagram without touching any session.

Examples:
  jcp diagram
  jcp diagram --persona JetQuest --event "Price Drop Alert"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if personaName == "" {
				if event != "" {
					return fmt.Errorf("--event requires --persona")
				}
				return withStore(func(s *store.SQLiteStore) error {
					sess, err := currentSession(context.Background(), s)
					if err != nil {
						return err
					}
					mermaid, err := sess.Diagram()
					if err != nil {
						return err
					}
					fmt.Fprint(out, mermaid)
					return nil
				})
			}

			p, err := persona.ParsePersona(personaName)
			if err != nil {
				return err
			}
			prof, err := persona.Default().Profile(p)
			if err != nil {
				return err
			}

			var highlight persona.Node
			if event != "" {
				e, err := prof.LookupEvent(event)
				if err != nil {
					return err
				}
				highlight = persona.ResolveHighlight(p, e, "")
			}
			fmt.Fprint(out, prof.Diagram.Mermaid(highlight))
			return nil
		},
	}

	cmd.Flags().StringVar(&personaName, "persona", "", "render this persona instead of the active session")
	cmd.Flags().StringVar(&event, "event", "", "event whose step to highlight (with --persona)")
	return cmd
}
