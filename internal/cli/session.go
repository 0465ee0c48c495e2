package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/journey-copilot/journey-copilot/internal/persona"
	"github.com/journey-copilot/journey-copilot/internal/session"
	"github.com/journey-copilot/journey-copilot/internal/store"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage demo sessions",
		Long: `A session holds the chosen persona, the simulated event timeline, the
highlight override and the latest AI response. Commands such as 'event' and
'generate' act on the active session.`,
	}

	cmd.AddCommand(
		newSessionNewCmd(),
		newSessionShowCmd(),
		newSessionListCmd(),
		newSessionUseCmd(),
		newSessionDeleteCmd(),
	)
	return cmd
}

func newSessionNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new [persona]",
		Short: "Start a session and make it active",
		Long: `Start a new session on a persona and make it the active session.
Without an argument an interactive picker is shown.

Examples:
  jcp session new GlowSkin
  jcp session new`,
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

			sess, err := session.New(p)
			if err != nil {
				return err
			}

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()
				if err := s.CreateSession(ctx, sess); err != nil {
					return fmt.Errorf("failed to create session: %w", err)
				}
				if err := s.SetSetting(ctx, store.SettingCurrentSession, sess.ID); err != nil {
					return fmt.Errorf("failed to activate session: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Started session %s for %s\n", sess.ID, sess.Persona)
				return nil
			})
		},
	}
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *store.SQLiteStore) error {
				sess, err := currentSession(context.Background(), s)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), sess)
				return nil
			})
		},
	}
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()

				sessions, err := s.ListSessions(ctx)
				if err != nil {
					return fmt.Errorf("failed to list sessions: %w", err)
				}

				if len(sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sessions yet.")
					fmt.Fprintln(cmd.OutOrStdout())
					fmt.Fprintln(cmd.OutOrStdout(), "Start one with: jcp session new")
					return nil
				}

				active, _ := s.GetSetting(ctx, store.SettingCurrentSession)

				// Print table
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tPERSONA\tEVENTS\tHIGHLIGHT\tUPDATED")

				for _, sess := range sessions {
					id := sess.ID
					if id == active {
						id += " *"
					}
					highlight := string(sess.Highlight())
					if highlight == "" {
						highlight = "-"
					}
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
						id,
						sess.Persona,
						len(sess.Timeline),
						highlight,
						sess.UpdatedAt.Format("2006-01-02 15:04"),
					)
				}

				return w.Flush()
			})
		},
	}
}

func newSessionUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Make a session active",
		Long: `Make a session the active one. Any unique prefix of the id works.

Example:
  jcp session use 3f2a`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()

				sess, err := findSession(ctx, s, args[0])
				if err != nil {
					return err
				}
				if err := s.SetSetting(ctx, store.SettingCurrentSession, sess.ID); err != nil {
					return fmt.Errorf("failed to activate session: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Active session: %s (%s)\n", sess.ID, sess.Persona)
				return nil
			})
		},
	}
}

func newSessionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()

				sess, err := findSession(ctx, s, args[0])
				if err != nil {
					return err
				}
				if err := s.DeleteSession(ctx, sess.ID); err != nil {
					return fmt.Errorf("failed to delete session: %w", err)
				}

				if active, _ := s.GetSetting(ctx, store.SettingCurrentSession); active == sess.ID {
					if err := s.SetSetting(ctx, store.SettingCurrentSession, ""); err != nil {
						return fmt.Errorf("failed to clear active session: %w", err)
					}
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", sess.ID)
				return nil
			})
		},
	}
}

// findSession resolves an id or unique id prefix.
func findSession(ctx context.Context, s store.Store, idOrPrefix string) (*session.Session, error) {
	sess, err := s.GetSession(ctx, idOrPrefix)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var match *session.Session
	for _, candidate := range sessions {
		if !strings.HasPrefix(candidate.ID, idOrPrefix) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("session prefix '%s' is ambiguous", idOrPrefix)
		}
		match = candidate
	}
	if match == nil {
		return nil, fmt.Errorf("session '%s' not found", idOrPrefix)
	}
	return match, nil
}
