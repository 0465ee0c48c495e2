package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"

	"github.com/journey-copilot/journey-copilot/internal/llm"
	"github.com/journey-copilot/journey-copilot/internal/persona"
	"github.com/journey-copilot/journey-copilot/internal/session"
	"github.com/journey-copilot/journey-copilot/internal/store"
)

var errNoSession = errors.New("no active session. Start one with: jcp session new")

// newGenerator builds the model client from the environment. Tests swap it.
var newGenerator = func(ctx context.Context) (llm.Generator, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return llm.New(ctx, cfg.Generator(getLogger()))
}

// withStore opens the database, executes the function, and handles cleanup.
func withStore(fn func(*store.SQLiteStore) error) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// withSession loads the active session, runs fn and saves the result.
func withSession(fn func(context.Context, *store.SQLiteStore, *session.Session) error) error {
	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		sess, err := currentSession(ctx, s)
		if err != nil {
			return err
		}
		fnErr := fn(ctx, s, sess)
		if err := s.SaveSession(ctx, sess); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return fnErr
	})
}

func currentSession(ctx context.Context, s store.Store) (*session.Session, error) {
	id, err := s.GetSetting(ctx, store.SettingCurrentSession)
	if errors.Is(err, store.ErrNotFound) || (err == nil && id == "") {
		return nil, errNoSession
	}
	if err != nil {
		return nil, err
	}

	sess, err := s.GetSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

func pickPersona() (persona.Persona, error) {
	items := make([]string, len(persona.All))
	for i, p := range persona.All {
		items[i] = p.String()
	}

	prompt := promptui.Select{
		Label: "Persona",
		Items: items,
		Size:  len(items),
	}
	idx, _, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return "", err
	}
	return persona.All[idx], nil
}

func pickEvent(prof *persona.Profile) (string, error) {
	items := make([]string, len(prof.Events))
	for i, e := range prof.Events {
		items[i] = string(e)
	}

	prompt := promptui.Select{
		Label: "Event for " + prof.Name.String(),
		Items: items,
		Size:  8,
	}
	_, label, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return "", err
	}
	return label, nil
}
