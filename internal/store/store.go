package store

import (
	"context"

	"github.com/journey-copilot/journey-copilot/internal/session"
)

// Store defines the interface for session storage operations
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, s *session.Session) error
	GetSession(ctx context.Context, id string) (*session.Session, error)
	SaveSession(ctx context.Context, s *session.Session) error
	ListSessions(ctx context.Context) ([]*session.Session, error)
	DeleteSession(ctx context.Context, id string) error
	SessionVersion(ctx context.Context, id string) (int64, error)
	CountSessions(ctx context.Context) (int, error)

	// Generation history
	RecordGeneration(ctx context.Context, g *session.Generation) error
	GetGenerations(ctx context.Context, sessionID string) ([]*session.Generation, error)

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Lifecycle
	Close() error
}

const (
	// SettingCurrentSession names the session the CLI acts on by default.
	SettingCurrentSession = "current_session"
	// SettingServerURL is where the last started server listens.
	SettingServerURL = "server_url"
)
