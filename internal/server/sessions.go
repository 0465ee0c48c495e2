package server

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/journey-copilot/journey-copilot/internal/session"
	"github.com/journey-copilot/journey-copilot/internal/store"
)

func (s *Server) lock(id string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// load returns the session, served from the cache only while the cached
// copy is still the stored version. Other writers (the CLI) share the
// database. Callers hold the session lock.
func (s *Server) load(ctx context.Context, id string) (*session.Session, error) {
	version, err := s.store.SessionVersion(ctx, id)
	if err != nil {
		s.cache.Remove(id)
		return nil, err
	}
	if sess, ok := s.cache.Get(id); ok && sess.Version == version {
		return sess, nil
	}

	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		s.cache.Remove(id)
		return nil, err
	}
	s.cache.Add(id, sess)
	return sess, nil
}

// withLock runs fn holding the session lock. Locks for ids that turn out
// not to exist are dropped again.
func (s *Server) withLock(id string, fn func() error) error {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	err := fn()
	if errors.Is(err, store.ErrNotFound) {
		s.locks.CompareAndDelete(id, mu)
	}
	return err
}

// view runs fn on the session under its lock without persisting anything.
func (s *Server) view(ctx context.Context, id string, fn func(*session.Session) error) error {
	return s.withLock(id, func() error {
		sess, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		return fn(sess)
	})
}

// mutate runs fn on the session under its lock and persists the result.
// State is saved even when fn fails, since a failed generation still clears
// its category.
func (s *Server) mutate(ctx context.Context, id string, fn func(*session.Session) error) error {
	return s.withLock(id, func() error {
		sess, err := s.load(ctx, id)
		if err != nil {
			return err
		}

		fnErr := fn(sess)
		if err := s.store.SaveSession(ctx, sess); err != nil {
			// the cached copy holds unsaved changes now
			s.cache.Remove(id)
			if !errors.Is(err, store.ErrConflict) {
				s.logger.Error("failed to save session", zap.String("session", id), zap.Error(err))
			}
			return err
		}
		return fnErr
	})
}

func (s *Server) create(ctx context.Context, sess *session.Session) error {
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return err
	}
	s.cache.Add(sess.ID, sess)
	return nil
}
