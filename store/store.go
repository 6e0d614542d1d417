// Package store persists the credential token and the role list that came
// with it.
//
// A Store sits on top of a key/value Backend, the analogue of a browser's
// local storage. Memory, SQLite and Redis backends are provided.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys under which the session is stored.
const (
	TokenKey = "token"
	RolesKey = "roles"
)

// Backend is a persistent string key/value store.
type Backend interface {
	// GetItem returns the value stored under key and whether it was present.
	GetItem(ctx context.Context, key string) (string, bool, error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(ctx context.Context, key string) error
}

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Store reads and writes the session held by a Backend.
type Store struct {
	backend Backend
	logger  Logger
}

// New creates a Store over backend.
func New(backend Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, ErrBackendNil
	}

	s := &Store{backend: backend}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return s, nil
}

// Read returns the stored token, or "" when there is none. Backend failures
// are logged and read as an absent token.
func (s *Store) Read(ctx context.Context) string {
	token, ok, err := s.backend.GetItem(ctx, TokenKey)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("Failed to read token, treating session as absent", "error", err)
		}
		return ""
	}
	if !ok {
		return ""
	}

	return token
}

// Write stores token, overwriting any previous one.
func (s *Store) Write(ctx context.Context, token string) error {
	if err := s.backend.SetItem(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("write token: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("Stored token")
	}

	return nil
}

// Roles returns the stored role list. A missing or undecodable list is empty.
func (s *Store) Roles(ctx context.Context) []string {
	raw, ok, err := s.backend.GetItem(ctx, RolesKey)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("Failed to read roles", "error", err)
		}
		return []string{}
	}
	if !ok || raw == "" {
		return []string{}
	}

	var roles []string
	if err := json.Unmarshal([]byte(raw), &roles); err != nil {
		if s.logger != nil {
			s.logger.Warn("Stored roles are not a JSON array", "error", err)
		}
		return []string{}
	}
	if roles == nil {
		return []string{}
	}

	return roles
}

// WriteRoles stores roles as a JSON array. A nil list is stored as [].
func (s *Store) WriteRoles(ctx context.Context, roles []string) error {
	if roles == nil {
		roles = []string{}
	}

	raw, err := json.Marshal(roles)
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}

	if err := s.backend.SetItem(ctx, RolesKey, string(raw)); err != nil {
		return fmt.Errorf("write roles: %w", err)
	}

	return nil
}

// Save stores the result of a successful login.
func (s *Store) Save(ctx context.Context, token string, roles []string) error {
	if err := s.Write(ctx, token); err != nil {
		return err
	}

	return s.WriteRoles(ctx, roles)
}

// Clear removes the token and the role list. Clearing an empty store is a
// no-op, so concurrent callers may all clear.
func (s *Store) Clear(ctx context.Context) error {
	var errs []error

	if err := s.backend.RemoveItem(ctx, TokenKey); err != nil {
		errs = append(errs, fmt.Errorf("remove token: %w", err))
	}
	if err := s.backend.RemoveItem(ctx, RolesKey); err != nil {
		errs = append(errs, fmt.Errorf("remove roles: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		if s.logger != nil {
			s.logger.Error("Failed to clear session", "error", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Debug("Cleared session")
	}

	return nil
}
