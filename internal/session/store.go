// Package session keeps the tab-wide record of who is logged in.
//
// The record lives in two places: tab-durable storage (two keys, userId and
// userEmail) and an in-memory copy every view reads. The in-memory copy only
// changes after the durable write succeeded, so the two never disagree in a
// way a view could observe: after Establish returns nil both hold the
// identity, after Clear returns both are empty.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ieraasyl/SavorViews/internal/models"
	"github.com/rs/zerolog/log"
)

// Durable storage keys.
const (
	KeyUserID    = "userId"
	KeyUserEmail = "userEmail"
)

// ErrIncompleteIdentity is returned by Establish when either half of the
// identity is empty.
var ErrIncompleteIdentity = errors.New("user id and email are both required")

// Storage is tab-scoped key/value storage. cache.TabStorage implements it
// on Redis and MemoryStorage in process.
type Storage interface {
	GetItem(ctx context.Context, name string) (string, bool, error)
	SetItem(ctx context.Context, name, value string) error
	RemoveItem(ctx context.Context, name string) error
}

// Store is the single source of truth for authenticated vs anonymous.
type Store struct {
	storage Storage

	mu      sync.RWMutex
	current models.Session
}

// NewStore loads any identity already present in storage. A record with
// only one of the two keys is treated as anonymous and the orphaned key is
// removed.
//
// Example:
//
//	store, err := session.NewStore(ctx, cache.NewTabStorage(c, cfg.Tab.ID, cfg.Tab.TTL))
//	if err != nil {
//	    return fmt.Errorf("failed to restore session: %w", err)
//	}
func NewStore(ctx context.Context, storage Storage) (*Store, error) {
	s := &Store{storage: storage}

	sess, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.current = sess

	if sess.Authenticated() {
		log.Info().
			Str("user_id", sess.UserID.String()).
			Msg("Session restored from tab storage")
	}
	return s, nil
}

// load reads the durable record, repairing a partial one.
func (s *Store) load(ctx context.Context) (models.Session, error) {
	userID, hasID, err := s.storage.GetItem(ctx, KeyUserID)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to read %s: %w", KeyUserID, err)
	}
	email, hasEmail, err := s.storage.GetItem(ctx, KeyUserEmail)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to read %s: %w", KeyUserEmail, err)
	}

	switch {
	case hasID && hasEmail && userID != "" && email != "":
		return models.Session{UserID: models.ID(userID), UserEmail: email}, nil
	case hasID || hasEmail:
		log.Warn().
			Bool("has_user_id", hasID).
			Bool("has_user_email", hasEmail).
			Msg("Partial session record discarded")
		if err := s.removeBoth(ctx); err != nil {
			return models.Session{}, err
		}
	}
	return models.Session{}, nil
}

// Establish persists the identity, then publishes it in memory. If the
// durable write fails the in-memory session is unchanged and no partial
// record is left behind.
func (s *Store) Establish(ctx context.Context, userID models.ID, email string) error {
	if userID.IsZero() || email == "" {
		return ErrIncompleteIdentity
	}

	if err := s.storage.SetItem(ctx, KeyUserID, userID.String()); err != nil {
		return fmt.Errorf("failed to store %s: %w", KeyUserID, err)
	}
	if err := s.storage.SetItem(ctx, KeyUserEmail, email); err != nil {
		if rbErr := s.storage.RemoveItem(ctx, KeyUserID); rbErr != nil {
			log.Error().Err(rbErr).Msg("Failed to roll back partial session")
		}
		return fmt.Errorf("failed to store %s: %w", KeyUserEmail, err)
	}

	s.mu.Lock()
	s.current = models.Session{UserID: userID, UserEmail: email}
	s.mu.Unlock()

	log.Info().
		Str("user_id", userID.String()).
		Msg("Session established")
	return nil
}

// Clear removes the identity from storage and memory. Memory is cleared
// even when storage fails, so the tab presents as anonymous; the error is
// still returned.
func (s *Store) Clear(ctx context.Context) error {
	err := s.removeBoth(ctx)

	s.mu.Lock()
	s.current = models.Session{}
	s.mu.Unlock()

	log.Info().Msg("Session cleared")
	return err
}

func (s *Store) removeBoth(ctx context.Context) error {
	idErr := s.storage.RemoveItem(ctx, KeyUserID)
	emailErr := s.storage.RemoveItem(ctx, KeyUserEmail)
	if err := errors.Join(idErr, emailErr); err != nil {
		return fmt.Errorf("failed to remove session record: %w", err)
	}
	return nil
}

// Current returns the in-memory session.
func (s *Store) Current() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Durable reads the session straight from storage, bypassing memory.
func (s *Store) Durable(ctx context.Context) (models.Session, error) {
	userID, _, err := s.storage.GetItem(ctx, KeyUserID)
	if err != nil {
		return models.Session{}, err
	}
	email, _, err := s.storage.GetItem(ctx, KeyUserEmail)
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{UserID: models.ID(userID), UserEmail: email}, nil
}
