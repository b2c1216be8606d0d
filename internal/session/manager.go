package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/impactlens/impact-backend/internal/provider"
)

const (
	EventSignedIn  = "signed_in"
	EventRefreshed = "refreshed"
	EventSignedOut = "signed_out"
)

// Manager issues, resolves and destroys sessions. Resolve transparently
// refreshes the provider token pair when it is about to expire; a failed
// refresh settles the request into anonymous rather than erroring.
type Manager struct {
	store       *Store
	auth        *provider.Client
	refreshSkew time.Duration
}

func NewManager(store *Store, auth *provider.Client, refreshSkew time.Duration) *Manager {
	if refreshSkew == 0 {
		refreshSkew = 60 * time.Second
	}
	return &Manager{store: store, auth: auth, refreshSkew: refreshSkew}
}

func (m *Manager) Store() *Store { return m.store }

// Issue creates a session from a provider token pair and publishes the
// signed_in event.
func (m *Manager) Issue(ctx context.Context, pair *provider.TokenPair) (*Session, error) {
	claims, err := ParseAccessToken(pair.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	now := time.Now().UTC()
	sess := &Session{
		ID:           uuid.NewString(),
		UserID:       claims.Subject,
		Email:        claims.Email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    claims.ExpiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return nil, err
	}

	if err := m.store.Publish(ctx, sess.UserID, Event{Type: EventSignedIn, SessionID: sess.ID, At: now}); err != nil {
		log.Printf("[session] publish signed_in failed: %v", err)
	}
	return sess, nil
}

// Update swaps the token pair on an existing session (MFA upgrade, manual
// refresh) and publishes the refreshed event.
func (m *Manager) Update(ctx context.Context, sess *Session, pair *provider.TokenPair) (*Session, error) {
	claims, err := ParseAccessToken(pair.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	sess.AccessToken = pair.AccessToken
	sess.RefreshToken = pair.RefreshToken
	sess.ExpiresAt = claims.ExpiresAt
	sess.UpdatedAt = time.Now().UTC()

	if err := m.store.Save(ctx, sess); err != nil {
		return nil, err
	}

	if err := m.store.Publish(ctx, sess.UserID, Event{Type: EventRefreshed, SessionID: sess.ID, At: sess.UpdatedAt}); err != nil {
		log.Printf("[session] publish refreshed failed: %v", err)
	}
	return sess, nil
}

// Resolve maps a cookie value to the current session. Returns (nil, nil)
// for anonymous: no record, or an expired pair the provider refused to
// refresh.
func (m *Manager) Resolve(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, nil
	}

	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	if !sess.Expired(m.refreshSkew) {
		return sess, nil
	}

	pair, err := m.auth.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		// Stale pair: drop the record and settle into anonymous.
		log.Printf("[session] refresh failed for %s: %v", sess.ID, err)
		if derr := m.store.Delete(ctx, sess); derr != nil {
			log.Printf("[session] delete stale session %s: %v", sess.ID, derr)
		}
		return nil, nil
	}

	return m.Update(ctx, sess, pair)
}

// Destroy deletes the record and publishes signed_out. Missing records are
// not an error; sign-out must always succeed locally.
func (m *Manager) Destroy(ctx context.Context, sessionID string) error {
	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}

	if err := m.store.Delete(ctx, sess); err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := m.store.Publish(ctx, sess.UserID, Event{Type: EventSignedOut, SessionID: sess.ID, At: now}); err != nil {
		log.Printf("[session] publish signed_out failed: %v", err)
	}
	return nil
}
