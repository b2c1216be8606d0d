// Package session holds the server-side session records backing the single
// impact_session cookie: one Redis record per session, a per-user index set,
// and a pub/sub channel carrying auth-state changes.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix   = "auth:session:" // Session record: auth:session:{session_id}
	userSessionPrefix  = "auth:user:"    // Set of session IDs for a user: auth:user:{user_id}
	eventChannelPrefix = "auth:events:"  // Pub/Sub channel for auth events: auth:events:{user_id}
)

// Session mirrors the provider's token pair into a server-side record.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Expired reports whether the access token is past (or within skew of) its
// expiry and needs a refresh before use.
func (s *Session) Expired(skew time.Duration) bool {
	return time.Now().Add(skew).After(s.ExpiresAt)
}

// Event is published on the user's auth channel on every state change.
type Event struct {
	Type      string    `json:"type"` // signed_in | refreshed | signed_out
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
}

// Store handles Redis operations for sessions.
type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewStore(client redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) sessionKey(id string) string       { return sessionKeyPrefix + id }
func (s *Store) userKey(userID string) string      { return userSessionPrefix + userID }
func (s *Store) eventChannel(userID string) string { return eventChannelPrefix + userID }

// Save writes the record and indexes it under the user, both with the store
// TTL.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.sessionKey(sess.ID), data, s.ttl)
	pipe.SAdd(ctx, s.userKey(sess.UserID), sess.ID)
	pipe.Expire(ctx, s.userKey(sess.UserID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get loads a session record. A missing record returns (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, s.sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Delete removes the record and its index entry.
func (s *Store) Delete(ctx context.Context, sess *Session) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.sessionKey(sess.ID))
	pipe.SRem(ctx, s.userKey(sess.UserID), sess.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Publish emits an auth event on the user's channel. Best-effort: a publish
// failure never fails the auth operation itself.
func (s *Store) Publish(ctx context.Context, userID string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.client.Publish(ctx, s.eventChannel(userID), data).Err()
}

// Subscribe opens the user's auth-event channel. The caller owns the
// returned PubSub and must Close it.
func (s *Store) Subscribe(ctx context.Context, userID string) *redis.PubSub {
	return s.client.Subscribe(ctx, s.eventChannel(userID))
}

// UserSessionIDs lists the indexed session IDs for a user.
func (s *Store) UserSessionIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	return ids, nil
}

// PruneUserIndex drops index entries whose session record has expired.
// Records expire via TTL; their index entries linger until this runs.
func (s *Store) PruneUserIndex(ctx context.Context, userID string) (int, error) {
	ids, err := s.UserSessionIDs(ctx, userID)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, id := range ids {
		exists, err := s.client.Exists(ctx, s.sessionKey(id)).Result()
		if err != nil {
			return pruned, fmt.Errorf("check session %s: %w", id, err)
		}
		if exists == 0 {
			if err := s.client.SRem(ctx, s.userKey(userID), id).Err(); err != nil {
				return pruned, fmt.Errorf("prune session %s: %w", id, err)
			}
			pruned++
		}
	}
	return pruned, nil
}

// IndexedUsers scans the user index keys, for maintenance jobs.
func (s *Store) IndexedUsers(ctx context.Context) ([]string, error) {
	var users []string
	iter := s.client.Scan(ctx, 0, userSessionPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		users = append(users, iter.Val()[len(userSessionPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan user indexes: %w", err)
	}
	return users, nil
}
