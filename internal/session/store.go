package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// CookieName is the browser cookie carrying the session ID.
const CookieName = "cellardoor_session"

// ErrSessionNotFound is returned when a session ID is unknown or expired.
var ErrSessionNotFound = errors.New("user session not found")

// Session represents a logged-in resource owner.
type Session struct {
	ID              string
	Username        string
	AuthenticatedAt time.Time
}

// Store keeps active sessions in memory with automatic expiry. Losing
// sessions on restart only means the resource owner logs in again.
type Store struct {
	cache *ttlcache.Cache[string, *Session]
}

// NewStore creates a session store whose entries live for ttl after their
// last use.
func NewStore(ttl time.Duration) *Store {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *Session](ttl),
	)

	// Start the cleanup process
	go cache.Start()

	return &Store{cache: cache}
}

// Create registers a fresh session for username and returns it.
func (s *Store) Create(username string) *Session {
	sess := &Session{
		ID:              uuid.NewString(),
		Username:        username,
		AuthenticatedAt: time.Now(),
	}
	s.cache.Set(sess.ID, sess, ttlcache.DefaultTTL)

	return sess
}

// Get returns the session for id, or ErrSessionNotFound when it is unknown
// or has expired.
func (s *Store) Get(id string) (*Session, error) {
	item := s.cache.Get(id)
	if item == nil {
		return nil, ErrSessionNotFound
	}

	return item.Value(), nil
}

// Delete ends a session.
func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

// Count returns the number of active sessions.
func (s *Store) Count() int {
	return s.cache.Len()
}

// Close stops the cleanup goroutine.
func (s *Store) Close() {
	s.cache.Stop()
}
