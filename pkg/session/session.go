// Package session provides storage for boards being edited on the server.
//
// A session holds an imported board document plus the rules it is being
// checked against, keyed by a generated id. Implementations for
// different backends:
//   - memory: In-memory storage for development/testing
//   - file: File-based storage for single-instance deployments
//   - mongo: MongoDB-backed storage for production multi-instance deployments
//
// # Architecture
//
// Sessions expire automatically. The Store interface supports:
//   - Get/Set/Delete operations
//   - Automatic expiration checking
//   - Cleanup of expired sessions
//   - Close for backends holding connections
//
// # Usage
//
// Create a session store:
//
//	// Development
//	store := session.NewMemoryStore()
//
//	// Production
//	store, err := session.NewMongoStore(ctx, "mongodb://localhost:27017", "copperview")
//
//	// Single instance
//	store, err := session.NewFileStore("")  // Uses ~/.config/copperview/sessions/
//
// Manage sessions:
//
//	sess := session.New("main-board", sourceJSON, session.DefaultTTL)
//	store.Set(ctx, sess)
//
//	sess, err := store.Get(ctx, sessionID)
//	if err != nil {
//	    return err
//	}
//	if sess == nil {
//	    // Session not found or expired
//	}
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New("expired")
)

// Session stores a board under edit plus the rules applied to it.
// Source holds the imported board document as JSON so any server
// instance can rebuild the geometry.
type Session struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Source      []byte    `json:"source" bson:"source"`
	ClearanceMM float64   `json:"clearance_mm" bson:"clearance_mm"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
	ExpiresAt   time.Time `json:"expires_at" bson:"expires_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch extends the session lifetime and bumps the update timestamp.
func (s *Session) Touch(ttl time.Duration) {
	now := time.Now()
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(ttl)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions (optional, may be no-op).
	Cleanup(ctx context.Context) error

	// Close releases backend resources. No-op for backends without any.
	Close(ctx context.Context) error
}

// DefaultTTL is the default session duration.
const DefaultTTL = 24 * time.Hour

// New creates a new session holding the given board document.
func New(name string, source []byte, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Name:      name,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}
