package backend

import (
	"sync"

	"github.com/google/uuid"
)

// Session holds the current user identity as resolved by the external
// auth flow. The core only ever asks whether an identity is present;
// it never authenticates. An anonymous session still carries a stable
// device id for local-only bookkeeping.
type Session struct {
	mu       sync.RWMutex
	userID   string
	deviceID string
}

// NewSession creates a session. userID may be empty (anonymous).
// deviceID, if empty, is generated and should be persisted by the caller
// so it stays stable across restarts.
func NewSession(userID, deviceID string) *Session {
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	return &Session{userID: userID, deviceID: deviceID}
}

// UserID implements domain.Identity.
func (s *Session) UserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.userID != ""
}

// DeviceID returns the stable anonymous installation identifier.
func (s *Session) DeviceID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deviceID
}

// SetUser updates the resolved identity after sign-in or sign-out.
func (s *Session) SetUser(userID string) {
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
}
