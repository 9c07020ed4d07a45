// Package session holds the authenticated identity and role context for the
// client. The store is injectable state, not a global: anything needing the
// session receives a *Store.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ticketbooth/internal/model"
)

// Identity resolves the canonical user record for the current token.
// *api.Client satisfies this.
type Identity interface {
	Me(ctx context.Context) (model.User, error)
}

// Store is the process-wide session state. Memory and durable storage are
// updated together under one lock, so no reader observes a half-committed
// session.
type Store struct {
	mu      sync.RWMutex
	storage Storage

	token     string
	role      model.Role
	user      model.User
	expiresAt time.Time
	loading   bool
}

// NewStore creates a guest-role store that reports Loading until Restore
// has settled.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage, role: model.RoleGuest, loading: true}
}

// Restore hydrates the session from durable storage and verifies it against
// the identity endpoint. The persisted role is only a hint; /me is ground
// truth. Any verification failure clears both memory and storage, leaving a
// guest session. The store reports Loading()==false after Restore returns,
// whatever the outcome.
func (s *Store) Restore(ctx context.Context, ident Identity) error {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	st, err := s.storage.Load()
	if err != nil || st.Token == "" {
		return err
	}

	s.mu.Lock()
	s.token = st.Token
	s.role = st.Role
	s.user = st.User
	s.expiresAt = tokenExpiry(st.Token)
	s.mu.Unlock()

	user, err := ident.Me(ctx)
	if err != nil {
		// Unverifiable session is treated as anonymous.
		_ = s.Logout()
		return err
	}

	s.mu.Lock()
	s.user = user
	s.role = user.Role
	s.mu.Unlock()
	return nil
}

// SetAuth commits a freshly authenticated session to memory and durable
// storage atomically.
func (s *Store) SetAuth(token string, role model.Role, user model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.role = role
	s.user = user
	s.expiresAt = tokenExpiry(token)
	return s.storage.Save(State{Token: token, Role: role, User: user})
}

// Logout clears memory and durable storage atomically.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.role = model.RoleGuest
	s.user = model.User{}
	s.expiresAt = time.Time{}
	return s.storage.Clear()
}

// Token returns the current bearer token, "" when anonymous. Usable as an
// api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Role returns the current role. Not authoritative while Loading is true.
func (s *Store) Role() model.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// User returns the current user record.
func (s *Store) User() model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Loading reports whether Restore has not yet settled.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// ExpiresAt returns the token expiry parsed from its claims, zero when
// unknown. Diagnostic only; the server enforces expiry.
func (s *Store) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Credentials returns the token and user id needed for a protected
// reservation action. ok is false when either is missing.
func (s *Store) Credentials() (token, userID string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.user.ID == "" {
		return "", "", false
	}
	return s.token, s.user.ID, true
}

// tokenExpiry parses the exp claim without validating the signature; the
// client has no key and only wants the timestamp for display.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Time{}
}
