package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/printdesk/printdesk/internal/rbac"
)

// IdentityStore persists the current identity as an opaque blob under one key.
// shared.Session implements it for HTTP sessions.
type IdentityStore interface {
	LoadIdentity() []byte
	SaveIdentity(blob []byte)
	ClearIdentity()
}

// Session holds at most one authenticated identity. Lifecycle: Init (restore the
// persisted identity, if any) → Authenticate → Clear.
type Session struct {
	store   IdentityStore
	service *Service
	user    *User
}

// NewSession binds a session to its store.
func NewSession(store IdentityStore, service *Service) *Session {
	return &Session{store: store, service: service}
}

// Init restores the persisted identity. An unreadable blob is discarded.
func (s *Session) Init() error {
	s.user = nil
	blob := s.store.LoadIdentity()
	if len(blob) == 0 {
		return nil
	}
	var u User
	if err := json.Unmarshal(blob, &u); err != nil {
		s.store.ClearIdentity()
		return fmt.Errorf("auth: restore identity: %w", err)
	}
	s.user = &u
	return nil
}

// Authenticate signs in and persists the identity. On failure the previous
// identity, if any, is kept.
func (s *Session) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.service.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	blob, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("auth: persist identity: %w", err)
	}
	s.store.SaveIdentity(blob)
	s.user = user
	return user, nil
}

// Clear signs out.
func (s *Session) Clear() {
	s.user = nil
	s.store.ClearIdentity()
}

// User returns the signed-in identity.
func (s *Session) User() (*User, bool) {
	if s == nil || s.user == nil {
		return nil, false
	}
	return s.user, true
}

// HasPermission consults the static role table for the signed-in identity.
func (s *Session) HasPermission(tag string) bool {
	u, ok := s.User()
	if !ok {
		return false
	}
	return rbac.HasPermission(u.Role, tag)
}

// CanAccess is the coarse department/role gate used for navigation.
func (s *Session) CanAccess(departments []rbac.Department, roles ...rbac.Role) bool {
	u, ok := s.User()
	if !ok {
		return false
	}
	return rbac.CanAccess(u, departments, roles...)
}

// MemoryStore is an IdentityStore kept in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	blob []byte
}

// LoadIdentity implements IdentityStore.
func (m *MemoryStore) LoadIdentity() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.blob) == 0 {
		return nil
	}
	return append([]byte(nil), m.blob...)
}

// SaveIdentity implements IdentityStore.
func (m *MemoryStore) SaveIdentity(blob []byte) {
	m.mu.Lock()
	m.blob = append([]byte(nil), blob...)
	m.mu.Unlock()
}

// ClearIdentity implements IdentityStore.
func (m *MemoryStore) ClearIdentity() {
	m.mu.Lock()
	m.blob = nil
	m.mu.Unlock()
}

type sessionContextKey struct{}

// ContextWithSession stores the identity session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the identity session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// UserFromContext returns the signed-in user of the request, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	return SessionFromContext(ctx).User()
}

// PrincipalFromContext adapts UserFromContext for rbac.Middleware.
func PrincipalFromContext(ctx context.Context) rbac.Principal {
	u, ok := UserFromContext(ctx)
	if !ok {
		return nil
	}
	return *u
}
