package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/target/kb-ui-api/internal/core"
	"github.com/target/kb-ui-api/internal/data"
	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
	"github.com/target/kb-ui-api/internal/domain/model"
	"github.com/target/kb-ui-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
	_ ports.StateStore       = (*MemoryStateStore)(nil)
	_ ports.SessionStore     = (*MemorySessionStore)(nil)
	_ core.UserRepository    = (*MemoryUserRepo)(nil)
)

// MockIdentityProvider simulates an identity provider with deterministic
// responses. Override the Func fields to exercise failure paths.
type MockIdentityProvider struct {
	AuthorizeURLFunc func(state string) string
	ExchangeFunc     func(ctx context.Context, code string) (domainauth.TokenSet, error)
	FetchProfileFunc func(ctx context.Context, accessToken string) (domainauth.Principal, error)

	// Deterministic values for predictable testing
	BaseAuthURL string
	Profile     domainauth.Principal
}

// NewMockIdentityProvider creates a MockIdentityProvider with sensible defaults.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		BaseAuthURL: "https://mock-idp/authorize",
		Profile: domainauth.Principal{
			ID:            "mock-user-1",
			Email:         "mock.user@example.com",
			DisplayName:   "Mock User",
			AvatarDataURI: "https://ui-avatars.com/api/?name=Mock+User",
		},
	}
}

func (m *MockIdentityProvider) AuthorizeURL(state string) string {
	if m.AuthorizeURLFunc != nil {
		return m.AuthorizeURLFunc(state)
	}
	return fmt.Sprintf("%s?state=%s", m.BaseAuthURL, state)
}

func (m *MockIdentityProvider) Exchange(ctx context.Context, code string) (domainauth.TokenSet, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, code)
	}
	if code == "" {
		return domainauth.TokenSet{}, errors.New("authorization code is empty")
	}
	return domainauth.TokenSet{
		AccessToken: "mock-access-token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func (m *MockIdentityProvider) FetchProfile(ctx context.Context, accessToken string) (domainauth.Principal, error) {
	if m.FetchProfileFunc != nil {
		return m.FetchProfileFunc(ctx, accessToken)
	}
	return m.Profile, nil
}

// MemoryStateStore is an in-memory state store with deterministic tokens.
type MemoryStateStore struct {
	mu      sync.Mutex
	records map[string]domainauth.StateRecord
	counter int
}

// NewMemoryStateStore creates a new in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{records: make(map[string]domainauth.StateRecord)}
}

func (m *MemoryStateStore) Issue(_ context.Context, in ports.IssueInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	token := fmt.Sprintf("state-%d", m.counter)
	m.records[token] = domainauth.StateRecord{
		Token:           token,
		IssuedAt:        time.Now(),
		OriginSessionID: in.OriginSessionID,
		RedirectTarget:  in.RedirectTarget,
	}
	return token, nil
}

func (m *MemoryStateStore) Consume(_ context.Context, token string) (domainauth.StateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[token]
	delete(m.records, token)
	if !ok {
		return domainauth.StateRecord{}, domainauth.ErrStateInvalid
	}
	return rec, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil
	}
	delete(m.sessions, id)
	return nil
}

// MemoryUserRepo is an in-memory user repository keyed by provider ID.
type MemoryUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	counter int

	// DefaultRole is assigned to users created by UpsertByProviderID.
	DefaultRole domainauth.Role
}

// NewMemoryUserRepo creates a new in-memory user repository.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		byID:        make(map[string]*model.User),
		DefaultRole: domainauth.RoleUser,
	}
}

func (m *MemoryUserRepo) UpsertByProviderID(_ context.Context, req *model.UpsertUserRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, u := range m.byID {
		if u.ProviderID == req.ProviderID {
			u.Email = req.Email
			u.DisplayName = req.DisplayName
			u.AvatarURI = req.AvatarURI
			u.LastLoginAt = &now
			u.UpdatedAt = now
			out := *u
			return &out, nil
		}
	}

	m.counter++
	u := &model.User{
		ID:          fmt.Sprintf("user-%d", m.counter),
		ProviderID:  req.ProviderID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		AvatarURI:   req.AvatarURI,
		Role:        m.DefaultRole,
		LastLoginAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.byID[u.ID] = u
	out := *u
	return &out, nil
}

func (m *MemoryUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *MemoryUserRepo) GetByProviderID(_ context.Context, providerID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.ProviderID == providerID {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// List caps its result at the same default page size as the real repository
// so paging bugs do not hide behind the double.
func (m *MemoryUserRepo) List(_ context.Context, opts model.UsersListOptions) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	users := make([]*model.User, 0, len(m.byID))
	for _, u := range m.byID {
		if len(users) == limit {
			break
		}
		out := *u
		users = append(users, &out)
	}
	return users, nil
}

func (m *MemoryUserRepo) Count(_ context.Context, _ model.UsersListOptions) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID), nil
}

func (m *MemoryUserRepo) CountByRole(_ context.Context, role domainauth.Role) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, u := range m.byID {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

func (m *MemoryUserRepo) UpdateRole(_ context.Context, id string, role domainauth.Role) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	out := *u
	return &out, nil
}

func (m *MemoryUserRepo) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}

// ErrNotFound is returned by mocks when an entity is not present. It aliases
// the data-layer sentinel so handler error mapping behaves the same against
// the in-memory double as against the real repository.
var ErrNotFound = data.ErrUserNotFound
