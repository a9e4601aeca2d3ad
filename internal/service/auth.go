package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/target/kb-ui-api/internal/core"
	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
	"github.com/target/kb-ui-api/internal/domain/model"
	"github.com/target/kb-ui-api/internal/ports"
)

const defaultSessionTTL = 8 * time.Hour

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider   ports.IdentityProvider
	States     ports.StateStore
	Sessions   ports.SessionStore
	Users      core.UserRepository
	SessionTTL time.Duration
	Now        func() time.Time // test hook
}

// AuthService orchestrates the login handshake: state issue, code exchange,
// profile resolution, account upsert, and session persistence.
type AuthService struct {
	provider   ports.IdentityProvider
	states     ports.StateStore
	sessions   ports.SessionStore
	users      core.UserRepository
	sessionTTL time.Duration
	now        func() time.Time
}

var errSessionExpired = errors.New("session expired")

// ErrMissingCode is returned when the callback arrived with a valid state but
// no authorization code.
var ErrMissingCode = errors.New("authorization code is required")

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		provider:   opts.Provider,
		states:     opts.States,
		sessions:   opts.Sessions,
		users:      opts.Users,
		sessionTTL: ttl,
		now:        now,
	}
}

// BeginLoginInput groups parameters for starting a login flow.
type BeginLoginInput struct {
	// OriginSessionID ties the attempt to the browser's current (guest)
	// session when one exists.
	OriginSessionID string
	// RedirectTarget is the in-app path to land on after the callback.
	RedirectTarget string
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
}

// BeginLogin issues a single-use state token and returns the provider
// authorize URL carrying it.
func (s *AuthService) BeginLogin(ctx context.Context, input BeginLoginInput) (*BeginLoginResult, error) {
	state, err := s.states.Issue(ctx, ports.IssueInput{
		OriginSessionID: input.OriginSessionID,
		RedirectTarget:  input.RedirectTarget,
	})
	if err != nil {
		return nil, fmt.Errorf("issue state: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: s.provider.AuthorizeURL(state),
		State:   state,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	// SessionState is the state token recorded on the caller's session at
	// login time, when available. It validates callbacks that land on an
	// instance whose in-memory state store never saw the token (or after a
	// restart), as long as the browser still holds the originating session.
	SessionState string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session        domainauth.Session
	RedirectTarget string
}

// CompleteLogin validates the callback state, exchanges the code, resolves
// the profile, upserts the account, and persists an authenticated session.
// The exchange is attempted at most once; authorization codes are single-use
// by provider contract.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.State == "" {
		return nil, domainauth.ErrStateInvalid
	}

	// State is validated (and consumed) before anything else, so a bad code
	// still burns the token.
	rec, err := s.states.Consume(ctx, input.State)
	switch {
	case err == nil:
		// State store is authoritative.
	case errors.Is(err, domainauth.ErrStateInvalid):
		// Fall back to the state bound to the caller's own session.
		if input.SessionState == "" || input.SessionState != input.State {
			return nil, domainauth.ErrStateInvalid
		}
		rec = domainauth.StateRecord{Token: input.State}
	default:
		return nil, fmt.Errorf("consume state: %w", err)
	}

	if input.Code == "" {
		return nil, ErrMissingCode
	}

	tokens, err := s.provider.Exchange(ctx, input.Code)
	if err != nil {
		return nil, err
	}

	profile, err := s.provider.FetchProfile(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UpsertByProviderID(ctx, &model.UpsertUserRequest{
		ProviderID:  profile.ID,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		AvatarURI:   profile.AvatarDataURI,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	session := domainauth.Session{
		ID:          uuid.New().String(),
		User:        profile,
		Role:        user.Role,
		AccessToken: tokens.AccessToken,
		ExpiresAt:   s.now().Add(s.sessionTTL),
	}

	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, &domainauth.SessionPersistError{Err: saveErr}
	}

	return &CompleteLoginResult{
		Session:        session,
		RedirectTarget: rec.RedirectTarget,
	}, nil
}

// BindPendingState records an issued state token on the caller's session so
// the callback can validate against it when the state store cannot.
func (s *AuthService) BindPendingState(ctx context.Context, sessionID, state string) error {
	if sessionID == "" {
		return nil
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domainauth.ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("get session: %w", err)
	}

	sess.OAuthState = state
	if saveErr := s.sessions.Save(ctx, sess); saveErr != nil {
		return fmt.Errorf("save session: %w", saveErr)
	}
	return nil
}

// GuestSession creates and persists an unauthenticated session. Browsers get
// one on first contact so login attempts have an origin to bind state to.
func (s *AuthService) GuestSession(ctx context.Context) (*domainauth.Session, error) {
	session := domainauth.Session{
		ID:        uuid.New().String(),
		Role:      domainauth.RoleGuest,
		ExpiresAt: s.now().Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, &domainauth.SessionPersistError{Err: err}
	}
	return &session, nil
}

// GetSession retrieves a session by ID, deleting it when expired.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, domainauth.ErrSessionNotFound
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.now().After(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}

	return &session, nil
}

// Logout removes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to logout
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}
