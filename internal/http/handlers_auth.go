package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/target/kb-ui-api/internal/domain/auth"
	"github.com/target/kb-ui-api/internal/service"
)

const sessionCookieName = "session_id"

// AuthSessionReader is the slice of the auth service middleware needs.
type AuthSessionReader interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, input service.BeginLoginInput) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	BindPendingState(ctx context.Context, sessionID, state string) error
	GuestSession(ctx context.Context) (*domainauth.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	// LoginPage is the in-app page the browser is sent back to with an
	// error code when the handshake fails.
	LoginPage string
	Logger    *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) loginPage() string {
	if h != nil && h.LoginPage != "" {
		return h.LoginPage
	}
	return "/login"
}

// Login handles the login initiation endpoint.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	// Ensure the browser has a session to tie the attempt to; it carries the
	// state copy the callback can fall back on.
	originSession := h.ensureSession(w, r)

	originID := ""
	if originSession != nil {
		originID = originSession.ID
	}

	result, err := h.Svc.BeginLogin(r.Context(), service.BeginLoginInput{
		OriginSessionID: originID,
		RedirectTarget:  redirectURI,
	})
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("could not start login"),
		})
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		return
	}

	if originID != "" {
		if bindErr := h.Svc.BindPendingState(r.Context(), originID, result.State); bindErr != nil {
			h.logger().WarnContext(r.Context(), "bind pending state failed", "error", bindErr)
		}
	}

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback handles the OAuth callback endpoint.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// Provider-reported error (user denied consent, tenant policy, ...).
	if providerErr := q.Get("error"); providerErr != "" {
		h.logger().WarnContext(r.Context(), "provider returned error",
			"error", providerErr, "description", q.Get("error_description"))
		h.redirectWithError(w, r, providerErr)
		return
	}

	// The caller's own session may hold the state copy for cross-instance
	// validation.
	sessionState, originSessionID := "", ""
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if sess, getErr := h.Svc.GetSession(r.Context(), cookie.Value); getErr == nil {
			sessionState = sess.OAuthState
			originSessionID = sess.ID
		}
	}

	// The exchange must run to completion even when the browser disconnects,
	// otherwise the single-use code stays exchangeable upstream. The provider
	// client carries its own timeout, so this cannot hang indefinitely.
	result, err := h.Svc.CompleteLogin(context.WithoutCancel(r.Context()), service.CompleteLoginInput{
		Code:         q.Get("code"),
		State:        q.Get("state"),
		SessionState: sessionState,
	})
	if err != nil {
		h.writeCallbackError(w, r, err)
		return
	}

	// The guest session served its purpose; drop it so only the
	// authenticated one remains.
	if originSessionID != "" {
		if logoutErr := h.Svc.Logout(r.Context(), originSessionID); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "drop origin session failed", "error", logoutErr)
		}
	}

	h.setSessionCookie(w, r, result.Session)

	target := result.RedirectTarget
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, safeRedirectPath(target), http.StatusFound)
}

// writeCallbackError converts handshake failures into coarse redirect codes.
// Upstream detail is logged, never shown to the browser.
func (h *AuthHandlers) writeCallbackError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		upstream   *domainauth.UpstreamAuthError
		transport  *domainauth.TransportError
		profileErr *domainauth.ProfileFetchError
		persistErr *domainauth.SessionPersistError
	)

	switch {
	case errors.Is(err, domainauth.ErrStateInvalid):
		h.redirectWithError(w, r, "invalid_state")
	case errors.Is(err, service.ErrMissingCode):
		h.redirectWithError(w, r, "missing_code")
	case errors.As(err, &upstream):
		h.logger().WarnContext(r.Context(), "token exchange rejected",
			"status", upstream.StatusCode, "body", upstream.Body)
		h.redirectWithError(w, r, "auth_failed")
	case errors.As(err, &transport), errors.As(err, &profileErr):
		h.logger().ErrorContext(r.Context(), "login completion failed", "error", err)
		h.redirectWithError(w, r, "auth_failed")
	case errors.As(err, &persistErr):
		h.logger().ErrorContext(r.Context(), "session persist failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "session_error",
			Err:     errors.New("could not establish session"),
		})
	default:
		h.logger().ErrorContext(r.Context(), "login completion failed", "error", err)
		h.redirectWithError(w, r, "auth_failed")
	}
}

func (h *AuthHandlers) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	u := url.URL{Path: h.loginPage()}
	q := url.Values{}
	q.Set("error", code)
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}

// Logout handles the logout endpoint.
// GET|POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionCookie, err := r.Cookie(sessionCookieName); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), sessionCookie.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}

	h.clearCookie(w, r, sessionCookieName)

	isAJAX := strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
	if isAJAX {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
		return
	}

	redirectURI := safeRedirectPath(r.FormValue("redirect_uri"))
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// Me returns the authenticated principal.
// GET /auth/me.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	sessionCookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		h.writeUnauthenticated(w)
		return
	}

	session, err := h.Svc.GetSession(r.Context(), sessionCookie.Value)
	if err != nil {
		// Session is invalid or expired.
		h.clearCookie(w, r, sessionCookieName)
		h.writeUnauthenticated(w)
		return
	}
	if !session.Authenticated() {
		// A live guest session keeps its cookie; it may be carrying a
		// pending login state.
		h.writeUnauthenticated(w)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":           session.User.ID,
			"email":        session.User.Email,
			"display_name": session.User.DisplayName,
			"avatar":       session.User.AvatarDataURI,
			"role":         session.Role,
		},
		"expires_at": session.ExpiresAt,
	})
}

func (h *AuthHandlers) writeUnauthenticated(w http.ResponseWriter) {
	WriteJSON(w, http.StatusUnauthorized, map[string]any{
		"authenticated": false,
	})
}

// ensureSession returns the caller's current session, creating and setting a
// guest session cookie when there is none.
func (h *AuthHandlers) ensureSession(w http.ResponseWriter, r *http.Request) *domainauth.Session {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if sess, getErr := h.Svc.GetSession(r.Context(), cookie.Value); getErr == nil {
			return sess
		}
	}

	sess, err := h.Svc.GuestSession(r.Context())
	if err != nil {
		h.logger().WarnContext(r.Context(), "guest session creation failed", "error", err)
		return nil
	}
	h.setSessionCookie(w, r, *sess)
	return sess
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecure,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}
