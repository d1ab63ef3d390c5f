package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"authgate/internal/auth"
	"authgate/internal/kv"
)

const (
	stateCookieName   = "state"
	sessionCookieName = "session"
	stateCookieTTL    = 10 * time.Minute
)

// codeExchanger abstracts the identity provider for the login flow.
type codeExchanger interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.TokenResponse, error)
}

// OAuthHandler drives the authorization-code login flow: the authorize
// redirect with CSRF state, the callback exchange, ID-token validation, and
// session issuance.
type OAuthHandler struct {
	provider codeExchanger
	store    kv.Store
	users    *auth.Directory
	sessions *auth.SessionManager
	settings auth.Settings
	logger   *slog.Logger
}

// NewOAuthHandler creates an OAuthHandler.
func NewOAuthHandler(provider codeExchanger, store kv.Store, users *auth.Directory, sessions *auth.SessionManager, settings auth.Settings, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		provider: provider,
		store:    store,
		users:    users,
		sessions: sessions,
		settings: settings,
		logger:   logger,
	}
}

// Login handles GET /auth/login. It stores a fresh CSRF state in a
// short-lived cookie and redirects the browser to the provider's authorize
// endpoint with the same state embedded.
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate state", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(stateCookieTTL.Seconds()),
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// Callback handles GET /callback?code&state. The state query parameter must
// exactly match the cookie set during Login; the cookie is consumed either
// way (single use). A matching state proceeds through code exchange, token
// validation, user get-or-create, and session creation.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil {
		h.logger.Warn("callback: missing state cookie")
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	h.clearCookie(w, stateCookieName)

	state := r.URL.Query().Get("state")
	if subtle.ConstantTimeCompare([]byte(state), []byte(stateCookie.Value)) != 1 {
		h.logger.Warn("callback: state mismatch")
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.logger.Warn("callback: missing authorization code")
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	tokens, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("callback: token exchange failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	pubKey, err := h.store.Get(r.Context(), kv.KeyPubKeyPEM)
	if err != nil {
		h.logger.Error("callback: signing key unavailable", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	payload, err := auth.ValidateToken(pubKey, tokens.IDToken, h.settings.ClientID, h.settings.Domain)
	if err != nil {
		h.logger.Warn("callback: id token rejected", "error", err)
		h.writeAuthError(w, err)
		return
	}

	user, err := h.users.GetOrCreate(r.Context(), payload.UserID, payload.Email)
	if err != nil {
		h.logger.Error("callback: user lookup failed", "error", err)
		h.writeAuthError(w, err)
		return
	}

	sessionKey, err := h.sessions.Create(r.Context(), user.UserID, payload.Exp, []byte(tokens.IDToken))
	if err != nil {
		h.logger.Error("callback: session creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionKey,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("login successful", "user_id", user.UserID)
	http.Redirect(w, r, "/loggedin", http.StatusSeeOther)
}

// Logout clears the session cookie. The stored session record is left to age
// out on its own.
func (h *OAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, sessionCookieName)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *OAuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
	})
}

// writeAuthError maps the closed validation error set onto coarse HTTP
// statuses: structurally malformed tokens are a bad request, rejected claims
// are unauthorized, anything else is internal.
func (h *OAuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	var malformed *auth.MalformedJWTError
	switch {
	case errors.As(err, &malformed):
		writeError(w, http.StatusBadRequest, "bad request")
	case errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrAudienceMismatch),
		errors.Is(err, auth.ErrIssuerMismatch):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
