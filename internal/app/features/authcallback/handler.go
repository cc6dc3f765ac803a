// internal/app/features/authcallback/handler.go
package authcallback

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chapelware/chapelhub/internal/app/system/auditlog"
	"github.com/chapelware/chapelhub/internal/app/system/auth"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/chapelware/chapelhub/internal/app/system/timeouts"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	stateCookieName = "chapelhub_oauth_state"
	stateTTL        = 10 * time.Minute
)

// Handler drives sign-in against the external identity provider. The
// provider owns credentials entirely; we only consume its subject id,
// email, and display name.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Audit      *auditlog.Logger

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string

	state *securecookie.SecureCookie
}

// NewHandler creates the identity-callback handler. hashKey and blockKey
// protect the state cookie; they come from app config alongside the session
// keys.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	clientID, clientSecret, baseURL, authURL, tokenURL, userInfoURL string,
	hashKey, blockKey []byte,
	logger *zap.Logger,
) *Handler {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(stateTTL.Seconds()))
	return &Handler{
		DB:           db,
		Log:          logger,
		SessionMgr:   sessionMgr,
		Audit:        audit,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/callback",
		AuthURL:      authURL,
		TokenURL:     tokenURL,
		UserInfoURL:  userInfoURL,
		state:        sc,
	}
}

// oauth2Config returns the provider OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  h.AuthURL,
			TokenURL: h.TokenURL,
		},
	}
}

// IsConfigured returns true if the identity provider is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// stateClaims travels through the signed state cookie across the redirect.
type stateClaims struct {
	Nonce     string `json:"nonce"`
	Return    string `json:"return,omitempty"`
	Invite    string `json:"invite,omitempty"`
	Subdomain string `json:"subdomain,omitempty"`
}

func generateNonce() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ServeLogin handles GET /auth/login. Optional query params: return (post
// sign-in redirect path) and invite (a facilitator invite token to claim).
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("identity provider not configured")
		http.Redirect(w, r, "/?error=auth_not_configured", http.StatusSeeOther)
		return
	}

	nonce, err := generateNonce()
	if err != nil {
		h.Log.Error("failed to generate state nonce", zap.Error(err))
		http.Redirect(w, r, "/?error=internal", http.StatusSeeOther)
		return
	}

	claims := stateClaims{
		Nonce:  nonce,
		Return: safeReturnPath(r.URL.Query().Get("return")),
		Invite: r.URL.Query().Get("invite"),
	}
	if t := tenant.FromRequest(r); t != nil {
		claims.Subdomain = t.Subdomain
	}

	encoded, err := h.state.Encode(stateCookieName, claims)
	if err != nil {
		h.Log.Error("failed to encode state cookie", zap.Error(err))
		http.Redirect(w, r, "/?error=internal", http.StatusSeeOther)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    encoded,
		Path:     "/auth",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(nonce), http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /auth/callback: validates state, exchanges the
// code, fetches the provider profile, and signs the user in. Students are
// provisioned on first sign-in when registration is open; invited
// facilitators are activated when the state carries their invite token.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("identity provider returned error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, "/?error=auth_denied", http.StatusSeeOther)
		return
	}

	claims, ok := h.readState(w, r)
	if !ok {
		http.Redirect(w, r, "/?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/?error=invalid_code", http.StatusSeeOther)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "oauth exchange")
	defer cancel()

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("oauth code exchange failed", zap.Error(err))
		http.Redirect(w, r, "/?error=token_exchange", http.StatusSeeOther)
		return
	}

	profile, err := h.fetchProfile(ctx, token)
	if err != nil {
		h.Log.Error("identity profile fetch failed", zap.Error(err))
		http.Redirect(w, r, "/?error=user_info", http.StatusSeeOther)
		return
	}

	t := tenant.FromRequest(r)

	// The resolved tenant must match the one that initiated sign-in;
	// a mismatch means the redirect crossed subdomains.
	if t != nil && claims.Subdomain != "" && t.Subdomain != claims.Subdomain {
		h.Log.Warn("oauth callback tenant mismatch",
			zap.String("started", claims.Subdomain),
			zap.String("resolved", t.Subdomain))
		http.Redirect(w, r, "/?error=invalid_state", http.StatusSeeOther)
		return
	}

	user, err := h.resolveUser(ctx, r, t, profile, claims.Invite)
	if err != nil {
		http.Redirect(w, r, "/?error="+err.Error(), http.StatusSeeOther)
		return
	}

	churchIDStr := ""
	if user.ChurchID != nil {
		churchIDStr = user.ChurchID.Hex()
	}
	if err := h.SessionMgr.SignIn(w, r, &auth.SessionUser{
		ID:       user.ID.Hex(),
		Name:     user.FullName,
		Email:    user.Email,
		Role:     user.Role,
		ChurchID: churchIDStr,
	}); err != nil {
		h.Log.Error("session sign-in failed", zap.Error(err))
		http.Redirect(w, r, "/?error=internal", http.StatusSeeOther)
		return
	}

	h.Audit.LoginSuccess(ctx, r, user.ID, user.ChurchID, profile.Subject)

	dest := claims.Return
	if dest == "" {
		dest = "/"
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// ServeLogout handles POST /auth/logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.Audit.Logout(r.Context(), r, u.ID, u.ChurchID)
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("sign-out failed", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// readState validates the state query parameter against the signed cookie
// and clears the cookie either way.
func (h *Handler) readState(w http.ResponseWriter, r *http.Request) (stateClaims, bool) {
	var claims stateClaims

	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		h.Log.Warn("missing oauth state cookie")
		return claims, false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
	})

	if err := h.state.Decode(stateCookieName, cookie.Value, &claims); err != nil {
		h.Log.Warn("oauth state cookie rejected", zap.Error(err))
		return claims, false
	}
	if claims.Nonce == "" || claims.Nonce != r.URL.Query().Get("state") {
		h.Log.Warn("oauth state nonce mismatch")
		return claims, false
	}
	return claims, true
}

// identityProfile is the subset of the provider's userinfo response we use.
type identityProfile struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

func (h *Handler) fetchProfile(ctx context.Context, token *oauth2.Token) (*identityProfile, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var p identityProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if p.Subject == "" || p.Email == "" {
		return nil, fmt.Errorf("userinfo missing subject or email")
	}
	return &p, nil
}

// safeReturnPath keeps post-login redirects on-site.
func safeReturnPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return ""
	}
	return p
}
