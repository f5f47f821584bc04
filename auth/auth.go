// Package auth is the sign-in gate in front of the web surface. Users sign
// in with Google; only addresses under the allowed domain get a session.
// The session is an HS256 JWT held in an HttpOnly cookie.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

var (
	ErrUnauthenticated  = errors.New("auth: unauthenticated")
	ErrDomainNotAllowed = errors.New("auth: email domain not allowed")
	ErrNotConfigured    = errors.New("auth: no OAuth client and no dev identity configured")
	ErrWeakSecret       = errors.New("auth: session secret must be at least 32 bytes")
)

// MinSecretLen is the shortest accepted session secret.
const MinSecretLen = 32

// Identity is the signed-in user.
type Identity struct {
	Email string `json:"email"`
}

// Config configures a Gate.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// AllowedDomain restricts sign-in to addresses ending in "@"+AllowedDomain.
	// Empty allows any verified address.
	AllowedDomain string
	SessionSecret string
	CookieDomain  string
	SessionTTL    time.Duration
	// Secure marks cookies Secure; set when served over TLS.
	Secure bool
	// DevEmail signs every visitor in as this address when ClientID is
	// empty. Local use only.
	DevEmail string

	// Endpoint and UserInfoURL default to Google.
	Endpoint    oauth2.Endpoint
	UserInfoURL string

	Logger *slog.Logger
}

// Gate issues and checks sessions.
type Gate struct {
	cfg    Config
	oauth  *oauth2.Config
	secret []byte
	now    func() time.Time
	log    *slog.Logger
}

// New validates cfg and returns a Gate. Without a client ID, DevEmail must
// be set; a dev gate with no secret gets a random one per process.
func New(cfg Config) (*Gate, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	cfg.AllowedDomain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(cfg.AllowedDomain)), "@")

	g := &Gate{cfg: cfg, now: time.Now, log: cfg.Logger}
	switch {
	case cfg.ClientID != "":
		g.oauth = newGoogleConfig(cfg)
	case cfg.DevEmail != "":
		if !g.Allowed(cfg.DevEmail) {
			return nil, fmt.Errorf("%w: dev email %s", ErrDomainNotAllowed, cfg.DevEmail)
		}
		if cfg.SessionSecret == "" {
			cfg.SessionSecret = rand.Text() + rand.Text()
			g.cfg.SessionSecret = cfg.SessionSecret
		}
		g.log.Warn("auth running with a fixed dev identity", "email", cfg.DevEmail)
	default:
		return nil, ErrNotConfigured
	}

	if len(cfg.SessionSecret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	g.secret = []byte(cfg.SessionSecret)
	return g, nil
}

// Allowed reports whether email may sign in.
func (g *Gate) Allowed(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	if g.cfg.AllowedDomain == "" {
		return true
	}
	return email[at+1:] == g.cfg.AllowedDomain
}

// CurrentUser returns the identity carried by r's session cookie.
func (g *Gate) CurrentUser(r *http.Request) (Identity, error) {
	if id, ok := r.Context().Value(identityKey{}).(Identity); ok {
		return id, nil
	}
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return Identity{}, ErrUnauthenticated
	}
	claims, err := g.parseToken(c.Value)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !g.Allowed(claims.Email) {
		return Identity{}, ErrDomainNotAllowed
	}
	return Identity{Email: claims.Email}, nil
}

type identityKey struct{}

// FromContext returns the identity stored by Require.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Require redirects requests without a valid session to the login page
// and stores the identity in the request context for the rest.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.CurrentUser(r)
		if err != nil {
			if !errors.Is(err, ErrUnauthenticated) || hasCookie(r, SessionCookie) {
				clearCookie(w, SessionCookie, g.cfg.CookieDomain)
			}
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	})
}

func hasCookie(r *http.Request, name string) bool {
	_, err := r.Cookie(name)
	return err == nil
}
