package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"
)

// Routes and cookie names.
const (
	LoginPath     = "/auth/login"
	CallbackPath  = "/auth/callback"
	LogoutPath    = "/auth/logout"
	SessionCookie = "invoicepdf_session"
	stateCookie   = "invoicepdf_oauth_state"
)

// Routes returns the sign-in handlers, to be mounted at /auth.
func (g *Gate) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/login", g.Login)
	r.Get("/callback", g.Callback)
	r.Get("/logout", g.Logout)
	r.Post("/logout", g.Logout)
	return r
}

// Login starts the Google flow. A dev gate signs the visitor in directly.
func (g *Gate) Login(w http.ResponseWriter, r *http.Request) {
	if g.oauth == nil {
		g.startSession(w, r, g.cfg.DevEmail)
		return
	}
	state := rand.Text()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   g.cfg.Secure,
	})
	opts := []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("prompt", "select_account")}
	if g.cfg.AllowedDomain != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", g.cfg.AllowedDomain))
	}
	http.Redirect(w, r, g.oauth.AuthCodeURL(state, opts...), http.StatusFound)
}

// Callback finishes the Google flow.
func (g *Gate) Callback(w http.ResponseWriter, r *http.Request) {
	if g.oauth == nil {
		http.NotFound(w, r)
		return
	}
	c, err := r.Cookie(stateCookie)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(c.Value), []byte(state)) != 1 {
		http.Error(w, "invalid oauth state", http.StatusBadRequest)
		return
	}
	clearCookie(w, stateCookie, "")

	if e := r.URL.Query().Get("error"); e != "" {
		g.log.Info("sign-in declined", "error", e)
		http.Error(w, "sign-in was cancelled", http.StatusUnauthorized)
		return
	}

	email, err := g.fetchEmail(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		g.log.Warn("sign-in failed", "error", err)
		http.Error(w, "sign-in failed", http.StatusBadGateway)
		return
	}
	g.startSession(w, r, email)
}

func (g *Gate) startSession(w http.ResponseWriter, r *http.Request, email string) {
	if !g.Allowed(email) {
		g.log.Warn("sign-in refused", "email", email, "error", ErrDomainNotAllowed)
		http.Error(w, ErrDomainNotAllowed.Error(), http.StatusForbidden)
		return
	}
	token, err := g.issueToken(email)
	if err != nil {
		g.log.Error("issuing session token", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	c := &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(g.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   g.cfg.Secure,
		Domain:   g.cfg.CookieDomain,
	}
	http.SetCookie(w, c)
	g.log.Info("signed in", "email", email)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout clears the session cookie.
func (g *Gate) Logout(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, SessionCookie, g.cfg.CookieDomain)
	if id, err := g.CurrentUser(r); err == nil {
		g.log.Info("signed out", "email", id.Email)
	} else if !errors.Is(err, ErrUnauthenticated) {
		g.log.Debug("logout with rejected session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func clearCookie(w http.ResponseWriter, name, domain string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Domain:   domain,
	})
}
