package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfo = "https://www.googleapis.com/oauth2/v2/userinfo"

func newGoogleConfig(cfg Config) *oauth2.Config {
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{"openid", "email"},
		Endpoint:     endpoint,
	}
}

// fetchEmail exchanges code and returns the account's verified address.
func (g *Gate) fetchEmail(ctx context.Context, code string) (string, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("oauth exchange: %w", err)
	}

	url := g.cfg.UserInfoURL
	if url == "" {
		url = googleUserInfo
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := g.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return "", fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var info struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return "", fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Email == "" || !info.VerifiedEmail {
		return "", fmt.Errorf("%w: no verified email", ErrUnauthenticated)
	}
	return info.Email, nil
}
