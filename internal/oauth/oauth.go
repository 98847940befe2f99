package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dimitrije/gigflow-api/internal/config"
)

// Profile is what a provider tells us about the person signing in.
type Profile struct {
	Email    string
	Name     string
	Provider string
}

type Provider interface {
	Name() string
	ConsentURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Providers returns every provider that has a client id configured, keyed
// by name.
func Providers(cfg config.OAuthProviders) map[string]Provider {
	providers := make(map[string]Provider)
	if cfg.GitHub.ClientID != "" {
		providers["github"] = NewGitHubProvider(cfg.GitHub)
	}
	if cfg.GitLab.ClientID != "" {
		providers["gitlab"] = NewGitLabProvider(cfg.GitLab)
	}
	if cfg.Google.ClientID != "" {
		providers["google"] = NewGoogleProvider(cfg.Google)
	}
	return providers
}

func NewState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func getJSON(ctx context.Context, client *http.Client, provider, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s api: %w", provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s api returned status %d", provider, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", provider, err)
	}
	return nil
}
