package oauth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dimitrije/gigflow-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// newProviderServer serves a token endpoint at /token and the given API
// routes, all from one httptest server.
func newProviderServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/token" {
			_, _ = w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer"}`))
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func testOAuthConfig(server *httptest.Server) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  server.URL + "/authorize",
			TokenURL: server.URL + "/token",
		},
	}
}

func TestNewState(t *testing.T) {
	a, err := NewState()
	require.NoError(t, err)
	b, err := NewState()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}

func TestProviders_OnlyConfigured(t *testing.T) {
	providers := Providers(config.OAuthProviders{
		GitHub: config.OAuthConfig{ClientID: "gh"},
		Google: config.OAuthConfig{ClientID: "g"},
	})

	assert.Len(t, providers, 2)
	assert.Contains(t, providers, "github")
	assert.Contains(t, providers, "google")
	assert.NotContains(t, providers, "gitlab")
}

func TestConsentURL(t *testing.T) {
	cfg := config.OAuthConfig{ClientID: "test-client-id", RedirectURL: "http://localhost/callback"}

	tests := []struct {
		provider Provider
		host     string
	}{
		{NewGitHubProvider(cfg), "github.com"},
		{NewGitLabProvider(cfg), "gitlab.com"},
		{NewGoogleProvider(cfg), "accounts.google.com"},
	}

	for _, tt := range tests {
		t.Run(tt.provider.Name(), func(t *testing.T) {
			url := tt.provider.ConsentURL("test-state")

			assert.Contains(t, url, tt.host)
			assert.Contains(t, url, "client_id=test-client-id")
			assert.Contains(t, url, "state=test-state")
			assert.Contains(t, url, "redirect_uri=http")
		})
	}
}
