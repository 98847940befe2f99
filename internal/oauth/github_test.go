package oauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitHubProvider_Exchange_PublicEmail(t *testing.T) {
	server := newProviderServer(t, map[string]string{
		"/user": `{"login":"alice","name":"Alice Smith","email":"alice@example.com"}`,
	})
	provider := &GitHubProvider{config: testOAuthConfig(server), apiURL: server.URL}

	profile, err := provider.Exchange(context.Background(), "code")

	require.NoError(t, err)
	assert.Equal(t, &Profile{Email: "alice@example.com", Name: "Alice Smith", Provider: "github"}, profile)
}

func TestGitHubProvider_Exchange_PrivateEmailFallsBackToEmails(t *testing.T) {
	server := newProviderServer(t, map[string]string{
		"/user": `{"login":"alice","name":"","email":""}`,
		"/user/emails": `[
			{"email":"old@example.com","primary":false,"verified":true},
			{"email":"unverified@example.com","primary":false,"verified":false},
			{"email":"alice@example.com","primary":true,"verified":true}
		]`,
	})
	provider := &GitHubProvider{config: testOAuthConfig(server), apiURL: server.URL}

	profile, err := provider.Exchange(context.Background(), "code")

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, "alice", profile.Name, "login is used when name is empty")
}

func TestGitHubProvider_Exchange_NoVerifiedEmail(t *testing.T) {
	server := newProviderServer(t, map[string]string{
		"/user":        `{"login":"alice"}`,
		"/user/emails": `[{"email":"a@example.com","primary":true,"verified":false}]`,
	})
	provider := &GitHubProvider{config: testOAuthConfig(server), apiURL: server.URL}

	_, err := provider.Exchange(context.Background(), "code")

	assert.EqualError(t, err, "github account has no verified email")
}

func TestGitHubProvider_Exchange_APIError(t *testing.T) {
	server := newProviderServer(t, map[string]string{})
	provider := &GitHubProvider{config: testOAuthConfig(server), apiURL: server.URL}

	_, err := provider.Exchange(context.Background(), "code")

	assert.EqualError(t, err, "github api returned status 404")
}
