package oauth

import (
	"context"
	"fmt"

	"github.com/dimitrije/gigflow-api/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/gitlab"
)

type GitLabProvider struct {
	config *oauth2.Config
	apiURL string
}

func NewGitLabProvider(cfg config.OAuthConfig) *GitLabProvider {
	return &GitLabProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"read_user"},
			Endpoint:     gitlab.Endpoint,
		},
		apiURL: "https://gitlab.com/api/v4",
	}
}

func (p *GitLabProvider) Name() string {
	return "gitlab"
}

func (p *GitLabProvider) ConsentURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *GitLabProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	var user struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Email    string `json:"email"`
	}
	if err := getJSON(ctx, p.config.Client(ctx, token), p.Name(), p.apiURL+"/user", &user); err != nil {
		return nil, err
	}
	if user.Email == "" {
		return nil, fmt.Errorf("gitlab account has no email")
	}

	name := user.Name
	if name == "" {
		name = user.Username
	}
	return &Profile{Email: user.Email, Name: name, Provider: p.Name()}, nil
}
