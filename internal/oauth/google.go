package oauth

import (
	"context"
	"fmt"

	"github.com/dimitrije/gigflow-api/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type GoogleProvider struct {
	config *oauth2.Config
	apiURL string
}

func NewGoogleProvider(cfg config.OAuthConfig) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		apiURL: "https://www.googleapis.com/oauth2/v2",
	}
}

func (p *GoogleProvider) Name() string {
	return "google"
}

func (p *GoogleProvider) ConsentURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	var user struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
	}
	if err := getJSON(ctx, p.config.Client(ctx, token), p.Name(), p.apiURL+"/userinfo", &user); err != nil {
		return nil, err
	}
	if !user.VerifiedEmail {
		return nil, fmt.Errorf("google account email is not verified")
	}

	return &Profile{Email: user.Email, Name: user.Name, Provider: p.Name()}, nil
}
