package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dimitrije/gigflow-api/internal/middleware"
	"github.com/dimitrije/gigflow-api/internal/oauth"
	"github.com/dimitrije/gigflow-api/internal/services"
	"github.com/dimitrije/gigflow-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/sirupsen/logrus"
)

const (
	stateTTL        = 10 * time.Minute
	signInCodeTTL   = 30 * time.Second
	exchangeTimeout = 30 * time.Second
)

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{if .Redirect}}<meta http-equiv="refresh" content="0;url={{.Redirect}}">{{end}}
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
{{if .Redirect}}<p><a href="{{.Redirect}}">Continue to GigFlow</a></p>{{end}}
</body>
</html>
`))

// AuthHandler signs users in through an OAuth provider. The provider
// callback hands the browser a short-lived one-time code, which the
// frontend trades for an access token so the token never appears in a URL.
type AuthHandler struct {
	providers   map[string]oauth.Provider
	users       UserServiceInterface
	tokens      TokenIssuerInterface
	callbackURL string
	states      *onceCodes
	codes       *onceCodes
	log         logrus.FieldLogger
}

func NewAuthHandler(
	providers map[string]oauth.Provider,
	users UserServiceInterface,
	tokens TokenIssuerInterface,
	callbackURL string,
	log logrus.FieldLogger,
) *AuthHandler {
	return &AuthHandler{
		providers:   providers,
		users:       users,
		tokens:      tokens,
		callbackURL: callbackURL,
		states:      newOnceCodes(stateTTL),
		codes:       newOnceCodes(signInCodeTTL),
		log:         log,
	}
}

// Run drops expired states and codes until ctx is done.
func (h *AuthHandler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.states.sweep(now)
			h.codes.sweep(now)
		}
	}
}

func (h *AuthHandler) ConsentURL(c *drift.Context) {
	name := c.Param("provider")
	p, ok := h.providers[name]
	if !ok {
		c.BadRequest("unsupported provider: " + name)
		return
	}

	state, err := oauth.NewState()
	if err != nil {
		c.InternalServerError("failed to generate state")
		return
	}
	h.states.put(state, uuid.Nil)

	_ = c.JSON(200, dto.ConsentURLResponse{URL: p.ConsentURL(state)})
}

func (h *AuthHandler) Callback(c *drift.Context) {
	name := c.Param("provider")
	p, ok := h.providers[name]
	if !ok {
		h.renderFailure(c, "unsupported provider")
		return
	}

	state := c.QueryParam("state")
	if state == "" {
		h.renderFailure(c, "missing state parameter")
		return
	}
	if _, ok := h.states.take(state); !ok {
		h.renderFailure(c, "invalid or expired state")
		return
	}

	code := c.QueryParam("code")
	if code == "" {
		h.renderFailure(c, "missing authorization code")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), exchangeTimeout)
	defer cancel()

	logger := h.log.WithField("provider", name)

	profile, err := p.Exchange(ctx, code)
	if err != nil {
		logger.WithError(err).Warn("oauth exchange failed")
		h.renderFailure(c, "could not verify your account with "+name)
		return
	}

	user, err := h.users.FindOrCreate(ctx, strings.ToLower(strings.TrimSpace(profile.Email)), profile.Name)
	if err != nil {
		logger.WithError(err).Error("failed to find or create user")
		h.renderFailure(c, "failed to sign in")
		return
	}

	signInCode, err := oauth.NewState()
	if err != nil {
		h.renderFailure(c, "failed to generate sign-in code")
		return
	}
	h.codes.put(signInCode, user.ID)

	logger.WithField("user_id", user.ID).Info("user signed in")
	h.renderPage(c, http.StatusOK, "Signed in", "Redirecting you to GigFlow...", h.redirectURL("code", signInCode))
}

// Exchange trades a one-time sign-in code for an access token.
func (h *AuthHandler) Exchange(c *drift.Context) {
	var req dto.ExchangeCodeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		c.BadRequest(validationMessage(err))
		return
	}

	userID, ok := h.codes.take(req.Code)
	if !ok {
		c.Unauthorized("invalid or expired code")
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if errors.Is(err, services.ErrNotFound) {
		c.Unauthorized("user not found")
		return
	}
	if err != nil {
		respondError(c, h.log, err, "failed to load user")
		return
	}

	token, err := h.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		h.log.WithError(err).Error("failed to generate access token")
		c.InternalServerError("failed to generate token")
		return
	}

	_ = c.JSON(200, dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokens.AccessExpiry().Seconds()),
		User:        dto.UserResponse{ID: user.ID, Email: user.Email, Name: user.Name},
	})
}

func (h *AuthHandler) Me(c *drift.Context) {
	user, err := h.users.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.log, err, "failed to load user")
		return
	}
	_ = c.JSON(200, dto.UserResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

func (h *AuthHandler) redirectURL(key, value string) string {
	sep := "?"
	if strings.Contains(h.callbackURL, "?") {
		sep = "&"
	}
	return h.callbackURL + sep + key + "=" + url.QueryEscape(value)
}

func (h *AuthHandler) renderFailure(c *drift.Context, message string) {
	h.renderPage(c, http.StatusBadRequest, "Sign-in failed", message, h.redirectURL("error", message))
}

func (h *AuthHandler) renderPage(c *drift.Context, status int, title, message, redirect string) {
	var page strings.Builder
	err := callbackPage.Execute(&page, struct {
		Title    string
		Message  string
		Redirect string
	}{title, message, redirect})
	if err != nil {
		c.InternalServerError("failed to render page")
		return
	}
	_ = c.HTML(status, page.String())
}

// onceCodes holds values that may be taken exactly once before they expire.
type onceCodes struct {
	ttl     time.Duration
	entries sync.Map
}

type onceEntry struct {
	userID    uuid.UUID
	expiresAt time.Time
}

func newOnceCodes(ttl time.Duration) *onceCodes {
	return &onceCodes{ttl: ttl}
}

func (s *onceCodes) put(code string, userID uuid.UUID) {
	s.entries.Store(code, onceEntry{userID: userID, expiresAt: time.Now().Add(s.ttl)})
}

func (s *onceCodes) take(code string) (uuid.UUID, bool) {
	v, ok := s.entries.LoadAndDelete(code)
	if !ok {
		return uuid.Nil, false
	}
	entry := v.(onceEntry)
	if time.Now().After(entry.expiresAt) {
		return uuid.Nil, false
	}
	return entry.userID, true
}

func (s *onceCodes) sweep(now time.Time) {
	s.entries.Range(func(key, value any) bool {
		if now.After(value.(onceEntry).expiresAt) {
			s.entries.Delete(key)
		}
		return true
	})
}
