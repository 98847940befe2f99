package handlers

import (
	"github.com/dimitrije/gigflow-api/internal/middleware"
	"github.com/m1z23r/drift/pkg/drift"
)

// Routes holds every handler served under /api/v1.
type Routes struct {
	Auth          *AuthHandler
	Gigs          *GigHandler
	Bids          *BidHandler
	Notifications *NotificationHandler
	Health        *HealthHandler
	Tokens        middleware.TokenValidator
}

// Register mounts the API on app. The router keeps one tree per method and
// panics when a static segment sits next to a path parameter, so listings
// live at /gigs and /users/me/gigs rather than beside /gigs/:id.
func (r Routes) Register(app *drift.Engine) {
	api := app.Group("/api/v1")

	api.Get("/health", r.Health.Check)

	auth := api.Group("/auth")
	auth.Get("/:provider/consent", r.Auth.ConsentURL)
	auth.Get("/:provider/callback", r.Auth.Callback)
	auth.Post("/exchange", r.Auth.Exchange)

	// Browsers cannot set headers on these, so they authenticate by query token.
	api.Get("/notifications/ws", r.Notifications.Socket)
	stream := api.Group("/notifications")
	stream.Use(middleware.StreamAuth(r.Tokens))
	stream.Get("/stream", r.Notifications.Stream)

	protected := api.Group("")
	protected.Use(middleware.Auth(r.Tokens))

	protected.Get("/users/me", r.Auth.Me)
	protected.Get("/users/me/gigs", r.Gigs.ListMine)

	protected.Post("/gigs", r.Gigs.Create)
	protected.Get("/gigs", r.Gigs.ListAvailable)
	protected.Get("/gigs/:id", r.Gigs.Get)
	protected.Put("/gigs/:id", r.Gigs.Update)
	protected.Delete("/gigs/:id", r.Gigs.Delete)

	protected.Post("/bids", r.Bids.Submit)
	protected.Get("/bids/my", r.Bids.ListMine)
	protected.Get("/bids/gig/:gigId", r.Bids.ListForGig)
	protected.Get("/bids/my-bid/:gigId", r.Bids.GetMine)
	protected.Patch("/bids/:bidId/hire", r.Bids.Hire)
}
