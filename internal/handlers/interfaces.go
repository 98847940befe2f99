package handlers

import (
	"context"
	"time"

	"github.com/dimitrije/gigflow-api/internal/models"
	"github.com/dimitrije/gigflow-api/internal/notify"
	"github.com/dimitrije/gigflow-api/internal/services"
	"github.com/google/uuid"
)

// GigServiceInterface defines the methods used by handlers from GigService
type GigServiceInterface interface {
	Create(ctx context.Context, ownerID uuid.UUID, title, description string, budget float64) (*models.Gig, error)
	GetByID(ctx context.Context, gigID uuid.UUID) (*models.Gig, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Gig, error)
	ListAvailable(ctx context.Context, viewerID uuid.UUID, search string) ([]models.Gig, error)
	Update(ctx context.Context, gigID, ownerID uuid.UUID, upd services.GigUpdate) (*models.Gig, error)
	Delete(ctx context.Context, gigID, ownerID uuid.UUID) error
}

// BidServiceInterface defines the methods used by handlers from BidService
type BidServiceInterface interface {
	Submit(ctx context.Context, gigID, freelancerID uuid.UUID, message string, price float64) (*models.Bid, error)
	ListForGig(ctx context.Context, gigID, actingUserID uuid.UUID) ([]models.Bid, error)
	GetMine(ctx context.Context, gigID, freelancerID uuid.UUID) (*models.Bid, error)
	ListMine(ctx context.Context, freelancerID uuid.UUID) ([]models.Bid, error)
}

// HireCoordinatorInterface defines the methods used by handlers from HireCoordinator
type HireCoordinatorInterface interface {
	Hire(ctx context.Context, bidID, actingUserID uuid.UUID) (*services.HireResult, error)
}

// SessionHubInterface is the session registry the notification transports attach to
type SessionHubInterface interface {
	Register(client *notify.Client)
	Unregister(client *notify.Client)
}

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreate(ctx context.Context, email, name string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenIssuerInterface mints access tokens after a successful sign-in
type TokenIssuerInterface interface {
	GenerateAccessToken(userID uuid.UUID, email string) (string, error)
	AccessExpiry() time.Duration
}

// TokenValidatorInterface defines the methods used by handlers from JWTService
type TokenValidatorInterface interface {
	ValidateAccessToken(token string) (*services.Claims, error)
}

// PingerInterface reports whether the database answers
type PingerInterface interface {
	Ping(ctx context.Context) error
}
