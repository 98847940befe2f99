package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/dimitrije/gigflow-api/internal/database"
	"github.com/dimitrije/gigflow-api/internal/models"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email: fmt.Sprintf("user%d@example.com", f.counter),
		Name:  fmt.Sprintf("Test User %d", f.counter),
	}

	for _, opt := range opts {
		opt(user)
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO users (email, name)
		VALUES ($1, $2)
		RETURNING id, email, name, created_at, updated_at
	`, user.Email, user.Name).Scan(
		&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithName sets the user's name
func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

// CreateGig creates an open gig owned by owner
func (f *Fixtures) CreateGig(t *testing.T, owner *models.User, opts ...GigOption) *models.Gig {
	t.Helper()
	f.counter++

	gig := &models.Gig{
		OwnerID:     owner.ID,
		Title:       fmt.Sprintf("Test Gig %d", f.counter),
		Description: "Something needs doing",
		Budget:      100,
		Status:      models.GigStatusOpen,
	}

	for _, opt := range opts {
		opt(gig)
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO gigs (owner_id, title, description, budget, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, gig.OwnerID, gig.Title, gig.Description, gig.Budget, gig.Status).Scan(
		&gig.ID, &gig.CreatedAt, &gig.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create gig: %v", err)
	}

	return gig
}

// GigOption configures a test gig
type GigOption func(*models.Gig)

// WithTitle sets the gig's title
func WithTitle(title string) GigOption {
	return func(g *models.Gig) {
		g.Title = title
	}
}

// WithDescription sets the gig's description
func WithDescription(description string) GigOption {
	return func(g *models.Gig) {
		g.Description = description
	}
}

// WithGigStatus sets the gig's status
func WithGigStatus(status string) GigOption {
	return func(g *models.Gig) {
		g.Status = status
	}
}

// CreateBid creates a pending bid by freelancer on gig
func (f *Fixtures) CreateBid(t *testing.T, gig *models.Gig, freelancer *models.User) *models.Bid {
	t.Helper()
	f.counter++

	bid := &models.Bid{
		GigID:        gig.ID,
		FreelancerID: freelancer.ID,
		Message:      fmt.Sprintf("Bid %d", f.counter),
		Price:        50,
		Status:       models.BidStatusPending,
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO bids (gig_id, freelancer_id, message, price, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, bid.GigID, bid.FreelancerID, bid.Message, bid.Price, bid.Status).Scan(
		&bid.ID, &bid.CreatedAt, &bid.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create bid: %v", err)
	}

	return bid
}

// BidStatus reads a bid's current status
func (f *Fixtures) BidStatus(t *testing.T, bidID uuid.UUID) string {
	t.Helper()
	var status string
	err := f.db.Pool.QueryRow(context.Background(), `SELECT status FROM bids WHERE id = $1`, bidID).Scan(&status)
	if err != nil {
		t.Fatalf("failed to read bid status: %v", err)
	}
	return status
}
