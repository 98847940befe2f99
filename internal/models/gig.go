package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	GigStatusOpen     = "open"
	GigStatusAssigned = "assigned"
)

type Gig struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Budget      float64   `json:"budget"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Owner       *User     `json:"owner,omitempty"`
}

func (g *Gig) IsOpen() bool {
	return g.Status == GigStatusOpen
}

func (g *Gig) IsOwnedBy(userID uuid.UUID) bool {
	return g.OwnerID == userID
}
