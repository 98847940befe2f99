package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	BidStatusPending  = "pending"
	BidStatusHired    = "hired"
	BidStatusRejected = "rejected"
)

type Bid struct {
	ID           uuid.UUID `json:"id"`
	GigID        uuid.UUID `json:"gig_id"`
	FreelancerID uuid.UUID `json:"freelancer_id"`
	Message      string    `json:"message"`
	Price        float64   `json:"price"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Freelancer   *User     `json:"freelancer,omitempty"`
	Gig          *Gig      `json:"gig,omitempty"`
}
