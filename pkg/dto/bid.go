package dto

import "github.com/google/uuid"

type SubmitBidRequest struct {
	GigID   string  `json:"gig_id" validate:"required,uuid"`
	Message string  `json:"message" validate:"required,max=2000"`
	Price   float64 `json:"price" validate:"gte=0.01,lte=9999999999.99"`
}

type BidResponse struct {
	ID           uuid.UUID     `json:"id"`
	GigID        uuid.UUID     `json:"gig_id"`
	FreelancerID uuid.UUID     `json:"freelancer_id"`
	Message      string        `json:"message"`
	Price        float64       `json:"price"`
	Status       string        `json:"status"`
	Freelancer   *UserResponse `json:"freelancer,omitempty"`
	Gig          *GigSummary   `json:"gig,omitempty"`
	CreatedAt    string        `json:"created_at"`
	UpdatedAt    string        `json:"updated_at"`
}

type HiredFreelancer struct {
	FreelancerID   uuid.UUID `json:"freelancer_id"`
	FreelancerName string    `json:"freelancer_name"`
}

type HireResponse struct {
	Message string          `json:"message"`
	Hired   HiredFreelancer `json:"hired"`
}
