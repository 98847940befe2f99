package dto

import "github.com/google/uuid"

type CreateGigRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"required,max=5000"`
	Budget      float64 `json:"budget" validate:"gte=0.01,lte=9999999999.99"`
}

// UpdateGigRequest only touches the fields that are present.
type UpdateGigRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,min=1,max=5000"`
	Budget      *float64 `json:"budget,omitempty" validate:"omitempty,gte=0.01,lte=9999999999.99"`
}

type GigResponse struct {
	ID          uuid.UUID     `json:"id"`
	OwnerID     uuid.UUID     `json:"owner_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Budget      float64       `json:"budget"`
	Status      string        `json:"status"`
	Owner       *UserResponse `json:"owner,omitempty"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
}

type GigDetailResponse struct {
	Gig     GigResponse `json:"gig"`
	IsOwner bool        `json:"is_owner"`
}

type GigSummary struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Budget float64   `json:"budget"`
	Status string    `json:"status"`
}
