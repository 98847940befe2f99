package handlers

import (
	"strings"
	"time"

	"github.com/dimitrije/gigflow-api/internal/middleware"
	"github.com/dimitrije/gigflow-api/internal/models"
	"github.com/dimitrije/gigflow-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/sirupsen/logrus"
)

const hireSuccessMessage = "Freelancer hired successfully"

type BidHandler struct {
	bidService BidServiceInterface
	hires      HireCoordinatorInterface
	log        logrus.FieldLogger
}

func NewBidHandler(bidService BidServiceInterface, hires HireCoordinatorInterface, log logrus.FieldLogger) *BidHandler {
	return &BidHandler{
		bidService: bidService,
		hires:      hires,
		log:        log,
	}
}

func (h *BidHandler) Submit(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.SubmitBidRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)

	if err := validate.Struct(req); err != nil {
		c.BadRequest(validationMessage(err))
		return
	}

	gigID, err := uuid.Parse(req.GigID)
	if err != nil {
		c.BadRequest("invalid gig id")
		return
	}

	bid, err := h.bidService.Submit(c.Request.Context(), gigID, userID, req.Message, req.Price)
	if err != nil {
		respondError(c, h.log, err, "failed to submit bid")
		return
	}

	_ = c.JSON(201, toBidResponse(bid))
}

func (h *BidHandler) ListMine(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	bids, err := h.bidService.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "failed to get bids")
		return
	}

	_ = c.JSON(200, toBidResponses(bids))
}

func (h *BidHandler) ListForGig(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	gigID, err := uuid.Parse(c.Param("gigId"))
	if err != nil {
		c.BadRequest("invalid gig id")
		return
	}

	bids, err := h.bidService.ListForGig(c.Request.Context(), gigID, userID)
	if err != nil {
		respondError(c, h.log, err, "failed to get bids")
		return
	}

	_ = c.JSON(200, toBidResponses(bids))
}

func (h *BidHandler) GetMine(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	gigID, err := uuid.Parse(c.Param("gigId"))
	if err != nil {
		c.BadRequest("invalid gig id")
		return
	}

	bid, err := h.bidService.GetMine(c.Request.Context(), gigID, userID)
	if err != nil {
		respondError(c, h.log, err, "failed to get bid")
		return
	}

	_ = c.JSON(200, toBidResponse(bid))
}

// Hire makes the bid the gig's winner. Only the gig owner may call it.
func (h *BidHandler) Hire(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	bidID, err := uuid.Parse(c.Param("bidId"))
	if err != nil {
		c.BadRequest("invalid bid id")
		return
	}

	result, err := h.hires.Hire(c.Request.Context(), bidID, userID)
	if err != nil {
		respondError(c, h.log, err, "failed to hire freelancer")
		return
	}

	_ = c.JSON(200, dto.HireResponse{
		Message: hireSuccessMessage,
		Hired: dto.HiredFreelancer{
			FreelancerID:   result.FreelancerID,
			FreelancerName: result.FreelancerName,
		},
	})
}

func toBidResponse(b *models.Bid) dto.BidResponse {
	resp := dto.BidResponse{
		ID:           b.ID,
		GigID:        b.GigID,
		FreelancerID: b.FreelancerID,
		Message:      b.Message,
		Price:        b.Price,
		Status:       b.Status,
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    b.UpdatedAt.Format(time.RFC3339),
	}
	if b.Freelancer != nil {
		resp.Freelancer = &dto.UserResponse{ID: b.Freelancer.ID, Email: b.Freelancer.Email, Name: b.Freelancer.Name}
	}
	if b.Gig != nil {
		resp.Gig = &dto.GigSummary{ID: b.Gig.ID, Title: b.Gig.Title, Budget: b.Gig.Budget, Status: b.Gig.Status}
	}
	return resp
}

func toBidResponses(bids []models.Bid) []dto.BidResponse {
	response := make([]dto.BidResponse, len(bids))
	for i := range bids {
		response[i] = toBidResponse(&bids[i])
	}
	return response
}
