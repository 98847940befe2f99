package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/dimitrije/gigflow-api/internal/middleware"
	"github.com/dimitrije/gigflow-api/internal/models"
	"github.com/dimitrije/gigflow-api/internal/services"
	"github.com/dimitrije/gigflow-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/sirupsen/logrus"
)

type GigHandler struct {
	gigService GigServiceInterface
	log        logrus.FieldLogger
}

func NewGigHandler(gigService GigServiceInterface, log logrus.FieldLogger) *GigHandler {
	return &GigHandler{
		gigService: gigService,
		log:        log,
	}
}

func (h *GigHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateGigRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)

	if err := validate.Struct(req); err != nil {
		c.BadRequest(validationMessage(err))
		return
	}

	gig, err := h.gigService.Create(c.Request.Context(), userID, req.Title, req.Description, req.Budget)
	if err != nil {
		respondError(c, h.log, err, "failed to create gig")
		return
	}

	_ = c.JSON(201, toGigResponse(gig))
}

func (h *GigHandler) ListMine(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	gigs, err := h.gigService.GetByOwner(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "failed to get gigs")
		return
	}

	_ = c.JSON(200, toGigResponses(gigs))
}

func (h *GigHandler) ListAvailable(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	gigs, err := h.gigService.ListAvailable(c.Request.Context(), userID, c.QueryParam("search"))
	if err != nil {
		respondError(c, h.log, err, "failed to get gigs")
		return
	}

	_ = c.JSON(200, toGigResponses(gigs))
}

func (h *GigHandler) Get(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	gigID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid gig id")
		return
	}

	gig, err := h.gigService.GetByID(c.Request.Context(), gigID)
	if err != nil {
		respondError(c, h.log, err, "failed to get gig")
		return
	}

	_ = c.JSON(200, dto.GigDetailResponse{
		Gig:     toGigResponse(gig),
		IsOwner: gig.IsOwnedBy(userID),
	})
}

func (h *GigHandler) Update(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	gigID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid gig id")
		return
	}

	var req dto.UpdateGigRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		req.Description = &trimmed
	}

	if err := validate.Struct(req); err != nil {
		c.BadRequest(validationMessage(err))
		return
	}

	gig, err := h.gigService.Update(c.Request.Context(), gigID, userID, services.GigUpdate{
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
	})
	if errors.Is(err, services.ErrNoFieldsToUpdate) {
		c.BadRequest("no fields to update")
		return
	}
	if err != nil {
		respondError(c, h.log, err, "failed to update gig")
		return
	}

	_ = c.JSON(200, toGigResponse(gig))
}

func (h *GigHandler) Delete(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	gigID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid gig id")
		return
	}

	if err := h.gigService.Delete(c.Request.Context(), gigID, userID); err != nil {
		respondError(c, h.log, err, "failed to delete gig")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "gig deleted"})
}

func toGigResponse(g *models.Gig) dto.GigResponse {
	resp := dto.GigResponse{
		ID:          g.ID,
		OwnerID:     g.OwnerID,
		Title:       g.Title,
		Description: g.Description,
		Budget:      g.Budget,
		Status:      g.Status,
		CreatedAt:   g.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   g.UpdatedAt.Format(time.RFC3339),
	}
	if g.Owner != nil {
		resp.Owner = &dto.UserResponse{ID: g.Owner.ID, Email: g.Owner.Email, Name: g.Owner.Name}
	}
	return resp
}

func toGigResponses(gigs []models.Gig) []dto.GigResponse {
	response := make([]dto.GigResponse, len(gigs))
	for i := range gigs {
		response[i] = toGigResponse(&gigs[i])
	}
	return response
}
