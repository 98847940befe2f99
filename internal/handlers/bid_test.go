package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dimitrije/gigflow-api/internal/middleware"
	"github.com/dimitrije/gigflow-api/internal/models"
	"github.com/dimitrije/gigflow-api/internal/services"
	"github.com/dimitrije/gigflow-api/pkg/dto"
	"github.com/dimitrije/gigflow-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupBidTest(t *testing.T) (*testutil.MockBidService, *testutil.MockHireCoordinator, http.Handler, *services.JWTService) {
	t.Helper()
	mockBidService := new(testutil.MockBidService)
	mockHires := new(testutil.MockHireCoordinator)
	handler := NewBidHandler(mockBidService, mockHires, testLogger)
	jwtSvc := newTestJWTService()

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/bids", handler.Submit)
	app.Get("/bids/my", handler.ListMine)
	app.Get("/bids/gig/:gigId", handler.ListForGig)
	app.Get("/bids/my-bid/:gigId", handler.GetMine)
	app.Patch("/bids/:bidId/hire", handler.Hire)

	return mockBidService, mockHires, app, jwtSvc
}

func decodeError(t *testing.T, body []byte) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func TestBidHandler_Submit_Success(t *testing.T) {
	mockBidService, _, app, jwtSvc := setupBidTest(t)

	userID := uuid.New()
	gigID := uuid.New()
	now := time.Now()
	bid := &models.Bid{
		ID: uuid.New(), GigID: gigID, FreelancerID: userID,
		Message: "I can do it", Price: 80, Status: models.BidStatusPending,
		CreatedAt: now, UpdatedAt: now,
	}

	mockBidService.On("Submit", mock.Anything, gigID, userID, "I can do it", 80.0).Return(bid, nil)

	token := generateTestToken(t, jwtSvc, userID, "f@example.com")
	rec := doRequest(t, app, http.MethodPost, "/bids", token, dto.SubmitBidRequest{
		GigID:   gigID.String(),
		Message: "  I can do it ",
		Price:   80,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response dto.BidResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, bid.ID, response.ID)
	assert.Equal(t, "pending", response.Status)

	mockBidService.AssertExpectations(t)
}

func TestBidHandler_Submit_Validation(t *testing.T) {
	mockBidService, _, app, jwtSvc := setupBidTest(t)
	token := generateTestToken(t, jwtSvc, uuid.New(), "f@example.com")

	testCases := []struct {
		name    string
		req     dto.SubmitBidRequest
		message string
	}{
		{"missing message", dto.SubmitBidRequest{GigID: uuid.New().String(), Message: "   ", Price: 10}, "'message': this field is required"},
		{"zero price", dto.SubmitBidRequest{GigID: uuid.New().String(), Message: "hi", Price: 0}, "'price': should be greater or equal than 0.01"},
		{"sub-cent price", dto.SubmitBidRequest{GigID: uuid.New().String(), Message: "hi", Price: 0.001}, "'price': should be greater or equal than 0.01"},
		{"price wider than column", dto.SubmitBidRequest{GigID: uuid.New().String(), Message: "hi", Price: 1e12}, "'price': should be less or equal than 9999999999.99"},
		{"bad gig id", dto.SubmitBidRequest{GigID: "nope", Message: "hi", Price: 10}, "'gig_id': should be a valid id"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, app, http.MethodPost, "/bids", token, tc.req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.message)
		})
	}

	mockBidService.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBidHandler_Submit_ErrorKinds(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"gig missing", services.ErrGigNotFound, http.StatusNotFound, "not_found"},
		{"own gig", services.ErrOwnGig, http.StatusForbidden, "forbidden"},
		{"gig assigned", services.ErrGigNotOpen, http.StatusUnprocessableEntity, "invalid_state"},
		{"duplicate", services.ErrDuplicateBid, http.StatusConflict, "conflict"},
		{"amount refused", services.ErrAmountOutOfRange, http.StatusUnprocessableEntity, "invalid_state"},
		{"storage busy", &services.Error{Kind: services.ErrUnavailable, Msg: "storage is busy, try again"}, http.StatusServiceUnavailable, "unavailable"},
		{"unexpected", errors.New("db down"), http.StatusInternalServerError, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockBidService, _, app, jwtSvc := setupBidTest(t)
			userID := uuid.New()
			gigID := uuid.New()

			mockBidService.On("Submit", mock.Anything, gigID, userID, "hi", 10.0).Return(nil, tc.err)

			token := generateTestToken(t, jwtSvc, userID, "f@example.com")
			rec := doRequest(t, app, http.MethodPost, "/bids", token, dto.SubmitBidRequest{
				GigID: gigID.String(), Message: "hi", Price: 10,
			})

			assert.Equal(t, tc.status, rec.Code)
			if tc.code != "" {
				resp := decodeError(t, rec.Body.Bytes())
				assert.Equal(t, tc.code, resp.Code)
			}
			assert.NotContains(t, rec.Body.String(), "db down")
		})
	}
}

func TestBidHandler_Submit_LargestPriceAccepted(t *testing.T) {
	mockBidService, _, app, jwtSvc := setupBidTest(t)
	userID := uuid.New()
	gigID := uuid.New()

	mockBidService.On("Submit", mock.Anything, gigID, userID, "hi", 9999999999.99).
		Return(&models.Bid{ID: uuid.New(), GigID: gigID, FreelancerID: userID, Price: 9999999999.99, Status: models.BidStatusPending}, nil)

	token := generateTestToken(t, jwtSvc, userID, "f@example.com")
	rec := doRequest(t, app, http.MethodPost, "/bids", token, dto.SubmitBidRequest{
		GigID: gigID.String(), Message: "hi", Price: 9999999999.99,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	mockBidService.AssertExpectations(t)
}

func TestBidHandler_ListForGig_Success(t *testing.T) {
	mockBidService, _, app, jwtSvc := setupBidTest(t)

	ownerID := uuid.New()
	gigID := uuid.New()
	freelancer := &models.User{ID: uuid.New(), Email: "f@example.com", Name: "Fred"}
	bids := []models.Bid{{
		ID: uuid.New(), GigID: gigID, FreelancerID: freelancer.ID,
		Message: "pick me", Price: 50, Status: "pending", Freelancer: freelancer,
	}}

	mockBidService.On("ListForGig", mock.Anything, gigID, ownerID).Return(bids, nil)

	token := generateTestToken(t, jwtSvc, ownerID, "o@example.com")
	rec := doRequest(t, app, http.MethodGet, "/bids/gig/"+gigID.String(), token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []dto.BidResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	require.NotNil(t, response[0].Freelancer)
	assert.Equal(t, "Fred", response[0].Freelancer.Name)
	assert.Equal(t, "f@example.com", response[0].Freelancer.Email)

	mockBidService.AssertExpectations(t)
}

func TestBidHandler_ListForGig_NotOwner(t *testing.T) {
	mockBidService, _, app, jwtSvc := setupBidTest(t)

	userID := uuid.New()
	gigID := uuid.New()
	mockBidService.On("ListForGig", mock.Anything, gigID, userID).Return(nil, services.ErrNotGigOwner)

	token := generateTestToken(t, jwtSvc, userID, "x@example.com")
	rec := doRequest(t, app, http.MethodGet, "/bids/gig/"+gigID.String(), token, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "only the gig owner can do this", decodeError(t, rec.Body.Bytes()).Message)
}

func TestBidHandler_ListForGig_InvalidID(t *testing.T) {
	_, _, app, jwtSvc := setupBidTest(t)

	token := generateTestToken(t, jwtSvc, uuid.New(), "x@example.com")
	rec := doRequest(t, app, http.MethodGet, "/bids/gig/not-a-uuid", token, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBidHandler_GetMine(t *testing.T) {
	mockBidService, _, app, jwtSvc := setupBidTest(t)

	userID := uuid.New()
	gigID := uuid.New()
	bid := &models.Bid{
		ID: uuid.New(), GigID: gigID, FreelancerID: userID, Status: "hired",
		Gig: &models.Gig{ID: gigID, Title: "Logo", Budget: 100, Status: "assigned"},
	}
	mockBidService.On("GetMine", mock.Anything, gigID, userID).Return(bid, nil)

	token := generateTestToken(t, jwtSvc, userID, "f@example.com")
	rec := doRequest(t, app, http.MethodGet, "/bids/my-bid/"+gigID.String(), token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.BidResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.NotNil(t, response.Gig)
	assert.Equal(t, "Logo", response.Gig.Title)
	assert.Equal(t, "assigned", response.Gig.Status)
}

func TestBidHandler_GetMine_NotFound(t *testing.T) {
	mockBidService, _, app, jwtSvc := setupBidTest(t)

	userID := uuid.New()
	gigID := uuid.New()
	mockBidService.On("GetMine", mock.Anything, gigID, userID).Return(nil, services.ErrBidNotFound)

	token := generateTestToken(t, jwtSvc, userID, "f@example.com")
	rec := doRequest(t, app, http.MethodGet, "/bids/my-bid/"+gigID.String(), token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBidHandler_ListMine(t *testing.T) {
	mockBidService, _, app, jwtSvc := setupBidTest(t)

	userID := uuid.New()
	mockBidService.On("ListMine", mock.Anything, userID).Return([]models.Bid{}, nil)

	token := generateTestToken(t, jwtSvc, userID, "f@example.com")
	rec := doRequest(t, app, http.MethodGet, "/bids/my", token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestBidHandler_Hire_Success(t *testing.T) {
	_, mockHires, app, jwtSvc := setupBidTest(t)

	ownerID := uuid.New()
	bidID := uuid.New()
	result := &services.HireResult{
		GigID:          uuid.New(),
		GigTitle:       "Logo",
		BidID:          bidID,
		FreelancerID:   uuid.New(),
		FreelancerName: "Fred",
		Rejected:       2,
	}
	mockHires.On("Hire", mock.Anything, bidID, ownerID).Return(result, nil)

	token := generateTestToken(t, jwtSvc, ownerID, "o@example.com")
	rec := doRequest(t, app, http.MethodPatch, "/bids/"+bidID.String()+"/hire", token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.HireResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "Freelancer hired successfully", response.Message)
	assert.Equal(t, result.FreelancerID, response.Hired.FreelancerID)
	assert.Equal(t, "Fred", response.Hired.FreelancerName)

	mockHires.AssertExpectations(t)
}

func TestBidHandler_Hire_ErrorKinds(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
	}{
		{"bid missing", services.ErrBidNotFound, http.StatusNotFound},
		{"gig missing", services.ErrGigNotFound, http.StatusNotFound},
		{"not owner", services.ErrNotGigOwner, http.StatusForbidden},
		{"already assigned", services.ErrAlreadyAssigned, http.StatusConflict},
		{"busy", services.ErrUnavailable, http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, mockHires, app, jwtSvc := setupBidTest(t)
			userID := uuid.New()
			bidID := uuid.New()
			mockHires.On("Hire", mock.Anything, bidID, userID).Return(nil, tc.err)

			token := generateTestToken(t, jwtSvc, userID, "o@example.com")
			rec := doRequest(t, app, http.MethodPatch, "/bids/"+bidID.String()+"/hire", token, nil)

			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestBidHandler_Hire_Unavailable_SetsRetryAfter(t *testing.T) {
	_, mockHires, app, jwtSvc := setupBidTest(t)
	userID := uuid.New()
	bidID := uuid.New()
	mockHires.On("Hire", mock.Anything, bidID, userID).Return(nil, services.ErrUnavailable)

	token := generateTestToken(t, jwtSvc, userID, "o@example.com")
	rec := doRequest(t, app, http.MethodPatch, "/bids/"+bidID.String()+"/hire", token, nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestBidHandler_Hire_RequiresAuth(t *testing.T) {
	_, mockHires, app, _ := setupBidTest(t)

	rec := doRequest(t, app, http.MethodPatch, "/bids/"+uuid.New().String()+"/hire", "bogus", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	mockHires.AssertNotCalled(t, "Hire", mock.Anything, mock.Anything, mock.Anything)
}
