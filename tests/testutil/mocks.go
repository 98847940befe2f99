package testutil

import (
	"context"

	"github.com/dimitrije/gigflow-api/internal/models"
	"github.com/dimitrije/gigflow-api/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockGigService mocks the GigService
type MockGigService struct {
	mock.Mock
}

func (m *MockGigService) Create(ctx context.Context, ownerID uuid.UUID, title, description string, budget float64) (*models.Gig, error) {
	args := m.Called(ctx, ownerID, title, description, budget)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Gig), args.Error(1)
}

func (m *MockGigService) GetByID(ctx context.Context, gigID uuid.UUID) (*models.Gig, error) {
	args := m.Called(ctx, gigID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Gig), args.Error(1)
}

func (m *MockGigService) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Gig, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Gig), args.Error(1)
}

func (m *MockGigService) ListAvailable(ctx context.Context, viewerID uuid.UUID, search string) ([]models.Gig, error) {
	args := m.Called(ctx, viewerID, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Gig), args.Error(1)
}

func (m *MockGigService) Update(ctx context.Context, gigID, ownerID uuid.UUID, upd services.GigUpdate) (*models.Gig, error) {
	args := m.Called(ctx, gigID, ownerID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Gig), args.Error(1)
}

func (m *MockGigService) Delete(ctx context.Context, gigID, ownerID uuid.UUID) error {
	args := m.Called(ctx, gigID, ownerID)
	return args.Error(0)
}

// MockBidService mocks the BidService
type MockBidService struct {
	mock.Mock
}

func (m *MockBidService) Submit(ctx context.Context, gigID, freelancerID uuid.UUID, message string, price float64) (*models.Bid, error) {
	args := m.Called(ctx, gigID, freelancerID, message, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bid), args.Error(1)
}

func (m *MockBidService) ListForGig(ctx context.Context, gigID, actingUserID uuid.UUID) ([]models.Bid, error) {
	args := m.Called(ctx, gigID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Bid), args.Error(1)
}

func (m *MockBidService) GetMine(ctx context.Context, gigID, freelancerID uuid.UUID) (*models.Bid, error) {
	args := m.Called(ctx, gigID, freelancerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bid), args.Error(1)
}

func (m *MockBidService) ListMine(ctx context.Context, freelancerID uuid.UUID) ([]models.Bid, error) {
	args := m.Called(ctx, freelancerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Bid), args.Error(1)
}

// MockHireCoordinator mocks the HireCoordinator
type MockHireCoordinator struct {
	mock.Mock
}

func (m *MockHireCoordinator) Hire(ctx context.Context, bidID, actingUserID uuid.UUID) (*services.HireResult, error) {
	args := m.Called(ctx, bidID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.HireResult), args.Error(1)
}

// MockPinger mocks the database health check
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindOrCreate(ctx context.Context, email, name string) (*models.User, error) {
	args := m.Called(ctx, email, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
