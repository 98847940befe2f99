package services

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/dimitrije/gigflow-api/internal/database"
	"github.com/dimitrije/gigflow-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BidService struct {
	db     *database.DB
	policy RetryPolicy
}

func NewBidService(db *database.DB) *BidService {
	return &BidService{db: db, policy: DefaultRetryPolicy()}
}

// WithRetryPolicy replaces the policy used for read retries.
func (s *BidService) WithRetryPolicy(p RetryPolicy) *BidService {
	s.policy = p
	return s
}

// Submit places a pending bid. The gig row is share-locked while the checks
// run, so a concurrent hire either sees the new bid and rejects it or the
// submission sees the gig assigned. Submit is not retried; lock and
// serialization failures come back as ErrUnavailable for the client to retry.
func (s *BidService) Submit(ctx context.Context, gigID, freelancerID uuid.UUID, message string, price float64) (*models.Bid, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, writeFailure("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var ownerID uuid.UUID
	var status string
	err = tx.QueryRow(ctx, `
		SELECT owner_id, status FROM gigs WHERE id = $1 FOR SHARE
	`, gigID).Scan(&ownerID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGigNotFound
	}
	if err != nil {
		return nil, writeFailure("failed to load gig", err)
	}

	if status != models.GigStatusOpen {
		return nil, ErrGigNotOpen
	}
	if ownerID == freelancerID {
		return nil, ErrOwnGig
	}

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM bids WHERE gig_id = $1 AND freelancer_id = $2)
	`, gigID, freelancerID).Scan(&exists)
	if err != nil {
		return nil, writeFailure("failed to check existing bid", err)
	}
	if exists {
		return nil, ErrDuplicateBid
	}

	var bid models.Bid
	err = tx.QueryRow(ctx, `
		INSERT INTO bids (gig_id, freelancer_id, message, price, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, gig_id, freelancer_id, message, price, status, created_at, updated_at
	`, gigID, freelancerID, message, price, models.BidStatusPending).Scan(
		&bid.ID, &bid.GigID, &bid.FreelancerID, &bid.Message,
		&bid.Price, &bid.Status, &bid.CreatedAt, &bid.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateBid
		}
		return nil, writeFailure("failed to create bid", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, writeFailure("failed to commit transaction", err)
	}

	return &bid, nil
}

// ListForGig returns every bid on a gig, newest first, with the bidder
// embedded. Only the gig owner may list them.
func (s *BidService) ListForGig(ctx context.Context, gigID, actingUserID uuid.UUID) ([]models.Bid, error) {
	var bids []models.Bid
	err := retryTransient(ctx, s.policy, func() error {
		var ownerID uuid.UUID
		err := s.db.Pool.QueryRow(ctx, `SELECT owner_id FROM gigs WHERE id = $1`, gigID).Scan(&ownerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrGigNotFound
		}
		if err != nil {
			return err
		}
		if ownerID != actingUserID {
			return ErrNotGigOwner
		}

		bids, err = s.queryBids(ctx, psql.
			Select(
				"b.id", "b.gig_id", "b.freelancer_id", "b.message", "b.price", "b.status", "b.created_at", "b.updated_at",
				"u.id", "u.email", "u.name",
			).
			From("bids b").
			Join("users u ON u.id = b.freelancer_id").
			Where(sq.Eq{"b.gig_id": gigID}).
			OrderBy("b.created_at DESC"),
			scanBidWithFreelancer,
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bids, nil
}

// GetMine returns the caller's bid on a gig with the gig summary embedded.
func (s *BidService) GetMine(ctx context.Context, gigID, freelancerID uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := retryTransient(ctx, s.policy, func() error {
		var gig models.Gig
		err := s.db.Pool.QueryRow(ctx, `
			SELECT b.id, b.gig_id, b.freelancer_id, b.message, b.price, b.status, b.created_at, b.updated_at,
			       g.id, g.title, g.budget, g.status
			FROM bids b
			JOIN gigs g ON g.id = b.gig_id
			WHERE b.gig_id = $1 AND b.freelancer_id = $2
		`, gigID, freelancerID).Scan(
			&bid.ID, &bid.GigID, &bid.FreelancerID, &bid.Message,
			&bid.Price, &bid.Status, &bid.CreatedAt, &bid.UpdatedAt,
			&gig.ID, &gig.Title, &gig.Budget, &gig.Status,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBidNotFound
		}
		if err != nil {
			return err
		}
		bid.Gig = &gig
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// ListMine is the freelancer dashboard: all of the caller's bids, newest
// first, each with its gig summary.
func (s *BidService) ListMine(ctx context.Context, freelancerID uuid.UUID) ([]models.Bid, error) {
	var bids []models.Bid
	err := retryTransient(ctx, s.policy, func() error {
		var err error
		bids, err = s.queryBids(ctx, psql.
			Select(
				"b.id", "b.gig_id", "b.freelancer_id", "b.message", "b.price", "b.status", "b.created_at", "b.updated_at",
				"g.id", "g.title", "g.budget", "g.status",
			).
			From("bids b").
			Join("gigs g ON g.id = b.gig_id").
			Where(sq.Eq{"b.freelancer_id": freelancerID}).
			OrderBy("b.created_at DESC"),
			scanBidWithGig,
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bids, nil
}

func (s *BidService) queryBids(ctx context.Context, query sq.SelectBuilder, scan func(pgx.Rows) (models.Bid, error)) ([]models.Bid, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bids := []models.Bid{}
	for rows.Next() {
		bid, err := scan(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}

func scanBidWithFreelancer(rows pgx.Rows) (models.Bid, error) {
	var b models.Bid
	var u models.User
	err := rows.Scan(
		&b.ID, &b.GigID, &b.FreelancerID, &b.Message, &b.Price, &b.Status, &b.CreatedAt, &b.UpdatedAt,
		&u.ID, &u.Email, &u.Name,
	)
	b.Freelancer = &u
	return b, err
}

func scanBidWithGig(rows pgx.Rows) (models.Bid, error) {
	var b models.Bid
	var g models.Gig
	err := rows.Scan(
		&b.ID, &b.GigID, &b.FreelancerID, &b.Message, &b.Price, &b.Status, &b.CreatedAt, &b.UpdatedAt,
		&g.ID, &g.Title, &g.Budget, &g.Status,
	)
	b.Gig = &g
	return b, err
}
