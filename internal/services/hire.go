package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/gigflow-api/internal/database"
	"github.com/dimitrije/gigflow-api/internal/models"
	"github.com/dimitrije/gigflow-api/internal/notify"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

type HireResult struct {
	GigID          uuid.UUID
	GigTitle       string
	BidID          uuid.UUID
	FreelancerID   uuid.UUID
	FreelancerName string
	Rejected       int64
}

type HireOptions struct {
	Retry RetryPolicy
	// Timeout bounds the whole hire including retries. Zero means no bound
	// beyond the caller's context.
	Timeout time.Duration
	// LockTimeout bounds how long one attempt waits for the gig row lock.
	LockTimeout time.Duration
}

func DefaultHireOptions() HireOptions {
	return HireOptions{
		Retry:       DefaultRetryPolicy(),
		Timeout:     5 * time.Second,
		LockTimeout: 2 * time.Second,
	}
}

// HireCoordinator assigns a gig to one of its bids. The gig row is locked
// FOR UPDATE for the length of the transaction, so of any number of
// concurrent hires on the same gig exactly one commits and the others see
// the gig already assigned.
type HireCoordinator struct {
	db       *database.DB
	notifier notify.Publisher
	opts     HireOptions
	log      logrus.FieldLogger
}

func NewHireCoordinator(db *database.DB, notifier notify.Publisher, opts HireOptions, log logrus.FieldLogger) *HireCoordinator {
	return &HireCoordinator{
		db:       db,
		notifier: notifier,
		opts:     opts,
		log:      log,
	}
}

// Hire makes bidID the winning bid of its gig on behalf of actingUserID.
// Business failures come back as ErrNotFound, ErrForbidden or ErrConflict
// kinds; lock contention that outlives the retry budget as ErrUnavailable.
// The winner is notified only after the transaction has committed.
func (c *HireCoordinator) Hire(ctx context.Context, bidID, actingUserID uuid.UUID) (*HireResult, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	logger := c.log.WithFields(logrus.Fields{"bid_id": bidID, "user_id": actingUserID})

	var result *HireResult
	attempts := 0
	err := retryTransient(ctx, c.opts.Retry, func() error {
		attempts++
		res, err := c.attempt(ctx, bidID, actingUserID)
		if err != nil {
			if isTransient(err) {
				logger.WithError(err).WithField("attempt", attempts).Debug("hire attempt lost a lock race, retrying")
			}
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		logger.WithError(err).Warn("hire aborted")
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"gig_id":        result.GigID,
		"freelancer_id": result.FreelancerID,
		"rejected":      result.Rejected,
	}).Info("bid hired")

	c.notifyHired(result)
	return result, nil
}

// attempt is one unit of work: it either commits every effect of the hire
// or returns the reason it aborted, with the deferred rollback discarding
// anything written so far.
func (c *HireCoordinator) attempt(ctx context.Context, bidID, actingUserID uuid.UUID) (*HireResult, error) {
	tx, err := c.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if c.opts.LockTimeout > 0 {
		_, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", c.opts.LockTimeout.Milliseconds()))
		if err != nil {
			return nil, fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	res := HireResult{BidID: bidID}
	err = tx.QueryRow(ctx, `
		SELECT b.gig_id, b.freelancer_id, u.name
		FROM bids b
		JOIN users u ON u.id = b.freelancer_id
		WHERE b.id = $1
	`, bidID).Scan(&res.GigID, &res.FreelancerID, &res.FreelancerName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBidNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bid: %w", err)
	}

	var ownerID uuid.UUID
	var status string
	err = tx.QueryRow(ctx, `
		SELECT owner_id, title, status FROM gigs WHERE id = $1 FOR UPDATE
	`, res.GigID).Scan(&ownerID, &res.GigTitle, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock gig: %w", err)
	}

	if ownerID != actingUserID {
		return nil, ErrNotGigOwner
	}
	if status == models.GigStatusAssigned {
		return nil, ErrAlreadyAssigned
	}

	_, err = tx.Exec(ctx, `
		UPDATE gigs SET status = $1, updated_at = NOW() WHERE id = $2
	`, models.GigStatusAssigned, res.GigID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign gig: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE bids SET status = $1, updated_at = NOW() WHERE id = $2
	`, models.BidStatusHired, bidID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark bid hired: %w", err)
	}

	rejected, err := tx.Exec(ctx, `
		UPDATE bids SET status = $1, updated_at = NOW()
		WHERE gig_id = $2 AND id <> $3 AND status <> $1
	`, models.BidStatusRejected, res.GigID, bidID)
	if err != nil {
		return nil, fmt.Errorf("failed to reject competing bids: %w", err)
	}
	res.Rejected = rejected.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &res, nil
}

func (c *HireCoordinator) notifyHired(res *HireResult) {
	if c.notifier == nil {
		return
	}
	c.notifier.Publish(res.FreelancerID, notify.NewHiredEvent(
		res.GigID,
		res.BidID,
		res.GigTitle,
		HiredMessage(res.GigTitle),
	))
}

func HiredMessage(gigTitle string) string {
	return fmt.Sprintf("You've been hired for \"%s\"!", gigTitle)
}
