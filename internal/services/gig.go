package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/dimitrije/gigflow-api/internal/database"
	"github.com/dimitrije/gigflow-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const gigColumns = "id, owner_id, title, description, budget, status, created_at, updated_at"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// GigUpdate carries the owner-editable fields. Nil means unchanged.
type GigUpdate struct {
	Title       *string
	Description *string
	Budget      *float64
}

func (u GigUpdate) empty() bool {
	return u.Title == nil && u.Description == nil && u.Budget == nil
}

type GigService struct {
	db     *database.DB
	policy RetryPolicy
}

func NewGigService(db *database.DB) *GigService {
	return &GigService{db: db, policy: DefaultRetryPolicy()}
}

// WithRetryPolicy replaces the policy used for read retries.
func (s *GigService) WithRetryPolicy(p RetryPolicy) *GigService {
	s.policy = p
	return s
}

func (s *GigService) Create(ctx context.Context, ownerID uuid.UUID, title, description string, budget float64) (*models.Gig, error) {
	var gig models.Gig
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO gigs (owner_id, title, description, budget, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, owner_id, title, description, budget, status, created_at, updated_at
	`, ownerID, title, description, budget, models.GigStatusOpen).Scan(
		&gig.ID, &gig.OwnerID, &gig.Title, &gig.Description,
		&gig.Budget, &gig.Status, &gig.CreatedAt, &gig.UpdatedAt,
	)
	if err != nil {
		return nil, writeFailure("failed to create gig", err)
	}
	return &gig, nil
}

func (s *GigService) GetByID(ctx context.Context, gigID uuid.UUID) (*models.Gig, error) {
	var gig models.Gig
	err := retryTransient(ctx, s.policy, func() error {
		err := s.db.Pool.QueryRow(ctx, `
			SELECT id, owner_id, title, description, budget, status, created_at, updated_at
			FROM gigs WHERE id = $1
		`, gigID).Scan(
			&gig.ID, &gig.OwnerID, &gig.Title, &gig.Description,
			&gig.Budget, &gig.Status, &gig.CreatedAt, &gig.UpdatedAt,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrGigNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &gig, nil
}

func (s *GigService) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Gig, error) {
	var gigs []models.Gig
	err := retryTransient(ctx, s.policy, func() error {
		rows, err := s.db.Pool.Query(ctx, `
			SELECT id, owner_id, title, description, budget, status, created_at, updated_at
			FROM gigs WHERE owner_id = $1
			ORDER BY created_at DESC
		`, ownerID)
		if err != nil {
			return err
		}
		defer rows.Close()

		gigs = []models.Gig{}
		for rows.Next() {
			var g models.Gig
			if err := rows.Scan(
				&g.ID, &g.OwnerID, &g.Title, &g.Description,
				&g.Budget, &g.Status, &g.CreatedAt, &g.UpdatedAt,
			); err != nil {
				return err
			}
			gigs = append(gigs, g)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return gigs, nil
}

// ListAvailable returns open gigs the viewer does not own, newest first.
// A non-empty search matches title or description case-insensitively.
func (s *GigService) ListAvailable(ctx context.Context, viewerID uuid.UUID, search string) ([]models.Gig, error) {
	query := psql.
		Select(
			"g.id", "g.owner_id", "g.title", "g.description", "g.budget", "g.status", "g.created_at", "g.updated_at",
			"u.id", "u.email", "u.name",
		).
		From("gigs g").
		Join("users u ON u.id = g.owner_id").
		Where(sq.Eq{"g.status": models.GigStatusOpen}).
		Where(sq.NotEq{"g.owner_id": viewerID}).
		OrderBy("g.created_at DESC")

	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + likeEscaper.Replace(search) + "%"
		query = query.Where(sq.Or{
			sq.ILike{"g.title": pattern},
			sq.ILike{"g.description": pattern},
		})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var gigs []models.Gig
	err = retryTransient(ctx, s.policy, func() error {
		rows, err := s.db.Pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		gigs = []models.Gig{}
		for rows.Next() {
			var g models.Gig
			var owner models.User
			if err := rows.Scan(
				&g.ID, &g.OwnerID, &g.Title, &g.Description,
				&g.Budget, &g.Status, &g.CreatedAt, &g.UpdatedAt,
				&owner.ID, &owner.Email, &owner.Name,
			); err != nil {
				return err
			}
			g.Owner = &owner
			gigs = append(gigs, g)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return gigs, nil
}

// Update edits an open gig. The ownership and status checks are part of the
// UPDATE itself so an edit can never land on a gig a concurrent hire has
// just assigned.
func (s *GigService) Update(ctx context.Context, gigID, ownerID uuid.UUID, upd GigUpdate) (*models.Gig, error) {
	if upd.empty() {
		return nil, ErrNoFieldsToUpdate
	}

	query := psql.Update("gigs")
	if upd.Title != nil {
		query = query.Set("title", *upd.Title)
	}
	if upd.Description != nil {
		query = query.Set("description", *upd.Description)
	}
	if upd.Budget != nil {
		query = query.Set("budget", *upd.Budget)
	}
	query = query.
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": gigID}).
		Where(sq.Eq{"owner_id": ownerID}).
		Where(sq.Eq{"status": models.GigStatusOpen}).
		Suffix("RETURNING " + gigColumns)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var gig models.Gig
	err = s.db.Pool.QueryRow(ctx, sql, args...).Scan(
		&gig.ID, &gig.OwnerID, &gig.Title, &gig.Description,
		&gig.Budget, &gig.Status, &gig.CreatedAt, &gig.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.explainRefusal(ctx, gigID, ownerID)
	}
	if err != nil {
		return nil, writeFailure("failed to update gig", err)
	}
	return &gig, nil
}

// Delete removes an open gig together with its bids. Assigned gigs are kept
// so the hired bid stays on record.
func (s *GigService) Delete(ctx context.Context, gigID, ownerID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		DELETE FROM gigs WHERE id = $1 AND owner_id = $2 AND status = $3
	`, gigID, ownerID, models.GigStatusOpen)
	if err != nil {
		return writeFailure("failed to delete gig", err)
	}
	if result.RowsAffected() == 0 {
		return s.explainRefusal(ctx, gigID, ownerID)
	}
	return nil
}

// explainRefusal works out why a guarded write on a gig touched no rows.
func (s *GigService) explainRefusal(ctx context.Context, gigID, ownerID uuid.UUID) error {
	gig, err := s.GetByID(ctx, gigID)
	if err != nil {
		return err
	}
	if !gig.IsOwnedBy(ownerID) {
		return ErrNotGigOwner
	}
	if !gig.IsOpen() {
		return ErrGigLocked
	}
	return ErrConflict
}
