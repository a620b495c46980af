package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolgate/pickup-api/internal/models"
)

// LinkRepository manages the guardian to child authorization edges.
type LinkRepository struct {
	db *sqlx.DB
}

// NewLinkRepository creates a new instance of LinkRepository.
func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Exists reports whether a link is present for the (guardian, child) pair.
func (r *LinkRepository) Exists(ctx context.Context, guardianID, childID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM guardian_children WHERE guardian_id = $1 AND child_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, guardianID, childID); err != nil {
		return false, fmt.Errorf("check guardian child link: %w", err)
	}
	return count > 0, nil
}

// Create inserts a link. The (guardian_id, child_id) unique constraint makes
// the duplicate-bind race surface here as a unique violation, which is
// returned unwrapped for the service to map to a conflict.
func (r *LinkRepository) Create(ctx context.Context, link *models.GuardianChildLink) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO guardian_children (id, guardian_id, child_id, relationship, created_at) VALUES (:id, :guardian_id, :child_id, :relationship, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create guardian child link: %w", err)
	}
	return nil
}

// Delete removes the link for the pair. sql.ErrNoRows when absent.
func (r *LinkRepository) Delete(ctx context.Context, guardianID, childID string) error {
	const query = `DELETE FROM guardian_children WHERE guardian_id = $1 AND child_id = $2`
	res, err := r.db.ExecContext(ctx, query, guardianID, childID)
	if err != nil {
		return fmt.Errorf("delete guardian child link: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete link result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ChildIDsByGuardian returns the ids of children linked to the guardian.
// Dangling edges are excluded by joining against the children table.
func (r *LinkRepository) ChildIDsByGuardian(ctx context.Context, guardianID string) ([]string, error) {
	const query = `SELECT l.child_id FROM guardian_children l JOIN children c ON c.id = l.child_id WHERE l.guardian_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, guardianID); err != nil {
		return nil, fmt.Errorf("list child ids by guardian: %w", err)
	}
	return ids, nil
}

// GuardiansByChild returns the guardians linked to the child. Dangling edges
// are excluded by joining against the guardians table.
func (r *LinkRepository) GuardiansByChild(ctx context.Context, childID string) ([]models.Guardian, error) {
	const query = `SELECT g.id, g.open_id, g.name, g.phone, g.avatar_url, g.created_at, g.updated_at FROM guardian_children l JOIN guardians g ON g.id = l.guardian_id WHERE l.child_id = $1`
	var guardians []models.Guardian
	if err := r.db.SelectContext(ctx, &guardians, query, childID); err != nil {
		return nil, fmt.Errorf("list guardians by child: %w", err)
	}
	return guardians, nil
}
