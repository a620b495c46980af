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

// ChildRepository provides database access for the student roster.
type ChildRepository struct {
	db *sqlx.DB
}

// NewChildRepository creates a new instance of ChildRepository.
func NewChildRepository(db *sqlx.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

// FindByID returns a child by identifier.
func (r *ChildRepository) FindByID(ctx context.Context, id string) (*models.Child, error) {
	const query = `SELECT id, name, enrollment_number, class_name, grade, avatar_url, created_at, updated_at FROM children WHERE id = $1 LIMIT 1`
	var child models.Child
	if err := r.db.GetContext(ctx, &child, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find child by id: %w", err)
	}
	return &child, nil
}

// ExistsByEnrollmentNumber reports whether another child already uses the number.
func (r *ChildRepository) ExistsByEnrollmentNumber(ctx context.Context, number, excludeID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM children WHERE enrollment_number = $1 AND id <> $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, number, excludeID); err != nil {
		return false, fmt.Errorf("check enrollment number: %w", err)
	}
	return count > 0, nil
}

// List returns children, optionally filtered by class name.
func (r *ChildRepository) List(ctx context.Context, className string) ([]models.Child, error) {
	var children []models.Child
	if className != "" {
		const query = `SELECT id, name, enrollment_number, class_name, grade, avatar_url, created_at, updated_at FROM children WHERE class_name = $1 ORDER BY name ASC`
		if err := r.db.SelectContext(ctx, &children, query, className); err != nil {
			return nil, fmt.Errorf("list children by class: %w", err)
		}
		return children, nil
	}
	const query = `SELECT id, name, enrollment_number, class_name, grade, avatar_url, created_at, updated_at FROM children ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &children, query); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return children, nil
}

// FindByIDs returns children whose ids are in the given set.
func (r *ChildRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Child, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, enrollment_number, class_name, grade, avatar_url, created_at, updated_at FROM children WHERE id IN (?) ORDER BY name ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build children query: %w", err)
	}
	query = r.db.Rebind(query)
	var children []models.Child
	if err := r.db.SelectContext(ctx, &children, query, args...); err != nil {
		return nil, fmt.Errorf("find children by ids: %w", err)
	}
	return children, nil
}

// Create inserts a new child.
func (r *ChildRepository) Create(ctx context.Context, child *models.Child) error {
	if child.ID == "" {
		child.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if child.CreatedAt.IsZero() {
		child.CreatedAt = now
	}
	child.UpdatedAt = now

	const query = `INSERT INTO children (id, name, enrollment_number, class_name, grade, avatar_url, created_at, updated_at) VALUES (:id, :name, :enrollment_number, :class_name, :grade, :avatar_url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, child); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create child: %w", err)
	}
	return nil
}

// Update updates mutable fields of a child. The enrollment number stays fixed.
func (r *ChildRepository) Update(ctx context.Context, child *models.Child) error {
	child.UpdatedAt = time.Now().UTC()
	const query = `UPDATE children SET name = :name, class_name = :class_name, grade = :grade, avatar_url = :avatar_url, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, child); err != nil {
		return fmt.Errorf("update child: %w", err)
	}
	return nil
}

// Delete removes a child and cascades its guardian links.
func (r *ChildRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete child: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM guardian_children WHERE child_id = $1`, id); err != nil {
		return fmt.Errorf("delete child links: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM children WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete child: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete child result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}
