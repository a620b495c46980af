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

// GuardianRepository provides database access for guardian accounts.
type GuardianRepository struct {
	db *sqlx.DB
}

// NewGuardianRepository creates a new instance of GuardianRepository.
func NewGuardianRepository(db *sqlx.DB) *GuardianRepository {
	return &GuardianRepository{db: db}
}

// FindByOpenID returns a guardian by external identity token.
func (r *GuardianRepository) FindByOpenID(ctx context.Context, openID string) (*models.Guardian, error) {
	const query = `SELECT id, open_id, name, phone, avatar_url, created_at, updated_at FROM guardians WHERE open_id = $1 LIMIT 1`
	var guardian models.Guardian
	if err := r.db.GetContext(ctx, &guardian, query, openID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find guardian by open_id: %w", err)
	}
	return &guardian, nil
}

// FindByID returns a guardian by identifier.
func (r *GuardianRepository) FindByID(ctx context.Context, id string) (*models.Guardian, error) {
	const query = `SELECT id, open_id, name, phone, avatar_url, created_at, updated_at FROM guardians WHERE id = $1 LIMIT 1`
	var guardian models.Guardian
	if err := r.db.GetContext(ctx, &guardian, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find guardian by id: %w", err)
	}
	return &guardian, nil
}

// Create inserts a new guardian. A unique violation on open_id is returned
// unwrapped so callers can detect the first-contact race.
func (r *GuardianRepository) Create(ctx context.Context, guardian *models.Guardian) error {
	if guardian.ID == "" {
		guardian.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if guardian.CreatedAt.IsZero() {
		guardian.CreatedAt = now
	}
	guardian.UpdatedAt = now

	const query = `INSERT INTO guardians (id, open_id, name, phone, avatar_url, created_at, updated_at) VALUES (:id, :open_id, :name, :phone, :avatar_url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, guardian); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create guardian: %w", err)
	}
	return nil
}

// List returns all guardians ordered by creation time.
func (r *GuardianRepository) List(ctx context.Context) ([]models.Guardian, error) {
	const query = `SELECT id, open_id, name, phone, avatar_url, created_at, updated_at FROM guardians ORDER BY created_at DESC`
	var guardians []models.Guardian
	if err := r.db.SelectContext(ctx, &guardians, query); err != nil {
		return nil, fmt.Errorf("list guardians: %w", err)
	}
	return guardians, nil
}

// UpdateProfile updates the mutable profile fields. OpenID is never touched.
func (r *GuardianRepository) UpdateProfile(ctx context.Context, guardian *models.Guardian) error {
	guardian.UpdatedAt = time.Now().UTC()
	const query = `UPDATE guardians SET name = :name, phone = :phone, avatar_url = :avatar_url, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, guardian); err != nil {
		return fmt.Errorf("update guardian profile: %w", err)
	}
	return nil
}
