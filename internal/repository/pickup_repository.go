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

// PickupRepository stores the append-only pickup event log. There is no
// update or delete on purpose.
type PickupRepository struct {
	db *sqlx.DB
}

// NewPickupRepository creates a new instance of PickupRepository.
func NewPickupRepository(db *sqlx.DB) *PickupRepository {
	return &PickupRepository{db: db}
}

// Create inserts an event. OccurredAt is stamped here with the server clock;
// any caller-supplied value is discarded.
func (r *PickupRepository) Create(ctx context.Context, event *models.PickupEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.OccurredAt = now
	event.CreatedAt = now

	const query = `INSERT INTO pickup_events (id, child_id, staff_id, photo_url, occurred_at, notes, created_at) VALUES (:id, :child_id, :staff_id, :photo_url, :occurred_at, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create pickup event: %w", err)
	}
	return nil
}

const pickupDetailColumns = `p.id, p.child_id, p.staff_id, p.photo_url, p.occurred_at, p.notes, p.created_at, c.name AS child_name, s.name AS staff_name`

// FindByID returns an event with joined display names.
func (r *PickupRepository) FindByID(ctx context.Context, id string) (*models.PickupEventDetail, error) {
	query := `SELECT ` + pickupDetailColumns + ` FROM pickup_events p JOIN children c ON c.id = p.child_id JOIN staff s ON s.id = p.staff_id WHERE p.id = $1 LIMIT 1`
	var detail models.PickupEventDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find pickup event by id: %w", err)
	}
	return &detail, nil
}

// ListByChildIDs returns events for the given children, newest first.
func (r *PickupRepository) ListByChildIDs(ctx context.Context, childIDs []string, limit int) ([]models.PickupEventDetail, error) {
	if len(childIDs) == 0 {
		return nil, nil
	}
	base := `SELECT ` + pickupDetailColumns + ` FROM pickup_events p JOIN children c ON c.id = p.child_id JOIN staff s ON s.id = p.staff_id WHERE p.child_id IN (?) ORDER BY p.occurred_at DESC`
	if limit > 0 {
		base = fmt.Sprintf("%s LIMIT %d", base, limit)
	}
	query, args, err := sqlx.In(base, childIDs)
	if err != nil {
		return nil, fmt.Errorf("build pickup events query: %w", err)
	}
	query = r.db.Rebind(query)
	var events []models.PickupEventDetail
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list pickup events by children: %w", err)
	}
	return events, nil
}

// ListAll returns the full event log, newest first.
func (r *PickupRepository) ListAll(ctx context.Context, limit int) ([]models.PickupEventDetail, error) {
	query := `SELECT ` + pickupDetailColumns + ` FROM pickup_events p JOIN children c ON c.id = p.child_id JOIN staff s ON s.id = p.staff_id ORDER BY p.occurred_at DESC`
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	var events []models.PickupEventDetail
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list pickup events: %w", err)
	}
	return events, nil
}
