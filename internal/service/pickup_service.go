package service

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolgate/pickup-api/internal/models"
	appErrors "github.com/schoolgate/pickup-api/pkg/errors"
)

type pickupEventRepo interface {
	Create(ctx context.Context, event *models.PickupEvent) error
	FindByID(ctx context.Context, id string) (*models.PickupEventDetail, error)
	ListByChildIDs(ctx context.Context, childIDs []string, limit int) ([]models.PickupEventDetail, error)
	ListAll(ctx context.Context, limit int) ([]models.PickupEventDetail, error)
}

type pickupChildRepo interface {
	FindByID(ctx context.Context, id string) (*models.Child, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Child, error)
}

type pickupLinkRepo interface {
	Exists(ctx context.Context, guardianID, childID string) (bool, error)
	ChildIDsByGuardian(ctx context.Context, guardianID string) ([]string, error)
	GuardiansByChild(ctx context.Context, childID string) ([]models.Guardian, error)
}

type pickupNotifier interface {
	Dispatch(event models.PickupEventDetail, guardians []models.Guardian)
}

type photoStore interface {
	Save(folder, originalName string, r io.Reader) (string, error)
}

// RecordPickupRequest carries the staff-submitted pickup form fields. The
// photo travels separately as a multipart file.
type RecordPickupRequest struct {
	ChildID string `form:"child_id" validate:"required"`
	Notes   string `form:"notes"`
}

const defaultListLimit = 100

// PickupService owns the append-only pickup event log: staff record events,
// guardians read back only the events of children they are linked to.
type PickupService struct {
	events    pickupEventRepo
	children  pickupChildRepo
	links     pickupLinkRepo
	photos    photoStore
	notifier  pickupNotifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPickupService constructs the pickup service.
func NewPickupService(events pickupEventRepo, children pickupChildRepo, links pickupLinkRepo, photos photoStore, notifier pickupNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *PickupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PickupService{events: events, children: children, links: links, photos: photos, notifier: notifier, metrics: metrics, validator: validate, logger: logger}
}

// Record creates a pickup event. The child must exist and the photo must be
// stored before the row is written; if either step fails no event exists.
// Notification fan-out happens after the insert and never fails the request.
func (s *PickupService) Record(ctx context.Context, staffID string, req RecordPickupRequest, photoName string, photo io.Reader) (*models.PickupEventDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pickup payload")
	}
	if photo == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "photo is required")
	}

	if _, err := s.children.FindByID(ctx, req.ChildID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load child")
	}

	photoURL, err := s.photos.Save("pickups", photoName, photo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "photo upload failed")
	}

	event := &models.PickupEvent{
		ChildID:  req.ChildID,
		StaffID:  staffID,
		PhotoURL: photoURL,
		Notes:    req.Notes,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record pickup")
	}
	s.metrics.RecordPickup()

	detail, err := s.events.FindByID(ctx, event.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recorded pickup")
	}

	s.fanOut(ctx, detail)
	return detail, nil
}

// fanOut hands the event to the notifier for every linked guardian. Lookup
// or dispatch problems are logged and swallowed; the event is already
// committed and stays retrievable.
func (s *PickupService) fanOut(ctx context.Context, event *models.PickupEventDetail) {
	if s.notifier == nil {
		return
	}
	guardians, err := s.links.GuardiansByChild(ctx, event.ChildID)
	if err != nil {
		s.logger.Warn("pickup notification fan-out skipped",
			zap.String("event_id", event.ID),
			zap.String("child_id", event.ChildID),
			zap.Error(err))
		return
	}
	if len(guardians) == 0 {
		return
	}
	s.notifier.Dispatch(*event, guardians)
}

// ListForStaff returns the recent event log for staff and admin views.
func (s *PickupService) ListForStaff(ctx context.Context, limit int) ([]models.PickupEventDetail, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	events, err := s.events.ListAll(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pickups")
	}
	return events, nil
}

// ListForGuardian returns events only for children currently linked to the
// guardian. An empty link set yields an empty list, not an error.
func (s *PickupService) ListForGuardian(ctx context.Context, guardianID string, limit int) ([]models.PickupEventDetail, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	childIDs, err := s.links.ChildIDsByGuardian(ctx, guardianID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve linked children")
	}
	if len(childIDs) == 0 {
		return []models.PickupEventDetail{}, nil
	}
	events, err := s.events.ListByChildIDs(ctx, childIDs, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pickups")
	}
	if events == nil {
		events = []models.PickupEventDetail{}
	}
	return events, nil
}

// GetForGuardian returns a single event if the guardian is linked to its
// child. A denial is indistinguishable from a missing record.
func (s *PickupService) GetForGuardian(ctx context.Context, guardianID, eventID string) (*models.PickupEventDetail, error) {
	detail, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pickup")
	}
	linked, err := s.links.Exists(ctx, guardianID, detail.ChildID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check link")
	}
	if !linked {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found")
	}
	return detail, nil
}

// ChildrenForGuardian returns the children currently linked to the guardian.
func (s *PickupService) ChildrenForGuardian(ctx context.Context, guardianID string) ([]models.Child, error) {
	childIDs, err := s.links.ChildIDsByGuardian(ctx, guardianID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve linked children")
	}
	if len(childIDs) == 0 {
		return []models.Child{}, nil
	}
	children, err := s.children.FindByIDs(ctx, childIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load children")
	}
	return children, nil
}
