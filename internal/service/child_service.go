package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolgate/pickup-api/internal/models"
	"github.com/schoolgate/pickup-api/internal/repository"
	appErrors "github.com/schoolgate/pickup-api/pkg/errors"
)

type childRepository interface {
	FindByID(ctx context.Context, id string) (*models.Child, error)
	ExistsByEnrollmentNumber(ctx context.Context, number, excludeID string) (bool, error)
	List(ctx context.Context, className string) ([]models.Child, error)
	Create(ctx context.Context, child *models.Child) error
	Update(ctx context.Context, child *models.Child) error
	Delete(ctx context.Context, id string) error
}

// CreateChildRequest holds payload for enrolling children.
type CreateChildRequest struct {
	Name             string `json:"name" validate:"required"`
	EnrollmentNumber string `json:"enrollment_number" validate:"required"`
	ClassName        string `json:"class_name" validate:"required"`
	Grade            string `json:"grade"`
	AvatarURL        string `json:"avatar_url"`
}

// UpdateChildRequest holds payload for editing children. The enrollment
// number is fixed at creation.
type UpdateChildRequest struct {
	Name      string `json:"name" validate:"required"`
	ClassName string `json:"class_name" validate:"required"`
	Grade     string `json:"grade"`
	AvatarURL string `json:"avatar_url"`
}

// ChildService handles roster use-cases for children. All operations are
// admin-only; the guard runs before these are reached.
type ChildService struct {
	repo      childRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChildService constructs the child service.
func NewChildService(repo childRepository, validate *validator.Validate, logger *zap.Logger) *ChildService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChildService{repo: repo, validator: validate, logger: logger}
}

// List returns children, optionally filtered by class name.
func (s *ChildService) List(ctx context.Context, className string) ([]models.Child, error) {
	children, err := s.repo.List(ctx, className)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list children")
	}
	return children, nil
}

// Get returns a single child.
func (s *ChildService) Get(ctx context.Context, id string) (*models.Child, error) {
	child, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load child")
	}
	return child, nil
}

// Create enrolls a new child.
func (s *ChildService) Create(ctx context.Context, req CreateChildRequest) (*models.Child, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid child payload")
	}
	exists, err := s.repo.ExistsByEnrollmentNumber(ctx, req.EnrollmentNumber, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment number already used")
	}

	child := &models.Child{
		Name:             req.Name,
		EnrollmentNumber: req.EnrollmentNumber,
		ClassName:        req.ClassName,
		Grade:            req.Grade,
		AvatarURL:        req.AvatarURL,
	}
	if err := s.repo.Create(ctx, child); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment number already used")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create child")
	}
	return child, nil
}

// Update edits a child's mutable fields.
func (s *ChildService) Update(ctx context.Context, id string, req UpdateChildRequest) (*models.Child, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid child payload")
	}
	child, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load child")
	}

	child.Name = req.Name
	child.ClassName = req.ClassName
	child.Grade = req.Grade
	child.AvatarURL = req.AvatarURL
	if err := s.repo.Update(ctx, child); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update child")
	}
	return child, nil
}

// Delete removes a child from the roster along with its guardian links.
func (s *ChildService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete child")
	}
	return nil
}
