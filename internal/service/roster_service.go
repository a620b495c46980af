package service

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolgate/pickup-api/internal/models"
	"github.com/schoolgate/pickup-api/internal/repository"
	appErrors "github.com/schoolgate/pickup-api/pkg/errors"
)

type rosterGuardianRepo interface {
	FindByID(ctx context.Context, id string) (*models.Guardian, error)
	FindByOpenID(ctx context.Context, openID string) (*models.Guardian, error)
	Create(ctx context.Context, guardian *models.Guardian) error
	List(ctx context.Context) ([]models.Guardian, error)
	UpdateProfile(ctx context.Context, guardian *models.Guardian) error
}

type rosterStaffRepo interface {
	FindByID(ctx context.Context, id string) (*models.Staff, error)
	Create(ctx context.Context, staff *models.Staff) error
	List(ctx context.Context) ([]models.Staff, error)
	UpdateProfile(ctx context.Context, staff *models.Staff) error
}

type rosterChildRepo interface {
	FindByID(ctx context.Context, id string) (*models.Child, error)
}

type rosterLinkRepo interface {
	Create(ctx context.Context, link *models.GuardianChildLink) error
	Delete(ctx context.Context, guardianID, childID string) error
}

type uploadStore interface {
	Save(folder, originalName string, r io.Reader) (string, error)
}

// CreateGuardianRequest registers a guardian ahead of first contact.
type CreateGuardianRequest struct {
	OpenID string `json:"openid" validate:"required"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}

// CreateStaffRequest registers a staff member.
type CreateStaffRequest struct {
	OpenID string `json:"openid" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Phone  string `json:"phone"`
}

// BindRequest links a guardian to a child.
type BindRequest struct {
	GuardianID   string  `json:"guardian_id" validate:"required"`
	ChildID      string  `json:"child_id" validate:"required"`
	Relationship *string `json:"relationship"`
}

// UnbindRequest removes a guardian-child link.
type UnbindRequest struct {
	GuardianID string `json:"guardian_id" validate:"required"`
	ChildID    string `json:"child_id" validate:"required"`
}

// RosterService manages guardian and staff accounts and the authorization
// edges between guardians and children.
type RosterService struct {
	guardians rosterGuardianRepo
	staff     rosterStaffRepo
	children  rosterChildRepo
	links     rosterLinkRepo
	uploads   uploadStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs the roster service.
func NewRosterService(guardians rosterGuardianRepo, staff rosterStaffRepo, children rosterChildRepo, links rosterLinkRepo, uploads uploadStore, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{guardians: guardians, staff: staff, children: children, links: links, uploads: uploads, validator: validate, logger: logger}
}

// ListGuardians returns all guardian accounts.
func (s *RosterService) ListGuardians(ctx context.Context) ([]models.Guardian, error) {
	guardians, err := s.guardians.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list guardians")
	}
	return guardians, nil
}

// CreateGuardian registers a guardian explicitly, ahead of any login.
func (s *RosterService) CreateGuardian(ctx context.Context, req CreateGuardianRequest) (*models.Guardian, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid guardian payload")
	}
	guardian := &models.Guardian{OpenID: req.OpenID, Name: req.Name, Phone: req.Phone}
	if err := s.guardians.Create(ctx, guardian); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "openid already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create guardian")
	}
	return guardian, nil
}

// ListStaff returns all staff accounts.
func (s *RosterService) ListStaff(ctx context.Context) ([]models.Staff, error) {
	staff, err := s.staff.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list staff")
	}
	return staff, nil
}

// CreateStaff registers a staff member. Staff are only ever created
// explicitly; token resolution never provisions them.
func (s *RosterService) CreateStaff(ctx context.Context, req CreateStaffRequest) (*models.Staff, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid staff payload")
	}
	staff := &models.Staff{OpenID: req.OpenID, Name: req.Name, Phone: req.Phone}
	if err := s.staff.Create(ctx, staff); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "openid already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create staff")
	}
	return staff, nil
}

// Bind creates the guardian-child authorization edge. Both endpoints must
// exist; a duplicate bind is a conflict, leaving exactly one edge.
func (s *RosterService) Bind(ctx context.Context, req BindRequest) (*models.GuardianChildLink, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bind payload")
	}

	if _, err := s.guardians.FindByID(ctx, req.GuardianID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "guardian not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guardian")
	}
	if _, err := s.children.FindByID(ctx, req.ChildID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load child")
	}

	link := &models.GuardianChildLink{
		GuardianID:   req.GuardianID,
		ChildID:      req.ChildID,
		Relationship: req.Relationship,
	}
	if err := s.links.Create(ctx, link); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "guardian already linked to child")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create link")
	}
	return link, nil
}

// Unbind removes the authorization edge, revoking the guardian's access to
// the child's records immediately.
func (s *RosterService) Unbind(ctx context.Context, req UnbindRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unbind payload")
	}
	if err := s.links.Delete(ctx, req.GuardianID, req.ChildID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "link not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete link")
	}
	return nil
}

// SetAvatar stores an avatar upload for the authenticated guardian or staff
// member and records its public URL on the profile.
func (s *RosterService) SetAvatar(ctx context.Context, auth *models.AuthContext, originalName string, file io.Reader) (string, error) {
	if auth == nil || (auth.Guardian == nil && auth.Staff == nil) {
		return "", appErrors.Clone(appErrors.ErrUnauthenticated, "no resolved actor")
	}

	avatarURL, err := s.uploads.Save("avatars", originalName, file)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "avatar upload failed")
	}

	switch auth.Role {
	case models.RoleGuardian:
		guardian := auth.Guardian
		guardian.AvatarURL = avatarURL
		if err := s.guardians.UpdateProfile(ctx, guardian); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save avatar")
		}
	case models.RoleStaff:
		staff := auth.Staff
		staff.AvatarURL = avatarURL
		if err := s.staff.UpdateProfile(ctx, staff); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save avatar")
		}
	default:
		return "", appErrors.Clone(appErrors.ErrForbidden, "access denied")
	}

	return avatarURL, nil
}
