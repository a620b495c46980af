package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/schoolgate/pickup-api/internal/models"
	"github.com/schoolgate/pickup-api/internal/repository"
	appErrors "github.com/schoolgate/pickup-api/pkg/errors"
)

type identityGuardianRepo interface {
	FindByOpenID(ctx context.Context, openID string) (*models.Guardian, error)
	Create(ctx context.Context, guardian *models.Guardian) error
}

type identityStaffRepo interface {
	FindByOpenID(ctx context.Context, openID string) (*models.Staff, error)
}

type identityLinkRepo interface {
	Exists(ctx context.Context, guardianID, childID string) (bool, error)
}

// IdentityService maps external identity tokens to internal actors. Unseen
// tokens are auto-provisioned as guardians; admins never resolve here.
type IdentityService struct {
	guardians identityGuardianRepo
	staff     identityStaffRepo
	links     identityLinkRepo
	logger    *zap.Logger
}

// NewIdentityService constructs the resolver.
func NewIdentityService(guardians identityGuardianRepo, staff identityStaffRepo, links identityLinkRepo, logger *zap.Logger) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{guardians: guardians, staff: staff, links: links, logger: logger}
}

// Resolve returns the actor bound to the token, provisioning a guardian on
// first contact. A token present in both role tables is a data-integrity
// violation: the guardian binding wins and the conflict is logged.
func (s *IdentityService) Resolve(ctx context.Context, externalToken string) (*models.AuthContext, error) {
	if externalToken == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "missing identity token")
	}

	guardian, err := s.guardians.FindByOpenID(ctx, externalToken)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve identity")
	}

	staff, err := s.staff.FindByOpenID(ctx, externalToken)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve identity")
	}

	if guardian != nil {
		if staff != nil {
			s.logger.Warn("identity token bound to both guardian and staff; preferring guardian",
				zap.String("guardian_id", guardian.ID),
				zap.String("staff_id", staff.ID))
		}
		return &models.AuthContext{Role: models.RoleGuardian, ActorID: guardian.ID, Guardian: guardian}, nil
	}

	if staff != nil {
		return &models.AuthContext{Role: models.RoleStaff, ActorID: staff.ID, Staff: staff}, nil
	}

	return s.provisionGuardian(ctx, externalToken)
}

// ResolveRole resolves the token and enforces the required role class. The
// mismatch error is a generic authorization failure so callers cannot probe
// which role a token carries.
func (s *IdentityService) ResolveRole(ctx context.Context, externalToken string, required models.Role) (*models.AuthContext, error) {
	auth, err := s.Resolve(ctx, externalToken)
	if err != nil {
		return nil, err
	}
	if required != models.RoleAny && auth.Role != required {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "access denied")
	}
	return auth, nil
}

// CanViewChild reports whether the guardian holds a link to the child.
func (s *IdentityService) CanViewChild(ctx context.Context, guardianID, childID string) (bool, error) {
	ok, err := s.links.Exists(ctx, guardianID, childID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check authorization")
	}
	return ok, nil
}

// provisionGuardian creates the first-contact guardian row. A concurrent
// resolve of the same token loses the insert race on the open_id unique
// constraint and falls back to re-reading the winner's row.
func (s *IdentityService) provisionGuardian(ctx context.Context, externalToken string) (*models.AuthContext, error) {
	guardian := &models.Guardian{OpenID: externalToken}
	err := s.guardians.Create(ctx, guardian)
	if err == nil {
		s.logger.Info("auto-provisioned guardian on first contact", zap.String("guardian_id", guardian.ID))
		return &models.AuthContext{Role: models.RoleGuardian, ActorID: guardian.ID, Guardian: guardian, IsNew: true}, nil
	}

	if repository.IsUniqueViolation(err) {
		existing, fetchErr := s.guardians.FindByOpenID(ctx, externalToken)
		if fetchErr != nil {
			return nil, appErrors.Wrap(fetchErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve provisioned guardian")
		}
		return &models.AuthContext{Role: models.RoleGuardian, ActorID: existing.ID, Guardian: existing}, nil
	}

	return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to provision guardian")
}
