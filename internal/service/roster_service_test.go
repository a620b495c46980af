package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schoolgate/pickup-api/internal/models"
	appErrors "github.com/schoolgate/pickup-api/pkg/errors"
)

type rosterGuardianStore struct {
	byID      map[string]models.Guardian
	updated   []models.Guardian
	createErr error
}

func (s *rosterGuardianStore) FindByID(ctx context.Context, id string) (*models.Guardian, error) {
	if g, ok := s.byID[id]; ok {
		copy := g
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *rosterGuardianStore) FindByOpenID(ctx context.Context, openID string) (*models.Guardian, error) {
	for _, g := range s.byID {
		if g.OpenID == openID {
			copy := g
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *rosterGuardianStore) Create(ctx context.Context, guardian *models.Guardian) error {
	if s.createErr != nil {
		return s.createErr
	}
	if guardian.ID == "" {
		guardian.ID = "g-new"
	}
	if s.byID == nil {
		s.byID = make(map[string]models.Guardian)
	}
	s.byID[guardian.ID] = *guardian
	return nil
}

func (s *rosterGuardianStore) List(ctx context.Context) ([]models.Guardian, error) {
	var out []models.Guardian
	for _, g := range s.byID {
		out = append(out, g)
	}
	return out, nil
}

func (s *rosterGuardianStore) UpdateProfile(ctx context.Context, guardian *models.Guardian) error {
	s.updated = append(s.updated, *guardian)
	s.byID[guardian.ID] = *guardian
	return nil
}

type rosterStaffStore struct {
	byID    map[string]models.Staff
	updated []models.Staff
}

func (s *rosterStaffStore) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	if st, ok := s.byID[id]; ok {
		copy := st
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *rosterStaffStore) Create(ctx context.Context, staff *models.Staff) error {
	if staff.ID == "" {
		staff.ID = "s-new"
	}
	if s.byID == nil {
		s.byID = make(map[string]models.Staff)
	}
	s.byID[staff.ID] = *staff
	return nil
}

func (s *rosterStaffStore) List(ctx context.Context) ([]models.Staff, error) {
	var out []models.Staff
	for _, st := range s.byID {
		out = append(out, st)
	}
	return out, nil
}

func (s *rosterStaffStore) UpdateProfile(ctx context.Context, staff *models.Staff) error {
	s.updated = append(s.updated, *staff)
	s.byID[staff.ID] = *staff
	return nil
}

type rosterChildStore struct {
	byID map[string]models.Child
}

func (s *rosterChildStore) FindByID(ctx context.Context, id string) (*models.Child, error) {
	if c, ok := s.byID[id]; ok {
		copy := c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type rosterLinkStore struct {
	links   map[[2]string]*string
	deleted int
}

func (s *rosterLinkStore) Create(ctx context.Context, link *models.GuardianChildLink) error {
	key := [2]string{link.GuardianID, link.ChildID}
	if _, ok := s.links[key]; ok {
		return &pq.Error{Code: "23505", Constraint: "guardian_children_pkey"}
	}
	if s.links == nil {
		s.links = make(map[[2]string]*string)
	}
	s.links[key] = link.Relationship
	return nil
}

func (s *rosterLinkStore) Delete(ctx context.Context, guardianID, childID string) error {
	key := [2]string{guardianID, childID}
	if _, ok := s.links[key]; !ok {
		return sql.ErrNoRows
	}
	delete(s.links, key)
	s.deleted++
	return nil
}

type rosterUploadStore struct {
	saved int
}

func (s *rosterUploadStore) Save(folder, originalName string, r io.Reader) (string, error) {
	s.saved++
	return "/uploads/" + folder + "/avatar.png", nil
}

func newRosterFixture() (*RosterService, *rosterGuardianStore, *rosterStaffStore, *rosterChildStore, *rosterLinkStore) {
	guardians := &rosterGuardianStore{byID: map[string]models.Guardian{"g1": {ID: "g1", OpenID: "T1"}}}
	staff := &rosterStaffStore{byID: map[string]models.Staff{"s1": {ID: "s1", OpenID: "T2", Name: "Mr. Lee"}}}
	children := &rosterChildStore{byID: map[string]models.Child{"c1": {ID: "c1", Name: "Mia"}}}
	links := &rosterLinkStore{links: make(map[[2]string]*string)}
	svc := NewRosterService(guardians, staff, children, links, &rosterUploadStore{}, nil, zap.NewNop())
	return svc, guardians, staff, children, links
}

func TestBindCreatesSingleEdge(t *testing.T) {
	svc, _, _, _, links := newRosterFixture()

	rel := "mother"
	link, err := svc.Bind(context.Background(), BindRequest{GuardianID: "g1", ChildID: "c1", Relationship: &rel})
	require.NoError(t, err)
	assert.Equal(t, "g1", link.GuardianID)
	require.Len(t, links.links, 1)

	_, err = svc.Bind(context.Background(), BindRequest{GuardianID: "g1", ChildID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Len(t, links.links, 1)
}

func TestBindUnknownEndpoints(t *testing.T) {
	svc, _, _, _, _ := newRosterFixture()

	_, err := svc.Bind(context.Background(), BindRequest{GuardianID: "nope", ChildID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Bind(context.Background(), BindRequest{GuardianID: "g1", ChildID: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUnbind(t *testing.T) {
	svc, _, _, _, links := newRosterFixture()
	links.links[[2]string{"g1", "c1"}] = nil

	require.NoError(t, svc.Unbind(context.Background(), UnbindRequest{GuardianID: "g1", ChildID: "c1"}))
	assert.Empty(t, links.links)

	err := svc.Unbind(context.Background(), UnbindRequest{GuardianID: "g1", ChildID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateGuardianConflict(t *testing.T) {
	svc, guardians, _, _, _ := newRosterFixture()
	guardians.createErr = &pq.Error{Code: "23505", Constraint: "guardians_open_id_key"}

	_, err := svc.CreateGuardian(context.Background(), CreateGuardianRequest{OpenID: "T1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateStaffRequiresName(t *testing.T) {
	svc, _, _, _, _ := newRosterFixture()

	_, err := svc.CreateStaff(context.Background(), CreateStaffRequest{OpenID: "T9"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	staff, err := svc.CreateStaff(context.Background(), CreateStaffRequest{OpenID: "T9", Name: "Ms. Ho"})
	require.NoError(t, err)
	assert.NotEmpty(t, staff.ID)
}

func TestSetAvatarUpdatesProfile(t *testing.T) {
	svc, guardians, staff, _, _ := newRosterFixture()

	g := guardians.byID["g1"]
	auth := &models.AuthContext{Role: models.RoleGuardian, ActorID: "g1", Guardian: &g}
	url, err := svc.SetAvatar(context.Background(), auth, "me.png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, url, guardians.byID["g1"].AvatarURL)

	st := staff.byID["s1"]
	auth = &models.AuthContext{Role: models.RoleStaff, ActorID: "s1", Staff: &st}
	url, err = svc.SetAvatar(context.Background(), auth, "me.png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, url, staff.byID["s1"].AvatarURL)
}
