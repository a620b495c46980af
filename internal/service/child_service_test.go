package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schoolgate/pickup-api/internal/models"
	appErrors "github.com/schoolgate/pickup-api/pkg/errors"
)

type childStore struct {
	byID    map[string]models.Child
	deleted []string
}

func (s *childStore) FindByID(ctx context.Context, id string) (*models.Child, error) {
	if c, ok := s.byID[id]; ok {
		copy := c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *childStore) ExistsByEnrollmentNumber(ctx context.Context, number, excludeID string) (bool, error) {
	for _, c := range s.byID {
		if c.EnrollmentNumber == number && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *childStore) List(ctx context.Context, className string) ([]models.Child, error) {
	var out []models.Child
	for _, c := range s.byID {
		if className == "" || c.ClassName == className {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *childStore) Create(ctx context.Context, child *models.Child) error {
	if child.ID == "" {
		child.ID = "c-new"
	}
	if s.byID == nil {
		s.byID = make(map[string]models.Child)
	}
	s.byID[child.ID] = *child
	return nil
}

func (s *childStore) Update(ctx context.Context, child *models.Child) error {
	s.byID[child.ID] = *child
	return nil
}

func (s *childStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.byID, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func newChildFixture() (*ChildService, *childStore) {
	store := &childStore{byID: map[string]models.Child{
		"c1": {ID: "c1", Name: "Mia", EnrollmentNumber: "EN-1", ClassName: "1A"},
	}}
	return NewChildService(store, nil, zap.NewNop()), store
}

func TestCreateChildRejectsDuplicateEnrollmentNumber(t *testing.T) {
	svc, _ := newChildFixture()

	_, err := svc.Create(context.Background(), CreateChildRequest{Name: "Ben", EnrollmentNumber: "EN-1", ClassName: "1B"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	child, err := svc.Create(context.Background(), CreateChildRequest{Name: "Ben", EnrollmentNumber: "EN-2", ClassName: "1B"})
	require.NoError(t, err)
	assert.NotEmpty(t, child.ID)
}

func TestUpdateChildKeepsEnrollmentNumber(t *testing.T) {
	svc, store := newChildFixture()

	updated, err := svc.Update(context.Background(), "c1", UpdateChildRequest{Name: "Mia L", ClassName: "2A"})
	require.NoError(t, err)
	assert.Equal(t, "Mia L", updated.Name)
	assert.Equal(t, "EN-1", updated.EnrollmentNumber)
	assert.Equal(t, "EN-1", store.byID["c1"].EnrollmentNumber)
}

func TestChildNotFound(t *testing.T) {
	svc, _ := newChildFixture()

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListChildrenByClass(t *testing.T) {
	svc, store := newChildFixture()
	store.byID["c2"] = models.Child{ID: "c2", Name: "Ben", EnrollmentNumber: "EN-2", ClassName: "1B"}

	out, err := svc.List(context.Background(), "1B")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "c2", out[0].ID)

	out, err = svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, out, 2)
}
