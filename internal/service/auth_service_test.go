package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/schoolgate/pickup-api/internal/models"
	"github.com/schoolgate/pickup-api/internal/repository"
	appErrors "github.com/schoolgate/pickup-api/pkg/errors"
)

type mockAdminRepo struct {
	byUsername map[string]models.Admin
}

func (m *mockAdminRepo) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	if a, ok := m.byUsername[username]; ok {
		copy := a
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminRepo) FindByID(ctx context.Context, id string) (*models.Admin, error) {
	for _, a := range m.byUsername {
		if a.ID == id {
			copy := a
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockSessionStore struct {
	sessions map[string]string
}

func (m *mockSessionStore) Save(ctx context.Context, sessionID, adminID string, ttl time.Duration) error {
	if m.sessions == nil {
		m.sessions = make(map[string]string)
	}
	m.sessions[sessionID] = adminID
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (string, error) {
	adminID, ok := m.sessions[sessionID]
	if !ok {
		return "", repository.ErrSessionNotFound
	}
	return adminID, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, sessionID string) error {
	delete(m.sessions, sessionID)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockSessionStore) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	admins := &mockAdminRepo{byUsername: map[string]models.Admin{
		"root": {ID: "a1", Username: "root", PasswordHash: string(hash), Name: "Root"},
	}}
	sessions := &mockSessionStore{sessions: make(map[string]string)}
	svc := NewAuthService(admins, sessions, validator.New(), zap.NewNop(), AuthConfig{
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
		Issuer:        "pickup-api",
	})
	return svc, sessions
}

func TestAuthLoginAndValidate(t *testing.T) {
	svc, sessions := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.AdminLoginRequest{Username: "root", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionToken)
	assert.Equal(t, "a1", res.Admin.ID)
	assert.Len(t, sessions.sessions, 1)

	claims, err := svc.Validate(context.Background(), res.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, "a1", claims.AdminID)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.AdminLoginRequest{Username: "root", Password: "wrong"})
	require.Error(t, err)
	wrongPass := appErrors.FromError(err)

	_, err = svc.Login(context.Background(), models.AdminLoginRequest{Username: "ghost", Password: "s3cret"})
	require.Error(t, err)
	unknownUser := appErrors.FromError(err)

	// Unknown username and wrong password are indistinguishable.
	assert.Equal(t, wrongPass.Code, unknownUser.Code)
	assert.Equal(t, wrongPass.Message, unknownUser.Message)
}

func TestAuthLogoutRevokesSession(t *testing.T) {
	svc, _ := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.AdminLoginRequest{Username: "root", Password: "s3cret"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), res.SessionToken))

	_, err = svc.Validate(context.Background(), res.SessionToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthenticated.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Validate(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthenticated.Code, appErrors.FromError(err).Code)
}
