package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/studia-dev/classhub-api/internal/models"
	appErrors "github.com/studia-dev/classhub-api/pkg/errors"
)

type mockAuthRepo struct {
	usersByEmail map[string]models.User
	usersByID    map[string]models.User
	tokens       map[string]models.RefreshToken
	revoked      []string
	audit        []models.AuditLog
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		usersByEmail: make(map[string]models.User),
		usersByID:    make(map[string]models.User),
		tokens:       make(map[string]models.RefreshToken),
	}
}

func (m *mockAuthRepo) seed(user models.User) {
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.usersByEmail[email]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.usersByID[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if _, ok := m.usersByEmail[user.Email]; ok {
		return errDuplicate
	}
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	m.seed(*user)
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.tokens[token.Token] = *token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.tokens[token]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for key, t := range m.tokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
			m.tokens[key] = t
		}
	}
	m.revoked = append(m.revoked, id)
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for key, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
			m.tokens[key] = t
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audit = append(m.audit, *log)
	return nil
}

func authFixture(t *testing.T) (*AuthService, *mockAuthRepo) {
	t.Helper()
	repo := newMockAuthRepo()
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "classhub-test",
	})
	return svc, repo
}

func seedAccount(t *testing.T, repo *mockAuthRepo, email, password string, role models.UserRole, active bool) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{
		ID:           "user-" + email,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Test User",
		Role:         role,
		Active:       active,
	}
	repo.seed(user)
	return user
}

func TestRegisterFixesRole(t *testing.T) {
	svc, repo := authFixture(t)

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "amel@example.edu",
		Password: "hunter22",
		FullName: "Amel Riahi",
	}, models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, info.Role)

	stored := repo.usersByEmail["amel@example.edu"]
	assert.NotEqual(t, "hunter22", stored.PasswordHash, "password must be hashed")
	assert.True(t, stored.Active)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc, repo := authFixture(t)
	seedAccount(t, repo, "taken@example.edu", "secret1", models.RoleStudent, true)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "taken@example.edu",
		Password: "secret1",
		FullName: "Someone Else",
	}, models.RoleTeacher)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := authFixture(t)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "not-an-email",
		Password: "secret1",
		FullName: "X",
	}, models.RoleStudent)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Register(context.Background(), models.RegisterRequest{
		Email:    "short@example.edu",
		Password: "tiny",
		FullName: "X",
	}, models.RoleStudent)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestLoginAndTokenRoundTrip(t *testing.T) {
	svc, repo := authFixture(t)
	user := seedAccount(t, repo, "amel@example.edu", "hunter22", models.RoleStudent, true)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, user.ID, res.User.ID)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, repo := authFixture(t)
	seedAccount(t, repo, "amel@example.edu", "hunter22", models.RoleStudent, true)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "amel@example.edu", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.edu", Password: "whatever"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, repo := authFixture(t)
	seedAccount(t, repo, "gone@example.edu", "hunter22", models.RoleStudent, false)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "gone@example.edu", Password: "hunter22"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, repo := authFixture(t)
	user := seedAccount(t, repo, "amel@example.edu", "hunter22", models.RoleStudent, true)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "hunter22"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The old token is revoked and cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := authFixture(t)

	_, err := svc.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
