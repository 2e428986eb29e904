package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	"github.com/sangkips/clinic-ledger-api/pkg/apperror"
	"github.com/sangkips/clinic-ledger-api/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository mocks repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) GetWithRoles(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) AssignRole(ctx context.Context, userID uuid.UUID, roleID uint) error {
	return m.Called(ctx, userID, roleID).Error(0)
}

func cashierUser(t *testing.T, password string) *entity.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	return &entity.User{
		ID:       uuid.New(),
		Email:    "cashier@clinic.test",
		Password: hash,
		Roles: []entity.Role{{
			Name:        "cashier",
			Permissions: []entity.Permission{{Name: "manage-vouchers"}, {Name: "view-vouchers"}},
		}},
	}
}

func TestAuthServiceLogin(t *testing.T) {
	ctx := context.Background()
	user := cashierUser(t, "s3cret!")
	jwtManager := utils.NewJWTManager("test-secret", time.Hour, 24*time.Hour)

	users := new(MockUserRepository)
	users.On("GetByEmail", ctx, "cashier@clinic.test").Return(user, nil)
	users.On("GetWithRoles", ctx, user.ID).Return(user, nil)

	svc := NewAuthService(users, jwtManager)

	out, err := svc.Login(ctx, &LoginInput{Email: " Cashier@Clinic.test ", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, out.User.ID)

	claims, err := jwtManager.ValidateAccessToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.ElementsMatch(t, []string{"manage-vouchers", "view-vouchers"}, claims.Permissions)

	refreshed, err := svc.RefreshToken(ctx, out.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Login(ctx, &LoginInput{Email: "cashier@clinic.test", Password: "wrong"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthServiceUnknownUser(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	users.On("GetByEmail", ctx, "nobody@clinic.test").Return(nil, nil)

	svc := NewAuthService(users, utils.NewJWTManager("test-secret", time.Hour, time.Hour))

	_, err := svc.Login(ctx, &LoginInput{Email: "nobody@clinic.test", Password: "x"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = svc.RefreshToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)

	missing := uuid.New()
	users.On("GetWithRoles", ctx, missing).Return(nil, nil)
	_, err = svc.GetCurrentUser(ctx, missing)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}
