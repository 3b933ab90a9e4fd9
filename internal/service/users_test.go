package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shorturl-app/shorturl/internal/database"
	"github.com/shorturl-app/shorturl/internal/models"
)

func testUserModel(t *testing.T, id int64, role, password string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now()

	return &models.User{
		ID:           id,
		Email:        "user@example.com",
		PasswordHash: string(hash),
		FirstName:    "Test",
		Role:         role,
		APIKey:       "11111111-1111-1111-1111-111111111111",
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		repo.On("GetByEmail", ctx, "user@example.com").Return(nil, database.ErrUserNotFound).Once()

		user, err := svc.Authenticate(ctx, "user@example.com", "password123")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		repo.On("GetByEmail", ctx, "user@example.com").Return(testUserModel(t, 1, models.RoleViewer, "password123"), nil).Once()

		user, err := svc.Authenticate(ctx, "user@example.com", "wrong")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive account", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		disabled := testUserModel(t, 1, models.RoleViewer, "password123")
		disabled.Active = false
		repo.On("GetByEmail", ctx, "user@example.com").Return(disabled, nil).Once()

		user, err := svc.Authenticate(ctx, "user@example.com", "password123")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("success", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		repo.On("GetByEmail", ctx, "user@example.com").Return(testUserModel(t, 1, models.RoleViewer, "password123"), nil).Once()
		repo.On("TouchLastLogin", ctx, int64(1)).Return(nil).Once()

		user, err := svc.Authenticate(ctx, "user@example.com", "password123")

		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		repo.AssertExpectations(t)
	})

	t.Run("failed login touch is not fatal", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		repo.On("GetByEmail", ctx, "user@example.com").Return(testUserModel(t, 1, models.RoleViewer, "password123"), nil).Once()
		repo.On("TouchLastLogin", ctx, int64(1)).Return(errUnknown).Once()

		user, err := svc.Authenticate(ctx, "user@example.com", "password123")

		require.NoError(t, err)
		assert.NotNil(t, user)
	})
}

func TestUserService_AuthenticateAPIKey(t *testing.T) {
	ctx := context.Background()

	t.Run("empty key skips store", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		user, err := svc.AuthenticateAPIKey(ctx, "")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		repo.AssertNumberOfCalls(t, "GetByAPIKey", 0)
	})

	t.Run("unknown key", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		repo.On("GetByAPIKey", ctx, "no-such-key").Return(nil, database.ErrUserNotFound).Once()

		user, err := svc.AuthenticateAPIKey(ctx, "no-such-key")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("success", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		stored := testUserModel(t, 1, models.RoleContributor, "password123")
		repo.On("GetByAPIKey", ctx, stored.APIKey).Return(stored, nil).Once()

		user, err := svc.AuthenticateAPIKey(ctx, stored.APIKey)

		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
	})
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()
	params := models.CreateUserParams{
		Email:     "new@example.com",
		Password:  "password123",
		FirstName: "New",
		Role:      models.RoleContributor,
	}

	t.Run("permission denied", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		user, err := svc.Create(ctx, contributorActor, params)

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrPermissionDenied)
		repo.AssertNumberOfCalls(t, "Create", 0)
	})

	t.Run("success hashes password and issues api key", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		var created models.User
		repo.On("Create", ctx, mock.Anything).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(models.User)
			}).
			Return(testUserModel(t, 2, models.RoleContributor, "password123"), nil).
			Once()

		user, err := svc.Create(ctx, adminActor, params)

		require.NoError(t, err)
		assert.NotNil(t, user)
		assert.NotEqual(t, params.Password, created.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte(params.Password)))
		assert.Len(t, created.APIKey, 36)
		assert.True(t, created.Active)
		assert.Equal(t, models.RoleContributor, created.Role)
	})

	t.Run("email exists", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		repo.On("Create", ctx, mock.Anything).Return(nil, database.ErrEmailExists).Once()

		user, err := svc.Create(ctx, adminActor, params)

		assert.Nil(t, user)
		assert.ErrorIs(t, err, database.ErrEmailExists)
	})
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin cannot change role", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		role := models.RoleAdmin
		user, err := svc.Update(ctx, contributorActor, contributorActor.UserID, models.UpdateUserParams{Role: &role})

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrPermissionDenied)
		repo.AssertNumberOfCalls(t, "Update", 0)
	})

	t.Run("non-admin cannot update others", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		firstName := "Rename"
		user, err := svc.Update(ctx, contributorActor, 99, models.UpdateUserParams{FirstName: &firstName})

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("self profile update", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		firstName := "Rename"
		params := models.UpdateUserParams{FirstName: &firstName}

		repo.On("GetByID", ctx, contributorActor.UserID).Return(testUserModel(t, contributorActor.UserID, models.RoleContributor, "password123"), nil).Once()
		repo.On("Update", ctx, contributorActor.UserID, params).Return(testUserModel(t, contributorActor.UserID, models.RoleContributor, "password123"), nil).Once()

		user, err := svc.Update(ctx, contributorActor, contributorActor.UserID, params)

		require.NoError(t, err)
		assert.NotNil(t, user)
		repo.AssertExpectations(t)
	})

	t.Run("cannot demote last admin", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		role := models.RoleViewer
		repo.On("GetByID", ctx, adminActor.UserID).Return(testUserModel(t, adminActor.UserID, models.RoleAdmin, "password123"), nil).Once()
		repo.On("CountAdmins", ctx).Return(int64(1), nil).Once()

		user, err := svc.Update(ctx, adminActor, adminActor.UserID, models.UpdateUserParams{Role: &role})

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrLastAdmin)
		repo.AssertNumberOfCalls(t, "Update", 0)
	})

	t.Run("demote admin when another remains", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		role := models.RoleViewer
		repo.On("GetByID", ctx, int64(5)).Return(testUserModel(t, 5, models.RoleAdmin, "password123"), nil).Once()
		repo.On("CountAdmins", ctx).Return(int64(2), nil).Once()
		repo.On("Update", ctx, int64(5), mock.Anything).Return(testUserModel(t, 5, models.RoleViewer, "password123"), nil).Once()

		user, err := svc.Update(ctx, adminActor, 5, models.UpdateUserParams{Role: &role})

		require.NoError(t, err)
		assert.NotNil(t, user)
		repo.AssertExpectations(t)
	})
}

func TestUserService_Deactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("permission denied", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		err := svc.Deactivate(ctx, contributorActor, 99)

		assert.ErrorIs(t, err, ErrPermissionDenied)
		repo.AssertNumberOfCalls(t, "Deactivate", 0)
	})

	t.Run("cannot deactivate last admin", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		repo.On("GetByID", ctx, adminActor.UserID).Return(testUserModel(t, adminActor.UserID, models.RoleAdmin, "password123"), nil).Once()
		repo.On("CountAdmins", ctx).Return(int64(1), nil).Once()

		err := svc.Deactivate(ctx, adminActor, adminActor.UserID)

		assert.ErrorIs(t, err, ErrLastAdmin)
		repo.AssertNumberOfCalls(t, "Deactivate", 0)
	})

	t.Run("success", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		repo.On("GetByID", ctx, int64(5)).Return(testUserModel(t, 5, models.RoleViewer, "password123"), nil).Once()
		repo.On("Deactivate", ctx, int64(5)).Return(nil).Once()

		err := svc.Deactivate(ctx, adminActor, 5)

		require.NoError(t, err)
		repo.AssertNumberOfCalls(t, "CountAdmins", 0)
		repo.AssertExpectations(t)
	})
}

func TestUserService_RotateAPIKey(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin cannot rotate others", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		user, err := svc.RotateAPIKey(ctx, contributorActor, 99)

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrPermissionDenied)
		repo.AssertNumberOfCalls(t, "SetAPIKey", 0)
	})

	t.Run("self rotation issues fresh key", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		repo.On("SetAPIKey", ctx, contributorActor.UserID, mock.MatchedBy(func(key string) bool {
			return len(key) == 36
		})).Return(testUserModel(t, contributorActor.UserID, models.RoleContributor, "password123"), nil).Once()

		user, err := svc.RotateAPIKey(ctx, contributorActor, contributorActor.UserID)

		require.NoError(t, err)
		assert.NotNil(t, user)
		repo.AssertExpectations(t)
	})
}

func TestUserService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("admin already exists", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		repo.On("CountAdmins", ctx).Return(int64(1), nil).Once()

		err := svc.EnsureAdmin(ctx, "admin@example.com", "password123")

		require.NoError(t, err)
		repo.AssertNumberOfCalls(t, "Create", 0)
	})

	t.Run("creates bootstrap admin", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo)

		var created models.User
		repo.On("CountAdmins", ctx).Return(int64(0), nil).Once()
		repo.On("Create", ctx, mock.Anything).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(models.User)
			}).
			Return(testUserModel(t, 1, models.RoleAdmin, "password123"), nil).
			Once()

		err := svc.EnsureAdmin(ctx, "admin@example.com", "password123")

		require.NoError(t, err)
		assert.Equal(t, "admin@example.com", created.Email)
		assert.Equal(t, models.RoleAdmin, created.Role)
		assert.True(t, created.Active)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("password123")))
	})
}
