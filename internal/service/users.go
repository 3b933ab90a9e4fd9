package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/shorturl-app/shorturl/internal/database"
	"github.com/shorturl-app/shorturl/internal/models"
)

// UserRepository defines the interface for working with users at the business logic layer.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, user models.User) (*models.User, error)

	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByEmail retrieves a user by email, matched case-insensitively.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByAPIKey retrieves a user by API key.
	GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error)

	// List retrieves all users.
	List(ctx context.Context) ([]*models.User, error)

	// Update modifies the fields set in params for a given user.
	Update(ctx context.Context, id int64, params models.UpdateUserParams) (*models.User, error)

	// Deactivate disables a user account.
	Deactivate(ctx context.Context, id int64) error

	// SetAPIKey replaces a user's API key.
	SetAPIKey(ctx context.Context, id int64, apiKey string) (*models.User, error)

	// TouchLastLogin records a successful login.
	TouchLastLogin(ctx context.Context, id int64) error

	// CountAdmins returns the number of active admin accounts.
	CountAdmins(ctx context.Context) (int64, error)
}

// UserService provides methods to manage user accounts and authentication.
type UserService struct {
	repo UserRepository
}

// NewUserService creates a new instance of UserService with the provided repository.
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Authenticate verifies an email and password pair. Unknown accounts,
// disabled accounts and wrong passwords all fail the same way.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	const op = "service.UserService.Authenticate"

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: failed to authenticate user: %w", op, err)
	}

	if !user.Active {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	// The login time is advisory; a failed write must not fail the login.
	_ = s.repo.TouchLastLogin(ctx, user.ID)

	return user, nil
}

// AuthenticateAPIKey verifies an API key. Unknown keys and disabled
// accounts fail the same way.
func (s *UserService) AuthenticateAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	const op = "service.UserService.AuthenticateAPIKey"

	if apiKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.repo.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: failed to authenticate api key: %w", op, err)
	}

	if !user.Active {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return user, nil
}

// Create registers a new user with a fresh API key. Only admins can create
// users.
func (s *UserService) Create(ctx context.Context, actor models.Principal, params models.CreateUserParams) (*models.User, error) {
	const op = "service.UserService.Create"

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user := models.User{
		Email:        params.Email,
		PasswordHash: string(hash),
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Role:         params.Role,
		APIKey:       uuid.NewString(),
		Active:       true,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	return created, nil
}

// GetByID retrieves a user. Non-admins can only read their own account.
func (s *UserService) GetByID(ctx context.Context, actor models.Principal, id int64) (*models.User, error) {
	const op = "service.UserService.GetByID"

	if !actor.IsAdmin() && actor.UserID != id {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	return user, nil
}

// List retrieves all users. Only admins can list users.
func (s *UserService) List(ctx context.Context, actor models.Principal) ([]*models.User, error) {
	const op = "service.UserService.List"

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list users: %w", op, err)
	}

	return users, nil
}

// Update modifies a user account. Non-admins can only update their own
// profile fields and can change neither role nor active state. An admin
// cannot demote or disable the last active admin.
func (s *UserService) Update(ctx context.Context, actor models.Principal, id int64, params models.UpdateUserParams) (*models.User, error) {
	const op = "service.UserService.Update"

	if !actor.IsAdmin() {
		if actor.UserID != id || params.Role != nil || params.Active != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
		}
	}

	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	demoted := params.Role != nil && *params.Role != models.RoleAdmin
	disabled := params.Active != nil && !*params.Active

	if target.Role == models.RoleAdmin && target.Active && (demoted || disabled) {
		if err := s.ensureNotLastAdmin(ctx, op); err != nil {
			return nil, err
		}
	}

	user, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update user: %w", op, err)
	}

	return user, nil
}

// Deactivate disables a user account. Only admins can deactivate users, and
// the last active admin cannot be deactivated.
func (s *UserService) Deactivate(ctx context.Context, actor models.Principal, id int64) error {
	const op = "service.UserService.Deactivate"

	if !actor.IsAdmin() {
		return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if target.Role == models.RoleAdmin && target.Active {
		if err := s.ensureNotLastAdmin(ctx, op); err != nil {
			return err
		}
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("%s: failed to deactivate user: %w", op, err)
	}

	return nil
}

// RotateAPIKey replaces a user's API key, invalidating the old one.
// Non-admins can only rotate their own key.
func (s *UserService) RotateAPIKey(ctx context.Context, actor models.Principal, id int64) (*models.User, error) {
	const op = "service.UserService.RotateAPIKey"

	if !actor.IsAdmin() && actor.UserID != id {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	user, err := s.repo.SetAPIKey(ctx, id, uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("%s: failed to rotate api key: %w", op, err)
	}

	return user, nil
}

// EnsureAdmin creates the bootstrap admin account when no active admin
// exists. It is safe to call on every startup.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	const op = "service.UserService.EnsureAdmin"

	count, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to count admins: %w", op, err)
	}

	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Admin",
		Role:         models.RoleAdmin,
		APIKey:       uuid.NewString(),
		Active:       true,
	}

	if _, err := s.repo.Create(ctx, user); err != nil {
		return fmt.Errorf("%s: failed to create admin user: %w", op, err)
	}

	return nil
}

func (s *UserService) ensureNotLastAdmin(ctx context.Context, op string) error {
	count, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to count admins: %w", op, err)
	}

	if count <= 1 {
		return fmt.Errorf("%s: %w", op, ErrLastAdmin)
	}

	return nil
}
