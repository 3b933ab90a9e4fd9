package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/shorturl-app/shorturl/internal/database"
	"github.com/shorturl-app/shorturl/internal/models"
)

type userRecord struct {
	ID           int64      `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	FirstName    string     `db:"first_name"`
	LastName     string     `db:"last_name"`
	Role         string     `db:"role"`
	APIKey       string     `db:"api_key"`
	Active       bool       `db:"is_active"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	LastLoginAt  *time.Time `db:"last_login_at"`
}

func (r *userRecord) ToUser() *models.User {
	return &models.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Role:         r.Role,
		APIKey:       r.APIKey,
		Active:       r.Active,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLoginAt:  r.LastLoginAt,
	}
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) Create(ctx context.Context, user models.User) (*models.User, error) {
	const op = "database.postgres.UserRepository.Create"

	rec := new(userRecord)
	query := `INSERT INTO users(email, password_hash, first_name, last_name, role, api_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Role, user.APIKey)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrEmailExists)
		}

		return nil, fmt.Errorf("%s: failed to create user record: %w", op, err)
	}

	return rec.ToUser(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "database.postgres.UserRepository.GetByID"

	rec := new(userRecord)
	query := `SELECT * FROM users WHERE id = $1`

	if err := r.db.GetContext(ctx, rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get user record: %w", op, err)
	}

	return rec.ToUser(), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "database.postgres.UserRepository.GetByEmail"

	rec := new(userRecord)
	query := `SELECT * FROM users WHERE lower(email) = lower($1)`

	if err := r.db.GetContext(ctx, rec, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get user record: %w", op, err)
	}

	return rec.ToUser(), nil
}

func (r *UserRepository) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	const op = "database.postgres.UserRepository.GetByAPIKey"

	rec := new(userRecord)
	query := `SELECT * FROM users WHERE api_key = $1`

	if err := r.db.GetContext(ctx, rec, query, apiKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get user record: %w", op, err)
	}

	return rec.ToUser(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	const op = "database.postgres.UserRepository.List"

	var recs []userRecord
	query := `SELECT * FROM users ORDER BY created_at`

	if err := r.db.SelectContext(ctx, &recs, query); err != nil {
		return nil, fmt.Errorf("%s: failed to list user records: %w", op, err)
	}

	users := make([]*models.User, 0, len(recs))
	for i := range recs {
		users = append(users, recs[i].ToUser())
	}

	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, id int64, params models.UpdateUserParams) (*models.User, error) {
	const op = "database.postgres.UserRepository.Update"

	set := goqu.Record{"updated_at": goqu.L("now()")}

	if params.FirstName != nil {
		set["first_name"] = *params.FirstName
	}
	if params.LastName != nil {
		set["last_name"] = *params.LastName
	}
	if params.Role != nil {
		set["role"] = *params.Role
	}
	if params.Active != nil {
		set["is_active"] = *params.Active
	}

	query, args, err := dialect.Update("users").
		Set(set).
		Where(goqu.C("id").Eq(id)).
		Returning("*").
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	rec := new(userRecord)
	if err := r.db.GetContext(ctx, rec, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update user record: %w", op, err)
	}

	return rec.ToUser(), nil
}

func (r *UserRepository) Deactivate(ctx context.Context, id int64) error {
	const op = "database.postgres.UserRepository.Deactivate"

	query := `UPDATE users
		SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND is_active`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: failed to deactivate user record: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrUserNotFound)
	}

	return nil
}

// SetAPIKey replaces the user's API key, revoking the previous one.
func (r *UserRepository) SetAPIKey(ctx context.Context, id int64, apiKey string) (*models.User, error) {
	const op = "database.postgres.UserRepository.SetAPIKey"

	rec := new(userRecord)
	query := `UPDATE users
		SET api_key = $1, updated_at = now()
		WHERE id = $2
		RETURNING *`

	if err := r.db.GetContext(ctx, rec, query, apiKey, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: failed to set api key: %w", op, err)
	}

	return rec.ToUser(), nil
}

// TouchLastLogin records a successful login. Callers treat failures as
// non-fatal.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64) error {
	const op = "database.postgres.UserRepository.TouchLastLogin"

	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%s: failed to update last login: %w", op, err)
	}

	return nil
}

// CountAdmins reports how many active admin accounts exist. Used at startup
// to decide whether the bootstrap admin is needed.
func (r *UserRepository) CountAdmins(ctx context.Context) (int64, error) {
	const op = "database.postgres.UserRepository.CountAdmins"

	var count int64
	query := `SELECT count(*) FROM users WHERE role = $1 AND is_active`

	if err := r.db.GetContext(ctx, &count, query, models.RoleAdmin); err != nil {
		return 0, fmt.Errorf("%s: failed to count admins: %w", op, err)
	}

	return count, nil
}
