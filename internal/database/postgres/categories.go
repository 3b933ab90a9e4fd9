package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shorturl-app/shorturl/internal/database"
	"github.com/shorturl-app/shorturl/internal/models"
)

type categoryRecord struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Active      bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *categoryRecord) ToCategory() *models.Category {
	return &models.Category{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type CategoryRepository struct {
	db *sqlx.DB
}

func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{
		db: db,
	}
}

func (r *CategoryRepository) Create(ctx context.Context, params models.CategoryParams) (*models.Category, error) {
	const op = "database.postgres.CategoryRepository.Create"

	rec := new(categoryRecord)
	query := `INSERT INTO categories(name, description)
		VALUES ($1, $2)
		RETURNING *`

	if err := r.db.GetContext(ctx, rec, query, params.Name, params.Description); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrCategoryExists)
		}

		return nil, fmt.Errorf("%s: failed to create category record: %w", op, err)
	}

	return rec.ToCategory(), nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	const op = "database.postgres.CategoryRepository.List"

	var recs []categoryRecord
	query := `SELECT * FROM categories WHERE is_active ORDER BY name`

	if err := r.db.SelectContext(ctx, &recs, query); err != nil {
		return nil, fmt.Errorf("%s: failed to list category records: %w", op, err)
	}

	categories := make([]*models.Category, 0, len(recs))
	for i := range recs {
		categories = append(categories, recs[i].ToCategory())
	}

	return categories, nil
}

func (r *CategoryRepository) Update(ctx context.Context, id int64, params models.CategoryParams) (*models.Category, error) {
	const op = "database.postgres.CategoryRepository.Update"

	rec := new(categoryRecord)
	query := `UPDATE categories
		SET name = $1, description = $2, updated_at = now()
		WHERE id = $3
		RETURNING *`

	if err := r.db.GetContext(ctx, rec, query, params.Name, params.Description, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrCategoryNotFound)
		}
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrCategoryExists)
		}

		return nil, fmt.Errorf("%s: failed to update category record: %w", op, err)
	}

	return rec.ToCategory(), nil
}

func (r *CategoryRepository) Deactivate(ctx context.Context, id int64) error {
	const op = "database.postgres.CategoryRepository.Deactivate"

	query := `UPDATE categories
		SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND is_active`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: failed to deactivate category record: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrCategoryNotFound)
	}

	return nil
}
