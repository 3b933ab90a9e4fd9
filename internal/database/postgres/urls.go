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

	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

var dialect = goqu.Dialect("postgres")

type urlRecord struct {
	ID              int64      `db:"id"`
	ShortCode       string     `db:"short_code"`
	OriginalURL     string     `db:"original_url"`
	Title           string     `db:"title"`
	Description     string     `db:"description"`
	OwnerID         int64      `db:"owner_id"`
	CategoryID      *int64     `db:"category_id"`
	Active          bool       `db:"is_active"`
	ShowOnFrontpage bool       `db:"show_on_frontpage"`
	ClickCount      int64      `db:"click_count"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
	ExpiresAt       *time.Time `db:"expires_at"`
}

func (r *urlRecord) ToURL() *models.URL {
	return &models.URL{
		ID:              r.ID,
		ShortCode:       r.ShortCode,
		OriginalURL:     r.OriginalURL,
		Title:           r.Title,
		Description:     r.Description,
		OwnerID:         r.OwnerID,
		CategoryID:      r.CategoryID,
		Active:          r.Active,
		ShowOnFrontpage: r.ShowOnFrontpage,
		ClickCount:      r.ClickCount,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		ExpiresAt:       r.ExpiresAt,
	}
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

// Create reserves the short code and persists the full record in a single
// INSERT. The unique index on short_code makes the reservation atomic under
// concurrent writers; a violation maps to database.ErrShortCodeExists.
func (r *URLRepository) Create(ctx context.Context, url models.URL) (*models.URL, error) {
	const op = "database.postgres.URLRepository.Create"

	rec := new(urlRecord)
	query := `INSERT INTO urls(short_code, original_url, title, description, owner_id, category_id, show_on_frontpage, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query,
		url.ShortCode, url.OriginalURL, url.Title, url.Description,
		url.OwnerID, url.CategoryID, url.ShowOnFrontpage, url.ExpiresAt)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}
		if isForeignKeyViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrCategoryNotFound)
		}

		return nil, fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// GetByShortCode retrieves a record by exact code match. It does not filter
// on is_active or expiry; callers decide whether the record is resolvable.
func (r *URLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByShortCode"

	rec := new(urlRecord)
	query := `SELECT * FROM urls WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

func (r *URLRepository) List(ctx context.Context, filter models.URLFilter) ([]*models.URL, int64, error) {
	const op = "database.postgres.URLRepository.List"

	ds := dialect.From("urls")

	if filter.OwnerID != nil {
		ds = ds.Where(goqu.C("owner_id").Eq(*filter.OwnerID))
	}
	if filter.CategoryID != nil {
		ds = ds.Where(goqu.C("category_id").Eq(*filter.CategoryID))
	}
	if filter.Frontpage != nil {
		ds = ds.Where(goqu.C("show_on_frontpage").Eq(*filter.Frontpage))
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		ds = ds.Where(goqu.Or(
			goqu.C("original_url").ILike(pattern),
			goqu.C("title").ILike(pattern),
		))
	}

	countQuery, countArgs, err := ds.Select(goqu.COUNT("*")).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to build count query: %w", op, err)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count url records: %w", op, err)
	}

	listQuery, listArgs, err := ds.Select("*").
		Order(goqu.C("created_at").Desc()).
		Limit(uint(filter.Limit)).
		Offset(uint(filter.Offset)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to build list query: %w", op, err)
	}

	var recs []urlRecord
	if err := r.db.SelectContext(ctx, &recs, listQuery, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to list url records: %w", op, err)
	}

	urls := make([]*models.URL, 0, len(recs))
	for i := range recs {
		urls = append(urls, recs[i].ToURL())
	}

	return urls, total, nil
}

// Update mutates management fields of a record. The short code and owner are
// immutable after creation.
func (r *URLRepository) Update(ctx context.Context, shortCode string, params models.UpdateURLParams) (*models.URL, error) {
	const op = "database.postgres.URLRepository.Update"

	set := goqu.Record{"updated_at": goqu.L("now()")}

	if params.OriginalURL != nil {
		set["original_url"] = *params.OriginalURL
	}
	if params.Title != nil {
		set["title"] = *params.Title
	}
	if params.Description != nil {
		set["description"] = *params.Description
	}
	if params.CategoryID != nil {
		set["category_id"] = *params.CategoryID
	}
	if params.ShowOnFrontpage != nil {
		set["show_on_frontpage"] = *params.ShowOnFrontpage
	}
	if params.Active != nil {
		set["is_active"] = *params.Active
	}
	if params.ExpiresAt != nil {
		set["expires_at"] = *params.ExpiresAt
	}

	query, args, err := dialect.Update("urls").
		Set(set).
		Where(goqu.C("short_code").Eq(shortCode)).
		Returning("*").
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	rec := new(urlRecord)
	if err := r.db.GetContext(ctx, rec, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}
		if isForeignKeyViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrCategoryNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// Deactivate soft-deletes a record. The row and its short code remain so the
// code can never be reissued.
func (r *URLRepository) Deactivate(ctx context.Context, shortCode string) error {
	const op = "database.postgres.URLRepository.Deactivate"

	query := `UPDATE urls
		SET is_active = FALSE, updated_at = now()
		WHERE short_code = $1 AND is_active`

	res, err := r.db.ExecContext(ctx, query, shortCode)
	if err != nil {
		return fmt.Errorf("%s: failed to deactivate url record: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	return nil
}

// Frontpage lists active, unexpired records flagged for the public frontpage,
// most clicked first.
func (r *URLRepository) Frontpage(ctx context.Context, limit int) ([]*models.URL, error) {
	const op = "database.postgres.URLRepository.Frontpage"

	query := `SELECT * FROM urls
		WHERE is_active AND show_on_frontpage
			AND (expires_at IS NULL OR expires_at > now())
		ORDER BY click_count DESC, created_at DESC
		LIMIT $1`

	var recs []urlRecord
	if err := r.db.SelectContext(ctx, &recs, query, limit); err != nil {
		return nil, fmt.Errorf("%s: failed to list frontpage records: %w", op, err)
	}

	urls := make([]*models.URL, 0, len(recs))
	for i := range recs {
		urls = append(urls, recs[i].ToURL())
	}

	return urls, nil
}
