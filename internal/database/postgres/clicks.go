package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/shorturl-app/shorturl/internal/models"
)

type clickEventRecord struct {
	ShortCode  string    `db:"short_code"`
	ClickedAt  time.Time `db:"clicked_at"`
	IPHash     string    `db:"ip_hash"`
	UserAgent  string    `db:"user_agent"`
	Referrer   string    `db:"referrer"`
	DeviceType string    `db:"device_type"`
	IsBot      bool      `db:"is_bot"`
}

type clickBucketRecord struct {
	Day       time.Time `db:"day"`
	Clicks    int64     `db:"clicks"`
	BotClicks int64     `db:"bot_clicks"`
}

type ClickRepository struct {
	db *sqlx.DB
}

func NewClickRepository(db *sqlx.DB) *ClickRepository {
	return &ClickRepository{
		db: db,
	}
}

// SaveBatch writes a batch of click events and bumps the click counters of
// the affected records in one transaction. The counter update is a relative
// increment, so concurrent batches from several writers never lose clicks.
func (r *ClickRepository) SaveBatch(ctx context.Context, events []models.ClickEvent) error {
	const op = "database.postgres.ClickRepository.SaveBatch"

	if len(events) == 0 {
		return nil
	}

	recs := make([]clickEventRecord, 0, len(events))
	counts := make(map[string]int64, len(events))
	for _, event := range events {
		recs = append(recs, clickEventRecord{
			ShortCode:  event.ShortCode,
			ClickedAt:  event.ClickedAt,
			IPHash:     event.IPHash,
			UserAgent:  event.UserAgent,
			Referrer:   event.Referrer,
			DeviceType: event.DeviceType,
			IsBot:      event.IsBot,
		})
		counts[event.ShortCode]++
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback() //nolint:errcheck

	insert := `INSERT INTO click_events(short_code, clicked_at, ip_hash, user_agent, referrer, device_type, is_bot)
		VALUES (:short_code, :clicked_at, :ip_hash, :user_agent, :referrer, :device_type, :is_bot)`

	if _, err := tx.NamedExecContext(ctx, insert, recs); err != nil {
		return fmt.Errorf("%s: failed to insert click events: %w", op, err)
	}

	update := `UPDATE urls SET click_count = click_count + $1 WHERE short_code = $2`

	for shortCode, n := range counts {
		if _, err := tx.ExecContext(ctx, update, n, shortCode); err != nil {
			return fmt.Errorf("%s: failed to add clicks for %q: %w", op, shortCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

// DailyClicks aggregates events for a short code into per-day buckets,
// oldest first.
func (r *ClickRepository) DailyClicks(ctx context.Context, shortCode string, since time.Time) ([]models.ClickBucket, error) {
	const op = "database.postgres.ClickRepository.DailyClicks"

	query, args, err := dialect.From("click_events").
		Select(
			goqu.L("date_trunc('day', clicked_at)").As("day"),
			goqu.COUNT("*").As("clicks"),
			goqu.L("count(*) FILTER (WHERE is_bot)").As("bot_clicks"),
		).
		Where(
			goqu.C("short_code").Eq(shortCode),
			goqu.C("clicked_at").Gte(since),
		).
		GroupBy(goqu.I("day")).
		Order(goqu.I("day").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var recs []clickBucketRecord
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to aggregate clicks: %w", op, err)
	}

	buckets := make([]models.ClickBucket, 0, len(recs))
	for _, rec := range recs {
		buckets = append(buckets, models.ClickBucket{
			Day:       rec.Day,
			Clicks:    rec.Clicks,
			BotClicks: rec.BotClicks,
		})
	}

	return buckets, nil
}

// Summary reports service-wide totals and the most clicked active records.
func (r *ClickRepository) Summary(ctx context.Context, topN int) (*models.StatsSummary, error) {
	const op = "database.postgres.ClickRepository.Summary"

	var totals struct {
		TotalURLs   int64 `db:"total_urls"`
		ActiveURLs  int64 `db:"active_urls"`
		TotalClicks int64 `db:"total_clicks"`
	}

	query := `SELECT count(*) AS total_urls,
			count(*) FILTER (WHERE is_active) AS active_urls,
			coalesce(sum(click_count), 0) AS total_clicks
		FROM urls`

	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("%s: failed to aggregate totals: %w", op, err)
	}

	var recs []urlRecord
	topQuery := `SELECT * FROM urls
		WHERE is_active
		ORDER BY click_count DESC, created_at DESC
		LIMIT $1`

	if err := r.db.SelectContext(ctx, &recs, topQuery, topN); err != nil {
		return nil, fmt.Errorf("%s: failed to list top records: %w", op, err)
	}

	summary := &models.StatsSummary{
		TotalURLs:   totals.TotalURLs,
		ActiveURLs:  totals.ActiveURLs,
		TotalClicks: totals.TotalClicks,
		TopURLs:     make([]*models.URL, 0, len(recs)),
	}
	for i := range recs {
		summary.TopURLs = append(summary.TopURLs, recs[i].ToURL())
	}

	return summary, nil
}

// DeleteEventsBefore prunes events older than the cutoff and returns how many
// rows were removed. Aggregated click counters on the records are unaffected.
func (r *ClickRepository) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "database.postgres.ClickRepository.DeleteEventsBefore"

	res, err := r.db.ExecContext(ctx, `DELETE FROM click_events WHERE clicked_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to delete click events: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}

	return rowsAffected, nil
}
