package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shorturl-app/shorturl/internal/database"
	"github.com/shorturl-app/shorturl/internal/models"
)

const (
	defaultStatsDays = 30
	maxStatsDays     = 365

	defaultTopURLs = 5
	maxTopURLs     = 25
)

// ClickStatsRepository defines the read side of the click analytics store.
type ClickStatsRepository interface {
	// DailyClicks aggregates clicks per day for a short code since the given time.
	DailyClicks(ctx context.Context, shortCode string, since time.Time) ([]models.ClickBucket, error)

	// Summary aggregates totals across all URLs along with the top clicked ones.
	Summary(ctx context.Context, topN int) (*models.StatsSummary, error)
}

// StatsService provides read access to click analytics.
type StatsService struct {
	urls   URLRepository
	clicks ClickStatsRepository
}

// NewStatsService creates a new instance of StatsService with the provided repositories.
func NewStatsService(urls URLRepository, clicks ClickStatsRepository) *StatsService {
	return &StatsService{
		urls:   urls,
		clicks: clicks,
	}
}

// URLStats returns a URL together with its daily click counts over the given
// number of days. Contributors can only read stats for their own URLs.
func (s *StatsService) URLStats(ctx context.Context, actor models.Principal, shortCode string, days int) (*models.URL, []models.ClickBucket, error) {
	const op = "service.StatsService.URLStats"

	if !validShortCode(shortCode) {
		return nil, nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	url, err := s.urls.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to get url: %w", op, err)
	}

	if actor.Role == models.RoleContributor && url.OwnerID != actor.UserID {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	buckets, err := s.clicks.DailyClicks(ctx, shortCode, statsSince(days))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to get daily clicks: %w", op, err)
	}

	return url, buckets, nil
}

// Clicks returns the daily click series for a short code. Reserved for the
// reporting roles; owners read their own numbers through URLStats.
func (s *StatsService) Clicks(ctx context.Context, actor models.Principal, shortCode string, days int) ([]models.ClickBucket, error) {
	const op = "service.StatsService.Clicks"

	if !actor.CanViewReports() {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	if !validShortCode(shortCode) {
		return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	if _, err := s.urls.GetByShortCode(ctx, shortCode); err != nil {
		return nil, fmt.Errorf("%s: failed to get url: %w", op, err)
	}

	buckets, err := s.clicks.DailyClicks(ctx, shortCode, statsSince(days))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get daily clicks: %w", op, err)
	}

	return buckets, nil
}

// Summary returns system-wide totals along with the top clicked URLs.
// Reserved for the reporting roles.
func (s *StatsService) Summary(ctx context.Context, actor models.Principal, topN int) (*models.StatsSummary, error) {
	const op = "service.StatsService.Summary"

	if !actor.CanViewReports() {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	if topN <= 0 {
		topN = defaultTopURLs
	}
	if topN > maxTopURLs {
		topN = maxTopURLs
	}

	summary, err := s.clicks.Summary(ctx, topN)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get stats summary: %w", op, err)
	}

	return summary, nil
}

func statsSince(days int) time.Time {
	if days <= 0 {
		days = defaultStatsDays
	}
	if days > maxStatsDays {
		days = maxStatsDays
	}

	return time.Now().AddDate(0, 0, -days)
}
