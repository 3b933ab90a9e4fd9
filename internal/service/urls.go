package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shorturl-app/shorturl/internal/clickstream"
	"github.com/shorturl-app/shorturl/internal/database"
	"github.com/shorturl-app/shorturl/internal/metrics"
	"github.com/shorturl-app/shorturl/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	defaultFrontpageLimit = 10
	maxFrontpageLimit     = 50
)

// URLRepository defines the interface for working with URLs at the business logic layer.
type URLRepository interface {
	// Create inserts a new shortened URL.
	// Returns the created URL model or an error if the short code is taken.
	Create(ctx context.Context, url models.URL) (*models.URL, error)

	// GetByShortCode retrieves a URL by its short code regardless of state.
	// Returns the URL model if found or an error if not found.
	GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// List retrieves URLs matching the filter along with the total count.
	List(ctx context.Context, filter models.URLFilter) ([]*models.URL, int64, error)

	// Update modifies the fields set in params for a given short code.
	// Returns the updated URL model or an error if the operation fails.
	Update(ctx context.Context, shortCode string, params models.UpdateURLParams) (*models.URL, error)

	// Deactivate retires a URL by its short code. The code is never reused.
	Deactivate(ctx context.Context, shortCode string) error

	// Frontpage retrieves the most clicked active URLs marked for the front page.
	Frontpage(ctx context.Context, limit int) ([]*models.URL, error)
}

// URLCache is a best-effort lookup cache for the redirect path.
type URLCache interface {
	Get(ctx context.Context, shortCode string) (*models.URL, bool)
	Set(ctx context.Context, url models.URL)
	Invalidate(ctx context.Context, shortCode string)
}

// ClickSink receives click events from successful resolutions.
// Implementations must not block and must not fail the redirect.
type ClickSink interface {
	Record(event models.ClickEvent)
}

// Visit carries the request metadata recorded for a successful resolution.
type Visit struct {
	IP        string
	UserAgent string
	Referrer  string
}

// URLService provides methods to manage URL shortening operations.
// The service uses a URLRepository interface to interact with the underlying
// database, an optional URLCache to serve hot redirects and an optional
// ClickSink to count clicks off the request path.
type URLService struct {
	repo       URLRepository
	cache      URLCache
	clicks     ClickSink
	reserved   ReservedCodes
	codeLength int
	maxRetries int
}

// NewURLService creates a new instance of URLService. cache and clicks may
// be nil, disabling caching and click counting respectively.
func NewURLService(repo URLRepository, cache URLCache, clicks ClickSink, reserved ReservedCodes, codeLength, maxRetries int) *URLService {
	return &URLService{
		repo:       repo,
		cache:      cache,
		clicks:     clicks,
		reserved:   reserved,
		codeLength: codeLength,
		maxRetries: maxRetries,
	}
}

// Shorten stores a new shortened URL owned by the acting user. Only admins
// and contributors may create URLs. A custom code is used as-is and never
// retried; otherwise random codes are generated until one is free or the
// retry budget runs out.
func (s *URLService) Shorten(ctx context.Context, actor models.Principal, params models.ShortenURLParams) (*models.URL, error) {
	const op = "service.URLService.Shorten"

	if !actor.CanCreateURLs() {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	if !validTargetURL(params.TargetURL) {
		metrics.Allocations.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidTargetURL)
	}

	url := models.URL{
		OriginalURL:     params.TargetURL,
		Title:           params.Title,
		Description:     params.Description,
		OwnerID:         actor.UserID,
		CategoryID:      params.CategoryID,
		Active:          true,
		ShowOnFrontpage: params.ShowOnFrontpage,
		ExpiresAt:       params.ExpiresAt,
	}

	if params.CustomCode != "" {
		return s.shortenCustom(ctx, op, url, params.CustomCode)
	}

	return s.shortenRandom(ctx, op, url)
}

func (s *URLService) shortenCustom(ctx context.Context, op string, url models.URL, customCode string) (*models.URL, error) {
	if !validShortCode(customCode) {
		metrics.Allocations.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidShortCode)
	}

	if s.reserved.Contains(customCode) {
		metrics.Allocations.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%s: %w", op, ErrReservedShortCode)
	}

	url.ShortCode = customCode

	created, err := s.repo.Create(ctx, url)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrShortCodeExists):
			metrics.Allocations.WithLabelValues("taken").Inc()
			return nil, fmt.Errorf("%s: %w", op, ErrShortCodeTaken)
		case errors.Is(err, database.ErrCategoryNotFound):
			metrics.Allocations.WithLabelValues("invalid").Inc()
			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		metrics.Allocations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}

	metrics.Allocations.WithLabelValues("success").Inc()

	return created, nil
}

func (s *URLService) shortenRandom(ctx context.Context, op string, url models.URL) (*models.URL, error) {
	for i := 0; i < s.maxRetries; i++ {
		shortCode, err := generateShortCode(s.codeLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		if s.reserved.Contains(shortCode) {
			continue
		}

		url.ShortCode = shortCode

		created, err := s.repo.Create(ctx, url)
		if err != nil {
			if errors.Is(err, database.ErrShortCodeExists) {
				metrics.CodeCollisions.Inc()
				continue
			}

			if errors.Is(err, database.ErrCategoryNotFound) {
				metrics.Allocations.WithLabelValues("invalid").Inc()
				return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
			}

			metrics.Allocations.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
		}

		metrics.Allocations.WithLabelValues("success").Inc()

		return created, nil
	}

	metrics.Allocations.WithLabelValues("exhausted").Inc()

	return nil, fmt.Errorf("%s: %w", op, ErrAllocationExhausted)
}

// Resolve returns the target for a redirect and records the visit. Malformed
// codes are rejected without touching the store. Absent, inactive and
// expired codes are indistinguishable to the caller.
func (s *URLService) Resolve(ctx context.Context, shortCode string, visit Visit) (*models.URL, error) {
	const op = "service.URLService.Resolve"

	if !validShortCode(shortCode) {
		metrics.Redirects.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	now := time.Now()

	if s.cache != nil {
		if url, ok := s.cache.Get(ctx, shortCode); ok {
			return s.finishResolve(ctx, op, url, shortCode, visit, now, false)
		}
	}

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, database.ErrURLNotFound) {
			metrics.Redirects.WithLabelValues("not_found").Inc()
			return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
		}

		metrics.Redirects.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}

	return s.finishResolve(ctx, op, url, shortCode, visit, now, true)
}

// finishResolve applies the resolvability check and side effects shared by
// the cache and store paths.
func (s *URLService) finishResolve(ctx context.Context, op string, url *models.URL, shortCode string, visit Visit, now time.Time, cacheable bool) (*models.URL, error) {
	if !url.Resolvable(now) {
		metrics.Redirects.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	if cacheable && s.cache != nil {
		s.cache.Set(ctx, *url)
	}

	if s.clicks != nil {
		s.clicks.Record(clickstream.NewEvent(shortCode, visit.IP, visit.UserAgent, visit.Referrer, now))
	}

	metrics.Redirects.WithLabelValues("success").Inc()

	return url, nil
}

// GetURL retrieves a URL by its short code. Contributors can only read
// their own URLs.
func (s *URLService) GetURL(ctx context.Context, actor models.Principal, shortCode string) (*models.URL, error) {
	const op = "service.URLService.GetURL"

	url, err := s.getForActor(ctx, op, actor, shortCode)
	if err != nil {
		return nil, err
	}

	return url, nil
}

// List retrieves URLs matching the filter. Contributors only see their own
// URLs regardless of the requested filter.
func (s *URLService) List(ctx context.Context, actor models.Principal, filter models.URLFilter) ([]*models.URL, int64, error) {
	const op = "service.URLService.List"

	if actor.Role == models.RoleContributor {
		filter.OwnerID = &actor.UserID
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	urls, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	return urls, total, nil
}

// Update modifies a URL owned by the acting user. Admins can update any
// URL. The cache entry for the code is invalidated on success.
func (s *URLService) Update(ctx context.Context, actor models.Principal, shortCode string, params models.UpdateURLParams) (*models.URL, error) {
	const op = "service.URLService.Update"

	if params.OriginalURL != nil && !validTargetURL(*params.OriginalURL) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidTargetURL)
	}

	if _, err := s.getForManage(ctx, op, actor, shortCode); err != nil {
		return nil, err
	}

	url, err := s.repo.Update(ctx, shortCode, params)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update url: %w", op, err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, shortCode)
	}

	return url, nil
}

// Deactivate retires a URL owned by the acting user. Admins can deactivate
// any URL. The short code is permanently retired, never reused.
func (s *URLService) Deactivate(ctx context.Context, actor models.Principal, shortCode string) error {
	const op = "service.URLService.Deactivate"

	if _, err := s.getForManage(ctx, op, actor, shortCode); err != nil {
		return err
	}

	if err := s.repo.Deactivate(ctx, shortCode); err != nil {
		return fmt.Errorf("%s: failed to deactivate url: %w", op, err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, shortCode)
	}

	return nil
}

// Frontpage retrieves the most clicked active URLs marked for the front
// page. It requires no authentication.
func (s *URLService) Frontpage(ctx context.Context, limit int) ([]*models.URL, error) {
	const op = "service.URLService.Frontpage"

	if limit <= 0 {
		limit = defaultFrontpageLimit
	}
	if limit > maxFrontpageLimit {
		limit = maxFrontpageLimit
	}

	urls, err := s.repo.Frontpage(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get frontpage urls: %w", op, err)
	}

	return urls, nil
}

// getForActor fetches a URL and applies read permissions.
func (s *URLService) getForActor(ctx context.Context, op string, actor models.Principal, shortCode string) (*models.URL, error) {
	url, err := s.fetch(ctx, op, shortCode)
	if err != nil {
		return nil, err
	}

	if actor.Role == models.RoleContributor && url.OwnerID != actor.UserID {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	return url, nil
}

// getForManage fetches a URL and applies write permissions: the owner or an
// admin may mutate it.
func (s *URLService) getForManage(ctx context.Context, op string, actor models.Principal, shortCode string) (*models.URL, error) {
	url, err := s.fetch(ctx, op, shortCode)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && url.OwnerID != actor.UserID {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	return url, nil
}

func (s *URLService) fetch(ctx context.Context, op string, shortCode string) (*models.URL, error) {
	if !validShortCode(shortCode) {
		return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url: %w", op, err)
	}

	return url, nil
}
