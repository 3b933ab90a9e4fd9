package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shorturl-app/shorturl/internal/database"
	"github.com/shorturl-app/shorturl/internal/models"
)

type MockURLRepository struct {
	mock.Mock
}

func (r *MockURLRepository) Create(ctx context.Context, url models.URL) (*models.URL, error) {
	args := r.Called(ctx, url)
	u, _ := args.Get(0).(*models.URL)
	return u, args.Error(1)
}

func (r *MockURLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	args := r.Called(ctx, shortCode)
	u, _ := args.Get(0).(*models.URL)
	return u, args.Error(1)
}

func (r *MockURLRepository) List(ctx context.Context, filter models.URLFilter) ([]*models.URL, int64, error) {
	args := r.Called(ctx, filter)
	urls, _ := args.Get(0).([]*models.URL)
	total, _ := args.Get(1).(int64)
	return urls, total, args.Error(2)
}

func (r *MockURLRepository) Update(ctx context.Context, shortCode string, params models.UpdateURLParams) (*models.URL, error) {
	args := r.Called(ctx, shortCode, params)
	u, _ := args.Get(0).(*models.URL)
	return u, args.Error(1)
}

func (r *MockURLRepository) Deactivate(ctx context.Context, shortCode string) error {
	args := r.Called(ctx, shortCode)
	return args.Error(0)
}

func (r *MockURLRepository) Frontpage(ctx context.Context, limit int) ([]*models.URL, error) {
	args := r.Called(ctx, limit)
	urls, _ := args.Get(0).([]*models.URL)
	return urls, args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (r *MockUserRepository) Create(ctx context.Context, user models.User) (*models.User, error) {
	args := r.Called(ctx, user)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (r *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := r.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (r *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := r.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (r *MockUserRepository) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	args := r.Called(ctx, apiKey)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (r *MockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	args := r.Called(ctx)
	users, _ := args.Get(0).([]*models.User)
	return users, args.Error(1)
}

func (r *MockUserRepository) Update(ctx context.Context, id int64, params models.UpdateUserParams) (*models.User, error) {
	args := r.Called(ctx, id, params)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (r *MockUserRepository) Deactivate(ctx context.Context, id int64) error {
	args := r.Called(ctx, id)
	return args.Error(0)
}

func (r *MockUserRepository) SetAPIKey(ctx context.Context, id int64, apiKey string) (*models.User, error) {
	args := r.Called(ctx, id, apiKey)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (r *MockUserRepository) TouchLastLogin(ctx context.Context, id int64) error {
	args := r.Called(ctx, id)
	return args.Error(0)
}

func (r *MockUserRepository) CountAdmins(ctx context.Context) (int64, error) {
	args := r.Called(ctx)
	count, _ := args.Get(0).(int64)
	return count, args.Error(1)
}

type MockCategoryRepository struct {
	mock.Mock
}

func (r *MockCategoryRepository) Create(ctx context.Context, params models.CategoryParams) (*models.Category, error) {
	args := r.Called(ctx, params)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (r *MockCategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	args := r.Called(ctx)
	categories, _ := args.Get(0).([]*models.Category)
	return categories, args.Error(1)
}

func (r *MockCategoryRepository) Update(ctx context.Context, id int64, params models.CategoryParams) (*models.Category, error) {
	args := r.Called(ctx, id, params)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (r *MockCategoryRepository) Deactivate(ctx context.Context, id int64) error {
	args := r.Called(ctx, id)
	return args.Error(0)
}

type MockClickStatsRepository struct {
	mock.Mock
}

func (r *MockClickStatsRepository) DailyClicks(ctx context.Context, shortCode string, since time.Time) ([]models.ClickBucket, error) {
	args := r.Called(ctx, shortCode, since)
	buckets, _ := args.Get(0).([]models.ClickBucket)
	return buckets, args.Error(1)
}

func (r *MockClickStatsRepository) Summary(ctx context.Context, topN int) (*models.StatsSummary, error) {
	args := r.Called(ctx, topN)
	summary, _ := args.Get(0).(*models.StatsSummary)
	return summary, args.Error(1)
}

// memoryURLRepository backs concurrency tests with a real uniqueness check.
type memoryURLRepository struct {
	mu     sync.Mutex
	urls   map[string]models.URL
	nextID int64
}

func newMemoryURLRepository() *memoryURLRepository {
	return &memoryURLRepository{urls: make(map[string]models.URL)}
}

func (r *memoryURLRepository) Create(_ context.Context, url models.URL) (*models.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.urls[url.ShortCode]; ok {
		return nil, database.ErrShortCodeExists
	}

	r.nextID++
	url.ID = r.nextID
	url.CreatedAt = time.Now()
	url.UpdatedAt = url.CreatedAt
	r.urls[url.ShortCode] = url

	return &url, nil
}

func (r *memoryURLRepository) GetByShortCode(_ context.Context, shortCode string) (*models.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	url, ok := r.urls[shortCode]
	if !ok {
		return nil, database.ErrURLNotFound
	}

	return &url, nil
}

func (r *memoryURLRepository) List(_ context.Context, _ models.URLFilter) ([]*models.URL, int64, error) {
	return nil, 0, nil
}

func (r *memoryURLRepository) Update(_ context.Context, _ string, _ models.UpdateURLParams) (*models.URL, error) {
	return nil, database.ErrURLNotFound
}

func (r *memoryURLRepository) Deactivate(_ context.Context, _ string) error {
	return database.ErrURLNotFound
}

func (r *memoryURLRepository) Frontpage(_ context.Context, _ int) ([]*models.URL, error) {
	return nil, nil
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]models.URL
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]models.URL)}
}

func (c *fakeCache) Get(_ context.Context, shortCode string) (*models.URL, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	url, ok := c.entries[shortCode]
	if !ok {
		return nil, false
	}

	return &url, true
}

func (c *fakeCache) Set(_ context.Context, url models.URL) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url.ShortCode] = url
}

func (c *fakeCache) Invalidate(_ context.Context, shortCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, shortCode)
	c.invalidated = append(c.invalidated, shortCode)
}

type fakeSink struct {
	mu     sync.Mutex
	events []models.ClickEvent
}

func (s *fakeSink) Record(event models.ClickEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *fakeSink) recorded() []models.ClickEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]models.ClickEvent, len(s.events))
	copy(events, s.events)

	return events
}
