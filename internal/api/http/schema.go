package http

import (
	"time"

	"github.com/samber/lo"

	"github.com/shorturl-app/shorturl/internal/models"
)

type shortenURLRequest struct {
	URL             string     `json:"url" validate:"required,url,max=2048"`
	CustomCode      string     `json:"custom_code,omitempty" validate:"omitempty,max=32"`
	Title           string     `json:"title,omitempty" validate:"omitempty,max=255"`
	Description     string     `json:"description,omitempty" validate:"omitempty,max=1024"`
	CategoryID      *int64     `json:"category_id,omitempty"`
	ShowOnFrontpage bool       `json:"show_on_frontpage,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

type updateURLRequest struct {
	URL             *string    `json:"url,omitempty" validate:"omitempty,url,max=2048"`
	Title           *string    `json:"title,omitempty" validate:"omitempty,max=255"`
	Description     *string    `json:"description,omitempty" validate:"omitempty,max=1024"`
	CategoryID      *int64     `json:"category_id,omitempty"`
	ShowOnFrontpage *bool      `json:"show_on_frontpage,omitempty"`
	Active          *bool      `json:"active,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

type urlResponse struct {
	ID              int64      `json:"id"`
	ShortCode       string     `json:"short_code"`
	ShortURL        string     `json:"short_url"`
	URL             string     `json:"url"`
	Title           string     `json:"title,omitempty"`
	Description     string     `json:"description,omitempty"`
	CategoryID      *int64     `json:"category_id,omitempty"`
	Active          bool       `json:"active"`
	ShowOnFrontpage bool       `json:"show_on_frontpage"`
	ClickCount      int64      `json:"click_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

func toURLResponse(baseURL string, url *models.URL) urlResponse {
	return urlResponse{
		ID:              url.ID,
		ShortCode:       url.ShortCode,
		ShortURL:        baseURL + "/" + url.ShortCode,
		URL:             url.OriginalURL,
		Title:           url.Title,
		Description:     url.Description,
		CategoryID:      url.CategoryID,
		Active:          url.Active,
		ShowOnFrontpage: url.ShowOnFrontpage,
		ClickCount:      url.ClickCount,
		CreatedAt:       url.CreatedAt,
		UpdatedAt:       url.UpdatedAt,
		ExpiresAt:       url.ExpiresAt,
	}
}

func toURLResponses(baseURL string, urls []*models.URL) []urlResponse {
	return lo.Map(urls, func(url *models.URL, _ int) urlResponse {
		return toURLResponse(baseURL, url)
	})
}

type listURLsResponse struct {
	URLs  []urlResponse `json:"urls"`
	Total int64         `json:"total"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type createUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Role      string `json:"role" validate:"required,oneof=admin contributor viewer reporter"`
}

type updateUserRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Role      *string `json:"role,omitempty" validate:"omitempty,oneof=admin contributor viewer reporter"`
	Active    *bool   `json:"active,omitempty"`
}

type userResponse struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name,omitempty"`
	Role        string     `json:"role"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		Active:      user.Active,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}

type apiKeyResponse struct {
	APIKey string `json:"api_key"`
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=1024"`
}

type categoryResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toCategoryResponse(category *models.Category) categoryResponse {
	return categoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		Active:      category.Active,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}

type clickBucketResponse struct {
	Day       string `json:"day"`
	Clicks    int64  `json:"clicks"`
	BotClicks int64  `json:"bot_clicks"`
}

func toClickBucketResponses(daily []models.ClickBucket) []clickBucketResponse {
	return lo.Map(daily, func(bucket models.ClickBucket, _ int) clickBucketResponse {
		return clickBucketResponse{
			Day:       bucket.Day.Format(time.DateOnly),
			Clicks:    bucket.Clicks,
			BotClicks: bucket.BotClicks,
		}
	})
}

type urlStatsResponse struct {
	URL   urlResponse           `json:"url"`
	Daily []clickBucketResponse `json:"daily"`
}

func toURLStatsResponse(baseURL string, url *models.URL, daily []models.ClickBucket) urlStatsResponse {
	return urlStatsResponse{
		URL:   toURLResponse(baseURL, url),
		Daily: toClickBucketResponses(daily),
	}
}

type urlClicksResponse struct {
	ShortCode string                `json:"short_code"`
	Daily     []clickBucketResponse `json:"daily"`
}

func toURLClicksResponse(shortCode string, daily []models.ClickBucket) urlClicksResponse {
	return urlClicksResponse{
		ShortCode: shortCode,
		Daily:     toClickBucketResponses(daily),
	}
}

type statsSummaryResponse struct {
	TotalURLs   int64         `json:"total_urls"`
	ActiveURLs  int64         `json:"active_urls"`
	TotalClicks int64         `json:"total_clicks"`
	TopURLs     []urlResponse `json:"top_urls"`
}

func toStatsSummaryResponse(baseURL string, summary *models.StatsSummary) statsSummaryResponse {
	return statsSummaryResponse{
		TotalURLs:   summary.TotalURLs,
		ActiveURLs:  summary.ActiveURLs,
		TotalClicks: summary.TotalClicks,
		TopURLs:     toURLResponses(baseURL, summary.TopURLs),
	}
}
