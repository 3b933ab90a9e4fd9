// Package http provides the HTTP delivery layer for the URL shortener
// service. It contains the router, the authentication middleware and the
// handlers that validate input and format response envelopes.
package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/shorturl-app/shorturl/internal/models"
	"github.com/shorturl-app/shorturl/internal/service"
	"github.com/shorturl-app/shorturl/pkg/middleware/recoverer"
)

type URLService interface {
	Shorten(ctx context.Context, actor models.Principal, params models.ShortenURLParams) (*models.URL, error)
	Resolve(ctx context.Context, shortCode string, visit service.Visit) (*models.URL, error)
	GetURL(ctx context.Context, actor models.Principal, shortCode string) (*models.URL, error)
	List(ctx context.Context, actor models.Principal, filter models.URLFilter) ([]*models.URL, int64, error)
	Update(ctx context.Context, actor models.Principal, shortCode string, params models.UpdateURLParams) (*models.URL, error)
	Deactivate(ctx context.Context, actor models.Principal, shortCode string) error
	Frontpage(ctx context.Context, limit int) ([]*models.URL, error)
}

type UserService interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	AuthenticateAPIKey(ctx context.Context, apiKey string) (*models.User, error)
	Create(ctx context.Context, actor models.Principal, params models.CreateUserParams) (*models.User, error)
	GetByID(ctx context.Context, actor models.Principal, id int64) (*models.User, error)
	List(ctx context.Context, actor models.Principal) ([]*models.User, error)
	Update(ctx context.Context, actor models.Principal, id int64, params models.UpdateUserParams) (*models.User, error)
	Deactivate(ctx context.Context, actor models.Principal, id int64) error
	RotateAPIKey(ctx context.Context, actor models.Principal, id int64) (*models.User, error)
}

type CategoryService interface {
	Create(ctx context.Context, actor models.Principal, params models.CategoryParams) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Update(ctx context.Context, actor models.Principal, id int64, params models.CategoryParams) (*models.Category, error)
	Deactivate(ctx context.Context, actor models.Principal, id int64) error
}

type StatsService interface {
	URLStats(ctx context.Context, actor models.Principal, shortCode string, days int) (*models.URL, []models.ClickBucket, error)
	Clicks(ctx context.Context, actor models.Principal, shortCode string, days int) ([]models.ClickBucket, error)
	Summary(ctx context.Context, actor models.Principal, topN int) (*models.StatsSummary, error)
}

// Services bundles the application services the router dispatches to.
type Services struct {
	URLs       URLService
	Users      UserService
	Categories CategoryService
	Stats      StatsService
}

func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns the router. The public redirect endpoint
// lives at the root so short links stay short; the management API is mounted
// under /api/v1. The limiter is optional and applies to the management API
// only, so redirects are never throttled.
func NewRouter(logger *httplog.Logger, baseURL string, svc Services, tokens *TokenManager, limiter func(http.Handler) http.Handler) http.Handler {
	baseURL = strings.TrimRight(baseURL, "/")

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger))

	r.Get("/healthz", handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))
	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		if limiter != nil {
			r.Use(limiter)
		}

		validate := getValidate()
		auth := authenticate(tokens, svc.Users)

		r.Get("/ping", handlePing)
		r.Post("/auth/login", handleLogin(svc.Users, tokens, validate))
		r.Get("/frontpage", handleFrontpage(baseURL, svc.URLs))

		r.Route("/urls", func(r chi.Router) {
			r.Use(auth)

			r.Post("/", handleShortenURL(baseURL, svc.URLs, validate))
			r.Get("/", handleListURLs(baseURL, svc.URLs))

			r.Route("/{shortCode}", func(r chi.Router) {
				r.Get("/", handleGetURL(baseURL, svc.URLs))
				r.Patch("/", handleUpdateURL(baseURL, svc.URLs, validate))
				r.Delete("/", handleDeactivateURL(svc.URLs))
				r.Get("/stats", handleGetURLStats(baseURL, svc.Stats))
				r.Get("/clicks", handleGetURLClicks(svc.Stats))
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(auth)

			r.Post("/", handleCreateUser(svc.Users, validate))
			r.Get("/", handleListUsers(svc.Users))

			r.Route("/{userID}", func(r chi.Router) {
				r.Get("/", handleGetUser(svc.Users))
				r.Patch("/", handleUpdateUser(svc.Users, validate))
				r.Delete("/", handleDeactivateUser(svc.Users))
				r.Post("/api-key", handleRotateAPIKey(svc.Users))
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", handleListCategories(svc.Categories))

			r.Group(func(r chi.Router) {
				r.Use(auth)

				r.Post("/", handleCreateCategory(svc.Categories, validate))
				r.Patch("/{categoryID}", handleUpdateCategory(svc.Categories, validate))
				r.Delete("/{categoryID}", handleDeactivateCategory(svc.Categories))
			})
		})

		r.Route("/stats", func(r chi.Router) {
			r.Use(auth)

			r.Get("/summary", handleStatsSummary(baseURL, svc.Stats))
		})
	})

	r.Get("/{shortCode}", handleRedirect(svc.URLs))

	return r
}
