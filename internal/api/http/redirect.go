package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"

	"github.com/shorturl-app/shorturl/internal/database"
	"github.com/shorturl-app/shorturl/internal/service"
	"github.com/shorturl-app/shorturl/pkg/response"
)

// handleRedirect resolves a short code and redirects the client to the
// original URL. Responses are never cacheable; every visit must reach the
// server so the click is counted.
func handleRedirect(svc URLService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		visit := service.Visit{
			IP:        clientIP(r),
			UserAgent: r.UserAgent(),
			Referrer:  r.Referer(),
		}

		url, err := svc.Resolve(r.Context(), shortCode, visit)
		if err != nil {
			switch {
			case errors.Is(err, database.ErrURLNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
			case errors.Is(err, service.ErrStoreUnavailable):
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.ServiceUnavailableResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, url.OriginalURL, http.StatusFound)
	}
}
