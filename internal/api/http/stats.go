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

func handleGetURLStats(baseURL string, svc StatsService) http.HandlerFunc {
	const op = "api.http.handleGetURLStats"
	const successMsg = "The URL statistics retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, daily, err := svc.URLStats(r.Context(), principalFromContext(r.Context()), shortCode, queryInt(r, "days"))
		if err != nil {
			switch {
			case errors.Is(err, database.ErrURLNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
			case errors.Is(err, service.ErrPermissionDenied):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.ForbiddenResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLStatsResponse(baseURL, url, daily)))
	}
}

func handleGetURLClicks(svc StatsService) http.HandlerFunc {
	const op = "api.http.handleGetURLClicks"
	const successMsg = "The URL click series retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		daily, err := svc.Clicks(r.Context(), principalFromContext(r.Context()), shortCode, queryInt(r, "days"))
		if err != nil {
			switch {
			case errors.Is(err, database.ErrURLNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
			case errors.Is(err, service.ErrPermissionDenied):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.ForbiddenResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLClicksResponse(shortCode, daily)))
	}
}

func handleStatsSummary(baseURL string, svc StatsService) http.HandlerFunc {
	const op = "api.http.handleStatsSummary"
	const successMsg = "The statistics summary retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context(), principalFromContext(r.Context()), queryInt(r, "top"))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrPermissionDenied):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.ForbiddenResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toStatsSummaryResponse(baseURL, summary)))
	}
}
