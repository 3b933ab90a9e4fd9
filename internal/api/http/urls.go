package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/shorturl-app/shorturl/internal/database"
	"github.com/shorturl-app/shorturl/internal/models"
	"github.com/shorturl-app/shorturl/internal/service"
	"github.com/shorturl-app/shorturl/pkg/response"
)

func handleShortenURL(baseURL string, svc URLService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleShortenURL"
	const successMsg = "The URL has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenURLRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		params := models.ShortenURLParams{
			TargetURL:       req.URL,
			CustomCode:      req.CustomCode,
			Title:           req.Title,
			Description:     req.Description,
			CategoryID:      req.CategoryID,
			ShowOnFrontpage: req.ShowOnFrontpage,
			ExpiresAt:       req.ExpiresAt,
		}

		url, err := svc.Shorten(r.Context(), principalFromContext(r.Context()), params)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidTargetURL):
				render.Status(r, http.StatusUnprocessableEntity)
				render.JSON(w, r, response.ErrorResponse("Unprocessable Entity", "The url must be a valid http or https URL."))
			case errors.Is(err, service.ErrInvalidShortCode):
				render.Status(r, http.StatusUnprocessableEntity)
				render.JSON(w, r, response.ErrorResponse("Unprocessable Entity", "The custom code must be 1 to 32 letters, digits, underscores or hyphens."))
			case errors.Is(err, service.ErrReservedShortCode):
				render.Status(r, http.StatusUnprocessableEntity)
				render.JSON(w, r, response.ErrorResponse("Unprocessable Entity", "The custom code is reserved."))
			case errors.Is(err, database.ErrCategoryNotFound):
				render.Status(r, http.StatusUnprocessableEntity)
				render.JSON(w, r, response.ErrorResponse("Unprocessable Entity", "The category does not exist."))
			case errors.Is(err, service.ErrShortCodeTaken):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.ErrorResponse("Conflict", "The custom code is already in use."))
			case errors.Is(err, service.ErrPermissionDenied):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.ForbiddenResponse)
			case errors.Is(err, service.ErrAllocationExhausted), errors.Is(err, service.ErrStoreUnavailable):
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

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(baseURL, url)))
	}
}

func handleListURLs(baseURL string, svc URLService) http.HandlerFunc {
	const op = "api.http.handleListURLs"
	const successMsg = "The URLs retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		filter := models.URLFilter{
			Query:  r.URL.Query().Get("q"),
			Limit:  queryInt(r, "limit"),
			Offset: queryInt(r, "offset"),
		}

		if v := r.URL.Query().Get("category_id"); v != "" {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				filter.CategoryID = &id
			}
		}
		if v := r.URL.Query().Get("frontpage"); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				filter.Frontpage = &b
			}
		}

		urls, total, err := svc.List(r.Context(), principalFromContext(r.Context()), filter)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		data := listURLsResponse{
			URLs:  toURLResponses(baseURL, urls),
			Total: total,
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, data))
	}
}

func handleGetURL(baseURL string, svc URLService) http.HandlerFunc {
	const op = "api.http.handleGetURL"
	const successMsg = "The URL retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.GetURL(r.Context(), principalFromContext(r.Context()), shortCode)
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
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(baseURL, url)))
	}
}

func handleUpdateURL(baseURL string, svc URLService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleUpdateURL"
	const successMsg = "The URL was successfully updated."

	return func(w http.ResponseWriter, r *http.Request) {
		var req updateURLRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		params := models.UpdateURLParams{
			OriginalURL:     req.URL,
			Title:           req.Title,
			Description:     req.Description,
			CategoryID:      req.CategoryID,
			ShowOnFrontpage: req.ShowOnFrontpage,
			Active:          req.Active,
			ExpiresAt:       req.ExpiresAt,
		}

		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.Update(r.Context(), principalFromContext(r.Context()), shortCode, params)
		if err != nil {
			switch {
			case errors.Is(err, database.ErrURLNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
			case errors.Is(err, service.ErrPermissionDenied):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.ForbiddenResponse)
			case errors.Is(err, service.ErrInvalidTargetURL):
				render.Status(r, http.StatusUnprocessableEntity)
				render.JSON(w, r, response.ErrorResponse("Unprocessable Entity", "The url must be a valid http or https URL."))
			case errors.Is(err, database.ErrCategoryNotFound):
				render.Status(r, http.StatusUnprocessableEntity)
				render.JSON(w, r, response.ErrorResponse("Unprocessable Entity", "The category does not exist."))
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(baseURL, url)))
	}
}

func handleDeactivateURL(svc URLService) http.HandlerFunc {
	const op = "api.http.handleDeactivateURL"
	const successMsg = "The URL was successfully deactivated."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		err := svc.Deactivate(r.Context(), principalFromContext(r.Context()), shortCode)
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
		render.JSON(w, r, response.SuccessResponse(successMsg))
	}
}

func handleFrontpage(baseURL string, svc URLService) http.HandlerFunc {
	const op = "api.http.handleFrontpage"
	const successMsg = "The frontpage URLs retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		urls, err := svc.Frontpage(r.Context(), queryInt(r, "limit"))
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponses(baseURL, urls)))
	}
}
