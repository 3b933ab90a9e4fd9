package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/shorturl-app/shorturl/internal/database"
	"github.com/shorturl-app/shorturl/internal/models"
	"github.com/shorturl-app/shorturl/internal/service"
	"github.com/shorturl-app/shorturl/pkg/response"
)

func handleListCategories(svc CategoryService) http.HandlerFunc {
	const op = "api.http.handleListCategories"
	const successMsg = "The categories retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.List(r.Context())
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		data := make([]categoryResponse, 0, len(categories))
		for _, category := range categories {
			data = append(data, toCategoryResponse(category))
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, data))
	}
}

func handleCreateCategory(svc CategoryService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleCreateCategory"
	const successMsg = "The category has been created successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req categoryRequest

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

		params := models.CategoryParams{
			Name:        req.Name,
			Description: req.Description,
		}

		category, err := svc.Create(r.Context(), principalFromContext(r.Context()), params)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrPermissionDenied):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.ForbiddenResponse)
			case errors.Is(err, database.ErrCategoryExists):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.ErrorResponse("Conflict", "The category name is already taken."))
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, toCategoryResponse(category)))
	}
}

func handleUpdateCategory(svc CategoryService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleUpdateCategory"
	const successMsg = "The category was successfully updated."

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "categoryID")
		if !ok {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ResourceNotFoundResponse)
			return
		}

		var req categoryRequest

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

		params := models.CategoryParams{
			Name:        req.Name,
			Description: req.Description,
		}

		category, err := svc.Update(r.Context(), principalFromContext(r.Context()), id, params)
		if err != nil {
			switch {
			case errors.Is(err, database.ErrCategoryNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
			case errors.Is(err, service.ErrPermissionDenied):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.ForbiddenResponse)
			case errors.Is(err, database.ErrCategoryExists):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.ErrorResponse("Conflict", "The category name is already taken."))
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toCategoryResponse(category)))
	}
}

func handleDeactivateCategory(svc CategoryService) http.HandlerFunc {
	const op = "api.http.handleDeactivateCategory"
	const successMsg = "The category was successfully deactivated."

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "categoryID")
		if !ok {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ResourceNotFoundResponse)
			return
		}

		err := svc.Deactivate(r.Context(), principalFromContext(r.Context()), id)
		if err != nil {
			switch {
			case errors.Is(err, database.ErrCategoryNotFound):
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
