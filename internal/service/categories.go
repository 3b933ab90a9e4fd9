package service

import (
	"context"
	"fmt"

	"github.com/shorturl-app/shorturl/internal/models"
)

// CategoryRepository defines the interface for working with categories at the business logic layer.
type CategoryRepository interface {
	// Create inserts a new category.
	Create(ctx context.Context, params models.CategoryParams) (*models.Category, error)

	// List retrieves all active categories.
	List(ctx context.Context) ([]*models.Category, error)

	// Update modifies a category.
	Update(ctx context.Context, id int64, params models.CategoryParams) (*models.Category, error)

	// Deactivate disables a category.
	Deactivate(ctx context.Context, id int64) error
}

// CategoryService provides methods to manage URL categories.
type CategoryService struct {
	repo CategoryRepository
}

// NewCategoryService creates a new instance of CategoryService with the provided repository.
func NewCategoryService(repo CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// Create adds a new category. Only admins can create categories.
func (s *CategoryService) Create(ctx context.Context, actor models.Principal, params models.CategoryParams) (*models.Category, error) {
	const op = "service.CategoryService.Create"

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	category, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create category: %w", op, err)
	}

	return category, nil
}

// List retrieves all active categories.
func (s *CategoryService) List(ctx context.Context) ([]*models.Category, error) {
	const op = "service.CategoryService.List"

	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list categories: %w", op, err)
	}

	return categories, nil
}

// Update modifies a category. Only admins can update categories.
func (s *CategoryService) Update(ctx context.Context, actor models.Principal, id int64, params models.CategoryParams) (*models.Category, error) {
	const op = "service.CategoryService.Update"

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	category, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update category: %w", op, err)
	}

	return category, nil
}

// Deactivate disables a category. Only admins can deactivate categories.
// URLs keep their category assignment.
func (s *CategoryService) Deactivate(ctx context.Context, actor models.Principal, id int64) error {
	const op = "service.CategoryService.Deactivate"

	if !actor.IsAdmin() {
		return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("%s: failed to deactivate category: %w", op, err)
	}

	return nil
}
