package models

import "time"

// Category groups related links. Deleting a category is a soft delete and
// leaves its links in place.
type Category struct {
	ID          int64
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
