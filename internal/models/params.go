package models

import "time"

// ShortenURLParams carries the caller's input for allocating a short URL.
// CustomCode is optional; when empty a random code is generated.
type ShortenURLParams struct {
	TargetURL       string
	CustomCode      string
	Title           string
	Description     string
	CategoryID      *int64
	ShowOnFrontpage bool
	ExpiresAt       *time.Time
}

// UpdateURLParams carries a partial update of a URL record. Nil fields are
// left untouched. The short code and owner cannot be changed.
type UpdateURLParams struct {
	OriginalURL     *string
	Title           *string
	Description     *string
	CategoryID      *int64
	ShowOnFrontpage *bool
	Active          *bool
	ExpiresAt       *time.Time
}

// URLFilter narrows and pages URL listings.
type URLFilter struct {
	OwnerID    *int64
	CategoryID *int64
	Frontpage  *bool
	Query      string
	Limit      int
	Offset     int
}

// CreateUserParams carries the input for registering a user. Password is the
// plain text credential; it is hashed before it reaches the store.
type CreateUserParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// UpdateUserParams carries a partial update of a user. Nil fields are left
// untouched.
type UpdateUserParams struct {
	FirstName *string
	LastName  *string
	Role      *string
	Active    *bool
}

// CategoryParams carries the input for creating or updating a category.
type CategoryParams struct {
	Name        string
	Description string
}
