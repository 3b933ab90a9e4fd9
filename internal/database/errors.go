package database

import "errors"

var (
	// ErrShortCodeExists is returned when an attempt is made to reserve
	// a short code that already exists, including soft-deleted and expired
	// records. Short codes are never reissued.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned when an attempt is made to retrieve
	// a URL using a short code that doesn't exist.
	ErrURLNotFound = errors.New("url not found")
	// ErrUserNotFound is returned when no user matches the given
	// identifier, email or API key.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when an attempt is made to create a user
	// with an email that is already registered.
	ErrEmailExists = errors.New("email exists")
	// ErrCategoryNotFound is returned when no category matches the given
	// identifier, or when a URL references a missing category.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryExists is returned when an attempt is made to create a
	// category with a name that is already taken.
	ErrCategoryExists = errors.New("category exists")
)
