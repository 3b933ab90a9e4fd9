package models

import "time"

// URL represents a shortened URL and its associated metadata.
type URL struct {
	// ID is the unique identifier for the shortened URL record.
	ID int64
	// ShortCode is the short code or key associated with the original URL.
	ShortCode string
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// Title is an optional display title for the link.
	Title string
	// Description is an optional description for the link.
	Description string
	// OwnerID identifies the user who created the record. Ownership is never transferred.
	OwnerID int64
	// CategoryID is an optional reference to a category. Nil when the link is uncategorized.
	CategoryID *int64
	// Active marks the record as resolvable. Soft delete clears it; the short code
	// stays reserved forever either way.
	Active bool
	// ShowOnFrontpage includes the link in the public frontpage listing.
	ShowOnFrontpage bool
	// ClickCount tracks the number of successful resolutions. It only ever grows.
	ClickCount int64
	// CreatedAt is the timestamp indicating when the shortened URL was created.
	CreatedAt time.Time
	// UpdatedAt is the timestamp indicating when the shortened URL was last updated.
	UpdatedAt time.Time
	// ExpiresAt is an optional expiry. Past-expiry records resolve as not found
	// but are never removed.
	ExpiresAt *time.Time
}

// Expired reports whether the record is past its expiry at the given time.
// Records without an expiry never expire.
func (u *URL) Expired(now time.Time) bool {
	return u.ExpiresAt != nil && u.ExpiresAt.Before(now)
}

// Resolvable reports whether a redirect for the record may succeed at the given time.
func (u *URL) Resolvable(now time.Time) bool {
	return u.Active && !u.Expired(now)
}
