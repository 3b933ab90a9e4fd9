package models

import "time"

// Roles supported by the management API. Every user carries exactly one.
const (
	RoleAdmin       = "admin"
	RoleContributor = "contributor"
	RoleViewer      = "viewer"
	RoleReporter    = "reporter"
)

// ValidRole reports whether role is one of the supported role names.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleContributor, RoleViewer, RoleReporter:
		return true
	}
	return false
}

// User represents an account that can authenticate against the management API.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	// Role determines which management operations the user may perform.
	Role string
	// APIKey authenticates non-interactive clients via the X-API-Key header.
	APIKey      string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID int64
	Role   string
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanCreateURLs reports whether the principal may shorten new URLs.
func (p Principal) CanCreateURLs() bool {
	return p.Role == RoleAdmin || p.Role == RoleContributor
}

// CanViewReports reports whether the principal may read aggregated click
// analytics.
func (p Principal) CanViewReports() bool {
	return p.Role == RoleAdmin || p.Role == RoleReporter
}
