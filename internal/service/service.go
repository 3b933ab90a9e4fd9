// Package service implements the business rules of the shortener: short code
// allocation, redirect resolution, ownership checks and user management.
// Services speak to storage through narrow repository interfaces and report
// failures through the sentinel errors below.
package service

import "errors"

var (
	// ErrInvalidTargetURL is returned when a target URL is empty, relative,
	// uses a scheme other than http or https, or exceeds the length limit.
	ErrInvalidTargetURL = errors.New("invalid target url")

	// ErrInvalidShortCode is returned when a requested short code does not
	// match the short code grammar.
	ErrInvalidShortCode = errors.New("invalid short code")

	// ErrReservedShortCode is returned when a requested short code collides
	// with an application route.
	ErrReservedShortCode = errors.New("short code is reserved")

	// ErrShortCodeTaken is returned when a requested short code is already
	// in use. Custom codes are never retried.
	ErrShortCodeTaken = errors.New("short code already taken")

	// ErrAllocationExhausted is returned when random code generation fails
	// to find a free code within the retry budget.
	ErrAllocationExhausted = errors.New("short code allocation exhausted")

	// ErrStoreUnavailable is returned when the store cannot be reached. It
	// wraps the underlying error so callers can distinguish infrastructure
	// failures from absent records.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrPermissionDenied is returned when the acting user is not allowed
	// to perform the operation on the target resource.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidCredentials is returned when authentication fails. It does
	// not reveal whether the account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrLastAdmin is returned when an operation would leave the system
	// without an active admin.
	ErrLastAdmin = errors.New("cannot remove the last admin")
)
