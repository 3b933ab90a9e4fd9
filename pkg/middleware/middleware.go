// Package middleware defines the middleware shape shared by the handler
// chain and its subpackages.
package middleware

import "net/http"

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(next http.Handler) http.Handler
