package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"

	"github.com/shorturl-app/shorturl/internal/models"
	"github.com/shorturl-app/shorturl/internal/service"
	"github.com/shorturl-app/shorturl/pkg/response"
)

type ctxKey int

const principalKey ctxKey = 0

func principalFromContext(ctx context.Context) models.Principal {
	principal, _ := ctx.Value(principalKey).(models.Principal)
	return principal
}

// authenticate resolves the caller identity from either a bearer token or an
// X-API-Key header and stores it in the request context. Authorization stays
// with the services; this middleware only establishes who is calling.
func authenticate(tokens *TokenManager, users UserService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		const op = "api.http.authenticate"

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var principal models.Principal

			switch {
			case r.Header.Get("X-API-Key") != "":
				user, err := users.AuthenticateAPIKey(r.Context(), r.Header.Get("X-API-Key"))
				if err != nil {
					if errors.Is(err, service.ErrInvalidCredentials) {
						render.Status(r, http.StatusUnauthorized)
						render.JSON(w, r, response.UnauthorizedResponse)
						return
					}

					httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

					render.Status(r, http.StatusInternalServerError)
					render.JSON(w, r, response.ServerErrorResponse)
					return
				}

				principal = models.Principal{UserID: user.ID, Role: user.Role}
			case strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "):
				token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

				p, err := tokens.Parse(token)
				if err != nil {
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, response.UnauthorizedResponse)
					return
				}

				principal = p
			default:
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.UnauthorizedResponse)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clientIP returns the request address without the port. The RealIP
// middleware runs earlier, so RemoteAddr already reflects forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
