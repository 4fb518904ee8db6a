package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/user-reports/internal/apperror"
	"github.com/sakif/user-reports/internal/model"
)

// TokenCookie is the cookie that carries the access token.
const TokenCookie = "token"

type contextKey string

const principalKey contextKey = "principal"

// RequireAuth rejects requests without a valid token with 401 and stores the
// caller's Principal in the request context otherwise.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := extractPrincipal(r, tokens)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole allows only callers with the given role. It must run after
// RequireAuth.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}
			if p.Role != role {
				writeAuthError(w, http.StatusForbidden, "forbidden", "requires role "+string(role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnerOr allows the user whose ID is in the {param} URL segment, and
// callers with the given role. It must run after RequireAuth. IDs that do not
// parse are passed on for the handler to reject.
func RequireOwnerOr(role model.Role, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}
			if p.Role == role {
				next.ServeHTTP(w, r)
				return
			}
			id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
			if err == nil && id != p.UserID {
				writeAuthError(w, http.StatusForbidden, "forbidden", "not allowed to act for another user")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserLookup loads an account by ID.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// CurrentRole replaces the role carried by the token with the one stored for
// the account, so a demotion takes effect before the token expires. Callers
// whose account is gone get 401. It must run after RequireAuth.
func CurrentRole(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}
			user, err := users.GetByID(r.Context(), p.UserID)
			if errors.Is(err, apperror.ErrNotFound) {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "account no longer exists")
				return
			}
			if err != nil {
				writeAuthError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
				return
			}
			p.Role = user.Role
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the caller set by RequireAuth, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok && p.UserID != 0
}

// extractPrincipal reads the token from the cookie, falling back to an
// "Authorization: Bearer" header for non-browser clients.
func extractPrincipal(r *http.Request, tokens *TokenService) (Principal, error) {
	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return tokens.Validate(cookie.Value)
	}

	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return tokens.Validate(strings.TrimSpace(token))
		}
	}

	return Principal{}, http.ErrNoCookie
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + code + `","message":"` + message + `"}` + "\n"))
}
