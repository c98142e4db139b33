package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/printdesk/printdesk/internal/platform/httpx"
	"github.com/printdesk/printdesk/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	// Resolve returns the signed-in principal for the request, nil when anonymous.
	Resolve func(r *http.Request) Principal
	Logger  *slog.Logger
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return m.require(normalized, func(role Role) bool {
		for _, p := range normalized {
			if HasPermission(role, p) {
				return true
			}
		}
		return false
	})
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return m.require(normalized, func(role Role) bool {
		for _, p := range normalized {
			if !HasPermission(role, p) {
				return false
			}
		}
		return true
	})
}

func (m Middleware) require(perms []string, granted func(Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			var principal Principal
			if m.Resolve != nil {
				principal = m.Resolve(r)
			}
			if principal == nil {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			if granted(principal.RoleName()) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("rbac denied",
					slog.String("role", string(principal.RoleName())),
					slog.String("path", r.URL.Path),
					slog.Any("required", perms),
				)
			}
			httpx.RespondError(w, shared.ErrForbidden)
		})
	}
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, ok := unique[p]; ok {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}
