package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/character-api/internal/apperr"
	"github.com/iliyamo/character-api/internal/metrics"
	"github.com/iliyamo/character-api/internal/model"
)

// RoleSet is an allowed-role set built once per route.
type RoleSet map[model.Role]struct{}

// NewRoleSet builds a set from roles.
func NewRoleSet(roles ...model.Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// RoleAllowed reports whether the identity's role is in allowed.
func RoleAllowed(id model.Identity, allowed RoleSet) bool {
	_, ok := allowed[id.Role]
	return ok
}

var errRoleWithoutAuth = errors.New("role gate reached without an authenticated identity")

// RequireRole returns a middleware that lets the request through only when
// the authenticated identity has one of roles.  It must run after JWTAuth;
// a missing identity means the route was wired wrong and is reported as an
// internal error rather than a client failure.
func RequireRole(m *metrics.Metrics, roles ...model.Role) echo.MiddlewareFunc {
	allowed := NewRoleSet(roles...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return apperr.Internal(errRoleWithoutAuth)
			}
			if !RoleAllowed(id, allowed) {
				m.RoleOutcome(metrics.OutcomeRoleForbidden)
				return apperr.ErrRoleForbidden
			}
			m.RoleOutcome(metrics.OutcomeOK)
			return next(c)
		}
	}
}
