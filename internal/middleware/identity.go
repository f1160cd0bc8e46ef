package middleware

// identity.go defines helpers shared across middleware and handlers for
// reading the authenticated identity out of the Echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/character-api/internal/model"
)

const identityKey = "identity"

// SetIdentity stores id in the context for downstream handlers.
func SetIdentity(c echo.Context, id model.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity attached by JWTAuth or OptionalAuth.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	return id, ok
}

// userID returns the caller's id as a string, or "anon" when no identity
// is attached.
func userID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok && id.UserID != 0 {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "anon"
}
