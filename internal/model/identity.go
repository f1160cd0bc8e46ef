package model

import "time"

// Identity is the authenticated caller decoded from a verified access token.
// The authentication middleware stores it in the request context and the
// role middleware and handlers read it back.
type Identity struct {
	UserID    uint64
	Email     string
	Role      Role
	ExpiresAt time.Time
}
