package model

// Role is the authorization role carried by a user and by its access tokens.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents an account record as kept by the credential store.  The
// json tags describe the storage encoding used by the Redis and MySQL
// backends; handlers never serialize a User directly and use their own
// response types instead.
//
// Fields:
//  ID           – numeric identifier assigned at creation.
//  Email        – unique natural key, matched exactly.
//  PasswordHash – bcrypt hash of the password.
//  Role         – ADMIN or USER.
//  RefreshToken – the single outstanding refresh token, empty when logged out.
type User struct {
	ID           uint64 `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Role         Role   `json:"role"`
	RefreshToken string `json:"refreshToken,omitempty"`
}
