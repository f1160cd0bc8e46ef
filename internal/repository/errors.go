// Package repository holds the stores owned by the service: users, characters
// and revoked tokens.  The sentinel errors below let handlers distinguish
// failure scenarios without knowing which storage backend is in use.
package repository

import "errors"

// ErrNotFound is returned when the requested record does not exist.
// Handlers translate it into a 404 or a generic credential failure.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when an insert hits an existing key, such
// as registering an email twice.  Handlers translate it into a 409.
var ErrAlreadyExists = errors.New("already exists")
