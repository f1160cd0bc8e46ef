package model

// Character is the resource guarded by the role-gated /characters routes.
type Character struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"lastName"`
}
