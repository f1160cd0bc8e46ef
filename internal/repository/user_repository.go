package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/iliyamo/character-api/internal/model"
	"github.com/iliyamo/character-api/internal/utils"
)

// UserRepo is the credential store.  Users are keyed by their exact email.
type UserRepo struct {
	store Keyed[string, model.User]
	cost  int

	dummyOnce sync.Once
	dummyHash string
}

// NewUserRepo wraps store; cost is the bcrypt cost used when hashing.
func NewUserRepo(store Keyed[string, model.User], cost int) *UserRepo {
	return &UserRepo{store: store, cost: cost}
}

// Register creates a USER account.
func (r *UserRepo) Register(ctx context.Context, email, password string) (model.User, error) {
	return r.Create(ctx, email, password, model.RoleUser)
}

// Create hashes password and inserts the user.  Hashing happens before the
// store is touched; the insert itself is a single set-if-absent, so two
// concurrent registrations of one email leave exactly one record.
func (r *UserRepo) Create(ctx context.Context, email, password string, role model.Role) (model.User, error) {
	if _, found, err := r.store.Get(ctx, email); err != nil {
		return model.User{}, err
	} else if found {
		return model.User{}, ErrAlreadyExists
	}

	hash, err := utils.HashPassword(password, r.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{
		ID:           utils.NewID(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	ok, err := r.store.SetIfAbsent(ctx, email, u)
	if err != nil {
		return model.User{}, err
	}
	if !ok {
		return model.User{}, ErrAlreadyExists
	}
	return u, nil
}

// FindByEmail fetches a user by exact email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	u, found, err := r.store.Get(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	if !found {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

// VerifyPassword checks password against the user's stored hash.
func (r *UserRepo) VerifyPassword(u model.User, password string) bool {
	return utils.VerifyPassword(u.PasswordHash, password)
}

// SetRefreshToken replaces the user's refresh token; an empty token clears
// it.  It reports false when no user has that email.
func (r *UserRepo) SetRefreshToken(ctx context.Context, email, token string) (bool, error) {
	return r.store.Update(ctx, email, func(u model.User) (model.User, error) {
		u.RefreshToken = token
		return u, nil
	})
}

// BurnPasswordCheck runs one bcrypt comparison against a throwaway hash made
// with the repo's own cost.  Login calls it for unknown emails so that path
// costs the same as a wrong password.
func (r *UserRepo) BurnPasswordCheck(password string) {
	r.dummyOnce.Do(func() {
		r.dummyHash, _ = utils.HashPassword("not-a-real-password", r.cost)
	})
	_ = utils.VerifyPassword(r.dummyHash, password)
}
