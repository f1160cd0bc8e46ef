package repository

import (
	"context"
	"sort"

	"github.com/iliyamo/character-api/internal/model"
	"github.com/iliyamo/character-api/internal/utils"
)

// CharacterRepo provides character persistence on top of a Keyed store.
type CharacterRepo struct {
	store Keyed[uint64, model.Character]
}

func NewCharacterRepo(store Keyed[uint64, model.Character]) *CharacterRepo {
	return &CharacterRepo{store: store}
}

// List returns all characters ordered by id.
func (r *CharacterRepo) List(ctx context.Context) ([]model.Character, error) {
	out, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetByID returns the character or ErrNotFound.
func (r *CharacterRepo) GetByID(ctx context.Context, id uint64) (model.Character, error) {
	c, found, err := r.store.Get(ctx, id)
	if err != nil {
		return model.Character{}, err
	}
	if !found {
		return model.Character{}, ErrNotFound
	}
	return c, nil
}

// Create assigns a fresh time-based id and stores c.  Any id set by the
// caller is ignored.
func (r *CharacterRepo) Create(ctx context.Context, c model.Character) (model.Character, error) {
	c.ID = utils.NewID()
	ok, err := r.store.SetIfAbsent(ctx, c.ID, c)
	if err != nil {
		return model.Character{}, err
	}
	if !ok {
		return model.Character{}, ErrAlreadyExists
	}
	return c, nil
}

// Replace overwrites every field of an existing character except its id.
func (r *CharacterRepo) Replace(ctx context.Context, id uint64, c model.Character) (model.Character, error) {
	c.ID = id
	found, err := r.store.Update(ctx, id, func(model.Character) (model.Character, error) {
		return c, nil
	})
	if err != nil {
		return model.Character{}, err
	}
	if !found {
		return model.Character{}, ErrNotFound
	}
	return c, nil
}

// DeleteByID removes the character or returns ErrNotFound.
func (r *CharacterRepo) DeleteByID(ctx context.Context, id uint64) error {
	ok, err := r.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored characters.
func (r *CharacterRepo) Count(ctx context.Context) (int, error) {
	all, err := r.store.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}
