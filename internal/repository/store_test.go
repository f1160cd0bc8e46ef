package repository

import (
	"context"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/character-api/internal/model"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return rdb
}

// exerciseKeyed runs the same contract checks against any backend.
func exerciseKeyed(t *testing.T, s Keyed[uint64, model.Character]) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := s.Get(ctx, 1); err != nil || found {
		t.Fatalf("Get on empty store: found=%v err=%v", found, err)
	}

	ok, err := s.SetIfAbsent(ctx, 1, model.Character{ID: 1, Name: "Aragorn", LastName: "Elessar"})
	if err != nil || !ok {
		t.Fatalf("first SetIfAbsent: ok=%v err=%v", ok, err)
	}
	ok, err = s.SetIfAbsent(ctx, 1, model.Character{ID: 1, Name: "Boromir", LastName: "Denethor"})
	if err != nil || ok {
		t.Fatalf("second SetIfAbsent should not insert: ok=%v err=%v", ok, err)
	}
	got, found, err := s.Get(ctx, 1)
	if err != nil || !found || got.Name != "Aragorn" {
		t.Fatalf("Get after SetIfAbsent: %+v found=%v err=%v", got, found, err)
	}

	found, err = s.Update(ctx, 1, func(c model.Character) (model.Character, error) {
		c.Name = "Strider"
		return c, nil
	})
	if err != nil || !found {
		t.Fatalf("Update: found=%v err=%v", found, err)
	}
	if got, _, _ := s.Get(ctx, 1); got.Name != "Strider" {
		t.Fatalf("Update not applied: %+v", got)
	}

	called := false
	found, err = s.Update(ctx, 99, func(c model.Character) (model.Character, error) {
		called = true
		return c, nil
	})
	if err != nil || found || called {
		t.Fatalf("Update on missing key: found=%v called=%v err=%v", found, called, err)
	}

	if err := s.Set(ctx, 2, model.Character{ID: 2, Name: "Legolas", LastName: "Greenleaf"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	all, err := s.List(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("List: %v err=%v", all, err)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if all[0].ID != 1 || all[1].ID != 2 {
		t.Fatalf("unexpected list contents %+v", all)
	}

	deleted, err := s.Delete(ctx, 2)
	if err != nil || !deleted {
		t.Fatalf("Delete existing: deleted=%v err=%v", deleted, err)
	}
	deleted, err = s.Delete(ctx, 2)
	if err != nil || deleted {
		t.Fatalf("Delete missing: deleted=%v err=%v", deleted, err)
	}
}

func TestMemoryStoreContract(t *testing.T) {
	exerciseKeyed(t, NewMemoryStore[uint64, model.Character]())
}

func TestRedisStoreContract(t *testing.T) {
	exerciseKeyed(t, NewRedisStore[uint64, model.Character](newTestRedis(t), "characters"))
}

func TestRedisStoreUsesOneHash(t *testing.T) {
	rdb := newTestRedis(t)
	s := NewRedisStore[string, model.User](rdb, "users")
	ctx := context.Background()
	if err := s.Set(ctx, "a@b.com", model.User{ID: 1, Email: "a@b.com"}); err != nil {
		t.Fatal(err)
	}
	n, err := rdb.HLen(ctx, "users").Result()
	if err != nil || n != 1 {
		t.Fatalf("expected one field in users hash, got %d err=%v", n, err)
	}
}
