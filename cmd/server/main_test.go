package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/character-api/internal/config"
	"github.com/iliyamo/character-api/internal/model"
	"github.com/iliyamo/character-api/internal/repository"
)

func TestSeedAdminIsIdempotent(t *testing.T) {
	users := repository.NewUserRepo(repository.NewMemoryStore[string, model.User](), bcrypt.MinCost)
	cfg := config.Config{AdminEmail: "root@b.com", AdminPassword: "hunter22"}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := seedAdmin(ctx, cfg, users); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	u, err := users.FindByEmail(ctx, "root@b.com")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != model.RoleAdmin || !users.VerifyPassword(u, "hunter22") {
		t.Fatalf("unexpected admin %+v", u)
	}
}

func TestSeedAdminNeedsPassword(t *testing.T) {
	users := repository.NewUserRepo(repository.NewMemoryStore[string, model.User](), bcrypt.MinCost)
	if err := seedAdmin(context.Background(), config.Config{AdminEmail: "root@b.com"}, users); err == nil {
		t.Fatalf("expected error without ADMIN_PASSWORD")
	}
	if err := seedAdmin(context.Background(), config.Config{}, users); err != nil {
		t.Fatalf("no admin configured should be a no-op: %v", err)
	}
}

func TestOpenStoresRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	users, chars, closeFn, err := openStores(context.Background(), config.Config{StoreBackend: config.BackendRedis}, rdb)
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if _, ok := users.(*repository.RedisStore[string, model.User]); !ok {
		t.Fatalf("users store is %T", users)
	}
	if _, ok := chars.(*repository.RedisStore[uint64, model.Character]); !ok {
		t.Fatalf("characters store is %T", chars)
	}

	if _, _, _, err := openStores(context.Background(), config.Config{StoreBackend: config.BackendRedis}, nil); err == nil {
		t.Fatalf("redis backend without a client should fail")
	}
}

func TestOpenStoresDefaultsToMemory(t *testing.T) {
	users, _, closeFn, err := openStores(context.Background(), config.Config{StoreBackend: config.BackendMemory}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if _, ok := users.(*repository.MemoryStore[string, model.User]); !ok {
		t.Fatalf("users store is %T", users)
	}
}
