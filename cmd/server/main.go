package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	glog "github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/character-api/internal/config"
	"github.com/iliyamo/character-api/internal/database"
	"github.com/iliyamo/character-api/internal/handler"
	"github.com/iliyamo/character-api/internal/metrics"
	"github.com/iliyamo/character-api/internal/middleware"
	"github.com/iliyamo/character-api/internal/model"
	"github.com/iliyamo/character-api/internal/queue"
	"github.com/iliyamo/character-api/internal/repository"
	"github.com/iliyamo/character-api/internal/router"
	"github.com/iliyamo/character-api/internal/service"
	"github.com/iliyamo/character-api/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.UsingDefaultSecret {
		log.Printf("WARNING: JWT_SECRET not set, signing tokens with the built-in development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional unless it backs the stores; the rate limiter turns
	// itself off without it.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	userStore, charStore, closeStores, err := openStores(ctx, cfg, rdb)
	if err != nil {
		log.Fatalf("stores: %v", err)
	}
	defer closeStores()

	users := repository.NewUserRepo(userStore, cfg.BcryptCost)
	chars := repository.NewCharacterRepo(charStore)
	revoked := repository.NewRevocationRegistry()
	go revoked.RunJanitor(ctx, cfg.PruneInterval)

	if err := seedAdmin(ctx, cfg, users); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	issuer, err := utils.NewTokenIssuer(cfg.JWTSecret, utils.WithTTLs(cfg.AccessTTL, cfg.RefreshTTL))
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = service.NewAMQPPublisher(cfg.AMQPURL)
		log.Printf("audit events enabled (queue=%s)", queue.AuditQueueName)
	}

	m := metrics.New()
	e := router.New(router.Deps{
		Auth:       handler.NewAuthHandler(users, issuer, revoked, events),
		Characters: handler.NewCharacterHandler(chars, events),
		Gate:       middleware.AuthConfig{Verifier: issuer, Revoked: revoked, Metrics: m},
		Metrics:    m,
		RateLimit:  middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	})
	if cfg.IsProduction() {
		e.Logger.SetLevel(glog.INFO)
	} else {
		e.Logger.SetLevel(glog.DEBUG)
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreBackend)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// openStores builds the user and character stores for the configured
// backend.  The returned func releases whatever the backend opened.
func openStores(ctx context.Context, cfg config.Config, rdb *redis.Client) (
	repository.Keyed[string, model.User],
	repository.Keyed[uint64, model.Character],
	func(),
	error,
) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		if rdb == nil {
			return nil, nil, nil, errors.New("STORE_BACKEND=redis but redis is unreachable")
		}
		return repository.NewRedisStore[string, model.User](rdb, "users"),
			repository.NewRedisStore[uint64, model.Character](rdb, "characters"),
			func() {}, nil

	case config.BackendMySQL:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		return repository.NewMySQLStore[string, model.User](db, "users"),
			repository.NewMySQLStore[uint64, model.Character](db, "characters"),
			closeDB(db), nil
	}
	return repository.NewMemoryStore[string, model.User](),
		repository.NewMemoryStore[uint64, model.Character](),
		func() {}, nil
}

func closeDB(db *sql.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Printf("db close: %v", err)
		}
	}
}

// seedAdmin creates the ADMIN account named by ADMIN_EMAIL once.
func seedAdmin(ctx context.Context, cfg config.Config, users *repository.UserRepo) error {
	if cfg.AdminEmail == "" {
		return nil
	}
	if cfg.AdminPassword == "" {
		return fmt.Errorf("ADMIN_EMAIL=%s set without ADMIN_PASSWORD", cfg.AdminEmail)
	}
	u, err := users.Create(ctx, cfg.AdminEmail, cfg.AdminPassword, model.RoleAdmin)
	switch {
	case errors.Is(err, repository.ErrAlreadyExists):
		log.Printf("admin %s already present", cfg.AdminEmail)
		return nil
	case err != nil:
		return err
	}
	log.Printf("seeded admin %s (id=%d)", u.Email, u.ID)
	return nil
}
