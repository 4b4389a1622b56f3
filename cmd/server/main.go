package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hospital-admin/internal/config"   // Internal config loader
	"github.com/iliyamo/hospital-admin/internal/database" // MySQL open + migrate
	"github.com/iliyamo/hospital-admin/internal/handler"
	"github.com/iliyamo/hospital-admin/internal/logging"
	"github.com/iliyamo/hospital-admin/internal/model"
	"github.com/iliyamo/hospital-admin/internal/queue"
	"github.com/iliyamo/hospital-admin/internal/repository"
	"github.com/iliyamo/hospital-admin/internal/router" // Internal router setup
	publisher "github.com/iliyamo/hospital-admin/internal/service"
	"github.com/iliyamo/hospital-admin/internal/validation"
)

func main() {
	cfg := config.Load() // Load environment config
	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, posts, tokens, closeStore := openStores(ctx, cfg, log)
	defer closeStore()
	seedAdmin(ctx, cfg, users, log)

	rdb := config.NewRedisClient(config.RedisOptionsFromEnv(), log)
	if rdb != nil {
		defer rdb.Close()
	}

	var pub handler.ViewPublisher
	if cfg.RabbitURL != "" {
		pub = publisher.New(cfg.RabbitURL, log)
		go queue.StartViewConsumer(ctx, cfg.RabbitURL, posts, func(err error) bool {
			return errors.Is(err, repository.ErrNotFound)
		}, log)
	}

	v := validation.New()
	e := router.New(router.Deps{
		Cfg:       cfg,
		Log:       log,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		AuthLimit: config.LoadAuthRateLimitConfig(),
		Health:    &handler.HealthHandler{Store: cfg.Store, Users: users, Cache: rdb != nil, Queue: pub != nil},
		Auth:      handler.NewAuthHandler(cfg, users, tokens, v, log),
		Users:     handler.NewUserHandler(users, v, log, cfg.BcryptCost),
		Blog:      handler.NewBlogHandler(posts, v, log, pub),
	})

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "store": cfg.Store}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

// openStores selects the persistence backend.
func openStores(ctx context.Context, cfg config.Config, log *logrus.Logger) (repository.UserStore, repository.BlogStore, repository.TokenStore, func()) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory store; data is lost on exit")
		return repository.NewMemoryUserStore(), repository.NewMemoryBlogStore(), repository.NewMemoryTokenStore(), func() {}
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := database.Migrate(mctx, db); err != nil {
		log.WithError(err).Fatal("database migration failed")
	}
	return repository.NewUserRepo(db), repository.NewBlogRepo(db), repository.NewTokenRepo(db), func() { _ = db.Close() }
}

// seedAdmin creates the first ADMIN account on an empty user table when
// SEED_ADMIN_PASSWORD is set, so the console has someone to log in as.
func seedAdmin(ctx context.Context, cfg config.Config, users repository.UserStore, log *logrus.Logger) {
	if cfg.SeedAdminPass == "" {
		return
	}
	n, err := users.Count(ctx)
	if err != nil {
		log.WithError(err).Fatal("count users failed")
	}
	if n > 0 {
		return
	}
	_, err = users.Create(ctx, model.UserInput{
		Username: cfg.SeedAdminUser,
		Email:    cfg.SeedAdminUser + "@localhost",
		FullName: "Administrator",
		Password: cfg.SeedAdminPass,
		Role:     model.RoleAdmin,
	}, cfg.BcryptCost)
	if err != nil {
		log.WithError(err).Fatal("seed admin failed")
	}
	log.WithField("username", cfg.SeedAdminUser).Info("seeded admin account")
}
