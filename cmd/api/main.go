// @title        Messagely API
// @version      1.0
// @description  Direct messages between registered users.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/messagely/messagely-api/internal/api"
	"github.com/messagely/messagely-api/internal/core/ports"
	"github.com/messagely/messagely-api/internal/core/service"
	"github.com/messagely/messagely-api/internal/infrastructure/db/memory"
	mongostore "github.com/messagely/messagely-api/internal/infrastructure/db/mongo"
	"github.com/messagely/messagely-api/internal/infrastructure/db/postgres"
	redisstore "github.com/messagely/messagely-api/internal/infrastructure/db/redis"
	"github.com/messagely/messagely-api/internal/infrastructure/http/handlers"
	"github.com/messagely/messagely-api/internal/infrastructure/queue"
	"github.com/messagely/messagely-api/internal/pkg/config"
	"github.com/messagely/messagely-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Pretty: true})
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Primary store ---
	var (
		userRepo    ports.UserRepository
		messageRepo ports.MessageRepository
		probes      []handlers.Probe
	)
	switch cfg.Store {
	case config.StoreMemory:
		users := memory.NewUserRepository()
		userRepo, messageRepo = users, memory.NewMessageRepository(users)
		log.Warn().Msg("STORE=memory, data is lost on restart")
	default:
		db, err := postgres.Connect(ctx, postgres.Config{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
		})
		if err != nil {
			return err
		}
		defer db.Close()

		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(ctx, db.DB); err != nil {
				return err
			}
			log.Info().Msg("database migrations applied")
		}
		userRepo, messageRepo = postgres.NewUserRepository(db), postgres.NewMessageRepository(db)
		probes = append(probes, handlers.PostgresProbe(db))
	}

	// --- Idempotency cache (optional) ---
	var idem ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		idem = redisstore.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
		probes = append(probes, handlers.RedisProbe(rdb))
	} else {
		log.Warn().Msg("REDIS_ADDR not set, idempotency keys are ignored")
	}

	// --- Audit trail (optional) ---
	var auditSink ports.AuditSink = service.NopAuditSink{}
	if cfg.Mongo.URI != "" {
		mdb, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := mongostore.Disconnect(dctx, mdb); err != nil {
				log.Error().Err(err).Msg("mongo disconnect")
			}
		}()

		auditRepo := mongostore.NewAuditRepository(mdb)
		if err := auditRepo.EnsureIndexes(ctx); err != nil {
			return err
		}
		dispatcher := queue.NewDispatcher(cfg.Audit.Workers,
			service.NewAuditService(auditRepo, logger.Component("audit")),
			logger.Component("audit_dispatcher"))
		dispatcher.Start()
		// Runs after the HTTP server has stopped and before Mongo disconnects.
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := dispatcher.Close(dctx); err != nil {
				log.Error().Err(err).Msg("audit drain")
			}
		}()
		auditSink = dispatcher
		probes = append(probes, handlers.MongoProbe(mdb))
	} else {
		log.Warn().Msg("MONGO_URI not set, audit trail disabled")
	}

	// --- Services ---
	userService := service.NewUserService(userRepo, messageRepo, auditSink, cfg.BcryptCost, logger.Component("users"))
	messageService := service.NewMessageService(messageRepo, userRepo, idem, auditSink, logger.Component("messages"))
	authService := service.NewAuthService(userService, auditSink, cfg.JWTSecret, cfg.TokenTTL)

	e := api.NewRouter(api.RouterConfig{
		AuthService:    authService,
		UserService:    userService,
		MessageService: messageService,
		JWTSecret:      cfg.JWTSecret,
		Logger:         logger.Component("http"),
		Probes:         probes,
		Registerer:     prometheus.DefaultRegisterer,
		Gatherer:       prometheus.DefaultGatherer,
		Swagger:        cfg.IsDevelopment(),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
