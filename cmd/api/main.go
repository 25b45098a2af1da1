package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-desk/internal/api/http"
	"github.com/spec-kit/ticket-desk/internal/api/http/handlers"
	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/config"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/observability"
	"github.com/spec-kit/ticket-desk/internal/persistence"
	"github.com/spec-kit/ticket-desk/internal/repository"
	"github.com/spec-kit/ticket-desk/internal/repository/memory"
	"github.com/spec-kit/ticket-desk/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var store repository.Store
	health := map[string]handlers.Pinger{"postgres": nil, "redis": nil}
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewStore(pool)
		health["postgres"] = pg
	} else {
		store = memory.NewStore()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	health["redis"] = redis

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	publisher := events.NewRedisPublisher(redis.Client, cfg.Redis.EventsChannel)
	service.NewNotificationService(dispatcher, publisher, logger).RegisterHandlers()

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	activityService := service.NewActivityService(service.ActivityDependencies{Store: store, Logger: logger})
	ticketDeps := service.TicketDependencies{
		Store:      store,
		Activity:   activityService,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	}
	ticketService := service.NewTicketService(ticketDeps)
	assignmentService := service.NewAssignmentService(ticketDeps)
	commentService := service.NewCommentService(ticketDeps)
	tagService := service.NewTagService(store)
	userService := service.NewUserService(store, logger)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Store:   store,
		Tokens:  tokens,
		Revoker: redis,
		Logger:  logger,
	})
	authMiddleware := auth.NewAuthMiddleware(tokens, store.Users(), redis, logger)

	app := httptransport.NewApp(httptransport.AppOptions{
		Name:           cfg.App.Name,
		RequestTimeout: cfg.App.RequestTimeout(),
		AllowOrigins:   cfg.App.CORSAllowOrigins,
		Logger:         logger,
		Metrics:        metrics,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, health),
		Users:          handlers.NewUsersHandler(authService, userService),
		Tickets:        handlers.NewTicketsHandler(ticketService, assignmentService),
		Assignments:    handlers.NewAssignmentsHandler(assignmentService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Activity:       handlers.NewActivityHandler(activityService),
		Tags:           handlers.NewTagsHandler(tagService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
