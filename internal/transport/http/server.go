package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quillpress/internal/auth"
	"quillpress/internal/cache"
	"quillpress/internal/config"
	"quillpress/internal/database"
	"quillpress/internal/handler"
	"quillpress/internal/logger"
	"quillpress/internal/queue"
	"quillpress/internal/redis"
	"quillpress/internal/repository"
	"quillpress/internal/repository/memory"
	"quillpress/internal/service"
	"quillpress/internal/worker"
)

// streamMaxLen caps the comment event stream (approximate trimming).
const streamMaxLen = 100000

// Run loads configuration, wires every dependency and serves HTTP until
// SIGINT or SIGTERM.
func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.For("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	codec, err := auth.NewCodec(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	// 2. Storage
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Optional Redis: event stream, moderation queue, workers
	var (
		publisher queue.Publisher
		modQueue  cache.ModerationQueue
	)
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()

		publisher = queue.NewPublisher(rdb.Client, streamMaxLen)
		modQueue = cache.NewModerationQueue(rdb.Client)

		manager := worker.NewManager(
			queue.NewConsumer(rdb.Client),
			worker.NewHandler(modQueue, store.Comments),
			worker.ManagerConfig{
				WorkerCount:  cfg.WorkerConsumers,
				BatchSize:    cfg.WorkerBatchSize,
				BlockTimeout: cfg.WorkerBlockTimeout,
			},
		)
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
		defer manager.Stop()
	} else {
		log.Warn().Msg("REDIS_URL not set: comment events and moderation queue cache disabled")
	}

	// 4. Optional object storage for avatars
	var objects service.ObjectStore
	if cfg.MediaEnabled() {
		r2, err := service.NewR2Store(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to configure R2: %w", err)
		}
		objects = r2
	} else {
		log.Warn().Msg("R2 not configured: avatar uploads disabled")
	}

	// 5. Services and handlers
	authService := service.NewAuthService(store.Users, codec)
	userService := service.NewUserService(store.Users)
	postService := service.NewPostService(store.Posts)
	commentService := service.NewCommentService(store.Comments, store.Posts, store.Users, publisher)
	moderationService := service.NewModerationService(store.Comments, store.Moderation, store.Users, modQueue, publisher)
	mediaService := service.NewMediaService(objects, store.Users)

	router := NewRouter(RouterConfig{
		AuthHandler:       handler.NewAuthHandler(authService),
		UserHandler:       handler.NewUserHandler(userService),
		PostHandler:       handler.NewPostHandler(postService),
		CommentHandler:    handler.NewCommentHandler(commentService),
		ModerationHandler: handler.NewModerationHandler(moderationService, commentService),
		MediaHandler:      handler.NewMediaHandler(mediaService),
		Resolver:          auth.NewResolver(codec),
		Moderators:        moderationService,
	})

	// 6. Serve until signalled
	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// openStore returns the configured backend and its cleanup function.
func openStore(cfg *config.Config) (*repository.Store, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.For("server").Warn().Msg("using in-memory store: data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repository.NewPostgresStore(db), func() { _ = db.Close() }, nil
}
