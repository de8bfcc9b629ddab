package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	otellib "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/dispatch"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/judge"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/judging"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/leaderboard"
	servermiddleware "github.com/stegosaurus21/minicms-sub001/cmd/server/internal/middleware"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/migrations"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/models"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/routes"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/routes/admin"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/routes/callback"
	routesv1 "github.com/stegosaurus21/minicms-sub001/cmd/server/internal/routes/v1"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/store"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/taskrunner"
	"github.com/stegosaurus21/minicms-sub001/cmd/server/internal/tracker"
	"github.com/stegosaurus21/minicms-sub001/internal/config"
	"github.com/stegosaurus21/minicms-sub001/internal/database"
	"github.com/stegosaurus21/minicms-sub001/internal/logger"
	"github.com/stegosaurus21/minicms-sub001/internal/otel"
	"github.com/stegosaurus21/minicms-sub001/internal/queue"
	"github.com/stegosaurus21/minicms-sub001/internal/storage"
)

const name string = "github.com/stegosaurus21/minicms-sub001/server"

var tracer = otellib.Tracer(name)

type server struct {
	router       *echo.Echo
	config       *config.Config
	db           *gorm.DB
	rdb          redis.UniversalClient
	taskRunner   *taskrunner.Client
	otelShutdown func(context.Context) error
}

// Everything the server needs besides config and process plumbing. Tests build one around
// containers and fakes.
type deps struct {
	db      *gorm.DB
	rdb     redis.UniversalClient
	judge   judge.Client
	storage *storage.Storage
	queue   queue.Queuer
}

// Wires the judging engine and its routes onto a new router
func buildRouter(cfg *config.Config, d deps, taskRunner *taskrunner.Client) (*echo.Echo, error) {
	st := store.NewGormStore(d.db)
	completions := tracker.New()

	board := leaderboard.NewCache(leaderboard.NewBuilder(st), d.rdb, cfg.Leaderboard.CacheTTL)

	receiver := judging.NewReceiver(st, completions, cfg.Judge.CallbackSecret)

	dispatcher, err := dispatch.New(dispatch.Deps{
		Store:       st,
		Judge:       d.judge,
		Tracker:     completions,
		TestData:    d.storage.TestData,
		Archive:     d.storage.Archive,
		Queue:       d.queue,
		Leaderboard: board,
		Resets:      receiver,
		Tasks:       taskRunner,
	}, dispatch.Config{
		PublicURL:      cfg.Judge.PublicURL,
		CallbackSecret: cfg.Judge.CallbackSecret,
		MaxParallel:    cfg.Judge.MaxParallel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	judgingService := judging.NewService(st, completions, dispatcher, receiver, board)

	e, err := routes.BuildEcho(logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("error building router: %w", err)
	}

	middlewareHandler := servermiddleware.Handler{DB: d.db}

	routesv1.NewHandler(st, dispatcher, judgingService, board, d.rdb, cfg.RateLimit).
		AddRoutes(e, &middlewareHandler)
	callback.CreateHandler(receiver).AddRoutes(e)
	admin.Create(judgingService).AddRoutes(e, &middlewareHandler)

	return e, nil
}

func initServer(ctx context.Context) (*server, error) {
	server := new(server)

	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize server config: %w", err)
	}
	server.config = cfg

	shutdownOTel, err := otel.SetupOTelSDK(ctx, "minicms-server", cfg.Logging.UseOTLP)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OTEL SDK: %w", err)
	}
	defer func() {
		// Something failed to initialize, make sure everything gets flushed to the server
		if server.otelShutdown == nil {
			otelShutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				time.Second*time.Duration(cfg.GracefulShutdownSecs),
			)
			defer cancel()

			if err = shutdownOTel(otelShutdownCtx); err != nil {
				logger.Logger.Error("failed to flush otel data", "error", err)
			}
		}
	}()

	ctx, span := tracer.Start(ctx, "initServer")
	defer span.End()

	logger.LogLevel.Set(slog.Level(cfg.Logging.App.Level))

	db, err := database.Open(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open database")
		return nil, err
	}

	err = migrations.Up(ctx, db)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to preform database migrations")
		return nil, fmt.Errorf("failed to perform database migrations: %w", err)
	}

	span.AddEvent("migrated database to latest version")

	if cfg.Admin != nil {
		if _, err = models.UpsertUser(ctx, db, cfg.Admin.Username, cfg.Admin.Token, true); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to load admin user from config")
			return nil, fmt.Errorf("failed to load admin user from config: %w", err)
		}
		span.AddEvent("loaded admin user from config")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	span.AddEvent("initialized redis client")

	blobs, err := storage.New(ctx, cfg, rdb)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize storage")
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	span.AddEvent("initialized blob storage")

	scoreQueue, err := storage.NewScoreQueue(cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize score queue")
		return nil, fmt.Errorf("failed to initialize score queue: %w", err)
	}

	judgeClient, err := judge.NewHTTPClient(
		cfg.Judge.URL,
		cfg.Judge.AuthToken,
		cfg.Judge.Timeout,
		cfg.Judge.RetryMax,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct judge client")
		return nil, fmt.Errorf("failed to construct judge client: %w", err)
	}

	span.AddEvent("initialized judge client")

	taskRunnerClient := taskrunner.Create()

	e, err := buildRouter(cfg, deps{
		db:      db,
		rdb:     rdb,
		judge:   judgeClient,
		storage: blobs,
		queue:   scoreQueue,
	}, taskRunnerClient)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "error building router")
		return nil, err
	}

	span.AddEvent("created echo router")

	server.otelShutdown = shutdownOTel
	server.router = e
	server.db = db
	server.rdb = rdb
	server.taskRunner = taskRunnerClient

	return server, nil
}

func (s *server) Start(_ context.Context) error {
	logger.Logger.Info("Starting services...")

	err := s.router.Start(s.config.ListenAddress)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *server) Shutdown() error {
	var errs error

	ctx, cancelTimeout := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(s.config.GracefulShutdownSecs),
	)
	defer cancelTimeout()

	if err := s.router.Shutdown(ctx); err != nil {
		errs = errors.Join(errs, err)
	}

	if err := s.taskRunner.Shutdown(ctx); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to shutdown taskRunner gracefully: %w", err))
	}

	if err := s.rdb.Close(); err != nil {
		errs = errors.Join(errs, err)
	}

	if s.otelShutdown != nil {
		errs = errors.Join(errs, s.otelShutdown(ctx))
	}

	return errs
}

func main() {
	ctx, cancelSignal := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)

	logger.InitSlog()

	server, err := initServer(ctx)
	if err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	errch := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Got shutdown signal!")
		errch <- server.Shutdown()
		close(errch)
	}()

	if err := server.Start(ctx); err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	if err := <-errch; err != nil {
		logger.Logger.Error("Error shutting down server", "error", err)
	}

	cancelSignal()
}
