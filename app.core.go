package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger     *zap.Logger
	config     *Config
	server     *http.Server
	cleanups   []func() error
	background []func(context.Context) error
}

// storageSetup gathers the primary storage built from the configured engine
// along with its replication queue, its background workers and its closers.
type storageSetup struct {
	storage BookStorage
	queue   Queuer
	workers []func(context.Context) error
	closers []io.Closer
}

// setupStorage connects to the configured storage engine. With redis as
// primary engine, mutations are replicated into the boltdb file through
// redis lists.
func setupStorage(logger *zap.Logger, config *Config) (*storageSetup, error) {
	setup := &storageSetup{}
	switch config.Storage.Engine {
	case EngineRedis:
		redisClient, err := GetRedisClient(config)
		if err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		setup.closers = append(setup.closers, redisClient)
		setup.storage = NewRedisBookStorage(logger, redisClient)
		setup.queue = NewRedisQueue(redisClient)

		if len(config.BoltDB.FilePath) != 0 && len(config.BoltDB.BucketName) != 0 {
			boltDBClient, err := GetBoltDBClient(config)
			if err != nil {
				_ = redisClient.Close()
				return nil, fmt.Errorf("failed to connect to boltDB server: %s", err)
			}
			replica := NewBoltBookStorage(logger, &config.BoltDB, boltDBClient)
			setup.closers = append(setup.closers, replica)
			consumer := NewBoltDBConsumer(logger, setup.queue, replica)
			setup.workers = append(setup.workers, func(ctx context.Context) error {
				return consumer.Consume(ctx, CreateQueue, UpdateQueue, DeleteQueue)
			})
		} else {
			logger.Warn("boltdb replica not configured. mutations will not be replicated.")
			setup.queue = noopQueue{}
		}

	case EngineBolt:
		boltDBClient, err := GetBoltDBClient(config)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to boltDB server: %s", err)
		}
		storage := NewBoltBookStorage(logger, &config.BoltDB, boltDBClient)
		setup.closers = append(setup.closers, storage)
		setup.storage = storage

	case EngineBadger:
		badgerClient, err := GetBadgerDBClient(config)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger database: %s", err)
		}
		storage := NewBadgerBookStorage(logger, badgerClient)
		setup.closers = append(setup.closers, storage)
		setup.storage = storage

	default:
		return nil, fmt.Errorf("unsupported storage engine %q", config.Storage.Engine)
	}

	if config.Storage.Breaker.Enable {
		setup.storage = NewBreakerBookStorage(logger, &config.Storage.Breaker, setup.storage)
	}
	return setup, nil
}

// NewApp provides an instance of App.
func NewApp() (AppProvider, error) {
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	// ensure the logs folder exists and Setup the logging module.
	err = os.MkdirAll(config.LogFolder, 0o700)
	if err != nil {
		return nil, fmt.Errorf("failed to create logging folder: %s", err)
	}
	clock := NewTickClock(NewClock(config.IsProduction))
	logWriter := NewRSyncWriter(config, clock)
	logger, flusher := SetupLogging(config, logWriter, clock)

	setup, err := setupStorage(logger, config)
	if err != nil {
		_ = flusher()
		_ = logWriter.Close()
		return nil, err
	}

	idsHandler := NewIDsHandler()
	bookService := NewBookService(logger, config, clock, idsHandler, nil, setup.storage, setup.queue)
	apiService := NewAPIHandler(
		logger,
		config,
		&Statistics{
			version:   config.GitTag,
			container: IsAppRunningInDocker(),
			started:   clock.Now(),
			runtime:   runtime.Version(),
			platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock,
		idsHandler,
		bookService,
	)

	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		apiService.stats.version = config.GitCommit
	}

	// Build the map of middlewares stacks.
	middlewaresPublic, middlewaresOps := apiService.MiddlewaresStacks()

	// Configure the endpoints with their handlers and middlewares.
	router := apiService.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			ops:    middlewaresOps.Chain,
		},
	)

	// Wrap the router with the default http timeout handler when the
	// request timeout is set. It acts as a safety net over the handlers.
	var handler http.Handler = router
	if config.Server.RequestTimeout > 0 {
		handler = http.TimeoutHandler(
			router,
			config.Server.RequestTimeout+config.Server.RequestTimeout/2,
			"Timeout. Processing taking too long. Please reach out to support.")
	}

	// Build the api server definition.
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler:        handler,
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
		ConnContext:    SaveConnInContext,
	}

	cleanups := []func() error{}
	for _, c := range setup.closers {
		cleanups = append(cleanups, c.Close)
	}
	cleanups = append(cleanups, flusher, logWriter.Close)

	background := append([]func(context.Context) error{}, setup.workers...)
	if config.RateLimit.Enable {
		background = append(background, apiService.limiter.Cleanup)
	}

	return &App{
		logger:     logger,
		config:     config,
		server:     srv,
		cleanups:   cleanups,
		background: background,
	}, nil
}

// Run starts the api web server and a goroutine which is responsible to stop it.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	for _, work := range app.background {
		work := work
		g.Go(func() error {
			return work(gCtx)
		})
	}
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions in order. The
// logger is flushed and closed last.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		if err := f(); err != nil {
			fmt.Println("app: cleanup failed:", err)
		}
	}
}

// Serve starts the api web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
			zap.String("storage.engine", app.config.Storage.Engine),
		)
		err := app.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// It states the reason of its call. We proceed with a brutal shutdown if the
// the graceful did not complete successfully. We explicitly return `nil` to
// allow the errorgroup catches only the `Serve` method result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch {
		case err == nil, errors.Is(err, http.ErrServerClosed):
			app.logger.Info("api server graceful shutdown succeeded")
		case errors.Is(err, context.DeadlineExceeded):
			app.logger.Info("api server graceful shutdown timed out")
		default:
			app.logger.Info("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
		}
		return nil
	}
}
