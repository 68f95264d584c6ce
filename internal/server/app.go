// Package server wires the configuration, storage backends and services
// together and runs the HTTP API and the gRPC health endpoint until the
// process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrijs2005/cloudservice/internal/dbx"
	"github.com/dmitrijs2005/cloudservice/internal/logging"
	"github.com/dmitrijs2005/cloudservice/internal/server/auth"
	"github.com/dmitrijs2005/cloudservice/internal/server/blobstore"
	"github.com/dmitrijs2005/cloudservice/internal/server/config"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cloudservice/internal/server/rest"
	"github.com/dmitrijs2005/cloudservice/internal/server/services"

	gs "github.com/dmitrijs2005/cloudservice/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
	grpc    *gs.GRPCServer
}

// NewApp opens the storage backends and builds the services. With an empty
// DatabaseDSN the metadata lives in memory and is lost on exit.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var (
		db     *sql.DB
		tx     dbx.Transactor
		rm     repomanager.RepositoryManager
		pinger gs.Pinger
	)

	if c.DatabaseDSN != "" {
		var err error
		db, err = repomanager.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}

		pm := repomanager.NewPostgresRepositoryManager()
		if err := pm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db migration error: %w", err)
		}

		tx, rm, pinger = dbx.NewSQLTransactor(db), pm, db
	} else {
		logger.Warn(ctx, "no database configured, metadata is kept in memory")
		tx, rm = dbx.NopTransactor{}, repomanager.NewMemoryRepositoryManager()
	}

	blobs, err := blobstore.New(ctx, c, logger, blobstore.NewMetrics(reg))
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	tokens := services.NewTokenService(tx, rm, c.TokenValidityDuration, logger)
	users := services.NewUserService(tx, rm, tokens, logger)
	files := services.NewFileService(tx, rm, blobs, logger)

	gate := auth.NewGate(tokens, c.AuthTokenHeader, c.AuthTokenPrefix, c.PublicPaths, rest.ErrorWriter(logger), logger)
	h := rest.NewHandler(users, files, gate, c.MaxUploadSize, logger)
	router := rest.NewRouter(h, gate, rest.NewMetrics(reg), reg, logger)

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		handler: router,
		grpc:    gs.NewGRPCServer(c.EndpointAddrGRPC, logger, pinger, c.HealthCheckInterval),
	}, nil
}

// Handler returns the HTTP API.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:         app.config.EndpointAddrHTTP,
		Handler:      app.handler,
		ReadTimeout:  app.config.HTTPReadTimeout,
		WriteTimeout: app.config.HTTPWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok && err != nil {
			app.logger.Error(ctx, "HTTP server failed", "error", err)
			cancelFunc()
			return
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	app.logger.Info(ctx, "Stopping HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "HTTP shutdown error", "error", err)
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpc.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or one of the servers
// fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}

	app.logger.Info(ctx, "App stopped")
}
