// Package server wires storage, services and transports together and runs
// the HTTP API and the gRPC health endpoint until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/rest"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/taskkeeper/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	probe       gs.Probe
	metrics     *metrics.Metrics
	userService *services.UserService
	taskService *services.TaskService
}

// NewApp validates the configuration, opens storage (running migrations for
// PostgreSQL) and builds the services.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &App{config: c, logger: l, metrics: metrics.New()}

	var (
		tx    dbx.Transactor
		db    dbx.DBTX
		repos repomanager.RepositoryManager
	)

	switch c.StorageDriver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		tx, repos = store, store
		l.Warn(ctx, "Using in-memory storage, data is lost on restart")

	default:
		conn, err := sql.Open("pgx", c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("db connect error: %w", err)
		}

		pm := repomanager.NewPostgresRepositoryManager()
		if err := pm.RunMigrations(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("db migration error: %w", err)
		}

		app.db = conn
		app.probe = conn.PingContext
		tx, db, repos = dbx.NewSQLTransactor(conn, nil), conn, pm
	}

	app.userService = services.NewUserService(tx, db, repos, c, l, services.WithObserver(app.metrics))
	app.taskService = services.NewTaskService(tx, db, repos, l, nil)

	return app, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves until ctx is canceled, a signal arrives or either server
// fails. A failing server stops the other one.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageDriver, "api_prefix", app.config.APIPrefix())

	app.initSignalHandler(ctx, cancelFunc)

	httpServer := rest.NewServer(app.config, app.logger, app.userService, app.taskService, app.metrics, nil)
	healthServer := gs.NewHealthServer(app.config.EndpointAddrGRPC, app.logger, app.probe, 0)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				app.logger.Error(ctx, "Server failed", "server", name, "error", err.Error())
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s server: %w", name, err))
				mu.Unlock()
				cancelFunc()
			}
		}()
	}

	run("http", httpServer.Run)
	run("grpc", healthServer.Run)

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}

	app.logger.Info(context.Background(), "App stopped")
	return errors.Join(errs...)
}
