// Package server wires the member service together: configuration, logging,
// the database, migrations, services and the HTTP transport.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/memberservice/internal/logging"
	"github.com/dmitrijs2005/memberservice/internal/server/auth"
	"github.com/dmitrijs2005/memberservice/internal/server/config"
	"github.com/dmitrijs2005/memberservice/internal/server/passwords"
	"github.com/dmitrijs2005/memberservice/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/memberservice/internal/server/rest"
	"github.com/dmitrijs2005/memberservice/internal/server/services"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	users    *services.UserService
	payments *services.PaymentService
	policies *services.PrivacyPolicyService
}

// NewApp opens the database, applies pending migrations and builds the
// services. The caller owns the returned App and must call Close.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.Env)

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hasher := passwords.NewHasher(c.LegacyPasswordSecret, c.BcryptCost)
	codec := auth.NewTokenCodec([]byte(c.SecretKey))

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		users:    services.NewUserService(db, rm, hasher, codec, logger),
		payments: services.NewPaymentService(db, rm, logger),
		policies: services.NewPrivacyPolicyService(db, rm),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.users, app.payments, app.policies, rest.Options{
		CookieSecure:    app.config.CookieSecure,
		ShutdownTimeout: app.config.ShutdownTimeout,
		DB:              app.db,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server stopped", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or the process receives a termination
// signal.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddrHTTP, "env", app.config.Env)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) Close() error {
	return app.db.Close()
}
