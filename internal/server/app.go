// Package server runs the MindCanvas HTTP API: it bootstraps the journal
// files, wires the storage and auth components, and serves until SIGINT or
// SIGTERM.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/mindcanvas/internal/auth"
	"github.com/dmitrijs2005/mindcanvas/internal/bootstrap"
	"github.com/dmitrijs2005/mindcanvas/internal/config"
	"github.com/dmitrijs2005/mindcanvas/internal/logging"
	"github.com/dmitrijs2005/mindcanvas/internal/metrics"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	components *bootstrap.Components
	issuer     *auth.Issuer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogPath, c.LogLevel)
	return newApp(ctx, c, logger, metrics.New())
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, m *metrics.Metrics) (*App, error) {
	comps, err := bootstrap.New(ctx, c, logger, m)
	if err != nil {
		return nil, err
	}
	if err := comps.EnsureFiles(ctx); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	exists, err := comps.Credentials.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists && !c.AllowDefaultAdmin {
		logger.Warn(ctx, "admin credentials are not set; logins will fail until `mindcanvas-admin init` is run",
			"path", comps.Credentials.Path())
	}

	secret, err := auth.SecretFromConfig(ctx, c.SecretKey, comps.Keys)
	if err != nil {
		return nil, err
	}

	return &App{
		config:     c,
		logger:     logger,
		components: comps,
		issuer:     auth.NewIssuer(secret, c.SessionTTL),
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

// Handler returns the HTTP handler for the API.
func (app *App) Handler() *Handler {
	return NewHandler(Deps{
		Entries:     app.components.Entries,
		Credentials: app.components.Credentials,
		Tokens:      app.issuer,
		Backups:     app.components.Backups,
		Metrics:     app.components.Metrics,
		Logger:      app.logger.With("module", "http"),
		SessionTTL:  app.config.SessionTTL,
	})
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := NewHTTPServer(app.config.HTTPAddr, app.Handler().Router(), app.logger.With("module", "http_server"))

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.components.Close()
	app.logger.Info(ctx, "App stopped")
}
