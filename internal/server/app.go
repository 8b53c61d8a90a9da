// Package server assembles the payments backend: store, services, the
// notification dispatcher, the REST API and the gRPC health endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/celar-labs/celar/internal/logging"
	"github.com/celar-labs/celar/internal/server/config"
	"github.com/celar-labs/celar/internal/server/notify"
	"github.com/celar-labs/celar/internal/server/repositories/repomanager"
	"github.com/celar-labs/celar/internal/server/rest"
	"github.com/celar-labs/celar/internal/server/services"

	gs "github.com/celar-labs/celar/internal/server/grpc"
)

type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config       *config.Config
	logger       logging.Logger
	store        repomanager.RepositoryManager
	dispatcher   *notify.Dispatcher
	httpServer   runner
	healthServer runner
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, slog.LevelInfo)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	store, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := store.RunMigrations(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	notifier, err := buildNotifier(ctx, c)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	dispatcher := notify.NewDispatcher(notifier, c.WebhookQueueSize, c.WebhookTimeout, logger)

	us := services.NewUserService(store, c)
	ls := services.NewLedgerService(store)
	ps := services.NewPaymentService(ls, services.NewRandomDecider(c.PaymentSuccessRate), dispatcher, logger)

	handler := rest.NewHandler(us, ls, ps, store, logger)

	return &App{
		config:       c,
		logger:       logger,
		store:        store,
		dispatcher:   dispatcher,
		httpServer:   rest.NewServer(c.EndpointAddrHTTP, rest.NewRouter(handler), logger),
		healthServer: gs.NewHealthServer(c.EndpointAddrGRPC, store, logger),
	}, nil
}

// buildNotifier combines the configured sinks. With neither a webhook URL
// nor an S3 bucket, events are discarded.
func buildNotifier(ctx context.Context, c *config.Config) (notify.Notifier, error) {
	var sinks []notify.Notifier
	if c.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookNotifier(c.WebhookURL, c.WebhookTimeout))
	}
	if c.S3Bucket != "" {
		a, err := notify.NewS3Archiver(ctx, notify.S3Config{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 archive init error: %w", err)
		}
		sinks = append(sinks, a)
	}
	return notify.Combine(sinks...), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) start(ctx context.Context, cancelFunc context.CancelFunc, name string, r runner) {
	if err := r.Run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or ctx is cancelled, or
// until one of the servers fails. The store is closed on the way out.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.dispatcher.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "http", app.httpServer)
	}()
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "grpc", app.healthServer)
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(context.Background(), "closing store", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
