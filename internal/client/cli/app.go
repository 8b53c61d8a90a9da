package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/celar-labs/celar/internal/client/client"
	"github.com/celar-labs/celar/internal/client/config"
	"github.com/celar-labs/celar/internal/client/services"
	"github.com/celar-labs/celar/internal/client/session"
	"github.com/celar-labs/celar/internal/filex"
	"github.com/celar-labs/celar/internal/logging"
)

type App struct {
	config  *config.Config
	repos   *client.Repositories
	session *session.Manager
	auth    services.AuthService
	wallet  services.WalletService
	logger  logging.Logger
	reader  *bufio.Reader
	out     io.Writer
}

// NewApp opens the local database and wires the HTTP client, session and
// services for an interactive terminal session.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := filex.EnsureParentDir(c.LocalDBPath); err != nil {
		return nil, err
	}

	repos, err := client.InitDatabase(ctx, c.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	api := client.NewHTTPClient(c.ServerEndpointAddr, c.RequestTimeout)

	return newApp(c, repos, api, logger, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, repos *client.Repositories, api client.Client, logger logging.Logger, in io.Reader, out io.Writer) *App {
	sm := session.NewManager(repos.Metadata, api, c.RefreshThreshold, logger)
	return &App{
		config:  c,
		repos:   repos,
		session: sm,
		auth:    services.NewAuthService(api, sm, repos.Activity, logger),
		wallet:  services.NewWalletService(api, sm, repos.Activity, logger),
		logger:  logger,
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

// Run restores any saved session, then serves commands until the user
// exits or input ends.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.repos.Close(); err != nil {
			a.logger.Error(ctx, "failed to close local database", "error", err)
		}
	}()

	fmt.Fprintln(a.out, "Welcome to celar (type 'help' for commands)")
	if _, err := a.auth.Restore(ctx); err != nil {
		a.logger.Warn(ctx, "could not restore session", "error", err)
	}
	if p, ok := a.session.Profile(); ok {
		fmt.Fprintf(a.out, "Welcome back, %s\n", p.Email)
	}

	runREPL(ctx, a, a.status, a.reader, a.out)
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.session.State() == session.StateAuthenticated
}

func (a *App) status() string {
	p, ok := a.session.Profile()
	if !ok {
		return "(signed out)"
	}
	return fmt.Sprintf("(%s %s)", p.Email, p.Role)
}
