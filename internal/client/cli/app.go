package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/client/client"
	"github.com/dmitrijs2005/cryptoex/internal/client/config"
	"github.com/dmitrijs2005/cryptoex/internal/client/services"
	"github.com/dmitrijs2005/cryptoex/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config *config.Config
	auth   services.AuthService
	api    client.Client
	db     *sql.DB
	logger logging.Logger
	reader *bufio.Reader
	out    io.Writer

	mu   sync.RWMutex
	mode Mode
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	logger, err := logging.New(os.Stderr, logging.FormatText, "info")
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewExchangeClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		config: c,
		auth:   services.NewAuthService(apiClient, db, logger),
		api:    apiClient,
		db:     db,
		logger: logger.With("module", "cli"),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

// Run restores the stored session, starts the connectivity watcher and
// blocks in the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.close(ctx)

	fmt.Fprintln(a.out, "Welcome to CryptoEx (type 'help' for commands)")

	st, err := a.auth.Resume(ctx)
	switch {
	case errors.Is(err, client.ErrUnavailable):
		a.setMode(ctx, ModeOffline)
	case err != nil:
		return err
	default:
		a.setMode(ctx, ModeOnline)
	}
	if email := a.auth.Email(); email != "" {
		fmt.Fprintf(a.out, "Resumed session of %s (%s)\n", email, st)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(watchCtx, a.config.OnlineCheckInterval)

	runREPL(ctx, a.auth, a.commands(), a.getStatus, a.reader, a.out)
	return nil
}

func (a *App) close(ctx context.Context) {
	if err := a.auth.Close(ctx); err != nil {
		a.logger.Warn(ctx, "closing connection", "error", err)
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(ctx, "connectivity changed", "mode", mode)
	}
}

func (a *App) getStatus() string {
	s := ""
	if email := a.auth.Email(); email != "" {
		s = email + " "
	}
	s += a.auth.Status().State.String()
	if m := a.Mode(); m != "" {
		s += " " + string(m)
	}
	return "(" + s + ")"
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.auth.Ping(pctx)
			cancel()

			if err != nil {
				a.setMode(ctx, ModeOffline)
			} else {
				a.setMode(ctx, ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}

// remote feeds the error of a server call back into the session gate and
// the connectivity mode.
func (a *App) remote(ctx context.Context, err error) error {
	if err == nil {
		a.setMode(ctx, ModeOnline)
		return nil
	}
	if errors.Is(err, client.ErrUnavailable) {
		a.setMode(ctx, ModeOffline)
	}
	return a.auth.Check(ctx, err)
}
