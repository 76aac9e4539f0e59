// Package server wires the CryptoEx backend: PostgreSQL repositories, the
// price poller, optional Redis, Kafka and S3 integrations, and the gRPC and
// HTTP front ends. Run blocks until a signal arrives or a server fails.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/cryptoex/internal/ledger"
	"github.com/dmitrijs2005/cryptoex/internal/logging"
	"github.com/dmitrijs2005/cryptoex/internal/pricefeed"
	"github.com/dmitrijs2005/cryptoex/internal/server/config"
	"github.com/dmitrijs2005/cryptoex/internal/server/events"
	"github.com/dmitrijs2005/cryptoex/internal/server/httpapi"
	"github.com/dmitrijs2005/cryptoex/internal/server/objectstore"
	"github.com/dmitrijs2005/cryptoex/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cryptoex/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/cryptoex/internal/server/grpc"
)

// seams for tests
var (
	openDB = func(ctx context.Context, dsn string) (*sql.DB, error) {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	newRedisClient       = pricefeed.NewRedisClient
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	poller  *pricefeed.Poller
	svc     services.Registry
	closers []io.Closer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(os.Stdout, c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}
	app.closers = append(app.closers, db)

	app.poller = app.newPoller(ctx)
	pub := app.newPublisher()
	store := app.newStatementStore(ctx)

	market := services.NewMarketService(app.poller)
	app.svc = services.Registry{
		Sessions:   services.NewSessionService(db, rm, c, logger),
		Ledger:     services.NewLedgerService(db, rm, app.poller, pub, ledger.Policy{StrictSell: c.StrictSell}, logger),
		Markets:    market,
		Profiles:   services.NewProfileService(db, rm, logger),
		Statements: services.NewStatementService(db, rm, store, c.StatementLinkTTL, logger),
	}

	return app, nil
}

func (app *App) newPoller(ctx context.Context) *pricefeed.Poller {
	c := app.config
	fetcher := pricefeed.NewCoinGeckoClient(c.PriceFeedURL, c.PriceFeedIDs, c.PriceFeedTimeout)

	var opts []pricefeed.Option
	if c.RedisURL != "" {
		client, err := newRedisClient(ctx, c.RedisURL)
		if err != nil {
			app.logger.Warn(ctx, "price cache disabled", "error", err)
		} else {
			app.closers = append(app.closers, client)
			opts = append(opts, pricefeed.WithCache(pricefeed.NewRedisCache(client, pricefeed.DefaultCacheKey, c.PriceCacheTTL)))
		}
	}
	return pricefeed.NewPoller(fetcher, c.PriceFeedInterval, app.logger, opts...)
}

func (app *App) newPublisher() events.Publisher {
	if len(app.config.KafkaBrokers) == 0 {
		return events.NopPublisher{}
	}
	pub := events.NewKafkaPublisher(app.config.KafkaBrokers, app.config.KafkaTopic)
	app.closers = append(app.closers, pub)
	return pub
}

// newStatementStore returns nil when S3 is not configured or unreachable;
// statement export then reports the feature as not configured.
func (app *App) newStatementStore(ctx context.Context) objectstore.Store {
	c := app.config
	if c.S3Bucket == "" {
		return nil
	}
	store, err := objectstore.NewS3Store(ctx, objectstore.S3Config{
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
	})
	if err != nil {
		app.logger.Warn(ctx, "statement export disabled", "error", err)
		return nil
	}
	return store
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

// Run starts the poller and both servers. The first failure or a signal
// stops everything; resources are released before Run returns.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	app.poller.Start(ctx)
	defer app.poller.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.svc, app.config.SecretKey).Run(gctx)
	})
	g.Go(func() error {
		return httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, app.svc, app.config.SecretKey, app.config.CORSOrigins).Run(gctx)
	})

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server failed", "error", err)
	}
	app.close(context.WithoutCancel(ctx))
	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return err
}

func (app *App) close(ctx context.Context) {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Warn(ctx, "close failed", "error", err)
		}
	}
	app.closers = nil
}
