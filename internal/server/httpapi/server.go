// Package httpapi serves the CryptoEx services as a JSON API for the
// browser front end, plus a websocket stream of market snapshots.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cryptoex/internal/logging"
	"github.com/dmitrijs2005/cryptoex/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address   string
	svc       services.Registry
	logger    logging.Logger
	jwtSecret []byte
	origins   []string
}

func NewServer(a string, l logging.Logger, svc services.Registry, secretKey string, origins []string) *Server {
	return &Server{
		address:   a,
		logger:    l.With("module", "http_server"),
		svc:       svc,
		jwtSecret: []byte(secretKey),
		origins:   origins,
	}
}

// Run serves until ctx is cancelled. Request contexts derive from ctx, so
// open market streams end on shutdown too.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
