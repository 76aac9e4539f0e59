// Package grpc exposes the CryptoEx services as the gRPC service
// cryptoex.v1.Exchange. Requests and responses are google.protobuf.Struct
// values holding the wire messages.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/cryptoex/internal/logging"
	"github.com/dmitrijs2005/cryptoex/internal/server/services"
	"github.com/dmitrijs2005/cryptoex/internal/wire"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address   string
	svc       services.Registry
	logger    logging.Logger
	jwtSecret []byte
	methods   map[string]method
}

func NewGRPCServer(a string, l logging.Logger, svc services.Registry, secretKey string) *GRPCServer {
	s := &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		svc:       svc,
		jwtSecret: []byte(secretKey),
		methods:   make(map[string]method, len(methodTable)),
	}
	for _, m := range methodTable {
		s.methods[wire.FullMethod(m.name)] = m
	}
	return s
}

// NewServer returns a grpc.Server with the interceptors installed and the
// Exchange service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	srv := grpc.NewServer(opts...)
	srv.RegisterService(s.serviceDesc(), s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
