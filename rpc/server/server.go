package server

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/qdb/lib/store"
	"github.com/ValentinKolb/qdb/lib/store/lstore"
	"github.com/ValentinKolb/qdb/rpc/common"
	"github.com/ValentinKolb/qdb/rpc/serializer"
	"github.com/ValentinKolb/qdb/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"net/http"
	"sync"
	"time"
)

var Logger = logger.GetLogger(common.LoggerRPC)

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializerWithLimit(config.MaxStringBytes),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *rpcServer {
	return &rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		store:      lstore.NewLocalStore(),
		adapter:    NewIStoreServerAdapter(),
		metrics:    newServerMetrics(transport),
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	store      store.IStore
	adapter    IRPCServerAdapter
	metrics    *serverMetrics

	mu            sync.Mutex
	metricsServer *http.Server
}

// Serve starts the RPC server
// This function will also initialize the loggers and the store and then block in the transport layer
func (s *rpcServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// Close stops the transport layer and the metrics endpoint
func (s *rpcServer) Close() error {
	err := s.transport.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metricsServer != nil {
		err = errors.Join(err, s.metricsServer.Close())
		s.metricsServer = nil
	}
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *rpcServer) init() error {
	// Init logger
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", s.config.String())

	// Create the namespaces that have to exist from the start
	for _, ns := range s.config.Namespaces {
		err := s.store.CreateNamespace(ns)
		if store.Code(err) == store.RetCNamespaceExists {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create namespace %q: %w", ns, err)
		}
		Logger.Infof("created namespace %q", ns)
	}

	// Start the metrics endpoint
	if s.config.MetricsEndpoint != "" {
		srv := s.metrics.newMetricsServer(s.config.MetricsEndpoint)
		s.mu.Lock()
		s.metricsServer = srv
		s.mu.Unlock()

		go func() {
			Logger.Infof("Serving metrics on %s/metrics", s.config.MetricsEndpoint)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				Logger.Errorf("metrics endpoint failed: %v", err)
			}
		}()
	}

	// Configure the transport layer
	s.transport.RegisterHandler(s.handleExchange)

	Logger.Infof("qdb setup completed successfully")
	return nil
}

// handleExchange decodes one request, executes it and writes the response
func (s *rpcServer) handleExchange(r io.Reader, w io.Writer) error {
	req, err := s.serializer.DecodeRequest(r)
	if err != nil {
		return s.rejectRequest(w, err)
	}

	start := time.Now()
	resp := s.adapter.Handle(req, s.store)
	s.metrics.observeRequest(req.Op.Tag(), resp.Success, time.Since(start))
	Logger.Debugf("%s => %s", req, resp)

	return s.serializer.EncodeResponse(w, resp)
}

// rejectRequest answers a request that could not be decoded.
// The returned error makes the transport close the stream, since the position of the next request is unknown.
func (s *rpcServer) rejectRequest(w io.Writer, err error) error {
	kind := serializer.ErrorKind(err)
	s.metrics.observeDecodeError(kind)

	// Case io error or truncated request: the peer is gone or out of sync, nobody reads a reply
	if kind == "io" || errors.Is(err, serializer.ErrTruncated) {
		return err
	}

	// Case invalid request: tell the client why before closing
	resp := common.NewFailureResponse(fmt.Sprintf("invalid request: %v", err))
	if encErr := s.serializer.EncodeResponse(w, resp); encErr != nil {
		return errors.Join(err, encErr)
	}
	return err
}
