package http

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/ValentinKolb/qdb/rpc/common"
	"github.com/ValentinKolb/qdb/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/net/netutil"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger(common.LoggerTransport)

const contentType = "application/octet-stream"

func NewHttpServerTransport() transport.IRPCServerTransport {
	return &httpServerTransport{}
}

type httpServerTransport struct {
	handler transport.ServerHandleFunc

	mu     sync.Mutex
	server *http.Server
	closed bool

	active atomic.Int64
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *httpServerTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *httpServerTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}

	// Create a new HTTP server
	mux := http.NewServeMux()

	// Register handler
	if config.LogLevel == "debug" {
		mux.HandleFunc("POST /{$}", loggerMiddleware(t.handleRequest))
	} else {
		mux.HandleFunc("POST /{$}", t.handleRequest)
	}

	timeout := time.Duration(config.TimeoutSecond) * time.Second
	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		ConnState:    t.trackConnState,
	}

	address := strings.TrimPrefix(config.Endpoint, "http://")
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	if config.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, config.MaxConnections)
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = listener.Close()
		return nil
	}
	t.server = server
	t.mu.Unlock()

	Logger.Infof("Starting HTTP server on %s", address)

	if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (t *httpServerTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	if t.server == nil {
		return nil
	}
	return t.server.Close()
}

// ActiveConnections implements transport.IConnectionStats
func (t *httpServerTransport) ActiveConnections() int64 {
	return t.active.Load()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleRequest runs one exchange with the request body as input and the response body as output.
// A failed exchange is answered with 400 and whatever reply the handler wrote.
func (t *httpServerTransport) handleRequest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var reply bytes.Buffer
	err := t.handler(r.Body, &reply)

	// A body holds exactly one request
	if err == nil {
		if extra, _ := io.Copy(io.Discard, io.LimitReader(r.Body, 1)); extra > 0 {
			err = fmt.Errorf("%w: after request from %s", transport.ErrTrailingData, r.RemoteAddr)
			reply.Reset()
		}
	}

	w.Header().Set("Content-Type", contentType)
	if err != nil {
		Logger.Warningf("Rejected request from %s: %v", r.RemoteAddr, err)
		w.WriteHeader(http.StatusBadRequest)
	}

	// Write response
	if _, err := w.Write(reply.Bytes()); err != nil {
		Logger.Errorf("Failed to write response: %v", err)
	}
}

// trackConnState counts the open client connections
func (t *httpServerTransport) trackConnState(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		t.active.Add(1)
	case http.StateClosed, http.StateHijacked:
		t.active.Add(-1)
	}
}

// --------------------------------------------------------------------------
// Middleware (logging)
// --------------------------------------------------------------------------

// responseWriter is a custom ResponseWriter that captures status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing it
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggerMiddleware is a middleware that logs HTTP requests
func loggerMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create custom response writer to capture status code
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Process request
		next.ServeHTTP(rw, r)

		// Log the request
		duration := time.Since(start)
		Logger.Debugf("%s %s => %d took %s", r.Method, r.URL.Path, rw.statusCode, duration)
	}
}
