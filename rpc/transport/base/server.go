package base

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/ValentinKolb/qdb/rpc/common"
	"github.com/ValentinKolb/qdb/rpc/transport"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultBufferSize = 64 * 1024 // 64 KB
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector IServerConnector
	handler   transport.ServerHandleFunc
	config    common.ServerConfig

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	done     chan struct{}

	active atomic.Int64
	wg     sync.WaitGroup
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport that serves each connection in its own goroutine
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
		conns:     make(map[net.Conn]struct{}),
		done:      make(chan struct{}),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = listener.Close()
		return nil
	}
	t.config = config
	t.listener = listener
	t.mu.Unlock()

	// A buffered channel acts as a counting semaphore for the connection limit
	var semaphore chan struct{}
	if config.MaxConnections > 0 {
		semaphore = make(chan struct{}, config.MaxConnections)
	}

	Logger.Infof("Starting %s server on %s (max connections: %d)",
		t.connector.GetName(), config.Endpoint, config.MaxConnections)

	// Accept connections
	backoff := 5 * time.Millisecond
	for {
		if semaphore != nil {
			select {
			case semaphore <- struct{}{}:
			case <-t.done:
				return nil
			}
		}

		conn, err := listener.Accept()
		if err != nil {
			if semaphore != nil {
				<-semaphore
			}
			if t.isClosed() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			Logger.Errorf("Accept error: %v", err)
			time.Sleep(backoff)
			backoff = min(2*backoff, time.Second)
			continue
		}
		backoff = 5 * time.Millisecond

		if !t.track(conn) {
			_ = conn.Close()
			return nil
		}

		// Handle the connection in a goroutine
		go func() {
			defer func() {
				t.untrack(conn)
				if semaphore != nil {
					<-semaphore
				}
				t.wg.Done()
			}()
			t.handleConnection(conn)
		}()
	}
}

func (t *serverTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.done)

	var err error
	if t.listener != nil {
		err = t.listener.Close()
	}
	for conn := range t.conns {
		_ = conn.Close()
	}
	t.mu.Unlock()

	// Wait for all connection handlers to return
	t.wg.Wait()
	return err
}

// ActiveConnections implements transport.IConnectionStats
func (t *serverTransport) ActiveConnections() int64 {
	return t.active.Load()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *serverTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// track registers an open connection so that Close can terminate and wait for it
func (t *serverTransport) track(conn net.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.conns[conn] = struct{}{}
	t.active.Add(1)
	t.wg.Add(1)
	return true
}

func (t *serverTransport) untrack(conn net.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, conn)
	t.active.Add(-1)
}

// handleConnection serves exchanges of one connection until the client disconnects or an exchange fails
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer conn.Close()

	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		Logger.Errorf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
		return
	}

	// Timeout in seconds
	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	r := bufio.NewReaderSize(conn, defaultBufferSize)
	w := bufio.NewWriterSize(conn, defaultBufferSize)

	for {
		// Wait for the first byte of the next request without a deadline,
		// so idle connections are kept open
		if _, err := r.Peek(1); err != nil {
			// Case EOF: Connection closed by client between two requests
			if err == io.EOF {
				Logger.Debugf("Connection closed by client")
			} else if !t.isClosed() {
				Logger.Warningf("Error reading from connection: %v", err)
			}
			return
		}

		// The timeout covers reading the request and writing the reply
		if timeout > 0 {
			if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
				Logger.Errorf("Failed to set deadline: %v", err)
				return
			}
		}

		start := time.Now()
		handlerErr := t.handler(r, w)
		flushErr := w.Flush()
		Logger.Debugf("Processed exchange in %s", time.Since(start))

		// Case error: the stream is out of sync, close the connection
		if handlerErr != nil {
			Logger.Warningf("Closing connection after failed exchange: %v", handlerErr)
			return
		}
		if flushErr != nil {
			Logger.Errorf("Failed to write reply: %v", flushErr)
			return
		}

		if timeout > 0 {
			if err := conn.SetDeadline(time.Time{}); err != nil {
				Logger.Errorf("Failed to reset deadline: %v", err)
				return
			}
		}
	}
}
