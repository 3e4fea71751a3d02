package base

import (
	"bufio"
	"context"
	"fmt"
	"github.com/ValentinKolb/qdb/rpc/common"
	"github.com/ValentinKolb/qdb/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/looplab/fsm"
	"io"
	"net"
	"sync"
	"time"
)

var Logger = logger.GetLogger(common.LoggerTransport)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint (timeout 0 = no timeout)
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Connection State Machine
// -----------------------------------------------------------

const (
	stateIdle      = "idle"
	stateSending   = "sending"
	stateReceiving = "receiving"
	stateBroken    = "broken"

	eventSend     = "send"
	eventSent     = "sent"
	eventReceived = "received"
	eventFail     = "fail"
	eventRedial   = "redial"
)

// newConnectionFSM creates the state machine of one pooled connection.
// A connection starts broken and becomes idle once it is dialed.
func newConnectionFSM(endpoint string) *fsm.FSM {
	return fsm.NewFSM(
		stateBroken,
		fsm.Events{
			{Name: eventSend, Src: []string{stateIdle}, Dst: stateSending},
			{Name: eventSent, Src: []string{stateSending}, Dst: stateReceiving},
			{Name: eventReceived, Src: []string{stateReceiving}, Dst: stateIdle},
			{Name: eventFail, Src: []string{stateIdle, stateSending, stateReceiving}, Dst: stateBroken},
			{Name: eventRedial, Src: []string{stateBroken}, Dst: stateIdle},
		},
		fsm.Callbacks{
			"enter_" + stateBroken: func(_ context.Context, e *fsm.Event) {
				if len(e.Args) > 0 {
					Logger.Debugf("Connection to %s broken while %s: %v", endpoint, e.Src, e.Args[0])
				}
			},
		},
	)
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientConnection represents a single net connection.
// It is only ever used by the exchange that took it from the pool.
type clientConnection struct {
	endpoint string
	conn     net.Conn
	r        *bufio.Reader
	w        *bufio.Writer
	state    *fsm.FSM
	parent   *clientTransport
}

// connectionPool hands out connections exclusively.
// Every call of clientTransport.Connect creates a new pool.
type connectionPool struct {
	mu     sync.RWMutex
	idle   chan *clientConnection
	done   chan struct{}
	closed bool
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector IClientConnector
	config    common.ClientConfig
	mu        sync.RWMutex
	pool      *connectionPool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Close all existing connections
	_ = t.Close()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.config = config

	// Set default value for ConnectionsPerEndpoint
	connectionsPerEP := max(config.ConnectionsPerEndpoint, 1)
	total := len(config.Endpoints) * connectionsPerEP

	pool := &connectionPool{
		idle: make(chan *clientConnection, total),
		done: make(chan struct{}),
	}

	connected := 0
	var lastErr error
	for _, endpoint := range config.Endpoints {
		// Create multiple connections per endpoint
		for i := 0; i < connectionsPerEP; i++ {
			c := &clientConnection{
				endpoint: endpoint,
				state:    newConnectionFSM(endpoint),
				parent:   t,
			}

			// Connections that fail now stay broken and are dialed again on first use
			if err := c.redial(); err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				lastErr = err
			} else {
				connected++
			}

			pool.idle <- c
		}
	}

	// Check if we have at least one connection
	if connected == 0 {
		pool.close()
		return fmt.Errorf("failed to connect to any endpoint: %w", lastErr)
	}

	t.pool = pool
	Logger.Infof("Connected %d out of %d connections to %d endpoints using %s transport",
		connected, total, len(config.Endpoints), t.connector.GetName())

	return nil
}

func (t *clientTransport) Exchange(ctx context.Context, send func(w io.Writer) error, recv func(r io.Reader) error) error {
	t.mu.RLock()
	pool := t.pool
	t.mu.RUnlock()
	if pool == nil {
		return transport.ErrTransportClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := pool.acquire(ctx)
	if err != nil {
		return err
	}
	defer pool.release(c)

	// A broken connection is never reused as is
	if c.state.Is(stateBroken) {
		if err := c.redial(); err != nil {
			return err
		}
	}

	conn := c.conn
	if err := conn.SetDeadline(t.deadline(ctx)); err != nil {
		c.fail(err)
		return err
	}

	// Cancelling the context unblocks pending reads and writes
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})

	err = c.exchange(send, recv)

	if !stop() && err == nil {
		// The deadline may have been moved into the past after the reply arrived
		c.fail(context.Cause(ctx))
	}
	if err != nil {
		c.fail(err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("exchange with %s aborted: %w", c.endpoint, ctxErr)
		}
		// The socket deadline may expire just before the context notices
		if ctxDeadline, ok := ctx.Deadline(); ok && !time.Now().Before(ctxDeadline) {
			return fmt.Errorf("exchange with %s aborted: %w", c.endpoint, context.DeadlineExceeded)
		}
		return err
	}
	return nil
}

func (t *clientTransport) Close() error {
	t.mu.Lock()
	pool := t.pool
	t.pool = nil
	t.mu.Unlock()

	if pool != nil {
		pool.close()
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// deadline returns the earlier of the context deadline and the configured timeout
func (t *clientTransport) deadline(ctx context.Context) time.Time {
	var deadline time.Time
	if t.config.TimeoutSecond > 0 {
		deadline = time.Now().Add(time.Duration(t.config.TimeoutSecond) * time.Second)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (deadline.IsZero() || ctxDeadline.Before(deadline)) {
		deadline = ctxDeadline
	}
	return deadline
}

// acquire takes a connection out of the pool, blocking until one is free
func (p *connectionPool) acquire(ctx context.Context) (*clientConnection, error) {
	select {
	case c := <-p.idle:
		return c, nil
	case <-p.done:
		return nil, transport.ErrTransportClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// release puts a connection back into the pool (or closes it if the pool was closed)
func (p *connectionPool) release(c *clientConnection) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		c.fail(transport.ErrTransportClosed)
		return
	}
	p.idle <- c
}

// close closes all idle connections. Connections in use are closed on release.
func (p *connectionPool) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	for {
		select {
		case c := <-p.idle:
			c.fail(transport.ErrTransportClosed)
		default:
			return
		}
	}
}

// transition fires an event of the connection state machine
func (c *clientConnection) transition(event string, args ...interface{}) error {
	return c.state.Event(context.Background(), event, args...)
}

// exchange writes one request and reads one reply
func (c *clientConnection) exchange(send func(w io.Writer) error, recv func(r io.Reader) error) error {
	if err := c.transition(eventSend); err != nil {
		return err
	}
	if err := send(c.w); err != nil {
		return err
	}
	if err := c.w.Flush(); err != nil {
		return err
	}
	if err := c.transition(eventSent); err != nil {
		return err
	}
	if err := recv(c.r); err != nil {
		return err
	}
	// Anything left belongs to no exchange, so the stream cannot be trusted anymore
	if c.r.Buffered() > 0 {
		return fmt.Errorf("%w: %d bytes", transport.ErrTrailingData, c.r.Buffered())
	}
	return c.transition(eventReceived)
}

// fail marks the connection as broken and closes it
func (c *clientConnection) fail(cause error) {
	if c.state.Can(eventFail) {
		_ = c.transition(eventFail, cause)
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// redial establishes a new connection to the endpoint
func (c *clientConnection) redial() error {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}

	timeout := time.Duration(c.parent.config.TimeoutSecond) * time.Second

	// Connect to the endpoint
	conn, err := c.parent.connector.Connect(c.endpoint, timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := c.parent.connector.UpgradeConnection(conn, c.parent.config); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to upgrade connection to %s: %w", c.endpoint, err)
	}

	c.conn = conn
	c.r = bufio.NewReaderSize(conn, defaultBufferSize)
	c.w = bufio.NewWriterSize(conn, defaultBufferSize)

	if err := c.transition(eventRedial); err != nil {
		_ = conn.Close()
		c.conn = nil
		return err
	}
	Logger.Debugf("Connected to %s", c.endpoint)
	return nil
}
