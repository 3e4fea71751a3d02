package transport

import (
	"context"
	"errors"
	"github.com/ValentinKolb/qdb/rpc/common"
	"io"
)

var (
	// ErrTransportClosed is returned by operations on a transport that was closed
	ErrTransportClosed = errors.New("transport closed")
	// ErrTrailingData is returned when the server sent more bytes than one reply
	ErrTrailingData = errors.New("unexpected data after reply")
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc handles exactly one exchange: it reads one request from r and
// writes the reply to w. The transport flushes w after every call.
// A non-nil error means the stream is no longer usable and the transport closes it
// (after flushing whatever reply was written).
type ServerHandleFunc func(r io.Reader, w io.Writer) error

// IRPCServerTransport is the interface for the server side of the transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers the handler called for each exchange.
	// It must be called before Listen.
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport and blocks until it fails or Close is called.
	// After Close, Listen returns nil.
	Listen(config common.ServerConfig) error
	// Close stops accepting connections and closes all open ones
	Close() error
}

// IConnectionStats is implemented by server transports that track their open connections
type IConnectionStats interface {
	// ActiveConnections returns the number of currently open client connections
	ActiveConnections() int64
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the client side of the transport layer
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Exchange performs one request/response exchange: send writes the request,
	// recv reads the reply. No other exchange shares the stream while this one is running.
	// If any step fails, the stream is discarded and not used again.
	Exchange(ctx context.Context, send func(w io.Writer) error, recv func(r io.Reader) error) error
	// Close closes all connections of the transport
	Close() error
}
