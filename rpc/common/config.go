package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Shared transport configuration
// --------------------------------------------------------------------------

// SocketConf holds socket level settings shared by stream transports
type SocketConf struct {
	WriteBufferSize int // bytes, 0 = OS default
	ReadBufferSize  int // bytes, 0 = OS default
}

// TCPConf holds TCP specific settings (ignored by unix and http transports)
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int // 0 = disabled
	TCPLingerSec    int // < 0 = OS default
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters for a qdb server.
type ServerConfig struct {
	// Endpoint is the address the transport listens on (host:port or socket path)
	Endpoint string

	// TimeoutSecond is the read/write deadline per exchange (0 = none)
	TimeoutSecond int64

	// MaxConnections limits concurrently served connections (0 = unlimited)
	MaxConnections int

	// MaxStringBytes limits the declared length of a single string field (0 = unlimited)
	MaxStringBytes uint64

	// Namespaces are created when the server starts
	Namespaces []string

	// MetricsEndpoint serves prometheus metrics on /metrics if not empty
	MetricsEndpoint string

	// Socket settings
	SocketConf SocketConf
	TCPConf    TCPConf

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Max Connections", limitString(uint64(max(c.MaxConnections, 0))))
	addField("Max String Size", limitString(c.MaxStringBytes))
	addField("TCP No Delay", strconv.FormatBool(c.TCPConf.TCPNoDelay))
	addField("TCP Keep Alive", fmt.Sprintf("%d sec", c.TCPConf.TCPKeepAliveSec))

	// Metrics
	if c.MetricsEndpoint != "" {
		addSection("Metrics")
		addField("Endpoint", c.MetricsEndpoint)
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Namespaces
	if len(c.Namespaces) > 0 {
		addSection("Namespaces")
		for i, ns := range c.Namespaces {
			addField(strconv.Itoa(i), ns)
		}
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters for a qdb client.
type ClientConfig struct {
	Endpoints              []string
	TimeoutSecond          int
	ConnectionsPerEndpoint int
	MaxStringBytes         uint64
	SocketConf             SocketConf
	TCPConf                TCPConf
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.ConnectionsPerEndpoint)))))
	addField("Max String Size", limitString(c.MaxStringBytes))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

// limitString renders a limit where 0 means unlimited
func limitString(v uint64) string {
	if v == 0 {
		return "unlimited"
	}
	return strconv.FormatUint(v, 10)
}
