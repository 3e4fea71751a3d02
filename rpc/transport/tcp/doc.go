// Package tcp implements the TCP socket transport of qdb's RPC system.
// It provides the TCP specific connectors for the base package, which does all the
// actual work (connection pooling, exchanges, deadlines).
//
// Key Components:
//
//   - clientConnector: dials TCP connections for base.NewBaseClientTransport
//
//   - serverConnector: creates TCP listeners for base.NewBaseServerTransport
//
// Both sides apply the same socket options to every connection: TCP_NODELAY, keep-alive,
// linger and the OS socket buffer sizes (see common.TCPConf and common.SocketConf).
package tcp
