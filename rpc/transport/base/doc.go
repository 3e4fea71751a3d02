// Package base provides the stream transport shared by the tcp and unix transports.
// Protocol specific parts (dialing, listening, socket options) are injected through
// the IClientConnector and IServerConnector interfaces.
//
// Client:
//
//   - Connection Pool: ConnectionsPerEndpoint connections per endpoint are kept in a pool
//     and handed out exclusively, one exchange per connection at a time (no pipelining).
//
//   - Connection State Machine: every connection is driven by a looplab/fsm state machine
//     (idle -> sending -> receiving -> idle). Any failure moves the connection to broken;
//     a broken connection is closed and dialed again before its next use, because its
//     stream position is unknown.
//
//   - Deadlines: each exchange runs with the earlier of the context deadline and the
//     configured timeout. Cancelling the context aborts a blocked exchange.
//
// Server:
//
//   - One goroutine per connection, at most MaxConnections at a time.
//
//   - Idle connections wait for the next request without a deadline; the timeout covers
//     reading a request and writing its reply.
//
//   - A connection is closed when the client disconnects between two requests or when the
//     handler reports an error (after its reply, if any, was flushed).
package base
