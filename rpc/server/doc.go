// Package server implements the qdb RPC server.
//
// The server owns an in-memory store (lstore) and registers one handler with the transport.
// Each call of the handler is one exchange: decode a request, execute it through the
// IRPCServerAdapter and encode the response.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for server adapters, with the Handle
//     method that executes a request against a store.IStore and maps the outcome onto a
//     response (found read -> success with result, other successes -> success,
//     failures -> failure with message).
//
//   - NewRPCServer: creates the server from a config, a transport and a serializer.
//     Serve initializes the loggers, creates the configured namespaces, starts the optional
//     metrics endpoint and then blocks in the transport.
//
// Undecodable Requests:
//
//	A truncated request (or a transport read error) closes the stream without a reply.
//	A request with an unknown tag, invalid UTF-8 or an oversized string is answered with a
//	failure response, then the stream is closed because the position of the next request
//	is unknown.
//
// Metrics:
//
//	If MetricsEndpoint is set, GET /metrics serves qdb_requests_total{op},
//	qdb_request_failures_total{op}, qdb_request_duration_seconds{op},
//	qdb_decode_errors_total{kind} and qdb_connections_active in prometheus text format.
package server
