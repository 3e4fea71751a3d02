// Package http implements an HTTP transport for qdb's RPC system.
//
// Every exchange is one POST / request: the body carries the encoded request and the
// body of the reply carries the encoded response (Content-Type application/octet-stream).
// If the server cannot decode a request it answers 400, with an encoded failure response
// as body when it could produce one.
//
// Key Components:
//
//   - httpClientTransport: sends exchanges round-robin to the configured endpoints,
//     reusing connections through net/http's connection pool.
//
//   - httpServerTransport: an http.Server running the registered handler per request,
//     with an optional connection limit and debug request logging.
package http
