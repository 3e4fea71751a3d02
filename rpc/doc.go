// Package rpc provides the request/response layer of qdb. It carries store
// operations between clients and a server over a byte stream.
//
// The package is organized into several subpackages:
//
//   - common: The Request and Response types, configuration structures and logging.
//
//   - serializer: The binary codec for the primitive types (strings, optional strings,
//     booleans) and for Request and Response values.
//
//   - transport: Stream transports with pluggable implementations (TCP, Unix sockets, HTTP).
//     Every exchange carries exactly one request and one response.
//
//   - client: An RPC implementation of the store interface that forwards every operation
//     to a server.
//
//   - server: The server that decodes requests, applies them to a local store and
//     encodes the responses.
package rpc
