// Package transport defines the interfaces of qdb's RPC transport layer.
// A transport moves encoded messages between client and server; it knows nothing about
// the message format, the serializer decides where a message ends.
//
// Key Components:
//
//   - IRPCClientTransport: Exchange writes one request and reads one reply on a stream that
//     no other exchange uses at the same time. A stream on which an exchange failed is discarded.
//
//   - IRPCServerTransport: accepts client streams and calls the registered ServerHandleFunc
//     once per exchange until the client disconnects or the handler reports an error.
//
//   - IConnectionStats: optional interface of server transports reporting open connections.
//
// Implementations live in the tcp, unix and http subpackages; tcp and unix share the
// stream handling of the base package.
package transport
