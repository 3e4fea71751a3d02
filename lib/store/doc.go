// Package store defines the namespaced key-value store that the qdb server executes requests against.
//
// Key Components:
//
//   - IStore Interface: Read, Write (with or without overwrite), Delete, CreateNamespace and
//     DeleteNamespace. Keys are grouped into namespaces, a namespace has to exist before keys
//     can be written to it and deleting a namespace drops all of its keys.
//
//   - Error System: every failure is a *Error carrying a RetCode and a message. Use Code(err)
//     to get the return code of any error returned by an IStore.
//
// Implementations:
//
//   - Local Store (lstore): an in-memory store on lock-free maps, used by the server.
//   - RPC Store (rpc/client): forwards every operation to a remote qdb server.
//
// The testing subpackage contains a test suite that every implementation has to pass.
package store
