// Package unix implements the Unix domain socket transport of qdb's RPC system,
// for clients running on the same machine as the server.
//
// Like the tcp package it only provides connectors, all connection handling lives in
// the base package. The endpoint is the path of the socket file; a stale file left
// behind by a previous server is removed when the server starts listening.
package unix
