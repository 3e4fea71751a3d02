// Package cmd implements the command-line interface of qdb. It provides a
// hierarchical command structure with operations for running the server and
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Commands for starting and configuring the qdb server
//   - kv: Commands for key operations (read, write, del) and a load generator (perf)
//   - ns: Commands for namespace operations (create, delete)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set as environment variable QDB_<FLAG> (e.g. QDB_TIMEOUT=15).
// Variables are also read from .env and .env.local in the working directory.
//
// See qdb -help for a list of all commands.
package cmd
