package server

import (
	"github.com/ValentinKolb/qdb/lib/store"
	"github.com/ValentinKolb/qdb/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for executing a decoded request against a store
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response
	// It takes a Request and a store as parameters.
	// Store failures are reported as failure responses, never as Go errors
	Handle(req common.Request, store store.IStore) (resp common.Response)
}
