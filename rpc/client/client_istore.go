package client

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/qdb/lib/store"
	"github.com/ValentinKolb/qdb/rpc/common"
	"github.com/ValentinKolb/qdb/rpc/serializer"
	"github.com/ValentinKolb/qdb/rpc/transport"
)

// IRPCStore is a store.IStore that forwards every operation to a qdb server
type IRPCStore interface {
	store.IStore
	// Do sends a raw request and returns the raw response (see rpcClientAdapter.Do)
	Do(ctx context.Context, req common.Request) (common.Response, error)
	// Close closes the underlying transport
	Close() error
}

// NewRPCStore creates a new RPC store
// The function takes a config, a transport and a serializer as parameters and connects the transport
// It returns an IRPCStore and an error
func NewRPCStore(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (IRPCStore, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC store
	s := rpcStore{
		rpcClientAdapter{
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC store
	return &s, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcStore) Read(namespace, key string) (value string, err error) {
	req := common.NewReadRequest(namespace, key)
	resp, err := invokeRPCRequest(&i.rpcClientAdapter, req)
	if err != nil {
		return "", err
	}
	if resp.Result == nil {
		return "", fmt.Errorf("%w: successful read of %q without result", ErrProtocolViolation, key)
	}
	return *resp.Result, nil
}

func (i *rpcStore) Write(namespace, key, value string, overwrite bool) (err error) {
	req := common.NewWriteRequest(namespace, key, value, overwrite)
	_, err = invokeRPCRequest(&i.rpcClientAdapter, req)
	return err
}

func (i *rpcStore) Delete(namespace, key string) (err error) {
	req := common.NewDeleteRequest(namespace, key)
	_, err = invokeRPCRequest(&i.rpcClientAdapter, req)
	return err
}

func (i *rpcStore) CreateNamespace(namespace string) (err error) {
	req := common.NewCreateNamespaceRequest(namespace)
	_, err = invokeRPCRequest(&i.rpcClientAdapter, req)
	return err
}

func (i *rpcStore) DeleteNamespace(namespace string) (err error) {
	req := common.NewDeleteNamespaceRequest(namespace)
	_, err = invokeRPCRequest(&i.rpcClientAdapter, req)
	return err
}
