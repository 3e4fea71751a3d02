package client

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/qdb/lib/store"
	"github.com/ValentinKolb/qdb/rpc/common"
	"github.com/ValentinKolb/qdb/rpc/serializer"
	"github.com/ValentinKolb/qdb/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"io"
)

var (
	Logger = logger.GetLogger(common.LoggerClient)

	// ErrProtocolViolation is returned when a reply does not match its request
	ErrProtocolViolation = errors.New("protocol violation")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
// Used by the RPCStore with composition pattern
type rpcClientAdapter struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// Do sends a request and returns the response as received.
// A failure response is not an error; errors are transport or decoding failures.
func (a *rpcClientAdapter) Do(ctx context.Context, req common.Request) (common.Response, error) {
	var resp common.Response
	err := a.transport.Exchange(ctx,
		func(w io.Writer) error {
			return a.serializer.EncodeRequest(w, req)
		},
		func(r io.Reader) error {
			var err error
			resp, err = a.serializer.DecodeResponse(r)
			return err
		},
	)
	if err != nil {
		return common.Response{}, fmt.Errorf("request on namespace %q failed: %w", req.Namespace, err)
	}
	return resp, nil
}

// Close closes the transport
func (a *rpcClientAdapter) Close() error {
	return a.transport.Close()
}

// invokeRPCRequest is a helper function used by the RPC store to send requests
// It converts failure responses into *store.Error values with the code store.RetCRemote
func invokeRPCRequest(a *rpcClientAdapter, req common.Request) (common.Response, error) {
	resp, err := a.Do(context.Background(), req)
	if err != nil {
		return common.Response{}, err
	}

	// Check if the response is a failure response
	if !resp.Success {
		msg := "unknown error"
		if resp.Message != nil {
			msg = *resp.Message
		}
		Logger.Debugf("%s failed: %s", req, msg)
		return resp, store.NewError(store.RetCRemote, msg)
	}

	return resp, nil
}
