package serializer

import (
	"github.com/ValentinKolb/qdb/rpc/common"
	"io"
)

// IRPCSerializer is the interface for all message serializers.
// A serializer reads and writes exactly one message per call and keeps no state
// between calls, so one instance can be shared by any number of goroutines.
type IRPCSerializer interface {
	// EncodeRequest writes req to w.
	// If an error is returned, w may contain a partial message and must not be reused.
	EncodeRequest(w io.Writer, req common.Request) error
	// DecodeRequest reads exactly one request from r.
	// On error the returned request is the zero value.
	DecodeRequest(r io.Reader) (common.Request, error)
	// EncodeResponse writes resp to w.
	// If an error is returned, w may contain a partial message and must not be reused.
	EncodeResponse(w io.Writer, resp common.Response) error
	// DecodeResponse reads exactly one response from r.
	// On error the returned response is the zero value.
	DecodeResponse(r io.Reader) (common.Response, error)
}
