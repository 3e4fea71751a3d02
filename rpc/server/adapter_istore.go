package server

import (
	"fmt"
	"github.com/ValentinKolb/qdb/lib/store"
	"github.com/ValentinKolb/qdb/rpc/common"
)

func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req common.Request, s store.IStore) common.Response {
	// Check for nil store
	if s == nil {
		return common.NewFailureResponse("handler: store is nil")
	}

	// Handle the different operations
	switch op := req.Op.(type) {
	case common.Read:
		value, err := s.Read(req.Namespace, op.Key)
		if err != nil {
			return common.NewFailureResponse(err.Error())
		}
		return common.NewResultResponse(value)
	case common.Write:
		return toResponse(s.Write(req.Namespace, op.Key, op.Value, op.Overwrite))
	case common.Delete:
		return toResponse(s.Delete(req.Namespace, op.Key))
	case common.CreateNamespace:
		return toResponse(s.CreateNamespace(req.Namespace))
	case common.DeleteNamespace:
		return toResponse(s.DeleteNamespace(req.Namespace))
	default:
		return common.NewFailureResponse(fmt.Sprintf("unsupported operation %T", req.Op))
	}
}

// toResponse maps the outcome of an operation without result onto a response
func toResponse(err error) common.Response {
	if err != nil {
		return common.NewFailureResponse(err.Error())
	}
	return common.NewSuccessResponse()
}
