package serializer

import (
	"fmt"
	"github.com/ValentinKolb/qdb/rpc/common"
	"io"
)

// NewBinarySerializer creates a new serializer for the qdb binary wire format
// without a limit on string sizes
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// NewBinarySerializerWithLimit creates a new serializer for the qdb binary wire format.
// Decoding a string field with a declared length above maxStringBytes fails with ErrTooLarge (0 = unlimited).
func NewBinarySerializerWithLimit(maxStringBytes uint64) IRPCSerializer {
	return &binarySerializerImpl{maxStringBytes: maxStringBytes}
}

// binarySerializerImpl implements IRPCSerializer.
//
// Request layout:  string(namespace) | byte(tag) | variant fields
//
//	1 read            : string(key)
//	2 write           : string(key) | string(value) | byte(overwrite)
//	3 delete          : string(key)
//	4 createNamespace : -
//	5 deleteNamespace : -
//
// Response layout: byte(success) | optional string(message) | optional string(result)
type binarySerializerImpl struct {
	maxStringBytes uint64
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) EncodeRequest(w io.Writer, req common.Request) error {
	// Select the variant fields first so nothing is written for an invalid operation
	var writeFields func() error
	switch op := req.Op.(type) {
	case common.Read:
		writeFields = func() error {
			return WriteString(w, op.Key)
		}
	case common.Write:
		writeFields = func() error {
			if err := WriteString(w, op.Key); err != nil {
				return err
			}
			if err := WriteString(w, op.Value); err != nil {
				return err
			}
			return WriteBool(w, op.Overwrite)
		}
	case common.Delete:
		writeFields = func() error {
			return WriteString(w, op.Key)
		}
	case common.CreateNamespace, common.DeleteNamespace:
		writeFields = func() error {
			return nil
		}
	default:
		return fmt.Errorf("%w: cannot encode operation of type %T", ErrUnknownTag, req.Op)
	}

	if err := WriteString(w, req.Namespace); err != nil {
		return err
	}
	if err := WriteByte(w, byte(req.Op.Tag())); err != nil {
		return err
	}
	return writeFields()
}

func (b binarySerializerImpl) DecodeRequest(r io.Reader) (common.Request, error) {
	namespace, err := ReadStringLimit(r, b.maxStringBytes)
	if err != nil {
		return common.Request{}, fieldErr("namespace", err)
	}

	rawTag, err := ReadByte(r)
	if err != nil {
		return common.Request{}, fieldErr("tag", err)
	}

	// Nothing after an unknown tag is consumed
	tag := common.OpTag(rawTag)
	if !tag.Valid() {
		return common.Request{}, fmt.Errorf("%w: %d", ErrUnknownTag, rawTag)
	}

	var op common.Operation
	switch tag {
	case common.OpTRead:
		key, err := ReadStringLimit(r, b.maxStringBytes)
		if err != nil {
			return common.Request{}, fieldErr("read key", err)
		}
		op = common.Read{Key: key}
	case common.OpTWrite:
		key, err := ReadStringLimit(r, b.maxStringBytes)
		if err != nil {
			return common.Request{}, fieldErr("write key", err)
		}
		value, err := ReadStringLimit(r, b.maxStringBytes)
		if err != nil {
			return common.Request{}, fieldErr("write value", err)
		}
		overwrite, err := ReadBool(r)
		if err != nil {
			return common.Request{}, fieldErr("write overwrite", err)
		}
		op = common.Write{Key: key, Value: value, Overwrite: overwrite}
	case common.OpTDelete:
		key, err := ReadStringLimit(r, b.maxStringBytes)
		if err != nil {
			return common.Request{}, fieldErr("delete key", err)
		}
		op = common.Delete{Key: key}
	case common.OpTCreateNamespace:
		op = common.CreateNamespace{}
	case common.OpTDeleteNamespace:
		op = common.DeleteNamespace{}
	default:
		return common.Request{}, fmt.Errorf("%w: %d has no decoder", ErrUnknownTag, rawTag)
	}

	return common.Request{Namespace: namespace, Op: op}, nil
}

func (b binarySerializerImpl) EncodeResponse(w io.Writer, resp common.Response) error {
	if err := WriteBool(w, resp.Success); err != nil {
		return err
	}
	if err := WriteOptionalString(w, resp.Message); err != nil {
		return err
	}
	return WriteOptionalString(w, resp.Result)
}

func (b binarySerializerImpl) DecodeResponse(r io.Reader) (common.Response, error) {
	success, err := ReadBool(r)
	if err != nil {
		return common.Response{}, fieldErr("success", err)
	}
	message, err := ReadOptionalStringLimit(r, b.maxStringBytes)
	if err != nil {
		return common.Response{}, fieldErr("message", err)
	}
	result, err := ReadOptionalStringLimit(r, b.maxStringBytes)
	if err != nil {
		return common.Response{}, fieldErr("result", err)
	}
	return common.Response{Success: success, Message: message, Result: result}, nil
}

// --------------------------------------------------------------------------
// Size Helpers
// --------------------------------------------------------------------------

// RequestSize returns the number of bytes the binary encoding of req occupies
// (0 if the request has no encodable operation)
func RequestSize(req common.Request) int {
	size := StringSize(req.Namespace) + 1 // namespace + tag
	switch op := req.Op.(type) {
	case common.Read:
		size += StringSize(op.Key)
	case common.Write:
		size += StringSize(op.Key) + StringSize(op.Value) + 1
	case common.Delete:
		size += StringSize(op.Key)
	case common.CreateNamespace, common.DeleteNamespace:
	default:
		return 0
	}
	return size
}

// ResponseSize returns the number of bytes the binary encoding of resp occupies
func ResponseSize(resp common.Response) int {
	return 1 + OptionalStringSize(resp.Message) + OptionalStringSize(resp.Result)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// fieldErr adds the field name to codec errors. Errors of the underlying
// reader are returned unchanged.
func fieldErr(field string, err error) error {
	if ErrorKind(err) == "io" {
		return err
	}
	return fmt.Errorf("%s: %w", field, err)
}
