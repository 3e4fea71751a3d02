package common

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Request Structure
// --------------------------------------------------------------------------

// Request is a single operation scoped to one namespace.
// Which fields follow the namespace on the wire is determined by the operation's tag.
type Request struct {
	// Namespace identifies the logical partition of keys the operation is applied to
	Namespace string
	// Op is the operation to execute, one of Read, Write, Delete, CreateNamespace or DeleteNamespace
	Op Operation
}

// String returns a short human-readable description of the request (values are not included)
func (r Request) String() string {
	if r.Op == nil {
		return fmt.Sprintf("%s/<none>", r.Namespace)
	}
	switch op := r.Op.(type) {
	case Read:
		return fmt.Sprintf("%s/%s key=%q", r.Namespace, op.Tag(), op.Key)
	case Write:
		return fmt.Sprintf("%s/%s key=%q overwrite=%t", r.Namespace, op.Tag(), op.Key, op.Overwrite)
	case Delete:
		return fmt.Sprintf("%s/%s key=%q", r.Namespace, op.Tag(), op.Key)
	default:
		return fmt.Sprintf("%s/%s", r.Namespace, op.Tag())
	}
}

// Operation is the closed set of request variants.
// It is sealed: only the types in this package implement it.
type Operation interface {
	// Tag returns the wire tag of the operation
	Tag() OpTag
	isOperation()
}

// Read reads the value stored for Key
type Read struct {
	Key string
}

// Write stores Value for Key. If Overwrite is false, an existing value must not be replaced.
type Write struct {
	Key       string
	Value     string
	Overwrite bool
}

// Delete removes Key
type Delete struct {
	Key string
}

// CreateNamespace creates the request's namespace
type CreateNamespace struct{}

// DeleteNamespace deletes the request's namespace together with all of its keys
type DeleteNamespace struct{}

func (Read) Tag() OpTag            { return OpTRead }
func (Write) Tag() OpTag           { return OpTWrite }
func (Delete) Tag() OpTag          { return OpTDelete }
func (CreateNamespace) Tag() OpTag { return OpTCreateNamespace }
func (DeleteNamespace) Tag() OpTag { return OpTDeleteNamespace }

func (Read) isOperation()            {}
func (Write) isOperation()           {}
func (Delete) isOperation()          {}
func (CreateNamespace) isOperation() {}
func (DeleteNamespace) isOperation() {}

// --------------------------------------------------------------------------
// Request Factory Functions
// --------------------------------------------------------------------------

// NewReadRequest creates a new Read request
func NewReadRequest(namespace, key string) Request {
	return Request{Namespace: namespace, Op: Read{Key: key}}
}

// NewWriteRequest creates a new Write request
func NewWriteRequest(namespace, key, value string, overwrite bool) Request {
	return Request{Namespace: namespace, Op: Write{Key: key, Value: value, Overwrite: overwrite}}
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(namespace, key string) Request {
	return Request{Namespace: namespace, Op: Delete{Key: key}}
}

// NewCreateNamespaceRequest creates a new CreateNamespace request
func NewCreateNamespaceRequest(namespace string) Request {
	return Request{Namespace: namespace, Op: CreateNamespace{}}
}

// NewDeleteNamespaceRequest creates a new DeleteNamespace request
func NewDeleteNamespaceRequest(namespace string) Request {
	return Request{Namespace: namespace, Op: DeleteNamespace{}}
}

// --------------------------------------------------------------------------
// Response Structure
// --------------------------------------------------------------------------

// Response is the outcome of exactly one Request.
//
// By convention Message is only set on failure and Result only on a successful Read,
// but the wire format carries both independently of Success.
// Result must not be interpreted when Success is false.
type Response struct {
	Success bool    `json:"success"`
	Message *string `json:"message,omitempty"` // nil = absent
	Result  *string `json:"result,omitempty"`  // nil = absent
}

// String returns a short human-readable description of the response
func (r Response) String() string {
	s := fmt.Sprintf("success=%t", r.Success)
	if r.Message != nil {
		s += fmt.Sprintf(" message=%q", *r.Message)
	}
	if r.Result != nil {
		s += fmt.Sprintf(" result=%d bytes", len(*r.Result))
	}
	return s
}

// --------------------------------------------------------------------------
// Response Factory Functions
// --------------------------------------------------------------------------

// NewSuccessResponse creates a successful response without result
func NewSuccessResponse() Response {
	return Response{Success: true}
}

// NewResultResponse creates a successful response carrying the value of a read
func NewResultResponse(result string) Response {
	return Response{Success: true, Result: &result}
}

// NewFailureResponse creates a failed response with a human-readable reason
func NewFailureResponse(reason string) Response {
	return Response{Success: false, Message: &reason}
}

// --------------------------------------------------------------------------
// Operation Tag Definition
// --------------------------------------------------------------------------

// OpTag is the single byte on the wire identifying the request variant.
type OpTag uint8

const (
	OpTRead            OpTag = 1 // Read a key
	OpTWrite           OpTag = 2 // Write a key
	OpTDelete          OpTag = 3 // Delete a key
	OpTCreateNamespace OpTag = 4 // Create a namespace
	OpTDeleteNamespace OpTag = 5 // Delete a namespace
)

// Valid reports whether the tag is one of the defined request variants
func (t OpTag) Valid() bool {
	return t >= OpTRead && t <= OpTDeleteNamespace
}

// String returns the string representation of an OpTag.
func (t OpTag) String() string {
	switch t {
	case OpTRead:
		return "read"
	case OpTWrite:
		return "write"
	case OpTDelete:
		return "delete"
	case OpTCreateNamespace:
		return "createNamespace"
	case OpTDeleteNamespace:
		return "deleteNamespace"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}
