package store

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the generic interface for interacting with a namespaced key–value store.
// Every key lives in exactly one namespace; a namespace has to be created before keys can be written to it.
// All operations return a *Error (nil on success).
type IStore interface {
	// Read returns the value for a key.
	// Fails with RetCNamespaceNotFound or RetCKeyNotFound.
	Read(namespace, key string) (value string, err error)
	// Write inserts or updates a key–value pair.
	// If overwrite is false and the key already exists, the old value is kept and RetCKeyExists is returned.
	Write(namespace, key, value string, overwrite bool) (err error)
	// Delete deletes a key–value pair.
	// Fails with RetCNamespaceNotFound or RetCKeyNotFound.
	Delete(namespace, key string) (err error)
	// CreateNamespace creates an empty namespace.
	// Fails with RetCNamespaceExists if the namespace already exists.
	CreateNamespace(namespace string) (err error)
	// DeleteNamespace deletes a namespace and all keys in it.
	// Fails with RetCNamespaceNotFound.
	DeleteNamespace(namespace string) (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// NewError creates a new store Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Code returns the RetCode of err if it is (or wraps) a *Error,
// RetCSuccess for nil and RetCInternalError for any other error.
func Code(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return RetCInternalError
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess           RetCode = iota // 0: Command executed successfully.
	RetCInternalError                    // 1: Command failed due to an internal error.
	RetCInvalidArgument                  // 2: A namespace or key is not acceptable.
	RetCNamespaceNotFound                // 3: The namespace does not exist.
	RetCNamespaceExists                  // 4: The namespace already exists.
	RetCKeyNotFound                      // 5: The key does not exist.
	RetCKeyExists                        // 6: The key exists and overwriting was not allowed.
	RetCRemote                           // 7: A remote store reported a failure (see message).
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "success"
	case RetCInternalError:
		return "internal error"
	case RetCInvalidArgument:
		return "invalid argument"
	case RetCNamespaceNotFound:
		return "namespace not found"
	case RetCNamespaceExists:
		return "namespace exists"
	case RetCKeyNotFound:
		return "key not found"
	case RetCKeyExists:
		return "key exists"
	case RetCRemote:
		return "remote error"
	default:
		return fmt.Sprintf("unknown(%d)", uint64(c))
	}
}
