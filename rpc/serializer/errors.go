package serializer

import (
	"errors"
)

// Decode failures. They are always returned wrapped with the name of the field
// that failed, so callers match them with errors.Is.
var (
	// ErrTruncated means fewer bytes were available than a fixed-size or length-prefixed field requires
	ErrTruncated = errors.New("truncated")
	// ErrInvalidEncoding means the bytes of a string field are not valid UTF-8
	ErrInvalidEncoding = errors.New("invalid utf-8 encoding")
	// ErrUnknownTag means the request tag byte is not one of the defined variants
	ErrUnknownTag = errors.New("unknown request tag")
	// ErrTooLarge means a declared string length exceeds the configured limit
	ErrTooLarge = errors.New("string too large")
)

// IsDesync reports whether err leaves the stream at an unknown position.
// The connection must be dropped: no further message can be read from it.
// ErrInvalidEncoding is not a desync by itself (the declared bytes were consumed),
// but the rest of the message was not read either, so callers usually close the stream anyway.
func IsDesync(err error) bool {
	return errors.Is(err, ErrTruncated) || errors.Is(err, ErrUnknownTag) || errors.Is(err, ErrTooLarge)
}

// ErrorKind returns a short name of the codec error kind of err, or "io" for everything else
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrTruncated):
		return "truncated"
	case errors.Is(err, ErrInvalidEncoding):
		return "invalid_encoding"
	case errors.Is(err, ErrUnknownTag):
		return "unknown_tag"
	case errors.Is(err, ErrTooLarge):
		return "too_large"
	default:
		return "io"
	}
}
