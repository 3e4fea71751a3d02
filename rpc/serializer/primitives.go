package serializer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// --------------------------------------------------------------------------
// Primitive wire format
// --------------------------------------------------------------------------
//
//	byte            : 1 raw byte
//	string          : 8 bytes little endian unsigned length (in bytes) + raw UTF-8 bytes
//	optional string : 1 byte presence flag (0 = absent, non-zero = present) + string if present
//
// The width and byte order of the length prefix are fixed for the lifetime of the protocol.

const (
	// StringLenSize is the size of the length prefix of a string
	StringLenSize = 8

	// strings up to this size are read with a single exact allocation,
	// larger ones are read incrementally so a bogus length on a short stream
	// does not allocate the declared size up front
	exactReadLimit = 64 * 1024

	presenceAbsent  byte = 0
	presencePresent byte = 1
)

// --------------------------------------------------------------------------
// Write side
// --------------------------------------------------------------------------

// WriteByte writes exactly one byte
func WriteByte(w io.Writer, b byte) error {
	buf := [1]byte{b}
	_, err := w.Write(buf[:])
	return err
}

// WriteBool writes a boolean as one byte (1 = true, 0 = false)
func WriteBool(w io.Writer, v bool) error {
	if v {
		return WriteByte(w, 1)
	}
	return WriteByte(w, 0)
}

// WriteString writes the byte length of s as 8 byte little endian integer followed by the bytes of s
func WriteString(w io.Writer, s string) error {
	var hdr [StringLenSize]byte
	binary.LittleEndian.PutUint64(hdr[:], uint64(len(s)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	_, err := io.WriteString(w, s)
	return err
}

// WriteOptionalString writes a presence byte followed by the string only if s is not nil
func WriteOptionalString(w io.Writer, s *string) error {
	if s == nil {
		return WriteByte(w, presenceAbsent)
	}
	if err := WriteByte(w, presencePresent); err != nil {
		return err
	}
	return WriteString(w, *s)
}

// StringSize returns the number of bytes WriteString produces for s
func StringSize(s string) int {
	return StringLenSize + len(s)
}

// OptionalStringSize returns the number of bytes WriteOptionalString produces for s
func OptionalStringSize(s *string) int {
	if s == nil {
		return 1
	}
	return 1 + StringSize(*s)
}

// --------------------------------------------------------------------------
// Read side
// --------------------------------------------------------------------------

// ReadByte reads exactly one byte
func ReadByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if err := readFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadBool reads one byte, any non-zero value is true
func ReadBool(r io.Reader) (bool, error) {
	b, err := ReadByte(r)
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// ReadString reads a length prefixed UTF-8 string without size limit
func ReadString(r io.Reader) (string, error) {
	return ReadStringLimit(r, 0)
}

// ReadStringLimit reads a length prefixed UTF-8 string.
// If maxBytes is not 0, a declared length above maxBytes fails with ErrTooLarge
// before any of the payload is consumed.
func ReadStringLimit(r io.Reader, maxBytes uint64) (string, error) {
	var hdr [StringLenSize]byte
	if err := readFull(r, hdr[:]); err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint64(hdr[:])

	if maxBytes > 0 && n > maxBytes {
		return "", fmt.Errorf("%w: declared %d bytes, limit is %d", ErrTooLarge, n, maxBytes)
	}
	if n > math.MaxInt64 {
		return "", fmt.Errorf("%w: declared %d bytes", ErrTooLarge, n)
	}

	var data []byte
	if n <= exactReadLimit {
		data = make([]byte, n)
		if err := readFull(r, data); err != nil {
			return "", err
		}
	} else {
		var buf bytes.Buffer
		buf.Grow(exactReadLimit)
		copied, err := io.CopyN(&buf, r, int64(n))
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return "", fmt.Errorf("%w: declared %d bytes, got %d", ErrTruncated, n, copied)
			}
			return "", err
		}
		data = buf.Bytes()
	}

	if !utf8.Valid(data) {
		return "", ErrInvalidEncoding
	}
	return string(data), nil
}

// ReadOptionalString reads a presence byte and, if present, a string without size limit
func ReadOptionalString(r io.Reader) (*string, error) {
	return ReadOptionalStringLimit(r, 0)
}

// ReadOptionalStringLimit reads a presence byte and, if present, a string (see ReadStringLimit)
func ReadOptionalStringLimit(r io.Reader, maxBytes uint64) (*string, error) {
	present, err := ReadByte(r)
	if err != nil {
		return nil, err
	}
	if present == presenceAbsent {
		return nil, nil
	}
	s, err := ReadStringLimit(r, maxBytes)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// readFull fills buf completely. A short read is reported as ErrTruncated,
// all other errors of the reader are returned unchanged.
func readFull(r io.Reader, buf []byte) error {
	n, err := io.ReadFull(r, buf)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: need %d bytes, got %d", ErrTruncated, len(buf), n)
	}
	return err
}
