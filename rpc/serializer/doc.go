// Package serializer implements the qdb binary wire format. It converts
// common.Request and common.Response values to and from byte streams.
//
// The package focuses on:
//   - Deterministic, length-unambiguous encoding of primitive fields
//   - A closed request tag scheme where unknown tags are hard decode failures
//   - Typed decode failures instead of generic errors
//
// Key Components:
//
//   - Primitive codec (primitives.go): bytes, length-prefixed strings (8 byte
//     little endian byte count + raw UTF-8) and optional strings (presence byte +
//     string). Strings are validated as UTF-8 when read.
//
//   - IRPCSerializer: Interface for reading and writing whole messages over an
//     io.Reader / io.Writer.
//
//   - binarySerializerImpl: The message codec. A request is the namespace, one
//     tag byte (1 read, 2 write, 3 delete, 4 create namespace, 5 delete namespace)
//     and the fields of that variant. A response is a success byte followed by the
//     optional message and the optional result.
//
// Errors:
//
//   - ErrTruncated: the source ended before a field was complete.
//   - ErrInvalidEncoding: a string field is not valid UTF-8.
//   - ErrUnknownTag: the request tag byte is not one of the defined variants.
//   - ErrTooLarge: a declared string length exceeds the configured limit.
//
// Errors of the underlying reader or writer are returned unchanged. Use IsDesync
// to decide whether the stream has to be dropped.
//
// Decoding is single-pass: a call consumes one message from the current position of
// the reader and either returns it complete or fails. Nothing is kept between calls.
//
// Thread Safety:
//
//	The serializer is stateless and safe for concurrent use across goroutines,
//	as long as every stream is driven by one call at a time.
//
// Usage:
//
//	s := serializer.NewBinarySerializer()
//	err := s.EncodeRequest(conn, common.NewReadRequest("ns1", "k"))
//	// ... flush ...
//	resp, err := s.DecodeResponse(conn)
package serializer
