package axml

import (
	"errors"
	"fmt"
)

// ErrorKind classifies decode failures. Kinds satisfy the error interface
// so callers can match them with errors.Is against the error returned by
// Decode.
type ErrorKind int

const (
	// ErrUnexpectedEOF means the buffer ended before a structurally
	// required field.
	ErrUnexpectedEOF ErrorKind = iota + 1
	// ErrInvalidChunk means a chunk header is malformed or its sizes are
	// inconsistent with the surrounding buffer.
	ErrInvalidChunk
	// ErrUnexpectedChunk means a chunk appeared where the document
	// grammar forbids it, e.g. a second string pool.
	ErrUnexpectedChunk
	// ErrUnsupportedEncoding means the string pool uses 8-bit code units.
	ErrUnsupportedEncoding
	// ErrUnsupportedLength means a string length prefix uses the extended
	// two-unit form (length > 32767 code units).
	ErrUnsupportedLength
	// ErrInvalidString means the string pool contains malformed UTF-16.
	ErrInvalidString
	// ErrInvalidReference means a string pool index is out of range.
	ErrInvalidReference
	// ErrUnbalancedNamespace means namespace start/end chunks do not pair up.
	ErrUnbalancedNamespace
	// ErrMismatchedEndElement means an end-element chunk does not match
	// the innermost open element.
	ErrMismatchedEndElement
	// ErrMultipleRoots means the document closed more than one top-level
	// element.
	ErrMultipleRoots
	// ErrCDataOutsideElement means character data appeared with no open
	// element.
	ErrCDataOutsideElement
	// ErrUnclosedElement means the document ended with elements still open.
	ErrUnclosedElement
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnexpectedEOF:
		return "unexpected end of data"
	case ErrInvalidChunk:
		return "invalid chunk"
	case ErrUnexpectedChunk:
		return "unexpected chunk"
	case ErrUnsupportedEncoding:
		return "unsupported string encoding"
	case ErrUnsupportedLength:
		return "unsupported string length"
	case ErrInvalidString:
		return "invalid string data"
	case ErrInvalidReference:
		return "invalid string reference"
	case ErrUnbalancedNamespace:
		return "unbalanced namespace"
	case ErrMismatchedEndElement:
		return "mismatched end element"
	case ErrMultipleRoots:
		return "multiple root elements"
	case ErrCDataOutsideElement:
		return "cdata outside element"
	case ErrUnclosedElement:
		return "unclosed element"
	}
	return fmt.Sprintf("error kind %d", int(k))
}

func (k ErrorKind) Error() string {
	return "axml: " + k.String()
}

// Some samples have the manifest in plaintext, this is an error.
// 2c882a2376034ed401be082a42a21f0ac837689e7d3ab6be0afb82f44ca0b859
var ErrPlainTextManifest = errors.New("axml: xml is in plaintext, binary form expected")

// ParseError is the error type returned by Decode. Offset is the
// absolute byte offset where the problem was detected; ChunkType is the
// chunk being decoded at that point, or zero when no chunk applies.
type ParseError struct {
	Kind      ErrorKind
	Offset    int
	ChunkType uint16

	detail string
}

func (e *ParseError) Error() string {
	msg := e.Kind.String()
	if e.detail != "" {
		msg += ": " + e.detail
	}
	if e.ChunkType != 0 {
		return fmt.Sprintf("axml: %s (chunk 0x%04x, offset 0x%08x)", msg, e.ChunkType, e.Offset)
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("axml: %s (offset 0x%08x)", msg, e.Offset)
	}
	return "axml: " + msg
}

// Is reports kind equality so errors.Is(err, ErrInvalidChunk) works.
func (e *ParseError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

func parseErr(kind ErrorKind, offset int, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Kind:   kind,
		Offset: offset,
		detail: fmt.Sprintf(format, args...),
	}
}
