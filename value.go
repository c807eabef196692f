package axml

import (
	"fmt"
	"math"
	"strconv"
)

// Typed value tags from the resource wire format.
const (
	TypeNull      = 0x00
	TypeReference = 0x01
	TypeAttribute = 0x02
	TypeString    = 0x03
	TypeFloat     = 0x04
	TypeDimension = 0x05
	TypeFraction  = 0x06
	TypeIntDec    = 0x10
	TypeIntHex    = 0x11
	TypeIntBool   = 0x12

	TypeColorArgb8 = 0x1c
	TypeColorRgb8  = 0x1d
	TypeColorArgb4 = 0x1e
	TypeColorRgb4  = 0x1f
)

// TypedValue is an attribute's 8-byte tagged value. Unrecognized tags
// are kept verbatim (raw tag plus raw payload) rather than rejected, so
// nothing is lost on manifests produced by newer toolchains.
//
// TypeReference payloads stay raw 32-bit resource identifiers; resolving
// them needs the resources.arsc table, which this package deliberately
// does not link.
type TypedValue struct {
	Type uint8
	Data uint32
}

// decodeTypedValue reads the wire record {size u16, res0 u8, type u8,
// data u32}. String references are validated against the pool here so a
// decoded document can never hold a dangling index.
func decodeTypedValue(cr *reader, pool *StringPool) (TypedValue, error) {
	var v TypedValue

	start := cr.offset()
	size, err := cr.readU16("value size")
	if err != nil {
		return v, err
	}
	if size < 8 {
		return v, parseErr(ErrInvalidChunk, start, "typed value size %d below minimum 8", size)
	}
	if _, err = cr.readU8("value res0"); err != nil {
		return v, err
	}
	if v.Type, err = cr.readU8("value type"); err != nil {
		return v, err
	}
	if v.Data, err = cr.readU32("value data"); err != nil {
		return v, err
	}

	if v.Type == TypeString && !pool.contains(v.Data, false) {
		return v, parseErr(ErrInvalidReference, start, "string value index %d out of range (pool has %d)", v.Data, pool.Len())
	}
	return v, nil
}

func (v TypedValue) IsNull() bool {
	return v.Type == TypeNull
}

// Bool interprets the payload as a boolean; meaningful for TypeIntBool.
func (v TypedValue) Bool() bool {
	return v.Data != 0
}

// Float reinterprets the payload as an IEEE-754 single; meaningful for
// TypeFloat.
func (v TypedValue) Float() float32 {
	return math.Float32frombits(v.Data)
}

// String renders the value in the textual form aapt would have written.
// Unresolved resource references come out as @0x%08x; unknown tags fall
// back to the signed decimal payload.
func (v TypedValue) String(pool *StringPool) string {
	switch v.Type {
	case TypeNull:
		return ""
	case TypeString:
		s, _ := pool.Get(v.Data)
		return s
	case TypeIntBool:
		return strconv.FormatBool(v.Bool())
	case TypeIntHex:
		return fmt.Sprintf("0x%x", v.Data)
	case TypeFloat:
		return fmt.Sprintf("%g", v.Float())
	case TypeReference:
		return fmt.Sprintf("@0x%08x", v.Data)
	default:
		return strconv.FormatInt(int64(int32(v.Data)), 10)
	}
}
