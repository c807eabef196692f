package axml

import "encoding/binary"

// reader is a bounds-checked sequential cursor over an immutable byte
// buffer. Every read advances the position by the read width; a read that
// would cross the end of the buffer fails with ErrUnexpectedEOF and does
// not advance. All multi-byte reads are little-endian.
//
// base is the absolute offset of data[0] in the original input, so that
// errors from sub-readers still report absolute offsets.
type reader struct {
	data []byte
	pos  int
	base int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

// offset is the absolute position in the original input.
func (r *reader) offset() int {
	return r.base + r.pos
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) need(n int, what string) error {
	if r.remaining() < n {
		return parseErr(ErrUnexpectedEOF, r.offset(), "need %d bytes for %s, have %d", n, what, r.remaining())
	}
	return nil
}

func (r *reader) readU8(what string) (uint8, error) {
	if err := r.need(1, what); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) readU16(what string) (uint16, error) {
	if err := r.need(2, what); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) readU32(what string) (uint32, error) {
	if err := r.need(4, what); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) readI32(what string) (int32, error) {
	v, err := r.readU32(what)
	return int32(v), err
}

// readBytes returns a view of the next n bytes. The buffer is never
// copied; callers must not modify the result.
func (r *reader) readBytes(n int, what string) ([]byte, error) {
	if err := r.need(n, what); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) skip(n int, what string) error {
	if err := r.need(n, what); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// seek moves the cursor to an absolute position within this reader's
// window. Positioning at len(data) is legal (end of window).
func (r *reader) seek(pos int, what string) error {
	if pos < 0 || pos > len(r.data) {
		return parseErr(ErrUnexpectedEOF, r.base+pos, "seek to %s past end of data", what)
	}
	r.pos = pos
	return nil
}

// sub returns a reader over data[start:end] whose errors report offsets
// relative to the original input.
func (r *reader) sub(start, end int, what string) (*reader, error) {
	if start < 0 || end < start || end > len(r.data) {
		return nil, parseErr(ErrUnexpectedEOF, r.base+start, "%s range [%d,%d) outside buffer of %d bytes", what, start, end, len(r.data))
	}
	return &reader{data: r.data[start:end], base: r.base + start}, nil
}
