package axml

import "unicode/utf16"

const (
	stringFlagSorted = 0x00000001
	stringFlagUtf8   = 0x00000100
)

// NoString is the wire sentinel (-1) for an absent string reference.
const NoString = 0xFFFFFFFF

// StringPool is the document's table of decoded strings. Every element,
// attribute and text node refers to it by index. It is built once per
// document and immutable afterwards.
type StringPool struct {
	strings []string
}

func (p *StringPool) Len() int {
	return len(p.strings)
}

// Get resolves a string index. The NoString sentinel resolves to the
// empty string; any other out-of-range index is an error.
func (p *StringPool) Get(idx uint32) (string, error) {
	if idx == NoString {
		return "", nil
	}
	if idx >= uint32(len(p.strings)) {
		return "", parseErr(ErrInvalidReference, -1, "string index %d out of range (pool has %d)", idx, len(p.strings))
	}
	return p.strings[idx], nil
}

// contains reports whether idx is resolvable, treating NoString as valid
// when optional is set.
func (p *StringPool) contains(idx uint32, optional bool) bool {
	if idx == NoString {
		return optional
	}
	return idx < uint32(len(p.strings))
}

// decodeStringPool decodes a string pool chunk. cr spans the whole chunk,
// header included, so the wire format's chunk-relative offsets can be
// used as reader positions directly.
//
// Only UTF-16 pools are handled; the UTF-8 pool flag and the extended
// (>32767 code units) length form are reported as unsupported. Style
// runs are not needed for manifest attribute extraction and are skipped.
func decodeStringPool(cr *reader, h chunkHeader) (*StringPool, error) {
	if err := cr.seek(chunkHeaderSize, "string pool header"); err != nil {
		return nil, err
	}

	stringCount, err := cr.readU32("string count")
	if err != nil {
		return nil, err
	}
	if _, err = cr.readU32("style count"); err != nil {
		return nil, err
	}
	flags, err := cr.readU32("string pool flags")
	if err != nil {
		return nil, err
	}
	stringsStart, err := cr.readU32("strings start")
	if err != nil {
		return nil, err
	}
	if _, err = cr.readU32("styles start"); err != nil {
		return nil, err
	}

	if flags&stringFlagUtf8 != 0 {
		return nil, parseErr(ErrUnsupportedEncoding, h.abs, "utf8 string pool")
	}

	// Offset table sits right after the header; string data is at
	// stringsStart, both relative to the chunk start.
	if uint64(stringsStart) < uint64(h.headerSize)+4*uint64(stringCount) {
		return nil, parseErr(ErrInvalidChunk, h.abs, "string data at %d overlaps offset table for %d strings", stringsStart, stringCount)
	}
	if uint64(stringsStart) > uint64(h.size) {
		return nil, parseErr(ErrInvalidChunk, h.abs, "string data start %d beyond chunk size %d", stringsStart, h.size)
	}

	if err := cr.seek(int(h.headerSize), "string offset table"); err != nil {
		return nil, err
	}
	offsets := make([]uint32, stringCount)
	for i := range offsets {
		if offsets[i], err = cr.readU32("string offset"); err != nil {
			return nil, err
		}
	}

	pool := &StringPool{strings: make([]string, 0, stringCount)}
	for _, off := range offsets {
		s, err := decodeString16(cr, int(stringsStart), off)
		if err != nil {
			return nil, err
		}
		pool.strings = append(pool.strings, s)
	}
	return pool, nil
}

// decodeString16 decodes one UTF-16 pool entry: a 16-bit code unit count
// followed by that many little-endian units. The terminating NUL after
// the units is not part of the count and is ignored.
func decodeString16(cr *reader, dataStart int, off uint32) (string, error) {
	if err := cr.seek(dataStart+int(off), "string entry"); err != nil {
		return "", err
	}

	units, err := cr.readU16("string length")
	if err != nil {
		return "", err
	}
	if units&0x8000 != 0 {
		return "", parseErr(ErrUnsupportedLength, cr.offset()-2, "string length prefix 0x%04x uses the extended form", units)
	}

	raw, err := cr.readBytes(int(units)*2, "string data")
	if err != nil {
		return "", err
	}

	buf := make([]uint16, units)
	for i := range buf {
		buf[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
	}

	s, ok := decodeUTF16(buf)
	if !ok {
		return "", parseErr(ErrInvalidString, cr.offset()-len(raw), "unpaired utf16 surrogate")
	}
	return s, nil
}

// decodeUTF16 decodes with strict surrogate pairing, unlike
// utf16.Decode which substitutes U+FFFD.
func decodeUTF16(units []uint16) (string, bool) {
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case u >= 0xD800 && u < 0xDC00:
			if i+1 == len(units) {
				return "", false
			}
			lo := units[i+1]
			if lo < 0xDC00 || lo >= 0xE000 {
				return "", false
			}
			runes = append(runes, utf16.DecodeRune(rune(u), rune(lo)))
			i++
		case u >= 0xDC00 && u < 0xE000:
			return "", false
		default:
			runes = append(runes, rune(u))
		}
	}
	return string(runes), true
}
