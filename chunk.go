package axml

const (
	chunkNull        = 0x0000
	chunkStringPool  = 0x0001
	chunkTable       = 0x0002
	chunkXmlFile     = 0x0003
	chunkResourceIds = 0x0180

	chunkMaskXml     = 0x0100
	chunkXmlNsStart  = 0x0100
	chunkXmlNsEnd    = 0x0101
	chunkXmlTagStart = 0x0102
	chunkXmlTagEnd   = 0x0103
	chunkXmlText     = 0x0104

	// Every chunk starts with u16 type, u16 header size, u32 total size.
	chunkHeaderSize = 8

	// XML node chunks additionally carry a line number and a comment
	// reference in their header.
	xmlNodeHeaderSize = 16
)

// chunkHeader describes one chunk. start/end delimit the whole chunk
// (header included) within the reader it was parsed from; abs is the
// absolute offset of the chunk in the original input.
type chunkHeader struct {
	typ        uint16
	headerSize uint16
	size       uint32

	start int
	abs   int
}

func (h *chunkHeader) end() int {
	return h.start + int(h.size)
}

// readChunkHeader parses the common chunk prefix at the cursor and
// validates the sizing invariants: the header must be at least 8 bytes,
// must fit inside the chunk, and the chunk must fit inside the remaining
// buffer. The cursor ends up right after the 8-byte prefix; the caller
// advances to the next chunk with h.end() regardless of how much of the
// payload it consumed, so trailing padding or extension fields are
// skipped rather than rejected.
func readChunkHeader(r *reader) (chunkHeader, error) {
	h := chunkHeader{start: r.pos, abs: r.offset()}

	var err error
	if h.typ, err = r.readU16("chunk type"); err != nil {
		return h, err
	}
	if h.headerSize, err = r.readU16("chunk header size"); err != nil {
		return h, err
	}
	if h.size, err = r.readU32("chunk size"); err != nil {
		return h, err
	}

	switch {
	case h.headerSize < chunkHeaderSize:
		err = parseErr(ErrInvalidChunk, h.abs, "header size %d below minimum %d", h.headerSize, chunkHeaderSize)
	case uint32(h.headerSize) > h.size:
		err = parseErr(ErrInvalidChunk, h.abs, "header size %d exceeds chunk size %d", h.headerSize, h.size)
	case int64(h.size) > int64(len(r.data)-h.start):
		err = parseErr(ErrInvalidChunk, h.abs, "chunk size %d exceeds %d remaining bytes", h.size, len(r.data)-h.start)
	}
	if err != nil {
		err.(*ParseError).ChunkType = h.typ
		return h, err
	}
	return h, nil
}
