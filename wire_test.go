package axml

import (
	"encoding/binary"
	"unicode/utf16"
)

// wire builds little-endian test buffers.
type wire struct {
	b []byte
}

func (w *wire) u8(v uint8) {
	w.b = append(w.b, v)
}

func (w *wire) u16(v uint16) {
	w.b = binary.LittleEndian.AppendUint16(w.b, v)
}

func (w *wire) u32(v uint32) {
	w.b = binary.LittleEndian.AppendUint32(w.b, v)
}

func (w *wire) raw(b []byte) {
	w.b = append(w.b, b...)
}

func (w *wire) pad(n int) {
	w.b = append(w.b, make([]byte, n)...)
}

// poolChunk encodes a UTF-16 string pool chunk carrying the given
// strings, each with the customary NUL terminator.
func poolChunk(strs ...string) []byte {
	return poolChunkFlags(0, strs...)
}

func poolChunkFlags(flags uint32, strs ...string) []byte {
	var data wire
	offsets := make([]uint32, len(strs))
	for i, s := range strs {
		offsets[i] = uint32(len(data.b))
		units := utf16.Encode([]rune(s))
		data.u16(uint16(len(units)))
		for _, u := range units {
			data.u16(u)
		}
		data.u16(0)
	}

	const headerSize = 28
	stringsStart := headerSize + 4*len(strs)

	var w wire
	w.u16(chunkStringPool)
	w.u16(headerSize)
	w.u32(uint32(stringsStart + len(data.b)))
	w.u32(uint32(len(strs)))
	w.u32(0) // style count
	w.u32(flags)
	w.u32(uint32(stringsStart))
	w.u32(0) // styles start
	for _, off := range offsets {
		w.u32(off)
	}
	w.raw(data.b)
	return w.b
}

// rawPoolChunk encodes a pool whose single entry is given as raw string
// data bytes, for malformed-entry tests.
func rawPoolChunk(entry []byte) []byte {
	const headerSize = 28
	stringsStart := headerSize + 4

	var w wire
	w.u16(chunkStringPool)
	w.u16(headerSize)
	w.u32(uint32(stringsStart + len(entry)))
	w.u32(1)
	w.u32(0)
	w.u32(0)
	w.u32(uint32(stringsStart))
	w.u32(0)
	w.u32(0) // offset of the only entry
	w.raw(entry)
	return w.b
}

func nsChunk(typ uint16, prefix, uri uint32) []byte {
	var w wire
	w.u16(typ)
	w.u16(xmlNodeHeaderSize)
	w.u32(24)
	w.u32(1)        // line
	w.u32(NoString) // comment
	w.u32(prefix)
	w.u32(uri)
	return w.b
}

type testAttr struct {
	ns, name, raw uint32
	typ           uint8
	data          uint32
}

func startChunk(ns, name uint32, attrs ...testAttr) []byte {
	var w wire
	w.u16(chunkXmlTagStart)
	w.u16(xmlNodeHeaderSize)
	w.u32(uint32(xmlNodeHeaderSize + 20 + 20*len(attrs)))
	w.u32(2)        // line
	w.u32(NoString) // comment
	w.u32(ns)
	w.u32(name)
	w.u16(20) // attribute start
	w.u16(20) // attribute size
	w.u16(uint16(len(attrs)))
	w.u16(0) // id index
	w.u16(0) // class index
	w.u16(0) // style index
	for _, a := range attrs {
		w.u32(a.ns)
		w.u32(a.name)
		w.u32(a.raw)
		w.u16(8) // value size
		w.u8(0)  // res0
		w.u8(a.typ)
		w.u32(a.data)
	}
	return w.b
}

func endChunk(ns, name uint32) []byte {
	var w wire
	w.u16(chunkXmlTagEnd)
	w.u16(xmlNodeHeaderSize)
	w.u32(24)
	w.u32(3)
	w.u32(NoString)
	w.u32(ns)
	w.u32(name)
	return w.b
}

func cdataChunk(data uint32) []byte {
	var w wire
	w.u16(chunkXmlText)
	w.u16(xmlNodeHeaderSize)
	w.u32(28)
	w.u32(4)
	w.u32(NoString)
	w.u32(data)
	w.u16(8)
	w.u8(0)
	w.u8(TypeNull)
	w.u32(0)
	return w.b
}

func resourceMapChunk(ids ...uint32) []byte {
	var w wire
	w.u16(chunkResourceIds)
	w.u16(chunkHeaderSize)
	w.u32(uint32(chunkHeaderSize + 4*len(ids)))
	for _, id := range ids {
		w.u32(id)
	}
	return w.b
}

// docBytes wraps child chunks in the top-level xml document chunk.
func docBytes(chunks ...[]byte) []byte {
	var body wire
	for _, c := range chunks {
		body.raw(c)
	}

	var w wire
	w.u16(chunkXmlFile)
	w.u16(chunkHeaderSize)
	w.u32(uint32(chunkHeaderSize + len(body.b)))
	w.raw(body.b)
	return w.b
}

// scenarioStrings is the pool used by the end-to-end fixtures. Indices
// are referenced by number in the tests.
var scenarioStrings = []string{
	"android",    // 0
	"http://schemas.android.com/apk/res/android", // 1
	"package",         // 2
	"name",            // 3
	"manifest",        // 4
	"uses-permission", // 5
	"com.example",     // 6
	"X",               // 7
}

// scenarioDoc encodes:
//
//	<manifest package="com.example">
//	    <uses-permission android:name="X"/>
//	</manifest>
func scenarioDoc(extra ...[]byte) []byte {
	chunks := [][]byte{
		poolChunk(scenarioStrings...),
		nsChunk(chunkXmlNsStart, 0, 1),
		startChunk(NoString, 4, testAttr{ns: NoString, name: 2, raw: 6, typ: TypeString, data: 6}),
		startChunk(NoString, 5, testAttr{ns: 1, name: 3, raw: 7, typ: TypeString, data: 7}),
		endChunk(NoString, 5),
		endChunk(NoString, 4),
		nsChunk(chunkXmlNsEnd, 0, 1),
	}
	chunks = append(chunks, extra...)
	return docBytes(chunks...)
}
