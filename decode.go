// Package axml decodes Android's binary XML encoding, as used for
// compiled AndroidManifest.xml and compiled resource XML, into a
// document tree.
//
// The decoder implements the minimal amount of parsing needed to read
// useful information out of a compiled manifest without linking a
// resource table: resource-id references are surfaced raw, UTF-8 string
// pools and extended string lengths are reported as unsupported.
package axml

import "bytes"

// decoder drives one decode pass: it walks the chunk sequence, keeps the
// open-element and namespace stacks, and assembles the document. The
// explicit stacks (instead of recursive descent) keep adversarial
// nesting depth off the call stack.
type decoder struct {
	pool *StringPool
	doc  Document

	elems []*Element
	ns    []NamespaceBinding
}

// Decode parses a complete binary XML document from data. The buffer is
// only read, never retained; the returned Document owns all decoded
// state. The first structural error aborts the decode, there is no
// partial result.
func Decode(data []byte) (*Document, error) {
	if bytes.HasPrefix(data, []byte("<?xml ")) || bytes.HasPrefix(data, []byte("<manif")) {
		return nil, ErrPlainTextManifest
	}

	r := newReader(data)
	top, err := readChunkHeader(r)
	if err != nil {
		return nil, err
	}
	if top.typ != chunkXmlFile {
		return nil, &ParseError{
			Kind:      ErrUnexpectedChunk,
			Offset:    top.abs,
			ChunkType: top.typ,
			detail:    "top-level chunk is not an xml document",
		}
	}

	// Child chunks occupy the document chunk's payload. Everything past
	// top.end() is trailing garbage and deliberately ignored; broken
	// zip extraction often pads the entry.
	body, err := r.sub(top.start+int(top.headerSize), top.end(), "document body")
	if err != nil {
		return nil, err
	}

	d := &decoder{}
	for body.remaining() > 0 {
		h, err := readChunkHeader(body)
		if err != nil {
			return nil, err
		}

		cr, err := body.sub(h.start, h.end(), "chunk")
		if err != nil {
			return nil, err
		}

		if err := d.chunk(cr, h); err != nil {
			if pe, ok := err.(*ParseError); ok && pe.ChunkType == 0 {
				pe.ChunkType = h.typ
			}
			return nil, err
		}

		if err := body.seek(h.end(), "next chunk"); err != nil {
			return nil, err
		}
	}

	return d.finish(body.offset())
}

// chunk dispatches one chunk. cr spans the whole chunk, header included.
func (d *decoder) chunk(cr *reader, h chunkHeader) error {
	if h.typ == chunkStringPool {
		if d.pool != nil {
			return parseErr(ErrUnexpectedChunk, h.abs, "second string pool")
		}
		pool, err := decodeStringPool(cr, h)
		if err != nil {
			return err
		}
		d.pool = pool
		return nil
	}

	// The format defines the pool as the first chunk; anything that
	// references strings before it exists cannot be decoded.
	if d.pool == nil {
		return parseErr(ErrUnexpectedChunk, h.abs, "chunk 0x%04x before string pool", h.typ)
	}

	switch h.typ {
	case chunkResourceIds:
		return d.resourceMap(cr, h)
	case chunkXmlNsStart, chunkXmlNsEnd, chunkXmlTagStart, chunkXmlTagEnd, chunkXmlText:
		return d.xmlNode(cr, h)
	default:
		// Unknown chunk types are skipped, not rejected; the chunk type
		// set grows over Android releases.
		return nil
	}
}

func (d *decoder) resourceMap(cr *reader, h chunkHeader) error {
	payload := h.size - uint32(h.headerSize)
	if payload%4 != 0 {
		return parseErr(ErrInvalidChunk, h.abs, "resource map payload of %d bytes is not a multiple of 4", payload)
	}
	if err := cr.seek(int(h.headerSize), "resource map"); err != nil {
		return err
	}
	for i := uint32(0); i < payload/4; i++ {
		id, err := cr.readU32("resource id")
		if err != nil {
			return err
		}
		d.doc.ResourceIDs = append(d.doc.ResourceIDs, id)
	}
	return nil
}

// xmlNode handles the five XML node chunk types. They share a header
// carrying the source line number and a comment reference.
func (d *decoder) xmlNode(cr *reader, h chunkHeader) error {
	if h.headerSize < xmlNodeHeaderSize {
		return parseErr(ErrInvalidChunk, h.abs, "xml node header size %d below minimum %d", h.headerSize, xmlNodeHeaderSize)
	}

	if err := cr.seek(chunkHeaderSize, "xml node header"); err != nil {
		return err
	}
	line, err := cr.readU32("line number")
	if err != nil {
		return err
	}
	if _, err := cr.readU32("comment"); err != nil {
		return err
	}

	// The node body begins at headerSize even if the header grows
	// extension fields we do not interpret.
	if err := cr.seek(int(h.headerSize), "xml node body"); err != nil {
		return err
	}

	switch h.typ {
	case chunkXmlNsStart:
		return d.startNamespace(cr)
	case chunkXmlNsEnd:
		return d.endNamespace(cr, h)
	case chunkXmlTagStart:
		return d.startElement(cr, h, line)
	case chunkXmlTagEnd:
		return d.endElement(cr, h)
	default: // chunkXmlText
		return d.cdata(cr, h, line)
	}
}

func (d *decoder) startNamespace(cr *reader) error {
	prefix, err := cr.readU32("namespace prefix")
	if err != nil {
		return err
	}
	uri, err := cr.readU32("namespace uri")
	if err != nil {
		return err
	}
	if err := d.checkRef(prefix, true, cr, "namespace prefix"); err != nil {
		return err
	}
	if err := d.checkRef(uri, false, cr, "namespace uri"); err != nil {
		return err
	}

	b := NamespaceBinding{Prefix: prefix, URI: uri}
	d.ns = append(d.ns, b)
	d.doc.Namespaces = append(d.doc.Namespaces, b)
	return nil
}

func (d *decoder) endNamespace(cr *reader, h chunkHeader) error {
	prefix, err := cr.readU32("namespace prefix")
	if err != nil {
		return err
	}
	uri, err := cr.readU32("namespace uri")
	if err != nil {
		return err
	}

	if len(d.ns) == 0 {
		return parseErr(ErrUnbalancedNamespace, h.abs, "end namespace with no namespace open")
	}
	open := d.ns[len(d.ns)-1]
	if open.Prefix != prefix || open.URI != uri {
		return parseErr(ErrUnbalancedNamespace, h.abs, "end namespace %d/%d does not match open %d/%d", prefix, uri, open.Prefix, open.URI)
	}
	d.ns = d.ns[:len(d.ns)-1]
	return nil
}

func (d *decoder) startElement(cr *reader, h chunkHeader, line uint32) error {
	ns, err := cr.readU32("element namespace")
	if err != nil {
		return err
	}
	name, err := cr.readU32("element name")
	if err != nil {
		return err
	}
	attrStart, err := cr.readU16("attribute start")
	if err != nil {
		return err
	}
	attrSize, err := cr.readU16("attribute size")
	if err != nil {
		return err
	}
	attrCount, err := cr.readU16("attribute count")
	if err != nil {
		return err
	}
	// id/class/style attribute indices; not needed for manifests.
	if err := cr.skip(2*3, "attribute indices"); err != nil {
		return err
	}

	if err := d.checkRef(ns, true, cr, "element namespace"); err != nil {
		return err
	}
	if err := d.checkRef(name, false, cr, "element name"); err != nil {
		return err
	}

	e := &Element{Namespace: ns, Name: name, Line: line}
	if attrCount > 0 {
		if attrSize < 20 {
			return parseErr(ErrInvalidChunk, h.abs, "attribute size %d below minimum 20", attrSize)
		}
		e.Attrs = make([]Attribute, 0, attrCount)
		base := int(h.headerSize) + int(attrStart)
		for i := 0; i < int(attrCount); i++ {
			// Records may be larger than the fields we read; position
			// each one by its declared size so extensions are skipped.
			if err := cr.seek(base+i*int(attrSize), "attribute record"); err != nil {
				return err
			}
			a, err := d.attribute(cr)
			if err != nil {
				return err
			}
			e.Attrs = append(e.Attrs, a)
		}
	}

	d.elems = append(d.elems, e)
	return nil
}

func (d *decoder) attribute(cr *reader) (Attribute, error) {
	var a Attribute
	var err error

	if a.Namespace, err = cr.readU32("attribute namespace"); err != nil {
		return a, err
	}
	if a.Name, err = cr.readU32("attribute name"); err != nil {
		return a, err
	}
	if a.RawValue, err = cr.readU32("attribute raw value"); err != nil {
		return a, err
	}
	if a.Value, err = decodeTypedValue(cr, d.pool); err != nil {
		return a, err
	}

	if err := d.checkRef(a.Namespace, true, cr, "attribute namespace"); err != nil {
		return a, err
	}
	if err := d.checkRef(a.Name, false, cr, "attribute name"); err != nil {
		return a, err
	}
	if err := d.checkRef(a.RawValue, true, cr, "attribute raw value"); err != nil {
		return a, err
	}
	return a, nil
}

func (d *decoder) endElement(cr *reader, h chunkHeader) error {
	ns, err := cr.readU32("element namespace")
	if err != nil {
		return err
	}
	name, err := cr.readU32("element name")
	if err != nil {
		return err
	}

	if len(d.elems) == 0 {
		return parseErr(ErrMismatchedEndElement, h.abs, "end element with no element open")
	}
	e := d.elems[len(d.elems)-1]
	if e.Namespace != ns || e.Name != name {
		return parseErr(ErrMismatchedEndElement, h.abs, "end element %d/%d does not match open %d/%d", ns, name, e.Namespace, e.Name)
	}
	d.elems = d.elems[:len(d.elems)-1]

	if len(d.elems) > 0 {
		parent := d.elems[len(d.elems)-1]
		parent.Children = append(parent.Children, e)
		return nil
	}
	if d.doc.Root != nil {
		return parseErr(ErrMultipleRoots, h.abs, "document already has a root element")
	}
	d.doc.Root = e
	return nil
}

func (d *decoder) cdata(cr *reader, h chunkHeader, line uint32) error {
	data, err := cr.readU32("cdata")
	if err != nil {
		return err
	}
	if err := d.checkRef(data, false, cr, "cdata"); err != nil {
		return err
	}
	value, err := decodeTypedValue(cr, d.pool)
	if err != nil {
		return err
	}

	if len(d.elems) == 0 {
		return parseErr(ErrCDataOutsideElement, h.abs, "character data with no element open")
	}
	cur := d.elems[len(d.elems)-1]
	cur.Children = append(cur.Children, &CharData{Data: data, Line: line, Value: value})
	return nil
}

func (d *decoder) checkRef(idx uint32, optional bool, cr *reader, what string) error {
	if !d.pool.contains(idx, optional) {
		return parseErr(ErrInvalidReference, cr.offset(), "%s index %d out of range (pool has %d)", what, idx, d.pool.Len())
	}
	return nil
}

// finish validates the terminal state: all elements closed, all
// namespaces unwound, exactly one root.
func (d *decoder) finish(end int) (*Document, error) {
	if len(d.elems) > 0 {
		return nil, parseErr(ErrUnclosedElement, end, "%d elements still open at end of document", len(d.elems))
	}
	if len(d.ns) > 0 {
		return nil, parseErr(ErrUnbalancedNamespace, end, "%d namespaces still open at end of document", len(d.ns))
	}
	if d.doc.Root == nil {
		return nil, parseErr(ErrUnexpectedEOF, end, "document ended without a root element")
	}
	d.doc.Pool = d.pool
	return &d.doc, nil
}
