package axml

import (
	"bytes"
	"encoding/xml"
	"errors"
)

// TokenEncoder is the sink EncodeDoc renders into. Encoder from the
// encoding/xml package satisfies it.
type TokenEncoder interface {
	EncodeToken(t xml.Token) error
	Flush() error
}

// EncodeDoc writes the document as a token stream, resolving every
// string index through the pool. Namespace URIs are emitted as token
// name spaces and left to the encoder to render.
func EncodeDoc(d *Document, enc TokenEncoder) error {
	if d == nil || d.Root == nil {
		return errors.New("axml: cannot encode empty document")
	}

	defer enc.Flush()

	if err := encodeElement(d, d.Root, enc); err != nil {
		return err
	}
	return enc.Flush()
}

func encodeElement(d *Document, e *Element, enc TokenEncoder) error {
	name := xml.Name{Space: d.str(e.Namespace), Local: d.str(e.Name)}

	tok := xml.StartElement{Name: name}
	for _, a := range e.Attrs {
		tok.Attr = append(tok.Attr, xml.Attr{
			Name:  xml.Name{Space: d.str(a.Namespace), Local: d.str(a.Name)},
			Value: a.Value.String(d.Pool),
		})
	}
	if err := enc.EncodeToken(tok); err != nil {
		return err
	}

	for _, c := range e.Children {
		switch n := c.(type) {
		case *Element:
			if err := encodeElement(d, n, enc); err != nil {
				return err
			}
		case *CharData:
			if err := enc.EncodeToken(xml.CharData(d.Text(n))); err != nil {
				return err
			}
		}
	}

	return enc.EncodeToken(xml.EndElement{Name: name})
}

// XML renders the document as indented textual XML.
func (d *Document) XML() (string, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := EncodeDoc(d, enc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
