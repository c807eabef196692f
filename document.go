package axml

// Node is one node of the decoded tree, either *Element or *CharData.
type Node interface {
	node()
}

// Attribute is one attribute record, attached to exactly one element in
// the order encountered. Namespace and RawValue may be NoString.
type Attribute struct {
	Namespace uint32
	Name      uint32
	RawValue  uint32
	Value     TypedValue
}

// Element is a decoded element node. Name indices resolve through the
// document's string pool; the node itself holds no text. Children keep
// document order. Elements are immutable once Decode returns.
type Element struct {
	Namespace uint32 // NoString when the element has no namespace
	Name      uint32
	Line      uint32
	Attrs     []Attribute
	Children  []Node
}

func (*Element) node() {}

// CharData is a text/CDATA node.
type CharData struct {
	Data  uint32
	Line  uint32
	Value TypedValue
}

func (*CharData) node() {}

// NamespaceBinding is one prefix-to-URI binding, recorded in the order
// the bindings were opened.
type NamespaceBinding struct {
	Prefix uint32 // NoString for a default namespace
	URI    uint32
}

// Document is a fully decoded binary XML document. It owns the string
// pool and the element tree; after Decode returns nothing is mutated, so
// a Document may be shared freely between goroutines.
type Document struct {
	Pool *StringPool
	Root *Element

	// Namespaces lists every binding opened in the document, in order.
	Namespaces []NamespaceBinding

	// ResourceIDs is the raw resource map when the document carries one.
	// The ids are not resolved to names.
	ResourceIDs []uint32
}

// Get resolves a string index through the document's pool.
func (d *Document) Get(idx uint32) (string, error) {
	return d.Pool.Get(idx)
}

// str resolves an index that Decode already validated.
func (d *Document) str(idx uint32) string {
	s, _ := d.Pool.Get(idx)
	return s
}

// Name returns the element's local name.
func (d *Document) Name(e *Element) string {
	return d.str(e.Name)
}

// Namespace returns the element's namespace URI, or "" when it has none.
func (d *Document) Namespace(e *Element) string {
	return d.str(e.Namespace)
}

// Text returns the content of a text node.
func (d *Document) Text(c *CharData) string {
	return d.str(c.Data)
}

// Attr returns the first attribute on e with the given namespace URI and
// local name, or nil. Pass space == "" for attributes without a
// namespace. Attribute counts per element are small, so this is a linear
// scan.
func (d *Document) Attr(e *Element, space, local string) *Attribute {
	for i := range e.Attrs {
		a := &e.Attrs[i]
		if d.str(a.Name) == local && d.str(a.Namespace) == space {
			return a
		}
	}
	return nil
}

// AttrValue is Attr with the typed value rendered to text.
func (d *Document) AttrValue(e *Element, space, local string) (string, bool) {
	a := d.Attr(e, space, local)
	if a == nil {
		return "", false
	}
	return a.Value.String(d.Pool), true
}

// Prefix returns the prefix bound to the namespace URI, if any binding
// in the document declared one.
func (d *Document) Prefix(uri string) (string, bool) {
	for _, ns := range d.Namespaces {
		if d.str(ns.URI) == uri && ns.Prefix != NoString {
			return d.str(ns.Prefix), true
		}
	}
	return "", false
}

// Walk visits every node depth first, children in document order. depth
// is 0 for the root. Traversal stops early when fn returns false.
func (d *Document) Walk(fn func(n Node, depth int) bool) {
	if d.Root != nil {
		walkNode(d.Root, 0, fn)
	}
}

func walkNode(n Node, depth int, fn func(Node, int) bool) bool {
	if !fn(n, depth) {
		return false
	}
	if e, ok := n.(*Element); ok {
		for _, c := range e.Children {
			if !walkNode(c, depth+1, fn) {
				return false
			}
		}
	}
	return true
}
