// Package xib parses Interface Builder documents and rewrites the launch
// screen nodes they contain.
package xib

import (
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

const idAttr = "id"

// FormatError reports a document that could not be parsed or serialized.
type FormatError struct {
	Line    int // 1-indexed, 0 when unknown
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("xib:%d: %s", e.Line, e.Message)
	}
	return "xib: " + e.Message
}

func (e *FormatError) Unwrap() error { return e.Err }

// Document is a parsed UI-definition document.
type Document struct {
	tree *etree.Document
}

// Parse decodes document text. Malformed XML and documents without a root
// element are rejected with a *FormatError.
func Parse(content []byte) (*Document, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(content); err != nil {
		fe := &FormatError{Message: err.Error(), Err: err}
		var se *xml.SyntaxError
		if errors.As(err, &se) {
			fe.Line = se.Line
			fe.Message = se.Msg
		}
		return nil, fe
	}
	if tree.Root() == nil {
		return nil, &FormatError{Message: "document has no root element"}
	}
	return &Document{tree: tree}, nil
}

// Serialize encodes the document back to text.
func (d *Document) Serialize() ([]byte, error) {
	out, err := d.tree.WriteToBytes()
	if err != nil {
		return nil, &FormatError{Message: "serialize: " + err.Error(), Err: err}
	}
	return out, nil
}

// ElementByID returns the first element in document order whose id
// attribute equals id, or nil. The tree is searched on every call.
func (d *Document) ElementByID(id string) *etree.Element {
	return findByID(d.tree.Root(), id)
}

func findByID(el *etree.Element, id string) *etree.Element {
	if el == nil {
		return nil
	}
	if el.SelectAttrValue(idAttr, "") == id {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}
