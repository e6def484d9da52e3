package graph

import "strings"

// Attr is a non-structural attribute of an element, keyed by its resolved
// qualified name.
type Attr struct {
	QName string
	Value string
}

// Element is the format-neutral tree both front ends produce. XML elements
// and JSON-LD keys normalize into the same shape so that one traversal
// serves both formats.
type Element struct {
	QName string
	// Type is the resolved xsi:type or @type qname, if present.
	Type string
	// ID is the natural identifier (structures:id, or structures:uri / @id
	// on an element with content).
	ID string
	// Ref points at another element's ID (structures:ref, or structures:uri
	// / @id on an element without content).
	Ref string
	// Metadata holds structures:metadata / @metadata references.
	Metadata []string
	Attrs    []Attr
	// Text is the character data of an XML element, empty when it is only
	// whitespace.
	Text string
	// Value is the typed literal of a JSON-LD leaf (string, json.Number or
	// bool). XML leaves only set Text.
	Value    any
	Children []*Element
	// Line is the 1-based source line, 0 when unknown.
	Line int
}

// IsReference reports whether the element only points at another element.
func (e *Element) IsReference() bool {
	return e.Ref != "" && e.ID == "" && len(e.Children) == 0 && !e.HasValue()
}

// HasValue reports whether the element carries literal content.
func (e *Element) HasValue() bool {
	return e.Value != nil || e.Text != ""
}

// Literal returns the element's literal content.
func (e *Element) Literal() any {
	if e.Value != nil {
		return e.Value
	}
	return e.Text
}

// IsLeaf reports whether the element holds only literal content.
func (e *Element) IsLeaf() bool {
	return len(e.Children) == 0 && len(e.Attrs) == 0 && e.ID == "" && e.Ref == ""
}

// ChildrenNamed returns the direct children with the given qname.
func (e *Element) ChildrenNamed(qname string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.QName == qname {
			out = append(out, c)
		}
	}
	return out
}

// Attr returns the value of the attribute with the given qname.
func (e *Element) Attr(qname string) (string, bool) {
	for _, a := range e.Attrs {
		if a.QName == qname {
			return a.Value, true
		}
	}
	return "", false
}

func normalizeRef(ref string) string {
	return strings.TrimPrefix(strings.TrimSpace(ref), "#")
}
