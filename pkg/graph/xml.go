package graph

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/OFFIS-RIT/niemgraph/pkg/common"
)

const (
	xsiNamespace   = "http://www.w3.org/2001/XMLSchema-instance"
	xmlnsAttribute = "xmlns"
)

// namespaceTable resolves namespace URIs to the prefixes the mapping uses.
type namespaceTable struct {
	byURI    map[string]string
	byPrefix map[string]string
}

func (t namespaceTable) prefix(uri string) (string, bool) {
	p, ok := t.byURI[uri]
	return p, ok
}

func isStructuresNamespace(uri string) bool {
	return strings.Contains(uri, "/structures/")
}

// xmlScope is the stack of in-scope namespace declarations of one document.
type xmlScope struct {
	frames []map[string]string
}

func (s *xmlScope) push(attrs []xml.Attr) {
	var frame map[string]string
	for _, a := range attrs {
		switch {
		case a.Name.Space == xmlnsAttribute:
			if frame == nil {
				frame = map[string]string{}
			}
			frame[a.Name.Local] = a.Value
		case a.Name.Space == "" && a.Name.Local == xmlnsAttribute:
			if frame == nil {
				frame = map[string]string{}
			}
			frame[""] = a.Value
		}
	}
	s.frames = append(s.frames, frame)
}

func (s *xmlScope) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *xmlScope) uri(prefix string) (string, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if uri, ok := s.frames[i][prefix]; ok {
			return uri, true
		}
	}
	return "", false
}

func (s *xmlScope) prefix(uri string) (string, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		for p, u := range s.frames[i] {
			if u == uri && p != "" {
				return p, true
			}
		}
	}
	return "", false
}

type xmlReader struct {
	ns    namespaceTable
	scope xmlScope
}

func (r *xmlReader) qname(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	if p, ok := r.ns.prefix(name.Space); ok {
		return p + ":" + name.Local
	}
	if p, ok := r.scope.prefix(name.Space); ok {
		return p + ":" + name.Local
	}
	// Undeclared prefixes are left untranslated by the decoder.
	if !strings.Contains(name.Space, "/") {
		return name.Space + ":" + name.Local
	}
	return name.Local
}

// valueQName resolves a prefixed attribute value such as xsi:type="j:FooType".
func (r *xmlReader) valueQName(value string) string {
	prefix, local, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return value
	}
	uri, ok := r.scope.uri(prefix)
	if !ok {
		return value
	}
	if p, ok := r.ns.prefix(uri); ok {
		return p + ":" + local
	}
	return value
}

// parseXML reads an XML instance document into an Element tree. Namespace
// URIs are translated to the prefixes of ns; undeclared URIs keep the
// document's own prefix.
func parseXML(data []byte, file string, ns namespaceTable) (*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	r := &xmlReader{ns: ns}

	var (
		root  *Element
		stack []*Element
		text  []*strings.Builder
		uris  []string
	)

	malformed := func(err error) error {
		line, col := dec.InputPos()
		var syntaxErr *xml.SyntaxError
		if errors.As(err, &syntaxErr) {
			line, col = syntaxErr.Line, 0
		}
		return &common.MalformedInputError{File: file, Line: line, Column: col, Err: err}
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			line, _ := dec.InputPos()
			r.scope.push(t.Attr)
			el := &Element{QName: r.qname(t.Name), Line: line}
			uri := r.readAttrs(el, t.Attr)

			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else if root != nil {
				return nil, malformed(fmt.Errorf("multiple root elements"))
			} else {
				root = el
			}
			stack = append(stack, el)
			text = append(text, &strings.Builder{})
			uris = append(uris, uri)
		case xml.CharData:
			if len(text) > 0 {
				text[len(text)-1].Write(t)
			}
		case xml.EndElement:
			el := stack[len(stack)-1]
			el.Text = text[len(text)-1].String()
			if strings.TrimSpace(el.Text) == "" {
				el.Text = ""
			}
			applyURI(el, uris[len(uris)-1])
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
			uris = uris[:len(uris)-1]
			r.scope.pop()
		}
	}

	if root == nil {
		return nil, malformed(fmt.Errorf("document has no root element"))
	}
	return root, nil
}

// applyURI settles structures:uri once the element's content is known. On
// an element without content or other identity it is a reference,
// otherwise it identifies the element.
func applyURI(el *Element, uri string) {
	if uri == "" || el.ID != "" {
		return
	}
	if len(el.Children) == 0 && len(el.Attrs) == 0 && !el.HasValue() {
		if el.Ref == "" {
			el.Ref = uri
		}
		return
	}
	el.ID = uri
}

// readAttrs fills el from attrs and returns the structures:uri value.
func (r *xmlReader) readAttrs(el *Element, attrs []xml.Attr) string {
	var uri string
	for _, a := range attrs {
		switch {
		case a.Name.Space == xmlnsAttribute, a.Name.Space == "" && a.Name.Local == xmlnsAttribute:
			continue
		case a.Name.Space == xsiNamespace:
			if a.Name.Local == "type" {
				el.Type = r.valueQName(a.Value)
			}
			continue
		case isStructuresNamespace(a.Name.Space):
			switch a.Name.Local {
			case "id":
				el.ID = normalizeRef(a.Value)
			case "uri":
				uri = normalizeRef(a.Value)
			case "ref":
				el.Ref = normalizeRef(a.Value)
			case "metadata", "relationshipMetadata":
				el.Metadata = append(el.Metadata, strings.Fields(a.Value)...)
			}
			continue
		}
		el.Attrs = append(el.Attrs, Attr{QName: r.qname(a.Name), Value: a.Value})
	}
	return uri
}
