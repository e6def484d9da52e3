package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/niemgraph/pkg/common"

	"github.com/tidwall/gjson"
)

// jsonContext is the prefix and term table of a JSON-LD @context.
type jsonContext struct {
	terms map[string]string
	vocab string
	ns    namespaceTable
}

func newJSONContext(value gjson.Result, ns namespaceTable) *jsonContext {
	ctx := &jsonContext{terms: map[string]string{}, ns: ns}
	ctx.add(value)
	return ctx
}

func (c *jsonContext) add(value gjson.Result) {
	switch {
	case value.IsArray():
		value.ForEach(func(_, item gjson.Result) bool {
			c.add(item)
			return true
		})
	case value.IsObject():
		value.ForEach(func(key, item gjson.Result) bool {
			k := key.String()
			if k == "@vocab" {
				c.vocab = item.String()
				return true
			}
			if strings.HasPrefix(k, "@") {
				return true
			}
			switch {
			case item.Type == gjson.String:
				c.terms[k] = item.String()
			case item.IsObject():
				if id := objectKey(item, "@id"); id.Exists() {
					c.terms[k] = id.String()
				}
			}
			return true
		})
	}
	// Remote context references are not dereferenced.
}

// qname resolves a JSON-LD key or compact IRI to the mapping's qname form.
func (c *jsonContext) qname(key string) string {
	if prefix, local, ok := strings.Cut(key, ":"); ok {
		if uri, ok := c.terms[prefix]; ok {
			if p, ok := c.ns.prefix(uri); ok {
				return p + ":" + local
			}
			return key
		}
		if strings.HasPrefix(local, "//") {
			return c.iri(key)
		}
		return key
	}
	if iri, ok := c.terms[key]; ok {
		return c.iri(iri)
	}
	if c.vocab != "" {
		if p, ok := c.ns.prefix(c.vocab); ok {
			return p + ":" + key
		}
	}
	return key
}

// iri splits an absolute IRI at the longest known namespace URI.
func (c *jsonContext) iri(iri string) string {
	best := ""
	for uri := range c.ns.byURI {
		if strings.HasPrefix(iri, uri) && len(uri) > len(best) {
			best = uri
		}
	}
	if best == "" {
		return iri
	}
	local := strings.TrimLeft(strings.TrimPrefix(iri, best), "#/")
	return c.ns.byURI[best] + ":" + local
}

// objectKey looks up a direct key without gjson path syntax, which treats
// a leading "@" as a modifier.
func objectKey(obj gjson.Result, key string) gjson.Result {
	var out gjson.Result
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			out = v
			return false
		}
		return true
	})
	return out
}

// parseJSONLD reads a JSON-LD instance document into an Element tree. A
// top-level object with a single content key whose value is an object, and
// no node keywords of its own, is unwrapped so that key becomes the root,
// mirroring an XML document element. Otherwise the root stays unnamed and
// takes its name from @type during traversal.
func parseJSONLD(data []byte, file string, ns namespaceTable) (*Element, error) {
	if !gjson.ValidBytes(data) {
		return nil, jsonSyntaxError(data, file)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, &common.MalformedInputError{File: file, Line: 1, Column: 1, Err: fmt.Errorf("top-level JSON-LD value must be an object")}
	}

	r := &jsonReader{ctx: newJSONContext(objectKey(doc, "@context"), ns)}

	var contentKeys []string
	var single gjson.Result
	doc.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if !strings.HasPrefix(k, "@") {
			contentKeys = append(contentKeys, k)
			single = value
		}
		return true
	})

	unwrap := len(contentKeys) == 1 && single.IsObject()
	for _, kw := range []string{"@id", "@type", "@graph"} {
		if objectKey(doc, kw).Exists() {
			unwrap = false
		}
	}
	if unwrap {
		return r.object(r.ctx.qname(contentKeys[0]), single), nil
	}
	return r.object("", doc), nil
}

func jsonSyntaxError(data []byte, file string) error {
	var v any
	err := json.Unmarshal(data, &v)
	if err == nil {
		err = errors.New("invalid JSON")
	}
	line, col := 0, 0
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col = common.LineColumn(data, syntaxErr.Offset)
	}
	return &common.MalformedInputError{File: file, Line: line, Column: col, Err: err}
}

type jsonReader struct {
	ctx *jsonContext
}

// values converts the value under one key into zero or more elements.
// Arrays expand into repeated siblings and null is omitted.
func (r *jsonReader) values(qname string, value gjson.Result) []*Element {
	switch {
	case value.IsArray():
		var out []*Element
		value.ForEach(func(_, item gjson.Result) bool {
			out = append(out, r.values(qname, item)...)
			return true
		})
		return out
	case value.IsObject():
		return []*Element{r.object(qname, value)}
	case value.Type == gjson.Null:
		return nil
	default:
		return []*Element{{QName: qname, Value: literal(value)}}
	}
}

func (r *jsonReader) object(qname string, value gjson.Result) *Element {
	el := &Element{QName: qname}
	var id string
	value.ForEach(func(key, item gjson.Result) bool {
		k := key.String()
		switch k {
		case "@id":
			id = normalizeRef(item.String())
		case "@type":
			t := item
			if item.IsArray() {
				t = item.Get("0")
			}
			el.Type = r.ctx.qname(t.String())
		case "@value":
			if item.Type != gjson.Null {
				el.Value = literal(item)
			}
		case "@metadata", "structures:metadata":
			el.Metadata = append(el.Metadata, refs(item)...)
		case "@graph":
			for _, c := range r.values("", item) {
				if c.Value == nil {
					el.Children = append(el.Children, c)
				}
			}
		default:
			if strings.HasPrefix(k, "@") {
				return true
			}
			el.Children = append(el.Children, r.values(r.ctx.qname(k), item)...)
		}
		return true
	})

	if id != "" {
		if len(el.Children) == 0 && el.Value == nil {
			el.Ref = id
		} else {
			el.ID = id
		}
	}
	return el
}

func refs(value gjson.Result) []string {
	var out []string
	switch {
	case value.IsArray():
		value.ForEach(func(_, item gjson.Result) bool {
			out = append(out, refs(item)...)
			return true
		})
	case value.IsObject():
		if id := objectKey(value, "@id"); id.Exists() {
			out = append(out, normalizeRef(id.String()))
		}
	case value.Type == gjson.String:
		out = append(out, strings.Fields(value.String())...)
	}
	return out
}

func literal(value gjson.Result) any {
	switch value.Type {
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		return json.Number(value.Raw)
	default:
		return value.String()
	}
}
