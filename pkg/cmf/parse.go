package cmf

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/niemgraph/pkg/common"
)

type xmlRef struct {
	Ref string `xml:"ref,attr"`
}

type xmlPropertyAssociation struct {
	ObjectProperty *xmlRef `xml:"ObjectProperty"`
	DataProperty   *xmlRef `xml:"DataProperty"`
	Min            string  `xml:"MinOccursQuantity"`
	Max            string  `xml:"MaxOccursQuantity"`
}

type xmlNamespace struct {
	ID         string `xml:"id,attr"`
	URI        string `xml:"NamespaceURI"`
	PrefixText string `xml:"NamespacePrefixText"`
	PrefixName string `xml:"NamespacePrefixName"`
}

type xmlClass struct {
	ID         string                   `xml:"id,attr"`
	Name       string                   `xml:"Name"`
	Namespace  xmlRef                   `xml:"Namespace"`
	SubClassOf xmlRef                   `xml:"SubClassOf"`
	Abstract   string                   `xml:"AbstractIndicator"`
	HasValue   xmlRef                   `xml:"HasValue"`
	Children   []xmlPropertyAssociation `xml:"ChildPropertyAssociation"`
}

type xmlObjectProperty struct {
	ID            string `xml:"id,attr"`
	Name          string `xml:"Name"`
	Namespace     xmlRef `xml:"Namespace"`
	Class         xmlRef `xml:"Class"`
	SubPropertyOf xmlRef `xml:"SubPropertyOf"`
	Abstract      string `xml:"AbstractIndicator"`
}

type xmlDataProperty struct {
	ID        string `xml:"id,attr"`
	Name      string `xml:"Name"`
	Namespace xmlRef `xml:"Namespace"`
	Datatype  xmlRef `xml:"Datatype"`
	Attribute string `xml:"AttributeIndicator"`
}

type xmlRestriction struct {
	Datatype xmlRef `xml:"Datatype"`
}

type xmlDatatype struct {
	ID              string                   `xml:"id,attr"`
	Name            string                   `xml:"Name"`
	Namespace       xmlRef                   `xml:"Namespace"`
	RestrictionOf   *xmlRestriction          `xml:"RestrictionOf"`
	RestrictionBase xmlRef                   `xml:"RestrictionBase"`
	ListOf          xmlRef                   `xml:"ListOf"`
	Children        []xmlPropertyAssociation `xml:"ChildPropertyAssociation"`
}

type xmlModel struct {
	XMLName          xml.Name            `xml:"Model"`
	Namespaces       []xmlNamespace      `xml:"Namespace"`
	Classes          []xmlClass          `xml:"Class"`
	ObjectProperties []xmlObjectProperty `xml:"ObjectProperty"`
	DataProperties   []xmlDataProperty   `xml:"DataProperty"`
	Datatypes        []xmlDatatype       `xml:"Datatype"`
}

// ParseFile reads and indexes the CMF document at path.
func ParseFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CMF file %s: %w", path, err)
	}
	m, err := parse(data, path)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Parse reads and indexes a CMF document. The only failure mode is a
// document that is not well-formed XML, reported as a
// *common.MalformedInputError.
func Parse(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CMF document: %w", err)
	}
	return parse(data, "")
}

func parse(data []byte, file string) (*Model, error) {
	var doc xmlModel
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		line, col := dec.InputPos()
		var syntaxErr *xml.SyntaxError
		if errors.As(err, &syntaxErr) {
			line, col = syntaxErr.Line, 0
		}
		return nil, &common.MalformedInputError{File: file, Line: line, Column: col, Err: err}
	}

	return build(&doc), nil
}

func build(doc *xmlModel) *Model {
	m := &Model{
		Classes:          make(map[string]*Class, len(doc.Classes)),
		ObjectProperties: make(map[string]*ObjectProperty, len(doc.ObjectProperties)),
		DataProperties:   make(map[string]*DataProperty, len(doc.DataProperties)),
		Datatypes:        make(map[string]*Datatype, len(doc.Datatypes)),
		nsByPrefix:       make(map[string]string),
		nsByURI:          make(map[string]string),
		classElements:    make(map[string][]string),
		elements:         make(map[string]struct{}),
		attributes:       make(map[string]struct{}),
	}

	for _, ns := range doc.Namespaces {
		prefix := firstNonEmpty(ns.PrefixText, ns.PrefixName, ns.ID)
		if prefix == "" {
			continue
		}
		if _, dup := m.nsByPrefix[prefix]; dup {
			continue
		}
		uri := strings.TrimSpace(ns.URI)
		m.nsByPrefix[prefix] = uri
		if uri != "" {
			m.nsByURI[uri] = prefix
		}
		m.Namespaces = append(m.Namespaces, Namespace{Prefix: prefix, URI: uri})
	}
	sort.Slice(m.Namespaces, func(i, j int) bool {
		return m.Namespaces[i].Prefix < m.Namespaces[j].Prefix
	})

	for _, c := range doc.Classes {
		m.Classes[c.ID] = &Class{
			ID:         c.ID,
			Name:       nameOf(c.Name, c.ID),
			Namespace:  namespaceOf(c.Namespace.Ref, c.ID),
			SubClassOf: c.SubClassOf.Ref,
			Abstract:   parseBool(c.Abstract),
			HasValue:   c.HasValue.Ref,
			Children:   convertAssociations(c.Children),
		}
	}

	for _, p := range doc.ObjectProperties {
		op := &ObjectProperty{
			ID:            p.ID,
			Name:          nameOf(p.Name, p.ID),
			Namespace:     namespaceOf(p.Namespace.Ref, p.ID),
			Class:         p.Class.Ref,
			SubPropertyOf: p.SubPropertyOf.Ref,
			Abstract:      parseBool(p.Abstract),
		}
		m.ObjectProperties[p.ID] = op
		m.elements[QName(p.ID)] = struct{}{}
		if op.Class != "" {
			m.classElements[op.Class] = append(m.classElements[op.Class], op.ID)
		}
	}
	for id := range m.classElements {
		sort.Strings(m.classElements[id])
	}

	for _, p := range doc.DataProperties {
		dp := &DataProperty{
			ID:        p.ID,
			Name:      nameOf(p.Name, p.ID),
			Namespace: namespaceOf(p.Namespace.Ref, p.ID),
			Datatype:  p.Datatype.Ref,
			Attribute: parseBool(p.Attribute),
		}
		m.DataProperties[p.ID] = dp
		if dp.Attribute {
			m.attributes[QName(p.ID)] = struct{}{}
		} else {
			m.elements[QName(p.ID)] = struct{}{}
		}
	}

	for _, d := range doc.Datatypes {
		base := d.RestrictionBase.Ref
		if d.RestrictionOf != nil && d.RestrictionOf.Datatype.Ref != "" {
			base = d.RestrictionOf.Datatype.Ref
		}
		if base == "" {
			base = d.ListOf.Ref
		}
		m.Datatypes[d.ID] = &Datatype{
			ID:        d.ID,
			Name:      nameOf(d.Name, d.ID),
			Namespace: namespaceOf(d.Namespace.Ref, d.ID),
			Base:      base,
			Children:  convertAssociations(d.Children),
		}
	}

	// Data properties may point at classes with simple content; index them
	// as datatypes so flattening sees a single table.
	for _, dp := range m.DataProperties {
		if _, ok := m.Datatypes[dp.Datatype]; ok {
			continue
		}
		if c, ok := m.Classes[dp.Datatype]; ok {
			m.Datatypes[c.ID] = datatypeFromClass(c)
		}
	}
	for _, dt := range m.Datatypes {
		if c, ok := m.Classes[dt.Base]; ok {
			if _, known := m.Datatypes[c.ID]; !known {
				m.Datatypes[c.ID] = datatypeFromClass(c)
			}
		}
	}

	for _, dt := range m.Datatypes {
		dt.Classification = m.classify(dt)
	}

	return m
}

func datatypeFromClass(c *Class) *Datatype {
	var children []PropertyAssociation
	for _, pa := range c.Children {
		if pa.DataProperty != "" {
			children = append(children, pa)
		}
	}
	return &Datatype{
		ID:        c.ID,
		Name:      c.Name,
		Namespace: c.Namespace,
		Base:      c.HasValue,
		Children:  children,
	}
}

func (m *Model) classify(dt *Datatype) Classification {
	if len(dt.Children) > 0 {
		return Complex
	}
	if dt.Base != "" && !IsXSD(dt.Base) && dt.Base != dt.ID {
		if _, ok := m.Datatypes[dt.Base]; ok {
			return Wrapper
		}
	}
	return Simple
}

func convertAssociations(in []xmlPropertyAssociation) []PropertyAssociation {
	out := make([]PropertyAssociation, 0, len(in))
	for _, a := range in {
		pa := PropertyAssociation{
			Min: parseOccurs(a.Min, 0),
			Max: parseOccurs(a.Max, 1),
		}
		switch {
		case a.ObjectProperty != nil && a.ObjectProperty.Ref != "":
			pa.ObjectProperty = a.ObjectProperty.Ref
		case a.DataProperty != nil && a.DataProperty.Ref != "":
			pa.DataProperty = a.DataProperty.Ref
		default:
			continue
		}
		out = append(out, pa)
	}
	return out
}

func parseOccurs(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if s == "unbounded" {
		return Unbounded
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseBool(s string) bool {
	s = strings.TrimSpace(s)
	return s == "true" || s == "1"
}

func nameOf(name, id string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if _, local, ok := strings.Cut(id, "."); ok {
		return local
	}
	return id
}

func namespaceOf(ref, id string) string {
	if ref != "" {
		return ref
	}
	if prefix, _, ok := strings.Cut(id, "."); ok {
		return prefix
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
