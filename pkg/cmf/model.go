// Package cmf reads NIEM Common Model Format documents into lookup tables
// used by the mapping compiler.
//
// A Model answers four questions: which namespaces exist, which classes
// exist and what they contain, which class an object property points at,
// and which datatype a data property carries. Datatypes are classified once
// at parse time so the compiler can flatten them without re-deriving it.
package cmf

import (
	"sort"
	"strings"
)

// Classification describes how a datatype is realized as properties.
type Classification string

const (
	// Simple datatypes carry a single text value.
	Simple Classification = "simple"
	// Wrapper datatypes restrict another non-XSD datatype and are unwrapped.
	Wrapper Classification = "wrapper"
	// Complex datatypes have child properties of their own.
	Complex Classification = "complex"
)

// Unbounded is the Max value of a property association without an upper bound.
const Unbounded = -1

// Namespace is one entry of the namespace table.
type Namespace struct {
	Prefix string
	URI    string
}

// PropertyAssociation links a class or datatype to one child property.
// Exactly one of ObjectProperty and DataProperty is set.
type PropertyAssociation struct {
	ObjectProperty string
	DataProperty   string
	Min            int
	Max            int
}

// Ref returns the id of the referenced property.
func (p PropertyAssociation) Ref() string {
	if p.ObjectProperty != "" {
		return p.ObjectProperty
	}
	return p.DataProperty
}

// Multiple reports whether the association allows more than one occurrence.
func (p PropertyAssociation) Multiple() bool {
	return p.Max == Unbounded || p.Max > 1
}

// Class is a CMF class. SubClassOf holds the id of the base class.
type Class struct {
	ID         string
	Name       string
	Namespace  string
	SubClassOf string
	Abstract   bool
	HasValue   string
	Children   []PropertyAssociation
}

// ObjectProperty is an element whose content is an instance of Class.
type ObjectProperty struct {
	ID            string
	Name          string
	Namespace     string
	Class         string
	SubPropertyOf string
	Abstract      bool
}

// DataProperty is an element or attribute carrying a value of Datatype.
type DataProperty struct {
	ID        string
	Name      string
	Namespace string
	Datatype  string
	Attribute bool
}

// Datatype is a CMF datatype, or a class referenced as one by a data
// property. Base is the restriction base id, if any.
type Datatype struct {
	ID             string
	Name           string
	Namespace      string
	Base           string
	Children       []PropertyAssociation
	Classification Classification
}

// Model is the parsed and indexed CMF document. It is read-only after Parse
// returns and safe for concurrent use.
type Model struct {
	Namespaces       []Namespace
	Classes          map[string]*Class
	ObjectProperties map[string]*ObjectProperty
	DataProperties   map[string]*DataProperty
	Datatypes        map[string]*Datatype

	nsByPrefix    map[string]string
	nsByURI       map[string]string
	classElements map[string][]string
	elements      map[string]struct{}
	attributes    map[string]struct{}
}

// NamespaceURI returns the URI registered for prefix.
func (m *Model) NamespaceURI(prefix string) (string, bool) {
	uri, ok := m.nsByPrefix[prefix]
	return uri, ok
}

// PrefixForURI returns the prefix registered for a namespace URI.
func (m *Model) PrefixForURI(uri string) (string, bool) {
	prefix, ok := m.nsByURI[uri]
	return prefix, ok
}

// QName converts a CMF id ("nc.PersonType") into a qualified name
// ("nc:PersonType").
func QName(id string) string {
	prefix, local, ok := strings.Cut(id, ".")
	if !ok {
		return id
	}
	return prefix + ":" + local
}

// ID converts a qualified name back into a CMF id.
func ID(qname string) string {
	prefix, local, ok := strings.Cut(qname, ":")
	if !ok {
		return qname
	}
	return prefix + "." + local
}

// IsXSD reports whether id names a built-in XML Schema datatype.
func IsXSD(id string) bool {
	return strings.HasPrefix(id, "xs.") || strings.HasPrefix(id, "xsd.")
}

// ElementsOfClass returns the ids of the object properties whose type is
// classID, sorted.
func (m *Model) ElementsOfClass(classID string) []string {
	return m.classElements[classID]
}

// IsKnownElement reports whether qname names an object or data property
// element.
func (m *Model) IsKnownElement(qname string) bool {
	_, ok := m.elements[qname]
	return ok
}

// IsKnownAttribute reports whether qname names a data property realized as
// an attribute.
func (m *Model) IsKnownAttribute(qname string) bool {
	_, ok := m.attributes[qname]
	return ok
}

// Datatype returns the datatype registered under id.
func (m *Model) Datatype(id string) (*Datatype, bool) {
	dt, ok := m.Datatypes[id]
	return dt, ok
}

// IsSubClassOf reports whether classID equals base or derives from it.
func (m *Model) IsSubClassOf(classID, base string) bool {
	seen := make(map[string]struct{})
	for id := classID; id != ""; {
		if id == base {
			return true
		}
		if _, ok := seen[id]; ok {
			return false
		}
		seen[id] = struct{}{}
		c, ok := m.Classes[id]
		if !ok {
			return false
		}
		id = c.SubClassOf
	}
	return false
}

// SortedClassIDs returns all class ids in lexical order.
func (m *Model) SortedClassIDs() []string {
	ids := make([]string, 0, len(m.Classes))
	for id := range m.Classes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
