package graph

import (
	"sort"
	"strings"

	"github.com/OFFIS-RIT/niemgraph/pkg/mapping"
)

// ElementRole is what an element contributes to the graph. It is one of
// AssociationRole, ObjectRole, ReferenceRole or PropertyRole.
type ElementRole interface {
	elementRole()
}

// AssociationRole marks an element realized as association edges.
type AssociationRole struct {
	Rule *mapping.AssociationRule
}

// ObjectRole marks an element whose class has an object rule.
type ObjectRole struct {
	Rule *mapping.ObjectRule
}

// ReferenceRole marks an element that only points at another element.
// Rules are the reference rules declaring the field, sorted by owner; it is
// empty for fields no rule declares.
type ReferenceRole struct {
	Rules []*mapping.ReferenceRule
}

// For returns the rule of ownerClass, falling back to the first rule
// declaring the field.
func (r ReferenceRole) For(ownerClass string) *mapping.ReferenceRule {
	for _, rule := range r.Rules {
		if rule.Owner == ownerClass {
			return rule
		}
	}
	if len(r.Rules) > 0 {
		return r.Rules[0]
	}
	return nil
}

// PropertyRole marks data content. Known is false for elements outside
// the compiled element index.
type PropertyRole struct {
	Known bool
}

func (AssociationRole) elementRole() {}
func (ObjectRole) elementRole()      {}
func (ReferenceRole) elementRole()   {}
func (PropertyRole) elementRole()    {}

// roleTable is the precomputed qname -> role lookup of one mapping. It is
// read-only after construction.
type roleTable struct {
	byElement map[string]ElementRole
	byType    map[string]ElementRole
	// classOf maps an element or rule qname to the class qname whose rule
	// produced it.
	classOf map[string]string
	// typeElement maps a type qname to the element an unnamed object of
	// that type is read as.
	typeElement     map[string]string
	refs            map[string]ReferenceRole
	knownElements   map[string]struct{}
	knownAttributes map[string]struct{}
	polymorphism    bool
}

func newRoleTable(m *mapping.Mapping) *roleTable {
	t := &roleTable{
		byElement:       map[string]ElementRole{},
		byType:          map[string]ElementRole{},
		classOf:         map[string]string{},
		typeElement:     map[string]string{},
		refs:            map[string]ReferenceRole{},
		knownElements:   map[string]struct{}{},
		knownAttributes: map[string]struct{}{},
		polymorphism:    m.Polymorphism.Enabled,
	}

	for _, q := range m.KnownElements {
		t.knownElements[q] = struct{}{}
	}
	for _, q := range m.KnownAttributes {
		t.knownAttributes[q] = struct{}{}
	}

	for i := range m.References {
		r := &m.References[i]
		role := t.refs[r.Field]
		role.Rules = append(role.Rules, r)
		t.refs[r.Field] = role
		t.knownElements[r.Field] = struct{}{}
	}
	for _, role := range t.refs {
		sort.SliceStable(role.Rules, func(i, j int) bool { return role.Rules[i].Owner < role.Rules[j].Owner })
	}

	for i := range m.Objects {
		rule := &m.Objects[i]
		role := ObjectRole{Rule: rule}
		t.byType[rule.QName] = role
		t.classOf[rule.QName] = rule.QName
		if q := typeElement(rule); q != "" {
			t.typeElement[rule.QName] = q
		}
		for _, el := range rule.Elements {
			t.byElement[el] = role
			t.classOf[el] = rule.QName
			t.knownElements[el] = struct{}{}
		}
		t.indexPaths(rule.ScalarProps)
	}

	// Association rules win over object rules for the same element.
	for i := range m.Associations {
		rule := &m.Associations[i]
		role := AssociationRole{Rule: rule}
		t.byType[rule.QName] = role
		t.classOf[rule.QName] = rule.QName
		t.byElement[rule.QName] = role
		for _, el := range rule.Elements {
			t.byElement[el] = role
			t.classOf[el] = rule.QName
			t.knownElements[el] = struct{}{}
		}
		for _, ep := range rule.Endpoints {
			t.knownElements[ep.Role] = struct{}{}
		}
		t.indexPaths(rule.ScalarProps)
	}

	return t
}

// typeElement picks the element named like the type without its "Type"
// suffix, else the first element of the rule.
func typeElement(rule *mapping.ObjectRule) string {
	want := strings.TrimSuffix(rule.QName, "Type")
	for _, el := range rule.Elements {
		if el == want {
			return el
		}
	}
	if len(rule.Elements) > 0 {
		return rule.Elements[0]
	}
	return ""
}

func (t *roleTable) indexPaths(props []mapping.ScalarPropertyPath) {
	for _, sp := range props {
		for _, seg := range mapping.SplitPath(sp.Path) {
			if strings.HasPrefix(seg, "@") {
				t.knownAttributes[seg[1:]] = struct{}{}
				continue
			}
			t.knownElements[seg] = struct{}{}
		}
	}
}

// lookup resolves the role of an element. With polymorphism enabled the
// declared instance type takes precedence over the element name; an element
// named after its own type always resolves through the type.
func (t *roleTable) lookup(el *Element) ElementRole {
	role := t.named(el)
	if _, ok := role.(AssociationRole); ok {
		return role
	}
	if el.IsReference() {
		return t.refs[el.QName]
	}
	return role
}

func (t *roleTable) named(el *Element) ElementRole {
	if t.byTypeFirst(el) {
		if role, ok := t.byType[el.Type]; ok {
			return role
		}
	}
	if role, ok := t.byElement[el.QName]; ok {
		return role
	}
	_, known := t.knownElements[el.QName]
	return PropertyRole{Known: known}
}

func (t *roleTable) byTypeFirst(el *Element) bool {
	return el.Type != "" && (t.polymorphism || el.QName == el.Type)
}

// class returns the class qname of an element, honoring polymorphism.
func (t *roleTable) class(el *Element) string {
	if t.byTypeFirst(el) {
		if c, ok := t.classOf[el.Type]; ok {
			return c
		}
	}
	return t.classOf[el.QName]
}

// elementFor returns the element name an unnamed object of typeQName is
// read as, or the type itself when no object rule declares an element.
func (t *roleTable) elementFor(typeQName string) string {
	if q, ok := t.typeElement[typeQName]; ok {
		return q
	}
	return typeQName
}

func (t *roleTable) isKnownAttribute(qname string) bool {
	_, ok := t.knownAttributes[qname]
	return ok
}
