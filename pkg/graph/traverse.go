package graph

import (
	"context"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/niemgraph/pkg/common"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"
	"github.com/OFFIS-RIT/niemgraph/pkg/mapping"
)

// cancelCheckInterval is how many frames are visited between context checks.
const cancelCheckInterval = 512

// frame is one pending unit of work on the traversal stack.
type frame struct {
	el *Element
	// parent is the nearest materialized node ancestor, nil above the first.
	parent *common.Node
	// sink receives flattened values; it belongs to parent or to an
	// association edge group.
	sink *sink
	// prefix is the path from the owner of sink down to el, exclusive.
	prefix []string
	// ordinal is the positional path of el in the document.
	ordinal string
	// unknown is set below an element outside the element index.
	unknown  bool
	root     bool
	endpoint bool
}

// sink collects flattened scalar and augmentation values.
type sink struct {
	props map[string]any
	augs  map[string]any
}

type attrKey struct {
	el    *Element
	qname string
}

// edgeGroup is the set of edges one non-dual association produced. Their
// property maps are filled once the association's children are visited.
type edgeGroup struct {
	edges []int
	props map[string]any
}

// traversal is the per-document accumulator. It is owned by one conversion
// and never shared.
type traversal struct {
	conv *Converter
	opts Options
	file string

	graph       *common.Graph
	nodes       map[string]*common.Node
	nodeClass   map[string]string
	containment map[string]struct{}
	groups      []edgeGroup

	consumed     map[*Element]struct{}
	consumedAttr map[attrKey]struct{}

	diags      common.Diagnostics
	unresolved []common.Edge
}

func newTraversal(c *Converter, opts Options) *traversal {
	return &traversal{
		conv:         c,
		opts:         opts,
		file:         opts.Isolation.SourceFile,
		graph:        &common.Graph{},
		nodes:        map[string]*common.Node{},
		nodeClass:    map[string]string{},
		containment:  map[string]struct{}{},
		consumed:     map[*Element]struct{}{},
		consumedAttr: map[attrKey]struct{}{},
	}
}

// run visits the tree depth-first in document order using an explicit
// stack, so document depth never grows the call stack.
func (t *traversal) run(ctx context.Context, root *Element) error {
	stack := []frame{{el: root, root: true}}
	visited := 0
	for len(stack) > 0 {
		visited++
		if visited%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		next := t.visit(f)
		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, next[i])
		}
	}

	t.finishGroups()
	t.resolve()
	return nil
}

func childOrdinal(parent string, i int) string {
	if parent == "" {
		return strconv.Itoa(i)
	}
	return parent + "." + strconv.Itoa(i)
}

func (t *traversal) visit(f frame) []frame {
	if f.el.QName == "" && f.el.Type != "" {
		f.el.QName = t.conv.roles.elementFor(f.el.Type)
	}
	if f.el.QName == "" {
		return t.visitUnnamed(f)
	}

	role := t.conv.roles.lookup(f.el)
	switch r := role.(type) {
	case AssociationRole:
		if !f.endpoint {
			return t.visitAssociation(f, r.Rule)
		}
	case ReferenceRole:
		if !f.root {
			t.visitReference(f, r)
			return nil
		}
	}

	var rule *mapping.ObjectRule
	if r, ok := role.(ObjectRole); ok {
		rule = r.Rule
	}
	if t.isNode(f, rule) {
		return t.visitNode(f, rule)
	}
	return t.visitProperty(f, role)
}

// visitUnnamed passes through an object with neither name nor type, such as
// a JSON-LD top-level object or @graph item. It never becomes a node.
func (t *traversal) visitUnnamed(f frame) []frame {
	if f.el.ID != "" || f.el.Ref != "" {
		t.diags.Info(common.CodeUnmappedContent, "", f.el.ID+f.el.Ref, "object without name or type is not materialized")
	}
	return t.children(f.el, f.ordinal, f.parent, f.sink, f.prefix, f.unknown)
}

func (t *traversal) isNode(f frame, rule *mapping.ObjectRule) bool {
	if f.endpoint || f.el.ID != "" {
		return true
	}
	if f.root {
		return rule != nil
	}
	if rule != nil {
		return true
	}
	return t.opts.format == FormatJSONLD && t.opts.Dynamic && isComplex(f.el)
}

// isComplex is the dynamic JSON-LD heuristic: an unmapped object is a node
// when it carries several values or nests an object.
func isComplex(el *Element) bool {
	switch len(el.Children) {
	case 0:
		return false
	case 1:
		return !el.Children[0].IsLeaf()
	default:
		return true
	}
}

func (t *traversal) visitNode(f frame, rule *mapping.ObjectRule) []frame {
	label, class := mapping.Label(f.el.QName), ""
	if rule != nil {
		label = rule.Label
		class = t.conv.roles.class(f.el)
	}
	node := t.node(f, label, class)
	s := &sink{props: node.Props, augs: node.Augmentations}

	if rule != nil {
		t.extract(f.el, rule.ScalarProps, s)
	}
	t.flattenSelf(f.el, s, nil, false)

	return t.children(f.el, f.ordinal, node, s, nil, false)
}

// node creates the node for an element or returns the existing node with
// the same id.
func (t *traversal) node(f frame, label, class string) *common.Node {
	id, synthetic := f.el.ID, false
	if id == "" {
		id, synthetic = t.syntheticID(f.parent, f.el, f.ordinal), true
	}

	n, ok := t.nodes[id]
	if !ok {
		n = &common.Node{
			ID:            id,
			Label:         label,
			QName:         f.el.QName,
			Synthetic:     synthetic,
			Props:         map[string]any{},
			Augmentations: map[string]any{},
			Isolation:     t.opts.Isolation,
		}
		t.nodes[id] = n
		t.nodeClass[id] = class
		t.graph.Nodes = append(t.graph.Nodes, n)
	}

	if f.parent != nil {
		t.contain(f.parent, n, f.el.QName)
	}
	return n
}

func (t *traversal) syntheticID(parent *common.Node, el *Element, ordinal string) string {
	parentID := ""
	if parent != nil {
		parentID = parent.ID
	}
	return t.opts.IDFunc(parentID, el.QName, ordinal, t.opts.Salt)
}

func (t *traversal) contain(parent, child *common.Node, qname string) {
	rel := mapping.ContainmentRelType(qname)
	key := parent.ID + "\x00" + child.ID + "\x00" + rel
	if _, ok := t.containment[key]; ok {
		return
	}
	t.containment[key] = struct{}{}
	t.graph.Containment = append(t.graph.Containment, common.ContainmentEdge{
		ParentID:    parent.ID,
		ParentLabel: parent.Label,
		ChildID:     child.ID,
		ChildLabel:  child.Label,
		RelType:     rel,
		Isolation:   t.opts.Isolation,
	})
}

// children builds the frames for the children of el.
func (t *traversal) children(el *Element, ordinal string, parent *common.Node, s *sink, prefix []string, unknown bool) []frame {
	frames := make([]frame, 0, len(el.Children))
	for i, c := range el.Children {
		frames = append(frames, frame{
			el:      c,
			parent:  parent,
			sink:    s,
			prefix:  prefix,
			ordinal: childOrdinal(ordinal, i),
			unknown: unknown,
		})
	}
	return frames
}

// visitProperty flattens a non-node element onto the sink of its nearest
// node ancestor.
func (t *traversal) visitProperty(f frame, role ElementRole) []frame {
	known := true
	if r, ok := role.(PropertyRole); ok {
		known = r.Known
	}
	unknown := f.unknown || !known
	path := appendPath(f.prefix, f.el.QName)

	if f.sink == nil {
		if f.el.HasValue() && !f.root {
			t.diags.Info(common.CodeUnmappedContent, f.el.QName, "", "value outside any node dropped")
		}
		return t.children(f.el, f.ordinal, nil, nil, path, unknown)
	}

	if _, done := t.consumed[f.el]; !done && f.el.HasValue() {
		t.put(f.sink, path, unknown, f.el.Literal())
	}
	t.flattenAttrs(f.el, f.sink, path, unknown)
	return t.children(f.el, f.ordinal, f.parent, f.sink, path, unknown)
}

// flattenSelf stores the literal content and attributes of a node or
// association element itself.
func (t *traversal) flattenSelf(el *Element, s *sink, path []string, unknown bool) {
	if _, done := t.consumed[el]; !done && el.HasValue() {
		s.props["value"] = el.Literal()
	}
	t.flattenAttrs(el, s, path, unknown)
}

func (t *traversal) flattenAttrs(el *Element, s *sink, path []string, unknown bool) {
	for _, a := range el.Attrs {
		if _, done := t.consumedAttr[attrKey{el, a.QName}]; done {
			continue
		}
		attrUnknown := unknown || !t.conv.roles.isKnownAttribute(a.QName)
		t.put(s, appendPath(path, "@"+a.QName), attrUnknown, a.Value)
	}
}

func (t *traversal) put(s *sink, path []string, unknown bool, value any) {
	name := mapping.PropertyName(path)
	if unknown {
		if !t.conv.augEnabled {
			t.diags.Info(common.CodeUnmappedContent, path[len(path)-1], "", "augmentation %s dropped", name)
			return
		}
		addValue(s.augs, t.conv.augPrefix+name, value)
		return
	}
	addValue(s.props, name, value)
}

// addValue stores value under key, turning repeated keys into lists.
func addValue(m map[string]any, key string, value any) {
	old, ok := m[key]
	if !ok {
		m[key] = value
		return
	}
	if list, ok := old.([]any); ok {
		m[key] = append(list, value)
		return
	}
	m[key] = []any{old, value}
}

func appendPath(prefix []string, seg string) []string {
	out := make([]string, len(prefix), len(prefix)+1)
	copy(out, prefix)
	return append(out, seg)
}

// extract evaluates scalar property paths against el. Matched elements are
// marked consumed so flattening does not store them twice; unmatched paths
// are omitted.
func (t *traversal) extract(el *Element, paths []mapping.ScalarPropertyPath, s *sink) {
	for _, sp := range paths {
		values := t.evaluate(el, mapping.SplitPath(sp.Path))
		switch {
		case len(values) == 0:
			continue
		case len(values) == 1 && !mapping.IsMultiple(sp.Cardinality):
			s.props[sp.Property] = values[0]
		default:
			s.props[sp.Property] = values
		}
	}
}

func (t *traversal) evaluate(el *Element, segments []string) []any {
	if len(segments) == 0 {
		return nil
	}
	current := []*Element{el}
	for i, seg := range segments {
		last := i == len(segments)-1
		if attr, ok := strings.CutPrefix(seg, "@"); ok {
			if !last {
				return nil
			}
			var out []any
			for _, c := range current {
				if v, ok := c.Attr(attr); ok {
					t.consumedAttr[attrKey{c, attr}] = struct{}{}
					out = append(out, v)
				}
			}
			return out
		}

		var next []*Element
		for _, c := range current {
			for _, child := range c.ChildrenNamed(seg) {
				if t.isNodeElement(child) {
					continue
				}
				next = append(next, child)
			}
		}
		current = next
	}

	var out []any
	for _, c := range current {
		if !c.HasValue() {
			continue
		}
		t.consumed[c] = struct{}{}
		out = append(out, c.Literal())
	}
	return out
}

// isNodeElement reports whether el will be materialized on its own.
func (t *traversal) isNodeElement(el *Element) bool {
	if el.ID != "" {
		return true
	}
	switch t.conv.roles.lookup(el).(type) {
	case ObjectRole, AssociationRole, ReferenceRole:
		return true
	}
	return false
}

// visitReference turns a pure reference element into an edge from the
// owning node.
func (t *traversal) visitReference(f frame, role ReferenceRole) {
	if f.parent == nil {
		t.diags.Warn(common.CodeUnresolvedReference, f.el.QName, f.el.Ref, "reference %s outside any node", f.el.Ref)
		return
	}

	relType, ruleLabel := mapping.RelType(f.el.QName), ""
	if rule := role.For(t.nodeClass[f.parent.ID]); rule != nil {
		relType, ruleLabel = rule.RelType, rule.TargetLabel
	}
	t.graph.Edges = append(t.graph.Edges, common.Edge{
		FromID:      f.parent.ID,
		FromLabel:   f.parent.Label,
		ToID:        f.el.Ref,
		RelType:     relType,
		Isolation:   t.opts.Isolation,
		ToRuleLabel: ruleLabel,
	})
}

type endpointTarget struct {
	id       string
	endpoint *mapping.Endpoint
}

func endpointFor(rule *mapping.AssociationRule, qname string) *mapping.Endpoint {
	for i := range rule.Endpoints {
		if rule.Endpoints[i].Role == qname {
			return &rule.Endpoints[i]
		}
	}
	return nil
}

// visitAssociation realizes an association element. With an explicit id or
// metadata it is also a node linked to each endpoint; otherwise it becomes
// edges between its endpoints.
func (t *traversal) visitAssociation(f frame, rule *mapping.AssociationRule) []frame {
	el := f.el
	dual := el.ID != "" || len(el.Metadata) > 0

	var assocNode *common.Node
	owner := f.parent
	if dual {
		label := rule.Label
		if label == "" {
			label = mapping.Label(el.QName)
		}
		assocNode = t.node(f, label, rule.QName)
		owner = assocNode
	}

	var targets []endpointTarget
	endpoints := map[*Element]bool{}
	for i, c := range el.Children {
		ep := endpointFor(rule, c.QName)
		if ep == nil {
			continue
		}
		if c.IsReference() {
			targets = append(targets, endpointTarget{id: c.Ref, endpoint: ep})
			endpoints[c] = false
			continue
		}
		id := c.ID
		if id == "" {
			id = t.syntheticID(owner, c, childOrdinal(f.ordinal, i))
		}
		targets = append(targets, endpointTarget{id: id, endpoint: ep})
		endpoints[c] = true
	}

	if len(targets) < 2 {
		t.diags.Warn(common.CodeCardinalityViolation, el.QName, "", "association has %d resolvable endpoints", len(targets))
		logger.Warn("[Convert] Association with fewer than two endpoints", "file", t.file, "qname", el.QName, "endpoints", len(targets))
	}

	var s *sink
	if dual {
		s = &sink{props: assocNode.Props, augs: assocNode.Augmentations}
		for _, target := range targets {
			t.graph.Edges = append(t.graph.Edges, common.Edge{
				FromID:      assocNode.ID,
				FromLabel:   assocNode.Label,
				ToID:        target.id,
				RelType:     rule.RelType,
				Props:       map[string]any{"role": target.endpoint.Role},
				Isolation:   t.opts.Isolation,
				ToRuleLabel: target.endpoint.Label,
			})
		}
		for _, ref := range el.Metadata {
			t.graph.Edges = append(t.graph.Edges, common.Edge{
				FromID:    assocNode.ID,
				FromLabel: assocNode.Label,
				ToID:      ref,
				RelType:   "METADATA",
				Isolation: t.opts.Isolation,
			})
		}
	} else {
		group := edgeGroup{props: map[string]any{}}
		s = &sink{props: group.props, augs: group.props}
		if len(targets) >= 2 {
			anchor := 0
			for i, target := range targets {
				if target.endpoint.Direction == mapping.DirectionSource {
					anchor = i
					break
				}
			}
			from := targets[anchor]
			for i, to := range targets {
				if i == anchor {
					continue
				}
				group.edges = append(group.edges, len(t.graph.Edges))
				t.graph.Edges = append(t.graph.Edges, common.Edge{
					FromID:        from.id,
					ToID:          to.id,
					RelType:       rule.RelType,
					Props:         map[string]any{"source_role": from.endpoint.Role, "target_role": to.endpoint.Role},
					Isolation:     t.opts.Isolation,
					FromRuleLabel: from.endpoint.Label,
					ToRuleLabel:   to.endpoint.Label,
				})
			}
		}
		t.groups = append(t.groups, group)
	}

	t.extract(el, rule.ScalarProps, s)
	t.flattenAttrs(el, s, nil, false)

	frames := make([]frame, 0, len(el.Children))
	for i, c := range el.Children {
		inline, isEndpoint := endpoints[c]
		switch {
		case isEndpoint && inline:
			frames = append(frames, frame{el: c, parent: owner, ordinal: childOrdinal(f.ordinal, i), endpoint: true})
		case !isEndpoint:
			frames = append(frames, frame{el: c, parent: owner, sink: s, ordinal: childOrdinal(f.ordinal, i)})
		}
	}
	return frames
}

// finishGroups copies association properties onto every edge of the
// association.
func (t *traversal) finishGroups() {
	for _, g := range t.groups {
		for _, idx := range g.edges {
			e := &t.graph.Edges[idx]
			for k, v := range g.props {
				if _, ok := e.Props[k]; !ok {
					e.Props[k] = v
				}
			}
		}
	}
}
