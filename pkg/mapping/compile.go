package mapping

import (
	"errors"
	"sort"
	"strings"

	"github.com/OFFIS-RIT/niemgraph/pkg/cmf"
	"github.com/OFFIS-RIT/niemgraph/pkg/common"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"
)

// DefaultMaxDepth bounds datatype flattening.
const DefaultMaxDepth = 3

// DefaultAugmentationPrefix prefixes properties captured from content the
// model does not describe.
const DefaultAugmentationPrefix = "aug_"

// DefaultAssociationSentinels are the base classes that mark a class as an
// association.
var DefaultAssociationSentinels = []string{"nc.AssociationType", "structures.AssociationType"}

// CompileOptions configures Compile. Zero values select the defaults.
type CompileOptions struct {
	MaxDepth             int
	AssociationSentinels []string
	AugmentationPrefix   string
	DisableAugmentation  bool
	Polymorphism         bool
}

type compiler struct {
	model     *cmf.Model
	opts      CompileOptions
	sentinels map[string]struct{}
	diags     common.Diagnostics
}

// Compile analyzes model and emits the Mapping. The returned diagnostics
// are advisory; they never make the Mapping unusable.
func Compile(model *cmf.Model, opts CompileOptions) (*Mapping, common.Diagnostics, error) {
	if model == nil {
		return nil, common.Diagnostics{}, errors.New("failed to compile mapping: nil model")
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if len(opts.AssociationSentinels) == 0 {
		opts.AssociationSentinels = DefaultAssociationSentinels
	}
	if opts.AugmentationPrefix == "" {
		opts.AugmentationPrefix = DefaultAugmentationPrefix
	}

	c := &compiler{
		model:     model,
		opts:      opts,
		sentinels: make(map[string]struct{}, len(opts.AssociationSentinels)),
	}
	for _, s := range opts.AssociationSentinels {
		c.sentinels[s] = struct{}{}
	}

	m := &Mapping{
		Version: Version,
		Augmentations: AugmentationOptions{
			Enabled: !opts.DisableAugmentation,
			Prefix:  opts.AugmentationPrefix,
		},
		Polymorphism: PolymorphismOptions{Enabled: opts.Polymorphism},
		Objects:      []ObjectRule{},
		Associations: []AssociationRule{},
		References:   []ReferenceRule{},
		Namespaces:   []Namespace{},
	}
	for _, ns := range model.Namespaces {
		m.Namespaces = append(m.Namespaces, Namespace{Prefix: ns.Prefix, URI: ns.URI})
	}

	for _, id := range model.SortedClassIDs() {
		if _, sentinel := c.sentinels[id]; sentinel {
			continue
		}
		if c.isAssociation(id) {
			m.Associations = append(m.Associations, c.associationRule(id))
			continue
		}
		m.Objects = append(m.Objects, c.objectRule(id))
		m.References = append(m.References, c.referenceRules(id)...)
	}

	sort.SliceStable(m.References, func(i, j int) bool {
		if m.References[i].Owner != m.References[j].Owner {
			return m.References[i].Owner < m.References[j].Owner
		}
		return m.References[i].Field < m.References[j].Field
	})

	m.KnownElements, m.KnownAttributes = c.elementIndex()

	logger.Debug("[Mapping] Compiled",
		"objects", len(m.Objects),
		"associations", len(m.Associations),
		"references", len(m.References),
	)

	return m, c.diags, nil
}

func (c *compiler) isAssociation(classID string) bool {
	for s := range c.sentinels {
		if c.model.IsSubClassOf(classID, s) {
			return true
		}
	}
	return false
}

// children returns the property associations of a class including those
// inherited from its base classes, base first.
func (c *compiler) children(classID string) []cmf.PropertyAssociation {
	var chain []*cmf.Class
	seen := make(map[string]struct{})
	for id := classID; id != ""; {
		if _, ok := seen[id]; ok {
			break
		}
		seen[id] = struct{}{}
		if _, sentinel := c.sentinels[id]; sentinel && id != classID {
			break
		}
		cls, ok := c.model.Classes[id]
		if !ok {
			break
		}
		chain = append(chain, cls)
		id = cls.SubClassOf
	}

	var out []cmf.PropertyAssociation
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].Children...)
	}
	return out
}

func (c *compiler) labelForClass(classID string) (string, bool) {
	cls, ok := c.model.Classes[classID]
	if !ok {
		return "", false
	}
	elems := c.model.ElementsOfClass(classID)
	canonical := strings.TrimSuffix(cls.Name, "Type")
	for _, e := range elems {
		op := c.model.ObjectProperties[e]
		if op.Namespace == cls.Namespace && op.Name == canonical {
			return Label(cmf.QName(e)), true
		}
	}
	if len(elems) > 0 {
		return Label(cmf.QName(elems[0])), true
	}
	return "", false
}

func (c *compiler) classLabel(classID string) string {
	if label, ok := c.labelForClass(classID); ok {
		return label
	}
	return ClassLabel(cmf.QName(classID))
}

func (c *compiler) elementQNames(classID string) []string {
	elems := c.model.ElementsOfClass(classID)
	if len(elems) == 0 {
		return nil
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		out = append(out, cmf.QName(e))
	}
	sort.Strings(out)
	return out
}

func (c *compiler) objectRule(classID string) ObjectRule {
	rule := ObjectRule{
		QName:    cmf.QName(classID),
		Label:    c.classLabel(classID),
		Elements: c.elementQNames(classID),
	}
	for _, pa := range c.children(classID) {
		if pa.DataProperty == "" {
			continue
		}
		rule.ScalarProps = append(rule.ScalarProps, c.scalarPaths(pa)...)
	}
	return rule
}

func (c *compiler) referenceRules(classID string) []ReferenceRule {
	var out []ReferenceRule
	seen := make(map[string]struct{})
	for _, pa := range c.children(classID) {
		if pa.ObjectProperty == "" {
			continue
		}
		if _, dup := seen[pa.ObjectProperty]; dup {
			continue
		}
		seen[pa.ObjectProperty] = struct{}{}

		op, ok := c.model.ObjectProperties[pa.ObjectProperty]
		if !ok {
			c.diags.Warn(common.CodeDanglingRule, cmf.QName(classID), pa.ObjectProperty,
				"child property %s is not defined", pa.ObjectProperty)
			continue
		}
		if op.Class == "" || c.isAssociation(op.Class) {
			continue
		}
		out = append(out, ReferenceRule{
			Owner:       cmf.QName(classID),
			Field:       cmf.QName(op.ID),
			TargetLabel: c.classLabel(op.Class),
			RelType:     RelType(cmf.QName(op.ID)),
			Cardinality: Cardinality(pa.Min, pa.Max),
		})
	}
	return out
}

func (c *compiler) associationRule(classID string) AssociationRule {
	qname := cmf.QName(classID)
	rule := AssociationRule{
		QName:     qname,
		RelType:   RelType(qname),
		Label:     c.classLabel(classID),
		Elements:  c.elementQNames(classID),
		Endpoints: []Endpoint{},
	}

	for _, pa := range c.children(classID) {
		if pa.DataProperty != "" {
			rule.ScalarProps = append(rule.ScalarProps, c.scalarPaths(pa)...)
			continue
		}
		op, ok := c.model.ObjectProperties[pa.ObjectProperty]
		if !ok {
			c.diags.Warn(common.CodeDanglingRule, qname, pa.ObjectProperty,
				"association role %s is not defined", pa.ObjectProperty)
			continue
		}
		role := cmf.QName(op.ID)
		label, found := c.labelForClass(op.Class)
		if !found {
			label = Label(role)
		}
		direction := DirectionTarget
		if len(rule.Endpoints) == 0 {
			direction = DirectionSource
		}
		rule.Endpoints = append(rule.Endpoints, Endpoint{
			Role:        role,
			Label:       label,
			Direction:   direction,
			Cardinality: Cardinality(pa.Min, pa.Max),
		})
	}

	if len(rule.Endpoints) < 2 {
		c.diags.Warn(common.CodeCardinalityViolation, qname, "",
			"association has %d resolvable endpoints", len(rule.Endpoints))
		logger.Warn("[Mapping] Association with fewer than two endpoints",
			"association", qname, "endpoints", len(rule.Endpoints))
		// A single endpoint cannot form an edge.
		if len(rule.Endpoints) == 1 {
			rule.Endpoints = []Endpoint{}
		}
	}
	return rule
}

func (c *compiler) scalarPaths(pa cmf.PropertyAssociation) []ScalarPropertyPath {
	dp, ok := c.model.DataProperties[pa.DataProperty]
	if !ok {
		c.diags.Warn(common.CodeDanglingRule, "", pa.DataProperty,
			"data property %s is not defined", pa.DataProperty)
		return nil
	}
	var out []ScalarPropertyPath
	c.flatten([]string{segment(dp)}, dp.Datatype, Cardinality(pa.Min, pa.Max), 1, &out)
	return out
}

func (c *compiler) flatten(path []string, datatypeID, card string, depth int, out *[]ScalarPropertyPath) {
	dt, ok := c.model.Datatype(datatypeID)
	if !ok || depth > c.opts.MaxDepth || dt.Classification == cmf.Simple {
		*out = append(*out, newScalarPath(path, card))
		return
	}

	switch dt.Classification {
	case cmf.Wrapper:
		c.flatten(path, dt.Base, card, depth+1, out)
	case cmf.Complex:
		for _, child := range dt.Children {
			dp, ok := c.model.DataProperties[child.DataProperty]
			if !ok {
				continue
			}
			childCard := card
			if child.Multiple() && !IsMultiple(card) {
				childCard = Cardinality(child.Min, child.Max)
			}
			next := append(append([]string(nil), path...), segment(dp))
			c.flatten(next, dp.Datatype, childCard, depth+1, out)
		}
	}
}

func newScalarPath(path []string, card string) ScalarPropertyPath {
	return ScalarPropertyPath{
		Path:        strings.Join(path, PathSeparator),
		Property:    PropertyName(path),
		Cardinality: card,
	}
}

func segment(dp *cmf.DataProperty) string {
	if dp.Attribute {
		return "@" + cmf.QName(dp.ID)
	}
	return cmf.QName(dp.ID)
}

func (c *compiler) elementIndex() ([]string, []string) {
	var elements, attributes []string
	for id := range c.model.ObjectProperties {
		elements = append(elements, cmf.QName(id))
	}
	for id, dp := range c.model.DataProperties {
		if dp.Attribute {
			attributes = append(attributes, cmf.QName(id))
			continue
		}
		elements = append(elements, cmf.QName(id))
	}
	sort.Strings(elements)
	sort.Strings(attributes)
	return elements, attributes
}
