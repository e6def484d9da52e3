package mapping

// Version is the current serialized Mapping version.
const Version = "1"

// Directions of an association endpoint.
const (
	DirectionSource = "source"
	DirectionTarget = "target"
)

// Mapping is the compiled, serializable description of how instance
// content becomes graph structure. It is read-only during conversion and
// may be shared between concurrent conversions.
type Mapping struct {
	Version       string              `yaml:"version" json:"version" validate:"required" jsonschema_description:"Mapping format version"`
	Namespaces    []Namespace         `yaml:"namespaces" json:"namespaces" validate:"dive"`
	Objects       []ObjectRule        `yaml:"objects" json:"objects" validate:"dive"`
	Associations  []AssociationRule   `yaml:"associations" json:"associations" validate:"dive"`
	References    []ReferenceRule     `yaml:"references" json:"references" validate:"dive"`
	Augmentations AugmentationOptions `yaml:"augmentations" json:"augmentations"`
	Polymorphism  PolymorphismOptions `yaml:"polymorphism" json:"polymorphism"`

	// KnownElements and KnownAttributes are the compiled CMF element index.
	// Instance content outside it is captured as augmentation properties.
	KnownElements   []string `yaml:"known_elements,omitempty" json:"known_elements,omitempty"`
	KnownAttributes []string `yaml:"known_attributes,omitempty" json:"known_attributes,omitempty"`
}

// Namespace maps a prefix used in rule qnames to its URI.
type Namespace struct {
	Prefix string `yaml:"prefix" json:"prefix" validate:"required"`
	URI    string `yaml:"uri" json:"uri"`
}

// ObjectRule realizes a class as a node label.
type ObjectRule struct {
	QName       string               `yaml:"qname" json:"qname" validate:"required" jsonschema_description:"Qualified name of the class"`
	Label       string               `yaml:"label" json:"label" validate:"required"`
	Elements    []string             `yaml:"elements,omitempty" json:"elements,omitempty" jsonschema_description:"Elements whose type is this class"`
	ScalarProps []ScalarPropertyPath `yaml:"scalar_props,omitempty" json:"scalar_props,omitempty" validate:"dive"`
}

// ScalarPropertyPath extracts one value from an element's content. Path
// segments are separated by "/"; a segment starting with "@" names an
// attribute.
type ScalarPropertyPath struct {
	Path        string `yaml:"path" json:"path" validate:"required"`
	Property    string `yaml:"property" json:"property" validate:"required" jsonschema_description:"Target node property name"`
	Cardinality string `yaml:"cardinality" json:"cardinality"`
}

// AssociationRule realizes an n-ary association class as edges.
type AssociationRule struct {
	QName       string               `yaml:"qname" json:"qname" validate:"required"`
	RelType     string               `yaml:"rel_type" json:"rel_type" validate:"required"`
	Label       string               `yaml:"label" json:"label" jsonschema_description:"Node label used when the association is also materialized as a node"`
	Elements    []string             `yaml:"elements,omitempty" json:"elements,omitempty"`
	Endpoints   []Endpoint           `yaml:"endpoints" json:"endpoints" validate:"dive"`
	ScalarProps []ScalarPropertyPath `yaml:"scalar_props,omitempty" json:"scalar_props,omitempty" validate:"dive"`
}

// Endpoint is one participant role of an association.
type Endpoint struct {
	Role        string `yaml:"role_qname" json:"role_qname" validate:"required"`
	Label       string `yaml:"maps_to_label" json:"maps_to_label" validate:"required"`
	Direction   string `yaml:"direction" json:"direction" validate:"oneof=source target"`
	Cardinality string `yaml:"cardinality" json:"cardinality"`
}

// ReferenceRule realizes an object-valued property as a relationship.
type ReferenceRule struct {
	Owner       string `yaml:"owner_qname" json:"owner_qname" validate:"required"`
	Field       string `yaml:"field_qname" json:"field_qname" validate:"required"`
	TargetLabel string `yaml:"target_label" json:"target_label" validate:"required"`
	RelType     string `yaml:"rel_type" json:"rel_type" validate:"required"`
	Cardinality string `yaml:"cardinality" json:"cardinality"`
}

// AugmentationOptions controls capture of content outside the element index.
type AugmentationOptions struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Prefix  string `yaml:"prefix" json:"prefix"`
}

// PolymorphismOptions controls rule lookup by xsi:type / @type.
type PolymorphismOptions struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// URIForPrefix returns the namespace URI for prefix.
func (m *Mapping) URIForPrefix(prefix string) (string, bool) {
	for _, ns := range m.Namespaces {
		if ns.Prefix == prefix {
			return ns.URI, true
		}
	}
	return "", false
}

// PrefixForURI returns the prefix whose namespace URI is uri.
func (m *Mapping) PrefixForURI(uri string) (string, bool) {
	for _, ns := range m.Namespaces {
		if ns.URI == uri && uri != "" {
			return ns.Prefix, true
		}
	}
	return "", false
}
