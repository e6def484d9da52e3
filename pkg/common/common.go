package common

import (
	"fmt"

	"github.com/go-playground/validator"
)

// Graph is the result of converting one instance document. It collects the
// nodes, containment edges and semantic edges produced by a single
// traversal, in the order the emitter serializes them.
//
// A graph contains:
//   - Nodes: materialized NIEM objects (and dual-role associations)
//   - Containment: structural parent -> child relations from nesting
//   - Edges: association and reference relations between nodes
type Graph struct {
	Nodes       []*Node           `json:"nodes"`
	Containment []ContainmentEdge `json:"containment"`
	Edges       []Edge            `json:"edges"`
}

// IsolationKeys scopes every node and edge to one ingestion. Two documents
// that reuse the same logical identifiers never merge as long as any member
// of the triple differs.
type IsolationKeys struct {
	UploadID   string `json:"upload_id" validate:"required"`
	SourceFile string `json:"source_file" validate:"required"`
	SchemaID   string `json:"schema_id" validate:"required"`
}

// Node is a graph vertex produced from an element or JSON-LD object.
//
// ID is either the natural identifier of the element (structures:id or
// @id) or a synthetic identifier derived from its position in the document.
// Within one isolation scope IDs are unique.
type Node struct {
	ID            string         `json:"id"`
	Label         string         `json:"label"`
	QName         string         `json:"qname"`
	Synthetic     bool           `json:"synthetic"`
	Props         map[string]any `json:"props,omitempty"`
	Augmentations map[string]any `json:"augmentations,omitempty"`
	Isolation     IsolationKeys  `json:"isolation"`
}

// Edge is a semantic relationship between two nodes, either one leg of an
// association or an object reference. ToLabel and FromLabel may be empty
// until the converter resolves them against the node table.
type Edge struct {
	FromID    string         `json:"from_id"`
	FromLabel string         `json:"from_label"`
	ToID      string         `json:"to_id"`
	ToLabel   string         `json:"to_label,omitempty"`
	RelType   string         `json:"rel_type"`
	Props     map[string]any `json:"props,omitempty"`
	Isolation IsolationKeys  `json:"isolation"`

	// FromRuleLabel and ToRuleLabel are the endpoint labels declared by the
	// mapping rule that produced the edge, if any. They label endpoints
	// that are not part of the converted document.
	FromRuleLabel string `json:"-"`
	ToRuleLabel   string `json:"-"`
}

// ContainmentEdge is the structural HAS_X relation between a node and a node
// nested inside it.
type ContainmentEdge struct {
	ParentID    string        `json:"parent_id"`
	ParentLabel string        `json:"parent_label"`
	ChildID     string        `json:"child_id"`
	ChildLabel  string        `json:"child_label"`
	RelType     string        `json:"rel_type"`
	Isolation   IsolationKeys `json:"isolation"`
}

// NodeByID returns the node with the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

var validate = validator.New()

// Validate checks that all members of the isolation triple are set.
func (k IsolationKeys) Validate() error {
	if err := validate.Struct(k); err != nil {
		return fmt.Errorf("invalid isolation keys: %w", err)
	}
	return nil
}
