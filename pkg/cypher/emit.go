// Package cypher renders converted graphs as idempotent Cypher MERGE
// statements. Statements are plain strings; executing them is left to the
// caller.
package cypher

import (
	"sort"
	"strings"

	"github.com/OFFIS-RIT/niemgraph/pkg/common"
)

// Property keys of the isolation triple, present on every node and
// relationship and in every match predicate.
const (
	UploadIDKey   = "_upload_id"
	SourceFileKey = "_source_file"
	SchemaIDKey   = "_schema_id"
)

// Emit renders g as statements: nodes first, then containment edges, then
// association and reference edges.
func Emit(g *common.Graph) []string {
	out := make([]string, 0, len(g.Nodes)+len(g.Containment)+len(g.Edges))
	for _, n := range g.Nodes {
		out = append(out, NodeStatement(n))
	}
	for _, c := range g.Containment {
		out = append(out, ContainmentStatement(c))
	}
	for _, e := range g.Edges {
		out = append(out, EdgeStatement(e))
	}
	return out
}

// Script joins statements into one document, each terminated by a
// semicolon, as cypher-shell reads them.
func Script(stmts []string) string {
	var b strings.Builder
	for _, s := range stmts {
		b.WriteString(s)
		b.WriteString(";\n")
	}
	return b.String()
}

// NodeStatement merges a node on its id and isolation triple and sets its
// scalar and augmentation properties.
func NodeStatement(n *common.Node) string {
	var b strings.Builder
	b.WriteString("MERGE (n:")
	b.WriteString(Identifier(n.Label))
	b.WriteString(" ")
	b.WriteString(key(n.ID, n.Isolation))
	b.WriteString(")")

	sets := []string{"n.qname = " + String(n.QName)}
	sets = append(sets, assignments("n", n.Props)...)
	sets = append(sets, assignments("n", n.Augmentations)...)
	writeSet(&b, sets)
	return b.String()
}

// ContainmentStatement merges the structural relation between two nodes.
func ContainmentStatement(c common.ContainmentEdge) string {
	var b strings.Builder
	writeMatch(&b, c.ParentLabel, c.ParentID, c.ChildLabel, c.ChildID, c.Isolation)
	writeMerge(&b, c.RelType, c.Isolation)
	return b.String()
}

// EdgeStatement merges an association or reference relationship and sets
// its properties.
func EdgeStatement(e common.Edge) string {
	var b strings.Builder
	writeMatch(&b, e.FromLabel, e.FromID, e.ToLabel, e.ToID, e.Isolation)
	writeMerge(&b, e.RelType, e.Isolation)
	writeSet(&b, assignments("r", e.Props))
	return b.String()
}

func key(id string, iso common.IsolationKeys) string {
	return "{id: " + String(id) +
		", " + UploadIDKey + ": " + String(iso.UploadID) +
		", " + SourceFileKey + ": " + String(iso.SourceFile) +
		", " + SchemaIDKey + ": " + String(iso.SchemaID) + "}"
}

func writeMatch(b *strings.Builder, fromLabel, fromID, toLabel, toID string, iso common.IsolationKeys) {
	b.WriteString("MATCH (a:")
	b.WriteString(Identifier(fromLabel))
	b.WriteString(" ")
	b.WriteString(key(fromID, iso))
	b.WriteString("), (b:")
	b.WriteString(Identifier(toLabel))
	b.WriteString(" ")
	b.WriteString(key(toID, iso))
	b.WriteString(") ")
}

func writeMerge(b *strings.Builder, relType string, iso common.IsolationKeys) {
	b.WriteString("MERGE (a)-[r:")
	b.WriteString(Identifier(relType))
	b.WriteString(" {" + UploadIDKey + ": " + String(iso.UploadID) +
		", " + SourceFileKey + ": " + String(iso.SourceFile) +
		", " + SchemaIDKey + ": " + String(iso.SchemaID) + "}")
	b.WriteString("]->(b)")
}

func writeSet(b *strings.Builder, sets []string) {
	if len(sets) == 0 {
		return
	}
	b.WriteString(" SET ")
	b.WriteString(strings.Join(sets, ", "))
}

// assignments renders SET items for props in key order, skipping absent
// values.
func assignments(variable string, props map[string]any) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		lit, ok := Literal(props[k])
		if !ok {
			continue
		}
		out = append(out, variable+"."+Identifier(k)+" = "+lit)
	}
	return out
}
