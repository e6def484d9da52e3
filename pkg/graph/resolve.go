package graph

import (
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/niemgraph/pkg/common"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"
)

// UnresolvedPolicy decides what happens to an edge whose endpoint is not a
// node of the converted document.
type UnresolvedPolicy int

const (
	// UnresolvedKeepLabeled keeps edges whose missing endpoint has a label
	// declared by the mapping, and drops the rest with a warning.
	UnresolvedKeepLabeled UnresolvedPolicy = iota
	// UnresolvedWarn drops every edge with a missing endpoint and logs a
	// data-quality warning.
	UnresolvedWarn
	// UnresolvedDrop drops every edge with a missing endpoint without
	// logging.
	UnresolvedDrop
)

func (p UnresolvedPolicy) String() string {
	switch p {
	case UnresolvedKeepLabeled:
		return "keep"
	case UnresolvedWarn:
		return "warn"
	case UnresolvedDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// ParseUnresolvedPolicy parses "keep", "warn" or "drop".
func ParseUnresolvedPolicy(s string) (UnresolvedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keep", "":
		return UnresolvedKeepLabeled, nil
	case "warn":
		return UnresolvedWarn, nil
	case "drop":
		return UnresolvedDrop, nil
	default:
		return 0, fmt.Errorf("unknown unresolved policy %q", s)
	}
}

// resolve is the second pass: it fills endpoint labels from the node table
// and applies the unresolved policy to edges that cannot be labeled.
func (t *traversal) resolve() {
	kept := t.graph.Edges[:0]
	for _, e := range t.graph.Edges {
		fromLabel, fromOK := t.label(e.FromID, e.FromLabel, e.FromRuleLabel)
		toLabel, toOK := t.label(e.ToID, e.ToLabel, e.ToRuleLabel)
		if fromOK && toOK {
			t.noteExternal(e, e.FromID, e.FromLabel)
			t.noteExternal(e, e.ToID, e.ToLabel)
			e.FromLabel, e.ToLabel = fromLabel, toLabel
			kept = append(kept, e)
			continue
		}

		missing := e.ToID
		if !fromOK {
			missing = e.FromID
		}
		t.unresolved = append(t.unresolved, e)

		if t.opts.Unresolved == UnresolvedDrop {
			t.diags.Info(common.CodeUnresolvedReference, e.RelType, missing, "edge to unknown id %s dropped", missing)
			continue
		}
		t.diags.Warn(common.CodeUnresolvedReference, e.RelType, missing, "edge to unknown id %s dropped", missing)
		logger.Warn("[Convert] Unresolved reference", "file", t.file, "rel_type", e.RelType, "ref", missing)
	}
	t.graph.Edges = kept
}

// noteExternal records an advisory for a kept edge whose endpoint id is
// not a node of the document and is labeled from the mapping alone.
func (t *traversal) noteExternal(e common.Edge, id, current string) {
	if _, ok := t.nodes[id]; ok || current != "" {
		return
	}
	t.diags.Info(common.CodeUnresolvedReference, e.RelType, id, "edge to id %s outside the document kept", id)
	logger.Info("[Convert] Reference outside document", "file", t.file, "rel_type", e.RelType, "ref", id)
}

// label returns the label of id from the node table, or the rule label
// when the policy allows edges to endpoints outside the document.
func (t *traversal) label(id, current, ruleLabel string) (string, bool) {
	if n, ok := t.nodes[id]; ok {
		return n.Label, true
	}
	if current != "" {
		return current, true
	}
	if t.opts.Unresolved == UnresolvedKeepLabeled && ruleLabel != "" {
		return ruleLabel, true
	}
	return "", false
}
