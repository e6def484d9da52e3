package graph

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/OFFIS-RIT/niemgraph/pkg/common"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"
	"github.com/OFFIS-RIT/niemgraph/pkg/mapping"
)

// Format is the serialization of an instance document.
type Format string

const (
	FormatXML    Format = "xml"
	FormatJSONLD Format = "jsonld"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xml":
		return FormatXML, nil
	case "jsonld", "json-ld", "json":
		return FormatJSONLD, nil
	default:
		return "", fmt.Errorf("unknown instance format %q", s)
	}
}

// DetectFormat guesses the format of a document from its file extension
// and, failing that, from its first non-space byte.
func DetectFormat(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML
	case ".json", ".jsonld":
		return FormatJSONLD
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSONLD
	}
	return FormatXML
}

// Options are the per-document parameters of a conversion.
type Options struct {
	Isolation common.IsolationKeys
	// Salt feeds synthetic id derivation. Empty selects a random salt.
	Salt string
	// IDFunc derives synthetic ids. Nil selects HashID.
	IDFunc IDFunc
	// Dynamic enables the JSON-LD complexity heuristic for unmapped objects.
	Dynamic    bool
	Unresolved UnresolvedPolicy

	format Format
}

// Result is the outcome of converting one document.
type Result struct {
	Graph       *common.Graph
	Diagnostics common.Diagnostics
	// Unresolved lists the edges dropped because an endpoint was unknown.
	Unresolved []common.Edge
	// Salt is the salt the conversion used.
	Salt string
}

// Converter turns instance documents into graphs for one mapping. It holds
// only read-only state and may be used by concurrent conversions.
type Converter struct {
	mapping    *mapping.Mapping
	roles      *roleTable
	ns         namespaceTable
	augEnabled bool
	augPrefix  string
}

// NewConverter precomputes the role lookup table of m.
func NewConverter(m *mapping.Mapping) *Converter {
	ns := namespaceTable{byURI: map[string]string{}, byPrefix: map[string]string{}}
	for _, n := range m.Namespaces {
		if n.URI != "" {
			if _, ok := ns.byURI[n.URI]; !ok {
				ns.byURI[n.URI] = n.Prefix
			}
		}
		ns.byPrefix[n.Prefix] = n.URI
	}

	prefix := m.Augmentations.Prefix
	if prefix == "" {
		prefix = mapping.DefaultAugmentationPrefix
	}

	return &Converter{
		mapping:    m,
		roles:      newRoleTable(m),
		ns:         ns,
		augEnabled: m.Augmentations.Enabled,
		augPrefix:  prefix,
	}
}

// Mapping returns the mapping the converter was built from.
func (c *Converter) Mapping() *mapping.Mapping {
	return c.mapping
}

// ConvertXML converts an XML instance document.
func (c *Converter) ConvertXML(ctx context.Context, data []byte, opts Options) (*Result, error) {
	return c.Convert(ctx, FormatXML, data, opts)
}

// ConvertJSONLD converts a JSON-LD instance document.
func (c *Converter) ConvertJSONLD(ctx context.Context, data []byte, opts Options) (*Result, error) {
	return c.Convert(ctx, FormatJSONLD, data, opts)
}

// Convert parses data in the given format and converts it into a graph.
// Only malformed input and invalid options are errors; every other
// condition is reported through Result.Diagnostics.
func (c *Converter) Convert(ctx context.Context, format Format, data []byte, opts Options) (*Result, error) {
	if err := opts.Isolation.Validate(); err != nil {
		return nil, err
	}
	if opts.Salt == "" {
		salt, err := NewSalt()
		if err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		opts.Salt = salt
	}
	if opts.IDFunc == nil {
		opts.IDFunc = HashID
	}
	opts.format = format

	file := opts.Isolation.SourceFile
	var (
		root *Element
		err  error
	)
	switch format {
	case FormatXML:
		root, err = parseXML(data, file, c.ns)
	case FormatJSONLD:
		root, err = parseJSONLD(data, file, c.ns)
	default:
		return nil, fmt.Errorf("unknown instance format %q", format)
	}
	if err != nil {
		return nil, err
	}

	t := newTraversal(c, opts)
	if err := t.run(ctx, root); err != nil {
		return nil, fmt.Errorf("failed to convert %s: %w", file, err)
	}

	logger.Debug("[Convert] Converted",
		"file", file,
		"nodes", len(t.graph.Nodes),
		"containment", len(t.graph.Containment),
		"edges", len(t.graph.Edges),
		"unresolved", len(t.unresolved),
	)

	return &Result{
		Graph:       t.graph,
		Diagnostics: t.diags,
		Unresolved:  t.unresolved,
		Salt:        opts.Salt,
	}, nil
}
