package mapping

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile loads and parses a YAML mapping file from the given path.
func LoadFile(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a Mapping.
func Parse(data []byte) (*Mapping, error) {
	var m Mapping

	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse mapping YAML: %w", err)
	}

	applyDefaults(&m)

	return &m, nil
}

// applyDefaults fills in values that older mapping files may omit.
func applyDefaults(m *Mapping) {
	if m.Version == "" {
		m.Version = Version
	}
	if m.Augmentations.Prefix == "" {
		m.Augmentations.Prefix = DefaultAugmentationPrefix
	}
	if m.Namespaces == nil {
		m.Namespaces = []Namespace{}
	}
	if m.Objects == nil {
		m.Objects = []ObjectRule{}
	}
	if m.Associations == nil {
		m.Associations = []AssociationRule{}
	}
	if m.References == nil {
		m.References = []ReferenceRule{}
	}
	for i := range m.Associations {
		if m.Associations[i].Endpoints == nil {
			m.Associations[i].Endpoints = []Endpoint{}
		}
	}
}

// Marshal serializes a Mapping to YAML. Output is stable for equal input.
func Marshal(m *Mapping) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("failed to marshal mapping: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal mapping: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes a Mapping to the given path.
func WriteFile(m *Mapping, path string) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write mapping file %s: %w", path, err)
	}

	return nil
}
