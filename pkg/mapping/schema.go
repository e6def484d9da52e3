package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// JSONSchema returns the JSON Schema of the serialized Mapping, for
// validators that gate mapping files before conversion.
func JSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
	}
	s := r.Reflect(&Mapping{})
	s.Title = "NIEM graph mapping"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mapping schema: %w", err)
	}
	return data, nil
}
