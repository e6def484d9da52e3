package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/OFFIS-RIT/niemgraph/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalRoundTrip(t *testing.T) {
	m, _ := compileFixture(t, CompileOptions{})

	data, err := Marshal(m)
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, m, parsed)

	again, err := Marshal(parsed)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestParseAppliesDefaults(t *testing.T) {
	m, err := Parse([]byte("objects:\n  - qname: nc:PersonType\n    label: nc_Person\n"))
	require.NoError(t, err)

	assert.Equal(t, Version, m.Version)
	assert.Equal(t, DefaultAugmentationPrefix, m.Augmentations.Prefix)
	assert.NotNil(t, m.Associations)
	assert.NotNil(t, m.References)
	require.Len(t, m.Objects, 1)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("objects: [unclosed"))
	assert.Error(t, err)
}

func TestWriteAndLoadFile(t *testing.T) {
	m, _ := compileFixture(t, CompileOptions{})
	path := filepath.Join(t.TempDir(), "justice.mapping.yaml")

	require.NoError(t, WriteFile(m, path))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
}

func TestValidateCompiled(t *testing.T) {
	m, _ := compileFixture(t, CompileOptions{})

	diags, err := Validate(m)
	require.NoError(t, err)
	assert.Empty(t, diags.Items)
}

func TestValidateProblems(t *testing.T) {
	m := &Mapping{
		Version: Version,
		Objects: []ObjectRule{
			{QName: "nc:PersonType", Label: "nc_Person"},
			{QName: "nc:PersonType", Label: "nc_Human"},
		},
	}
	_, err := Validate(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicates")

	m = &Mapping{
		Version: Version,
		Associations: []AssociationRule{{
			QName:   "j:AType",
			RelType: "A",
			Endpoints: []Endpoint{
				{Role: "j:Person", Label: "nc_Person", Direction: "sideways"},
			},
		}},
	}
	_, err = Validate(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oneof")

	_, err = Validate(nil)
	assert.Error(t, err)
}

func TestValidateAdvisories(t *testing.T) {
	m := &Mapping{
		Version: Version,
		Associations: []AssociationRule{{
			QName:     "j:AType",
			RelType:   "A",
			Endpoints: []Endpoint{{Role: "j:Person", Label: "nc_Person", Direction: DirectionSource}},
		}},
		References: []ReferenceRule{
			{Owner: "nc:VehicleType", Field: "j:Owner", TargetLabel: "nc_Person", RelType: "OWNER"},
		},
	}

	diags, err := Validate(m)
	require.NoError(t, err)
	assert.Len(t, diags.ByCode(common.CodeCardinalityViolation), 1)
	assert.Len(t, diags.ByCode(common.CodeDanglingRule), 1)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "mappings"))
	m, _ := compileFixture(t, CompileOptions{})

	require.NoError(t, store.Put(ctx, "justice-6", m))
	got, err := store.Get(ctx, "justice-6")
	require.NoError(t, err)
	assert.Equal(t, m, got)

	_, err = store.Get(ctx, "unknown")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Error(t, store.Put(ctx, "../escape", m))
	_, err = store.Get(ctx, "")
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	key, err := Key("justice-6")
	require.NoError(t, err)
	assert.Equal(t, "justice-6.mapping.yaml", key)

	for _, bad := range []string{"", ".", "..", "a/b", `a\b`} {
		_, err := Key(bad)
		assert.Error(t, err, bad)
	}
}

func TestSchemaIDFromPath(t *testing.T) {
	assert.Equal(t, "justice-6", SchemaIDFromPath("/srv/mappings/justice-6.mapping.yaml"))
	assert.Equal(t, "justice", SchemaIDFromPath("justice.yaml"))
	assert.Equal(t, "plain", SchemaIDFromPath("plain"))
}

func TestJSONSchema(t *testing.T) {
	data, err := JSONSchema()
	require.NoError(t, err)

	var schema struct {
		Title      string                     `json:"title"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, "NIEM graph mapping", schema.Title)
	for _, key := range []string{"version", "namespaces", "objects", "associations", "references", "augmentations", "polymorphism"} {
		assert.Contains(t, schema.Properties, key)
	}
}
