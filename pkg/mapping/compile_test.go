package mapping

import (
	"strings"
	"testing"

	"github.com/OFFIS-RIT/niemgraph/internal/testfixtures"
	"github.com/OFFIS-RIT/niemgraph/pkg/cmf"
	"github.com/OFFIS-RIT/niemgraph/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileFixture(t *testing.T, opts CompileOptions) (*Mapping, common.Diagnostics) {
	t.Helper()
	model, err := cmf.Parse(strings.NewReader(testfixtures.CMF))
	require.NoError(t, err)
	m, diags, err := Compile(model, opts)
	require.NoError(t, err)
	return m, diags
}

func TestCompileObjects(t *testing.T) {
	m, _ := compileFixture(t, CompileOptions{})

	var labels []string
	for _, o := range m.Objects {
		labels = append(labels, o.QName+"="+o.Label)
	}
	assert.Equal(t, []string{
		"exch:MessageType=exch_Message",
		"nc:ObjectType=nc_Object",
		"nc:PersonNameType=nc_PersonName",
		"nc:PersonType=nc_Person",
		"nc:VehicleType=nc_Vehicle",
	}, labels)

	person := m.Objects[3]
	assert.Equal(t, []string{"j:Person", "j:VehicleRegisteredOwner", "j:Witness", "nc:Person"}, person.Elements)
	assert.Equal(t, []ScalarPropertyPath{
		{Path: "nc:PersonFullName", Property: "nc_PersonFullName", Cardinality: "0..1"},
		{Path: "nc:PersonHeightMeasure/nc:MeasureValueText", Property: "nc_PersonHeightMeasure__nc_MeasureValueText", Cardinality: "0..1"},
		{Path: "nc:PersonHeightMeasure/nc:MeasureUnitText", Property: "nc_PersonHeightMeasure__nc_MeasureUnitText", Cardinality: "0..1"},
		{Path: "nc:PersonNickname", Property: "nc_PersonNickname", Cardinality: "0..*"},
	}, person.ScalarProps)
}

func TestCompileAssociations(t *testing.T) {
	m, diags := compileFixture(t, CompileOptions{})

	require.Len(t, m.Associations, 2)
	pva := m.Associations[0]
	assert.Equal(t, "j:PersonVehicleAssociationType", pva.QName)
	assert.Equal(t, "PERSONVEHICLEASSOCIATION", pva.RelType)
	assert.Equal(t, "j_PersonVehicleAssociation", pva.Label)
	assert.Equal(t, []string{"j:PersonVehicleAssociation"}, pva.Elements)
	assert.Equal(t, []Endpoint{
		{Role: "j:Person", Label: "nc_Person", Direction: DirectionSource, Cardinality: "1..1"},
		{Role: "j:Vehicle", Label: "nc_Vehicle", Direction: DirectionTarget, Cardinality: "1..1"},
	}, pva.Endpoints)
	assert.Equal(t, []ScalarPropertyPath{
		{Path: "nc:AssociationBeginDate", Property: "nc_AssociationBeginDate", Cardinality: "0..1"},
	}, pva.ScalarProps)

	witness := m.Associations[1]
	assert.Equal(t, "j:WitnessAssociationType", witness.QName)
	assert.Empty(t, witness.Endpoints)

	violations := diags.ByCode(common.CodeCardinalityViolation)
	require.Len(t, violations, 1)
	assert.Equal(t, "j:WitnessAssociationType", violations[0].QName)
}

func TestCompileSkipsSentinels(t *testing.T) {
	m, _ := compileFixture(t, CompileOptions{})

	for _, o := range m.Objects {
		assert.NotEqual(t, "nc:AssociationType", o.QName)
	}
	for _, a := range m.Associations {
		assert.NotEqual(t, "nc:AssociationType", a.QName)
	}
}

func TestCompileReferences(t *testing.T) {
	m, _ := compileFixture(t, CompileOptions{})

	assert.Equal(t, []ReferenceRule{
		{Owner: "exch:MessageType", Field: "nc:Person", TargetLabel: "nc_Person", RelType: "PERSON", Cardinality: "0..*"},
		{Owner: "exch:MessageType", Field: "nc:Vehicle", TargetLabel: "nc_Vehicle", RelType: "VEHICLE", Cardinality: "0..*"},
		{Owner: "nc:PersonType", Field: "nc:PersonName", TargetLabel: "nc_PersonName", RelType: "PERSONNAME", Cardinality: "0..*"},
		{Owner: "nc:VehicleType", Field: "j:VehicleRegisteredOwner", TargetLabel: "nc_Person", RelType: "VEHICLEREGISTEREDOWNER", Cardinality: "0..1"},
	}, m.References)
}

func TestCompileOptions(t *testing.T) {
	m, _ := compileFixture(t, CompileOptions{
		AugmentationPrefix:  "x_",
		DisableAugmentation: true,
		Polymorphism:        true,
	})

	assert.Equal(t, AugmentationOptions{Enabled: false, Prefix: "x_"}, m.Augmentations)
	assert.True(t, m.Polymorphism.Enabled)

	defaults, _ := compileFixture(t, CompileOptions{})
	assert.Equal(t, AugmentationOptions{Enabled: true, Prefix: DefaultAugmentationPrefix}, defaults.Augmentations)
	assert.Equal(t, Version, defaults.Version)
}

func TestCompileCustomSentinel(t *testing.T) {
	m, _ := compileFixture(t, CompileOptions{AssociationSentinels: []string{"nc.ObjectType"}})

	var qnames []string
	for _, a := range m.Associations {
		qnames = append(qnames, a.QName)
	}
	assert.Contains(t, qnames, "nc:PersonType")
	assert.NotContains(t, qnames, "j:PersonVehicleAssociationType")
}

func TestCompileElementIndex(t *testing.T) {
	m, _ := compileFixture(t, CompileOptions{})

	assert.Contains(t, m.KnownElements, "nc:PersonGivenName")
	assert.Contains(t, m.KnownElements, "j:VehicleRegisteredOwner")
	assert.NotContains(t, m.KnownElements, "ext:FavoriteColor")
	assert.Empty(t, m.KnownAttributes)
}

func TestCompileNilModel(t *testing.T) {
	_, _, err := Compile(nil, CompileOptions{})
	assert.Error(t, err)
}

func TestCompileDeterministic(t *testing.T) {
	a, _ := compileFixture(t, CompileOptions{})
	b, _ := compileFixture(t, CompileOptions{})

	da, err := Marshal(a)
	require.NoError(t, err)
	db, err := Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(da), string(db))
}
