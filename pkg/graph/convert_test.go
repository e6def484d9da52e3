package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/niemgraph/internal/testfixtures"
	"github.com/OFFIS-RIT/niemgraph/pkg/cmf"
	"github.com/OFFIS-RIT/niemgraph/pkg/common"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"
	"github.com/OFFIS-RIT/niemgraph/pkg/mapping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const structuresNS = `xmlns:structures="https://docs.oasis-open.org/niemopen/ns/model/structures/6.0/"`

func fixtureMapping(t *testing.T) *mapping.Mapping {
	t.Helper()
	model, err := cmf.Parse(strings.NewReader(testfixtures.CMF))
	require.NoError(t, err)
	m, _, err := mapping.Compile(model, mapping.CompileOptions{})
	require.NoError(t, err)
	return m
}

func isolation(file string) common.IsolationKeys {
	return common.IsolationKeys{UploadID: "upload-1", SourceFile: file, SchemaID: "justice-6"}
}

func convertXML(t *testing.T, m *mapping.Mapping, doc string, opts Options) *Result {
	t.Helper()
	if opts.Isolation == (common.IsolationKeys{}) {
		opts.Isolation = isolation("message.xml")
	}
	if opts.Salt == "" {
		opts.Salt = "salt"
	}
	res, err := NewConverter(m).ConvertXML(context.Background(), []byte(doc), opts)
	require.NoError(t, err)
	return res
}

func nodeLabels(g *common.Graph) []string {
	out := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, n.Label)
	}
	return out
}

func TestConvertXMLMessage(t *testing.T) {
	res := convertXML(t, fixtureMapping(t), testfixtures.XMLMessage, Options{})
	g := res.Graph

	assert.Equal(t, []string{"exch_Message", "nc_Person", "nc_PersonName", "nc_Person", "nc_Vehicle"}, nodeLabels(g))

	msg := g.Nodes[0]
	assert.True(t, msg.Synthetic)
	assert.True(t, strings.HasPrefix(msg.ID, SyntheticPrefix))

	p1 := g.NodeByID("P1")
	require.NotNil(t, p1)
	assert.False(t, p1.Synthetic)
	assert.Equal(t, "nc:Person", p1.QName)
	assert.Equal(t, "Ada O'Neil", p1.Props["nc_PersonFullName"])
	assert.Equal(t, []any{"Addie", "A"}, p1.Props["nc_PersonNickname"])
	assert.Equal(t, "170", p1.Props["nc_PersonHeightMeasure__nc_MeasureValueText"])
	assert.Equal(t, "cm", p1.Props["nc_PersonHeightMeasure__nc_MeasureUnitText"])
	assert.Equal(t, map[string]any{"aug_ext_FavoriteColor": "green"}, p1.Augmentations)

	name := g.Nodes[2]
	assert.Equal(t, "Ada", name.Props["nc_PersonGivenName"])
	assert.Equal(t, "O'Neil", name.Props["nc_PersonSurName"])

	v1 := g.NodeByID("V1")
	require.NotNil(t, v1)
	assert.Equal(t, map[string]any{"nc_VehicleMakeName": "Volvo", "nc_VehicleModelYearDate": "2019"}, v1.Props)

	rels := make([]string, 0, len(g.Containment))
	for _, c := range g.Containment {
		rels = append(rels, c.ParentLabel+"-"+c.RelType+"->"+c.ChildLabel)
	}
	assert.Equal(t, []string{
		"exch_Message-HAS_PERSON->nc_Person",
		"nc_Person-HAS_PERSONNAME->nc_PersonName",
		"exch_Message-HAS_PERSON->nc_Person",
		"exch_Message-HAS_VEHICLE->nc_Vehicle",
	}, rels)

	require.Len(t, g.Edges, 2)
	owner := g.Edges[0]
	assert.Equal(t, "V1", owner.FromID)
	assert.Equal(t, "P2", owner.ToID)
	assert.Equal(t, "nc_Person", owner.ToLabel)
	assert.Equal(t, "VEHICLEREGISTEREDOWNER", owner.RelType)

	assoc := g.Edges[1]
	assert.Equal(t, "P1", assoc.FromID)
	assert.Equal(t, "nc_Person", assoc.FromLabel)
	assert.Equal(t, "V1", assoc.ToID)
	assert.Equal(t, "nc_Vehicle", assoc.ToLabel)
	assert.Equal(t, "PERSONVEHICLEASSOCIATION", assoc.RelType)
	assert.Equal(t, map[string]any{
		"source_role":             "j:Person",
		"target_role":             "j:Vehicle",
		"nc_AssociationBeginDate": "2024-01-02",
	}, assoc.Props)

	assert.Empty(t, res.Unresolved)
}

func TestAssociationScenario(t *testing.T) {
	res := convertXML(t, fixtureMapping(t), testfixtures.XMLAssociationOnly, Options{})

	assert.Empty(t, res.Graph.Nodes)
	assert.Empty(t, res.Graph.Containment)
	require.Len(t, res.Graph.Edges, 1)

	e := res.Graph.Edges[0]
	assert.Equal(t, "P1", e.FromID)
	assert.Equal(t, "nc_Person", e.FromLabel)
	assert.Equal(t, "V1", e.ToID)
	assert.Equal(t, "nc_Vehicle", e.ToLabel)
	assert.Equal(t, "PERSONVEHICLEASSOCIATION", e.RelType)
}

func TestStructuresURI(t *testing.T) {
	res := convertXML(t, fixtureMapping(t), testfixtures.XMLIdentifiedMessage, Options{})
	g := res.Graph

	assert.Equal(t, []string{"exch_Message", "nc_Person", "nc_Person", "nc_Vehicle"}, nodeLabels(g))
	for _, id := range []string{"M1", "P1", "P2", "V1"} {
		n := g.NodeByID(id)
		require.NotNil(t, n, id)
		assert.False(t, n.Synthetic)
	}
	assert.Len(t, g.Containment, 3)

	require.Len(t, g.Edges, 2)
	owner := g.Edges[0]
	assert.Equal(t, "VEHICLEREGISTEREDOWNER", owner.RelType)
	assert.Equal(t, "V1", owner.FromID)
	assert.Equal(t, "P2", owner.ToID)

	assoc := g.Edges[1]
	assert.Equal(t, "PERSONVEHICLEASSOCIATION", assoc.RelType)
	assert.Equal(t, "P1", assoc.FromID)
	assert.Equal(t, "V1", assoc.ToID)
	assert.Empty(t, res.Unresolved)
}

func TestStructuresURIEndpoints(t *testing.T) {
	doc := `<j:PersonVehicleAssociation xmlns:j="` + testfixtures.JURI + `" ` + structuresNS + `>
  <j:Person structures:uri="#P1"/>
  <j:Vehicle structures:uri="#V1"/>
</j:PersonVehicleAssociation>`

	res := convertXML(t, fixtureMapping(t), doc, Options{})

	assert.Empty(t, res.Graph.Nodes)
	require.Len(t, res.Graph.Edges, 1)
	e := res.Graph.Edges[0]
	assert.Equal(t, "P1", e.FromID)
	assert.Equal(t, "nc_Person", e.FromLabel)
	assert.Equal(t, "V1", e.ToID)
	assert.Equal(t, "nc_Vehicle", e.ToLabel)
	assert.Len(t, res.Diagnostics.ByCode(common.CodeUnresolvedReference), 2)
}

func TestTextWhitespace(t *testing.T) {
	doc := `<nc:Person xmlns:nc="` + testfixtures.NCURI + `" ` + structuresNS + ` structures:id="P1">
  <nc:PersonFullName>  Ada O'Neil </nc:PersonFullName>
  <nc:PersonName>
  </nc:PersonName>
</nc:Person>`

	res := convertXML(t, fixtureMapping(t), doc, Options{})

	p1 := res.Graph.NodeByID("P1")
	require.NotNil(t, p1)
	assert.Equal(t, "  Ada O'Neil ", p1.Props["nc_PersonFullName"])
	assert.NotContains(t, p1.Props, "value")
}

func TestAssociationScenarioWarnPolicyDrops(t *testing.T) {
	rec := logger.NewRecorder()
	logger.Init(rec)
	defer logger.Init()

	res := convertXML(t, fixtureMapping(t), testfixtures.XMLAssociationOnly, Options{Unresolved: UnresolvedWarn})

	assert.Empty(t, res.Graph.Edges)
	require.Len(t, res.Unresolved, 1)
	assert.Len(t, res.Diagnostics.ByCode(common.CodeUnresolvedReference), 1)
	assert.Len(t, rec.Entries("warn"), 1)
}

func TestUnresolvedDropIsSilent(t *testing.T) {
	rec := logger.NewRecorder()
	logger.Init(rec)
	defer logger.Init()

	res := convertXML(t, fixtureMapping(t), testfixtures.XMLAssociationOnly, Options{Unresolved: UnresolvedDrop})

	assert.Empty(t, res.Graph.Edges)
	assert.Len(t, res.Unresolved, 1)
	assert.Empty(t, rec.Entries("warn"))
}

func TestAssociationWithOneEndpoint(t *testing.T) {
	doc := `<j:PersonVehicleAssociation xmlns:j="` + testfixtures.JURI + `" ` + structuresNS + `>
  <j:Person structures:ref="P1"/>
</j:PersonVehicleAssociation>`

	res := convertXML(t, fixtureMapping(t), doc, Options{})

	assert.Empty(t, res.Graph.Edges)
	assert.Empty(t, res.Graph.Nodes)
	assert.Len(t, res.Diagnostics.ByCode(common.CodeCardinalityViolation), 1)
}

func TestAssociationDualRole(t *testing.T) {
	doc := `<exch:Message xmlns:exch="` + testfixtures.ExchURI + `" xmlns:nc="` + testfixtures.NCURI + `" xmlns:j="` + testfixtures.JURI + `" ` + structuresNS + `>
  <nc:Person structures:id="P1"/>
  <nc:Vehicle structures:id="V1"/>
  <j:PersonVehicleAssociation structures:id="A1">
    <j:Person structures:ref="P1"/>
    <j:Vehicle structures:ref="V1"/>
    <nc:AssociationBeginDate>2024-01-02</nc:AssociationBeginDate>
  </j:PersonVehicleAssociation>
</exch:Message>`

	res := convertXML(t, fixtureMapping(t), doc, Options{})
	g := res.Graph

	a1 := g.NodeByID("A1")
	require.NotNil(t, a1)
	assert.Equal(t, "j_PersonVehicleAssociation", a1.Label)
	assert.Equal(t, "2024-01-02", a1.Props["nc_AssociationBeginDate"])

	require.Len(t, g.Edges, 2)
	for i, want := range []struct{ to, label, role string }{
		{"P1", "nc_Person", "j:Person"},
		{"V1", "nc_Vehicle", "j:Vehicle"},
	} {
		e := g.Edges[i]
		assert.Equal(t, "A1", e.FromID)
		assert.Equal(t, want.to, e.ToID)
		assert.Equal(t, want.label, e.ToLabel)
		assert.Equal(t, "PERSONVEHICLEASSOCIATION", e.RelType)
		assert.Equal(t, want.role, e.Props["role"])
	}
}

func TestAssociationInlineEndpoints(t *testing.T) {
	doc := `<j:PersonVehicleAssociation xmlns:nc="` + testfixtures.NCURI + `" xmlns:j="` + testfixtures.JURI + `">
  <j:Person><nc:PersonFullName>Ada</nc:PersonFullName></j:Person>
  <j:Vehicle><nc:VehicleMakeName>Volvo</nc:VehicleMakeName></j:Vehicle>
</j:PersonVehicleAssociation>`

	res := convertXML(t, fixtureMapping(t), doc, Options{})
	g := res.Graph

	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, g.Nodes[0].ID, g.Edges[0].FromID)
	assert.Equal(t, g.Nodes[1].ID, g.Edges[0].ToID)
	assert.Equal(t, "Ada", g.Nodes[0].Props["nc_PersonFullName"])
	assert.Equal(t, "Volvo", g.Nodes[1].Props["nc_VehicleMakeName"])
}

func TestFlattenSingleTextChild(t *testing.T) {
	m := &mapping.Mapping{
		Namespaces: []mapping.Namespace{{Prefix: "nc", URI: testfixtures.NCURI}},
		Objects: []mapping.ObjectRule{
			{QName: "nc:ThingType", Label: "nc_Thing", Elements: []string{"nc:Thing"}},
		},
		KnownElements: []string{"nc:Inner", "nc:Thing", "nc:Wrapper"},
		Augmentations: mapping.AugmentationOptions{Enabled: true},
	}
	doc := `<nc:Thing xmlns:nc="` + testfixtures.NCURI + `" ` + structuresNS + ` structures:id="T1">
  <nc:Wrapper><nc:Inner>x</nc:Inner></nc:Wrapper>
</nc:Thing>`

	res := convertXML(t, m, doc, Options{})

	require.Len(t, res.Graph.Nodes, 1)
	assert.Equal(t, map[string]any{"nc_Wrapper__nc_Inner": "x"}, res.Graph.Nodes[0].Props)
	assert.Empty(t, res.Graph.Containment)
}

func TestAugmentationDisabled(t *testing.T) {
	m := fixtureMapping(t)
	m.Augmentations.Enabled = false

	res := convertXML(t, m, testfixtures.XMLMessage, Options{})

	p1 := res.Graph.NodeByID("P1")
	require.NotNil(t, p1)
	assert.Empty(t, p1.Augmentations)
	assert.NotEmpty(t, res.Diagnostics.ByCode(common.CodeUnmappedContent))
}

func TestUnknownAttributeIsAugmentation(t *testing.T) {
	doc := `<nc:Person xmlns:nc="` + testfixtures.NCURI + `" xmlns:ext="http://example.com/extension/" ` + structuresNS + ` structures:id="P1" ext:source="dmv">
  <nc:PersonFullName ext:confidence="high">Ada</nc:PersonFullName>
</nc:Person>`

	res := convertXML(t, fixtureMapping(t), doc, Options{})

	p1 := res.Graph.NodeByID("P1")
	require.NotNil(t, p1)
	assert.Equal(t, "Ada", p1.Props["nc_PersonFullName"])
	assert.Equal(t, "dmv", p1.Augmentations["aug_ext_source"])
	assert.Equal(t, "high", p1.Augmentations["aug_nc_PersonFullName__ext_confidence"])
}

func TestRootWrapperSuppressed(t *testing.T) {
	doc := `<ext:Envelope xmlns:ext="http://example.com/extension/" xmlns:nc="` + testfixtures.NCURI + `" ` + structuresNS + `>
  <nc:Person structures:id="P1"><nc:PersonFullName>Ada</nc:PersonFullName></nc:Person>
  <ext:Note>dropped</ext:Note>
</ext:Envelope>`

	res := convertXML(t, fixtureMapping(t), doc, Options{})

	assert.Equal(t, []string{"nc_Person"}, nodeLabels(res.Graph))
	assert.Empty(t, res.Graph.Containment)
	assert.Len(t, res.Diagnostics.ByCode(common.CodeUnmappedContent), 1)
}

func TestReferenceToMissingNode(t *testing.T) {
	doc := `<nc:Vehicle xmlns:nc="` + testfixtures.NCURI + `" xmlns:j="` + testfixtures.JURI + `" ` + structuresNS + ` structures:id="V1">
  <j:VehicleRegisteredOwner structures:ref="P9"/>
</nc:Vehicle>`

	kept := convertXML(t, fixtureMapping(t), doc, Options{})
	require.Len(t, kept.Graph.Edges, 1)
	assert.Equal(t, "nc_Person", kept.Graph.Edges[0].ToLabel)
	external := kept.Diagnostics.ByCode(common.CodeUnresolvedReference)
	require.Len(t, external, 1)
	assert.Equal(t, common.SeverityInfo, external[0].Severity)
	assert.Equal(t, "P9", external[0].Ref)

	dropped := convertXML(t, fixtureMapping(t), doc, Options{Unresolved: UnresolvedWarn})
	assert.Empty(t, dropped.Graph.Edges)
	require.Len(t, dropped.Unresolved, 1)
	assert.Equal(t, "P9", dropped.Unresolved[0].ToID)
}

func TestReferenceWithoutRuleNeedsNode(t *testing.T) {
	doc := `<nc:Person xmlns:nc="` + testfixtures.NCURI + `" xmlns:ext="http://example.com/extension/" ` + structuresNS + ` structures:id="P1">
  <ext:Friend structures:ref="P9"/>
</nc:Person>`

	res := convertXML(t, fixtureMapping(t), doc, Options{})

	assert.Empty(t, res.Graph.Edges)
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, "FRIEND", res.Unresolved[0].RelType)
}

func TestPolymorphism(t *testing.T) {
	m := &mapping.Mapping{
		Namespaces: []mapping.Namespace{
			{Prefix: "nc", URI: testfixtures.NCURI},
			{Prefix: "j", URI: testfixtures.JURI},
		},
		Objects: []mapping.ObjectRule{
			{QName: "j:SuspectType", Label: "j_Suspect"},
			{QName: "nc:PersonType", Label: "nc_Person", Elements: []string{"nc:Person"}},
		},
		Polymorphism:  mapping.PolymorphismOptions{Enabled: true},
		Augmentations: mapping.AugmentationOptions{Enabled: true},
	}
	doc := `<nc:Person xmlns:nc="` + testfixtures.NCURI + `" xmlns:justice="` + testfixtures.JURI + `"
    xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" ` + structuresNS + `
    structures:id="S1" xsi:type="justice:SuspectType"/>`

	res := convertXML(t, m, doc, Options{})
	assert.Equal(t, []string{"j_Suspect"}, nodeLabels(res.Graph))

	m.Polymorphism.Enabled = false
	res = convertXML(t, m, doc, Options{})
	assert.Equal(t, []string{"nc_Person"}, nodeLabels(res.Graph))
}

func TestSyntheticIDs(t *testing.T) {
	m := fixtureMapping(t)

	a := convertXML(t, m, testfixtures.XMLMessage, Options{Salt: "one"})
	b := convertXML(t, m, testfixtures.XMLMessage, Options{Salt: "one"})
	c := convertXML(t, m, testfixtures.XMLMessage, Options{Salt: "two"})

	assert.Equal(t, a.Graph.Nodes[0].ID, b.Graph.Nodes[0].ID)
	assert.NotEqual(t, a.Graph.Nodes[0].ID, c.Graph.Nodes[0].ID)

	custom := convertXML(t, m, testfixtures.XMLMessage, Options{
		IDFunc: func(parentID, qname, ordinal, salt string) string {
			return fmt.Sprintf("%s/%s@%s", parentID, qname, ordinal)
		},
	})
	assert.Equal(t, "/exch:Message@", custom.Graph.Nodes[0].ID)
	assert.Equal(t, "P1/nc:PersonName@0.0", custom.Graph.Nodes[2].ID)
}

func TestRandomSaltWhenUnset(t *testing.T) {
	res, err := NewConverter(fixtureMapping(t)).ConvertXML(context.Background(), []byte(testfixtures.XMLMessage), Options{
		Isolation: isolation("message.xml"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Salt)
}

func TestIsolationOnEveryElement(t *testing.T) {
	iso := common.IsolationKeys{UploadID: "u-9", SourceFile: "b.xml", SchemaID: "s-2"}
	res := convertXML(t, fixtureMapping(t), testfixtures.XMLMessage, Options{Isolation: iso})

	for _, n := range res.Graph.Nodes {
		assert.Equal(t, iso, n.Isolation)
	}
	for _, c := range res.Graph.Containment {
		assert.Equal(t, iso, c.Isolation)
	}
	for _, e := range res.Graph.Edges {
		assert.Equal(t, iso, e.Isolation)
	}
}

func TestMissingIsolationKeys(t *testing.T) {
	_, err := NewConverter(fixtureMapping(t)).ConvertXML(context.Background(), []byte(testfixtures.XMLMessage), Options{
		Isolation: common.IsolationKeys{UploadID: "u"},
	})
	assert.Error(t, err)
}

func TestMalformedXML(t *testing.T) {
	_, err := NewConverter(fixtureMapping(t)).ConvertXML(context.Background(), []byte("<a>\n<b></a>"), Options{
		Isolation: isolation("bad.xml"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMalformedInput))

	var malformed *common.MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "bad.xml", malformed.File)
	assert.Equal(t, 2, malformed.Line)
}

func TestDeepDocument(t *testing.T) {
	const depth = 2000
	var b strings.Builder
	b.WriteString(`<nc:Person xmlns:nc="` + testfixtures.NCURI + `" xmlns:ext="http://example.com/extension/" ` + structuresNS + ` structures:id="P1">`)
	for i := 0; i < depth; i++ {
		b.WriteString("<ext:L>")
	}
	b.WriteString("leaf")
	for i := 0; i < depth; i++ {
		b.WriteString("</ext:L>")
	}
	b.WriteString("</nc:Person>")

	res := convertXML(t, fixtureMapping(t), b.String(), Options{})
	require.Len(t, res.Graph.Nodes, 1)
	assert.Len(t, res.Graph.Nodes[0].Augmentations, 1)
}

func TestConvertHonorsCancellation(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<exch:Message xmlns:exch="` + testfixtures.ExchURI + `" xmlns:nc="` + testfixtures.NCURI + `">`)
	for i := 0; i < 2*cancelCheckInterval; i++ {
		b.WriteString("<nc:Person><nc:PersonFullName>x</nc:PersonFullName></nc:Person>")
	}
	b.WriteString("</exch:Message>")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewConverter(fixtureMapping(t)).ConvertXML(ctx, []byte(b.String()), Options{Isolation: isolation("big.xml")})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		data string
		want Format
	}{
		{"a.xml", "{", FormatXML},
		{"a.jsonld", "<", FormatJSONLD},
		{"upload", "  \n{\"@context\": {}}", FormatJSONLD},
		{"upload", "<?xml version=\"1.0\"?><a/>", FormatXML},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.path, []byte(tt.data)); got != tt.want {
			t.Errorf("DetectFormat(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestParseUnresolvedPolicy(t *testing.T) {
	for _, p := range []UnresolvedPolicy{UnresolvedKeepLabeled, UnresolvedWarn, UnresolvedDrop} {
		got, err := ParseUnresolvedPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParseUnresolvedPolicy("ignore")
	assert.Error(t, err)
}
