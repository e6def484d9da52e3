// Package testfixtures holds the CMF model and instance documents shared by
// package tests.
package testfixtures

// Namespace URIs used by the fixtures.
const (
	NCURI   = "https://docs.oasis-open.org/niemopen/ns/model/niem-core/6.0/"
	JURI    = "https://docs.oasis-open.org/niemopen/ns/model/domains/justice/6.0/"
	ExchURI = "http://example.com/exchange/1.0/"
)

// CMF is a small justice model: people, vehicles, the association between
// them, and a message type wrapping all three.
const CMF = `<?xml version="1.0" encoding="UTF-8"?>
<Model xmlns="https://docs.oasis-open.org/niemopen/ns/specification/cmf/1.0/"
       xmlns:structures="https://docs.oasis-open.org/niemopen/ns/model/structures/6.0/">
  <Namespace structures:id="nc">
    <NamespaceURI>` + NCURI + `</NamespaceURI>
    <NamespacePrefixText>nc</NamespacePrefixText>
  </Namespace>
  <Namespace structures:id="j">
    <NamespaceURI>` + JURI + `</NamespaceURI>
    <NamespacePrefixText>j</NamespacePrefixText>
  </Namespace>
  <Namespace structures:id="exch">
    <NamespaceURI>` + ExchURI + `</NamespaceURI>
    <NamespacePrefixText>exch</NamespacePrefixText>
  </Namespace>

  <Class structures:id="nc.ObjectType">
    <Name>ObjectType</Name>
    <Namespace structures:ref="nc"/>
    <AbstractIndicator>true</AbstractIndicator>
  </Class>
  <Class structures:id="nc.AssociationType">
    <Name>AssociationType</Name>
    <Namespace structures:ref="nc"/>
    <AbstractIndicator>true</AbstractIndicator>
  </Class>
  <Class structures:id="nc.PersonNameType">
    <Name>PersonNameType</Name>
    <Namespace structures:ref="nc"/>
    <SubClassOf structures:ref="nc.ObjectType"/>
    <ChildPropertyAssociation>
      <DataProperty structures:ref="nc.PersonGivenName"/>
      <MinOccursQuantity>0</MinOccursQuantity>
      <MaxOccursQuantity>1</MaxOccursQuantity>
    </ChildPropertyAssociation>
    <ChildPropertyAssociation>
      <DataProperty structures:ref="nc.PersonSurName"/>
      <MinOccursQuantity>0</MinOccursQuantity>
      <MaxOccursQuantity>1</MaxOccursQuantity>
    </ChildPropertyAssociation>
  </Class>
  <Class structures:id="nc.PersonType">
    <Name>PersonType</Name>
    <Namespace structures:ref="nc"/>
    <SubClassOf structures:ref="nc.ObjectType"/>
    <ChildPropertyAssociation>
      <ObjectProperty structures:ref="nc.PersonName"/>
      <MinOccursQuantity>0</MinOccursQuantity>
      <MaxOccursQuantity>unbounded</MaxOccursQuantity>
    </ChildPropertyAssociation>
    <ChildPropertyAssociation>
      <DataProperty structures:ref="nc.PersonFullName"/>
      <MinOccursQuantity>0</MinOccursQuantity>
      <MaxOccursQuantity>1</MaxOccursQuantity>
    </ChildPropertyAssociation>
    <ChildPropertyAssociation>
      <DataProperty structures:ref="nc.PersonHeightMeasure"/>
      <MinOccursQuantity>0</MinOccursQuantity>
      <MaxOccursQuantity>1</MaxOccursQuantity>
    </ChildPropertyAssociation>
    <ChildPropertyAssociation>
      <DataProperty structures:ref="nc.PersonNickname"/>
      <MinOccursQuantity>0</MinOccursQuantity>
      <MaxOccursQuantity>unbounded</MaxOccursQuantity>
    </ChildPropertyAssociation>
  </Class>
  <Class structures:id="nc.VehicleType">
    <Name>VehicleType</Name>
    <Namespace structures:ref="nc"/>
    <SubClassOf structures:ref="nc.ObjectType"/>
    <ChildPropertyAssociation>
      <DataProperty structures:ref="nc.VehicleMakeName"/>
      <MinOccursQuantity>0</MinOccursQuantity>
      <MaxOccursQuantity>1</MaxOccursQuantity>
    </ChildPropertyAssociation>
    <ChildPropertyAssociation>
      <DataProperty structures:ref="nc.VehicleModelYearDate"/>
      <MinOccursQuantity>0</MinOccursQuantity>
      <MaxOccursQuantity>1</MaxOccursQuantity>
    </ChildPropertyAssociation>
    <ChildPropertyAssociation>
      <ObjectProperty structures:ref="j.VehicleRegisteredOwner"/>
      <MinOccursQuantity>0</MinOccursQuantity>
      <MaxOccursQuantity>1</MaxOccursQuantity>
    </ChildPropertyAssociation>
  </Class>
  <Class structures:id="j.PersonVehicleAssociationType">
    <Name>PersonVehicleAssociationType</Name>
    <Namespace structures:ref="j"/>
    <SubClassOf structures:ref="nc.AssociationType"/>
    <ChildPropertyAssociation>
      <ObjectProperty structures:ref="j.Person"/>
      <MinOccursQuantity>1</MinOccursQuantity>
      <MaxOccursQuantity>1</MaxOccursQuantity>
    </ChildPropertyAssociation>
    <ChildPropertyAssociation>
      <ObjectProperty structures:ref="j.Vehicle"/>
      <MinOccursQuantity>1</MinOccursQuantity>
      <MaxOccursQuantity>1</MaxOccursQuantity>
    </ChildPropertyAssociation>
    <ChildPropertyAssociation>
      <DataProperty structures:ref="nc.AssociationBeginDate"/>
      <MinOccursQuantity>0</MinOccursQuantity>
      <MaxOccursQuantity>1</MaxOccursQuantity>
    </ChildPropertyAssociation>
  </Class>
  <Class structures:id="j.WitnessAssociationType">
    <Name>WitnessAssociationType</Name>
    <Namespace structures:ref="j"/>
    <SubClassOf structures:ref="nc.AssociationType"/>
    <ChildPropertyAssociation>
      <ObjectProperty structures:ref="j.Witness"/>
      <MinOccursQuantity>1</MinOccursQuantity>
      <MaxOccursQuantity>1</MaxOccursQuantity>
    </ChildPropertyAssociation>
  </Class>
  <Class structures:id="exch.MessageType">
    <Name>MessageType</Name>
    <Namespace structures:ref="exch"/>
    <ChildPropertyAssociation>
      <ObjectProperty structures:ref="nc.Person"/>
      <MinOccursQuantity>0</MinOccursQuantity>
      <MaxOccursQuantity>unbounded</MaxOccursQuantity>
    </ChildPropertyAssociation>
    <ChildPropertyAssociation>
      <ObjectProperty structures:ref="nc.Vehicle"/>
      <MinOccursQuantity>0</MinOccursQuantity>
      <MaxOccursQuantity>unbounded</MaxOccursQuantity>
    </ChildPropertyAssociation>
    <ChildPropertyAssociation>
      <ObjectProperty structures:ref="j.PersonVehicleAssociation"/>
      <MinOccursQuantity>0</MinOccursQuantity>
      <MaxOccursQuantity>unbounded</MaxOccursQuantity>
    </ChildPropertyAssociation>
  </Class>

  <ObjectProperty structures:id="nc.Person">
    <Name>Person</Name>
    <Namespace structures:ref="nc"/>
    <Class structures:ref="nc.PersonType"/>
  </ObjectProperty>
  <ObjectProperty structures:id="j.Person">
    <Name>Person</Name>
    <Namespace structures:ref="j"/>
    <Class structures:ref="nc.PersonType"/>
  </ObjectProperty>
  <ObjectProperty structures:id="j.Witness">
    <Name>Witness</Name>
    <Namespace structures:ref="j"/>
    <Class structures:ref="nc.PersonType"/>
  </ObjectProperty>
  <ObjectProperty structures:id="nc.PersonName">
    <Name>PersonName</Name>
    <Namespace structures:ref="nc"/>
    <Class structures:ref="nc.PersonNameType"/>
  </ObjectProperty>
  <ObjectProperty structures:id="nc.Vehicle">
    <Name>Vehicle</Name>
    <Namespace structures:ref="nc"/>
    <Class structures:ref="nc.VehicleType"/>
  </ObjectProperty>
  <ObjectProperty structures:id="j.Vehicle">
    <Name>Vehicle</Name>
    <Namespace structures:ref="j"/>
    <Class structures:ref="nc.VehicleType"/>
  </ObjectProperty>
  <ObjectProperty structures:id="j.VehicleRegisteredOwner">
    <Name>VehicleRegisteredOwner</Name>
    <Namespace structures:ref="j"/>
    <Class structures:ref="nc.PersonType"/>
  </ObjectProperty>
  <ObjectProperty structures:id="j.PersonVehicleAssociation">
    <Name>PersonVehicleAssociation</Name>
    <Namespace structures:ref="j"/>
    <Class structures:ref="j.PersonVehicleAssociationType"/>
  </ObjectProperty>
  <ObjectProperty structures:id="exch.Message">
    <Name>Message</Name>
    <Namespace structures:ref="exch"/>
    <Class structures:ref="exch.MessageType"/>
  </ObjectProperty>

  <DataProperty structures:id="nc.PersonGivenName">
    <Name>PersonGivenName</Name>
    <Namespace structures:ref="nc"/>
    <Datatype structures:ref="nc.PersonNameTextType"/>
  </DataProperty>
  <DataProperty structures:id="nc.PersonSurName">
    <Name>PersonSurName</Name>
    <Namespace structures:ref="nc"/>
    <Datatype structures:ref="nc.PersonNameTextType"/>
  </DataProperty>
  <DataProperty structures:id="nc.PersonFullName">
    <Name>PersonFullName</Name>
    <Namespace structures:ref="nc"/>
    <Datatype structures:ref="nc.PersonNameTextType"/>
  </DataProperty>
  <DataProperty structures:id="nc.PersonNickname">
    <Name>PersonNickname</Name>
    <Namespace structures:ref="nc"/>
    <Datatype structures:ref="nc.TextType"/>
  </DataProperty>
  <DataProperty structures:id="nc.PersonHeightMeasure">
    <Name>PersonHeightMeasure</Name>
    <Namespace structures:ref="nc"/>
    <Datatype structures:ref="nc.LengthMeasureType"/>
  </DataProperty>
  <DataProperty structures:id="nc.MeasureValueText">
    <Name>MeasureValueText</Name>
    <Namespace structures:ref="nc"/>
    <Datatype structures:ref="nc.TextType"/>
  </DataProperty>
  <DataProperty structures:id="nc.MeasureUnitText">
    <Name>MeasureUnitText</Name>
    <Namespace structures:ref="nc"/>
    <Datatype structures:ref="nc.TextType"/>
  </DataProperty>
  <DataProperty structures:id="nc.VehicleMakeName">
    <Name>VehicleMakeName</Name>
    <Namespace structures:ref="nc"/>
    <Datatype structures:ref="nc.TextType"/>
  </DataProperty>
  <DataProperty structures:id="nc.VehicleModelYearDate">
    <Name>VehicleModelYearDate</Name>
    <Namespace structures:ref="nc"/>
    <Datatype structures:ref="xs.gYear"/>
  </DataProperty>
  <DataProperty structures:id="nc.AssociationBeginDate">
    <Name>AssociationBeginDate</Name>
    <Namespace structures:ref="nc"/>
    <Datatype structures:ref="xs.date"/>
  </DataProperty>

  <Datatype structures:id="nc.TextType">
    <Name>TextType</Name>
    <Namespace structures:ref="nc"/>
    <RestrictionOf>
      <Datatype structures:ref="xs.string"/>
    </RestrictionOf>
  </Datatype>
  <Datatype structures:id="nc.PersonNameTextType">
    <Name>PersonNameTextType</Name>
    <Namespace structures:ref="nc"/>
    <RestrictionOf>
      <Datatype structures:ref="nc.TextType"/>
    </RestrictionOf>
  </Datatype>
  <Datatype structures:id="nc.LengthMeasureType">
    <Name>LengthMeasureType</Name>
    <Namespace structures:ref="nc"/>
    <ChildPropertyAssociation>
      <DataProperty structures:ref="nc.MeasureValueText"/>
      <MinOccursQuantity>1</MinOccursQuantity>
      <MaxOccursQuantity>1</MaxOccursQuantity>
    </ChildPropertyAssociation>
    <ChildPropertyAssociation>
      <DataProperty structures:ref="nc.MeasureUnitText"/>
      <MinOccursQuantity>0</MinOccursQuantity>
      <MaxOccursQuantity>1</MaxOccursQuantity>
    </ChildPropertyAssociation>
  </Datatype>
</Model>
`

// XMLMessage is an instance with two people, one vehicle, a reference from
// the vehicle to its owner, and a person-vehicle association.
const XMLMessage = `<?xml version="1.0" encoding="UTF-8"?>
<exch:Message xmlns:exch="` + ExchURI + `"
    xmlns:nc="` + NCURI + `"
    xmlns:j="` + JURI + `"
    xmlns:ext="http://example.com/extension/"
    xmlns:structures="https://docs.oasis-open.org/niemopen/ns/model/structures/6.0/">
  <nc:Person structures:id="P1">
    <nc:PersonName>
      <nc:PersonGivenName>Ada</nc:PersonGivenName>
      <nc:PersonSurName>O'Neil</nc:PersonSurName>
    </nc:PersonName>
    <nc:PersonFullName>Ada O'Neil</nc:PersonFullName>
    <nc:PersonNickname>Addie</nc:PersonNickname>
    <nc:PersonNickname>A</nc:PersonNickname>
    <nc:PersonHeightMeasure>
      <nc:MeasureValueText>170</nc:MeasureValueText>
      <nc:MeasureUnitText>cm</nc:MeasureUnitText>
    </nc:PersonHeightMeasure>
    <ext:FavoriteColor>green</ext:FavoriteColor>
  </nc:Person>
  <nc:Person structures:id="P2">
    <nc:PersonFullName>Bo Lee</nc:PersonFullName>
  </nc:Person>
  <nc:Vehicle structures:id="V1">
    <nc:VehicleMakeName>Volvo</nc:VehicleMakeName>
    <nc:VehicleModelYearDate>2019</nc:VehicleModelYearDate>
    <j:VehicleRegisteredOwner structures:ref="P2"/>
  </nc:Vehicle>
  <j:PersonVehicleAssociation>
    <j:Person structures:ref="P1"/>
    <j:Vehicle structures:ref="V1"/>
    <nc:AssociationBeginDate>2024-01-02</nc:AssociationBeginDate>
  </j:PersonVehicleAssociation>
</exch:Message>
`

// JSONLDMessage is the JSON-LD encoding of XMLMessage.
const JSONLDMessage = `{
  "@context": {
    "nc": "` + NCURI + `",
    "j": "` + JURI + `",
    "exch": "` + ExchURI + `",
    "ext": "http://example.com/extension/"
  },
  "exch:Message": {
    "nc:Person": [
      {
        "@id": "P1",
        "nc:PersonName": {
          "nc:PersonGivenName": "Ada",
          "nc:PersonSurName": "O'Neil"
        },
        "nc:PersonFullName": "Ada O'Neil",
        "nc:PersonNickname": ["Addie", "A"],
        "nc:PersonHeightMeasure": {
          "nc:MeasureValueText": "170",
          "nc:MeasureUnitText": "cm"
        },
        "ext:FavoriteColor": "green"
      },
      {
        "@id": "P2",
        "nc:PersonFullName": "Bo Lee"
      }
    ],
    "nc:Vehicle": {
      "@id": "V1",
      "nc:VehicleMakeName": "Volvo",
      "nc:VehicleModelYearDate": "2019",
      "j:VehicleRegisteredOwner": {"@id": "P2"}
    },
    "j:PersonVehicleAssociation": {
      "j:Person": {"@id": "P1"},
      "j:Vehicle": {"@id": "V1"},
      "nc:AssociationBeginDate": "2024-01-02"
    }
  }
}
`

// XMLAssociationOnly is the minimal association scenario.
const XMLAssociationOnly = `<j:PersonVehicleAssociation
    xmlns:j="` + JURI + `"
    xmlns:structures="https://docs.oasis-open.org/niemopen/ns/model/structures/6.0/">
  <j:Person structures:ref="P1"/>
  <j:Vehicle structures:ref="V1"/>
</j:PersonVehicleAssociation>
`

// XMLIdentifiedMessage is a message with its own id whose objects are
// identified and referenced through structures:uri.
const XMLIdentifiedMessage = `<?xml version="1.0" encoding="UTF-8"?>
<exch:Message xmlns:exch="` + ExchURI + `"
    xmlns:nc="` + NCURI + `"
    xmlns:j="` + JURI + `"
    xmlns:structures="https://docs.oasis-open.org/niemopen/ns/model/structures/6.0/"
    structures:id="M1">
  <nc:Person structures:uri="#P1">
    <nc:PersonFullName>Ada O'Neil</nc:PersonFullName>
  </nc:Person>
  <nc:Person structures:uri="#P2">
    <nc:PersonFullName>Bo Lee</nc:PersonFullName>
  </nc:Person>
  <nc:Vehicle structures:uri="#V1">
    <nc:VehicleMakeName>Volvo</nc:VehicleMakeName>
    <j:VehicleRegisteredOwner structures:uri="#P2"/>
  </nc:Vehicle>
  <j:PersonVehicleAssociation>
    <j:Person structures:uri="#P1"/>
    <j:Vehicle structures:uri="#V1"/>
  </j:PersonVehicleAssociation>
</exch:Message>
`

// JSONLDIdentifiedMessage is the JSON-LD encoding of XMLIdentifiedMessage
// with the message as the typed top-level object.
const JSONLDIdentifiedMessage = `{
  "@context": {
    "nc": "` + NCURI + `",
    "j": "` + JURI + `",
    "exch": "` + ExchURI + `"
  },
  "@id": "M1",
  "@type": "exch:MessageType",
  "nc:Person": [
    {"@id": "P1", "nc:PersonFullName": "Ada O'Neil"},
    {"@id": "P2", "nc:PersonFullName": "Bo Lee"}
  ],
  "nc:Vehicle": {
    "@id": "V1",
    "nc:VehicleMakeName": "Volvo",
    "j:VehicleRegisteredOwner": {"@id": "P2"}
  },
  "j:PersonVehicleAssociation": {
    "j:Person": {"@id": "P1"},
    "j:Vehicle": {"@id": "V1"}
  }
}
`
