// Package mapping compiles a CMF model into the declarative Mapping that
// drives instance conversion, and persists it.
//
// # Rules
//
// A Mapping holds three kinds of rules:
//
//   - objects: a class realized as a node label, with the scalar property
//     paths extracted from its content
//   - associations: a class derived from the association sentinel, realized
//     as one edge per participant rather than as a node
//   - references: an object-valued property of an object class, realized as
//     a typed relationship when the instance uses a reference
//
// # Serialized form
//
//	version: "1"
//	namespaces:
//	  - prefix: j
//	    uri: http://release.niem.gov/niem/domains/jxdm/7.2/
//	objects:
//	  - qname: nc:PersonType
//	    label: nc_Person
//	    elements: [j:Person, nc:Person]
//	    scalar_props:
//	      - path: nc:PersonName/nc:PersonGivenName
//	        property: nc_PersonName__nc_PersonGivenName
//	        cardinality: 0..1
//	associations:
//	  - qname: j:PersonVehicleAssociationType
//	    rel_type: PERSONVEHICLEASSOCIATION
//	    endpoints:
//	      - role_qname: j:Person
//	        maps_to_label: nc_Person
//	        direction: source
//	references:
//	  - owner_qname: nc:VehicleType
//	    field_qname: j:VehicleRegisteredOwner
//	    target_label: nc_Person
//	    rel_type: VEHICLEREGISTEREDOWNER
//
// Compiling the same CMF document twice yields byte-identical output, so a
// serialized Mapping can be cached and diffed across schema versions.
package mapping
