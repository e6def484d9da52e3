package mapping

import (
	"fmt"
	"strings"
)

// PathSeparator separates segments of a ScalarPropertyPath.
const PathSeparator = "/"

// PropertySeparator joins path segments in a flattened property name.
const PropertySeparator = "__"

// LocalName returns the part of qname after the prefix.
func LocalName(qname string) string {
	if _, local, ok := strings.Cut(qname, ":"); ok {
		return local
	}
	return qname
}

// Prefix returns the namespace prefix of qname, or "".
func Prefix(qname string) string {
	if prefix, _, ok := strings.Cut(qname, ":"); ok {
		return prefix
	}
	return ""
}

// Label converts a qualified name into a node label ("nc:Person" ->
// "nc_Person").
func Label(qname string) string {
	return sanitize(strings.Replace(qname, ":", "_", 1))
}

// ClassLabel derives a label from a class qname by dropping the "Type"
// suffix ("nc:PersonType" -> "nc_Person").
func ClassLabel(classQName string) string {
	prefix, local := Prefix(classQName), LocalName(classQName)
	local = strings.TrimSuffix(local, "Type")
	if prefix == "" {
		return Label(local)
	}
	return Label(prefix + ":" + local)
}

// RelType converts the local part of a class or property qname into an
// upper-case relationship type ("j:PersonVehicleAssociationType" ->
// "PERSONVEHICLEASSOCIATION").
func RelType(qname string) string {
	local := strings.TrimSuffix(LocalName(qname), "Type")
	return strings.ToUpper(sanitize(local))
}

// ContainmentRelType is the structural relation type for a nested element
// ("nc:PersonName" -> "HAS_PERSONNAME").
func ContainmentRelType(qname string) string {
	return "HAS_" + strings.ToUpper(sanitize(LocalName(qname)))
}

// PropertyName flattens path segments into a node property name
// (["nc:PersonName", "nc:PersonGivenName"] ->
// "nc_PersonName__nc_PersonGivenName").
func PropertyName(segments []string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		parts = append(parts, Label(strings.TrimPrefix(s, "@")))
	}
	return strings.Join(parts, PropertySeparator)
}

// SplitPath splits a ScalarPropertyPath into segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, PathSeparator)
}

// Cardinality formats occurrence bounds, using "*" for unbounded.
func Cardinality(min, max int) string {
	if max < 0 {
		return fmt.Sprintf("%d..*", min)
	}
	return fmt.Sprintf("%d..%d", min, max)
}

// IsMultiple reports whether a cardinality string allows several values.
func IsMultiple(cardinality string) bool {
	_, max, ok := strings.Cut(cardinality, "..")
	if !ok {
		return false
	}
	return max == "*" || (max != "0" && max != "1")
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
