package cypher

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// String quotes s as a Cypher string literal.
func String(s string) string {
	return "'" + stringEscaper.Replace(s) + "'"
}

// Identifier quotes a label, relationship type or property key.
func Identifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Literal renders v as a Cypher literal. The second result is false for
// absent values, which are omitted rather than written as null.
func Literal(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return String(x), true
	case bool:
		return strconv.FormatBool(x), true
	case json.Number:
		return x.String(), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", false
		}
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
		return list(items)
	case []any:
		return list(x)
	default:
		return String(fmt.Sprint(x)), true
	}
}

func list(items []any) (string, bool) {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if lit, ok := Literal(item); ok {
			parts = append(parts, lit)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return "[" + strings.Join(parts, ", ") + "]", true
}
