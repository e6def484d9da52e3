package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/niemgraph/pkg/common"

	"github.com/go-playground/validator"
)

var validate = validator.New()

// Validate checks the structure of a Mapping loaded from storage. Field
// level problems and duplicate rules are errors; endpoint-count problems
// are returned as advisory diagnostics only.
func Validate(m *Mapping) (common.Diagnostics, error) {
	var diags common.Diagnostics
	if m == nil {
		return diags, errors.New("mapping is nil")
	}

	var problems []string
	if err := validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	seen := make(map[string]string)
	claim := func(kind, qname string) {
		if prev, dup := seen[qname]; dup {
			problems = append(problems, fmt.Sprintf("%s %s duplicates %s rule", kind, qname, prev))
			return
		}
		seen[qname] = kind
	}
	labels := make(map[string]struct{})
	for _, o := range m.Objects {
		claim("object", o.QName)
		labels[o.Label] = struct{}{}
	}
	for _, a := range m.Associations {
		claim("association", a.QName)
		if n := len(a.Endpoints); n == 1 {
			diags.Warn(common.CodeCardinalityViolation, a.QName, "",
				"association has a single endpoint")
		}
	}

	for _, r := range m.References {
		if _, ok := labels[r.TargetLabel]; !ok {
			diags.Warn(common.CodeDanglingRule, r.Field, r.TargetLabel,
				"reference target label %s has no object rule", r.TargetLabel)
		}
	}

	if len(problems) > 0 {
		return diags, fmt.Errorf("invalid mapping: %s", strings.Join(problems, "; "))
	}
	return diags, nil
}
