package common

import "fmt"

// Diagnostic codes for conditions that never abort a conversion.
const (
	CodeUnresolvedReference  = "unresolved_reference"
	CodeCardinalityViolation = "cardinality_violation"
	CodeUnmappedContent      = "unmapped_content"
	CodeDanglingRule         = "dangling_rule"
)

// Severity of a Diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "info":
		*s = SeverityInfo
	case "warning":
		*s = SeverityWarning
	case "error":
		*s = SeverityError
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Diagnostic is a single advisory produced while compiling or converting.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	// QName identifies the element or rule concerned, if any.
	QName string `json:"qname,omitempty"`
	// Ref is the unresolved identifier, if any.
	Ref string `json:"ref,omitempty"`
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("[%s] %s: %s", d.Severity, d.Code, d.Message)
	if d.QName != "" {
		s += fmt.Sprintf(" (%s)", d.QName)
	}
	return s
}

// Diagnostics collects advisories in the order they were raised.
type Diagnostics struct {
	Items []Diagnostic
}

// Warn adds a warning diagnostic.
func (d *Diagnostics) Warn(code, qname, ref, format string, args ...any) {
	d.Items = append(d.Items, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		QName:    qname,
		Ref:      ref,
	})
}

// Info adds an informational diagnostic.
func (d *Diagnostics) Info(code, qname, ref, format string, args ...any) {
	d.Items = append(d.Items, Diagnostic{
		Severity: SeverityInfo,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		QName:    qname,
		Ref:      ref,
	})
}

// ByCode returns the diagnostics carrying the given code.
func (d *Diagnostics) ByCode(code string) []Diagnostic {
	var out []Diagnostic
	for _, item := range d.Items {
		if item.Code == code {
			out = append(out, item)
		}
	}
	return out
}

// Merge appends the items of other.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Items = append(d.Items, other.Items...)
}
