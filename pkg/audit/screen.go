package audit

import (
	"sort"

	libinjection "github.com/corazawaf/libinjection-go"
)

// Injection kinds reported by CheckField.
const (
	KindSQLi = "sqli"
	KindXSS  = "xss"
)

// Finding describes a field that libinjection flagged.
type Finding struct {
	FieldName   string
	FieldValue  string
	Kind        string
	Fingerprint string
}

// CheckField runs libinjection's SQLi and XSS detectors over value.
// Returns nil if the value is clean.
//
//	CheckField("name", "Signup flow")             // nil
//	CheckField("name", "'; DROP TABLE users--")   // Kind == "sqli"
//	CheckField("name", "<script>alert(1)</script>") // Kind == "xss"
func CheckField(name, value string) *Finding {
	if value == "" {
		return nil
	}

	if isSQLi, fingerprint := libinjection.IsSQLi(value); isSQLi {
		return &Finding{
			FieldName:   name,
			FieldValue:  value,
			Kind:        KindSQLi,
			Fingerprint: string(fingerprint),
		}
	}

	if libinjection.IsXSS(value) {
		return &Finding{
			FieldName:  name,
			FieldValue: value,
			Kind:       KindXSS,
		}
	}

	return nil
}

// CheckFields checks every field and returns findings ordered by field name.
// Returns an empty slice if all fields are clean.
func CheckFields(fields map[string]string) []*Finding {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var findings []*Finding
	for _, name := range names {
		if f := CheckField(name, fields[name]); f != nil {
			findings = append(findings, f)
		}
	}
	return findings
}

// Details converts a finding into its audit log payload.
func (f *Finding) Details(source string) InjectionDetails {
	return InjectionDetails{
		Source:      source,
		FieldName:   f.FieldName,
		FieldValue:  f.FieldValue,
		Kind:        f.Kind,
		Fingerprint: f.Fingerprint,
	}
}
