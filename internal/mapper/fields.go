package mapper

import "fmt"

// Field is one of the lead attributes an import has to populate.
type Field int

const (
	FieldName Field = iota
	FieldEmail
	FieldContact
	FieldContact2
	FieldStatus
	FieldTeam
)

const fieldCount = 6

var fieldNames = [fieldCount]string{"name", "email", "contact", "contact2", "status", "team"}

var recordKeys = [fieldCount]string{"name", "email", "phone1", "phone2", "status", "team"}

var fieldLabels = [fieldCount]string{"Name", "Email", "Phone 1", "Phone 2", "Status", "Team"}

var fieldDefaults = [fieldCount]string{"", "", "", "", "N/A", "UNASSIGNED"}

// aliasTable holds the header phrases recognised for each field, already in
// NormalizeHeader form. Order matters: earlier aliases win.
var aliasTable = [fieldCount][]string{
	FieldName:     {"name", "full name", "client name", "lead name", "customer", "contact person"},
	FieldEmail:    {"email", "email address", "e mail", "mail"},
	FieldContact:  {"phone", "phone1", "contact", "mobile", "phone number", "contact no", "mobile no"},
	FieldContact2: {"phone2", "secondary phone", "alt phone", "alternate phone", "contact2"},
	FieldStatus:   {"status", "lead status", "state"},
	FieldTeam:     {"team", "group", "assigned team", "role"},
}

// Fields returns every field in enumeration order.
func Fields() []Field {
	return []Field{FieldName, FieldEmail, FieldContact, FieldContact2, FieldStatus, FieldTeam}
}

func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// Label is the column title used in previews and exports.
func (f Field) Label() string {
	if f < 0 || f >= fieldCount {
		return f.String()
	}
	return fieldLabels[f]
}

// Default is the value a lead gets when the field is unmapped or blank.
func (f Field) Default() string {
	if f < 0 || f >= fieldCount {
		return ""
	}
	return fieldDefaults[f]
}

// Aliases returns a copy of the header phrases matched for f.
func (f Field) Aliases() []string {
	if f < 0 || f >= fieldCount {
		return nil
	}
	return append([]string(nil), aliasTable[f]...)
}

// ParseField accepts a field name ("contact2"), the matching lead key
// ("phone2") or the export label ("Phone 2"), case-insensitively.
func ParseField(s string) (Field, error) {
	key := NormalizeHeader(s)
	for i := range fieldNames {
		if key == fieldNames[i] || key == recordKeys[i] || key == NormalizeHeader(fieldLabels[i]) {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", s)
}

// Source records which pass bound a field to its column.
type Source int

const (
	SourceNone Source = iota
	SourceAlias
	SourceInferred
	SourceFallback
	SourceManual
)

func (s Source) String() string {
	switch s {
	case SourceAlias:
		return "alias"
	case SourceInferred:
		return "inferred"
	case SourceFallback:
		return "fallback"
	case SourceManual:
		return "manual"
	default:
		return "none"
	}
}
