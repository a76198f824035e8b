package mapper

import (
	"strings"

	"github.com/nconklindev/leadmap/internal/types"
)

// Materialize builds a lead from one data row. Missing cells and unmapped
// fields fall back to the field default; it never fails.
func Materialize(row []string, m Mapping) types.Lead {
	read := func(f Field) string {
		col, ok := m.Column(f)
		if !ok || col >= len(row) {
			return f.Default()
		}
		if v := strings.TrimSpace(row[col]); v != "" {
			return v
		}
		return f.Default()
	}

	return types.Lead{
		Name:   read(FieldName),
		Email:  read(FieldEmail),
		Phone1: read(FieldContact),
		Phone2: read(FieldContact2),
		Status: read(FieldStatus),
		Team:   read(FieldTeam),
	}
}

// MaterializeAll maps every row in order.
func MaterializeAll(rows [][]string, m Mapping) []types.Lead {
	leads := make([]types.Lead, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, Materialize(row, m))
	}
	return leads
}

// Value returns the lead's value for f.
func Value(l types.Lead, f Field) string {
	switch f {
	case FieldName:
		return l.Name
	case FieldEmail:
		return l.Email
	case FieldContact:
		return l.Phone1
	case FieldContact2:
		return l.Phone2
	case FieldStatus:
		return l.Status
	case FieldTeam:
		return l.Team
	}
	return ""
}

// Entry is a printable view of one field's binding.
type Entry struct {
	Field  string `json:"field" yaml:"field"`
	Column int    `json:"column" yaml:"column"`
	Header string `json:"header,omitempty" yaml:"header,omitempty"`
	Source string `json:"source" yaml:"source"`
}

// Describe lists every field's binding, resolving header names from headers.
func (m Mapping) Describe(headers []string) []Entry {
	entries := make([]Entry, 0, fieldCount)
	for _, f := range Fields() {
		e := Entry{Field: f.String(), Column: Unmapped, Source: m.Source(f).String()}
		if col, ok := m.Column(f); ok {
			e.Column = col
			if col < len(headers) {
				e.Header = headers[col]
			}
		}
		entries = append(entries, e)
	}
	return entries
}
