package mapper

import (
	"regexp"
	"strings"
)

const (
	// SampleLimit is how many leading data rows are sniffed per column.
	SampleLimit = 10
	// MatchThreshold is the share of samples that must fit a field's shape.
	MatchThreshold = 0.6
)

// Unmapped is the column index reported for a field with no column.
const Unmapped = -1

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern  = regexp.MustCompile(`^[+()0-9\-\s]{6,20}$`)
	nonAlphaNumRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// Mapping binds each field to at most one column. Two fields never share a column.
type Mapping struct {
	cols   [fieldCount]int
	source [fieldCount]Source
}

// NewMapping returns a mapping with every field unmapped.
func NewMapping() Mapping {
	var m Mapping
	for i := range m.cols {
		m.cols[i] = Unmapped
	}
	return m
}

// Column returns the column bound to f.
func (m Mapping) Column(f Field) (int, bool) {
	if f < 0 || f >= fieldCount || m.cols[f] == Unmapped {
		return Unmapped, false
	}
	return m.cols[f], true
}

// Source returns the pass that bound f, or SourceNone.
func (m Mapping) Source(f Field) Source {
	if f < 0 || f >= fieldCount {
		return SourceNone
	}
	return m.source[f]
}

// Owner returns the field bound to col, if any.
func (m Mapping) Owner(col int) (Field, bool) {
	if col < 0 {
		return 0, false
	}
	for i, c := range m.cols {
		if c == col {
			return Field(i), true
		}
	}
	return 0, false
}

// Assign binds f to col as a manual override. A field that already owned col
// loses it. A negative col unmaps f.
func (m *Mapping) Assign(f Field, col int) {
	if f < 0 || f >= fieldCount {
		return
	}
	if col < 0 {
		m.cols[f] = Unmapped
		m.source[f] = SourceNone
		return
	}
	if other, ok := m.Owner(col); ok && other != f {
		m.cols[other] = Unmapped
		m.source[other] = SourceNone
	}
	m.set(f, col, SourceManual)
}

// UnmappedFields returns the fields without a column, in enumeration order.
func (m Mapping) UnmappedFields() []Field {
	var out []Field
	for _, f := range Fields() {
		if m.cols[f] == Unmapped {
			out = append(out, f)
		}
	}
	return out
}

func (m *Mapping) set(f Field, col int, src Source) {
	m.cols[f] = col
	m.source[f] = src
}

func (m Mapping) assigned(f Field) bool {
	return m.cols[f] != Unmapped
}

func (m Mapping) claimed(col int) bool {
	_, ok := m.Owner(col)
	return ok
}

// NormalizeHeader lowercases h and collapses punctuation and whitespace runs
// into single spaces, e.g. " E-Mail_Address " becomes "e mail address".
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = nonAlphaNumRe.ReplaceAllString(h, " ")
	return strings.TrimSpace(h)
}

// Infer works out which column holds each field. It runs three passes in
// order and never revisits an earlier one:
//
//  1. header alias match
//  2. sniffing the first SampleLimit data rows of each unclaimed column
//  3. positional fallback over whatever is left
//
// Every pass is first-fit: once a column is claimed, later and possibly
// better candidates are not considered.
func Infer(headers []string, rows [][]string) Mapping {
	m := NewMapping()
	m.matchAliases(headers)
	m.inferFromSamples(len(headers), rows)
	m.fillRemaining(len(headers))
	return m
}

func (m *Mapping) matchAliases(headers []string) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	for _, f := range Fields() {
	aliases:
		for _, alias := range aliasTable[f] {
			for col, h := range normalized {
				if h == "" || m.claimed(col) {
					continue
				}
				if strings.Contains(h, alias) {
					m.set(f, col, SourceAlias)
					break aliases
				}
			}
		}
	}
}

func (m *Mapping) inferFromSamples(numCols int, rows [][]string) {
	samples := make([][]string, numCols)
	for col := range samples {
		samples[col] = columnSamples(rows, col)
	}

	for _, f := range Fields() {
		if m.assigned(f) {
			continue
		}
		for col := 0; col < numCols; col++ {
			if m.claimed(col) || len(samples[col]) == 0 {
				continue
			}
			if fits(f, samples[col]) {
				m.set(f, col, SourceInferred)
				break
			}
		}
	}
}

func (m *Mapping) fillRemaining(numCols int) {
	var free []int
	for col := 0; col < numCols; col++ {
		if !m.claimed(col) {
			free = append(free, col)
		}
	}

	for i, f := range m.UnmappedFields() {
		if i >= len(free) {
			return
		}
		m.set(f, free[i], SourceFallback)
	}
}

// columnSamples collects the trimmed non-empty values of col within the first
// SampleLimit rows.
func columnSamples(rows [][]string, col int) []string {
	var out []string
	for r := 0; r < len(rows) && r < SampleLimit; r++ {
		if col >= len(rows[r]) {
			continue
		}
		if v := strings.TrimSpace(rows[r][col]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func fits(f Field, samples []string) bool {
	match := shapeOf(f)
	n := 0
	for _, s := range samples {
		if match(s) {
			n++
		}
	}
	return float64(n)/float64(len(samples)) >= MatchThreshold
}

func shapeOf(f Field) func(string) bool {
	switch f {
	case FieldEmail:
		return IsEmail
	case FieldContact, FieldContact2:
		return IsPhone
	case FieldName:
		return func(s string) bool { return !IsEmail(s) && !IsPhone(s) }
	default:
		return func(s string) bool { return s != "" }
	}
}

// IsEmail reports whether s looks like local@domain.tld.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsPhone reports whether s is 6 to 20 characters of digits, spaces, "+", "-" and parentheses.
func IsPhone(s string) bool {
	return phonePattern.MatchString(s)
}
