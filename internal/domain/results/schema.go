// Package results reads one event's result table into per-player result rows.
package results

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrSchemaMismatch is returned when a required column cannot be resolved.
var ErrSchemaMismatch = errors.New("schema mismatch")

// Field is a logical column of an event export.
type Field string

// Logical fields. The first three are required.
const (
	FieldName        Field = "name"
	FieldPositionRaw Field = "position_raw"
	FieldTotalScore  Field = "event_total_score"
	FieldDuplicate   Field = "position"
	FieldUsername    Field = "username"
	FieldPDGANumber  Field = "pdga_number"
)

// absent marks an optional field with no physical column.
const absent = -1

var (
	requiredFields = []Field{FieldName, FieldPositionRaw, FieldTotalScore}

	// aliases lists the normalized header names accepted per field.
	aliases = map[Field][]string{
		FieldName:        {"name"},
		FieldPositionRaw: {"position_raw"},
		FieldTotalScore:  {"event_total_score"},
		FieldDuplicate:   {"position"},
		FieldUsername:    {"username"},
		FieldPDGANumber:  {"pdga_number", "pdga"},
	}
)

// Schema maps logical fields to physical column indexes of one table.
type Schema struct {
	Name        int
	PositionRaw int
	TotalScore  int
	Duplicate   int
	Username    int
	PDGANumber  int
}

// HasDuplicateFlag reports whether the table carries a duplicate-flag column.
func (s Schema) HasDuplicateFlag() bool { return s.Duplicate != absent }

// NormalizeColumn lower-cases name and folds every run of non-alphanumeric
// characters into a single underscore, trimming leading and trailing ones.
// "Event Total Score" and "event_total_score" both become "event_total_score".
func NormalizeColumn(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// ResolveSchema resolves the logical fields against header. When a header
// name appears twice the leftmost column wins. A missing required field
// yields ErrSchemaMismatch naming every missing field.
func ResolveSchema(header []string) (Schema, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		n := NormalizeColumn(h)
		if _, seen := index[n]; !seen && n != "" {
			index[n] = i
		}
	}

	lookup := func(f Field) int {
		for _, alias := range aliases[f] {
			if i, ok := index[alias]; ok {
				return i
			}
		}
		return absent
	}

	s := Schema{
		Name:        lookup(FieldName),
		PositionRaw: lookup(FieldPositionRaw),
		TotalScore:  lookup(FieldTotalScore),
		Duplicate:   lookup(FieldDuplicate),
		Username:    lookup(FieldUsername),
		PDGANumber:  lookup(FieldPDGANumber),
	}

	resolved := map[Field]int{
		FieldName:        s.Name,
		FieldPositionRaw: s.PositionRaw,
		FieldTotalScore:  s.TotalScore,
	}
	var missing []string
	for _, f := range requiredFields {
		if resolved[f] == absent {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return Schema{}, fmt.Errorf("%w: missing required columns %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return s, nil
}
