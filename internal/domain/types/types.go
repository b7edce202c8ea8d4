// Package types contains the standings row shared by the builder and writers.
package types

import (
	"strconv"

	"github.com/okian/discleague/internal/domain/model"
)

// Fixed header columns around the per-date cells.
const (
	ColumnName       = "name"
	ColumnUsername   = "username"
	ColumnPDGANumber = "pdga_number"
	ColumnTotal      = "total_score"
)

// Row is one player's line in the season standings.
type Row struct {
	Name       string
	Username   string
	PDGANumber string
	Cells      []model.Outcome // one per season date, in season order
	Total      int
}

// Record renders the row as output cells: identity, one cell per date, total.
func (r Row) Record() []string {
	out := make([]string, 0, len(r.Cells)+4)
	out = append(out, r.Name, r.Username, r.PDGANumber)
	for _, c := range r.Cells {
		out = append(out, c.String())
	}
	return append(out, strconv.Itoa(r.Total))
}

// Header renders the output header for dates using layout for the date columns.
func Header(dates []model.Date, layout string) []string {
	out := make([]string, 0, len(dates)+4)
	out = append(out, ColumnName, ColumnUsername, ColumnPDGANumber)
	for _, d := range dates {
		out = append(out, d.Format(layout))
	}
	return append(out, ColumnTotal)
}
