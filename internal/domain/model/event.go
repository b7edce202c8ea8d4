// Package model contains domain models passed between layers.
package model

// Event is one scheduled league day. Immutable once loaded.
type Event struct {
	Key  string // season file key, e.g. "round-3"
	URL  string // event page; the export lives at URL + "/export"
	Date Date
}

// Table is a raw result sheet: a header row and the data rows beneath it.
// Data rows may be shorter than the header when trailing cells are empty.
type Table struct {
	Header []string
	Rows   [][]string
}

// Cell returns row r, column c, or "" when either is out of range.
func (t Table) Cell(r, c int) string {
	if r < 0 || r >= len(t.Rows) || c < 0 || c >= len(t.Rows[r]) {
		return ""
	}
	return t.Rows[r][c]
}

// ResultRow is one player's counted result for one event.
type ResultRow struct {
	Name        string
	Position    int
	Points      int
	Username    string
	PDGANumber  string
	TotalScore  float64
	SourceIndex int // zero-based data row in the source table
}
