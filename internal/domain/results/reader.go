package results

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/discleague/internal/domain/model"
	"github.com/okian/discleague/internal/domain/points"
)

// ErrRowCoercion is reported when a single row's field cannot be parsed.
var ErrRowCoercion = errors.New("row coercion failed")

// duplicateMark flags a non-counting repeat round in the position column.
const duplicateMark = "DUP"

// Diagnostic is an advisory problem found while reading an event. It never
// aborts the run; Row is the 1-based data row, or 0 for the whole event.
type Diagnostic struct {
	Date model.Date
	Row  int
	Err  error
}

func (d Diagnostic) Error() string {
	if d.Row == 0 {
		return fmt.Sprintf("event %s: %v", d.Date, d.Err)
	}
	return fmt.Sprintf("event %s row %d: %v", d.Date, d.Row, d.Err)
}

func (d Diagnostic) Unwrap() error { return d.Err }

// Option applies a configuration option to a Reader.
type Option func(*Reader)

// WithCalculator sets the points calculator used for kept rows.
func WithCalculator(c points.Calculator) Option {
	return func(r *Reader) {
		if c != nil {
			r.calc = c
		}
	}
}

// Reader turns one event's raw table into one ResultRow per player.
type Reader struct {
	calc points.Calculator
}

// NewReader creates a Reader using the standard points table by default.
func NewReader(opts ...Option) *Reader {
	r := &Reader{calc: points.NewTable()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// candidate is a row that survived duplicate and score filtering.
type candidate struct {
	index int
	name  string
	score float64
}

// Read resolves the table's schema, drops duplicate-flagged rows and rows
// with a non-numeric total score, keeps each player's lowest total score
// (first in table order on ties), and converts the kept row's raw position
// into points. Rows are returned in order of each player's first appearance.
//
// A schema mismatch is returned as an error and the event should be skipped;
// row-level problems are returned as diagnostics.
func (r *Reader) Read(date model.Date, table model.Table) ([]model.ResultRow, []Diagnostic, error) {
	schema, err := ResolveSchema(table.Header)
	if err != nil {
		return nil, nil, err
	}

	var diags []Diagnostic
	rowDiag := func(i int, format string, args ...any) {
		diags = append(diags, Diagnostic{
			Date: date,
			Row:  i + 1,
			Err:  fmt.Errorf("%w: "+format, append([]any{ErrRowCoercion}, args...)...),
		})
	}

	best := make(map[string]int)
	var order []candidate
	for i := range table.Rows {
		if schema.HasDuplicateFlag() && strings.EqualFold(strings.TrimSpace(table.Cell(i, schema.Duplicate)), duplicateMark) {
			continue
		}

		name := strings.TrimSpace(table.Cell(i, schema.Name))
		if name == "" {
			rowDiag(i, "empty player name")
			continue
		}

		rawScore := table.Cell(i, schema.TotalScore)
		score, ok := parseScore(rawScore)
		if !ok {
			rowDiag(i, "total score %q is not numeric", rawScore)
			continue
		}

		c := candidate{index: i, name: name, score: score}
		if at, seen := best[name]; seen {
			if score < order[at].score {
				order[at] = c
			}
			continue
		}
		best[name] = len(order)
		order = append(order, c)
	}

	rows := make([]model.ResultRow, 0, len(order))
	for _, c := range order {
		rawPos := table.Cell(c.index, schema.PositionRaw)
		pos, ok := parsePosition(rawPos)
		if !ok {
			rowDiag(c.index, "position %q is not an integer", rawPos)
			continue
		}
		pts, err := r.calc.Points(pos)
		if err != nil {
			diags = append(diags, Diagnostic{Date: date, Row: c.index + 1, Err: err})
			continue
		}

		row := model.ResultRow{
			Name:        c.name,
			Position:    pos,
			Points:      pts,
			TotalScore:  c.score,
			SourceIndex: c.index,
		}
		if schema.Username != absent {
			row.Username = strings.TrimSpace(table.Cell(c.index, schema.Username))
		}
		if schema.PDGANumber != absent {
			row.PDGANumber = normalizeNumber(table.Cell(c.index, schema.PDGANumber))
		}
		rows = append(rows, row)
	}
	return rows, diags, nil
}

func parseScore(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// integralPattern matches plain integers and integral decimals such as
// "3.0", which spreadsheets produce for numeric cells.
var integralPattern = regexp.MustCompile(`^-?[0-9]+(\.0*)?$`)

// parsePosition accepts only integralPattern; signs other than a leading
// minus, exponents and hex forms are rejected.
func parsePosition(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !integralPattern.MatchString(s) {
		return 0, false
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// normalizeNumber trims a federation number and drops a ".0" suffix left by
// numeric spreadsheet cells.
func normalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1e15 && !strings.ContainsAny(s, "eEnN") {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}
