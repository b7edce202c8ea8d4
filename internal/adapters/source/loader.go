package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/xuri/excelize/v2"

	"github.com/okian/discleague/internal/domain/model"
)

// ErrSourceUnreadable is returned when an export cannot be opened or parsed.
var ErrSourceUnreadable = errors.New("source unreadable")

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithSheet selects the sheet to read from spreadsheet exports.
func WithSheet(name string) Option {
	return func(l *Loader) {
		l.sheet = strings.TrimSpace(name)
	}
}

// Loader reads result tables from export files.
type Loader struct {
	sheet string
}

// NewLoader creates a Loader reading the first sheet unless WithSheet is given.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads path into a Table. The first row is the header.
func (l *Loader) Load(ctx context.Context, path string) (model.Table, error) {
	if err := ctx.Err(); err != nil {
		return model.Table{}, err
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = l.readSpreadsheet(path)
	default:
		err = fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return model.Table{}, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, filepath.Base(path), err)
	}
	return toTable(rows), nil
}

func (l *Loader) readSpreadsheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := l.sheet
	if sheet == "" {
		sheet = sheets[0]
	} else if !contains(sheets, sheet) {
		if hint := closestSheet(sheet, sheets); hint != "" {
			return nil, fmt.Errorf("sheet %q not found (did you mean %q?)", sheet, hint)
		}
		return nil, fmt.Errorf("sheet %q not found, workbook has %s", sheet, strings.Join(sheets, ", "))
	}
	return f.GetRows(sheet)
}

func readCSV(path string) ([][]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
}

func toTable(rows [][]string) model.Table {
	if len(rows) == 0 {
		return model.Table{}
	}
	header := append([]string(nil), rows[0]...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return model.Table{Header: header, Rows: rows[1:]}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// closestSheet suggests the sheet a mistyped name most likely meant.
func closestSheet(name string, sheets []string) string {
	ranks := fuzzy.RankFindNormalizedFold(name, sheets)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", len(name)/2+1
	for _, s := range sheets {
		if d := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(s)); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}
