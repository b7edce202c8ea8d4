// Package output writes season standings as a delimited table.
package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/okian/discleague/internal/domain/model"
	"github.com/okian/discleague/internal/domain/types"
)

// ErrWriteOutput marks a standings table that could not be written.
var ErrWriteOutput = errors.New("write standings")

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithDateLayout sets the layout of the per-date header cells.
func WithDateLayout(layout string) Option {
	return func(w *Writer) {
		if layout != "" {
			w.layout = layout
		}
	}
}

// WithComma sets the field delimiter.
func WithComma(r rune) Option {
	return func(w *Writer) {
		if r != 0 {
			w.comma = r
		}
	}
}

// Writer renders standings: a header row, then one row per player in the
// given order.
type Writer struct {
	layout string
	comma  rune
}

// NewWriter creates a comma separated writer with DD/MM/YYYY date headers.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{layout: model.HeaderLayout, comma: ','}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders dates and rows to dst. The header is written even when
// there are no rows.
func (w *Writer) Write(dst io.Writer, dates []model.Date, rows []types.Row) error {
	cw := csv.NewWriter(dst)
	cw.Comma = w.comma

	if err := cw.Write(types.Header(dates, w.layout)); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

// WriteFile renders to path, creating its folder. The previous file is only
// replaced once the new one is complete.
func (w *Writer) WriteFile(path string, dates []model.Date, rows []types.Row) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := w.Write(tmp, dates, rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteOutput, path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteOutput, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteOutput, path, err)
	}
	return nil
}
