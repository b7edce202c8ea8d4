// Package points maps a finishing position to league points.
package points

import (
	"errors"
	"fmt"
)

// ErrInvalidPosition is returned for positions below 1.
var ErrInvalidPosition = errors.New("invalid position")

// Default award table: 1st=14, 2nd=11, 3rd=9, 4th=7, 5th=5, 6th=3, everyone else 1.
var (
	defaultAwards = []int{14, 11, 9, 7, 5, 3}
	defaultFloor  = 1
)

// Calculator computes points for a finishing position.
type Calculator interface {
	Points(position int) (int, error)
}

// Option applies a configuration option to a Table.
type Option func(*Table)

// WithAwards replaces the per-position awards; awards[0] is first place.
func WithAwards(awards []int) Option {
	return func(t *Table) {
		if len(awards) > 0 {
			t.awards = append([]int(nil), awards...)
		}
	}
}

// WithFloor sets the points for every position past the award table.
func WithFloor(floor int) Option {
	return func(t *Table) {
		if floor >= 0 {
			t.floor = floor
		}
	}
}

// Table is a fixed position -> points table.
type Table struct {
	awards []int
	floor  int
}

// NewTable builds a Table, defaulting to the league's standard awards.
func NewTable(opts ...Option) *Table {
	t := &Table{
		awards: append([]int(nil), defaultAwards...),
		floor:  defaultFloor,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Points returns the points awarded for position.
func (t *Table) Points(position int) (int, error) {
	if position < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPosition, position)
	}
	if position <= len(t.awards) {
		return t.awards[position-1], nil
	}
	return t.floor, nil
}

// Awards returns a copy of the per-position awards.
func (t *Table) Awards() []int {
	return append([]int(nil), t.awards...)
}

// Floor returns the points for positions past the award table.
func (t *Table) Floor() int {
	return t.floor
}

// Validate checks the table is non-negative and non-increasing, floor included.
func Validate(awards []int, floor int) error {
	if floor < 0 {
		return fmt.Errorf("floor must not be negative, got %d", floor)
	}
	for i, a := range awards {
		if a < 0 {
			return fmt.Errorf("award for position %d must not be negative, got %d", i+1, a)
		}
		if i > 0 && a > awards[i-1] {
			return fmt.Errorf("award for position %d (%d) exceeds position %d (%d)", i+1, a, i, awards[i-1])
		}
	}
	if len(awards) > 0 && floor > awards[len(awards)-1] {
		return fmt.Errorf("floor %d exceeds last award %d", floor, awards[len(awards)-1])
	}
	return nil
}

var standard = NewTable()

// For returns the points for position under the standard table.
func For(position int) (int, error) {
	return standard.Points(position)
}
