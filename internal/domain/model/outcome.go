package model

import "strconv"

// OutcomeKind tags an Outcome.
type OutcomeKind int

// Outcome kinds. NotPlayed is the zero value so a missing map entry reads as DNP.
const (
	NotPlayed OutcomeKind = iota
	Played
	Discarded
)

// Cell markers for the non-numeric outcomes.
const (
	NotPlayedMark = "DNP"
	DiscardedMark = "DUP"
)

// Outcome is a player's result on one event date: Played(points),
// NotPlayed, or Discarded(points) when earned but outside the best N.
type Outcome struct {
	Kind   OutcomeKind
	Points int
}

// PlayedOutcome returns a counted result worth points.
func PlayedOutcome(points int) Outcome { return Outcome{Kind: Played, Points: points} }

// DiscardedOutcome returns an earned result that does not count toward the total.
func DiscardedOutcome(points int) Outcome { return Outcome{Kind: Discarded, Points: points} }

// Earned reports whether the outcome carries points, counted or not.
func (o Outcome) Earned() bool { return o.Kind == Played || o.Kind == Discarded }

// Counted returns the points contributing to the season total.
func (o Outcome) Counted() int {
	if o.Kind == Played {
		return o.Points
	}
	return 0
}

// String renders the outcome as a standings cell.
func (o Outcome) String() string {
	switch o.Kind {
	case Played:
		return strconv.Itoa(o.Points)
	case Discarded:
		return DiscardedMark
	default:
		return NotPlayedMark
	}
}
