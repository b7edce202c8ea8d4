// Package standings folds per-event results into season standings.
package standings

import (
	"cmp"
	"slices"

	"github.com/okian/discleague/internal/domain/model"
	"github.com/okian/discleague/internal/domain/types"
)

// Player accumulates one player's outcomes across the season.
type Player struct {
	Name       string
	Username   string
	PDGANumber string

	outcomes map[model.Date]model.Outcome
}

// NewPlayer creates an empty aggregate for name.
func NewPlayer(name string) *Player {
	return &Player{Name: name, outcomes: make(map[model.Date]model.Outcome)}
}

// Record sets the outcome for date to points, overwriting any earlier value
// for that date. Username and federation number only fill in: an empty value
// never erases one recorded before.
func (p *Player) Record(date model.Date, points int, username, pdgaNumber string) {
	p.outcomes[date] = model.PlayedOutcome(points)
	if username != "" {
		p.Username = username
	}
	if pdgaNumber != "" {
		p.PDGANumber = pdgaNumber
	}
}

// Outcome returns the outcome for date; dates without data are NotPlayed.
func (p *Player) Outcome(date model.Date) model.Outcome {
	return p.outcomes[date]
}

// FinalizeRetention keeps the topN best earned dates as counted and marks
// every other earned date as discarded. Ties on points go to the earlier
// date. Discarded dates keep their points so a later call with a different
// topN reconsiders them; calling it twice with the same topN is a no-op.
func (p *Player) FinalizeRetention(topN int) {
	if topN < 0 {
		topN = 0
	}
	earned := make([]model.Date, 0, len(p.outcomes))
	for d, o := range p.outcomes {
		if o.Earned() {
			earned = append(earned, d)
		}
	}
	slices.SortFunc(earned, func(a, b model.Date) int {
		if c := cmp.Compare(p.outcomes[b].Points, p.outcomes[a].Points); c != 0 {
			return c
		}
		return a.Compare(b)
	})
	for i, d := range earned {
		pts := p.outcomes[d].Points
		if i < topN {
			p.outcomes[d] = model.PlayedOutcome(pts)
		} else {
			p.outcomes[d] = model.DiscardedOutcome(pts)
		}
	}
}

// Total sums the counted outcomes.
func (p *Player) Total() int {
	total := 0
	for _, o := range p.outcomes {
		total += o.Counted()
	}
	return total
}

// Counted returns how many dates currently count toward the total.
func (p *Player) Counted() int {
	n := 0
	for _, o := range p.outcomes {
		if o.Kind == model.Played {
			n++
		}
	}
	return n
}

// Row renders the player against the season dates. The total covers every
// counted outcome, including any on a date outside dates.
func (p *Player) Row(dates []model.Date) types.Row {
	cells := make([]model.Outcome, len(dates))
	for i, d := range dates {
		cells[i] = p.outcomes[d]
	}
	return types.Row{
		Name:       p.Name,
		Username:   p.Username,
		PDGANumber: p.PDGANumber,
		Cells:      cells,
		Total:      p.Total(),
	}
}

// roster owns the name -> player mapping of one build, in creation order.
type roster struct {
	byName map[string]*Player
	order  []*Player
}

func newRoster() *roster {
	return &roster{byName: make(map[string]*Player)}
}

// get returns the player for name, creating it on first appearance.
func (r *roster) get(name string) *Player {
	if p, ok := r.byName[name]; ok {
		return p
	}
	p := NewPlayer(name)
	r.byName[name] = p
	r.order = append(r.order, p)
	return p
}
