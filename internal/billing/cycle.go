// Package billing implements the credit-card billing-cycle and
// available-credit engine: cycle resolution, purchase classification,
// invoice aggregation, available credit, and payment application.
//
// The engine is stateless; every operation takes the record store as a
// dependency and performs a full recompute instead of patching totals
// incrementally.
package billing

import (
	"fatura/internal/core"
)

// Cycle is one invoice period of a card: the inclusive date range
// [Start, End] plus the date its invoice is due.
type Cycle struct {
	Start   core.Date
	End     core.Date
	DueDate core.Date
}

// PeriodKey uniquely identifies a card's invoice period so purchases can be
// grouped without re-deriving cycles.
type PeriodKey struct {
	CardID string
	End    core.Date
}

func (k PeriodKey) String() string {
	return k.CardID + ":" + k.End.ISO()
}

// ResolveCycle computes the billing cycle of a card containing ref.
//
// With closing day 1 the cycle is the calendar month of ref. Otherwise the
// cycle starts on the closing day (clamped to month length) of the month M
// chosen so that ref falls inside the range, and ends the day before the
// next cycle's clamped start. Deriving End from the next start keeps
// consecutive cycles contiguous: every date belongs to exactly one cycle,
// even when clamping shifts a start (closing day 31 in a 30-day month).
//
// The due date is End advanced one month with the day forced to the card's
// due day, clamped to that month's length.
//
// Resolution is deterministic and idempotent: the same card and ref always
// produce the same cycle, and resolving with any date inside a cycle
// returns that cycle.
func ResolveCycle(card core.Card, ref core.Date) Cycle {
	if card.ClosingDay == 1 {
		start := core.NewDate(ref.Year(), ref.Month(), 1)
		end := core.NewDate(ref.Year(), ref.Month(), core.DaysInMonth(ref.Year(), ref.Month()))
		return Cycle{
			Start:   start,
			End:     end,
			DueDate: core.ClampedDate(end.Year(), end.Month()+1, card.DueDay),
		}
	}

	start := core.ClampedDate(ref.Year(), ref.Month(), card.ClosingDay)
	if ref.Before(start) {
		// ref falls before this month's closing day, so it still belongs
		// to the cycle that opened the month before.
		start = core.ClampedDate(ref.Year(), ref.Month()-1, card.ClosingDay)
	}
	next := core.ClampedDate(start.Year(), start.Month()+1, card.ClosingDay)
	end := next.AddDays(-1)
	return Cycle{
		Start:   start,
		End:     end,
		DueDate: core.ClampedDate(end.Year(), end.Month()+1, card.DueDay),
	}
}

// Contains reports whether d falls inside the cycle, both endpoints
// inclusive.
func (c Cycle) Contains(d core.Date) bool {
	return !d.Before(c.Start) && !d.After(c.End)
}

// Key returns the period key identifying this cycle for the given card.
func (c Cycle) Key(cardID string) PeriodKey {
	return PeriodKey{CardID: cardID, End: c.End}
}

// Closed reports whether the cycle has ended relative to now.
func (c Cycle) Closed(now core.Date) bool {
	return now.After(c.End)
}
