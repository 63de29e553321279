package billing

import (
	"testing"

	"fatura/internal/core"
)

func testCard(closing, due int) core.Card {
	return core.Card{
		ID:         "card-1",
		Name:       "Visa",
		Limit:      core.Money{Cents: 100000},
		ClosingDay: closing,
		DueDay:     due,
		Active:     true,
	}
}

func TestResolveCycle(t *testing.T) {
	cases := []struct {
		name    string
		closing int
		due     int
		ref     core.Date
		start   core.Date
		end     core.Date
		dueDate core.Date
	}{
		{
			name:    "before closing day stays in previous cycle",
			closing: 5, due: 15,
			ref:   core.NewDate(2025, 3, 3),
			start: core.NewDate(2025, 2, 5),
			end:   core.NewDate(2025, 3, 4),
			dueDate: core.NewDate(2025, 4, 15),
		},
		{
			name:    "on closing day opens new cycle",
			closing: 5, due: 15,
			ref:   core.NewDate(2025, 3, 5),
			start: core.NewDate(2025, 3, 5),
			end:   core.NewDate(2025, 4, 4),
			dueDate: core.NewDate(2025, 5, 15),
		},
		{
			name:    "after closing day",
			closing: 5, due: 15,
			ref:   core.NewDate(2025, 3, 10),
			start: core.NewDate(2025, 3, 5),
			end:   core.NewDate(2025, 4, 4),
			dueDate: core.NewDate(2025, 5, 15),
		},
		{
			name:    "closing day 1 covers the calendar month",
			closing: 1, due: 10,
			ref:   core.NewDate(2025, 2, 14),
			start: core.NewDate(2025, 2, 1),
			end:   core.NewDate(2025, 2, 28),
			dueDate: core.NewDate(2025, 3, 10),
		},
		{
			name:    "closing day 1 leap february",
			closing: 1, due: 10,
			ref:   core.NewDate(2024, 2, 29),
			start: core.NewDate(2024, 2, 1),
			end:   core.NewDate(2024, 2, 29),
			dueDate: core.NewDate(2024, 3, 10),
		},
		{
			name:    "closing day 31 clamps across february",
			closing: 31, due: 10,
			ref:   core.NewDate(2025, 2, 10),
			start: core.NewDate(2025, 1, 31),
			end:   core.NewDate(2025, 2, 27),
			dueDate: core.NewDate(2025, 3, 10),
		},
		{
			name:    "clamped start contains a late-february ref",
			closing: 31, due: 10,
			ref:   core.NewDate(2025, 2, 28),
			start: core.NewDate(2025, 2, 28),
			end:   core.NewDate(2025, 3, 30),
			dueDate: core.NewDate(2025, 4, 10),
		},
		{
			name:    "year boundary",
			closing: 20, due: 5,
			ref:   core.NewDate(2024, 12, 25),
			start: core.NewDate(2024, 12, 20),
			end:   core.NewDate(2025, 1, 19),
			dueDate: core.NewDate(2025, 2, 5),
		},
		{
			name:    "january before closing wraps to december",
			closing: 20, due: 5,
			ref:   core.NewDate(2025, 1, 10),
			start: core.NewDate(2024, 12, 20),
			end:   core.NewDate(2025, 1, 19),
			dueDate: core.NewDate(2025, 2, 5),
		},
		{
			name:    "due day 31 clamps to short month",
			closing: 5, due: 31,
			ref:   core.NewDate(2025, 5, 10),
			start: core.NewDate(2025, 5, 5),
			end:   core.NewDate(2025, 6, 4),
			dueDate: core.NewDate(2025, 7, 31),
		},
		{
			name:    "due day 31 in a 30-day month becomes day 30",
			closing: 5, due: 31,
			ref:   core.NewDate(2025, 4, 10),
			start: core.NewDate(2025, 4, 5),
			end:   core.NewDate(2025, 5, 4),
			dueDate: core.NewDate(2025, 6, 30),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveCycle(testCard(tc.closing, tc.due), tc.ref)
			if !got.Start.Equal(tc.start) {
				t.Errorf("start = %s, want %s", got.Start.ISO(), tc.start.ISO())
			}
			if !got.End.Equal(tc.end) {
				t.Errorf("end = %s, want %s", got.End.ISO(), tc.end.ISO())
			}
			if !got.DueDate.Equal(tc.dueDate) {
				t.Errorf("due = %s, want %s", got.DueDate.ISO(), tc.dueDate.ISO())
			}
			if !got.Contains(tc.ref) {
				t.Errorf("cycle [%s, %s] does not contain ref %s", got.Start.ISO(), got.End.ISO(), tc.ref.ISO())
			}
		})
	}
}

// Every date must belong to exactly one cycle: resolving any day of a year
// yields a cycle containing it, consecutive cycles are contiguous, and
// resolution is idempotent.
func TestResolveCycleContiguousAndIdempotent(t *testing.T) {
	for _, closing := range []int{2, 5, 15, 28, 29, 30, 31} {
		card := testCard(closing, (closing%28)+1)
		if card.DueDay == card.ClosingDay {
			card.DueDay++
		}
		d := core.NewDate(2024, 1, 1)
		for d.Before(core.NewDate(2025, 2, 1)) {
			cyc := ResolveCycle(card, d)
			if !cyc.Contains(d) {
				t.Fatalf("closing %d: cycle [%s, %s] does not contain %s",
					closing, cyc.Start.ISO(), cyc.End.ISO(), d.ISO())
			}
			again := ResolveCycle(card, d)
			if !again.Start.Equal(cyc.Start) || !again.End.Equal(cyc.End) {
				t.Fatalf("closing %d: resolution not idempotent for %s", closing, d.ISO())
			}
			// Any date inside the cycle resolves to the same cycle.
			forEnd := ResolveCycle(card, cyc.End)
			if !forEnd.Start.Equal(cyc.Start) {
				t.Fatalf("closing %d: end date %s resolves to a different cycle", closing, cyc.End.ISO())
			}
			// The day after End opens the next cycle with no gap.
			nextRef := cyc.End.AddDays(1)
			next := ResolveCycle(card, nextRef)
			if !next.Start.Equal(nextRef) {
				t.Fatalf("closing %d: gap after %s, next cycle starts %s",
					closing, cyc.End.ISO(), next.Start.ISO())
			}
			d = d.AddDays(1)
		}
	}
}
