package billing

import (
	"errors"
	"testing"

	"fatura/internal/core"
)

func TestCreditViewFor(t *testing.T) {
	card := testCard(5, 15)
	card.Limit = core.Money{Cents: 100000} // 1000.00
	cyc := ResolveCycle(card, core.NewDate(2025, 3, 10))

	cases := []struct {
		name      string
		total     int64
		paid      int64
		now       core.Date
		available int64
	}{
		{"no spend leaves full limit", 0, 0, core.NewDate(2025, 3, 10), 100000},
		{"open period subtracts unpaid balance", 30000, 0, core.NewDate(2025, 3, 10), 70000},
		{"open period at the limit", 100000, 0, core.NewDate(2025, 3, 10), 0},
		{"payment during open period restores credit", 30000, 30000, core.NewDate(2025, 3, 10), 100000},
		{"partial payment during open period", 30000, 10000, core.NewDate(2025, 3, 10), 80000},
		{"closed period with unpaid balance blocks spending", 30000, 0, core.NewDate(2025, 4, 10), 0},
		{"closed period partly paid still blocks", 30000, 10000, core.NewDate(2025, 4, 10), 0},
		{"closed period settled restores full limit", 30000, 30000, core.NewDate(2025, 4, 10), 100000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv := core.Invoice{
				CardID: card.ID,
				Total:  core.Money{Cents: tc.total},
				Paid:   core.Money{Cents: tc.paid},
			}
			view := CreditViewFor(card, inv, cyc, tc.now)
			if view.Available.Cents != tc.available {
				t.Errorf("available = %d, want %d", view.Available.Cents, tc.available)
			}
			if view.Available.Cents < 0 || view.Available.Cents > card.Limit.Cents {
				t.Errorf("available %d outside [0, limit]", view.Available.Cents)
			}
			if view.Used.Cents != card.Limit.Cents-view.Available.Cents {
				t.Errorf("used = %d, want %d", view.Used.Cents, card.Limit.Cents-view.Available.Cents)
			}
		})
	}
}

func TestCreditViewNeverNegative(t *testing.T) {
	// Total above the limit (limit lowered after the fact) must floor at 0.
	card := testCard(5, 15)
	card.Limit = core.Money{Cents: 10000}
	cyc := ResolveCycle(card, core.NewDate(2025, 3, 10))
	inv := core.Invoice{Total: core.Money{Cents: 25000}}

	view := CreditViewFor(card, inv, cyc, core.NewDate(2025, 3, 10))
	if view.Available.Cents != 0 {
		t.Errorf("available = %d, want 0", view.Available.Cents)
	}
}

func TestAuthorize(t *testing.T) {
	card := testCard(5, 15)
	view := CreditView{Available: core.Money{Cents: 5000}}

	if err := Authorize(card, view, core.Money{Cents: 5000}); err != nil {
		t.Errorf("amount equal to available should pass, got %v", err)
	}

	err := Authorize(card, view, core.Money{Cents: 5001})
	if !errors.Is(err, core.ErrInsufficientCredit) {
		t.Fatalf("want ErrInsufficientCredit, got %v", err)
	}
	var ice *core.InsufficientCreditError
	if !errors.As(err, &ice) {
		t.Fatal("error does not carry the available amount")
	}
	if ice.Available.Cents != 5000 {
		t.Errorf("reported available = %d, want 5000", ice.Available.Cents)
	}

	blocked := card
	blocked.Blocked = true
	if err := Authorize(blocked, view, core.Money{Cents: 1}); !errors.Is(err, core.ErrCardBlocked) {
		t.Errorf("blocked card: want ErrCardBlocked, got %v", err)
	}

	inactive := card
	inactive.Active = false
	if err := Authorize(inactive, view, core.Money{Cents: 1}); !errors.Is(err, core.ErrCardInactive) {
		t.Errorf("inactive card: want ErrCardInactive, got %v", err)
	}
}
