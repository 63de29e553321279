package billing

import (
	"context"
	"testing"

	"fatura/internal/core"
	"fatura/internal/store/memory"
)

func seedCard(t *testing.T, st *memory.Store, card core.Card) {
	t.Helper()
	if err := st.CreateCard(context.Background(), card); err != nil {
		t.Fatalf("seed card: %v", err)
	}
}

func seedPurchase(t *testing.T, st *memory.Store, p core.Purchase) {
	t.Helper()
	if err := st.CreatePurchase(context.Background(), p); err != nil {
		t.Fatalf("seed purchase: %v", err)
	}
}

func TestAggregateSumsPeriodLegs(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	card := testCard(5, 15)
	seedCard(t, st, card)

	// Two inside the Mar 5 .. Apr 4 cycle, one before it, one after it.
	seedPurchase(t, st, core.Purchase{ID: "p1", CardID: card.ID, Amount: core.Money{Cents: 1500}, Date: core.NewDate(2025, 3, 5), Description: "groceries", Category: "food"})
	seedPurchase(t, st, core.Purchase{ID: "p2", CardID: card.ID, Amount: core.Money{Cents: 2500}, Date: core.NewDate(2025, 4, 4), Description: "fuel", Category: "transport"})
	seedPurchase(t, st, core.Purchase{ID: "p3", CardID: card.ID, Amount: core.Money{Cents: 999}, Date: core.NewDate(2025, 3, 4), Description: "before", Category: "misc"})
	seedPurchase(t, st, core.Purchase{ID: "p4", CardID: card.ID, Amount: core.Money{Cents: 999}, Date: core.NewDate(2025, 4, 5), Description: "after", Category: "misc"})

	cyc := ResolveCycle(card, core.NewDate(2025, 3, 10))
	agg, err := Aggregate(ctx, st, card, cyc.Key(card.ID))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if agg.Total.Cents != 4000 {
		t.Errorf("total = %d, want 4000", agg.Total.Cents)
	}
	if len(agg.Legs) != 2 {
		t.Errorf("legs = %d, want 2", len(agg.Legs))
	}
}

func TestAggregateIncludesActiveSubscriptionsOnce(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	card := testCard(5, 15)
	seedCard(t, st, card)

	subs := []core.Subscription{
		{ID: "s1", Name: "streaming", Amount: core.Money{Cents: 1299}, BillingDay: 10, CardID: card.ID, Active: true},
		{ID: "s2", Name: "inactive", Amount: core.Money{Cents: 500}, BillingDay: 10, CardID: card.ID, Active: false},
		{ID: "s3", Name: "other card", Amount: core.Money{Cents: 700}, BillingDay: 10, CardID: "card-2", Active: true},
		// Billing day 31 clamps to the last day of March, inside the cycle.
		{ID: "s4", Name: "clamped", Amount: core.Money{Cents: 401}, BillingDay: 31, CardID: card.ID, Active: true},
	}
	for _, sub := range subs {
		if err := st.CreateSubscription(ctx, sub); err != nil {
			t.Fatalf("seed subscription: %v", err)
		}
	}

	cyc := ResolveCycle(card, core.NewDate(2025, 3, 10))
	agg, err := Aggregate(ctx, st, card, cyc.Key(card.ID))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if agg.Total.Cents != 1299+401 {
		t.Errorf("total = %d, want %d", agg.Total.Cents, 1299+401)
	}
	if len(agg.Subscriptions) != 2 {
		t.Errorf("subscriptions = %d, want 2", len(agg.Subscriptions))
	}
}

func TestSubscriptionInCycleAtMostOnce(t *testing.T) {
	// Billing day 4 occurs in both months a Mar 5 .. Apr 4 cycle touches,
	// but only the April occurrence is inside the range.
	card := testCard(5, 15)
	cyc := ResolveCycle(card, core.NewDate(2025, 3, 10))
	sub := core.Subscription{ID: "s1", Amount: core.Money{Cents: 100}, BillingDay: 4, CardID: card.ID, Active: true}
	if !subscriptionInCycle(sub, cyc) {
		t.Error("billing day 4 should land inside the cycle via the end month")
	}
	sub.BillingDay = 5
	if !subscriptionInCycle(sub, cyc) {
		t.Error("billing day 5 should land inside the cycle via the start month")
	}
}

func TestRefreshInvoiceLazyCreateAndRecompute(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	card := testCard(5, 15)
	seedCard(t, st, card)
	now := core.NewDate(2025, 3, 10)
	cyc := ResolveCycle(card, now)

	inv, err := RefreshInvoice(ctx, st, card, cyc, now)
	if err != nil {
		t.Fatalf("RefreshInvoice: %v", err)
	}
	if inv.ID == "" {
		t.Fatal("invoice not created")
	}
	if inv.Total.Cents != 0 || inv.Status != core.InvoiceOpen {
		t.Errorf("fresh invoice = total %d status %s, want 0 open", inv.Total.Cents, inv.Status)
	}

	seedPurchase(t, st, core.Purchase{ID: "p1", CardID: card.ID, Amount: core.Money{Cents: 3000}, Date: now, Description: "dinner", Category: "food"})
	again, err := RefreshInvoice(ctx, st, card, cyc, now)
	if err != nil {
		t.Fatalf("RefreshInvoice: %v", err)
	}
	if again.ID != inv.ID {
		t.Errorf("second refresh created a new invoice %s, want %s", again.ID, inv.ID)
	}
	if again.Total.Cents != 3000 {
		t.Errorf("total = %d, want 3000", again.Total.Cents)
	}
}

func TestRefreshInvoiceZeroTotalResetsPaid(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	card := testCard(5, 15)
	seedCard(t, st, card)
	now := core.NewDate(2025, 3, 10)
	cyc := ResolveCycle(card, now)

	seedPurchase(t, st, core.Purchase{ID: "p1", CardID: card.ID, Amount: core.Money{Cents: 3000}, Date: now, Description: "dinner", Category: "food"})
	inv, err := RefreshInvoice(ctx, st, card, cyc, now)
	if err != nil {
		t.Fatalf("RefreshInvoice: %v", err)
	}
	inv.Paid = core.Money{Cents: 1000}
	inv.Status = core.InvoicePartial
	if err := st.SaveInvoice(ctx, inv); err != nil {
		t.Fatalf("SaveInvoice: %v", err)
	}

	if err := st.DeletePurchase(ctx, "p1"); err != nil {
		t.Fatalf("DeletePurchase: %v", err)
	}
	inv, err = RefreshInvoice(ctx, st, card, cyc, now)
	if err != nil {
		t.Fatalf("RefreshInvoice: %v", err)
	}
	if inv.Total.Cents != 0 || inv.Paid.Cents != 0 {
		t.Errorf("emptied invoice = total %d paid %d, want 0 0", inv.Total.Cents, inv.Paid.Cents)
	}
	if inv.Status != core.InvoiceOpen {
		t.Errorf("status = %s, want open", inv.Status)
	}
}

func TestDeriveStatus(t *testing.T) {
	card := testCard(5, 15)
	cyc := ResolveCycle(card, core.NewDate(2025, 3, 10)) // Mar 5 .. Apr 4, due May 15
	inv := func(total, paid int64) core.Invoice {
		return core.Invoice{Total: core.Money{Cents: total}, Paid: core.Money{Cents: paid}}
	}

	cases := []struct {
		name string
		inv  core.Invoice
		now  core.Date
		want core.InvoiceStatus
	}{
		{"zero total is open", inv(0, 0), core.NewDate(2025, 6, 1), core.InvoiceOpen},
		{"unpaid in period is open", inv(100, 0), core.NewDate(2025, 3, 20), core.InvoiceOpen},
		{"unpaid after period end is closed", inv(100, 0), core.NewDate(2025, 4, 5), core.InvoiceClosed},
		{"unpaid on due date is still closed", inv(100, 0), core.NewDate(2025, 5, 15), core.InvoiceClosed},
		{"unpaid past due date is overdue", inv(100, 0), core.NewDate(2025, 5, 16), core.InvoiceOverdue},
		{"partial payment wins over overdue", inv(100, 50), core.NewDate(2025, 6, 1), core.InvoicePartial},
		{"fully paid is paid", inv(100, 100), core.NewDate(2025, 6, 1), core.InvoicePaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := deriveStatus(tc.inv, cyc, tc.now); got != tc.want {
				t.Errorf("deriveStatus = %s, want %s", got, tc.want)
			}
		})
	}
}
