package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fatura/internal/core"
	"fatura/internal/store"
)

// Aggregation holds the recomputed contents of one invoice period.
type Aggregation struct {
	Total         core.Money
	Legs          []core.Purchase
	Subscriptions []core.Subscription
}

// Aggregate recomputes the invoice total for the given period from scratch:
// every card-bound purchase leg classified into the period, plus every
// active card-billed subscription whose billing day, interpreted as a date
// within the period's months, falls inside the period. A subscription
// contributes at most once per period.
//
// Aggregation is idempotent; it never patches a previous total, so deleted
// plans and retroactive edits cannot leave drift behind.
func Aggregate(ctx context.Context, st store.Store, card core.Card, key PeriodKey) (Aggregation, error) {
	cyc := ResolveCycle(card, key.End)

	legs, err := st.ListCardPurchases(ctx, card.ID, cyc.Start, cyc.End)
	if err != nil {
		return Aggregation{}, fmt.Errorf("list purchases for period %s: %w", key, err)
	}

	var agg Aggregation
	agg.Legs = legs
	for _, p := range legs {
		agg.Total.Cents += p.Amount.Cents
	}

	subs, err := st.ListActiveCardSubscriptions(ctx, card.ID)
	if err != nil {
		return Aggregation{}, fmt.Errorf("list subscriptions for card %s: %w", card.ID, err)
	}
	for _, sub := range subs {
		if subscriptionInCycle(sub, cyc) {
			agg.Total.Cents += sub.Amount.Cents
			agg.Subscriptions = append(agg.Subscriptions, sub)
		}
	}

	return agg, nil
}

// subscriptionInCycle checks whether the subscription's billing day,
// clamped into each month the cycle touches, lands inside the cycle.
// A cycle spans at most two calendar months.
func subscriptionInCycle(sub core.Subscription, cyc Cycle) bool {
	months := [][2]int{{cyc.Start.Year(), cyc.Start.Month()}}
	if cyc.End.Year() != cyc.Start.Year() || cyc.End.Month() != cyc.Start.Month() {
		months = append(months, [2]int{cyc.End.Year(), cyc.End.Month()})
	}
	for _, ym := range months {
		d := core.ClampedDate(ym[0], ym[1], sub.BillingDay)
		if cyc.Contains(d) {
			return true
		}
	}
	return false
}

// deriveStatus is the single status derivation used everywhere: by the
// aggregation refresh, the payment applicator, and the credit view.
//
// A zero-total invoice is baseline open regardless of payments (payments
// cannot carry over once their underlying debt vanishes). Otherwise a fully
// paid invoice is paid, a partly paid one is partial, and an unpaid one is
// overdue past its due date, closed past its period end, or open.
func deriveStatus(inv core.Invoice, cyc Cycle, now core.Date) core.InvoiceStatus {
	switch {
	case inv.Total.Cents == 0:
		return core.InvoiceOpen
	case inv.Paid.Cents >= inv.Total.Cents:
		return core.InvoicePaid
	case inv.Paid.Cents > 0:
		return core.InvoicePartial
	case now.After(cyc.DueDate):
		return core.InvoiceOverdue
	case cyc.Closed(now):
		return core.InvoiceClosed
	default:
		return core.InvoiceOpen
	}
}

// RefreshInvoice lazily creates the invoice for a cycle and recomputes its
// total and status. When the recomputed total drops to zero the paid amount
// is reset, so stale payments never linger on an emptied invoice.
func RefreshInvoice(ctx context.Context, st store.Store, card core.Card, cyc Cycle, now core.Date) (core.Invoice, error) {
	inv, err := st.GetInvoiceByPeriod(ctx, card.ID, cyc.End)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return core.Invoice{}, fmt.Errorf("load invoice: %w", err)
		}
		inv = core.Invoice{
			ID:        uuid.NewString(),
			CardID:    card.ID,
			PeriodEnd: cyc.End,
			DueDate:   cyc.DueDate,
			Status:    core.InvoiceOpen,
		}
	}

	agg, err := Aggregate(ctx, st, card, cyc.Key(card.ID))
	if err != nil {
		return core.Invoice{}, err
	}

	inv.Total = agg.Total
	inv.DueDate = cyc.DueDate
	if inv.Total.Cents == 0 {
		inv.Paid = core.Money{}
	}
	inv.Status = deriveStatus(inv, cyc, now)

	if err := st.SaveInvoice(ctx, inv); err != nil {
		return core.Invoice{}, fmt.Errorf("save invoice: %w", err)
	}
	return inv, nil
}

// refreshExistingInvoice recomputes an invoice only if it was already
// created; periods nobody has asked about yet stay lazy.
func refreshExistingInvoice(ctx context.Context, st store.Store, card core.Card, key PeriodKey, now core.Date) error {
	_, err := st.GetInvoiceByPeriod(ctx, card.ID, key.End)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load invoice: %w", err)
	}
	cyc := ResolveCycle(card, key.End)
	_, err = RefreshInvoice(ctx, st, card, cyc, now)
	return err
}
