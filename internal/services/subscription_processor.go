package services

import (
	"context"
	"fmt"
	"log/slog"

	"fatura/internal/billing"
	"fatura/internal/core"
	"fatura/internal/store"
)

// SubscriptionCategory is the category assigned to purchases materialized
// from subscription charges.
const SubscriptionCategory = "subscriptions"

// SubscriptionProcessor advances recurring subscriptions once per month on
// their billing day.
//
// Card-billed subscriptions are already counted into invoice totals by the
// aggregator, so the processor only records the charge date for them.
// Subscriptions without a card have no invoice to land on; those are
// materialized as plain purchases so they show up in listings, budgets,
// and the exported ledger.
type SubscriptionProcessor struct {
	st     store.Store
	ledger *LedgerService

	// now is the processing clock; tests override it.
	now func() core.Date
}

func NewSubscriptionProcessor(st store.Store, ledger *LedgerService) *SubscriptionProcessor {
	return &SubscriptionProcessor{
		st:     st,
		ledger: ledger,
		now:    core.Today,
	}
}

// ProcessDue charges every active subscription that is due. Failures on
// one subscription are logged and do not stop the rest. Returns the number
// of subscriptions charged.
func (p *SubscriptionProcessor) ProcessDue(ctx context.Context) (int, error) {
	if p.st == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	subs, err := p.st.ListSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}

	today := p.now()
	slog.InfoContext(ctx, "Processing subscriptions",
		"total", len(subs),
		"processing_date", today.ISO())

	charged := 0
	for _, sub := range subs {
		if !sub.Active {
			continue
		}
		chargeDate, due := nextChargeDate(sub, today)
		if !due {
			continue
		}

		if sub.CardID == "" {
			req := billing.PurchaseRequest{
				Amount:      sub.Amount,
				Date:        chargeDate,
				Description: sub.Name,
				Category:    SubscriptionCategory,
			}
			if _, err := p.ledger.CreatePurchase(ctx, req); err != nil {
				slog.ErrorContext(ctx, "Failed to materialize subscription charge",
					"subscription_id", sub.ID,
					"name", sub.Name,
					"error", err)
				continue
			}
		}

		sub.LastCharged = chargeDate
		if err := p.st.UpdateSubscription(ctx, sub); err != nil {
			slog.ErrorContext(ctx, "Failed to record subscription charge date",
				"subscription_id", sub.ID,
				"error", err)
			continue
		}

		charged++
		slog.InfoContext(ctx, "Subscription charged",
			"subscription_id", sub.ID,
			"name", sub.Name,
			"amount_cents", sub.Amount.Cents,
			"charge_date", chargeDate.ISO(),
			"card_id", sub.CardID)
	}

	slog.InfoContext(ctx, "Subscription processing complete",
		"charged", charged,
		"total_checked", len(subs))
	return charged, nil
}

// nextChargeDate reports whether the subscription is due as of today and,
// if so, the date the charge carries: the billing day of today's month,
// clamped to the month's length. A subscription is due once per calendar
// month, when the clamped billing day has been reached and no charge was
// recorded in the current month yet.
func nextChargeDate(sub core.Subscription, today core.Date) (core.Date, bool) {
	chargeDate := core.ClampedDate(today.Year(), today.Month(), sub.BillingDay)
	if today.Before(chargeDate) {
		return core.Date{}, false
	}
	last := sub.LastCharged
	if !last.IsZero() && last.Year() == today.Year() && last.Month() == today.Month() {
		return core.Date{}, false
	}
	return chargeDate, true
}
