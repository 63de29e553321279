package billing

import (
	"fatura/internal/core"
)

// Classify assigns a purchase date to the invoice period that contains it.
// The returned key is the card id plus the period's end date.
func Classify(card core.Card, purchaseDate core.Date) PeriodKey {
	return ResolveCycle(card, purchaseDate).Key(card.ID)
}

// InstallmentDates returns the dates of the legs of an installment plan:
// the origin date, then one calendar month after the previous for each
// following leg, each clamped to the last valid day of its target month.
//
// Each leg is classified independently with its own date. Legs are not
// forced into consecutive invoices; if clamping lands two legs in the same
// cycle they simply aggregate together.
func InstallmentDates(origin core.Date, count int) []core.Date {
	if count < 1 {
		return nil
	}
	out := make([]core.Date, count)
	for i := range out {
		out[i] = origin.AddMonths(i)
	}
	return out
}

// ClassifyInstallments returns the period key of every leg of a plan
// originating on origin. The result may contain duplicate keys when
// clamping merges legs into one cycle.
func ClassifyInstallments(card core.Card, origin core.Date, count int) []PeriodKey {
	dates := InstallmentDates(origin, count)
	keys := make([]PeriodKey, len(dates))
	for i, d := range dates {
		keys[i] = Classify(card, d)
	}
	return keys
}
