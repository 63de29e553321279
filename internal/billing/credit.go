package billing

import (
	"fatura/internal/core"
)

// CreditView is the spendable-credit snapshot for a card, evaluated
// against its currently open invoice period.
type CreditView struct {
	Available     core.Money
	Used          core.Money
	InvoiceStatus core.InvoiceStatus
	InvoiceTotal  core.Money
	Paid          core.Money
	Remaining     core.Money
}

// CreditViewFor derives available credit from the card's limit and the
// invoice of the period containing now.
//
// While the period is still open, available is limit minus the unpaid
// balance, floored at zero. Once the period has closed, an unpaid balance
// blocks all spending (available 0) regardless of the nominal limit, and a
// settled balance restores the full limit for the fresh cycle. Paying an
// open invoice in full nets available == limit immediately, since the
// unpaid balance is zero on both branches.
func CreditViewFor(card core.Card, inv core.Invoice, cyc Cycle, now core.Date) CreditView {
	remaining := inv.Total.Cents - inv.Paid.Cents
	if remaining < 0 {
		remaining = 0
	}

	var available int64
	switch {
	case !cyc.Closed(now):
		available = card.Limit.Cents - remaining
		if available < 0 {
			available = 0
		}
	case remaining > 0:
		available = 0
	default:
		available = card.Limit.Cents
	}

	return CreditView{
		Available:     core.Money{Cents: available},
		Used:          core.Money{Cents: card.Limit.Cents - available},
		InvoiceStatus: inv.Status,
		InvoiceTotal:  inv.Total,
		Paid:          inv.Paid,
		Remaining:     core.Money{Cents: remaining},
	}
}

// Authorize checks whether a new purchase of the given amount may be
// charged to the card. Blocked or inactive cards reject purchases
// regardless of available credit; otherwise the amount must fit inside the
// available headroom or the caller gets an InsufficientCreditError carrying
// the numeric available amount.
func Authorize(card core.Card, view CreditView, amount core.Money) error {
	if card.Blocked {
		return core.ErrCardBlocked
	}
	if !card.Active {
		return core.ErrCardInactive
	}
	if amount.Cents > view.Available.Cents {
		return &core.InsufficientCreditError{Available: view.Available}
	}
	return nil
}
