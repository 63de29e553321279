package billing

import (
	"fatura/internal/core"
)

// ApplyPayment applies a payment against an invoice and re-derives its
// status. The amount must be positive and must not exceed the invoice's
// remaining balance; the paid amount only ever grows through payments.
func ApplyPayment(inv core.Invoice, cyc Cycle, amount core.Money, now core.Date) (core.Invoice, error) {
	if amount.Cents <= 0 {
		return core.Invoice{}, core.ErrInvalidPayment
	}
	remaining := inv.Total.Cents - inv.Paid.Cents
	if remaining < 0 {
		remaining = 0
	}
	if amount.Cents > remaining {
		return core.Invoice{}, core.ErrOverpayment
	}

	inv.Paid.Cents += amount.Cents
	inv.Status = deriveStatus(inv, cyc, now)
	return inv, nil
}
