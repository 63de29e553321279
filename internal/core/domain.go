package core

import (
	"errors"
	"strings"
)

const (
	InvoiceOpen    InvoiceStatus = "open"
	InvoiceClosed  InvoiceStatus = "closed"
	InvoicePaid    InvoiceStatus = "paid"
	InvoicePartial InvoiceStatus = "partial"
	InvoiceOverdue InvoiceStatus = "overdue"
)

const (
	CategoryExpense CategoryKind = "expense"
	CategoryIncome  CategoryKind = "income"
)

type (
	InvoiceStatus string

	CategoryKind string

	Money struct {
		Cents int64
	}

	// Card is a credit card with its billing-cycle configuration.
	Card struct {
		ID         string
		Name       string
		Limit      Money // credit limit, always positive
		ClosingDay int   // 1-31, purchases after this day roll into the next invoice
		DueDay     int   // 1-31, must differ from ClosingDay
		Active     bool
		Blocked    bool
	}

	// Purchase is a single charge. CardID is empty for cash/debit purchases,
	// which never participate in invoice aggregation. A purchase created as
	// part of an installment plan carries the plan reference plus its
	// 1-based index and the total leg count.
	Purchase struct {
		ID          string
		CardID      string
		Amount      Money
		Date        Date
		Description string
		Category    string
		PlanID      string
		Installment int
		Count       int
	}

	// InstallmentPlan owns N purchase legs, one per month. Legs are created
	// atomically with the plan; deleting any leg deletes the whole plan.
	InstallmentPlan struct {
		ID     string
		CardID string
		Total  Money
		Count  int
		Date   Date // originating purchase date; leg i is dated Date+(i-1) months
	}

	// Invoice is the statement for one billing period of a card, keyed by
	// the period's end date. Total is always recomputed from the purchases
	// and subscriptions in the period, never patched incrementally.
	Invoice struct {
		ID        string
		CardID    string
		PeriodEnd Date
		DueDate   Date
		Total     Money
		Paid      Money
		Status    InvoiceStatus
	}

	// Subscription is a recurring charge. When CardID is set it aggregates
	// into invoices exactly like a purchase dated on its billing day.
	Subscription struct {
		ID          string
		Name        string
		Amount      Money
		BillingDay  int // 1-31, clamped to short months
		CardID      string
		Active      bool
		LastCharged Date // last day a charge was materialized, zero if never
	}

	Category struct {
		ID   string
		Name string
		Kind CategoryKind
	}

	// Budget caps spending for a category in one calendar month.
	Budget struct {
		ID         string
		CategoryID string
		Year       int
		Month      int
		Limit      Money
	}
)

// IsValid reports whether the status is one of the known invoice states.
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceOpen, InvoiceClosed, InvoicePaid, InvoicePartial, InvoiceOverdue:
		return true
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("empty card name")
	}
	if err := c.Limit.Validate(); err != nil {
		return err
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return ErrInvalidCardConfig
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return ErrInvalidCardConfig
	}
	if c.DueDay == c.ClosingDay {
		return ErrInvalidCardConfig
	}
	return nil
}

func (p Purchase) Validate() error {
	if err := p.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(p.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(p.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Category) == "" {
		return ErrEmptyCategory
	}
	if p.PlanID != "" {
		if p.Count < 2 {
			return errors.New("installment count must be at least 2")
		}
		if p.Installment < 1 || p.Installment > p.Count {
			return errors.New("installment index out of range")
		}
	}
	return nil
}

func (pl InstallmentPlan) Validate() error {
	if err := pl.Date.Validate(); err != nil {
		return err
	}
	if err := pl.Total.Validate(); err != nil {
		return err
	}
	if pl.Count < 2 {
		return errors.New("installment count must be at least 2")
	}
	return nil
}

func (s Subscription) Validate() error {
	if len(strings.TrimSpace(s.Name)) == 0 {
		return ErrEmptyDescription
	}
	if len(s.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if s.BillingDay < 1 || s.BillingDay > 31 {
		return ErrInvalidDate
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategory
	}
	switch c.Kind {
	case CategoryExpense, CategoryIncome:
	default:
		return errors.New("invalid category kind")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidDate
	}
	if b.Year < 1970 {
		return ErrInvalidDate
	}
	return b.Limit.Validate()
}
