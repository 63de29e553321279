package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fatura/internal/core"
	"fatura/internal/store"
)

// Engine executes the billing operations. It holds no record state of its
// own; everything lives in the injected store. All operations touching a
// card run under that card's lock, so classify -> aggregate -> credit
// check -> write is atomic per card.
type Engine struct {
	st    store.Store
	locks *cardLocks

	// now is the clock used for cycle resolution; tests override it.
	now func() core.Date
}

func NewEngine(st store.Store) *Engine {
	return NewEngineAt(st, func() core.Date { return core.DateOf(time.Now()) })
}

// NewEngineAt creates an engine with an explicit clock.
func NewEngineAt(st store.Store, now func() core.Date) *Engine {
	return &Engine{
		st:    st,
		locks: newCardLocks(),
		now:   now,
	}
}

// PurchaseRequest is a validated, typed purchase submission. Installments
// of 0 or 1 mean a plain one-off purchase; 2 or more create an installment
// plan with that many monthly legs.
type PurchaseRequest struct {
	CardID       string
	Amount       core.Money
	Date         core.Date
	Description  string
	Category     string
	Installments int
}

// PurchaseResult is either a single purchase or a plan with all its legs.
type PurchaseResult struct {
	Purchase *core.Purchase
	Plan     *core.InstallmentPlan
	Legs     []core.Purchase
}

// CreatePurchase records a purchase or an installment plan. Card-bound
// purchases are authorized against the card's available credit first; the
// purchase and its credit reservation become visible together, never one
// without the other.
func (e *Engine) CreatePurchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error) {
	res, err := buildPurchaseRecords(req)
	if err != nil {
		return PurchaseResult{}, err
	}

	if req.CardID == "" {
		// Cash/debit purchases never participate in invoice aggregation,
		// so there is nothing to authorize or refresh.
		if err := e.persistResult(ctx, res); err != nil {
			return PurchaseResult{}, err
		}
		return res, nil
	}

	unlock := e.locks.acquire(req.CardID)
	defer unlock()

	card, err := e.st.GetCard(ctx, req.CardID)
	if err != nil {
		return PurchaseResult{}, err
	}

	now := e.now()
	cyc := ResolveCycle(card, now)
	inv, err := RefreshInvoice(ctx, e.st, card, cyc, now)
	if err != nil {
		return PurchaseResult{}, err
	}
	view := CreditViewFor(card, inv, cyc, now)
	if err := Authorize(card, view, req.Amount); err != nil {
		return PurchaseResult{}, err
	}

	if err := e.persistResult(ctx, res); err != nil {
		return PurchaseResult{}, err
	}
	if err := e.refreshAffected(ctx, card, affectedDates(res), now); err != nil {
		return PurchaseResult{}, err
	}

	slog.InfoContext(ctx, "Purchase recorded",
		"card_id", card.ID,
		"amount_cents", req.Amount.Cents,
		"installments", len(res.Legs),
		"available_cents", view.Available.Cents-req.Amount.Cents)
	return res, nil
}

// DeletePurchase removes a purchase. If it is one leg of an installment
// plan, the whole plan goes with it and the sum of all legs is released
// from credit, no matter how many legs had already been billed.
func (e *Engine) DeletePurchase(ctx context.Context, id string) error {
	p, err := e.st.GetPurchase(ctx, id)
	if err != nil {
		return err
	}

	if p.CardID != "" {
		unlock := e.locks.acquire(p.CardID)
		defer unlock()
		// Reload under the lock; a concurrent delete may have won.
		if p, err = e.st.GetPurchase(ctx, id); err != nil {
			return err
		}
	}

	var removed []core.Purchase
	if p.PlanID != "" {
		legs, err := e.st.ListPlanPurchases(ctx, p.PlanID)
		if err != nil {
			return fmt.Errorf("list plan legs: %w", err)
		}
		for _, leg := range legs {
			if err := e.st.DeletePurchase(ctx, leg.ID); err != nil {
				return fmt.Errorf("delete leg %s: %w", leg.ID, err)
			}
		}
		if err := e.st.DeletePlan(ctx, p.PlanID); err != nil {
			return fmt.Errorf("delete plan: %w", err)
		}
		removed = legs
	} else {
		if err := e.st.DeletePurchase(ctx, id); err != nil {
			return err
		}
		removed = []core.Purchase{p}
	}

	if p.CardID == "" {
		return nil
	}
	card, err := e.st.GetCard(ctx, p.CardID)
	if err != nil {
		return err
	}
	dates := make([]core.Date, len(removed))
	var released int64
	for i, leg := range removed {
		dates[i] = leg.Date
		released += leg.Amount.Cents
	}
	if err := e.refreshAffected(ctx, card, dates, e.now()); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Purchase deleted",
		"card_id", card.ID,
		"legs", len(removed),
		"released_cents", released)
	return nil
}

// GetAvailableCredit evaluates the card's spendable credit against the
// invoice period containing now. The invoice is lazily created and freshly
// recomputed on every call.
func (e *Engine) GetAvailableCredit(ctx context.Context, cardID string) (CreditView, error) {
	unlock := e.locks.acquire(cardID)
	defer unlock()

	card, err := e.st.GetCard(ctx, cardID)
	if err != nil {
		return CreditView{}, err
	}
	now := e.now()
	cyc := ResolveCycle(card, now)
	inv, err := RefreshInvoice(ctx, e.st, card, cyc, now)
	if err != nil {
		return CreditView{}, err
	}
	return CreditViewFor(card, inv, cyc, now), nil
}

// GetInvoice returns the card's invoice for the period containing ref,
// creating it on first request.
func (e *Engine) GetInvoice(ctx context.Context, cardID string, ref core.Date) (core.Invoice, error) {
	unlock := e.locks.acquire(cardID)
	defer unlock()

	card, err := e.st.GetCard(ctx, cardID)
	if err != nil {
		return core.Invoice{}, err
	}
	cyc := ResolveCycle(card, ref)
	return RefreshInvoice(ctx, e.st, card, cyc, e.now())
}

// PayInvoice applies a payment against an invoice and releases the
// corresponding credit. The invoice total is recomputed first so the
// payment is validated against current state, not a stale total.
func (e *Engine) PayInvoice(ctx context.Context, invoiceID string, amount core.Money) (core.Invoice, error) {
	inv, err := e.st.GetInvoice(ctx, invoiceID)
	if err != nil {
		return core.Invoice{}, err
	}

	unlock := e.locks.acquire(inv.CardID)
	defer unlock()

	if inv, err = e.st.GetInvoice(ctx, invoiceID); err != nil {
		return core.Invoice{}, err
	}
	card, err := e.st.GetCard(ctx, inv.CardID)
	if err != nil {
		return core.Invoice{}, err
	}

	now := e.now()
	cyc := ResolveCycle(card, inv.PeriodEnd)
	refreshed, err := RefreshInvoice(ctx, e.st, card, cyc, now)
	if err != nil {
		return core.Invoice{}, err
	}

	updated, err := ApplyPayment(refreshed, cyc, amount, now)
	if err != nil {
		return core.Invoice{}, err
	}
	if err := e.st.SaveInvoice(ctx, updated); err != nil {
		return core.Invoice{}, fmt.Errorf("save invoice: %w", err)
	}

	slog.InfoContext(ctx, "Payment applied",
		"invoice_id", updated.ID,
		"card_id", card.ID,
		"amount_cents", amount.Cents,
		"status", string(updated.Status))
	return updated, nil
}

// SetCardBlocked flips the card's blocked flag. Blocked cards reject new
// purchases regardless of available credit.
func (e *Engine) SetCardBlocked(ctx context.Context, cardID string, blocked bool) (core.Card, error) {
	return e.updateCard(ctx, cardID, func(c *core.Card) { c.Blocked = blocked })
}

// SetCardActive flips the card's active flag. Inactive cards reject new
// purchases regardless of available credit.
func (e *Engine) SetCardActive(ctx context.Context, cardID string, active bool) (core.Card, error) {
	return e.updateCard(ctx, cardID, func(c *core.Card) { c.Active = active })
}

func (e *Engine) updateCard(ctx context.Context, cardID string, mod func(*core.Card)) (core.Card, error) {
	unlock := e.locks.acquire(cardID)
	defer unlock()

	card, err := e.st.GetCard(ctx, cardID)
	if err != nil {
		return core.Card{}, err
	}
	mod(&card)
	if err := e.st.UpdateCard(ctx, card); err != nil {
		return core.Card{}, err
	}
	return card, nil
}

// buildPurchaseRecords turns a request into validated records without
// touching the store.
func buildPurchaseRecords(req PurchaseRequest) (PurchaseResult, error) {
	if req.Installments >= 2 {
		plan := core.InstallmentPlan{
			ID:     uuid.NewString(),
			CardID: req.CardID,
			Total:  req.Amount,
			Count:  req.Installments,
			Date:   req.Date,
		}
		if err := plan.Validate(); err != nil {
			return PurchaseResult{}, err
		}
		amounts := core.SplitInstallments(req.Amount, req.Installments)
		dates := InstallmentDates(req.Date, req.Installments)
		legs := make([]core.Purchase, req.Installments)
		for i := range legs {
			legs[i] = core.Purchase{
				ID:          uuid.NewString(),
				CardID:      req.CardID,
				Amount:      amounts[i],
				Date:        dates[i],
				Description: req.Description,
				Category:    req.Category,
				PlanID:      plan.ID,
				Installment: i + 1,
				Count:       req.Installments,
			}
			if err := legs[i].Validate(); err != nil {
				return PurchaseResult{}, err
			}
		}
		return PurchaseResult{Plan: &plan, Legs: legs}, nil
	}

	p := core.Purchase{
		ID:          uuid.NewString(),
		CardID:      req.CardID,
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
		Category:    req.Category,
	}
	if err := p.Validate(); err != nil {
		return PurchaseResult{}, err
	}
	return PurchaseResult{Purchase: &p}, nil
}

func (e *Engine) persistResult(ctx context.Context, res PurchaseResult) error {
	if res.Plan == nil {
		if err := e.st.CreatePurchase(ctx, *res.Purchase); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		return nil
	}

	if err := e.st.CreatePlan(ctx, *res.Plan); err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	for i, leg := range res.Legs {
		if err := e.st.CreatePurchase(ctx, leg); err != nil {
			// Roll back what was written so no partial plan survives.
			for _, created := range res.Legs[:i] {
				_ = e.st.DeletePurchase(ctx, created.ID)
			}
			_ = e.st.DeletePlan(ctx, res.Plan.ID)
			return fmt.Errorf("create leg %d: %w", i+1, err)
		}
	}
	return nil
}

// refreshAffected recomputes every already-created invoice whose period
// contains one of the given dates. Periods never requested stay lazy.
func (e *Engine) refreshAffected(ctx context.Context, card core.Card, dates []core.Date, now core.Date) error {
	seen := make(map[PeriodKey]struct{})
	for _, d := range dates {
		key := Classify(card, d)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if err := refreshExistingInvoice(ctx, e.st, card, key, now); err != nil {
			return err
		}
	}
	return nil
}

func affectedDates(res PurchaseResult) []core.Date {
	if res.Plan == nil {
		return []core.Date{res.Purchase.Date}
	}
	dates := make([]core.Date, len(res.Legs))
	for i, leg := range res.Legs {
		dates[i] = leg.Date
	}
	return dates
}
