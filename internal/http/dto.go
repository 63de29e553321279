// Package http provides the JSON API server.
//
// This file defines the typed request and response structs for every
// endpoint. Monetary amounts cross the wire as decimal strings ("12.34"),
// dates as YYYY-MM-DD.
package http

import (
	"fatura/internal/billing"
	"fatura/internal/core"
)

// CreatePurchaseRequest is the body of POST /api/purchases. Installments of
// 0 or 1 records a one-off purchase; 2 or more creates an installment plan.
type CreatePurchaseRequest struct {
	CardID       string `json:"card_id,omitempty"`
	Amount       string `json:"amount"`
	Date         string `json:"date"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Installments int    `json:"installments,omitempty"`
}

type PurchaseResponse struct {
	ID          string `json:"id"`
	CardID      string `json:"card_id,omitempty"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	PlanID      string `json:"plan_id,omitempty"`
	Installment int    `json:"installment,omitempty"`
	Count       int    `json:"count,omitempty"`
}

// CreatePurchaseResponse carries either the single purchase or the plan
// with all its legs.
type CreatePurchaseResponse struct {
	Purchase *PurchaseResponse  `json:"purchase,omitempty"`
	Plan     *PlanResponse      `json:"plan,omitempty"`
	Legs     []PurchaseResponse `json:"legs,omitempty"`
}

type PlanResponse struct {
	ID     string `json:"id"`
	CardID string `json:"card_id"`
	Total  string `json:"total"`
	Count  int    `json:"count"`
	Date   string `json:"date"`
}

type CreateCardRequest struct {
	Name       string `json:"name"`
	Limit      string `json:"limit"`
	ClosingDay int    `json:"closing_day"`
	DueDay     int    `json:"due_day"`
}

type CardResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Limit      string `json:"limit"`
	ClosingDay int    `json:"closing_day"`
	DueDay     int    `json:"due_day"`
	Active     bool   `json:"active"`
	Blocked    bool   `json:"blocked"`
}

type SetBlockedRequest struct {
	Blocked bool `json:"blocked"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}

type CreditResponse struct {
	Available     string `json:"available"`
	Used          string `json:"used"`
	InvoiceStatus string `json:"invoice_status"`
	InvoiceTotal  string `json:"invoice_total"`
	PaidAmount    string `json:"paid_amount"`
	Remaining     string `json:"remaining"`
}

type InvoiceResponse struct {
	ID        string `json:"id"`
	CardID    string `json:"card_id"`
	PeriodEnd string `json:"period_end"`
	DueDate   string `json:"due_date"`
	Total     string `json:"total"`
	Paid      string `json:"paid"`
	Status    string `json:"status"`
}

type PayInvoiceRequest struct {
	Amount string `json:"amount"`
}

type CreateSubscriptionRequest struct {
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	BillingDay int    `json:"billing_day"`
	CardID     string `json:"card_id,omitempty"`
}

type UpdateSubscriptionRequest struct {
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	BillingDay int    `json:"billing_day"`
	CardID     string `json:"card_id,omitempty"`
	Active     bool   `json:"active"`
}

type SubscriptionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	BillingDay  int    `json:"billing_day"`
	CardID      string `json:"card_id,omitempty"`
	Active      bool   `json:"active"`
	LastCharged string `json:"last_charged,omitempty"`
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type CreateBudgetRequest struct {
	CategoryID string `json:"category_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Limit      string `json:"limit"`
}

type BudgetResponse struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Limit      string `json:"limit"`
}

type CategoryAmountResponse struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type BudgetStatusResponse struct {
	Category string `json:"category"`
	Limit    string `json:"limit"`
	Spent    string `json:"spent"`
	Over     bool   `json:"over"`
}

// SummaryResponse aggregates a calendar month's spending with the budgets
// defined for it.
type SummaryResponse struct {
	Year       int                      `json:"year"`
	Month      int                      `json:"month"`
	Total      string                   `json:"total"`
	ByCategory []CategoryAmountResponse `json:"by_category"`
	Budgets    []BudgetStatusResponse   `json:"budgets,omitempty"`
}

func toPurchaseResponse(p core.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:          p.ID,
		CardID:      p.CardID,
		Amount:      core.FormatCents(p.Amount.Cents),
		Date:        p.Date.ISO(),
		Description: p.Description,
		Category:    p.Category,
		PlanID:      p.PlanID,
		Installment: p.Installment,
		Count:       p.Count,
	}
}

func toCreatePurchaseResponse(res billing.PurchaseResult) CreatePurchaseResponse {
	out := CreatePurchaseResponse{}
	if res.Purchase != nil {
		pr := toPurchaseResponse(*res.Purchase)
		out.Purchase = &pr
	}
	if res.Plan != nil {
		out.Plan = &PlanResponse{
			ID:     res.Plan.ID,
			CardID: res.Plan.CardID,
			Total:  core.FormatCents(res.Plan.Total.Cents),
			Count:  res.Plan.Count,
			Date:   res.Plan.Date.ISO(),
		}
		for _, leg := range res.Legs {
			out.Legs = append(out.Legs, toPurchaseResponse(leg))
		}
	}
	return out
}

func toCardResponse(c core.Card) CardResponse {
	return CardResponse{
		ID:         c.ID,
		Name:       c.Name,
		Limit:      core.FormatCents(c.Limit.Cents),
		ClosingDay: c.ClosingDay,
		DueDay:     c.DueDay,
		Active:     c.Active,
		Blocked:    c.Blocked,
	}
}

func toCreditResponse(v billing.CreditView) CreditResponse {
	return CreditResponse{
		Available:     core.FormatCents(v.Available.Cents),
		Used:          core.FormatCents(v.Used.Cents),
		InvoiceStatus: string(v.InvoiceStatus),
		InvoiceTotal:  core.FormatCents(v.InvoiceTotal.Cents),
		PaidAmount:    core.FormatCents(v.Paid.Cents),
		Remaining:     core.FormatCents(v.Remaining.Cents),
	}
}

func toInvoiceResponse(inv core.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:        inv.ID,
		CardID:    inv.CardID,
		PeriodEnd: inv.PeriodEnd.ISO(),
		DueDate:   inv.DueDate.ISO(),
		Total:     core.FormatCents(inv.Total.Cents),
		Paid:      core.FormatCents(inv.Paid.Cents),
		Status:    string(inv.Status),
	}
}

func toSubscriptionResponse(s core.Subscription) SubscriptionResponse {
	out := SubscriptionResponse{
		ID:         s.ID,
		Name:       s.Name,
		Amount:     core.FormatCents(s.Amount.Cents),
		BillingDay: s.BillingDay,
		CardID:     s.CardID,
		Active:     s.Active,
	}
	if s.LastCharged.Validate() == nil {
		out.LastCharged = s.LastCharged.ISO()
	}
	return out
}

func toCategoryResponse(c core.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, Kind: string(c.Kind)}
}

func toBudgetResponse(b core.Budget) BudgetResponse {
	return BudgetResponse{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Year:       b.Year,
		Month:      b.Month,
		Limit:      core.FormatCents(b.Limit.Cents),
	}
}
