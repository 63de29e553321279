package store

import (
	"context"

	"fatura/internal/core"
)

// Ports for the keyed-record store backing the billing engine. The engine is
// stateless and takes these per call; implementations live in store/memory
// (dev/tests) and internal/storage (SQLite). Lookups for unknown ids return
// an error wrapping core.ErrNotFound.
type (
	CardStore interface {
		CreateCard(ctx context.Context, c core.Card) error
		GetCard(ctx context.Context, id string) (core.Card, error)
		UpdateCard(ctx context.Context, c core.Card) error
		ListCards(ctx context.Context) ([]core.Card, error)
	}

	PurchaseStore interface {
		CreatePurchase(ctx context.Context, p core.Purchase) error
		GetPurchase(ctx context.Context, id string) (core.Purchase, error)
		DeletePurchase(ctx context.Context, id string) error
		// ListCardPurchases returns card-bound purchases dated within
		// [from, to], both endpoints inclusive.
		ListCardPurchases(ctx context.Context, cardID string, from, to core.Date) ([]core.Purchase, error)
		ListPlanPurchases(ctx context.Context, planID string) ([]core.Purchase, error)
		ListPurchases(ctx context.Context, from, to core.Date) ([]core.Purchase, error)
	}

	PlanStore interface {
		CreatePlan(ctx context.Context, pl core.InstallmentPlan) error
		GetPlan(ctx context.Context, id string) (core.InstallmentPlan, error)
		DeletePlan(ctx context.Context, id string) error
	}

	InvoiceStore interface {
		GetInvoice(ctx context.Context, id string) (core.Invoice, error)
		// GetInvoiceByPeriod looks up a card's invoice by its period end date.
		GetInvoiceByPeriod(ctx context.Context, cardID string, end core.Date) (core.Invoice, error)
		// SaveInvoice inserts or updates an invoice by id.
		SaveInvoice(ctx context.Context, inv core.Invoice) error
	}

	SubscriptionStore interface {
		CreateSubscription(ctx context.Context, s core.Subscription) error
		GetSubscription(ctx context.Context, id string) (core.Subscription, error)
		UpdateSubscription(ctx context.Context, s core.Subscription) error
		DeleteSubscription(ctx context.Context, id string) error
		ListSubscriptions(ctx context.Context) ([]core.Subscription, error)
		// ListActiveCardSubscriptions returns active subscriptions billed to
		// the given card.
		ListActiveCardSubscriptions(ctx context.Context, cardID string) ([]core.Subscription, error)
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) error
		GetCategory(ctx context.Context, id string) (core.Category, error)
		DeleteCategory(ctx context.Context, id string) error
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, b core.Budget) error
		GetBudget(ctx context.Context, id string) (core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, id string) error
		ListBudgets(ctx context.Context, year, month int) ([]core.Budget, error)
	}
)

// Store is the full record store consumed by the engine and the HTTP layer.
type Store interface {
	CardStore
	PurchaseStore
	PlanStore
	InvoiceStore
	SubscriptionStore
	CategoryStore
	BudgetStore
}
