// Package memory is the in-memory record store. It backs tests and the
// default dev backend; all methods are safe for concurrent use.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fatura/internal/core"
)

type Store struct {
	mu            sync.Mutex
	cards         map[string]core.Card
	purchases     map[string]core.Purchase
	plans         map[string]core.InstallmentPlan
	invoices      map[string]core.Invoice
	subscriptions map[string]core.Subscription
	categories    map[string]core.Category
	budgets       map[string]core.Budget
}

func New() *Store {
	return &Store{
		cards:         make(map[string]core.Card),
		purchases:     make(map[string]core.Purchase),
		plans:         make(map[string]core.InstallmentPlan),
		invoices:      make(map[string]core.Invoice),
		subscriptions: make(map[string]core.Subscription),
		categories:    make(map[string]core.Category),
		budgets:       make(map[string]core.Budget),
	}
}

func (s *Store) CreateCard(_ context.Context, c core.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[c.ID] = c
	return nil
}

func (s *Store) GetCard(_ context.Context, id string) (core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return core.Card{}, fmt.Errorf("card %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) UpdateCard(_ context.Context, c core.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[c.ID]; !ok {
		return fmt.Errorf("card %s: %w", c.ID, core.ErrNotFound)
	}
	s.cards[c.ID] = c
	return nil
}

func (s *Store) ListCards(_ context.Context) ([]core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Card, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreatePurchase(_ context.Context, p core.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases[p.ID] = p
	return nil
}

func (s *Store) GetPurchase(_ context.Context, id string) (core.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return core.Purchase{}, fmt.Errorf("purchase %s: %w", id, core.ErrNotFound)
	}
	return p, nil
}

func (s *Store) DeletePurchase(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.purchases[id]; !ok {
		return fmt.Errorf("purchase %s: %w", id, core.ErrNotFound)
	}
	delete(s.purchases, id)
	return nil
}

func (s *Store) ListCardPurchases(_ context.Context, cardID string, from, to core.Date) ([]core.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Purchase
	for _, p := range s.purchases {
		if p.CardID != cardID {
			continue
		}
		if inRange(p.Date, from, to) {
			out = append(out, p)
		}
	}
	sortByDate(out)
	return out, nil
}

func (s *Store) ListPlanPurchases(_ context.Context, planID string) ([]core.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Purchase
	for _, p := range s.purchases {
		if p.PlanID == planID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Installment < out[j].Installment })
	return out, nil
}

func (s *Store) ListPurchases(_ context.Context, from, to core.Date) ([]core.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Purchase
	for _, p := range s.purchases {
		if inRange(p.Date, from, to) {
			out = append(out, p)
		}
	}
	sortByDate(out)
	return out, nil
}

func (s *Store) CreatePlan(_ context.Context, pl core.InstallmentPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[pl.ID] = pl
	return nil
}

func (s *Store) GetPlan(_ context.Context, id string) (core.InstallmentPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pl, ok := s.plans[id]
	if !ok {
		return core.InstallmentPlan{}, fmt.Errorf("plan %s: %w", id, core.ErrNotFound)
	}
	return pl, nil
}

func (s *Store) DeletePlan(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[id]; !ok {
		return fmt.Errorf("plan %s: %w", id, core.ErrNotFound)
	}
	delete(s.plans, id)
	return nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return core.Invoice{}, fmt.Errorf("invoice %s: %w", id, core.ErrNotFound)
	}
	return inv, nil
}

func (s *Store) GetInvoiceByPeriod(_ context.Context, cardID string, end core.Date) (core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invoices {
		if inv.CardID == cardID && inv.PeriodEnd.Equal(end) {
			return inv, nil
		}
	}
	return core.Invoice{}, fmt.Errorf("invoice for card %s ending %s: %w", cardID, end.ISO(), core.ErrNotFound)
}

func (s *Store) SaveInvoice(_ context.Context, inv core.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = inv
	return nil
}

func (s *Store) CreateSubscription(_ context.Context, sub core.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions[sub.ID] = sub
	return nil
}

func (s *Store) GetSubscription(_ context.Context, id string) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[id]
	if !ok {
		return core.Subscription{}, fmt.Errorf("subscription %s: %w", id, core.ErrNotFound)
	}
	return sub, nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub core.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscriptions[sub.ID]; !ok {
		return fmt.Errorf("subscription %s: %w", sub.ID, core.ErrNotFound)
	}
	s.subscriptions[sub.ID] = sub
	return nil
}

func (s *Store) DeleteSubscription(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscriptions[id]; !ok {
		return fmt.Errorf("subscription %s: %w", id, core.ErrNotFound)
	}
	delete(s.subscriptions, id)
	return nil
}

func (s *Store) ListSubscriptions(_ context.Context) ([]core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Subscription, 0, len(s.subscriptions))
	for _, sub := range s.subscriptions {
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ListActiveCardSubscriptions(_ context.Context, cardID string) ([]core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Subscription
	for _, sub := range s.subscriptions {
		if sub.Active && sub.CardID == cardID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return nil
}

func (s *Store) GetCategory(_ context.Context, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) GetBudget(_ context.Context, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[b.ID]; !ok {
		return fmt.Errorf("budget %s: %w", b.ID, core.ErrNotFound)
	}
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) ListBudgets(_ context.Context, year, month int) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.Year == year && b.Month == month {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out, nil
}

func inRange(d, from, to core.Date) bool {
	return !d.Before(from) && !d.After(to)
}

func sortByDate(ps []core.Purchase) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].Date.Equal(ps[j].Date) {
			return ps[i].Date.Before(ps[j].Date)
		}
		return ps[i].ID < ps[j].ID
	})
}
