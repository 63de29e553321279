// Package storage is the SQLite implementation of the record store.
// Amounts are stored as integer cents and dates as ISO strings, so rows
// survive round-trips without floating point or timezone drift.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fatura/internal/core"
	"fatura/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Cards

func (s *SQLiteStore) CreateCard(ctx context.Context, c core.Card) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cards (id, name, limit_cents, closing_day, due_day, active, blocked)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Limit.Cents, c.ClosingDay, c.DueDay, boolToInt(c.Active), boolToInt(c.Blocked))
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCard(ctx context.Context, id string) (core.Card, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, limit_cents, closing_day, due_day, active, blocked
		FROM cards WHERE id = ?`, id)
	return scanCard(row)
}

func (s *SQLiteStore) UpdateCard(ctx context.Context, c core.Card) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cards SET name = ?, limit_cents = ?, closing_day = ?, due_day = ?, active = ?, blocked = ?
		WHERE id = ?`,
		c.Name, c.Limit.Cents, c.ClosingDay, c.DueDay, boolToInt(c.Active), boolToInt(c.Blocked), c.ID)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return requireRow(res, "card", c.ID)
}

func (s *SQLiteStore) ListCards(ctx context.Context) ([]core.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, limit_cents, closing_day, due_day, active, blocked
		FROM cards ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var out []core.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Purchases

func (s *SQLiteStore) CreatePurchase(ctx context.Context, p core.Purchase) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO purchases (id, card_id, amount_cents, purchase_date, description, category, plan_id, installment, installment_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, nullString(p.CardID), p.Amount.Cents, p.Date.ISO(), p.Description, p.Category,
		nullString(p.PlanID), p.Installment, p.Count)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetPurchase(ctx context.Context, id string) (core.Purchase, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, card_id, amount_cents, purchase_date, description, category, plan_id, installment, installment_count
		FROM purchases WHERE id = ?`, id)
	return scanPurchase(row)
}

func (s *SQLiteStore) DeletePurchase(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM purchases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}
	return requireRow(res, "purchase", id)
}

func (s *SQLiteStore) ListCardPurchases(ctx context.Context, cardID string, from, to core.Date) ([]core.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, card_id, amount_cents, purchase_date, description, category, plan_id, installment, installment_count
		FROM purchases
		WHERE card_id = ? AND purchase_date >= ? AND purchase_date <= ?
		ORDER BY purchase_date, id`,
		cardID, from.ISO(), to.ISO())
	if err != nil {
		return nil, fmt.Errorf("list card purchases: %w", err)
	}
	return collectPurchases(rows)
}

func (s *SQLiteStore) ListPlanPurchases(ctx context.Context, planID string) ([]core.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, card_id, amount_cents, purchase_date, description, category, plan_id, installment, installment_count
		FROM purchases WHERE plan_id = ? ORDER BY installment`, planID)
	if err != nil {
		return nil, fmt.Errorf("list plan purchases: %w", err)
	}
	return collectPurchases(rows)
}

func (s *SQLiteStore) ListPurchases(ctx context.Context, from, to core.Date) ([]core.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, card_id, amount_cents, purchase_date, description, category, plan_id, installment, installment_count
		FROM purchases
		WHERE purchase_date >= ? AND purchase_date <= ?
		ORDER BY purchase_date, id`,
		from.ISO(), to.ISO())
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return collectPurchases(rows)
}

// Installment plans

func (s *SQLiteStore) CreatePlan(ctx context.Context, pl core.InstallmentPlan) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO installment_plans (id, card_id, total_cents, leg_count, start_date)
		VALUES (?, ?, ?, ?, ?)`,
		pl.ID, nullString(pl.CardID), pl.Total.Cents, pl.Count, pl.Date.ISO())
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetPlan(ctx context.Context, id string) (core.InstallmentPlan, error) {
	var (
		pl     core.InstallmentPlan
		cardID sql.NullString
		date   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, card_id, total_cents, leg_count, start_date
		FROM installment_plans WHERE id = ?`, id).
		Scan(&pl.ID, &cardID, &pl.Total.Cents, &pl.Count, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return core.InstallmentPlan{}, fmt.Errorf("plan %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.InstallmentPlan{}, fmt.Errorf("get plan: %w", err)
	}
	pl.CardID = cardID.String
	if pl.Date, err = core.ParseDate(date); err != nil {
		return core.InstallmentPlan{}, fmt.Errorf("plan %s has invalid date %q", id, date)
	}
	return pl, nil
}

func (s *SQLiteStore) DeletePlan(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM installment_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return requireRow(res, "plan", id)
}

// Invoices

func (s *SQLiteStore) GetInvoice(ctx context.Context, id string) (core.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, card_id, period_end, due_date, total_cents, paid_cents, status
		FROM invoices WHERE id = ?`, id)
	return scanInvoice(row)
}

func (s *SQLiteStore) GetInvoiceByPeriod(ctx context.Context, cardID string, end core.Date) (core.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, card_id, period_end, due_date, total_cents, paid_cents, status
		FROM invoices WHERE card_id = ? AND period_end = ?`, cardID, end.ISO())
	return scanInvoice(row)
}

func (s *SQLiteStore) SaveInvoice(ctx context.Context, inv core.Invoice) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, card_id, period_end, due_date, total_cents, paid_cents, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			due_date = excluded.due_date,
			total_cents = excluded.total_cents,
			paid_cents = excluded.paid_cents,
			status = excluded.status`,
		inv.ID, inv.CardID, inv.PeriodEnd.ISO(), inv.DueDate.ISO(),
		inv.Total.Cents, inv.Paid.Cents, string(inv.Status))
	if err != nil {
		return fmt.Errorf("save invoice: %w", err)
	}
	return nil
}

// Subscriptions

func (s *SQLiteStore) CreateSubscription(ctx context.Context, sub core.Subscription) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, name, amount_cents, billing_day, card_id, active, last_charged)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Name, sub.Amount.Cents, sub.BillingDay, nullString(sub.CardID),
		boolToInt(sub.Active), nullDate(sub.LastCharged))
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSubscription(ctx context.Context, id string) (core.Subscription, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, amount_cents, billing_day, card_id, active, last_charged
		FROM subscriptions WHERE id = ?`, id)
	return scanSubscription(row)
}

func (s *SQLiteStore) UpdateSubscription(ctx context.Context, sub core.Subscription) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions SET name = ?, amount_cents = ?, billing_day = ?, card_id = ?, active = ?, last_charged = ?
		WHERE id = ?`,
		sub.Name, sub.Amount.Cents, sub.BillingDay, nullString(sub.CardID),
		boolToInt(sub.Active), nullDate(sub.LastCharged), sub.ID)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return requireRow(res, "subscription", sub.ID)
}

func (s *SQLiteStore) DeleteSubscription(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return requireRow(res, "subscription", id)
}

func (s *SQLiteStore) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, amount_cents, billing_day, card_id, active, last_charged
		FROM subscriptions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return collectSubscriptions(rows)
}

func (s *SQLiteStore) ListActiveCardSubscriptions(ctx context.Context, cardID string) ([]core.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, amount_cents, billing_day, card_id, active, last_charged
		FROM subscriptions WHERE card_id = ? AND active = 1 ORDER BY name`, cardID)
	if err != nil {
		return nil, fmt.Errorf("list card subscriptions: %w", err)
	}
	return collectSubscriptions(rows)
}

// Categories

func (s *SQLiteStore) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, kind) VALUES (?, ?, ?)`,
		c.ID, c.Name, string(c.Kind))
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCategory(ctx context.Context, id string) (core.Category, error) {
	var (
		c    core.Category
		kind string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, kind FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Kind = core.CategoryKind(kind)
	return c, nil
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res, "category", id)
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, kind FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c    core.Category
			kind string
		)
		if err := rows.Scan(&c.ID, &c.Name, &kind); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.CategoryKind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Budgets

func (s *SQLiteStore) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (id, category_id, year, month, limit_cents)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.CategoryID, b.Year, b.Month, b.Limit.Cents)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	var b core.Budget
	err := s.db.QueryRowContext(ctx, `
		SELECT id, category_id, year, month, limit_cents FROM budgets WHERE id = ?`, id).
		Scan(&b.ID, &b.CategoryID, &b.Year, &b.Month, &b.Limit.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *SQLiteStore) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE budgets SET category_id = ?, year = ?, month = ?, limit_cents = ? WHERE id = ?`,
		b.CategoryID, b.Year, b.Month, b.Limit.Cents, b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res, "budget", b.ID)
}

func (s *SQLiteStore) DeleteBudget(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res, "budget", id)
}

func (s *SQLiteStore) ListBudgets(ctx context.Context, year, month int) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, year, month, limit_cents
		FROM budgets WHERE year = ? AND month = ? ORDER BY category_id`, year, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.CategoryID, &b.Year, &b.Month, &b.Limit.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Scan helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (core.Card, error) {
	var (
		c               core.Card
		active, blocked int
	)
	err := row.Scan(&c.ID, &c.Name, &c.Limit.Cents, &c.ClosingDay, &c.DueDay, &active, &blocked)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Card{}, fmt.Errorf("card: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.Card{}, fmt.Errorf("scan card: %w", err)
	}
	c.Active = active != 0
	c.Blocked = blocked != 0
	return c, nil
}

func scanPurchase(row rowScanner) (core.Purchase, error) {
	var (
		p              core.Purchase
		cardID, planID sql.NullString
		date           string
	)
	err := row.Scan(&p.ID, &cardID, &p.Amount.Cents, &date, &p.Description, &p.Category,
		&planID, &p.Installment, &p.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Purchase{}, fmt.Errorf("purchase: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.Purchase{}, fmt.Errorf("scan purchase: %w", err)
	}
	p.CardID = cardID.String
	p.PlanID = planID.String
	if p.Date, err = core.ParseDate(date); err != nil {
		return core.Purchase{}, fmt.Errorf("purchase %s has invalid date %q", p.ID, date)
	}
	return p, nil
}

func collectPurchases(rows *sql.Rows) ([]core.Purchase, error) {
	defer rows.Close()
	var out []core.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanInvoice(row rowScanner) (core.Invoice, error) {
	var (
		inv             core.Invoice
		periodEnd, due  string
		status          string
	)
	err := row.Scan(&inv.ID, &inv.CardID, &periodEnd, &due, &inv.Total.Cents, &inv.Paid.Cents, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Invoice{}, fmt.Errorf("invoice: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.Invoice{}, fmt.Errorf("scan invoice: %w", err)
	}
	inv.Status = core.InvoiceStatus(status)
	if inv.PeriodEnd, err = core.ParseDate(periodEnd); err != nil {
		return core.Invoice{}, fmt.Errorf("invoice %s has invalid period end %q", inv.ID, periodEnd)
	}
	if inv.DueDate, err = core.ParseDate(due); err != nil {
		return core.Invoice{}, fmt.Errorf("invoice %s has invalid due date %q", inv.ID, due)
	}
	return inv, nil
}

func scanSubscription(row rowScanner) (core.Subscription, error) {
	var (
		sub                 core.Subscription
		cardID, lastCharged sql.NullString
		active              int
	)
	err := row.Scan(&sub.ID, &sub.Name, &sub.Amount.Cents, &sub.BillingDay, &cardID, &active, &lastCharged)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, fmt.Errorf("subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("scan subscription: %w", err)
	}
	sub.CardID = cardID.String
	sub.Active = active != 0
	if lastCharged.Valid && lastCharged.String != "" {
		if sub.LastCharged, err = core.ParseDate(lastCharged.String); err != nil {
			return core.Subscription{}, fmt.Errorf("subscription %s has invalid charge date %q", sub.ID, lastCharged.String)
		}
	}
	return sub, nil
}

func collectSubscriptions(rows *sql.Rows) ([]core.Subscription, error) {
	defer rows.Close()
	var out []core.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(d core.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.ISO(), Valid: true}
}
