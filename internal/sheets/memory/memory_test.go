package memory

import (
	"context"
	"errors"
	"testing"

	"fatura/internal/core"
)

func TestLedgerAppendAndDelete(t *testing.T) {
	ctx := context.Background()
	l := New()

	p := core.Purchase{
		ID:          "p1",
		Amount:      core.Money{Cents: 1500},
		Date:        core.NewDate(2025, 3, 10),
		Description: "groceries",
		Category:    "food",
	}
	ref, err := l.Append(ctx, p)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref == "" {
		t.Error("empty row ref")
	}
	if got := len(l.Rows()); got != 1 {
		t.Fatalf("rows = %d, want 1", got)
	}

	if err := l.Delete(ctx, p); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := len(l.Rows()); got != 0 {
		t.Fatalf("rows after delete = %d, want 0", got)
	}
	if err := l.Delete(ctx, p); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestLedgerDeleteByFields(t *testing.T) {
	ctx := context.Background()
	l := New()

	p := core.Purchase{
		ID:          "p1",
		Amount:      core.Money{Cents: 1500},
		Date:        core.NewDate(2025, 3, 10),
		Description: "groceries",
		Category:    "food",
	}
	if _, err := l.Append(ctx, p); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// The store record is gone by delete time; only exported fields remain.
	ghost := core.Purchase{
		Date:        p.Date,
		Description: p.Description,
		Amount:      p.Amount,
	}
	if err := l.Delete(ctx, ghost); err != nil {
		t.Fatalf("Delete by fields: %v", err)
	}
	if got := len(l.Rows()); got != 0 {
		t.Fatalf("rows = %d, want 0", got)
	}
}

func TestLedgerRejectsInvalid(t *testing.T) {
	l := New()
	_, err := l.Append(context.Background(), core.Purchase{ID: "bad"})
	if err == nil {
		t.Error("invalid purchase accepted")
	}
}
