// Package memory is an in-process ledger used by tests and by local runs
// without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fatura/internal/core"
	"fatura/internal/sheets"
)

type Ledger struct {
	mu   sync.Mutex
	rows []core.Purchase
}

var (
	_ sheets.LedgerWriter  = (*Ledger)(nil)
	_ sheets.LedgerDeleter = (*Ledger)(nil)
)

func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Append(_ context.Context, p core.Purchase) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, p)
	return fmt.Sprintf("row-%d", len(l.rows)), nil
}

func (l *Ledger) Delete(_ context.Context, p core.Purchase) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, row := range l.rows {
		if row.ID == p.ID || (row.Date.Equal(p.Date) && row.Description == p.Description && row.Amount.Cents == p.Amount.Cents) {
			l.rows = append(l.rows[:i], l.rows[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

// Rows returns a copy of the exported rows in append order.
func (l *Ledger) Rows() []core.Purchase {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Purchase, len(l.rows))
	copy(out, l.rows)
	return out
}
