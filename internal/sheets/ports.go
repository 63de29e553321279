package sheets

import (
	"context"

	"fatura/internal/core"
)

// Ports for the outbound ledger-export adapters.
type (
	LedgerWriter interface {
		Append(ctx context.Context, p core.Purchase) (rowRef string, err error)
	}

	// LedgerDeleter removes a previously exported row. The purchase no
	// longer exists in the store when this runs, so the adapter locates
	// the row by the purchase's exported fields.
	LedgerDeleter interface {
		Delete(ctx context.Context, p core.Purchase) error
	}
)
