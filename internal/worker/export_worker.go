// Package worker moves purchases from the record store into the external
// ledger, driven by AMQP messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fatura/internal/amqp"
	"fatura/internal/core"
	"fatura/internal/sheets"
	"fatura/internal/store"
)

// ExportWorker handles ledger-export and ledger-delete messages.
type ExportWorker struct {
	st      store.Store
	writer  sheets.LedgerWriter
	deleter sheets.LedgerDeleter
}

func NewExportWorker(st store.Store, writer sheets.LedgerWriter, deleter sheets.LedgerDeleter) *ExportWorker {
	return &ExportWorker{
		st:      st,
		writer:  writer,
		deleter: deleter,
	}
}

// HandleExportMessage fetches the purchase by id and appends it to the
// ledger. A purchase deleted between publish and consume is not an error;
// the matching delete message is already behind it in the queue.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.PurchaseExportMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		"id", msg.ID,
		"version", msg.Version)

	p, err := w.st.GetPurchase(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Purchase gone before export, skipping", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("get purchase from store: %w", err)
	}

	ref, err := w.writer.Append(ctx, p)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	slog.InfoContext(ctx, "Exported purchase to ledger",
		"id", msg.ID,
		"ledger_ref", ref)
	return nil
}

// HandleDeleteMessage removes a purchase's row from the ledger. The store
// record is already gone, so the row is located by the exported fields
// carried in the message.
func (w *ExportWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.PurchaseDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)

	if w.deleter == nil {
		slog.WarnContext(ctx, "No ledger deleter configured, skipping", "id", msg.ID)
		return nil
	}

	date, err := core.ParseDate(msg.Date)
	if err != nil {
		// Malformed dates cannot ever succeed; drop instead of requeueing.
		slog.ErrorContext(ctx, "Delete message carries an invalid date, dropping",
			"id", msg.ID,
			"date", msg.Date)
		return nil
	}

	ghost := core.Purchase{
		ID:          msg.ID,
		Date:        date,
		Description: msg.Description,
		Amount:      core.Money{Cents: msg.AmountCents},
		Category:    msg.Category,
	}
	if err := w.deleter.Delete(ctx, ghost); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Ledger row already gone", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("delete ledger row: %w", err)
	}

	slog.InfoContext(ctx, "Deleted purchase from ledger", "id", msg.ID)
	return nil
}
