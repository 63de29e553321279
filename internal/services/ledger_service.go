// Package services orchestrates the billing engine, the record store, and
// the asynchronous ledger-export pipeline.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"fatura/internal/amqp"
	"fatura/internal/billing"
	"fatura/internal/core"
	"fatura/internal/store"
)

// ExportPublisher is the slice of the AMQP client the service needs.
type ExportPublisher interface {
	PublishPurchaseExport(ctx context.Context, id string, version int64) error
	PublishPurchaseDelete(ctx context.Context, msg *amqp.PurchaseDeleteMessage) error
}

// LedgerService runs purchases through the billing engine and mirrors them
// to the external ledger. Engine writes are authoritative; export messages
// are best-effort and never fail the request.
type LedgerService struct {
	engine    *billing.Engine
	st        store.Store
	publisher ExportPublisher
	closer    io.Closer
}

func NewLedgerService(engine *billing.Engine, st store.Store, publisher ExportPublisher) *LedgerService {
	svc := &LedgerService{
		engine:    engine,
		st:        st,
		publisher: publisher,
	}
	if c, ok := publisher.(io.Closer); ok {
		svc.closer = c
	}
	return svc
}

// CreatePurchase records a purchase through the engine and queues every
// resulting leg for export.
func (s *LedgerService) CreatePurchase(ctx context.Context, req billing.PurchaseRequest) (billing.PurchaseResult, error) {
	res, err := s.engine.CreatePurchase(ctx, req)
	if err != nil {
		return billing.PurchaseResult{}, err
	}

	for _, p := range resultPurchases(res) {
		s.publishExport(ctx, p.ID)
	}
	return res, nil
}

// DeletePurchase deletes a purchase (and its whole plan, if any) through
// the engine and queues ledger-row removals for every deleted leg.
func (s *LedgerService) DeletePurchase(ctx context.Context, id string) error {
	p, err := s.st.GetPurchase(ctx, id)
	if err != nil {
		return err
	}

	// Collect the legs before the engine deletes them; the delete
	// messages must carry the fields needed to find the exported rows.
	legs := []core.Purchase{p}
	if p.PlanID != "" {
		if planLegs, err := s.st.ListPlanPurchases(ctx, p.PlanID); err == nil {
			legs = planLegs
		}
	}

	if err := s.engine.DeletePurchase(ctx, id); err != nil {
		return err
	}

	for _, leg := range legs {
		s.publishDelete(ctx, leg)
	}
	return nil
}

func (s *LedgerService) publishExport(ctx context.Context, id string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Export publisher not available, skipping export message", "purchase_id", id)
		return
	}
	if err := s.publisher.PublishPurchaseExport(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"purchase_id", id, "error", err)
	}
}

func (s *LedgerService) publishDelete(ctx context.Context, p core.Purchase) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Export publisher not available, skipping delete message", "purchase_id", p.ID)
		return
	}
	msg := amqp.NewPurchaseDeleteMessage(p.ID, p.Date.ISO(), p.Description, p.Amount.Cents, p.Category)
	if err := s.publisher.PublishPurchaseDelete(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"purchase_id", p.ID, "error", err)
	}
}

func resultPurchases(res billing.PurchaseResult) []core.Purchase {
	if res.Plan != nil {
		return res.Legs
	}
	if res.Purchase != nil {
		return []core.Purchase{*res.Purchase}
	}
	return nil
}

// Close releases the publisher connection when it owns one.
func (s *LedgerService) Close() error {
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("close publisher: %w", err)
	}
	return nil
}
