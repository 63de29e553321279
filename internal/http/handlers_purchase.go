package http

import (
	"net/http"
	"strings"

	"fatura/internal/billing"
	"fatura/internal/core"
	applog "fatura/internal/log"
)

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeValidationError(w, err)
		return
	}
	date, err := core.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		writeValidationError(w, err)
		return
	}

	res, err := s.ledger.CreatePurchase(r.Context(), billing.PurchaseRequest{
		CardID:       strings.TrimSpace(req.CardID),
		Amount:       core.Money{Cents: cents},
		Date:         date,
		Description:  strings.TrimSpace(req.Description),
		Category:     strings.TrimSpace(req.Category),
		Installments: req.Installments,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateCredit(req.CardID)
	for _, p := range purchasesOf(res) {
		s.invalidateSummary(p.Date.Year(), p.Date.Month())
	}

	writeJSON(w, http.StatusCreated, toCreatePurchaseResponse(res))
}

func (s *Server) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Look the purchase up first: once the engine has deleted it (and its
	// plan siblings) the card and dates needed for cache invalidation are
	// gone.
	p, err := s.st.GetPurchase(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	affected := []core.Purchase{p}
	if p.PlanID != "" {
		if legs, err := s.st.ListPlanPurchases(r.Context(), p.PlanID); err == nil {
			affected = legs
		}
	}

	if err := s.ledger.DeletePurchase(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateCredit(p.CardID)
	for _, leg := range affected {
		s.invalidateSummary(leg.Date.Year(), leg.Date.Month())
	}

	s.logger.InfoContext(r.Context(), "Purchase deleted",
		applog.FieldPurchaseID, id,
		applog.FieldCardID, p.CardID,
		applog.FieldPlanID, p.PlanID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	from, err := core.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeBadRequest(w, "invalid or missing from date")
		return
	}
	to, err := core.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeBadRequest(w, "invalid or missing to date")
		return
	}
	if to.Before(from) {
		writeBadRequest(w, "to date precedes from date")
		return
	}

	purchases, err := s.st.ListPurchases(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]PurchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, toPurchaseResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func purchasesOf(res billing.PurchaseResult) []core.Purchase {
	if res.Purchase != nil {
		return []core.Purchase{*res.Purchase}
	}
	return res.Legs
}
