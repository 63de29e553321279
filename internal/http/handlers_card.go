package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"fatura/internal/core"
	applog "fatura/internal/log"
)

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req CreateCardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(req.Limit)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	card := core.Card{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(req.Name),
		Limit:      core.Money{Cents: cents},
		ClosingDay: req.ClosingDay,
		DueDay:     req.DueDay,
		Active:     true,
	}
	if err := card.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := s.st.CreateCard(r.Context(), card); err != nil {
		writeError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Card created",
		applog.FieldCardID, card.ID,
		"closing_day", card.ClosingDay,
		"due_day", card.DueDay)
	writeJSON(w, http.StatusCreated, toCardResponse(card))
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.st.ListCards(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]CardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.st.GetCard(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(card))
}

func (s *Server) handleSetCardBlocked(w http.ResponseWriter, r *http.Request) {
	var req SetBlockedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	card, err := s.engine.SetCardBlocked(r.Context(), r.PathValue("id"), req.Blocked)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateCredit(card.ID)
	writeJSON(w, http.StatusOK, toCardResponse(card))
}

func (s *Server) handleSetCardActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	card, err := s.engine.SetCardActive(r.Context(), r.PathValue("id"), req.Active)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateCredit(card.ID)
	writeJSON(w, http.StatusOK, toCardResponse(card))
}

func (s *Server) handleGetCredit(w http.ResponseWriter, r *http.Request) {
	cardID := r.PathValue("id")

	if cached, ok := s.creditCache.Get(cardID); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	view, err := s.engine.GetAvailableCredit(r.Context(), cardID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := toCreditResponse(view)
	s.creditCache.Set(cardID, resp)
	writeJSON(w, http.StatusOK, resp)
}

// handleGetInvoice resolves the invoice for the billing period containing
// the ref date (today when absent), creating it lazily.
func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	ref := core.Today()
	if v := strings.TrimSpace(r.URL.Query().Get("ref")); v != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			writeBadRequest(w, "invalid ref date")
			return
		}
		ref = parsed
	}

	inv, err := s.engine.GetInvoice(r.Context(), r.PathValue("id"), ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (s *Server) handlePayInvoice(w http.ResponseWriter, r *http.Request) {
	var req PayInvoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, r, core.ErrInvalidPayment)
		return
	}

	inv, err := s.engine.PayInvoice(r.Context(), r.PathValue("id"), core.Money{Cents: cents})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateCredit(inv.CardID)
	s.logger.InfoContext(r.Context(), "Invoice payment applied",
		applog.FieldInvoiceID, inv.ID,
		applog.FieldCardID, inv.CardID,
		applog.FieldAmountCents, cents,
		applog.FieldStatus, string(inv.Status))
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}
