package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"fatura/internal/core"
)

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req CreateSubscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	sub := core.Subscription{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(req.Name),
		Amount:     core.Money{Cents: cents},
		BillingDay: req.BillingDay,
		CardID:     strings.TrimSpace(req.CardID),
		Active:     true,
	}
	if err := sub.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	if sub.CardID != "" {
		// Reject bindings to cards that do not exist.
		if _, err := s.st.GetCard(r.Context(), sub.CardID); err != nil {
			writeError(w, r, err)
			return
		}
	}

	if err := s.st.CreateSubscription(r.Context(), sub); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateCredit(sub.CardID)
	writeJSON(w, http.StatusCreated, toSubscriptionResponse(sub))
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.st.ListSubscriptions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toSubscriptionResponse(sub))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.st.GetSubscription(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req UpdateSubscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	sub, err := s.st.GetSubscription(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	previousCard := sub.CardID

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	sub.Name = strings.TrimSpace(req.Name)
	sub.Amount = core.Money{Cents: cents}
	sub.BillingDay = req.BillingDay
	sub.CardID = strings.TrimSpace(req.CardID)
	sub.Active = req.Active
	if err := sub.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	if sub.CardID != "" {
		if _, err := s.st.GetCard(r.Context(), sub.CardID); err != nil {
			writeError(w, r, err)
			return
		}
	}

	if err := s.st.UpdateSubscription(r.Context(), sub); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateCredit(previousCard)
	s.invalidateCredit(sub.CardID)
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.st.GetSubscription(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.st.DeleteSubscription(r.Context(), sub.ID); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateCredit(sub.CardID)
	w.WriteHeader(http.StatusNoContent)
}
