package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"fatura/internal/core"
	applog "fatura/internal/log"
)

// errorResponse is the uniform error body. Code is a stable machine-readable
// identifier; Available is set only for insufficient-credit rejections.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Available string `json:"available,omitempty"`
}

const maxBodyBytes = 1 << 20

// decodeJSON reads and decodes a request body, rejecting unknown fields and
// oversized payloads.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// A second document in the body is a malformed request.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Code: "bad_request"})
}

// writeError maps domain errors onto transport responses. Validation and
// business-rule rejections are 422, missing records 404, anything
// unrecognized a logged 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var insufficient *core.InsufficientCreditError
	switch {
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:     insufficient.Error(),
			Code:      "insufficient_credit",
			Available: core.FormatCents(insufficient.Available.Cents),
		})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, core.ErrCardBlocked):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "card_blocked"})
	case errors.Is(err, core.ErrCardInactive):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "card_inactive"})
	case errors.Is(err, core.ErrOverpayment):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "overpayment"})
	case errors.Is(err, core.ErrInvalidPayment):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "invalid_payment"})
	case errors.Is(err, core.ErrInvalidCardConfig),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyCategory):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "validation_failed"})
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldError, err,
			"method", r.Method,
			"url", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "validation_failed"})
}
