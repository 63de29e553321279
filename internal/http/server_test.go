package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fatura/internal/billing"
	"fatura/internal/core"
	"fatura/internal/services"
	"fatura/internal/store/memory"
)

func newTestServer(t *testing.T, now core.Date) (*Server, *memory.Store) {
	t.Helper()
	st := memory.New()
	engine := billing.NewEngineAt(st, func() core.Date { return now })
	ledger := services.NewLedgerService(engine, st, nil)
	s := NewServer("127.0.0.1:0", ledger, engine, st)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s, st
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "203.0.113.9:12345"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func createCard(t *testing.T, s *Server, limit string, closing, due int) CardResponse {
	t.Helper()
	rec := doRequest(t, s, http.MethodPost, "/api/cards", CreateCardRequest{
		Name:       "visa",
		Limit:      limit,
		ClosingDay: closing,
		DueDay:     due,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create card: status %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeBody[CardResponse](t, rec)
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t, core.NewDate(2025, 3, 20))

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t, core.NewDate(2025, 3, 20))

	rec := doRequest(t, s, http.MethodGet, "/api/cards", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestCreateCardValidation(t *testing.T) {
	s, _ := newTestServer(t, core.NewDate(2025, 3, 20))

	rec := doRequest(t, s, http.MethodPost, "/api/cards", CreateCardRequest{
		Name: "broken", Limit: "1000.00", ClosingDay: 5, DueDay: 5,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("same closing and due day: status %d, want 422", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/cards", bytes.NewBufferString("{not json"))
	req.RemoteAddr = "203.0.113.9:12345"
	rec = httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status %d, want 400", rec.Code)
	}
}

func TestPurchaseLifecycle(t *testing.T) {
	now := core.NewDate(2025, 3, 20)
	s, _ := newTestServer(t, now)
	card := createCard(t, s, "1000.00", 5, 15)

	rec := doRequest(t, s, http.MethodPost, "/api/purchases", CreatePurchaseRequest{
		CardID:      card.ID,
		Amount:      "250.00",
		Date:        "2025-03-20",
		Description: "groceries",
		Category:    "food",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create purchase: status %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[CreatePurchaseResponse](t, rec)
	if created.Purchase == nil {
		t.Fatal("expected a single purchase in the response")
	}
	if created.Plan != nil {
		t.Error("one-off purchase must not produce a plan")
	}

	rec = doRequest(t, s, http.MethodGet, "/api/cards/"+card.ID+"/credit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("credit: status %d", rec.Code)
	}
	credit := decodeBody[CreditResponse](t, rec)
	if credit.Available != "750.00" {
		t.Errorf("available = %s, want 750.00", credit.Available)
	}
	if credit.InvoiceStatus != "open" {
		t.Errorf("invoice status = %s, want open", credit.InvoiceStatus)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/cards/"+card.ID+"/invoice?ref=2025-03-20", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("invoice: status %d", rec.Code)
	}
	invoice := decodeBody[InvoiceResponse](t, rec)
	if invoice.Total != "250.00" {
		t.Errorf("invoice total = %s, want 250.00", invoice.Total)
	}
	if invoice.PeriodEnd != "2025-04-04" {
		t.Errorf("period end = %s, want 2025-04-04", invoice.PeriodEnd)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/invoices/"+invoice.ID+"/pay", PayInvoiceRequest{Amount: "250.00"})
	if rec.Code != http.StatusOK {
		t.Fatalf("pay: status %d, body %s", rec.Code, rec.Body.String())
	}
	paid := decodeBody[InvoiceResponse](t, rec)
	if paid.Status != "paid" {
		t.Errorf("status after full payment = %s, want paid", paid.Status)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/cards/"+card.ID+"/credit", nil)
	credit = decodeBody[CreditResponse](t, rec)
	if credit.Available != "1000.00" {
		t.Errorf("available after payment = %s, want 1000.00", credit.Available)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/purchases/"+created.Purchase.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec = doRequest(t, s, http.MethodDelete, "/api/purchases/"+created.Purchase.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status %d, want 404", rec.Code)
	}
}

func TestInsufficientCreditResponse(t *testing.T) {
	now := core.NewDate(2025, 3, 20)
	s, _ := newTestServer(t, now)
	card := createCard(t, s, "100.00", 5, 15)

	rec := doRequest(t, s, http.MethodPost, "/api/purchases", CreatePurchaseRequest{
		CardID:      card.ID,
		Amount:      "60.00",
		Date:        "2025-03-20",
		Description: "first",
		Category:    "misc",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first purchase: status %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/purchases", CreatePurchaseRequest{
		CardID:      card.ID,
		Amount:      "60.00",
		Date:        "2025-03-21",
		Description: "second",
		Category:    "misc",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("over-limit purchase: status %d, want 422", rec.Code)
	}
	body := decodeBody[errorResponse](t, rec)
	if body.Code != "insufficient_credit" {
		t.Errorf("error code = %s, want insufficient_credit", body.Code)
	}
	if body.Available != "40.00" {
		t.Errorf("available in error body = %s, want 40.00", body.Available)
	}
}

func TestInstallmentPlanOverAPI(t *testing.T) {
	now := core.NewDate(2025, 3, 20)
	s, _ := newTestServer(t, now)
	card := createCard(t, s, "1000.00", 5, 15)

	rec := doRequest(t, s, http.MethodPost, "/api/purchases", CreatePurchaseRequest{
		CardID:       card.ID,
		Amount:       "300.00",
		Date:         "2025-03-20",
		Description:  "laptop",
		Category:     "tech",
		Installments: 3,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create plan: status %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[CreatePurchaseResponse](t, rec)
	if created.Plan == nil {
		t.Fatal("expected a plan in the response")
	}
	if len(created.Legs) != 3 {
		t.Fatalf("legs = %d, want 3", len(created.Legs))
	}
	for i, leg := range created.Legs {
		if leg.Amount != "100.00" {
			t.Errorf("leg %d amount = %s, want 100.00", i, leg.Amount)
		}
	}

	// Only the leg in the open period weighs on current credit.
	rec = doRequest(t, s, http.MethodGet, "/api/cards/"+card.ID+"/credit", nil)
	credit := decodeBody[CreditResponse](t, rec)
	if credit.Available != "900.00" {
		t.Errorf("available with plan = %s, want 900.00", credit.Available)
	}

	// Deleting one leg deletes the whole plan.
	rec = doRequest(t, s, http.MethodDelete, "/api/purchases/"+created.Legs[1].ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete leg: status %d", rec.Code)
	}
	for _, leg := range created.Legs {
		rec = doRequest(t, s, http.MethodDelete, "/api/purchases/"+leg.ID, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("leg %s still present after plan deletion", leg.ID)
		}
	}
	rec = doRequest(t, s, http.MethodGet, "/api/cards/"+card.ID+"/credit", nil)
	credit = decodeBody[CreditResponse](t, rec)
	if credit.Available != "1000.00" {
		t.Errorf("available after plan deletion = %s, want 1000.00", credit.Available)
	}
}

func TestListPurchasesRange(t *testing.T) {
	now := core.NewDate(2025, 3, 20)
	s, _ := newTestServer(t, now)

	rec := doRequest(t, s, http.MethodPost, "/api/purchases", CreatePurchaseRequest{
		Amount:      "10.00",
		Date:        "2025-03-10",
		Description: "coffee",
		Category:    "food",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("cardless purchase: status %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/purchases?from=2025-03-01&to=2025-03-31", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	list := decodeBody[[]PurchaseResponse](t, rec)
	if len(list) != 1 {
		t.Errorf("purchases = %d, want 1", len(list))
	}

	rec = doRequest(t, s, http.MethodGet, "/api/purchases?to=2025-03-31", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing from: status %d, want 400", rec.Code)
	}
	rec = doRequest(t, s, http.MethodGet, "/api/purchases?from=2025-03-31&to=2025-03-01", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("inverted range: status %d, want 400", rec.Code)
	}
}

func TestUnknownCardIs404(t *testing.T) {
	s, _ := newTestServer(t, core.NewDate(2025, 3, 20))

	rec := doRequest(t, s, http.MethodGet, "/api/cards/nope/credit", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("credit of unknown card: status %d, want 404", rec.Code)
	}
	body := decodeBody[errorResponse](t, rec)
	if body.Code != "not_found" {
		t.Errorf("error code = %s, want not_found", body.Code)
	}
}
