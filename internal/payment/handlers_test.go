package payment

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-kasir/internal/upstream"
)

func newTestHandler(t *testing.T, pos http.Handler) (*Handler, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(pos)
	t.Cleanup(srv.Close)
	h := &Handler{
		Svc: &Service{
			Upstream: upstream.NewClient(srv.URL, 2*time.Second),
			Now:      func() time.Time { return now },
		},
		DefaultPerPage: 10,
	}
	return h, srv
}

func paymentRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/payments", h.List)
	r.Get("/payments/{id}", h.Get)
	r.Post("/payments/{id}/validate", h.Validate)
	r.Put("/payments/{id}", h.Update)
	return r
}

func posBackend(t *testing.T, p upstream.Payment, onUpdate func(upstream.UpdatePaymentRequest)) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/payments/"+p.ID, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": p})
	})
	mux.HandleFunc("PUT /api/payments/"+p.ID, func(w http.ResponseWriter, r *http.Request) {
		var req upstream.UpdatePaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode update request: %v", err)
		}
		if onUpdate != nil {
			onUpdate(req)
		}
		updated := p
		updated.Amount = req.Amount
		updated.Status = req.Status
		updated.Method = req.Method
		updated.DueDate = req.DueDate
		_ = json.NewEncoder(w).Encode(map[string]any{"data": updated})
	})
	return mux
}

func TestValidateEndpointFlagsInvalidAmount(t *testing.T) {
	p := cicilanPayment(10000, 6000, 6000)
	h, _ := newTestHandler(t, posBackend(t, p, nil))
	router := paymentRouter(h)

	body, _ := json.Marshal(map[string]any{"amount": 10000, "status": upstream.StatusInstallment})
	req := httptest.NewRequest(http.MethodPost, "/payments/pay-1/validate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data Preview `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if env.Data.Result.Valid {
		t.Fatalf("amount below paid total should be invalid: %+v", env.Data.Result)
	}
	if env.Data.Summary == nil || env.Data.Summary.TotalPaid != 12000 {
		t.Fatalf("expected summary with totalPaid 12000, got %+v", env.Data.Summary)
	}
}

func TestValidateEndpointAutoAdjustsForSettlement(t *testing.T) {
	p := cicilanPayment(10000, 6000, 6000)
	h, _ := newTestHandler(t, posBackend(t, p, nil))
	router := paymentRouter(h)

	body, _ := json.Marshal(map[string]any{"amount": 10000, "status": upstream.StatusSettled})
	req := httptest.NewRequest(http.MethodPost, "/payments/pay-1/validate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env struct {
		Data Preview `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if env.Data.AdjustedAmount != 12000 {
		t.Fatalf("expected amount raised to 12000, got %d", env.Data.AdjustedAmount)
	}
	if !env.Data.Result.Valid {
		t.Fatalf("adjusted amount should validate, got %+v", env.Data.Result)
	}
}

func TestUpdateRequiresConfirmationForSettlement(t *testing.T) {
	p := cicilanPayment(10000, 6000)
	h, _ := newTestHandler(t, posBackend(t, p, func(upstream.UpdatePaymentRequest) {
		t.Error("update must not reach the backend without confirmation")
	}))
	router := paymentRouter(h)

	body, _ := json.Marshal(map[string]any{"amount": 10000, "status": upstream.StatusSettled})
	req := httptest.NewRequest(http.MethodPut, "/payments/pay-1", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateCommitsAdjustedAmount(t *testing.T) {
	p := cicilanPayment(10000, 6000, 6000)
	var got *upstream.UpdatePaymentRequest
	h, _ := newTestHandler(t, posBackend(t, p, func(req upstream.UpdatePaymentRequest) {
		got = &req
	}))
	router := paymentRouter(h)

	body, _ := json.Marshal(map[string]any{"amount": 10000, "status": upstream.StatusSettled, "confirmed": true})
	req := httptest.NewRequest(http.MethodPut, "/payments/pay-1", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got == nil {
		t.Fatal("backend never received the update")
	}
	if got.Amount != 12000 {
		t.Fatalf("expected committed amount 12000, got %d", got.Amount)
	}
	if got.Method != p.Method || got.TransactionID != p.TransactionID {
		t.Fatalf("method and transaction id should carry over, got %+v", got)
	}
}

func TestUpdateBlocksInvalidAmount(t *testing.T) {
	p := cicilanPayment(10000, 6000, 6000)
	h, _ := newTestHandler(t, posBackend(t, p, func(upstream.UpdatePaymentRequest) {
		t.Error("invalid update must not reach the backend")
	}))
	router := paymentRouter(h)

	// staying CICILAN skips auto-adjustment, so 10000 < 12000 paid fails
	body, _ := json.Marshal(map[string]any{"amount": 10000, "status": upstream.StatusInstallment})
	req := httptest.NewRequest(http.MethodPut, "/payments/pay-1", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Details Result `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if env.Error.Code != "VALIDATION_FAILED" || len(env.Error.Details.Errors) == 0 {
		t.Fatalf("expected validation details, got %+v", env.Error)
	}
}

func TestGetMapsUpstreamNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	h, _ := newTestHandler(t, mux)
	router := paymentRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/payments/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	p := cicilanPayment(10000)
	h, _ := newTestHandler(t, posBackend(t, p, nil))
	router := paymentRouter(h)

	body, _ := json.Marshal(map[string]any{"amount": 10000, "status": "BATAL"})
	req := httptest.NewRequest(http.MethodPut, "/payments/pay-1", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}
