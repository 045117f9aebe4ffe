package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/upstream"
)

type fakePOS struct {
	products map[string]upstream.Product
	created  []upstream.CreateTransactionRequest
}

func (f *fakePOS) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		p, ok := f.products[r.PathValue("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": p})
	})
	mux.HandleFunc("GET /api/customers/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "c1" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": upstream.Customer{ID: "c1", Name: "Budi"}})
	})
	mux.HandleFunc("POST /api/transactions", func(w http.ResponseWriter, r *http.Request) {
		var req upstream.CreateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode create request: %v", err)
		}
		f.created = append(f.created, req)
		trx := upstream.Transaction{
			ID:           "trx-1",
			CustomerID:   req.CustomerID,
			CustomerName: req.CustomerName,
			Notes:        req.Notes,
			Details:      req.Details,
			CreatedAt:    time.Now(),
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": trx})
	})
	return mux
}

func newTestService(t *testing.T, pos *fakePOS, ttl time.Duration) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	srv := httptest.NewServer(pos.handler(t))
	t.Cleanup(srv.Close)

	return &Service{
		Upstream: upstream.NewClient(srv.URL, 2*time.Second),
		Drafts:   NewStore(client, ttl),
	}, mr
}

func TestDraftLifecycle(t *testing.T) {
	ctx := context.Background()
	pos := &fakePOS{products: map[string]upstream.Product{
		"p1": {ID: "p1", Name: "Kopi Gayo", Price: 15000, Stock: 10},
		"p2": {ID: "p2", Name: "Gula Aren", Price: 8000, Stock: 4},
	}}
	svc, _ := newTestService(t, pos, time.Hour)

	d, err := svc.StartDraft(ctx)
	if err != nil {
		t.Fatalf("start draft: %v", err)
	}
	if d.Step != StepCustomer || len(d.Cart.Lines) != 0 {
		t.Fatalf("fresh draft should be empty at customer step, got %+v", d)
	}

	d, err = svc.SetCustomer(ctx, d.ID, "c1", "")
	if err != nil {
		t.Fatalf("set customer: %v", err)
	}
	if d.CustomerName != "Budi" || d.Step != StepProducts {
		t.Fatalf("customer should be resolved and step advanced, got %+v", d)
	}

	if _, err = svc.AddItem(ctx, d.ID, "p1", 2); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err = svc.AddItem(ctx, d.ID, "p1", 1); err != nil {
		t.Fatalf("add item again: %v", err)
	}
	d, err = svc.AddItem(ctx, d.ID, "p2", 1)
	if err != nil {
		t.Fatalf("add second product: %v", err)
	}
	if len(d.Cart.Lines) != 2 || d.Cart.Lines[0].Quantity != 3 {
		t.Fatalf("expected merged lines, got %+v", d.Cart.Lines)
	}

	rv, err := svc.ReviewDraft(ctx, d.ID)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if !rv.CanSubmit || rv.Total != 3*15000+8000 || rv.ItemCount != 4 {
		t.Fatalf("unexpected review: %+v", rv)
	}
	if rv.Draft.Step != StepReview {
		t.Fatalf("review should advance step, got %s", rv.Draft.Step)
	}

	trx, err := svc.Submit(ctx, d.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if trx.ID != "trx-1" {
		t.Fatalf("unexpected transaction: %+v", trx)
	}
	if len(pos.created) != 1 {
		t.Fatalf("expected one upstream create, got %d", len(pos.created))
	}
	req := pos.created[0]
	if req.CustomerID != "c1" || req.CustomerName != "Budi" {
		t.Fatalf("unexpected customer on request: %+v", req)
	}
	if len(req.Details) != 2 || req.Details[0].ProductID != "p1" || req.Details[0].Quantity != 3 {
		t.Fatalf("unexpected details: %+v", req.Details)
	}

	if _, err := svc.GetDraft(ctx, d.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("draft should be deleted after submit, got %v", err)
	}
}

func TestSubmitBlockedOnStaleStock(t *testing.T) {
	ctx := context.Background()
	pos := &fakePOS{products: map[string]upstream.Product{
		"p1": {ID: "p1", Name: "Kopi Gayo", Price: 15000, Stock: 10},
	}}
	svc, _ := newTestService(t, pos, time.Hour)

	d, err := svc.StartDraft(ctx)
	if err != nil {
		t.Fatalf("start draft: %v", err)
	}
	if _, err = svc.SetCustomer(ctx, d.ID, "", "Pembeli Umum"); err != nil {
		t.Fatalf("set customer: %v", err)
	}
	if _, err = svc.AddItem(ctx, d.ID, "p1", 5); err != nil {
		t.Fatalf("add item: %v", err)
	}

	// stock drops upstream between add and submit
	pos.products["p1"] = upstream.Product{ID: "p1", Name: "Kopi Gayo", Price: 15000, Stock: 2}

	_, err = svc.Submit(ctx, d.ID)
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "DRAFT_INVALID" {
		t.Fatalf("expected DRAFT_INVALID, got %v", err)
	}
	if len(pos.created) != 0 {
		t.Fatal("invalid draft must not reach the backend")
	}
}

func TestSubmitRequiresCustomer(t *testing.T) {
	ctx := context.Background()
	pos := &fakePOS{products: map[string]upstream.Product{
		"p1": {ID: "p1", Name: "Kopi", Price: 1000, Stock: 10},
	}}
	svc, _ := newTestService(t, pos, time.Hour)

	d, _ := svc.StartDraft(ctx)
	if _, err := svc.AddItem(ctx, d.ID, "p1", 1); err != nil {
		t.Fatalf("add item: %v", err)
	}
	_, err := svc.Submit(ctx, d.ID)
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "DRAFT_INVALID" {
		t.Fatalf("expected DRAFT_INVALID without customer, got %v", err)
	}
}

func TestDraftExpiresWithTTL(t *testing.T) {
	ctx := context.Background()
	pos := &fakePOS{}
	svc, mr := newTestService(t, pos, time.Minute)

	d, err := svc.StartDraft(ctx)
	if err != nil {
		t.Fatalf("start draft: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := svc.GetDraft(ctx, d.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected expired draft, got %v", err)
	}
}

func TestUpdateItemZeroRemovesLine(t *testing.T) {
	ctx := context.Background()
	pos := &fakePOS{products: map[string]upstream.Product{
		"p1": {ID: "p1", Name: "Kopi", Price: 1000, Stock: 10},
	}}
	svc, _ := newTestService(t, pos, time.Hour)

	d, _ := svc.StartDraft(ctx)
	if _, err := svc.AddItem(ctx, d.ID, "p1", 2); err != nil {
		t.Fatalf("add item: %v", err)
	}
	d, err := svc.UpdateItem(ctx, d.ID, "p1", 0)
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if len(d.Cart.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", d.Cart.Lines)
	}
}

func TestSetCustomerWalkInRequiresName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &fakePOS{}, time.Hour)

	d, _ := svc.StartDraft(ctx)
	_, err := svc.SetCustomer(ctx, d.ID, "", "  ")
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected bad request for blank name, got %v", err)
	}
}
