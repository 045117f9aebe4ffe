package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-kasir/internal/upstream"
)

type fakeCatalog struct {
	product upstream.Product
	lists   atomic.Int64
	gets    atomic.Int64
}

func (f *fakeCatalog) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, r *http.Request) {
		f.lists.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []upstream.Product{f.product}})
	})
	mux.HandleFunc("GET /api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.gets.Add(1)
		if r.PathValue("id") != f.product.ID {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": f.product})
	})
	mux.HandleFunc("PUT /api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		var in upstream.ProductInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.product.Name = in.Name
		f.product.Price = in.Price
		f.product.Stock = in.Stock
		f.product.Category = in.Category
		_ = json.NewEncoder(w).Encode(map[string]any{"data": f.product})
	})
	return mux
}

func newTestHandler(t *testing.T, fake *fakeCatalog) *Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	return &Handler{
		Svc: &Service{
			Upstream:     upstream.NewClient(srv.URL, 2*time.Second),
			Cache:        NewCache(client, time.Minute),
			DefaultLimit: 20,
		},
		Validate:       validator.New(),
		DefaultPerPage: 20,
	}
}

func catalogRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/products", h.List)
	r.Get("/products/{id}", h.Get)
	r.Post("/products", h.Create)
	r.Put("/products/{id}", h.Update)
	r.Delete("/products/{id}", h.Delete)
	return r
}

func TestListServesSecondHitFromCache(t *testing.T) {
	fake := &fakeCatalog{product: upstream.Product{ID: "p1", Name: "Kopi", Category: "minuman", Price: 15000, Stock: 5}}
	h := newTestHandler(t, fake)
	router := catalogRouter(h)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	}
	if got := fake.lists.Load(); got != 1 {
		t.Fatalf("expected one upstream list call, got %d", got)
	}
}

func TestListSkipsCacheForExplicitPages(t *testing.T) {
	fake := &fakeCatalog{product: upstream.Product{ID: "p1", Name: "Kopi", Category: "minuman", Price: 15000, Stock: 5}}
	h := newTestHandler(t, fake)
	router := catalogRouter(h)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?page=2&limit=5", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
	if got := fake.lists.Load(); got != 2 {
		t.Fatalf("filtered pages must bypass the cache, got %d upstream calls", got)
	}
}

func TestUpdateInvalidatesDetailCache(t *testing.T) {
	fake := &fakeCatalog{product: upstream.Product{ID: "p1", Name: "Kopi", Category: "minuman", Price: 15000, Stock: 5}}
	h := newTestHandler(t, fake)
	router := catalogRouter(h)
	ctx := context.Background()

	// warm the detail cache
	if _, err := h.Svc.Get(ctx, "p1"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	body, _ := json.Marshal(upstream.ProductInput{Name: "Kopi Gayo", Category: "minuman", Price: 18000, Stock: 5})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/products/p1", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	p, err := h.Svc.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if p.Name != "Kopi Gayo" || p.Price != 18000 {
		t.Fatalf("stale product after invalidation: %+v", p)
	}
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	fake := &fakeCatalog{}
	h := newTestHandler(t, fake)
	router := catalogRouter(h)

	body, _ := json.Marshal(map[string]any{"price": -5})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetMapsNotFound(t *testing.T) {
	fake := &fakeCatalog{product: upstream.Product{ID: "p1", Name: "Kopi"}}
	h := newTestHandler(t, fake)
	router := catalogRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
