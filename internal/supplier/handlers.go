package supplier

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/upstream"
)

// Handler proxies supplier CRUD to the POS backend.
type Handler struct {
	Upstream       *upstream.Client
	Validate       *validator.Validate
	DefaultPerPage int
}

// List returns a supplier page.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Upstream == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "supplier handler not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, h.DefaultPerPage)
	suppliers, err := h.Upstream.ListSuppliers(r.Context(), page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": suppliers})
}

// Get returns one supplier.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Upstream == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "supplier handler not configured", nil)
		return
	}
	s, err := h.Upstream.GetSupplier(r.Context(), strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": s})
}

// Create adds a supplier.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Upstream == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "supplier handler not configured", nil)
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	s, err := h.Upstream.CreateSupplier(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": s})
}

// Update mutates a supplier.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Upstream == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "supplier handler not configured", nil)
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	s, err := h.Upstream.UpdateSupplier(r.Context(), strings.TrimSpace(chi.URLParam(r, "id")), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": s})
}

// Delete removes a supplier.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Upstream == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "supplier handler not configured", nil)
		return
	}
	if err := h.Upstream.DeleteSupplier(r.Context(), strings.TrimSpace(chi.URLParam(r, "id"))); err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (upstream.SupplierInput, bool) {
	var in upstream.SupplierInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return in, false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "nama supplier wajib diisi", nil)
			return in, false
		}
	}
	return in, true
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, upstream.ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "supplier tidak ditemukan", nil)
		return
	}
	if errors.Is(err, upstream.ErrUnavailable) {
		common.JSONError(w, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "server POS tidak dapat dihubungi, coba lagi", nil)
		return
	}
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		common.JSONError(w, apiErr.StatusCode, apiErr.Code, apiErr.Message, nil)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "terjadi kesalahan internal", nil)
}
