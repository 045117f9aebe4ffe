package catalog

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

// Handler exposes the product catalog browse and admin CRUD endpoints.
type Handler struct {
	Svc            *Service
	Validate       *validator.Validate
	DefaultPerPage int
}

// List returns a catalog page.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, h.DefaultPerPage)
	products, err := h.Svc.List(r.Context(), page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": products})
}

// Get returns one product.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}
	p, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// Create adds a product to the catalog.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	p, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": p})
}

// Update mutates a product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	p, err := h.Svc.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// Delete removes a product.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (upstream.ProductInput, bool) {
	var in upstream.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return in, false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", validationDetails(err))
			return in, false
		}
	}
	return in, true
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return map[string]any{"fields": fields}
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	if errors.Is(err, upstream.ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "produk tidak ditemukan", nil)
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
