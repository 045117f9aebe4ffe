package transaction

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/upstream"
)

// Handler exposes the draft wizard and the transaction history proxy.
type Handler struct {
	Svc            *Service
	DefaultPerPage int
}

type customerPayload struct {
	CustomerID string `json:"customerId"`
	Name       string `json:"name"`
}

type addItemPayload struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type quantityPayload struct {
	Quantity int `json:"quantity"`
}

type notesPayload struct {
	Notes *string `json:"notes"`
}

// StartDraft opens a new draft at the customer step.
func (h *Handler) StartDraft(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "transaction service not configured", nil)
		return
	}
	d, err := h.Svc.StartDraft(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": d})
}

// GetDraft returns the current draft state.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "transaction service not configured", nil)
		return
	}
	d, err := h.Svc.GetDraft(r.Context(), draftID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": d})
}

// DiscardDraft drops a draft.
func (h *Handler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "transaction service not configured", nil)
		return
	}
	if err := h.Svc.DiscardDraft(r.Context(), draftID(r)); err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"discarded": true}})
}

// SetCustomer attaches a registered or walk-in customer to the draft.
func (h *Handler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "transaction service not configured", nil)
		return
	}
	var payload customerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	d, err := h.Svc.SetCustomer(r.Context(), draftID(r), payload.CustomerID, payload.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": d})
}

// AddItem adds a product to the draft cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "transaction service not configured", nil)
		return
	}
	var payload addItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(payload.ProductID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
		return
	}
	d, err := h.Svc.AddItem(r.Context(), draftID(r), payload.ProductID, payload.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": d})
}

// UpdateItem sets a line quantity; zero removes the line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "transaction service not configured", nil)
		return
	}
	var payload quantityPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	d, err := h.Svc.UpdateItem(r.Context(), draftID(r), chi.URLParam(r, "productId"), payload.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": d})
}

// RemoveItem drops a line from the draft cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "transaction service not configured", nil)
		return
	}
	d, err := h.Svc.RemoveItem(r.Context(), draftID(r), chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": d})
}

// SetNotes records notes on the draft.
func (h *Handler) SetNotes(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "transaction service not configured", nil)
		return
	}
	var payload notesPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	d, err := h.Svc.SetNotes(r.Context(), draftID(r), payload.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": d})
}

// Review refreshes stock, re-validates and returns the confirmation snapshot.
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "transaction service not configured", nil)
		return
	}
	rv, err := h.Svc.ReviewDraft(r.Context(), draftID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rv})
}

// Submit posts the composed transaction to the POS backend.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "transaction service not configured", nil)
		return
	}
	trx, err := h.Svc.Submit(r.Context(), draftID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": trx})
}

// List returns a page of submitted transactions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "transaction service not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, h.DefaultPerPage)
	trxs, err := h.Svc.List(r.Context(), page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": trxs})
}

// Get returns one submitted transaction.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "transaction service not configured", nil)
		return
	}
	trx, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": trx})
}

func draftID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "draftId"))
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	if errors.Is(err, ErrDraftNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "draft transaksi tidak ditemukan atau sudah kedaluwarsa", nil)
		return
	}
	if errors.Is(err, upstream.ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "data tidak ditemukan", nil)
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
