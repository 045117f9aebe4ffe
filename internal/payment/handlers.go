package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/upstream"
)

// Handler exposes the payment read, reactive-validate and update endpoints.
type Handler struct {
	Svc            *Service
	DefaultPerPage int
}

type updatePayload struct {
	Amount    int64      `json:"amount"`
	Method    string     `json:"method"`
	Status    string     `json:"status"`
	DueDate   *time.Time `json:"dueDate"`
	Confirmed bool       `json:"confirmed"`
}

type validatePayload struct {
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// List returns a page of payments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "payment service not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, h.DefaultPerPage)
	payments, err := h.Svc.List(r.Context(), page, perPage)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": payments})
}

// Get returns one payment along with its installment summary.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "payment service not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}
	detail, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detail})
}

// Validate runs the update checks without persisting. The form calls this on
// every change; errors and warnings come back together with the auto-adjusted
// amount.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "payment service not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}
	var payload validatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.Status != upstream.StatusSettled && payload.Status != upstream.StatusInstallment {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "status harus LUNAS atau CICILAN", nil)
		return
	}
	preview, err := h.Svc.Validate(r.Context(), id, payload.Amount, payload.Status)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": preview})
}

// Update commits a payment mutation after the final validation gate.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "payment service not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}
	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.Status != upstream.StatusSettled && payload.Status != upstream.StatusInstallment {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "status harus LUNAS atau CICILAN", nil)
		return
	}
	in := UpdateInput{
		Amount:    payload.Amount,
		Method:    strings.TrimSpace(payload.Method),
		Status:    payload.Status,
		Confirmed: payload.Confirmed,
	}
	if payload.DueDate != nil {
		in.DueDate = *payload.DueDate
	}
	detail, err := h.Svc.Update(r.Context(), id, in)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detail})
}

// writeUpstreamError maps service and upstream errors to the canonical error
// shape.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
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
