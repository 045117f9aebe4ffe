package payment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/upstream"
)

// Detail pairs a payment with its derived installment summary.
type Detail struct {
	Payment upstream.Payment `json:"payment"`
	Summary *Summary         `json:"summary,omitempty"`
}

// Preview is the reactive validation response the edit form polls while the
// admin types. AdjustedAmount reflects the auto-raise applied when switching
// an installment plan to LUNAS.
type Preview struct {
	AdjustedAmount int64    `json:"adjustedAmount"`
	Result         Result   `json:"result"`
	Summary        *Summary `json:"summary,omitempty"`
}

// UpdateInput is the admin's proposed payment mutation. Confirmed must be set
// when moving a payment with installment history to LUNAS.
type UpdateInput struct {
	Amount    int64
	Method    string
	Status    string
	DueDate   time.Time
	Confirmed bool
}

// Service coordinates payment reads and gated updates against the POS
// backend. The validator runs a final time inside Update, so a stale form can
// never push an invalid state upstream.
type Service struct {
	Upstream *upstream.Client
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// List returns a page of payments.
func (s *Service) List(ctx context.Context, page, limit int) ([]upstream.Payment, error) {
	if s == nil || s.Upstream == nil {
		return nil, errors.New("payment service not configured")
	}
	return s.Upstream.ListPayments(ctx, page, limit)
}

// Get loads one payment and derives its installment summary.
func (s *Service) Get(ctx context.Context, id string) (Detail, error) {
	if s == nil || s.Upstream == nil {
		return Detail{}, errors.New("payment service not configured")
	}
	p, err := s.Upstream.GetPayment(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Payment: p, Summary: InstallmentSummary(p)}, nil
}

// Validate runs the update checks against the persisted payment without
// committing anything. The returned preview carries the auto-adjusted amount
// so the form can reflect it immediately.
func (s *Service) Validate(ctx context.Context, id string, amount int64, status string) (Preview, error) {
	if s == nil || s.Upstream == nil {
		return Preview{}, errors.New("payment service not configured")
	}
	p, err := s.Upstream.GetPayment(ctx, id)
	if err != nil {
		return Preview{}, err
	}
	adjusted := AdjustedAmount(p, amount, status)
	return Preview{
		AdjustedAmount: adjusted,
		Result:         ValidateUpdate(p, adjusted, status, s.now()),
		Summary:        InstallmentSummary(p),
	}, nil
}

// Update commits a payment mutation after re-running the validator as the
// final gate. Moving an installment plan to LUNAS requires an explicit
// confirmation flag when history exists.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Detail, error) {
	if s == nil || s.Upstream == nil {
		return Detail{}, errors.New("payment service not configured")
	}
	p, err := s.Upstream.GetPayment(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	if p.Status == upstream.StatusInstallment && in.Status == upstream.StatusSettled &&
		len(p.Installments) > 0 && !in.Confirmed {
		return Detail{}, common.NewAppError(
			"CONFIRMATION_REQUIRED",
			"mengubah status menjadi LUNAS memerlukan konfirmasi",
			http.StatusConflict, nil,
		)
	}

	amount := AdjustedAmount(p, in.Amount, in.Status)
	result := ValidateUpdate(p, amount, in.Status, s.now())
	if !result.Valid {
		appErr := common.NewAppError("VALIDATION_FAILED", "pembaruan pembayaran tidak valid", http.StatusUnprocessableEntity, nil)
		appErr.Details = result
		return Detail{}, appErr
	}

	method := in.Method
	if method == "" {
		method = p.Method
	}
	dueDate := in.DueDate
	if dueDate.IsZero() {
		dueDate = p.DueDate
	}
	updated, err := s.Upstream.UpdatePayment(ctx, id, upstream.UpdatePaymentRequest{
		TransactionID: p.TransactionID,
		Amount:        amount,
		Method:        method,
		Status:        in.Status,
		DueDate:       dueDate,
	})
	if err != nil {
		return Detail{}, err
	}
	return Detail{Payment: updated, Summary: InstallmentSummary(updated)}, nil
}
