package payment

import (
	"fmt"
	"time"

	"github.com/noah-isme/backend-kasir/internal/upstream"
)

// Result is the outcome of validating a proposed payment update. Errors block
// the update; warnings are advisory and never block. It is recomputed on
// every input change and never persisted.
type Result struct {
	Valid    bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Summary aggregates installment statistics for display.
type Summary struct {
	TotalPaid          int64   `json:"totalPaid"`
	Remaining          int64   `json:"remaining"`
	PercentagePaid     float64 `json:"percentagePaid"`
	InstallmentCount   int     `json:"installmentCount"`
	AverageInstallment float64 `json:"averageInstallment"`
}

// TotalPaid sums the append-only installment history of a payment.
func TotalPaid(p upstream.Payment) int64 {
	var total int64
	for _, ins := range p.Installments {
		total += ins.Amount
	}
	return total
}

// ValidateUpdate checks a proposed (amount, status) transition against the
// persisted payment. Pure; safe to call on every keystroke.
//
// The amount-versus-paid comparisons are mutually exclusive: an amount below
// the paid total is an error whatever the target status, an exact match is
// flagged once for confirmation, and only otherwise does the significant-change
// check (>10% away from the original persisted amount) fire.
func ValidateUpdate(p upstream.Payment, newAmount int64, newStatus string, now time.Time) Result {
	var errs, warnings []string

	if newAmount <= 0 {
		errs = append(errs, "jumlah pembayaran harus lebih dari 0")
	}

	if len(p.Installments) > 0 {
		totalPaid := TotalPaid(p)
		switch {
		case newAmount < totalPaid:
			// paid history can never exceed the stated total, whatever the status
			errs = append(errs, fmt.Sprintf("jumlah tidak boleh kurang dari total cicilan yang sudah dibayar (%d)", totalPaid))
		case newStatus == upstream.StatusSettled && newAmount == totalPaid:
			warnings = append(warnings, "jumlah sama persis dengan total cicilan yang sudah dibayar")
		case significantChange(p.Amount, newAmount):
			warnings = append(warnings, "perubahan jumlah melebihi 10% dari nilai semula")
		}
	}

	if newStatus == upstream.StatusSettled && p.DueDate.After(now) {
		warnings = append(warnings, "pembayaran ditandai LUNAS sebelum tanggal jatuh tempo")
	}

	if p.Status == upstream.StatusSettled && newStatus == upstream.StatusInstallment {
		warnings = append(warnings, "status dikembalikan dari LUNAS ke CICILAN")
	}

	return Result{Valid: len(errs) == 0, Errors: errs, Warnings: warnings}
}

// InstallmentSummary derives paid/remaining statistics, or nil when the
// payment has no installment history. Remaining is clamped at zero so an
// over-payment never shows a negative balance.
func InstallmentSummary(p upstream.Payment) *Summary {
	count := len(p.Installments)
	if count == 0 {
		return nil
	}
	totalPaid := TotalPaid(p)
	remaining := p.Amount - totalPaid
	if remaining < 0 {
		remaining = 0
	}
	var pct float64
	if p.Amount > 0 {
		pct = float64(totalPaid) / float64(p.Amount) * 100
	}
	return &Summary{
		TotalPaid:          totalPaid,
		Remaining:          remaining,
		PercentagePaid:     pct,
		InstallmentCount:   count,
		AverageInstallment: float64(totalPaid) / float64(count),
	}
}

// AdjustedAmount applies the caller-side auto-adjustment policy: switching an
// installment plan to LUNAS with history present raises the candidate amount
// to at least the paid total, so the form never starts from a
// guaranteed-invalid default.
func AdjustedAmount(p upstream.Payment, newAmount int64, newStatus string) int64 {
	if newStatus != upstream.StatusSettled || p.Status != upstream.StatusInstallment {
		return newAmount
	}
	if len(p.Installments) == 0 {
		return newAmount
	}
	if paid := TotalPaid(p); paid > newAmount {
		return paid
	}
	return newAmount
}

func significantChange(original, proposed int64) bool {
	if original <= 0 {
		return false
	}
	diff := proposed - original
	if diff < 0 {
		diff = -diff
	}
	return float64(diff)/float64(original) > 0.10
}
