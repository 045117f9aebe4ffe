package payment

import (
	"strings"
	"testing"
	"time"

	"github.com/noah-isme/backend-kasir/internal/upstream"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func cicilanPayment(amount int64, installments ...int64) upstream.Payment {
	p := upstream.Payment{
		ID:            "pay-1",
		TransactionID: "trx-1",
		Amount:        amount,
		Method:        "transfer",
		Status:        upstream.StatusInstallment,
		DueDate:       now.AddDate(0, -1, 0),
	}
	for i, a := range installments {
		p.Installments = append(p.Installments, upstream.Installment{
			ID:          string(rune('a' + i)),
			PaymentID:   p.ID,
			Amount:      a,
			PaymentDate: now.AddDate(0, 0, -7*(len(installments)-i)),
		})
	}
	return p
}

func TestValidateRejectsNonPositiveAmount(t *testing.T) {
	p := cicilanPayment(10000)
	res := ValidateUpdate(p, 0, upstream.StatusInstallment, now)
	if res.Valid {
		t.Fatal("zero amount should be invalid")
	}
	res = ValidateUpdate(p, -500, upstream.StatusInstallment, now)
	if res.Valid || len(res.Errors) == 0 {
		t.Fatalf("negative amount should be invalid, got %+v", res)
	}
}

func TestValidateAmountBelowPaidTotal(t *testing.T) {
	p := cicilanPayment(10000, 6000, 6000) // paid 12000

	res := ValidateUpdate(p, 10000, upstream.StatusSettled, now)
	if res.Valid {
		t.Fatalf("amount below paid total must be invalid, got %+v", res)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "12000") {
		t.Fatalf("expected error naming paid total, got %v", res.Errors)
	}

	// same rule applies when the target status stays CICILAN
	res = ValidateUpdate(p, 10000, upstream.StatusInstallment, now)
	if res.Valid {
		t.Fatalf("amount below paid total must be invalid for CICILAN too, got %+v", res)
	}
}

func TestValidateAmountEqualsPaidTotal(t *testing.T) {
	p := cicilanPayment(10000, 6000, 6000)
	res := ValidateUpdate(p, 12000, upstream.StatusSettled, now)
	if !res.Valid {
		t.Fatalf("expected valid result, got errors %v", res.Errors)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", res.Warnings)
	}
	if !strings.Contains(res.Warnings[0], "sama persis") {
		t.Fatalf("expected equals-paid warning, got %q", res.Warnings[0])
	}
}

func TestValidateSignificantChangeWarning(t *testing.T) {
	p := cicilanPayment(10000, 2000)

	// 25% above the original amount, still above paid total
	res := ValidateUpdate(p, 12500, upstream.StatusInstallment, now)
	if !res.Valid {
		t.Fatalf("expected valid result, got %v", res.Errors)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "10%") {
		t.Fatalf("expected significant-change warning, got %v", res.Warnings)
	}

	// 5% change stays quiet
	res = ValidateUpdate(p, 10500, upstream.StatusInstallment, now)
	if len(res.Warnings) != 0 {
		t.Fatalf("expected no warnings for a 5%% change, got %v", res.Warnings)
	}
}

func TestValidateSettlingBeforeDueDate(t *testing.T) {
	p := cicilanPayment(10000)
	p.DueDate = now.AddDate(0, 1, 0)

	res := ValidateUpdate(p, 10000, upstream.StatusSettled, now)
	if !res.Valid {
		t.Fatalf("expected valid result, got %v", res.Errors)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "jatuh tempo") {
		t.Fatalf("expected due-date warning, got %v", res.Warnings)
	}
}

func TestValidateReverseTransitionWarns(t *testing.T) {
	p := cicilanPayment(10000, 4000)
	p.Status = upstream.StatusSettled

	res := ValidateUpdate(p, 10000, upstream.StatusInstallment, now)
	if !res.Valid {
		t.Fatalf("reverse transition should not block, got %v", res.Errors)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "LUNAS ke CICILAN") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected reverse-transition warning, got %v", res.Warnings)
	}
}

func TestInstallmentSummary(t *testing.T) {
	p := cicilanPayment(10000, 3000, 3000)
	s := InstallmentSummary(p)
	if s == nil {
		t.Fatal("expected summary, got nil")
	}
	if s.TotalPaid != 6000 || s.Remaining != 4000 || s.InstallmentCount != 2 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.PercentagePaid != 60 {
		t.Fatalf("expected 60%% paid, got %v", s.PercentagePaid)
	}
	if s.AverageInstallment != 3000 {
		t.Fatalf("expected average 3000, got %v", s.AverageInstallment)
	}
}

func TestInstallmentSummaryClampsOverpayment(t *testing.T) {
	p := cicilanPayment(10000, 7000, 7000)
	s := InstallmentSummary(p)
	if s == nil || s.Remaining != 0 {
		t.Fatalf("remaining should clamp to zero, got %+v", s)
	}
}

func TestInstallmentSummaryNilWithoutHistory(t *testing.T) {
	if s := InstallmentSummary(cicilanPayment(10000)); s != nil {
		t.Fatalf("expected nil summary, got %+v", s)
	}
}

func TestAdjustedAmountRaisesToPaidTotal(t *testing.T) {
	p := cicilanPayment(10000, 6000, 6000)
	if got := AdjustedAmount(p, 10000, upstream.StatusSettled); got != 12000 {
		t.Fatalf("expected amount raised to 12000, got %d", got)
	}
	if got := AdjustedAmount(p, 15000, upstream.StatusSettled); got != 15000 {
		t.Fatalf("amount above paid total should be kept, got %d", got)
	}
	if got := AdjustedAmount(p, 10000, upstream.StatusInstallment); got != 10000 {
		t.Fatalf("no adjustment outside CICILAN->LUNAS, got %d", got)
	}
	if got := AdjustedAmount(cicilanPayment(10000), 10000, upstream.StatusSettled); got != 10000 {
		t.Fatalf("no adjustment without installments, got %d", got)
	}
}
