package transaction

import (
	"time"

	"github.com/noah-isme/backend-kasir/internal/cart"
)

// Step is the wizard position of a transaction draft. Steps only advance
// through the service; a decoded draft with an unknown step is treated as
// StepCustomer.
type Step string

const (
	// StepCustomer is the initial step: pick or name the customer.
	StepCustomer Step = "customer"
	// StepProducts is the product-selection step.
	StepProducts Step = "products"
	// StepReview is the final confirmation step before submission.
	StepReview Step = "review"
)

// Draft is an in-progress transaction held in Redis until it is submitted or
// its TTL lapses. The TTL is the lifetime of the admin's form; nothing is
// persisted upstream until Submit.
type Draft struct {
	ID           string     `json:"id"`
	Step         Step       `json:"step"`
	CustomerID   string     `json:"customerId,omitempty"`
	CustomerName string     `json:"customerName,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	Cart         *cart.Cart `json:"cart"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Review is the submit-gate snapshot shown on the confirmation step.
type Review struct {
	Draft     Draft    `json:"draft"`
	Total     int64    `json:"total"`
	ItemCount int      `json:"itemCount"`
	Problems  []string `json:"problems"`
	CanSubmit bool     `json:"canSubmit"`
}
