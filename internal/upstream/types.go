package upstream

import "time"

// Payment status values used by the POS backend.
const (
	// StatusSettled marks a payment as fully settled.
	StatusSettled = "LUNAS"
	// StatusInstallment marks a payment as being paid off in installments.
	StatusInstallment = "CICILAN"
)

// Product is reference data owned by the POS backend. Price is stored in
// minor units (rupiah).
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       int64   `json:"price"`
	Stock       int     `json:"stock"`
	Description *string `json:"description,omitempty"`
}

// ProductInput is the create/update payload for a product.
type ProductInput struct {
	Name        string  `json:"name" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	Price       int64   `json:"price" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Description *string `json:"description,omitempty"`
}

// Customer mirrors the pelanggan resource.
type Customer struct {
	ID      string  `json:"id"`
	Name    string  `json:"nama"`
	Phone   *string `json:"telepon,omitempty"`
	Address *string `json:"alamat,omitempty"`
}

// CustomerInput is the create/update payload for a customer.
type CustomerInput struct {
	Name    string  `json:"nama" validate:"required"`
	Phone   *string `json:"telepon,omitempty" validate:"omitempty,min=6"`
	Address *string `json:"alamat,omitempty"`
}

// Supplier mirrors the supplier resource.
type Supplier struct {
	ID      string  `json:"id"`
	Name    string  `json:"nama"`
	Phone   *string `json:"telepon,omitempty"`
	Address *string `json:"alamat,omitempty"`
}

// SupplierInput is the create/update payload for a supplier.
type SupplierInput struct {
	Name    string  `json:"nama" validate:"required"`
	Phone   *string `json:"telepon,omitempty" validate:"omitempty,min=6"`
	Address *string `json:"alamat,omitempty"`
}

// TransactionDetail is one line of a transaction-creation request. Prices are
// deliberately absent: the backend is the source of truth for pricing at
// creation time.
type TransactionDetail struct {
	ProductID string `json:"id_produk"`
	Quantity  int    `json:"jumlah"`
}

// CreateTransactionRequest is the payload posted to the transaksi endpoint.
type CreateTransactionRequest struct {
	CustomerID   string              `json:"id_pelanggan"`
	CustomerName string              `json:"nama_pelanggan"`
	Notes        *string             `json:"catatan,omitempty"`
	Details      []TransactionDetail `json:"detail_transaksi"`
}

// Transaction is a persisted sale record.
type Transaction struct {
	ID           string              `json:"id"`
	CustomerID   string              `json:"id_pelanggan"`
	CustomerName string              `json:"nama_pelanggan"`
	Total        int64               `json:"total"`
	Notes        *string             `json:"catatan,omitempty"`
	Details      []TransactionDetail `json:"detail_transaksi"`
	CreatedAt    time.Time           `json:"created_at"`
}

// Installment is one partial payment recorded against a CICILAN payment.
// The history is append-only; this service never mutates it.
type Installment struct {
	ID          string    `json:"id"`
	PaymentID   string    `json:"payment_id"`
	Amount      int64     `json:"amount"`
	PaymentDate time.Time `json:"payment_date"`
}

// Payment is a persisted record of money owed or collected against a
// transaction.
type Payment struct {
	ID            string        `json:"id"`
	TransactionID string        `json:"transaction_id"`
	Amount        int64         `json:"amount"`
	Method        string        `json:"method"`
	Status        string        `json:"status"`
	DueDate       time.Time     `json:"due_date"`
	Installments  []Installment `json:"installments"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// UpdatePaymentRequest is the payload for a validated payment update.
type UpdatePaymentRequest struct {
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	Method        string    `json:"method"`
	Status        string    `json:"status"`
	DueDate       time.Time `json:"due_date"`
}
