package cart

import "fmt"

// Product is the reference data a line is created from. Stock is nil when the
// available quantity is unknown; stock checks are then skipped.
type Product struct {
	ID    string
	Name  string
	Price int64
	Stock *int
}

// Line is one cart entry. Subtotal is always UnitPrice*Quantity; it is
// recomputed on every mutation and never stored independently of its inputs.
type Line struct {
	ProductID      string `json:"productId"`
	ProductName    string `json:"productName"`
	UnitPrice      int64  `json:"unitPrice"`
	Quantity       int    `json:"quantity"`
	Subtotal       int64  `json:"subtotal"`
	AvailableStock *int   `json:"availableStock,omitempty"`
}

// RequestLine is the per-product slice of a transaction-creation request.
// Price and name are dropped: the backend prices the sale at creation time.
type RequestLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Cart holds the in-progress product selection for one transaction draft.
// Insertion order is preserved and there is at most one line per product.
// It is single-owner mutable state; no locking.
type Cart struct {
	Lines []Line `json:"lines"`
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add merges qty of the product into the cart. Re-adding an already-present
// product increments its quantity rather than creating a duplicate line.
// Stock is deliberately not enforced here; Validate reports it and the
// submit gate blocks on it.
func (c *Cart) Add(p Product, qty int) {
	if qty < 1 {
		qty = 1
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == p.ID {
			c.Lines[i].Quantity += qty
			c.Lines[i].Subtotal = c.Lines[i].UnitPrice * int64(c.Lines[i].Quantity)
			return
		}
	}
	c.Lines = append(c.Lines, Line{
		ProductID:      p.ID,
		ProductName:    p.Name,
		UnitPrice:      p.Price,
		Quantity:       qty,
		Subtotal:       p.Price * int64(qty),
		AvailableStock: p.Stock,
	})
}

// SetQuantity sets the quantity for a product. A quantity of zero or less
// removes the line; an absent product id is a no-op.
func (c *Cart) SetQuantity(productID string, qty int) {
	if qty <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = qty
			c.Lines[i].Subtotal = c.Lines[i].UnitPrice * int64(qty)
			return
		}
	}
}

// Remove deletes the line for a product if present; removing an absent
// product is a no-op.
func (c *Cart) Remove(productID string) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = nil
}

// Total returns the sum of all line subtotals; zero for an empty cart.
func (c *Cart) Total() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.Subtotal
	}
	return total
}

// ItemCount returns the sum of all quantities, which is distinct from the
// number of lines.
func (c *Cart) ItemCount() int {
	var count int
	for _, l := range c.Lines {
		count += l.Quantity
	}
	return count
}

// RequestLines converts the cart into transaction-request lines, one per
// distinct product in insertion order.
func (c *Cart) RequestLines() []RequestLine {
	out := make([]RequestLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		out = append(out, RequestLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return out
}

// Validate returns advisory, human-readable problems with the cart. It never
// mutates state; callers decide whether the result blocks submission.
func (c *Cart) Validate() []string {
	var problems []string
	if len(c.Lines) == 0 {
		problems = append(problems, "keranjang masih kosong")
		return problems
	}
	for _, l := range c.Lines {
		if l.Quantity <= 0 {
			// unreachable via SetQuantity, kept as a guard for decoded drafts
			problems = append(problems, fmt.Sprintf("jumlah %s harus lebih dari 0", l.ProductName))
		}
		if l.AvailableStock != nil && l.Quantity > *l.AvailableStock {
			problems = append(problems, fmt.Sprintf("stok %s tidak mencukupi (tersedia: %d)", l.ProductName, *l.AvailableStock))
		}
	}
	return problems
}
