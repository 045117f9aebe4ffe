package transaction

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-kasir/internal/cart"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/upstream"
)

// Service drives the transaction-composition wizard. Drafts live in Redis
// until submission; the POS backend only sees the final transaction.
type Service struct {
	Upstream *upstream.Client
	Drafts   *Store
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) configured() error {
	if s == nil || s.Upstream == nil || s.Drafts == nil {
		return errors.New("transaction service not configured")
	}
	return nil
}

// StartDraft creates an empty draft at the customer step.
func (s *Service) StartDraft(ctx context.Context) (Draft, error) {
	if err := s.configured(); err != nil {
		return Draft{}, err
	}
	now := s.now()
	d := Draft{
		ID:        uuid.NewString(),
		Step:      StepCustomer,
		Cart:      cart.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Drafts.Save(ctx, d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// GetDraft loads a draft by id.
func (s *Service) GetDraft(ctx context.Context, id string) (Draft, error) {
	if err := s.configured(); err != nil {
		return Draft{}, err
	}
	return s.Drafts.Get(ctx, id)
}

// DiscardDraft drops a draft without submitting it.
func (s *Service) DiscardDraft(ctx context.Context, id string) error {
	if err := s.configured(); err != nil {
		return err
	}
	return s.Drafts.Delete(ctx, id)
}

// SetCustomer attaches a customer to the draft and advances past the customer
// step. A registered customer id is resolved upstream for its display name; a
// bare name records a walk-in sale.
func (s *Service) SetCustomer(ctx context.Context, draftID, customerID, name string) (Draft, error) {
	if err := s.configured(); err != nil {
		return Draft{}, err
	}
	d, err := s.Drafts.Get(ctx, draftID)
	if err != nil {
		return Draft{}, err
	}
	customerID = strings.TrimSpace(customerID)
	name = strings.TrimSpace(name)
	if customerID != "" {
		c, err := s.Upstream.GetCustomer(ctx, customerID)
		if err != nil {
			return Draft{}, err
		}
		d.CustomerID = c.ID
		d.CustomerName = c.Name
	} else {
		if name == "" {
			return Draft{}, common.NewAppError("BAD_REQUEST", "nama pelanggan wajib diisi", http.StatusBadRequest, nil)
		}
		d.CustomerID = ""
		d.CustomerName = name
	}
	if d.Step == StepCustomer {
		d.Step = StepProducts
	}
	return s.save(ctx, d)
}

// AddItem resolves the product upstream and merges it into the draft cart.
// The resolved price and stock are snapshotted on the line.
func (s *Service) AddItem(ctx context.Context, draftID, productID string, qty int) (Draft, error) {
	if err := s.configured(); err != nil {
		return Draft{}, err
	}
	d, err := s.Drafts.Get(ctx, draftID)
	if err != nil {
		return Draft{}, err
	}
	p, err := s.Upstream.GetProduct(ctx, productID)
	if err != nil {
		return Draft{}, err
	}
	stock := p.Stock
	d.Cart.Add(cart.Product{ID: p.ID, Name: p.Name, Price: p.Price, Stock: &stock}, qty)
	if d.Step == StepCustomer {
		d.Step = StepProducts
	}
	return s.save(ctx, d)
}

// UpdateItem sets the quantity for a product already in the cart. Zero or
// negative removes the line.
func (s *Service) UpdateItem(ctx context.Context, draftID, productID string, qty int) (Draft, error) {
	if err := s.configured(); err != nil {
		return Draft{}, err
	}
	d, err := s.Drafts.Get(ctx, draftID)
	if err != nil {
		return Draft{}, err
	}
	d.Cart.SetQuantity(productID, qty)
	return s.save(ctx, d)
}

// RemoveItem drops a product from the cart.
func (s *Service) RemoveItem(ctx context.Context, draftID, productID string) (Draft, error) {
	if err := s.configured(); err != nil {
		return Draft{}, err
	}
	d, err := s.Drafts.Get(ctx, draftID)
	if err != nil {
		return Draft{}, err
	}
	d.Cart.Remove(productID)
	return s.save(ctx, d)
}

// SetNotes records free-form notes on the draft.
func (s *Service) SetNotes(ctx context.Context, draftID string, notes *string) (Draft, error) {
	if err := s.configured(); err != nil {
		return Draft{}, err
	}
	d, err := s.Drafts.Get(ctx, draftID)
	if err != nil {
		return Draft{}, err
	}
	d.Notes = notes
	return s.save(ctx, d)
}

// ReviewDraft refreshes stock snapshots from the POS backend, re-validates
// the cart and moves the draft to the review step. Problems are advisory
// here; Submit is the hard gate.
func (s *Service) ReviewDraft(ctx context.Context, draftID string) (Review, error) {
	if err := s.configured(); err != nil {
		return Review{}, err
	}
	d, err := s.Drafts.Get(ctx, draftID)
	if err != nil {
		return Review{}, err
	}
	if err := s.refreshStock(ctx, &d); err != nil {
		return Review{}, err
	}
	d.Step = StepReview
	d, err = s.save(ctx, d)
	if err != nil {
		return Review{}, err
	}
	return s.review(d), nil
}

// Submit validates the draft one final time, posts the transaction upstream
// and deletes the draft on success.
func (s *Service) Submit(ctx context.Context, draftID string) (upstream.Transaction, error) {
	if err := s.configured(); err != nil {
		return upstream.Transaction{}, err
	}
	d, err := s.Drafts.Get(ctx, draftID)
	if err != nil {
		return upstream.Transaction{}, err
	}
	if err := s.refreshStock(ctx, &d); err != nil {
		return upstream.Transaction{}, err
	}
	rv := s.review(d)
	if !rv.CanSubmit {
		appErr := common.NewAppError("DRAFT_INVALID", "transaksi belum bisa dikirim", http.StatusUnprocessableEntity, nil)
		appErr.Details = rv.Problems
		return upstream.Transaction{}, appErr
	}

	req := upstream.CreateTransactionRequest{
		CustomerID:   d.CustomerID,
		CustomerName: d.CustomerName,
		Notes:        d.Notes,
	}
	for _, line := range d.Cart.RequestLines() {
		req.Details = append(req.Details, upstream.TransactionDetail{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	trx, err := s.Upstream.CreateTransaction(ctx, req)
	if err != nil {
		return upstream.Transaction{}, err
	}
	_ = s.Drafts.Delete(ctx, draftID)
	return trx, nil
}

// List proxies the transaction history page.
func (s *Service) List(ctx context.Context, page, limit int) ([]upstream.Transaction, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	return s.Upstream.ListTransactions(ctx, page, limit)
}

// Get proxies a single transaction.
func (s *Service) Get(ctx context.Context, id string) (upstream.Transaction, error) {
	if err := s.configured(); err != nil {
		return upstream.Transaction{}, err
	}
	return s.Upstream.GetTransaction(ctx, id)
}

func (s *Service) save(ctx context.Context, d Draft) (Draft, error) {
	d.UpdatedAt = s.now()
	if err := s.Drafts.Save(ctx, d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

func (s *Service) review(d Draft) Review {
	problems := d.Cart.Validate()
	if d.CustomerName == "" {
		problems = append(problems, "pelanggan belum dipilih")
	}
	return Review{
		Draft:     d,
		Total:     d.Cart.Total(),
		ItemCount: d.Cart.ItemCount(),
		Problems:  problems,
		CanSubmit: len(problems) == 0,
	}
}

// refreshStock re-reads each product so the stock snapshot on the lines is
// current at review and submit time. A product that disappeared upstream is
// surfaced as ErrNotFound rather than silently dropped.
func (s *Service) refreshStock(ctx context.Context, d *Draft) error {
	for i := range d.Cart.Lines {
		p, err := s.Upstream.GetProduct(ctx, d.Cart.Lines[i].ProductID)
		if err != nil {
			return err
		}
		stock := p.Stock
		d.Cart.Lines[i].AvailableStock = &stock
		d.Cart.Lines[i].UnitPrice = p.Price
		d.Cart.Lines[i].Subtotal = p.Price * int64(d.Cart.Lines[i].Quantity)
	}
	return nil
}
