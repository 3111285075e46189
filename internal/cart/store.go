package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/MohitNegi1997/MoltenMotion/internal/checkout"
	"github.com/MohitNegi1997/MoltenMotion/internal/domain"
	"github.com/MohitNegi1997/MoltenMotion/internal/notify"
	"github.com/MohitNegi1997/MoltenMotion/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the single source of truth for one cart. Every read goes back to
// storage, every mutation overwrites the whole slot and then publishes a
// change signal.
type Store struct {
	mu        sync.Mutex
	storage   storage.Storage
	bus       notify.Notifier
	publisher checkout.Publisher
	sessionID string
	log       *zap.Logger
	now       func() time.Time
}

type Option func(*Store)

// WithPublisher hands receipts of successful checkouts to p.
func WithPublisher(p checkout.Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}

// WithSession tags receipts and log lines with the owning session.
func WithSession(id string) Option {
	return func(s *Store) {
		s.sessionID = id
	}
}

func New(st storage.Storage, bus notify.Notifier, log *zap.Logger, opts ...Option) *Store {
	s := &Store{
		storage:   st,
		bus:       bus,
		publisher: checkout.Nop{},
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessionID != "" {
		s.log = s.log.With(zap.String("session_id", s.sessionID))
	}
	return s
}

// Cart returns a copy of the current line items. Missing or unreadable state
// is an empty cart.
func (s *Store) Cart(ctx context.Context) []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Add increments the line for product by quantity, appending a new line when
// the product is not in the cart yet. A line that drops below one is removed.
func (s *Store) Add(ctx context.Context, product domain.Product, quantity int) {
	s.mutate(ctx, func(items []domain.LineItem) ([]domain.LineItem, bool) {
		for i := range items {
			if items[i].ID != product.ID {
				continue
			}
			items[i].Quantity += quantity
			if items[i].Quantity < 1 {
				items = without(items, product.ID)
			}
			return items, true
		}
		if quantity < 1 {
			return items, false
		}
		return append(items, domain.LineItem{
			ID:       product.ID,
			Name:     product.Name,
			Price:    product.Price,
			Image:    product.Image,
			Quantity: quantity,
		}), true
	})
}

// Remove drops the line for productID. Removing an absent product still
// rewrites the slot and publishes.
func (s *Store) Remove(ctx context.Context, productID string) {
	s.mutate(ctx, func(items []domain.LineItem) ([]domain.LineItem, bool) {
		return without(items, productID), true
	})
}

// SetQuantity replaces the quantity of an existing line. Quantities below one
// remove the line; unknown products are left alone.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) {
	if quantity < 1 {
		s.Remove(ctx, productID)
		return
	}
	s.mutate(ctx, func(items []domain.LineItem) ([]domain.LineItem, bool) {
		for i := range items {
			if items[i].ID == productID {
				items[i].Quantity = quantity
				return items, true
			}
		}
		return items, false
	})
}

func (s *Store) Count(ctx context.Context) int {
	return count(s.Cart(ctx))
}

func (s *Store) Total(ctx context.Context) float64 {
	return total(s.Cart(ctx))
}

func (s *Store) Clear(ctx context.Context) {
	s.mutate(ctx, func([]domain.LineItem) ([]domain.LineItem, bool) {
		return []domain.LineItem{}, true
	})
}

// Subscribe calls fn right away with the current state and again after every
// mutation until the returned function is called. fn may call back into the
// Store.
func (s *Store) Subscribe(ctx context.Context, fn func(count int, items []domain.LineItem)) func() {
	ctx = context.WithoutCancel(ctx)
	handler := func() {
		items := s.Cart(ctx)
		fn(count(items), items)
	}
	unsubscribe := s.bus.Subscribe(handler)
	handler()
	return unsubscribe
}

// Checkout is the mock checkout: it snapshots the cart into a receipt, clears
// the cart and hands the receipt to the publisher.
func (s *Store) Checkout(ctx context.Context) (domain.Receipt, error) {
	s.mu.Lock()
	items := s.load(ctx)
	n := count(items)
	if n == 0 {
		s.mu.Unlock()
		return domain.Receipt{}, ErrEmptyCart
	}

	receipt := domain.Receipt{
		OrderID:   uuid.NewString(),
		SessionID: s.sessionID,
		Items:     items,
		Count:     n,
		Total:     total(items),
		PlacedAt:  s.now().UTC(),
	}
	s.save(ctx, []domain.LineItem{})
	s.mu.Unlock()

	s.bus.Publish()

	if err := s.publisher.Publish(ctx, receipt); err != nil {
		s.log.Error("failed to publish checkout", zap.String("order_id", receipt.OrderID), zap.Error(err))
	}
	s.log.Info("checkout completed",
		zap.String("order_id", receipt.OrderID),
		zap.Int("count", receipt.Count),
		zap.Float64("total", receipt.Total),
	)
	return receipt, nil
}

// mutate runs fn over the current items under the lock, saves the result when
// fn reports a change and publishes after the lock is released.
func (s *Store) mutate(ctx context.Context, fn func([]domain.LineItem) ([]domain.LineItem, bool)) {
	s.mu.Lock()
	items, changed := fn(s.load(ctx))
	if changed {
		s.save(ctx, items)
	}
	s.mu.Unlock()

	if changed {
		s.bus.Publish()
	}
}

func (s *Store) load(ctx context.Context) []domain.LineItem {
	raw, err := s.storage.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return []domain.LineItem{}
	}
	if err != nil {
		s.log.Warn("cart load failed, using empty cart", zap.Error(err))
		return []domain.LineItem{}
	}

	var items []domain.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.log.Warn("cart state is malformed, using empty cart", zap.Error(err))
		return []domain.LineItem{}
	}
	if items == nil {
		items = []domain.LineItem{}
	}
	return items
}

func (s *Store) save(ctx context.Context, items []domain.LineItem) {
	if items == nil {
		items = []domain.LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		s.log.Error("failed to marshal cart", zap.Error(err))
		return
	}
	if err := s.storage.Save(ctx, string(data)); err != nil {
		s.log.Error("failed to save cart", zap.Error(err))
	}
}

func without(items []domain.LineItem, productID string) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		if item.ID != productID {
			out = append(out, item)
		}
	}
	return out
}

func count(items []domain.LineItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func total(items []domain.LineItem) float64 {
	sum := 0.0
	for _, item := range items {
		sum += item.Subtotal()
	}
	return sum
}
