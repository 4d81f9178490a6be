package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"

	"storefront/orders-service/internal/app/orders/entity"
	"storefront/orders-service/internal/app/orders/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore - хранилище в памяти с семантикой READ COMMITTED:
// чтение видит закоммиченные данные, UPDATE строки берет блокировку до конца транзакции
// и проверяет условие по последней версии строки.
type memStore struct {
	mu       sync.Mutex
	cond     *sync.Cond
	variants map[int64]entity.CheckoutVariant
	locks    map[int64]*memTx
	orders   map[int64]*entity.Order
	nextID   int64
}

func newMemStore(variants ...entity.CheckoutVariant) *memStore {
	s := &memStore{
		variants: make(map[int64]entity.CheckoutVariant),
		locks:    make(map[int64]*memTx),
		orders:   make(map[int64]*entity.Order),
	}
	s.cond = sync.NewCond(&s.mu)
	for _, v := range variants {
		s.variants[v.ID] = v
	}
	return s
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx := &memTx{store: s, written: make(map[int64]entity.CheckoutVariant)}
	err := fn(ctx, repository.Repositories{Orders: tx, Items: tx, Variants: tx})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		for id, v := range tx.written {
			s.variants[id] = v
		}
		for _, o := range tx.created {
			s.orders[o.ID] = o
		}
	}
	for id, owner := range s.locks {
		if owner == tx {
			delete(s.locks, id)
		}
	}
	s.cond.Broadcast()
	return err
}

func (s *memStore) variant(id int64) entity.CheckoutVariant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.variants[id]
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type memTx struct {
	store   *memStore
	written map[int64]entity.CheckoutVariant
	created []*entity.Order
}

// current возвращает строку с учетом собственных незакоммиченных изменений
func (tx *memTx) current(id int64) (entity.CheckoutVariant, bool) {
	if v, ok := tx.written[id]; ok {
		return v, true
	}
	v, ok := tx.store.variants[id]
	return v, ok
}

// lockRow ждет, пока строку не отпустит другая транзакция. Вызывается под store.mu.
func (tx *memTx) lockRow(id int64) {
	for {
		owner, locked := tx.store.locks[id]
		if !locked || owner == tx {
			tx.store.locks[id] = tx
			return
		}
		tx.store.cond.Wait()
	}
}

func (tx *memTx) GetForCheckout(_ context.Context, ids []int64) (map[int64]entity.CheckoutVariant, error) {
	tx.store.mu.Lock()
	out := make(map[int64]entity.CheckoutVariant, len(ids))
	for _, id := range ids {
		if v, ok := tx.current(id); ok {
			out[id] = v
		}
	}
	tx.store.mu.Unlock()

	// Даем другим горутинам вклиниться между чтением и списанием
	runtime.Gosched()
	return out, nil
}

func (tx *memTx) DecrementStock(_ context.Context, observed entity.CheckoutVariant, qty int) (int64, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	tx.lockRow(observed.ID)
	v, ok := tx.current(observed.ID)
	if !ok || v.Stock != observed.Stock || v.Version != observed.Version {
		return 0, nil
	}
	v.Stock -= qty
	v.Version++
	tx.written[v.ID] = v
	return 1, nil
}

func (tx *memTx) IncrementStock(_ context.Context, variantID int64, qty int) (int64, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	tx.lockRow(variantID)
	v, ok := tx.current(variantID)
	if !ok {
		return 0, nil
	}
	v.Stock += qty
	v.Version++
	tx.written[v.ID] = v
	return 1, nil
}

func (tx *memTx) Create(_ context.Context, order *entity.Order) error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	// Последовательность, как и в БД, не откатывается
	tx.store.nextID++
	order.ID = tx.store.nextID
	for i := range order.Items {
		order.Items[i].ID = order.ID*100 + int64(i)
		order.Items[i].OrderID = order.ID
	}
	tx.created = append(tx.created, order)
	return nil
}

func (tx *memTx) GetByID(_ context.Context, id int64) (*entity.Order, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	o, ok := tx.store.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (tx *memTx) GetWithDetails(ctx context.Context, id int64) (*entity.Order, error) {
	return tx.GetByID(ctx, id)
}

func (tx *memTx) UpdateStatus(_ context.Context, order *entity.Order, from entity.OrderStatus) (bool, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	o, ok := tx.store.orders[order.ID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = order.Status
	return true, nil
}

func (tx *memTx) GetByOrderID(_ context.Context, orderID int64) ([]entity.OrderItem, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	if o, ok := tx.store.orders[orderID]; ok {
		return o.Items, nil
	}
	return nil, nil
}

// ===================== Конкурентные оформления =====================

func runConcurrentCheckouts(t *testing.T, svc *CheckoutService, variantID int64, qty, buyers int) (successes int, failures []error) {
	t.Helper()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		start = make(chan struct{})
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.PlaceOrder(context.Background(), checkoutRequest(entity.CartLine{VariantID: variantID, Quantity: qty}))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			successes++
		}()
	}
	close(start)
	wg.Wait()
	return successes, failures
}

func TestPlaceOrder_ConcurrentNeverOversells(t *testing.T) {
	cases := []struct{ stock, qty, buyers int }{
		{10, 3, 8},
		{100, 60, 2},
		{7, 1, 20},
		{5, 5, 6},
	}

	for _, tc := range cases {
		// Arrange
		store := newMemStore(entity.CheckoutVariant{
			ID: 1, ProductID: 1, ProductName: "Футболка", Status: entity.VariantStatusActive,
			Price: decimal.RequireFromString("29.99"), Stock: tc.stock, Version: 1,
		})
		// Каждый проигрыш гонки означает чужой коммит, а их не больше stock/qty
		policy := CheckoutPolicy{MaxAttempts: tc.stock/tc.qty + 2, Backoff: 50_000}
		svc := NewCheckoutService(store, nil, policy)

		// Act
		successes, failures := runConcurrentCheckouts(t, svc, 1, tc.qty, tc.buyers)

		// Assert
		want := tc.stock / tc.qty
		if want > tc.buyers {
			want = tc.buyers
		}
		assert.Equal(t, want, successes, "stock=%d qty=%d", tc.stock, tc.qty)
		for _, err := range failures {
			assert.True(t, errors.Is(err, ErrInsufficientStock), "unexpected failure: %v", err)
		}

		final := store.variant(1)
		assert.Equal(t, tc.stock-tc.qty*successes, final.Stock)
		assert.GreaterOrEqual(t, final.Stock, 0)
		assert.Equal(t, int64(1+successes), final.Version)
		assert.Equal(t, successes, store.orderCount())
	}
}

func TestPlaceOrder_MultiLineAllOrNothingUnderContention(t *testing.T) {
	// Arrange: обе корзины берут оба варианта, остатка хватает только на одну
	store := newMemStore(
		entity.CheckoutVariant{ID: 1, ProductName: "Футболка", Status: entity.VariantStatusActive, Price: decimal.NewFromInt(10), Stock: 3, Version: 1},
		entity.CheckoutVariant{ID: 2, ProductName: "Носки", Status: entity.VariantStatusActive, Price: decimal.NewFromInt(5), Stock: 3, Version: 1},
	)
	svc := NewCheckoutService(store, nil, CheckoutPolicy{MaxAttempts: 5, Backoff: 50_000})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	carts := [][]entity.CartLine{
		{{VariantID: 1, Quantity: 2}, {VariantID: 2, Quantity: 2}},
		{{VariantID: 2, Quantity: 2}, {VariantID: 1, Quantity: 2}},
	}

	// Act
	for i := range carts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(context.Background(), checkoutRequest(carts[i]...))
		}(i)
	}
	wg.Wait()

	// Assert
	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}
	}
	require.Equal(t, 1, failed)
	assert.Equal(t, 1, store.variant(1).Stock)
	assert.Equal(t, 1, store.variant(2).Stock)
}
