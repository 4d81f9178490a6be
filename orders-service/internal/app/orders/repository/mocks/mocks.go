package mocks

import (
	"context"
	"sync"

	"storefront/orders-service/internal/app/orders/entity"
	"storefront/orders-service/internal/app/orders/repository"

	"github.com/stretchr/testify/mock"
)

// MockOrderRepository мок для OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *entity.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderRepository) GetWithDetails(ctx context.Context, id int64) (*entity.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, order *entity.Order, from entity.OrderStatus) (bool, error) {
	args := m.Called(ctx, order, from)
	return args.Bool(0), args.Error(1)
}

// MockOrderItemRepository мок для OrderItemRepository
type MockOrderItemRepository struct {
	mock.Mock
}

func (m *MockOrderItemRepository) GetByOrderID(ctx context.Context, orderID int64) ([]entity.OrderItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.OrderItem), args.Error(1)
}

// MockVariantRepository мок для VariantRepository
type MockVariantRepository struct {
	mock.Mock
}

func (m *MockVariantRepository) GetForCheckout(ctx context.Context, ids []int64) (map[int64]entity.CheckoutVariant, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]entity.CheckoutVariant), args.Error(1)
}

func (m *MockVariantRepository) DecrementStock(ctx context.Context, observed entity.CheckoutVariant, qty int) (int64, error) {
	args := m.Called(ctx, observed, qty)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVariantRepository) IncrementStock(ctx context.Context, variantID int64, qty int) (int64, error) {
	args := m.Called(ctx, variantID, qty)
	return args.Get(0).(int64), args.Error(1)
}

// MockTxManager вызывает fn с мок-репозиториями без настоящей транзакции
type MockTxManager struct {
	Repos repository.Repositories

	mu    sync.Mutex
	calls int
}

func NewMockTxManager(orders *MockOrderRepository, items *MockOrderItemRepository, variants *MockVariantRepository) *MockTxManager {
	return &MockTxManager{Repos: repository.Repositories{Orders: orders, Items: items, Variants: variants}}
}

func (m *MockTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return fn(ctx, m.Repos)
}

// Calls - сколько раз открывалась транзакция
func (m *MockTxManager) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockMessagePublisher мок для MessagePublisher (Kafka)
type MockMessagePublisher struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
