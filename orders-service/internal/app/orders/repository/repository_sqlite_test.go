package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"storefront/orders-service/internal/app/orders/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OrdersStoreSuite - настоящие запросы gorm на SQLite
type OrdersStoreSuite struct {
	suite.Suite
	db  *gorm.DB
	ctx context.Context
}

func TestOrdersStoreSuite(t *testing.T) {
	suite.Run(t, new(OrdersStoreSuite))
}

func (s *OrdersStoreSuite) SetupTest() {
	dsn := filepath.Join(s.T().TempDir(), "orders.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(
		&entity.Product{}, &entity.Image{}, &entity.Attribute{}, &entity.Variant{},
		&entity.VariantAttribute{}, &entity.Order{}, &entity.OrderItem{},
	))
	s.db = db
	s.ctx = context.Background()

	create := func(v interface{}) { s.Require().NoError(s.db.Create(v).Error) }
	create(&entity.Product{ID: 1, Name: "Футболка", Slug: "t-shirt"})
	create(&entity.Image{ID: 1, ProductID: 1, URL: "/media/t-shirt.jpg"})
	create(&entity.Attribute{ID: 1, Type: "size", Value: "M"})
	create(&entity.Variant{ID: 10, ProductID: 1, Status: "active", Price: decimal.RequireFromString("29.99"), Stock: 100, Version: 1})
	create(&entity.Variant{ID: 11, ProductID: 1, Status: "inactive", Price: decimal.RequireFromString("31.50"), Stock: 2, Version: 1})
	create(&entity.VariantAttribute{VariantID: 10, AttributeID: 1})
}

func (s *OrdersStoreSuite) stock(id int64) (int, int64) {
	var v entity.Variant
	s.Require().NoError(s.db.First(&v, id).Error)
	return v.Stock, v.Version
}

func (s *OrdersStoreSuite) TestGetForCheckout_JoinsProductName() {
	// Act
	got, err := NewVariantRepository(s.db).GetForCheckout(s.ctx, []int64{10, 11, 999})

	// Assert
	s.Require().NoError(err)
	s.Len(got, 2)
	s.Equal("Футболка", got[10].ProductName)
	s.Equal(100, got[10].Stock)
	s.Equal(int64(1), got[10].Version)
	s.Equal("29.99", got[10].Price.StringFixed(2))
	s.Equal("inactive", got[11].Status)
	s.NotContains(got, int64(999))
}

func (s *OrdersStoreSuite) TestDecrementStock_StaleVersionLoses() {
	repo := NewVariantRepository(s.db)
	snapshot, err := repo.GetForCheckout(s.ctx, []int64{10})
	s.Require().NoError(err)
	observed := snapshot[10]

	// Первое списание проходит и поднимает версию
	affected, err := repo.DecrementStock(s.ctx, observed, 10)
	s.Require().NoError(err)
	s.Equal(int64(1), affected)

	// Тот же снимок больше не подходит
	affected, err = repo.DecrementStock(s.ctx, observed, 10)
	s.Require().NoError(err)
	s.Equal(int64(0), affected)

	stock, version := s.stock(10)
	s.Equal(90, stock)
	s.Equal(int64(2), version)
}

func (s *OrdersStoreSuite) TestIncrementStock_MissingVariant() {
	affected, err := NewVariantRepository(s.db).IncrementStock(s.ctx, 999, 3)

	s.NoError(err)
	s.Equal(int64(0), affected)
}

func (s *OrdersStoreSuite) TestCreateAndGetWithDetails() {
	// Arrange
	orders := NewOrderRepository(s.db)
	order := &entity.Order{
		Status:          entity.OrderStatusPending,
		TotalAmount:     decimal.RequireFromString("59.98"),
		CustomerName:    "Иван",
		CustomerPhone:   "+79990000000",
		ShippingCity:    "Салехард",
		ShippingCountry: "RU",
		Items: []entity.OrderItem{
			{VariantID: 10, Quantity: 2, UnitPrice: decimal.RequireFromString("29.99"), TotalPrice: decimal.RequireFromString("59.98")},
		},
	}

	// Act
	s.Require().NoError(orders.Create(s.ctx, order))
	got, err := orders.GetWithDetails(s.ctx, order.ID)

	// Assert
	s.Require().NoError(err)
	s.Require().Len(got.Items, 1)
	item := got.Items[0]
	s.Equal(order.ID, item.OrderID)
	s.Require().NotNil(item.Variant)
	s.Require().NotNil(item.Variant.Product)
	s.Equal("Футболка", item.Variant.Product.Name)
	s.Len(item.Variant.Product.Images, 1)
	s.Require().Len(item.Variant.Attributes, 1)
	s.Equal("M", item.Variant.Attributes[0].Attribute.Value)
	s.Equal("59.98", got.TotalAmount.StringFixed(2))
}

func (s *OrdersStoreSuite) TestGetWithDetails_NotFound() {
	_, err := NewOrderRepository(s.db).GetWithDetails(s.ctx, 12345)

	s.ErrorIs(err, ErrOrderNotFound)
}

func (s *OrdersStoreSuite) TestWithinTransaction_RollsBackEverything() {
	// Arrange
	tx := NewTxManager(s.db)
	errBoom := errors.New("boom")

	// Act
	err := tx.WithinTransaction(s.ctx, func(ctx context.Context, repos Repositories) error {
		order := &entity.Order{
			Status: entity.OrderStatusPending, TotalAmount: decimal.NewFromInt(1),
			CustomerName: "x", CustomerPhone: "1", ShippingCity: "y", ShippingCountry: "RU",
		}
		if err := repos.Orders.Create(ctx, order); err != nil {
			return err
		}
		if _, err := repos.Variants.IncrementStock(ctx, 10, 5); err != nil {
			return err
		}
		return errBoom
	})

	// Assert
	s.ErrorIs(err, errBoom)
	var count int64
	s.Require().NoError(s.db.Model(&entity.Order{}).Count(&count).Error)
	s.Zero(count)
	stock, version := s.stock(10)
	s.Equal(100, stock)
	s.Equal(int64(1), version)
}

func (s *OrdersStoreSuite) TestUpdateStatus_OnlyFromObservedStatus() {
	// Arrange
	orders := NewOrderRepository(s.db)
	order := &entity.Order{
		Status: entity.OrderStatusPending, TotalAmount: decimal.NewFromInt(1),
		CustomerName: "x", CustomerPhone: "1", ShippingCity: "y", ShippingCountry: "RU",
	}
	s.Require().NoError(orders.Create(s.ctx, order))

	// Act
	order.Status = entity.OrderStatusCancelled
	first, err1 := orders.UpdateStatus(s.ctx, order, entity.OrderStatusPending)
	second, err2 := orders.UpdateStatus(s.ctx, order, entity.OrderStatusPending)

	// Assert
	s.NoError(err1)
	s.NoError(err2)
	s.True(first)
	s.False(second)

	items, err := NewOrderItemRepository(s.db).GetByOrderID(s.ctx, order.ID)
	s.NoError(err)
	s.Empty(items)
}
