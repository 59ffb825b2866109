package handler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"smartgadgets-system/internal/database/models"
	"smartgadgets-system/internal/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price int64, stock int) models.Product {
	t.Helper()
	sku := name + "-SKU"
	product := models.Product{
		Name:           name,
		Slug:           name,
		Price:          price,
		SKU:            &sku,
		StockQuantity:  stock,
		TrackInventory: true,
		Status:         models.ProductStatusActive,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func orderRequest(items ...OrderItemInput) CreateOrderRequest {
	return CreateOrderRequest{
		CustomerName:   "Ama Mensah",
		CustomerEmail:  "ama@example.com",
		CustomerPhone:  "+233201234567",
		ShippingMethod: models.ShippingMethodPickup,
		PaymentMethod:  "mobile_money",
		Items:          items,
	}
}

func TestCreateOrderComputesTotalsFromStoredPrices(t *testing.T) {
	db := newTestDB(t)
	s := NewOrderHandler(db, nil)
	ctx := context.Background()

	product := seedProduct(t, db, "widget", 2500, 10)

	// The submitted unit_price is deliberately wrong; the stored price
	// must win.
	req := orderRequest(OrderItemInput{ProductID: product.ID, Quantity: 2, UnitPrice: 1})

	order, err := s.CreateOrder(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, int64(5000), order.Subtotal)
	assert.Equal(t, int64(0), order.DiscountAmount)
	assert.Equal(t, order.Subtotal+order.ShippingAmount+order.TaxAmount-order.DiscountAmount, order.TotalAmount)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.NotEmpty(t, order.OrderNumber)

	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(2500), order.Items[0].UnitPrice)
	assert.Equal(t, int64(5000), order.Items[0].TotalPrice)
	assert.Equal(t, "widget", order.Items[0].ProductName)

	var updated models.Product
	require.NoError(t, db.First(&updated, product.ID).Error)
	assert.Equal(t, 8, updated.StockQuantity)
}

func TestCreateOrderInsufficientStockWritesNothing(t *testing.T) {
	db := newTestDB(t)
	s := NewOrderHandler(db, nil)
	ctx := context.Background()

	inStock := seedProduct(t, db, "plenty", 1000, 50)
	scarce := seedProduct(t, db, "scarce", 1000, 1)

	req := orderRequest(
		OrderItemInput{ProductID: inStock.ID, Quantity: 2},
		OrderItemInput{ProductID: scarce.ID, Quantity: 5},
	)

	_, err := s.CreateOrder(ctx, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient stock")

	var orderCount, itemCount, customerCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	db.Model(&models.OrderItem{}).Count(&itemCount)
	db.Model(&models.Customer{}).Count(&customerCount)
	assert.Zero(t, orderCount)
	assert.Zero(t, itemCount)
	assert.Zero(t, customerCount)

	var untouched models.Product
	require.NoError(t, db.First(&untouched, inStock.ID).Error)
	assert.Equal(t, 50, untouched.StockQuantity)
}

func TestCreateOrderInactiveProductRejected(t *testing.T) {
	db := newTestDB(t)
	s := NewOrderHandler(db, nil)

	product := seedProduct(t, db, "retired", 1000, 5)
	require.NoError(t, db.Model(&product).Update("status", models.ProductStatusDiscontinued).Error)

	_, err := s.CreateOrder(context.Background(), orderRequest(OrderItemInput{ProductID: product.ID, Quantity: 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found or inactive")
}

func TestCreateOrderDepletionFlipsOutOfStock(t *testing.T) {
	db := newTestDB(t)
	s := NewOrderHandler(db, nil)

	product := seedProduct(t, db, "last-units", 900, 3)

	_, err := s.CreateOrder(context.Background(), orderRequest(OrderItemInput{ProductID: product.ID, Quantity: 3}))
	require.NoError(t, err)

	var updated models.Product
	require.NoError(t, db.First(&updated, product.ID).Error)
	assert.Equal(t, 0, updated.StockQuantity)
	assert.Equal(t, models.ProductStatusOutOfStock, updated.Status)
}

func TestCreateOrderConcurrentOversell(t *testing.T) {
	db := newTestDB(t)
	// Every pooled connection to in-memory sqlite opens its own database,
	// so both goroutines have to share one; sqlite then serializes the
	// two transactions and the conditional decrement decides the loser.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s := NewOrderHandler(db, nil)
	ctx := context.Background()

	product := seedProduct(t, db, "contested", 1500, 3)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateOrder(ctx, orderRequest(OrderItemInput{ProductID: product.ID, Quantity: 2}))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var failures int
	for err := range errs {
		if err != nil {
			failures++
			assert.Contains(t, err.Error(), "insufficient stock")
		}
	}
	assert.Equal(t, 1, failures)

	var updated models.Product
	require.NoError(t, db.First(&updated, product.ID).Error)
	assert.Equal(t, 1, updated.StockQuantity)

	var orderCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	assert.Equal(t, int64(1), orderCount)
}

func TestCreateOrderAppliesPercentageDiscount(t *testing.T) {
	db := newTestDB(t)
	s := NewOrderHandler(db, nil)
	ctx := context.Background()

	product := seedProduct(t, db, "sale-item", 10000, 10)
	code := "SAVE10"
	require.NoError(t, db.Create(&models.DiscountCode{
		Code:     code,
		Type:     models.DiscountTypePercentage,
		Value:    10,
		IsActive: true,
	}).Error)

	req := orderRequest(OrderItemInput{ProductID: product.ID, Quantity: 1})
	req.DiscountCode = &code

	order, err := s.CreateOrder(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, int64(10000), order.Subtotal)
	assert.Equal(t, int64(1000), order.DiscountAmount)
	assert.Equal(t, int64(9000), order.TotalAmount)
}

func TestCreateOrderIgnoresIneligibleDiscount(t *testing.T) {
	db := newTestDB(t)
	s := NewOrderHandler(db, nil)
	ctx := context.Background()

	product := seedProduct(t, db, "cheap-item", 500, 10)
	expired := time.Now().Add(-time.Hour)
	code := "EXPIRED"
	require.NoError(t, db.Create(&models.DiscountCode{
		Code:      code,
		Type:      models.DiscountTypePercentage,
		Value:     50,
		IsActive:  true,
		ExpiresAt: &expired,
	}).Error)

	req := orderRequest(OrderItemInput{ProductID: product.ID, Quantity: 1})
	req.DiscountCode = &code

	// A bad code never blocks checkout; it just contributes nothing.
	order, err := s.CreateOrder(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(0), order.DiscountAmount)
	assert.Equal(t, int64(500), order.TotalAmount)
}

func TestCreateOrderReusesCustomerByEmail(t *testing.T) {
	db := newTestDB(t)
	s := NewOrderHandler(db, nil)
	ctx := context.Background()

	product := seedProduct(t, db, "repeat-buy", 700, 20)

	first, err := s.CreateOrder(ctx, orderRequest(OrderItemInput{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)
	second, err := s.CreateOrder(ctx, orderRequest(OrderItemInput{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)

	assert.Equal(t, first.CustomerID, second.CustomerID)

	var customerCount int64
	db.Model(&models.Customer{}).Count(&customerCount)
	assert.Equal(t, int64(1), customerCount)

	var customer models.Customer
	require.NoError(t, db.First(&customer, first.CustomerID).Error)
	require.NotNil(t, customer.Notes)
	assert.Contains(t, *customer.Notes, "Phone: +233201234567")
}

func TestCreateOrderValidatesRequest(t *testing.T) {
	db := newTestDB(t)
	s := NewOrderHandler(db, nil)
	ctx := context.Background()

	req := orderRequest()
	_, err := s.CreateOrder(ctx, req)
	assert.ErrorIs(t, err, utils.ErrInvalid)

	req = orderRequest(OrderItemInput{ProductID: 1, Quantity: 1})
	req.CustomerEmail = ""
	_, err = s.CreateOrder(ctx, req)
	assert.ErrorIs(t, err, utils.ErrInvalid)

	req = orderRequest(OrderItemInput{ProductID: 1, Quantity: 1})
	req.ShippingMethod = "teleport"
	_, err = s.CreateOrder(ctx, req)
	assert.ErrorIs(t, err, utils.ErrInvalid)
}

func TestListOrdersFiltersAndCounts(t *testing.T) {
	db := newTestDB(t)
	s := NewOrderHandler(db, nil)
	ctx := context.Background()

	product := seedProduct(t, db, "list-item", 1000, 100)

	for i := 0; i < 3; i++ {
		_, err := s.CreateOrder(ctx, orderRequest(OrderItemInput{ProductID: product.ID, Quantity: 1}))
		require.NoError(t, err)
	}

	orders, total, err := s.ListOrders(ctx, ListOrdersOptions{Status: models.OrderStatusPending, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, orders, 2)
	for _, o := range orders {
		assert.Len(t, o.Items, 1)
	}

	orders, total, err = s.ListOrders(ctx, ListOrdersOptions{Status: models.OrderStatusDelivered, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, orders)
}

func TestGetOrderByNumber(t *testing.T) {
	db := newTestDB(t)
	s := NewOrderHandler(db, nil)
	ctx := context.Background()

	product := seedProduct(t, db, "tracked", 1200, 5)
	created, err := s.CreateOrder(ctx, orderRequest(OrderItemInput{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)

	found, err := s.GetOrderByNumber(ctx, created.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = s.GetOrderByNumber(ctx, "ORD-00000000-FFFFFF")
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestGetOrderStats(t *testing.T) {
	db := newTestDB(t)
	s := NewOrderHandler(db, nil)
	ctx := context.Background()

	product := seedProduct(t, db, "stat-item", 2000, 50)

	order, err := s.CreateOrder(ctx, orderRequest(OrderItemInput{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = s.UpdatePaymentStatus(ctx, order.ID, models.PaymentStatusPaid, nil)
	require.NoError(t, err)
	_, err = s.CreateOrder(ctx, orderRequest(OrderItemInput{ProductID: product.ID, Quantity: 2}))
	require.NoError(t, err)

	stats, err := s.GetOrderStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, int64(2), stats.PendingOrders)
	assert.Equal(t, int64(2000), stats.TotalRevenue)
}
