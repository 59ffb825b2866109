package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"smartgadgets-system/internal/database/models"
	"smartgadgets-system/internal/utils"
)

const (
	ORDER_STATS_CACHE_KEY = "orders:stats"
	STATS_CACHE_TTL       = 5 * time.Minute
)

type OrderHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewOrderHandler(db *gorm.DB, redisClient *redis.Client) *OrderHandler {
	return &OrderHandler{
		db:    db,
		redis: redisClient,
	}
}

func (s *OrderHandler) invalidateStatsCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Del(ctx, ORDER_STATS_CACHE_KEY)
}

type OrderItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	// Accepted for cart compatibility but never trusted: every line is
	// priced from the stored product record at order time.
	UnitPrice int64 `json:"unit_price"`
}

type CreateOrderRequest struct {
	CustomerID           *int64           `json:"customer_id"`
	CustomerName         string           `json:"customer_name"`
	CustomerEmail        string           `json:"customer_email"`
	CustomerPhone        string           `json:"customer_phone"`
	ShippingMethod       string           `json:"shipping_method"`
	ShippingAddress      *string          `json:"shipping_address"`
	PickupLocation       *string          `json:"pickup_location"`
	DeliveryInstructions *string          `json:"delivery_instructions"`
	PaymentMethod        string           `json:"payment_method"`
	CustomerNotes        *string          `json:"customer_notes"`
	Items                []OrderItemInput `json:"items"`
	DiscountCode         *string          `json:"discount_code"`
}

type ListOrdersOptions struct {
	Status         string
	PaymentStatus  string
	ShippingMethod string
	Search         string
	DateFrom       string
	DateTo         string
	Limit          int
	Offset         int
}

func (s *OrderHandler) listQuery(opts ListOrdersOptions) *gorm.DB {
	query := s.db.Model(&models.Order{})

	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	if opts.PaymentStatus != "" {
		query = query.Where("payment_status = ?", opts.PaymentStatus)
	}
	if opts.ShippingMethod != "" {
		query = query.Where("shipping_method = ?", opts.ShippingMethod)
	}
	if opts.Search != "" {
		searchTerm := "%" + opts.Search + "%"
		query = query.Where(
			"order_number LIKE ? OR customer_name LIKE ? OR customer_email LIKE ?",
			searchTerm, searchTerm, searchTerm,
		)
	}
	if opts.DateFrom != "" {
		query = query.Where("DATE(order_date) >= ?", opts.DateFrom)
	}
	if opts.DateTo != "" {
		query = query.Where("DATE(order_date) <= ?", opts.DateTo)
	}

	return query
}

func (s *OrderHandler) ListOrders(ctx context.Context, opts ListOrdersOptions) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := s.listQuery(opts).WithContext(ctx)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if opts.Limit > 0 {
		query = query.Offset(opts.Offset).Limit(opts.Limit)
	}

	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.id ASC")
		}).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (s *OrderHandler) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	if id <= 0 {
		return nil, utils.ErrInvalid
	}

	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.id ASC")
		}).
		First(&order, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}

	return &order, nil
}

func (s *OrderHandler) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	if orderNumber == "" {
		return nil, utils.ErrInvalid
	}

	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.id ASC")
		}).
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}

	return &order, nil
}

func validateCreateOrder(req CreateOrderRequest) error {
	var missing []string
	if req.CustomerName == "" {
		missing = append(missing, "customer_name")
	}
	if req.CustomerEmail == "" {
		missing = append(missing, "customer_email")
	}
	if req.CustomerPhone == "" {
		missing = append(missing, "customer_phone")
	}
	if req.ShippingMethod == "" {
		missing = append(missing, "shipping_method")
	}
	if req.PaymentMethod == "" {
		missing = append(missing, "payment_method")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", utils.ErrInvalid, strings.Join(missing, ", "))
	}

	if req.ShippingMethod != models.ShippingMethodPickup && req.ShippingMethod != models.ShippingMethodDelivery {
		return fmt.Errorf("%w: unknown shipping method %q", utils.ErrInvalid, req.ShippingMethod)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", utils.ErrInvalid)
	}
	for _, item := range req.Items {
		if item.ProductID <= 0 || item.Quantity <= 0 {
			return fmt.Errorf("%w: each item needs a product_id and a positive quantity", utils.ErrInvalid)
		}
	}
	return nil
}

type validatedItem struct {
	ProductID      int64
	ProductName    string
	ProductSKU     *string
	Quantity       int
	UnitPrice      int64
	TotalPrice     int64
	TrackInventory bool
}

// CreateOrder runs the whole creation sequence inside a single transaction:
// item validation and pricing, discount resolution, customer upsert, the
// order insert, and the per-item inserts with conditional stock decrements.
// Any failure rolls everything back; no partial order is ever committed.
func (s *OrderHandler) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if err := validateCreateOrder(req); err != nil {
		return nil, err
	}

	var orderID int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subtotal int64
		validated := make([]validatedItem, 0, len(req.Items))

		for _, item := range req.Items {
			var product models.Product
			err := tx.Where("id = ? AND status = ?", item.ProductID, models.ProductStatusActive).
				First(&product).Error
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return fmt.Errorf("product %d not found or inactive", item.ProductID)
				}
				return err
			}

			if product.TrackInventory && product.StockQuantity < item.Quantity {
				return fmt.Errorf("insufficient stock for product %s", product.Name)
			}

			// The stored price is authoritative; the submitted
			// unit_price is ignored.
			lineTotal := int64(item.Quantity) * product.Price
			subtotal += lineTotal

			validated = append(validated, validatedItem{
				ProductID:      product.ID,
				ProductName:    product.Name,
				ProductSKU:     product.SKU,
				Quantity:       item.Quantity,
				UnitPrice:      product.Price,
				TotalPrice:     lineTotal,
				TrackInventory: product.TrackInventory,
			})
		}

		var discountAmount int64
		if req.DiscountCode != nil {
			var err error
			discountAmount, err = resolveDiscount(tx, *req.DiscountCode, subtotal)
			if err != nil {
				return err
			}
		}

		// Shipping and tax are policy zeros for now.
		var shippingAmount, taxAmount int64
		totalAmount := subtotal + shippingAmount + taxAmount - discountAmount

		customerID, err := resolveCustomer(tx, req)
		if err != nil {
			return err
		}

		now := time.Now()
		order := models.Order{
			OrderNumber:          newOrderNumber(),
			CustomerID:           customerID,
			CustomerName:         req.CustomerName,
			CustomerEmail:        req.CustomerEmail,
			CustomerPhone:        req.CustomerPhone,
			Subtotal:             subtotal,
			TaxAmount:            taxAmount,
			ShippingAmount:       shippingAmount,
			DiscountAmount:       discountAmount,
			TotalAmount:          totalAmount,
			ShippingMethod:       req.ShippingMethod,
			ShippingAddress:      req.ShippingAddress,
			PickupLocation:       req.PickupLocation,
			DeliveryInstructions: req.DeliveryInstructions,
			PaymentMethod:        req.PaymentMethod,
			PaymentStatus:        models.PaymentStatusPending,
			Status:               models.OrderStatusPending,
			OrderDate:            now,
			CustomerNotes:        req.CustomerNotes,
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for _, item := range validated {
			orderItem := models.OrderItem{
				OrderID:     order.ID,
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				ProductSKU:  item.ProductSKU,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				TotalPrice:  item.TotalPrice,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}

			if !item.TrackInventory {
				continue
			}

			// Conditional decrement guards against a concurrent order
			// draining the same stock between check and write; zero
			// rows affected means someone else got there first.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock_quantity >= ?", item.ProductID, item.Quantity).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("insufficient stock for product %s", item.ProductName)
			}

			err := tx.Model(&models.Product{}).
				Where("id = ? AND stock_quantity = 0 AND status = ?", item.ProductID, models.ProductStatusActive).
				Update("status", models.ProductStatusOutOfStock).Error
			if err != nil {
				return err
			}
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStatsCache(ctx)

	return s.GetOrder(ctx, orderID)
}

// resolveCustomer reuses a supplied customer id, falls back to an email
// lookup, and finally inserts a new customer. There is no phone column, so
// the phone lands in the notes field.
func resolveCustomer(tx *gorm.DB, req CreateOrderRequest) (int64, error) {
	if req.CustomerID != nil {
		return *req.CustomerID, nil
	}

	var existing models.Customer
	err := tx.Where("email = ?", req.CustomerEmail).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, err
	}

	notes := fmt.Sprintf("Phone: %s", req.CustomerPhone)
	customer := models.Customer{
		Name:  req.CustomerName,
		Email: req.CustomerEmail,
		Notes: &notes,
	}
	if err := tx.Create(&customer).Error; err != nil {
		return 0, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer.ID, nil
}

func newOrderNumber() string {
	b := make([]byte, 3)
	_, _ = rand.Read(b)
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(b)))
}

type OrderStats struct {
	TotalOrders     int64 `json:"total_orders"`
	PendingOrders   int64 `json:"pending_orders"`
	ConfirmedOrders int64 `json:"confirmed_orders"`
	DeliveredOrders int64 `json:"delivered_orders"`
	TotalRevenue    int64 `json:"total_revenue"`
	TodayOrders     int64 `json:"today_orders"`
	TodayRevenue    int64 `json:"today_revenue"`
}

func (s *OrderHandler) GetOrderStats(ctx context.Context) (*OrderStats, error) {
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, ORDER_STATS_CACHE_KEY).Result(); err == nil {
			var cached OrderStats
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			log.Printf("Redis error on GET %s: %v. Falling back to DB.", ORDER_STATS_CACHE_KEY, err)
		}
	}

	var stats OrderStats
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select(
			"COUNT(*) AS total_orders, " +
				"COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending_orders, " +
				"COALESCE(SUM(CASE WHEN status = 'confirmed' THEN 1 ELSE 0 END), 0) AS confirmed_orders, " +
				"COALESCE(SUM(CASE WHEN status = 'delivered' THEN 1 ELSE 0 END), 0) AS delivered_orders, " +
				"COALESCE(SUM(CASE WHEN payment_status = 'paid' THEN total_amount ELSE 0 END), 0) AS total_revenue, " +
				"COALESCE(SUM(CASE WHEN DATE(order_date) = CURRENT_DATE THEN 1 ELSE 0 END), 0) AS today_orders, " +
				"COALESCE(SUM(CASE WHEN DATE(order_date) = CURRENT_DATE AND payment_status = 'paid' THEN total_amount ELSE 0 END), 0) AS today_revenue",
		).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if jsonData, err := json.Marshal(&stats); err == nil {
			if err := s.redis.Set(ctx, ORDER_STATS_CACHE_KEY, jsonData, STATS_CACHE_TTL).Err(); err != nil {
				log.Printf("Failed to set cache for key %s: %v", ORDER_STATS_CACHE_KEY, err)
			}
		}
	}

	return &stats, nil
}
