package models

import "time"

// Order statuses.
const (
	OrderStatusPending        = "pending"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusReadyForPickup = "ready_for_pickup"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
	OrderStatusRefunded       = "refunded"
)

// Payment statuses.
const (
	PaymentStatusPending           = "pending"
	PaymentStatusPaid              = "paid"
	PaymentStatusFailed            = "failed"
	PaymentStatusRefunded          = "refunded"
	PaymentStatusPartiallyRefunded = "partially_refunded"
)

// Shipping methods.
const (
	ShippingMethodPickup   = "pickup"
	ShippingMethodDelivery = "delivery"
)

// Discount code types.
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

type Order struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string `gorm:"size:40;uniqueIndex;not null" json:"order_number"`
	CustomerID  int64  `gorm:"index;not null" json:"customer_id"`

	// Contact snapshot at order time, independent of the customer row.
	CustomerName  string `gorm:"size:255;not null" json:"customer_name"`
	CustomerEmail string `gorm:"size:255;not null;index" json:"customer_email"`
	CustomerPhone string `gorm:"size:50;not null" json:"customer_phone"`

	Subtotal       int64 `gorm:"not null" json:"subtotal"`
	TaxAmount      int64 `gorm:"not null" json:"tax_amount"`
	ShippingAmount int64 `gorm:"not null" json:"shipping_amount"`
	DiscountAmount int64 `gorm:"not null" json:"discount_amount"`
	TotalAmount    int64 `gorm:"not null" json:"total_amount"`

	ShippingMethod       string  `gorm:"size:20;not null" json:"shipping_method"`
	ShippingAddress      *string `gorm:"type:text" json:"shipping_address,omitempty"`
	PickupLocation       *string `gorm:"size:255" json:"pickup_location,omitempty"`
	DeliveryInstructions *string `gorm:"type:text" json:"delivery_instructions,omitempty"`

	PaymentMethod    string  `gorm:"size:32;not null" json:"payment_method"`
	PaymentStatus    string  `gorm:"size:32;not null;default:'pending';index" json:"payment_status"`
	PaymentReference *string `gorm:"size:100" json:"payment_reference,omitempty"`

	Status    string    `gorm:"size:32;not null;default:'pending';index" json:"status"`
	OrderDate time.Time `gorm:"not null" json:"order_date"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	ReadyAt     *time.Time `json:"ready_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	AdminNotes     *string `gorm:"type:text" json:"admin_notes,omitempty"`
	CustomerNotes  *string `gorm:"type:text" json:"customer_notes,omitempty"`
	TrackingNumber *string `gorm:"size:100" json:"tracking_number,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

// OrderItem rows are immutable once written; corrections happen through
// order status and payment transitions, never item edits.
type OrderItem struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64     `gorm:"index;not null" json:"order_id"`
	ProductID   int64     `gorm:"index;not null" json:"product_id"`
	ProductName string    `gorm:"size:255;not null" json:"product_name"`
	ProductSKU  *string   `gorm:"size:100" json:"product_sku,omitempty"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	UnitPrice   int64     `gorm:"not null" json:"unit_price"`
	TotalPrice  int64     `gorm:"not null" json:"total_price"`
	CreatedAt   time.Time `json:"created_at"`
}

type DiscountCode struct {
	ID                    int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code                  string     `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Type                  string     `gorm:"size:20;not null" json:"type"`
	Value                 int64      `gorm:"not null" json:"value"`
	MinimumOrderAmount    int64      `gorm:"not null;default:0" json:"minimum_order_amount"`
	MaximumDiscountAmount *int64     `json:"maximum_discount_amount,omitempty"`
	StartsAt              *time.Time `json:"starts_at,omitempty"`
	ExpiresAt             *time.Time `json:"expires_at,omitempty"`
	IsActive              bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}
