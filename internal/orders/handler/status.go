package handler

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"smartgadgets-system/internal/database/models"
	"smartgadgets-system/internal/utils"
)

// Allowed order status transitions. Cancelled and refunded are terminal.
var orderTransitions = map[string][]string{
	models.OrderStatusPending:        {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed:      {models.OrderStatusReadyForPickup, models.OrderStatusOutForDelivery, models.OrderStatusCancelled},
	models.OrderStatusReadyForPickup: {models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusOutForDelivery: {models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusDelivered:      {models.OrderStatusRefunded},
	models.OrderStatusCancelled:      {},
	models.OrderStatusRefunded:       {},
}

// Allowed payment status transitions. Refunded is terminal.
var paymentTransitions = map[string][]string{
	models.PaymentStatusPending:           {models.PaymentStatusPaid, models.PaymentStatusFailed},
	models.PaymentStatusFailed:            {models.PaymentStatusPending, models.PaymentStatusPaid},
	models.PaymentStatusPaid:              {models.PaymentStatusRefunded, models.PaymentStatusPartiallyRefunded},
	models.PaymentStatusPartiallyRefunded: {models.PaymentStatusRefunded},
	models.PaymentStatusRefunded:          {},
}

func canTransition(table map[string][]string, from, to string) bool {
	for _, allowed := range table[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *OrderHandler) UpdateOrderStatus(ctx context.Context, id int64, status string, adminNotes *string) (*models.Order, error) {
	if id <= 0 {
		return nil, utils.ErrInvalid
	}
	if _, known := orderTransitions[status]; !known {
		return nil, fmt.Errorf("%w: unknown order status %q", utils.ErrInvalid, status)
	}

	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}

	if !canTransition(orderTransitions, order.Status, status) {
		return nil, fmt.Errorf("%w: illegal status transition %s -> %s", utils.ErrConflict, order.Status, status)
	}

	now := time.Now()
	updates := map[string]interface{}{"status": status}
	switch status {
	case models.OrderStatusConfirmed:
		updates["confirmed_at"] = now
	case models.OrderStatusReadyForPickup:
		updates["ready_at"] = now
	case models.OrderStatusDelivered:
		updates["delivered_at"] = now
	}
	if adminNotes != nil {
		updates["admin_notes"] = *adminNotes
	}

	if err := s.db.WithContext(ctx).Model(&order).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.invalidateStatsCache(ctx)

	return s.GetOrder(ctx, id)
}

func (s *OrderHandler) UpdatePaymentStatus(ctx context.Context, id int64, paymentStatus string, paymentReference *string) (*models.Order, error) {
	if id <= 0 {
		return nil, utils.ErrInvalid
	}
	if _, known := paymentTransitions[paymentStatus]; !known {
		return nil, fmt.Errorf("%w: unknown payment status %q", utils.ErrInvalid, paymentStatus)
	}

	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}

	if !canTransition(paymentTransitions, order.PaymentStatus, paymentStatus) {
		return nil, fmt.Errorf("%w: illegal payment transition %s -> %s", utils.ErrConflict, order.PaymentStatus, paymentStatus)
	}

	updates := map[string]interface{}{"payment_status": paymentStatus}
	if paymentReference != nil {
		updates["payment_reference"] = *paymentReference
	}

	if err := s.db.WithContext(ctx).Model(&order).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.invalidateStatsCache(ctx)

	return s.GetOrder(ctx, id)
}
