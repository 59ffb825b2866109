package handler

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"smartgadgets-system/internal/database/models"
)

// resolveDiscount looks up a code and returns the discount amount in cents.
// Codes that are missing, inactive, outside their window, or below the
// minimum order amount yield zero rather than an error: a bad code never
// blocks checkout.
func resolveDiscount(tx *gorm.DB, code string, subtotal int64) (int64, error) {
	if code == "" {
		return 0, nil
	}

	var discount models.DiscountCode
	err := tx.Where("code = ? AND is_active = ?", code, true).First(&discount).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}

	now := time.Now()
	if discount.StartsAt != nil && discount.StartsAt.After(now) {
		return 0, nil
	}
	if discount.ExpiresAt != nil && discount.ExpiresAt.Before(now) {
		return 0, nil
	}
	if subtotal < discount.MinimumOrderAmount {
		return 0, nil
	}

	return computeDiscountAmount(discount, subtotal), nil
}

func computeDiscountAmount(discount models.DiscountCode, subtotal int64) int64 {
	switch discount.Type {
	case models.DiscountTypePercentage:
		amount := decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(discount.Value)).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
		if discount.MaximumDiscountAmount != nil && amount > *discount.MaximumDiscountAmount {
			amount = *discount.MaximumDiscountAmount
		}
		if amount > subtotal {
			amount = subtotal
		}
		return amount
	case models.DiscountTypeFixed:
		amount := discount.Value
		if amount > subtotal {
			amount = subtotal
		}
		return amount
	default:
		return 0
	}
}
