package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartgadgets-system/internal/database/models"
)

func i64(v int64) *int64 { return &v }

func TestComputeDiscountAmount(t *testing.T) {
	tests := []struct {
		name     string
		discount models.DiscountCode
		subtotal int64
		want     int64
	}{
		{
			name:     "percentage",
			discount: models.DiscountCode{Type: models.DiscountTypePercentage, Value: 10},
			subtotal: 10000,
			want:     1000,
		},
		{
			name:     "percentage rounds half up",
			discount: models.DiscountCode{Type: models.DiscountTypePercentage, Value: 15},
			subtotal: 999,
			want:     150,
		},
		{
			name:     "percentage capped by maximum",
			discount: models.DiscountCode{Type: models.DiscountTypePercentage, Value: 50, MaximumDiscountAmount: i64(2000)},
			subtotal: 10000,
			want:     2000,
		},
		{
			name:     "fixed",
			discount: models.DiscountCode{Type: models.DiscountTypeFixed, Value: 1500},
			subtotal: 10000,
			want:     1500,
		},
		{
			name:     "fixed never exceeds subtotal",
			discount: models.DiscountCode{Type: models.DiscountTypeFixed, Value: 5000},
			subtotal: 3000,
			want:     3000,
		},
		{
			name:     "unknown type",
			discount: models.DiscountCode{Type: "bogo", Value: 10},
			subtotal: 10000,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, computeDiscountAmount(tt.discount, tt.subtotal))
		})
	}
}

func TestResolveDiscount(t *testing.T) {
	db := newTestDB(t)

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	codes := []models.DiscountCode{
		{Code: "LIVE", Type: models.DiscountTypePercentage, Value: 10, IsActive: true},
		{Code: "OFF", Type: models.DiscountTypePercentage, Value: 10, IsActive: false},
		{Code: "SOON", Type: models.DiscountTypePercentage, Value: 10, IsActive: true, StartsAt: &future},
		{Code: "GONE", Type: models.DiscountTypePercentage, Value: 10, IsActive: true, ExpiresAt: &past},
		{Code: "BIGSPEND", Type: models.DiscountTypeFixed, Value: 500, IsActive: true, MinimumOrderAmount: 5000},
	}
	for i := range codes {
		require.NoError(t, db.Create(&codes[i]).Error)
	}

	tests := []struct {
		name     string
		code     string
		subtotal int64
		want     int64
	}{
		{"active code applies", "LIVE", 10000, 1000},
		{"inactive code ignored", "OFF", 10000, 0},
		{"not yet started", "SOON", 10000, 0},
		{"expired", "GONE", 10000, 0},
		{"below minimum order", "BIGSPEND", 4999, 0},
		{"at minimum order", "BIGSPEND", 5000, 500},
		{"unknown code", "NOPE", 10000, 0},
		{"empty code", "", 10000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveDiscount(db, tt.code, tt.subtotal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
