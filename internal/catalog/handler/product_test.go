package handler

import (
	"context"
	"encoding/json"
	"testing"

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

func strptr(s string) *string { return &s }
func i64ptr(v int64) *int64   { return &v }

func createTestProduct(t *testing.T, s *ProductHandler, req CreateProductRequest) *models.Product {
	t.Helper()
	product, err := s.CreateProduct(context.Background(), req)
	require.NoError(t, err)
	return product
}

func baseProductRequest(name string, price int64) CreateProductRequest {
	return CreateProductRequest{
		Name:          name,
		Slug:          name,
		Price:         &price,
		StockQuantity: 10,
	}
}

func TestCreateProductDefaults(t *testing.T) {
	db := newTestDB(t)
	s := NewProductHandler(db, nil)

	req := baseProductRequest("phone-x", 49900)
	req.Brand = strptr("Acme")
	req.Attributes = []AttributeInput{
		{Name: "Color", Value: "Black", SortOrder: 1},
		{Name: "Storage", Value: "128GB", SortOrder: 2},
	}

	product := createTestProduct(t, s, req)

	assert.Equal(t, models.ProductStatusActive, product.Status)
	assert.True(t, product.TrackInventory)
	assert.Equal(t, 5, product.LowStockThreshold)
	require.Len(t, product.Attributes, 2)
	assert.Equal(t, "Color", product.Attributes[0].AttributeName)
}

func TestCreateProductValidation(t *testing.T) {
	db := newTestDB(t)
	s := NewProductHandler(db, nil)
	ctx := context.Background()

	_, err := s.CreateProduct(ctx, CreateProductRequest{Name: "no-price", Slug: "no-price"})
	assert.ErrorIs(t, err, utils.ErrInvalid)

	negative := int64(-100)
	_, err = s.CreateProduct(ctx, CreateProductRequest{Name: "neg", Slug: "neg", Price: &negative})
	assert.ErrorIs(t, err, utils.ErrInvalid)

	price := int64(100)
	bad := "archived"
	_, err = s.CreateProduct(ctx, CreateProductRequest{Name: "s", Slug: "s", Price: &price, Status: &bad})
	assert.ErrorIs(t, err, utils.ErrInvalid)
}

func TestUpdateProductPartial(t *testing.T) {
	db := newTestDB(t)
	s := NewProductHandler(db, nil)
	ctx := context.Background()

	req := baseProductRequest("laptop-z", 250000)
	req.Brand = strptr("Acme")
	req.Description = strptr("workhorse")
	product := createTestProduct(t, s, req)

	// Only price is present in the payload; everything else stays put.
	var update UpdateProductRequest
	require.NoError(t, json.Unmarshal([]byte(`{"price": 500}`), &update))

	updated, err := s.UpdateProduct(ctx, product.ID, update)
	require.NoError(t, err)
	assert.Equal(t, int64(500), updated.Price)
	assert.Equal(t, "laptop-z", updated.Name)
	require.NotNil(t, updated.Brand)
	assert.Equal(t, "Acme", *updated.Brand)
	require.NotNil(t, updated.Description)
}

func TestUpdateProductExplicitNullClearsField(t *testing.T) {
	db := newTestDB(t)
	s := NewProductHandler(db, nil)
	ctx := context.Background()

	category, err := NewCategoryHandler(db, nil).CreateCategory(ctx, CreateCategoryRequest{Name: "gadgets", Slug: "gadgets"})
	require.NoError(t, err)

	req := baseProductRequest("tablet-q", 99900)
	req.CategoryID = &category.ID
	product := createTestProduct(t, s, req)
	require.NotNil(t, product.CategoryID)

	var clearCategory UpdateProductRequest
	require.NoError(t, json.Unmarshal([]byte(`{"category_id": null}`), &clearCategory))
	updated, err := s.UpdateProduct(ctx, product.ID, clearCategory)
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)

	// Omission must leave the now-cleared field alone.
	var priceOnly UpdateProductRequest
	require.NoError(t, json.Unmarshal([]byte(`{"price": 88800}`), &priceOnly))
	updated, err = s.UpdateProduct(ctx, product.ID, priceOnly)
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)
}

func TestUpdateProductRejectsNegativeStock(t *testing.T) {
	db := newTestDB(t)
	s := NewProductHandler(db, nil)
	ctx := context.Background()

	product := createTestProduct(t, s, baseProductRequest("counted", 1000))

	var negative UpdateProductRequest
	require.NoError(t, json.Unmarshal([]byte(`{"stock_quantity": -7}`), &negative))
	_, err := s.UpdateProduct(ctx, product.ID, negative)
	assert.ErrorIs(t, err, utils.ErrInvalid)

	var null UpdateProductRequest
	require.NoError(t, json.Unmarshal([]byte(`{"stock_quantity": null}`), &null))
	_, err = s.UpdateProduct(ctx, product.ID, null)
	assert.ErrorIs(t, err, utils.ErrInvalid)

	var stored models.Product
	require.NoError(t, db.First(&stored, product.ID).Error)
	assert.Equal(t, 10, stored.StockQuantity)
}

func TestUpdateProductRejectsNullPrice(t *testing.T) {
	db := newTestDB(t)
	s := NewProductHandler(db, nil)

	product := createTestProduct(t, s, baseProductRequest("priced", 1000))

	var update UpdateProductRequest
	require.NoError(t, json.Unmarshal([]byte(`{"price": null}`), &update))
	_, err := s.UpdateProduct(context.Background(), product.ID, update)
	assert.ErrorIs(t, err, utils.ErrInvalid)
}

func TestUpdateProductReplacesAttributesWholesale(t *testing.T) {
	db := newTestDB(t)
	s := NewProductHandler(db, nil)
	ctx := context.Background()

	req := baseProductRequest("attributed", 2000)
	req.Attributes = []AttributeInput{
		{Name: "Color", Value: "Red"},
		{Name: "Size", Value: "M"},
	}
	product := createTestProduct(t, s, req)
	require.Len(t, product.Attributes, 2)

	update := UpdateProductRequest{
		Attributes: &[]AttributeInput{{Name: "Color", Value: "Blue"}},
	}
	updated, err := s.UpdateProduct(ctx, product.ID, update)
	require.NoError(t, err)
	require.Len(t, updated.Attributes, 1)
	assert.Equal(t, "Blue", updated.Attributes[0].AttributeValue)

	empty := UpdateProductRequest{Attributes: &[]AttributeInput{}}
	updated, err = s.UpdateProduct(ctx, product.ID, empty)
	require.NoError(t, err)
	assert.Empty(t, updated.Attributes)
}

func TestUpdateStockStatusTransitions(t *testing.T) {
	db := newTestDB(t)
	s := NewProductHandler(db, nil)
	ctx := context.Background()

	product := createTestProduct(t, s, baseProductRequest("stocked", 3000))

	updated, err := s.UpdateStock(ctx, product.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.StockQuantity)
	assert.Equal(t, models.ProductStatusOutOfStock, updated.Status)

	updated, err = s.UpdateStock(ctx, product.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.StockQuantity)
	assert.Equal(t, models.ProductStatusActive, updated.Status)

	// Restocking never resurrects a product that was deliberately
	// deactivated.
	var deactivate UpdateProductRequest
	require.NoError(t, json.Unmarshal([]byte(`{"status": "inactive"}`), &deactivate))
	_, err = s.UpdateProduct(ctx, product.ID, deactivate)
	require.NoError(t, err)

	updated, err = s.UpdateStock(ctx, product.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusInactive, updated.Status)

	_, err = s.UpdateStock(ctx, product.ID, -1)
	assert.ErrorIs(t, err, utils.ErrInvalid)

	_, err = s.UpdateStock(ctx, 99999, 5)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestListProductsFilters(t *testing.T) {
	db := newTestDB(t)
	s := NewProductHandler(db, nil)
	ctx := context.Background()

	categories := NewCategoryHandler(db, nil)
	phones, err := categories.CreateCategory(ctx, CreateCategoryRequest{Name: "phones", Slug: "phones"})
	require.NoError(t, err)

	cheap := baseProductRequest("budget-phone", 10000)
	cheap.CategoryID = &phones.ID
	createTestProduct(t, s, cheap)

	expensive := baseProductRequest("flagship-phone", 500000)
	expensive.CategoryID = &phones.ID
	expensive.IsFeatured = true
	createTestProduct(t, s, expensive)

	other := baseProductRequest("toaster", 8000)
	createTestProduct(t, s, other)

	products, total, err := s.ListProducts(ctx, ListProductsOptions{CategorySlug: "phones", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, products, 2)

	featured := true
	products, total, err = s.ListProducts(ctx, ListProductsOptions{Featured: &featured, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, products, 1)
	assert.Equal(t, "flagship-phone", products[0].Name)

	products, total, err = s.ListProducts(ctx, ListProductsOptions{MinPrice: i64ptr(9000), MaxPrice: i64ptr(20000), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, products, 1)
	assert.Equal(t, "budget-phone", products[0].Name)

	products, _, err = s.ListProducts(ctx, ListProductsOptions{SortBy: "price", SortOrder: "asc", Limit: 10})
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "toaster", products[0].Name)

	// The total reflects the whole filtered set, not the page.
	products, total, err = s.ListProducts(ctx, ListProductsOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, products, 2)
}

func TestListProductsSearch(t *testing.T) {
	db := newTestDB(t)
	s := NewProductHandler(db, nil)
	ctx := context.Background()

	req := baseProductRequest("wireless-earbuds", 15000)
	req.Brand = strptr("SoundMax")
	createTestProduct(t, s, req)
	createTestProduct(t, s, baseProductRequest("desk-lamp", 4000))

	products, total, err := s.ListProducts(ctx, ListProductsOptions{Search: "SoundMax", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, products, 1)
	assert.Equal(t, "wireless-earbuds", products[0].Name)
}

func TestDeleteProductRemovesAttributes(t *testing.T) {
	db := newTestDB(t)
	s := NewProductHandler(db, nil)
	ctx := context.Background()

	req := baseProductRequest("doomed", 1000)
	req.Attributes = []AttributeInput{{Name: "Color", Value: "Grey"}}
	product := createTestProduct(t, s, req)

	require.NoError(t, s.DeleteProduct(ctx, product.ID))

	_, err := s.GetProduct(ctx, product.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	var attrCount int64
	db.Model(&models.ProductAttribute{}).Where("product_id = ?", product.ID).Count(&attrCount)
	assert.Zero(t, attrCount)

	assert.ErrorIs(t, s.DeleteProduct(ctx, product.ID), utils.ErrNotFound)
}

func TestListLowStock(t *testing.T) {
	db := newTestDB(t)
	s := NewProductHandler(db, nil)
	ctx := context.Background()

	low := baseProductRequest("nearly-gone", 1000)
	low.StockQuantity = 2
	createTestProduct(t, s, low)

	healthy := baseProductRequest("well-stocked", 1000)
	healthy.StockQuantity = 50
	createTestProduct(t, s, healthy)

	products, err := s.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "nearly-gone", products[0].Name)
}
