package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"smartgadgets-system/internal/database"
	"smartgadgets-system/internal/database/models"
	"smartgadgets-system/internal/utils"
)

const (
	PRODUCT_CACHE_PREFIX = "catalog:product:"
	CATEGORIES_CACHE_KEY = "catalog:categories"
	CACHE_TTL_SHORT      = 5 * time.Minute
	CACHE_TTL_MEDIUM     = 30 * time.Minute
)

type ProductHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewProductHandler(db *gorm.DB, redisClient *redis.Client) *ProductHandler {
	return &ProductHandler{
		db:    db,
		redis: redisClient,
	}
}

func (s *ProductHandler) InvalidateCatalogCaches(ctx context.Context, productIDs ...int64) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Del(ctx, CATEGORIES_CACHE_KEY)

	for _, id := range productIDs {
		cacheKey := fmt.Sprintf("%s%d", PRODUCT_CACHE_PREFIX, id)
		_ = s.redis.Del(ctx, cacheKey)
	}
}

type AttributeInput struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	SortOrder int    `json:"sort_order"`
}

type CreateProductRequest struct {
	Name              string   `json:"name"`
	Slug              string   `json:"slug"`
	Description       *string  `json:"description"`
	ShortDescription  *string  `json:"short_description"`
	Price             *int64   `json:"price"`
	CompareAtPrice    *int64   `json:"compare_at_price"`
	SKU               *string  `json:"sku"`
	CategoryID        *int64   `json:"category_id"`
	Brand             *string  `json:"brand"`
	Model             *string  `json:"model"`
	StockQuantity     int      `json:"stock_quantity"`
	LowStockThreshold *int     `json:"low_stock_threshold"`
	TrackInventory    *bool    `json:"track_inventory"`
	FeaturedImage     *string  `json:"featured_image"`
	GalleryImages     []string `json:"gallery_images"`
	Status            *string  `json:"status"`
	IsFeatured        bool     `json:"is_featured"`
	Weight            *float64 `json:"weight"`

	Attributes []AttributeInput `json:"attributes"`
}

// UpdateProductRequest carries tri-state fields: omitted fields are left
// untouched, explicit nulls clear nullable columns, values overwrite.
type UpdateProductRequest struct {
	Name              utils.Optional[string]   `json:"name"`
	Slug              utils.Optional[string]   `json:"slug"`
	Description       utils.Optional[string]   `json:"description"`
	ShortDescription  utils.Optional[string]   `json:"short_description"`
	Price             utils.Optional[int64]    `json:"price"`
	CompareAtPrice    utils.Optional[int64]    `json:"compare_at_price"`
	SKU               utils.Optional[string]   `json:"sku"`
	CategoryID        utils.Optional[int64]    `json:"category_id"`
	Brand             utils.Optional[string]   `json:"brand"`
	Model             utils.Optional[string]   `json:"model"`
	StockQuantity     utils.Optional[int]      `json:"stock_quantity"`
	LowStockThreshold utils.Optional[int]      `json:"low_stock_threshold"`
	TrackInventory    utils.Optional[bool]     `json:"track_inventory"`
	FeaturedImage     utils.Optional[string]   `json:"featured_image"`
	GalleryImages     utils.Optional[[]string] `json:"gallery_images"`
	Status            utils.Optional[string]   `json:"status"`
	IsFeatured        utils.Optional[bool]     `json:"is_featured"`
	Weight            utils.Optional[float64]  `json:"weight"`

	// nil leaves the attribute set alone; a present slice replaces it
	// wholesale, even when empty.
	Attributes *[]AttributeInput `json:"attributes"`
}

type ListProductsOptions struct {
	CategorySlug string
	CategoryID   *int64
	Status       string
	Featured     *bool
	Search       string
	MinPrice     *int64
	MaxPrice     *int64
	SortBy       string
	SortOrder    string
	Limit        int
	Offset       int
}

var validProductStatuses = map[string]bool{
	models.ProductStatusActive:       true,
	models.ProductStatusInactive:     true,
	models.ProductStatusOutOfStock:   true,
	models.ProductStatusDiscontinued: true,
}

func (s *ProductHandler) listQuery(opts ListProductsOptions) *gorm.DB {
	query := s.db.Model(&models.Product{})

	if opts.CategorySlug != "" {
		query = query.
			Joins("LEFT JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", opts.CategorySlug)
	}
	if opts.CategoryID != nil {
		query = query.Where("products.category_id = ?", *opts.CategoryID)
	}
	if opts.Status != "" {
		query = query.Where("products.status = ?", opts.Status)
	}
	if opts.Featured != nil {
		query = query.Where("products.is_featured = ?", *opts.Featured)
	}
	if opts.Search != "" {
		searchTerm := "%" + opts.Search + "%"
		query = query.Where(
			"products.name LIKE ? OR products.description LIKE ? OR products.brand LIKE ?",
			searchTerm, searchTerm, searchTerm,
		)
	}
	if opts.MinPrice != nil {
		query = query.Where("products.price >= ?", *opts.MinPrice)
	}
	if opts.MaxPrice != nil {
		query = query.Where("products.price <= ?", *opts.MaxPrice)
	}

	return query
}

func (s *ProductHandler) ListProducts(ctx context.Context, opts ListProductsOptions) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := s.listQuery(opts).WithContext(ctx)

	// Count shares the filter predicates, never the limit/offset, so the
	// total reflects the full filtered set.
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch opts.SortBy {
	case "price":
		query = query.Order("products.price " + sortDirection(opts.SortOrder))
	case "is_featured":
		query = query.Order("products.is_featured " + sortDirection(opts.SortOrder)).
			Order("products.created_at DESC")
	default:
		query = query.Order("products.created_at DESC")
	}

	if opts.Limit > 0 {
		query = query.Offset(opts.Offset).Limit(opts.Limit)
	}

	err := query.
		Preload("Category").
		Preload("Attributes", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, attribute_name ASC")
		}).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func sortDirection(order string) string {
	if order == "ASC" || order == "asc" {
		return "ASC"
	}
	return "DESC"
}

func (s *ProductHandler) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	if id <= 0 {
		return nil, utils.ErrInvalid
	}

	cacheKey := fmt.Sprintf("%s%d", PRODUCT_CACHE_PREFIX, id)
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var cached models.Product
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			log.Printf("Redis error on GET %s: %v. Falling back to DB.", cacheKey, err)
		}
	}

	var product models.Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Attributes", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, attribute_name ASC")
		}).
		First(&product, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}

	if s.redis != nil {
		if jsonData, err := json.Marshal(&product); err == nil {
			if err := s.redis.Set(ctx, cacheKey, jsonData, CACHE_TTL_MEDIUM).Err(); err != nil {
				log.Printf("Failed to set cache for key %s: %v", cacheKey, err)
			}
		}
	}

	return &product, nil
}

func (s *ProductHandler) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	if slug == "" {
		return nil, utils.ErrInvalid
	}

	var product models.Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Attributes", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, attribute_name ASC")
		}).
		Where("slug = ?", slug).
		First(&product).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}

	return &product, nil
}

func (s *ProductHandler) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	if req.Name == "" || req.Slug == "" || req.Price == nil {
		return nil, fmt.Errorf("%w: name, slug and price are required", utils.ErrInvalid)
	}
	if *req.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", utils.ErrInvalid)
	}
	if req.StockQuantity < 0 {
		return nil, fmt.Errorf("%w: stock_quantity must not be negative", utils.ErrInvalid)
	}

	status := models.ProductStatusActive
	if req.Status != nil {
		if !validProductStatuses[*req.Status] {
			return nil, fmt.Errorf("%w: unknown status %q", utils.ErrInvalid, *req.Status)
		}
		status = *req.Status
	}

	product := models.Product{
		Name:             req.Name,
		Slug:             req.Slug,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Price:            *req.Price,
		CompareAtPrice:   req.CompareAtPrice,
		SKU:              req.SKU,
		CategoryID:       req.CategoryID,
		Brand:            req.Brand,
		Model:            req.Model,
		StockQuantity:    req.StockQuantity,
		TrackInventory:   true,
		FeaturedImage:    req.FeaturedImage,
		GalleryImages:    database.StringArray(req.GalleryImages),
		Status:           status,
		IsFeatured:       req.IsFeatured,
		Weight:           req.Weight,
	}
	if req.LowStockThreshold != nil {
		product.LowStockThreshold = *req.LowStockThreshold
	} else {
		product.LowStockThreshold = 5
	}
	if req.TrackInventory != nil {
		product.TrackInventory = *req.TrackInventory
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		return replaceAttributes(tx, product.ID, req.Attributes)
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateCatalogCaches(ctx, product.ID)

	return s.GetProduct(ctx, product.ID)
}

func (s *ProductHandler) UpdateProduct(ctx context.Context, id int64, req UpdateProductRequest) (*models.Product, error) {
	if id <= 0 {
		return nil, utils.ErrInvalid
	}
	if req.Status.Set && !req.Status.Null && !validProductStatuses[req.Status.Value] {
		return nil, fmt.Errorf("%w: unknown status %q", utils.ErrInvalid, req.Status.Value)
	}
	if req.Price.Set && (req.Price.Null || req.Price.Value < 0) {
		return nil, fmt.Errorf("%w: price must be a non-negative amount", utils.ErrInvalid)
	}
	if req.StockQuantity.Set && (req.StockQuantity.Null || req.StockQuantity.Value < 0) {
		return nil, fmt.Errorf("%w: stock_quantity must be a non-negative count", utils.ErrInvalid)
	}
	if req.Name.Set && (req.Name.Null || req.Name.Value == "") {
		return nil, fmt.Errorf("%w: name must not be empty", utils.ErrInvalid)
	}
	if req.Slug.Set && (req.Slug.Null || req.Slug.Value == "") {
		return nil, fmt.Errorf("%w: slug must not be empty", utils.ErrInvalid)
	}

	updates := map[string]interface{}{}
	req.Name.Apply(updates, "name")
	req.Slug.Apply(updates, "slug")
	req.Description.Apply(updates, "description")
	req.ShortDescription.Apply(updates, "short_description")
	req.Price.Apply(updates, "price")
	req.CompareAtPrice.Apply(updates, "compare_at_price")
	req.SKU.Apply(updates, "sku")
	req.CategoryID.Apply(updates, "category_id")
	req.Brand.Apply(updates, "brand")
	req.Model.Apply(updates, "model")
	req.StockQuantity.Apply(updates, "stock_quantity")
	req.LowStockThreshold.Apply(updates, "low_stock_threshold")
	req.TrackInventory.Apply(updates, "track_inventory")
	req.FeaturedImage.Apply(updates, "featured_image")
	req.Status.Apply(updates, "status")
	req.IsFeatured.Apply(updates, "is_featured")
	req.Weight.Apply(updates, "weight")
	if req.GalleryImages.Set {
		if req.GalleryImages.Null {
			updates["gallery_images"] = database.StringArray{}
		} else {
			updates["gallery_images"] = database.StringArray(req.GalleryImages.Value)
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Product
		if err := tx.First(&existing, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.ErrNotFound
			}
			return err
		}

		if len(updates) > 0 {
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return err
			}
		}

		if req.Attributes != nil {
			// Wholesale replacement: existing attributes are dropped and
			// the supplied set reinserted, not diffed.
			if err := tx.Where("product_id = ?", id).Delete(&models.ProductAttribute{}).Error; err != nil {
				return err
			}
			if err := replaceAttributes(tx, id, *req.Attributes); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateCatalogCaches(ctx, id)

	return s.GetProduct(ctx, id)
}

func replaceAttributes(tx *gorm.DB, productID int64, attrs []AttributeInput) error {
	for _, attr := range attrs {
		record := models.ProductAttribute{
			ProductID:      productID,
			AttributeName:  attr.Name,
			AttributeValue: attr.Value,
			SortOrder:      attr.SortOrder,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *ProductHandler) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return utils.ErrInvalid
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductAttribute{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.InvalidateCatalogCaches(ctx, id)
	return nil
}

// UpdateStock sets the absolute stock level. Hitting zero flips the product
// to out_of_stock; restocking reactivates only a product that is currently
// out_of_stock, never one that was made inactive or discontinued.
func (s *ProductHandler) UpdateStock(ctx context.Context, id int64, quantity int) (*models.Product, error) {
	if id <= 0 {
		return nil, utils.ErrInvalid
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: stock quantity must not be negative", utils.ErrInvalid)
	}

	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock_quantity": quantity,
			"status": gorm.Expr(
				"CASE WHEN ? <= 0 THEN 'out_of_stock' WHEN status = 'out_of_stock' AND ? > 0 THEN 'active' ELSE status END",
				quantity, quantity,
			),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, utils.ErrNotFound
	}

	s.InvalidateCatalogCaches(ctx, id)

	return s.GetProduct(ctx, id)
}

func (s *ProductHandler) ListLowStock(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("stock_quantity <= low_stock_threshold AND status = ?", models.ProductStatusActive).
		Order("stock_quantity ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
