package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"smartgadgets-system/internal/database/models"
	"smartgadgets-system/internal/utils"
)

type CategoryHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCategoryHandler(db *gorm.DB, redisClient *redis.Client) *CategoryHandler {
	return &CategoryHandler{
		db:    db,
		redis: redisClient,
	}
}

func (s *CategoryHandler) InvalidateCategoryCaches(ctx context.Context) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Del(ctx, CATEGORIES_CACHE_KEY)
}

// CategoryView is a category row with its active-product count and the
// parent category name resolved.
type CategoryView struct {
	models.Category
	ProductCount int64   `json:"product_count"`
	ParentName   *string `json:"parent_name,omitempty"`
}

type CreateCategoryRequest struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	ParentID    *int64  `json:"parent_id"`
	SortOrder   int     `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

type UpdateCategoryRequest struct {
	Name        utils.Optional[string] `json:"name"`
	Slug        utils.Optional[string] `json:"slug"`
	Description utils.Optional[string] `json:"description"`
	ImageURL    utils.Optional[string] `json:"image_url"`
	ParentID    utils.Optional[int64]  `json:"parent_id"`
	SortOrder   utils.Optional[int]    `json:"sort_order"`
	IsActive    utils.Optional[bool]   `json:"is_active"`
}

func (s *CategoryHandler) ListCategories(ctx context.Context, includeInactive bool) ([]CategoryView, error) {
	// The default active-only listing is what the storefront renders on
	// every page, so it is the one worth caching.
	cacheable := !includeInactive

	if cacheable && s.redis != nil {
		if val, err := s.redis.Get(ctx, CATEGORIES_CACHE_KEY).Result(); err == nil {
			var cached []CategoryView
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			log.Printf("Redis error on GET %s: %v. Falling back to DB.", CATEGORIES_CACHE_KEY, err)
		}
	}

	query := s.db.WithContext(ctx).Model(&models.Category{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var categories []models.Category
	if err := query.Order("sort_order ASC, name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}

	counts, err := s.activeProductCounts(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	views := make([]CategoryView, len(categories))
	for i, c := range categories {
		views[i] = CategoryView{Category: c, ProductCount: counts[c.ID]}
		if c.ParentID != nil {
			if name, ok := names[*c.ParentID]; ok {
				views[i].ParentName = &name
			} else {
				views[i].ParentName = s.parentName(ctx, *c.ParentID)
			}
		}
	}

	if cacheable && s.redis != nil {
		if jsonData, err := json.Marshal(views); err == nil {
			if err := s.redis.Set(ctx, CATEGORIES_CACHE_KEY, jsonData, CACHE_TTL_SHORT).Err(); err != nil {
				log.Printf("Failed to set cache for key %s: %v", CATEGORIES_CACHE_KEY, err)
			}
		}
	}

	return views, nil
}

func (s *CategoryHandler) activeProductCounts(ctx context.Context) (map[int64]int64, error) {
	type row struct {
		CategoryID int64
		Count      int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&models.Product{}).
		Select("category_id, COUNT(*) AS count").
		Where("status = ? AND category_id IS NOT NULL", models.ProductStatusActive).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int64, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.Count
	}
	return counts, nil
}

func (s *CategoryHandler) parentName(ctx context.Context, parentID int64) *string {
	var parent models.Category
	if err := s.db.WithContext(ctx).First(&parent, parentID).Error; err != nil {
		return nil
	}
	return &parent.Name
}

func (s *CategoryHandler) GetCategory(ctx context.Context, id int64) (*CategoryView, error) {
	if id <= 0 {
		return nil, utils.ErrInvalid
	}

	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}

	return s.toView(ctx, category)
}

func (s *CategoryHandler) GetCategoryBySlug(ctx context.Context, slug string) (*CategoryView, error) {
	if slug == "" {
		return nil, utils.ErrInvalid
	}

	var category models.Category
	err := s.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&category).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}

	return s.toView(ctx, category)
}

func (s *CategoryHandler) toView(ctx context.Context, category models.Category) (*CategoryView, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("category_id = ? AND status = ?", category.ID, models.ProductStatusActive).
		Count(&count).Error
	if err != nil {
		return nil, err
	}

	view := CategoryView{Category: category, ProductCount: count}
	if category.ParentID != nil {
		view.ParentName = s.parentName(ctx, *category.ParentID)
	}
	return &view, nil
}

func (s *CategoryHandler) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryView, error) {
	if req.Name == "" || req.Slug == "" {
		return nil, fmt.Errorf("%w: name and slug are required", utils.ErrInvalid)
	}

	category := models.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		ParentID:    req.ParentID,
		SortOrder:   req.SortOrder,
		IsActive:    true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if req.ParentID != nil {
		var parent models.Category
		if err := s.db.WithContext(ctx).First(&parent, *req.ParentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("%w: parent category %d does not exist", utils.ErrInvalid, *req.ParentID)
			}
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}

	s.InvalidateCategoryCaches(ctx)

	return s.GetCategory(ctx, category.ID)
}

func (s *CategoryHandler) UpdateCategory(ctx context.Context, id int64, req UpdateCategoryRequest) (*CategoryView, error) {
	if id <= 0 {
		return nil, utils.ErrInvalid
	}
	if req.Name.Set && (req.Name.Null || req.Name.Value == "") {
		return nil, fmt.Errorf("%w: name must not be empty", utils.ErrInvalid)
	}
	if req.Slug.Set && (req.Slug.Null || req.Slug.Value == "") {
		return nil, fmt.Errorf("%w: slug must not be empty", utils.ErrInvalid)
	}

	if req.ParentID.Set && !req.ParentID.Null {
		if err := s.checkParentCycle(ctx, id, req.ParentID.Value); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{}
	req.Name.Apply(updates, "name")
	req.Slug.Apply(updates, "slug")
	req.Description.Apply(updates, "description")
	req.ImageURL.Apply(updates, "image_url")
	req.ParentID.Apply(updates, "parent_id")
	req.SortOrder.Apply(updates, "sort_order")
	req.IsActive.Apply(updates, "is_active")

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, utils.ErrNotFound
		}
	}

	s.InvalidateCategoryCaches(ctx)

	return s.GetCategory(ctx, id)
}

// checkParentCycle walks the ancestor chain of the proposed parent and
// rejects an assignment that would make the category its own ancestor.
func (s *CategoryHandler) checkParentCycle(ctx context.Context, id, parentID int64) error {
	if parentID == id {
		return fmt.Errorf("%w: category cannot be its own parent", utils.ErrInvalid)
	}

	current := parentID
	for depth := 0; depth < 100; depth++ {
		var parent models.Category
		if err := s.db.WithContext(ctx).First(&parent, current).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: parent category %d does not exist", utils.ErrInvalid, current)
			}
			return err
		}
		if parent.ParentID == nil {
			return nil
		}
		if *parent.ParentID == id {
			return fmt.Errorf("%w: parent assignment would create a cycle", utils.ErrInvalid)
		}
		current = *parent.ParentID
	}
	return fmt.Errorf("%w: category tree too deep", utils.ErrInvalid)
}

func (s *CategoryHandler) DeleteCategory(ctx context.Context, id int64) error {
	if id <= 0 {
		return utils.ErrInvalid
	}

	var productCount int64
	err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("category_id = ?", id).
		Count(&productCount).Error
	if err != nil {
		return err
	}
	if productCount > 0 {
		return fmt.Errorf("%w: cannot delete category with existing products", utils.ErrConflict)
	}

	res := s.db.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}

	s.InvalidateCategoryCaches(ctx)
	return nil
}
