package models

import (
	"time"

	"smartgadgets-system/internal/database"
)

// Product statuses.
const (
	ProductStatusActive       = "active"
	ProductStatusInactive     = "inactive"
	ProductStatusOutOfStock   = "out_of_stock"
	ProductStatusDiscontinued = "discontinued"
)

// All money columns hold integer minor currency units (cents).
type Product struct {
	ID                int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string  `gorm:"size:255;not null" json:"name"`
	Slug              string  `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description       *string `gorm:"type:text" json:"description,omitempty"`
	ShortDescription  *string `gorm:"size:512" json:"short_description,omitempty"`
	Price             int64   `gorm:"not null" json:"price"`
	CompareAtPrice    *int64  `json:"compare_at_price,omitempty"`
	SKU               *string `gorm:"size:100" json:"sku,omitempty"`
	CategoryID        *int64  `gorm:"index" json:"category_id,omitempty"`
	Brand             *string `gorm:"size:100" json:"brand,omitempty"`
	Model             *string `gorm:"size:100" json:"model,omitempty"`
	StockQuantity     int     `gorm:"not null;default:0" json:"stock_quantity"`
	LowStockThreshold int     `gorm:"not null;default:5" json:"low_stock_threshold"`
	TrackInventory    bool    `gorm:"not null;default:true" json:"track_inventory"`
	FeaturedImage     *string `gorm:"size:512" json:"featured_image,omitempty"`

	GalleryImages database.StringArray `gorm:"type:text" json:"gallery_images"`

	Status     string    `gorm:"size:32;not null;default:'active';index" json:"status"`
	IsFeatured bool      `gorm:"not null;default:false" json:"is_featured"`
	Weight     *float64  `json:"weight,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Category   *Category          `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Attributes []ProductAttribute `gorm:"foreignKey:ProductID" json:"attributes"`
}

type ProductAttribute struct {
	ID             int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID      int64  `gorm:"index;not null" json:"product_id"`
	AttributeName  string `gorm:"size:100;not null" json:"attribute_name"`
	AttributeValue string `gorm:"size:255;not null" json:"attribute_value"`
	SortOrder      int    `gorm:"not null;default:0" json:"sort_order"`
}

type Category struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Slug        string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	ImageURL    *string   `gorm:"size:512" json:"image_url,omitempty"`
	ParentID    *int64    `gorm:"index" json:"parent_id,omitempty"`
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Parent   *Category  `gorm:"foreignKey:ParentID" json:"-"`
	Children []Category `gorm:"foreignKey:ParentID" json:"-"`
}
