package models

import "gorm.io/gorm"

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Category{},
		&Product{},
		&ProductAttribute{},
		&Customer{},
		&Order{},
		&OrderItem{},
		&DiscountCode{},
		&AdminUser{},
	)
}
