// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is adjacent to the catalog workflow: it references categories and
// collections but is not gated by approval.
type Product struct {
	BaseModel
	Title       string         `json:"title" gorm:"size:255;not null"`
	Slug        string         `json:"slug" gorm:"size:255;uniqueIndex"`
	SKU         string         `json:"sku" gorm:"column:sku;size:100;index"`
	Description string         `json:"description" gorm:"type:text"`
	Status      ProductStatus  `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	Tags        pq.StringArray `json:"tags" gorm:"type:text[]"`
	CategoryID  *uuid.UUID     `json:"category_id" gorm:"type:uuid;index"`
	VendorID    *uuid.UUID     `json:"vendor_id" gorm:"type:uuid;index"`

	// Relationships
	Category    *Category    `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Vendor      *Vendor      `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	Collections []Collection `json:"collections,omitempty" gorm:"many2many:collection_products;"`
}
