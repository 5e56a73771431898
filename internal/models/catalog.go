// internal/models/catalog.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category struct {
	BaseModel
	Name        string     `json:"name" gorm:"size:255;not null"`
	Slug        string     `json:"slug" gorm:"size:255;index"`
	Description string     `json:"description" gorm:"type:text"`
	Visibility  Visibility `json:"visibility" gorm:"type:varchar(20);default:'public'"`
	SortRank    *int       `json:"sort_rank"`
	ParentID    *uuid.UUID `json:"parent_id" gorm:"type:uuid;index"`
	WorkflowState

	// Relationships
	Parent         *Category       `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children       []Category      `json:"children,omitempty" gorm:"foreignKey:ParentID"`
	Collections    []Collection    `json:"collections,omitempty" gorm:"many2many:collection_categories;"`
	ValuePerPoints []ValuePerPoint `json:"value_per_points,omitempty" gorm:"polymorphic:Owner;polymorphicValue:category"`
	ApprovalTasks  []ApprovalTask  `json:"approval_tasks,omitempty" gorm:"foreignKey:CategoryID"`
}

type Collection struct {
	BaseModel
	Name           string     `json:"name" gorm:"size:255;not null"`
	Slug           string     `json:"slug" gorm:"size:255;index"`
	Tagline        string     `json:"tagline" gorm:"size:255"`
	Description    string     `json:"description" gorm:"type:text"`
	Visibility     Visibility `json:"visibility" gorm:"type:varchar(20);default:'public'"`
	SortRank       *int       `json:"sort_rank"`
	ScheduledStart *time.Time `json:"scheduled_start"`
	ScheduledEnd   *time.Time `json:"scheduled_end"`
	WorkflowState

	// Relationships
	Categories     []Category      `json:"categories,omitempty" gorm:"many2many:collection_categories;"`
	Products       []Product       `json:"products,omitempty" gorm:"many2many:collection_products;"`
	ValuePerPoints []ValuePerPoint `json:"value_per_points,omitempty" gorm:"polymorphic:Owner;polymorphicValue:collection"`
	ApprovalTasks  []ApprovalTask  `json:"approval_tasks,omitempty" gorm:"foreignKey:CollectionID"`
}

// ValuePerPoint is a per-currency, per-sales-channel override of the monetary
// value of one reward point.
type ValuePerPoint struct {
	BaseModel
	OwnerID        uuid.UUID       `json:"owner_id" gorm:"type:uuid;not null;index"`
	OwnerType      string          `json:"owner_type" gorm:"size:32;not null;index"`
	CurrencyID     *uuid.UUID      `json:"currency_id" gorm:"type:uuid;index"`
	SalesChannelID *uuid.UUID      `json:"sales_channel_id" gorm:"type:uuid;index"`
	VPP            decimal.Decimal `json:"vpp" gorm:"type:decimal(12,4);not null;default:0"`

	// Relationships
	Currency     *Currency     `json:"currency,omitempty" gorm:"foreignKey:CurrencyID"`
	SalesChannel *SalesChannel `json:"sales_channel,omitempty" gorm:"foreignKey:SalesChannelID"`
}

type Currency struct {
	BaseModel
	Code   string `json:"code" gorm:"size:3;not null;uniqueIndex"`
	Name   string `json:"name" gorm:"size:100"`
	Symbol string `json:"symbol" gorm:"size:10"`
}

type SalesChannel struct {
	BaseModel
	Name        string `json:"name" gorm:"size:255;not null"`
	Description string `json:"description" gorm:"type:text"`
}

type Vendor struct {
	BaseModel
	Name         string `json:"name" gorm:"size:255;not null"`
	Slug         string `json:"slug" gorm:"size:255;uniqueIndex"`
	ContactEmail string `json:"contact_email" gorm:"size:255"`
}
