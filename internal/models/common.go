// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// ToJSONB round-trips any JSON-encodable value into a JSONB document.
// A nil input (including a typed nil pointer) yields a nil JSONB, stored as NULL.
func ToJSONB(v interface{}) (JSONB, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode jsonb: %w", err)
	}
	if string(raw) == "null" {
		return nil, nil
	}

	var out JSONB
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode jsonb: %w", err)
	}
	return out, nil
}

// Enums
type WorkflowStatus string

const (
	WorkflowStatusPending        WorkflowStatus = "pending"
	WorkflowStatusReadyForReview WorkflowStatus = "ready_for_review"
	WorkflowStatusApproved       WorkflowStatus = "approved"
	WorkflowStatusRejected       WorkflowStatus = "rejected"
)

type SyncStatus string

const (
	SyncStatusNotSynced SyncStatus = "not_synced"
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusSynced    SyncStatus = "synced"
	SyncStatusError     SyncStatus = "error"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

type EntityType string

const (
	EntityTypeCategory   EntityType = "category"
	EntityTypeCollection EntityType = "collection"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "draft"
	ProductStatusActive    ProductStatus = "active"
	ProductStatusArchived  ProductStatus = "archived"
	ProductStatusSuspended ProductStatus = "suspended"
)

// Column names shared by the workflow state of every reviewable entity.
const (
	ColumnWorkflowStatus = "workflow_status"
	ColumnSyncStatus     = "sync_status"
	ColumnSyncError      = "sync_error"
	ColumnDecisionAt     = "decision_at"
	ColumnPriority       = "priority"
)

// Relation keys accepted in update patches next to plain columns.
const (
	RelationValuePerPoints = "value_per_points"
	RelationCategories     = "categories"
)

// WorkflowState is embedded by every catalog entity that goes through review.
type WorkflowState struct {
	WorkflowStatus WorkflowStatus `json:"workflow_status" gorm:"type:varchar(32);default:'ready_for_review';index"`
	SyncStatus     SyncStatus     `json:"sync_status" gorm:"type:varchar(20);default:'not_synced';index"`
	SyncError      *string        `json:"sync_error" gorm:"type:text"`
}

// ResetForReview puts the entity back into the review queue and clears any sync result.
func (w *WorkflowState) ResetForReview() {
	w.WorkflowStatus = WorkflowStatusReadyForReview
	w.SyncStatus = SyncStatusNotSynced
	w.SyncError = nil
}

// Reviewable is implemented by every model that embeds WorkflowState.
type Reviewable interface {
	ResetForReview()
}

func StringPtr(s string) *string {
	return &s
}
