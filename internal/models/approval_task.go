// internal/models/approval_task.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalTask records one human review of a catalog entity's create or update diff.
type ApprovalTask struct {
	BaseModel
	Title           string         `json:"title" gorm:"size:255;not null"`
	WorkflowStatus  WorkflowStatus `json:"workflow_status" gorm:"type:varchar(32);default:'pending';index"`
	Priority        TaskPriority   `json:"priority" gorm:"type:varchar(20);default:'medium';index"`
	EntityType      EntityType     `json:"entity_type" gorm:"type:varchar(32);not null;index"`
	EntityID        string         `json:"entity_id" gorm:"size:64;not null;index"`
	EntityPreview   string         `json:"entity_preview" gorm:"size:255"`
	Summary         string         `json:"summary" gorm:"type:text"`
	ContextSnapshot JSONB          `json:"context_snapshot" gorm:"type:jsonb"`
	Metadata        JSONB          `json:"metadata" gorm:"type:jsonb"`
	StateBefore     JSONB          `json:"state_before" gorm:"type:jsonb"`
	StateAfter      JSONB          `json:"state_after" gorm:"type:jsonb"`
	Diff            JSONB          `json:"diff" gorm:"type:jsonb"`
	DecisionAt      *time.Time     `json:"decision_at"`
	ReviewerNotes   string         `json:"reviewer_notes,omitempty" gorm:"type:text"`
	CategoryID      *uuid.UUID     `json:"category_id" gorm:"type:uuid;index"`
	CollectionID    *uuid.UUID     `json:"collection_id" gorm:"type:uuid;index"`

	// Relationships
	Category   *Category   `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Collection *Collection `json:"collection,omitempty" gorm:"foreignKey:CollectionID"`
}
