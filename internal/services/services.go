// internal/services/services.go
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/amoghku/marketplace-pim/internal/commerce"
	"github.com/amoghku/marketplace-pim/internal/config"
	"github.com/amoghku/marketplace-pim/internal/models"
	"github.com/amoghku/marketplace-pim/internal/repositories"
	"github.com/amoghku/marketplace-pim/internal/workflow"
)

var (
	ErrInvalidID             = errors.New("invalid id")
	ErrNegativeValuePerPoint = errors.New("value per point must not be negative")
	ErrInvalidSchedule       = errors.New("scheduled_end must not be before scheduled_start")
	ErrSelfParent            = errors.New("category cannot be its own parent")
)

// Sync outcome reasons reported when no request was sent.
const (
	ReasonEntityNotFound = "entity_not_found"
	ReasonMissingSlug    = "missing_slug"
	ReasonSyncDisabled   = "sync_disabled"
	ReasonNotApproved    = "not_approved"

	SyncedStatus = "synced"

	syncErrorMissingSlug  = "Missing slug"
	syncErrorSyncDisabled = "Sync disabled"
)

// SyncResult is the outcome of one SyncByID call.
type SyncResult struct {
	OK     bool   `json:"ok"`
	Status string `json:"status,omitempty"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CatalogSyncer pushes catalog payloads to the commerce platform.
type CatalogSyncer interface {
	SyncCategories(ctx context.Context, items interface{}) commerce.Result
	SyncCollections(ctx context.Context, items interface{}) commerce.Result
}

// Services is the wired service graph shared by the HTTP router and the CLI.
type Services struct {
	Categories    *CategoryService
	Collections   *CollectionService
	ApprovalTasks *ApprovalTaskService
	Currencies    *ReferenceService[models.Currency]
	SalesChannels *ReferenceService[models.SalesChannel]
	Vendors       *ReferenceService[models.Vendor]
	Products      *ReferenceService[models.Product]
}

// NewServices wires the approval workflow: entity writes open tasks through the
// factory, and approved tasks call back into the entity services.
func NewServices(repos repositories.Set, syncer CatalogSyncer, syncCfg config.SyncConfig, logger logrus.FieldLogger) *Services {
	tasks := NewApprovalTaskService(repos.ApprovalTasks, logger)
	factory := workflow.NewTaskFactory(tasks)

	categories := NewCategoryService(repos.Categories, factory, syncer, syncCfg, logger)
	collections := NewCollectionService(repos.Collections, factory, syncer, syncCfg, logger)

	tasks.RegisterCallback(models.EntityTypeCategory, categories)
	tasks.RegisterCallback(models.EntityTypeCollection, collections)

	return &Services{
		Categories:    categories,
		Collections:   collections,
		ApprovalTasks: tasks,
		Currencies:    NewReferenceService(repos.Currencies),
		SalesChannels: NewReferenceService(repos.SalesChannels),
		Vendors:       NewReferenceService(repos.Vendors),
		Products:      NewReferenceService(repos.Products),
	}
}

func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}

// ValuePerPointInput is one override as submitted by an editor.
type ValuePerPointInput struct {
	CurrencyID     uuid.UUID       `json:"currency_id" validate:"required"`
	SalesChannelID uuid.UUID       `json:"sales_channel_id" validate:"required"`
	VPP            decimal.Decimal `json:"vpp"`
}

type valuePerPointKey struct {
	currencyID uuid.UUID
	channelID  uuid.UUID
}

// valuePerPointRows keeps one row per currency and sales channel; the last
// submitted entry wins. Rows of one batch insert share created_at.
func valuePerPointRows(inputs []ValuePerPointInput) ([]models.ValuePerPoint, error) {
	rows := make([]models.ValuePerPoint, 0, len(inputs))
	positions := make(map[valuePerPointKey]int, len(inputs))
	for _, input := range inputs {
		value := input.VPP
		if value.IsNegative() {
			return nil, ErrNegativeValuePerPoint
		}

		currencyID := input.CurrencyID
		channelID := input.SalesChannelID
		row := models.ValuePerPoint{
			CurrencyID:     &currencyID,
			SalesChannelID: &channelID,
			VPP:            value,
		}

		key := valuePerPointKey{currencyID: currencyID, channelID: channelID}
		if i, ok := positions[key]; ok {
			rows[i] = row
			continue
		}
		positions[key] = len(rows)
		rows = append(rows, row)
	}
	return rows, nil
}

// statusPatch is the system write that records a sync or approval outcome.
func statusPatch(workflowStatus models.WorkflowStatus, syncStatus models.SyncStatus, syncError *string) workflow.Patch {
	patch := workflow.Patch{
		models.ColumnSyncStatus: syncStatus,
		models.ColumnSyncError:  syncError,
	}
	if workflowStatus != "" {
		patch[models.ColumnWorkflowStatus] = workflowStatus
	}
	return patch
}

func isNotFound(err error) bool {
	return errors.Is(err, repositories.ErrNotFound)
}
