// internal/services/category_service.go
package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/amoghku/marketplace-pim/internal/config"
	"github.com/amoghku/marketplace-pim/internal/models"
	"github.com/amoghku/marketplace-pim/internal/repositories"
	"github.com/amoghku/marketplace-pim/internal/workflow"
)

// categorySnapshotPopulate is everything the category snapshot reads.
var categorySnapshotPopulate = []string{
	repositories.PathValuePerPoints,
	repositories.PathValuePerPointsCurrency,
	repositories.PathValuePerPointsSalesChannel,
}

// categorySyncPopulate adds the collections used to resolve the primary collection slug.
var categorySyncPopulate = append([]string{repositories.PathCollections}, categorySnapshotPopulate...)

type CategoryService struct {
	repo         repositories.CategoryRepository
	interceptor  *workflow.Interceptor
	syncer       CatalogSyncer
	syncDisabled bool
	logger       logrus.FieldLogger
}

type CreateCategoryRequest struct {
	Name           string               `json:"name" validate:"required,min=1,max=255"`
	Slug           string               `json:"slug" validate:"omitempty,max=255,slug"`
	Description    string               `json:"description"`
	Visibility     models.Visibility    `json:"visibility" validate:"omitempty,oneof=public private"`
	SortRank       *int                 `json:"sort_rank"`
	ParentID       *uuid.UUID           `json:"parent_id"`
	ValuePerPoints []ValuePerPointInput `json:"value_per_points" validate:"omitempty,dive"`
}

// UpdateCategoryRequest only writes the fields that are present. Workflow and
// sync columns are not accepted: any edit sends the category back to review.
type UpdateCategoryRequest struct {
	Name           *string               `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Slug           *string               `json:"slug,omitempty" validate:"omitempty,max=255,slug"`
	Description    *string               `json:"description,omitempty"`
	Visibility     *models.Visibility    `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
	SortRank       *int                  `json:"sort_rank,omitempty"`
	ParentID       *uuid.UUID            `json:"parent_id,omitempty"`
	ValuePerPoints *[]ValuePerPointInput `json:"value_per_points,omitempty" validate:"omitempty,dive"`
}

// CategorySyncPayload is one item of the categories sync request.
type CategorySyncPayload struct {
	Name           string                   `json:"name"`
	Slug           string                   `json:"slug"`
	Description    string                   `json:"description"`
	Rank           int                      `json:"rank"`
	IsActive       bool                     `json:"is_active"`
	IsInternal     bool                     `json:"is_internal"`
	CollectionSlug string                   `json:"collection_slug,omitempty"`
	StrapiID       uuid.UUID                `json:"strapi_id"`
	StrapiSlug     string                   `json:"strapi_slug"`
	ValuePerPoints []workflow.NormalizedVPP `json:"value_per_points"`
}

func NewCategoryService(repo repositories.CategoryRepository, factory *workflow.TaskFactory, syncer CatalogSyncer, syncCfg config.SyncConfig, logger logrus.FieldLogger) *CategoryService {
	logger = logger.WithField("entity_type", models.EntityTypeCategory)
	return &CategoryService{
		repo:         repo,
		interceptor:  workflow.NewInterceptor(&categorySnapshots{repo: repo}, factory, logger),
		syncer:       syncer,
		syncDisabled: syncCfg.Disabled,
		logger:       logger,
	}
}

func (s *CategoryService) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*models.Category, error) {
	overrides, err := valuePerPointRows(req.ValuePerPoints)
	if err != nil {
		return nil, err
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}

	category := &models.Category{
		Name:           req.Name,
		Slug:           req.Slug,
		Description:    req.Description,
		Visibility:     visibility,
		SortRank:       req.SortRank,
		ParentID:       req.ParentID,
		ValuePerPoints: overrides,
	}

	m := workflow.NewCreate(category, workflow.OriginUser)
	err = workflow.Execute(ctx, s.interceptor, m, func(ctx context.Context, m *workflow.Mutation) (uuid.UUID, error) {
		if err := s.repo.Create(ctx, category); err != nil {
			return uuid.Nil, err
		}
		return category.ID, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return s.GetCategory(ctx, m.EntityID, repositories.CategoryDefaultPopulate)
}

func (s *CategoryService) GetCategory(ctx context.Context, id uuid.UUID, populate []string) (*models.Category, error) {
	return s.repo.FindByID(ctx, id, populate)
}

func (s *CategoryService) ListCategories(ctx context.Context, params repositories.ListParams) ([]models.Category, int64, error) {
	return s.repo.List(ctx, params)
}

// UpdateCategory applies an editor's change. The category always lands in
// ready_for_review / not_synced and an approval task is opened when the
// observable state changed.
func (s *CategoryService) UpdateCategory(ctx context.Context, id uuid.UUID, req *UpdateCategoryRequest) (*models.Category, error) {
	patch := workflow.Patch{}
	if req.Name != nil {
		patch["name"] = *req.Name
	}
	if req.Slug != nil {
		patch["slug"] = *req.Slug
	}
	if req.Description != nil {
		patch["description"] = *req.Description
	}
	if req.Visibility != nil {
		patch["visibility"] = *req.Visibility
	}
	if req.SortRank != nil {
		patch["sort_rank"] = *req.SortRank
	}
	if req.ParentID != nil {
		if *req.ParentID == id {
			return nil, ErrSelfParent
		}
		patch["parent_id"] = *req.ParentID
	}
	if req.ValuePerPoints != nil {
		rows, err := valuePerPointRows(*req.ValuePerPoints)
		if err != nil {
			return nil, err
		}
		patch[models.RelationValuePerPoints] = rows
	}

	m := workflow.NewUpdate(id, patch, workflow.OriginUser)
	if err := workflow.Execute(ctx, s.interceptor, m, s.writeUpdate); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return s.GetCategory(ctx, id, repositories.CategoryDefaultPopulate)
}

// ApplySystemUpdate writes workflow bookkeeping without opening an approval task.
func (s *CategoryService) ApplySystemUpdate(ctx context.Context, id uuid.UUID, patch workflow.Patch) error {
	m := workflow.NewUpdate(id, patch, workflow.OriginSystem)
	return workflow.Execute(ctx, s.interceptor, m, s.writeUpdate)
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *CategoryService) writeUpdate(ctx context.Context, m *workflow.Mutation) (uuid.UUID, error) {
	if err := s.repo.Update(ctx, m.EntityID, m.Patch); err != nil {
		return uuid.Nil, err
	}
	return m.EntityID, nil
}

// ApproveFromTask marks the task's category approved and pushes it to the
// commerce platform. The category's current state is what gets synced.
func (s *CategoryService) ApproveFromTask(ctx context.Context, task *models.ApprovalTask) error {
	if task.Category == nil {
		s.logger.WithField("task_id", task.ID).Warn("Approved task has no linked category")
		return nil
	}

	id := task.Category.ID
	patch := statusPatch(models.WorkflowStatusApproved, models.SyncStatusPending, nil)
	if err := s.ApplySystemUpdate(ctx, id, patch); err != nil {
		return fmt.Errorf("failed to approve category: %w", err)
	}

	result := s.SyncByID(ctx, id)
	s.logger.WithFields(logrus.Fields{
		"entity_id": id,
		"task_id":   task.ID,
		"ok":        result.OK,
		"reason":    result.Reason,
	}).Info("Category approved")
	return nil
}

// SyncByID pushes one approved category. Gate failures are reported through
// Reason and never reach the network.
func (s *CategoryService) SyncByID(ctx context.Context, id uuid.UUID) SyncResult {
	ctx = context.WithoutCancel(ctx)

	category, err := s.repo.FindByID(ctx, id, categorySyncPopulate)
	if err != nil {
		if isNotFound(err) {
			return SyncResult{OK: false, Reason: ReasonEntityNotFound}
		}
		return SyncResult{OK: false, Error: err.Error()}
	}

	logger := s.logger.WithFields(logrus.Fields{"entity_id": category.ID, "slug": category.Slug})

	if category.Slug == "" {
		if err := s.markSync(ctx, id, models.SyncStatusError, syncErrorMissingSlug); err != nil {
			return SyncResult{OK: false, Error: err.Error()}
		}
		return SyncResult{OK: false, Reason: ReasonMissingSlug}
	}

	logger.WithFields(logrus.Fields{
		"workflow_status": category.WorkflowStatus,
		"sync_status":     category.SyncStatus,
	}).Debug("Category sync invoked")

	if s.syncDisabled {
		logger.Warn("Sync disabled via MEDUSA_SYNC_DISABLED flag")
		if err := s.markSync(ctx, id, models.SyncStatusNotSynced, syncErrorSyncDisabled); err != nil {
			return SyncResult{OK: false, Error: err.Error()}
		}
		return SyncResult{OK: false, Reason: ReasonSyncDisabled}
	}

	if category.WorkflowStatus != models.WorkflowStatusApproved {
		if category.SyncStatus != models.SyncStatusNotSynced {
			if err := s.markSync(ctx, id, models.SyncStatusNotSynced, ""); err != nil {
				return SyncResult{OK: false, Error: err.Error()}
			}
		}
		logger.Debug("Skipping sync for unapproved category")
		return SyncResult{OK: false, Reason: ReasonNotApproved}
	}

	if err := s.markSync(ctx, id, models.SyncStatusPending, ""); err != nil {
		return SyncResult{OK: false, Error: err.Error()}
	}

	payload := []CategorySyncPayload{BuildCategorySyncPayload(category)}
	response := s.syncer.SyncCategories(ctx, payload)

	if response.OK {
		if err := s.markSync(ctx, id, models.SyncStatusSynced, ""); err != nil {
			return SyncResult{OK: false, Error: err.Error()}
		}
		logger.Info("Category synced")
		return SyncResult{OK: true, Status: SyncedStatus}
	}

	message := response.Error
	if message == "" {
		message = "Failed to sync category"
	}
	if err := s.markSync(ctx, id, models.SyncStatusError, message); err != nil {
		logger.WithError(err).Error("Failed to record category sync error")
	}
	logger.WithField("error", message).Error("Category sync failed")
	return SyncResult{OK: false, Error: message}
}

// markSync records a sync outcome. An empty message clears sync_error.
func (s *CategoryService) markSync(ctx context.Context, id uuid.UUID, status models.SyncStatus, message string) error {
	var syncError *string
	if message != "" {
		syncError = models.StringPtr(message)
	}
	return s.ApplySystemUpdate(ctx, id, statusPatch("", status, syncError))
}

func BuildCategorySyncPayload(category *models.Category) CategorySyncPayload {
	rank := 0
	if category.SortRank != nil {
		rank = *category.SortRank
	}

	return CategorySyncPayload{
		Name:           category.Name,
		Slug:           category.Slug,
		Description:    category.Description,
		Rank:           rank,
		IsActive:       true,
		IsInternal:     category.Visibility == models.VisibilityPrivate,
		CollectionSlug: primaryCollectionSlug(category.Collections),
		StrapiID:       category.ID,
		StrapiSlug:     category.Slug,
		ValuePerPoints: workflow.NormalizeValuePerPoints(workflow.EntriesFromModels(category.ValuePerPoints)),
	}
}

// primaryCollectionSlug picks the collection with the lowest sort rank (unranked
// last), then by name.
func primaryCollectionSlug(collections []models.Collection) string {
	if len(collections) == 0 {
		return ""
	}

	sorted := make([]models.Collection, len(collections))
	copy(sorted, collections)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].SortRank, sorted[j].SortRank
		switch {
		case a != nil && b != nil && *a != *b:
			return *a < *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted[0].Slug
}

// categorySnapshots feeds the interceptor the authoritative category state.
type categorySnapshots struct {
	repo repositories.CategoryRepository
}

func (l *categorySnapshots) EntityType() models.EntityType {
	return models.EntityTypeCategory
}

func (l *categorySnapshots) LoadSnapshot(ctx context.Context, id uuid.UUID) (workflow.Snapshot, error) {
	category, err := l.repo.FindByID(ctx, id, categorySnapshotPopulate)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return workflow.SerializeCategory(category), nil
}
