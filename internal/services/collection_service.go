// internal/services/collection_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/amoghku/marketplace-pim/internal/config"
	"github.com/amoghku/marketplace-pim/internal/models"
	"github.com/amoghku/marketplace-pim/internal/repositories"
	"github.com/amoghku/marketplace-pim/internal/workflow"
)

var collectionSnapshotPopulate = []string{
	repositories.PathCategories,
	repositories.PathValuePerPoints,
	repositories.PathValuePerPointsCurrency,
	repositories.PathValuePerPointsSalesChannel,
}

type CollectionService struct {
	repo         repositories.CollectionRepository
	interceptor  *workflow.Interceptor
	syncer       CatalogSyncer
	syncDisabled bool
	logger       logrus.FieldLogger
}

type CreateCollectionRequest struct {
	Name           string               `json:"name" validate:"required,min=1,max=255"`
	Slug           string               `json:"slug" validate:"omitempty,max=255,slug"`
	Tagline        string               `json:"tagline" validate:"omitempty,max=255"`
	Description    string               `json:"description"`
	Visibility     models.Visibility    `json:"visibility" validate:"omitempty,oneof=public private"`
	SortRank       *int                 `json:"sort_rank"`
	ScheduledStart *time.Time           `json:"scheduled_start"`
	ScheduledEnd   *time.Time           `json:"scheduled_end"`
	CategoryIDs    []uuid.UUID          `json:"category_ids"`
	ValuePerPoints []ValuePerPointInput `json:"value_per_points" validate:"omitempty,dive"`
}

type UpdateCollectionRequest struct {
	Name           *string               `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Slug           *string               `json:"slug,omitempty" validate:"omitempty,max=255,slug"`
	Tagline        *string               `json:"tagline,omitempty" validate:"omitempty,max=255"`
	Description    *string               `json:"description,omitempty"`
	Visibility     *models.Visibility    `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
	SortRank       *int                  `json:"sort_rank,omitempty"`
	ScheduledStart *time.Time            `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time            `json:"scheduled_end,omitempty"`
	CategoryIDs    *[]uuid.UUID          `json:"category_ids,omitempty"`
	ValuePerPoints *[]ValuePerPointInput `json:"value_per_points,omitempty" validate:"omitempty,dive"`
}

// CollectionSyncPayload is one item of the collections sync request.
type CollectionSyncPayload struct {
	Title          string                   `json:"title"`
	Slug           string                   `json:"slug"`
	Order          int                      `json:"order"`
	Visibility     string                   `json:"visibility"`
	StrapiID       uuid.UUID                `json:"strapi_id"`
	StrapiSlug     string                   `json:"strapi_slug"`
	ValuePerPoints []workflow.NormalizedVPP `json:"value_per_points"`
}

func NewCollectionService(repo repositories.CollectionRepository, factory *workflow.TaskFactory, syncer CatalogSyncer, syncCfg config.SyncConfig, logger logrus.FieldLogger) *CollectionService {
	logger = logger.WithField("entity_type", models.EntityTypeCollection)
	return &CollectionService{
		repo:         repo,
		interceptor:  workflow.NewInterceptor(&collectionSnapshots{repo: repo}, factory, logger),
		syncer:       syncer,
		syncDisabled: syncCfg.Disabled,
		logger:       logger,
	}
}

func (s *CollectionService) CreateCollection(ctx context.Context, req *CreateCollectionRequest) (*models.Collection, error) {
	if err := checkSchedule(req.ScheduledStart, req.ScheduledEnd); err != nil {
		return nil, err
	}

	overrides, err := valuePerPointRows(req.ValuePerPoints)
	if err != nil {
		return nil, err
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}

	categories := make([]models.Category, 0, len(req.CategoryIDs))
	for _, id := range req.CategoryIDs {
		categories = append(categories, models.Category{BaseModel: models.BaseModel{ID: id}})
	}

	collection := &models.Collection{
		Name:           req.Name,
		Slug:           req.Slug,
		Tagline:        req.Tagline,
		Description:    req.Description,
		Visibility:     visibility,
		SortRank:       req.SortRank,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
		Categories:     categories,
		ValuePerPoints: overrides,
	}

	m := workflow.NewCreate(collection, workflow.OriginUser)
	err = workflow.Execute(ctx, s.interceptor, m, func(ctx context.Context, m *workflow.Mutation) (uuid.UUID, error) {
		if err := s.repo.Create(ctx, collection); err != nil {
			return uuid.Nil, err
		}
		return collection.ID, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return s.GetCollection(ctx, m.EntityID, repositories.CollectionDefaultPopulate)
}

func (s *CollectionService) GetCollection(ctx context.Context, id uuid.UUID, populate []string) (*models.Collection, error) {
	return s.repo.FindByID(ctx, id, populate)
}

func (s *CollectionService) ListCollections(ctx context.Context, params repositories.ListParams) ([]models.Collection, int64, error) {
	return s.repo.List(ctx, params)
}

func (s *CollectionService) UpdateCollection(ctx context.Context, id uuid.UUID, req *UpdateCollectionRequest) (*models.Collection, error) {
	if err := checkSchedule(req.ScheduledStart, req.ScheduledEnd); err != nil {
		return nil, err
	}

	patch := workflow.Patch{}
	if req.Name != nil {
		patch["name"] = *req.Name
	}
	if req.Slug != nil {
		patch["slug"] = *req.Slug
	}
	if req.Tagline != nil {
		patch["tagline"] = *req.Tagline
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
	if req.ScheduledStart != nil {
		patch["scheduled_start"] = req.ScheduledStart.UTC()
	}
	if req.ScheduledEnd != nil {
		patch["scheduled_end"] = req.ScheduledEnd.UTC()
	}
	if req.CategoryIDs != nil {
		patch[models.RelationCategories] = *req.CategoryIDs
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
		return nil, fmt.Errorf("failed to update collection: %w", err)
	}

	return s.GetCollection(ctx, id, repositories.CollectionDefaultPopulate)
}

func (s *CollectionService) ApplySystemUpdate(ctx context.Context, id uuid.UUID, patch workflow.Patch) error {
	m := workflow.NewUpdate(id, patch, workflow.OriginSystem)
	return workflow.Execute(ctx, s.interceptor, m, s.writeUpdate)
}

func (s *CollectionService) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *CollectionService) writeUpdate(ctx context.Context, m *workflow.Mutation) (uuid.UUID, error) {
	if err := s.repo.Update(ctx, m.EntityID, m.Patch); err != nil {
		return uuid.Nil, err
	}
	return m.EntityID, nil
}

func (s *CollectionService) ApproveFromTask(ctx context.Context, task *models.ApprovalTask) error {
	if task.Collection == nil {
		s.logger.WithField("task_id", task.ID).Warn("Approved task has no linked collection")
		return nil
	}

	id := task.Collection.ID
	patch := statusPatch(models.WorkflowStatusApproved, models.SyncStatusPending, nil)
	if err := s.ApplySystemUpdate(ctx, id, patch); err != nil {
		return fmt.Errorf("failed to approve collection: %w", err)
	}

	result := s.SyncByID(ctx, id)
	s.logger.WithFields(logrus.Fields{
		"entity_id": id,
		"task_id":   task.ID,
		"ok":        result.OK,
		"reason":    result.Reason,
	}).Info("Collection approved")
	return nil
}

func (s *CollectionService) SyncByID(ctx context.Context, id uuid.UUID) SyncResult {
	ctx = context.WithoutCancel(ctx)

	collection, err := s.repo.FindByID(ctx, id, collectionSnapshotPopulate)
	if err != nil {
		if isNotFound(err) {
			return SyncResult{OK: false, Reason: ReasonEntityNotFound}
		}
		return SyncResult{OK: false, Error: err.Error()}
	}

	logger := s.logger.WithFields(logrus.Fields{"entity_id": collection.ID, "slug": collection.Slug})

	if collection.Slug == "" {
		if err := s.markSync(ctx, id, models.SyncStatusError, syncErrorMissingSlug); err != nil {
			return SyncResult{OK: false, Error: err.Error()}
		}
		return SyncResult{OK: false, Reason: ReasonMissingSlug}
	}

	if s.syncDisabled {
		logger.Warn("Sync disabled via MEDUSA_SYNC_DISABLED flag")
		if err := s.markSync(ctx, id, models.SyncStatusNotSynced, syncErrorSyncDisabled); err != nil {
			return SyncResult{OK: false, Error: err.Error()}
		}
		return SyncResult{OK: false, Reason: ReasonSyncDisabled}
	}

	if collection.WorkflowStatus != models.WorkflowStatusApproved {
		if collection.SyncStatus != models.SyncStatusNotSynced {
			if err := s.markSync(ctx, id, models.SyncStatusNotSynced, ""); err != nil {
				return SyncResult{OK: false, Error: err.Error()}
			}
		}
		logger.WithField("workflow_status", collection.WorkflowStatus).Debug("Skipping sync for unapproved collection")
		return SyncResult{OK: false, Reason: ReasonNotApproved}
	}

	if err := s.markSync(ctx, id, models.SyncStatusPending, ""); err != nil {
		return SyncResult{OK: false, Error: err.Error()}
	}

	payload := []CollectionSyncPayload{BuildCollectionSyncPayload(collection)}
	response := s.syncer.SyncCollections(ctx, payload)

	if response.OK {
		if err := s.markSync(ctx, id, models.SyncStatusSynced, ""); err != nil {
			return SyncResult{OK: false, Error: err.Error()}
		}
		logger.Info("Collection synced")
		return SyncResult{OK: true, Status: SyncedStatus}
	}

	message := response.Error
	if message == "" {
		message = "Failed to sync collection"
	}
	if err := s.markSync(ctx, id, models.SyncStatusError, message); err != nil {
		logger.WithError(err).Error("Failed to record collection sync error")
	}
	logger.WithField("error", message).Error("Collection sync failed")
	return SyncResult{OK: false, Error: message}
}

func (s *CollectionService) markSync(ctx context.Context, id uuid.UUID, status models.SyncStatus, message string) error {
	var syncError *string
	if message != "" {
		syncError = models.StringPtr(message)
	}
	return s.ApplySystemUpdate(ctx, id, statusPatch("", status, syncError))
}

func BuildCollectionSyncPayload(collection *models.Collection) CollectionSyncPayload {
	order := 0
	if collection.SortRank != nil {
		order = *collection.SortRank
	}

	visibility := string(collection.Visibility)
	if visibility == "" {
		visibility = string(models.VisibilityPublic)
	}

	return CollectionSyncPayload{
		Title:          collection.Name,
		Slug:           collection.Slug,
		Order:          order,
		Visibility:     visibility,
		StrapiID:       collection.ID,
		StrapiSlug:     collection.Slug,
		ValuePerPoints: workflow.NormalizeValuePerPoints(workflow.EntriesFromModels(collection.ValuePerPoints)),
	}
}

func checkSchedule(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalidSchedule
	}
	return nil
}

type collectionSnapshots struct {
	repo repositories.CollectionRepository
}

func (l *collectionSnapshots) EntityType() models.EntityType {
	return models.EntityTypeCollection
}

func (l *collectionSnapshots) LoadSnapshot(ctx context.Context, id uuid.UUID) (workflow.Snapshot, error) {
	collection, err := l.repo.FindByID(ctx, id, collectionSnapshotPopulate)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return workflow.SerializeCollection(collection), nil
}
