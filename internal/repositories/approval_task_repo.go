package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amoghku/marketplace-pim/internal/models"
	"github.com/amoghku/marketplace-pim/internal/utils"
)

var (
	// ApprovalTaskDefaultPopulate resolves the entity back-references.
	ApprovalTaskDefaultPopulate = []string{PathCategory, PathCollection}

	ApprovalTaskPopulate = map[string]string{
		"category":   PathCategory,
		"collection": PathCollection,
	}

	approvalTaskSortFields   = []string{"created_at", "updated_at", "decision_at", "priority", "workflow_status", "entity_type"}
	approvalTaskSearchFields = []string{"approval_tasks.title", "approval_tasks.entity_preview"}
)

type ApprovalTaskRepository interface {
	Create(ctx context.Context, task *models.ApprovalTask) error
	FindByID(ctx context.Context, id uuid.UUID, populate []string) (*models.ApprovalTask, error)
	List(ctx context.Context, params ListParams) ([]models.ApprovalTask, int64, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type approvalTaskRepo struct {
	db *gorm.DB
}

func NewApprovalTaskRepository(db *gorm.DB) ApprovalTaskRepository {
	return &approvalTaskRepo{db: db}
}

func (r *approvalTaskRepo) Create(ctx context.Context, task *models.ApprovalTask) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create approval task: %w", err)
	}
	return nil
}

func (r *approvalTaskRepo) FindByID(ctx context.Context, id uuid.UUID, populate []string) (*models.ApprovalTask, error) {
	var task models.ApprovalTask
	err := applyPreloads(r.db.WithContext(ctx), populate).
		Where("id = ?", id).
		First(&task).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &task, nil
}

func (r *approvalTaskRepo) List(ctx context.Context, params ListParams) ([]models.ApprovalTask, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ApprovalTask{})
	query = applyFilters(query, params.Filters)
	query = applySearch(query, params.Search, approvalTaskSearchFields)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count approval tasks: %w", err)
	}

	var tasks []models.ApprovalTask
	query = utils.ApplySort(query, params.PaginationParams, approvalTaskSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)
	if err := applyPreloads(query, params.Populate).Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list approval tasks: %w", err)
	}
	return tasks, total, nil
}

func (r *approvalTaskRepo) Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error {
	return updateColumns(r.db.WithContext(ctx), &models.ApprovalTask{}, id, patch)
}

func (r *approvalTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ApprovalTask{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete approval task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
