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
	// CategoryDefaultPopulate is the relation tree every category read loads.
	CategoryDefaultPopulate = append([]string{PathParent}, valuePerPointsTree...)

	// CategoryPopulate maps populate query names to preload paths.
	CategoryPopulate = map[string]string{
		"parent":           PathParent,
		"children":         PathChildren,
		"collections":      PathCollections,
		"value_per_points": PathValuePerPoints,
		"approval_tasks":   PathApprovalTasks,
	}

	categorySortFields   = []string{"created_at", "updated_at", "name", "slug", "sort_rank", "workflow_status", "sync_status"}
	categorySearchFields = []string{"categories.name", "categories.slug"}
)

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id uuid.UUID, populate []string) (*models.Category, error)
	List(ctx context.Context, params ListParams) ([]models.Category, int64, error)
	// Update writes columns and the value_per_points relation key in one transaction.
	Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if category.ParentID != nil {
			if err := ensureExists(tx, &models.Category{}, []uuid.UUID{*category.ParentID}); err != nil {
				return err
			}
		}

		overrides := category.ValuePerPoints
		if err := tx.Omit(clause.Associations).Create(category).Error; err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}
		return replaceValuePerPoints(tx, models.EntityTypeCategory, category.ID, overrides)
	})
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID, populate []string) (*models.Category, error) {
	var category models.Category
	err := applyPreloads(r.db.WithContext(ctx), populate).
		Where("id = ?", id).
		First(&category).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &category, nil
}

func (r *categoryRepo) List(ctx context.Context, params ListParams) ([]models.Category, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Category{})
	query = applyFilters(query, params.Filters)
	query = applySearch(query, params.Search, categorySearchFields)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count categories: %w", err)
	}

	var categories []models.Category
	query = utils.ApplySort(query, params.PaginationParams, categorySortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)
	if err := applyPreloads(query, params.Populate).Find(&categories).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, total, nil
}

func (r *categoryRepo) Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error {
	columns, related := splitPatch(patch, models.RelationValuePerPoints)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateColumns(tx, &models.Category{}, id, columns); err != nil {
			return err
		}

		if value, ok := related[models.RelationValuePerPoints]; ok {
			rows, err := patchValuePerPoints(value)
			if err != nil {
				return err
			}
			if err := replaceValuePerPoints(tx, models.EntityTypeCategory, id, rows); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *categoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// updateColumns applies columns to one live row of model. An empty column set
// only checks that the row exists.
func updateColumns(tx *gorm.DB, model interface{}, id uuid.UUID, columns map[string]interface{}) error {
	if len(columns) == 0 {
		var count int64
		if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return nil
	}

	result := tx.Model(model).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("failed to update record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
