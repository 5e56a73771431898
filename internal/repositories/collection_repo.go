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
	CollectionDefaultPopulate = append([]string{PathCategories}, valuePerPointsTree...)

	CollectionPopulate = map[string]string{
		"categories":       PathCategories,
		"products":         PathProducts,
		"value_per_points": PathValuePerPoints,
		"approval_tasks":   PathApprovalTasks,
	}

	collectionSortFields   = []string{"created_at", "updated_at", "name", "slug", "sort_rank", "scheduled_start", "workflow_status", "sync_status"}
	collectionSearchFields = []string{"collections.name", "collections.slug", "collections.tagline"}
)

type CollectionRepository interface {
	Create(ctx context.Context, collection *models.Collection) error
	FindByID(ctx context.Context, id uuid.UUID, populate []string) (*models.Collection, error)
	List(ctx context.Context, params ListParams) ([]models.Collection, int64, error)
	// Update writes columns and the categories / value_per_points relation keys in one transaction.
	Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type collectionRepo struct {
	db *gorm.DB
}

func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepo{db: db}
}

func (r *collectionRepo) Create(ctx context.Context, collection *models.Collection) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		overrides := collection.ValuePerPoints
		categoryIDs := make([]uuid.UUID, 0, len(collection.Categories))
		for _, category := range collection.Categories {
			categoryIDs = append(categoryIDs, category.ID)
		}

		if err := tx.Omit(clause.Associations).Create(collection).Error; err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		if err := replaceCollectionCategories(tx, collection.ID, categoryIDs); err != nil {
			return err
		}
		return replaceValuePerPoints(tx, models.EntityTypeCollection, collection.ID, overrides)
	})
}

func (r *collectionRepo) FindByID(ctx context.Context, id uuid.UUID, populate []string) (*models.Collection, error) {
	var collection models.Collection
	err := applyPreloads(r.db.WithContext(ctx), populate).
		Where("id = ?", id).
		First(&collection).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &collection, nil
}

func (r *collectionRepo) List(ctx context.Context, params ListParams) ([]models.Collection, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Collection{})
	query = applyFilters(query, params.Filters)
	query = applySearch(query, params.Search, collectionSearchFields)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count collections: %w", err)
	}

	var collections []models.Collection
	query = utils.ApplySort(query, params.PaginationParams, collectionSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)
	if err := applyPreloads(query, params.Populate).Find(&collections).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list collections: %w", err)
	}
	return collections, total, nil
}

func (r *collectionRepo) Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error {
	columns, related := splitPatch(patch, models.RelationValuePerPoints, models.RelationCategories)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateColumns(tx, &models.Collection{}, id, columns); err != nil {
			return err
		}

		if value, ok := related[models.RelationCategories]; ok {
			ids, err := patchCategoryIDs(value)
			if err != nil {
				return err
			}
			if err := replaceCollectionCategories(tx, id, ids); err != nil {
				return err
			}
		}

		if value, ok := related[models.RelationValuePerPoints]; ok {
			rows, err := patchValuePerPoints(value)
			if err != nil {
				return err
			}
			if err := replaceValuePerPoints(tx, models.EntityTypeCollection, id, rows); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *collectionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Collection{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete collection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// collectionCategory is a row of the collection_categories join table.
type collectionCategory struct {
	CollectionID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CategoryID   uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (collectionCategory) TableName() string {
	return "collection_categories"
}

// replaceCollectionCategories rewrites the join rows without touching the
// category records themselves.
func replaceCollectionCategories(tx *gorm.DB, collectionID uuid.UUID, categoryIDs []uuid.UUID) error {
	ids := uniqueIDs(categoryIDs)
	if err := ensureExists(tx, &models.Category{}, ids); err != nil {
		return err
	}

	if err := tx.Where("collection_id = ?", collectionID).Delete(&collectionCategory{}).Error; err != nil {
		return fmt.Errorf("failed to clear collection categories: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	rows := make([]collectionCategory, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, collectionCategory{CollectionID: collectionID, CategoryID: id})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to link collection categories: %w", err)
	}
	return nil
}

func patchCategoryIDs(value interface{}) ([]uuid.UUID, error) {
	switch v := value.(type) {
	case nil:
		return []uuid.UUID{}, nil
	case []uuid.UUID:
		return v, nil
	case []models.Category:
		ids := make([]uuid.UUID, 0, len(v))
		for _, category := range v {
			ids = append(ids, category.ID)
		}
		return ids, nil
	default:
		return nil, ErrInvalidRelation
	}
}
