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

// ReferenceOptions describes how a plain lookup table is listed and populated.
type ReferenceOptions struct {
	Name            string
	SortFields      []string
	SearchFields    []string
	DefaultPopulate []string
	Populate        map[string]string
}

var (
	CurrencyOptions = ReferenceOptions{
		Name:         "currency",
		SortFields:   []string{"created_at", "code", "name"},
		SearchFields: []string{"code", "name"},
	}

	SalesChannelOptions = ReferenceOptions{
		Name:         "sales channel",
		SortFields:   []string{"created_at", "name"},
		SearchFields: []string{"name"},
	}

	VendorOptions = ReferenceOptions{
		Name:         "vendor",
		SortFields:   []string{"created_at", "name", "slug"},
		SearchFields: []string{"name", "slug", "contact_email"},
	}

	ProductOptions = ReferenceOptions{
		Name:            "product",
		SortFields:      []string{"created_at", "updated_at", "title", "slug", "sku", "status"},
		SearchFields:    []string{"products.title", "products.slug", "products.sku"},
		DefaultPopulate: []string{PathCategory, PathVendor},
		Populate: map[string]string{
			"category":    PathCategory,
			"vendor":      PathVendor,
			"collections": PathCollections,
		},
	}
)

// ReferenceRepository is the plain CRUD store for records that carry no
// workflow: currencies, sales channels, vendors and products.
type ReferenceRepository[T any] interface {
	Options() ReferenceOptions
	Create(ctx context.Context, record *T) error
	FindByID(ctx context.Context, id uuid.UUID, populate []string) (*T, error)
	List(ctx context.Context, params ListParams) ([]T, int64, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type referenceRepo[T any] struct {
	db      *gorm.DB
	options ReferenceOptions
}

func NewReferenceRepository[T any](db *gorm.DB, options ReferenceOptions) ReferenceRepository[T] {
	return &referenceRepo[T]{db: db, options: options}
}

func NewCurrencyRepository(db *gorm.DB) ReferenceRepository[models.Currency] {
	return NewReferenceRepository[models.Currency](db, CurrencyOptions)
}

func NewSalesChannelRepository(db *gorm.DB) ReferenceRepository[models.SalesChannel] {
	return NewReferenceRepository[models.SalesChannel](db, SalesChannelOptions)
}

func NewVendorRepository(db *gorm.DB) ReferenceRepository[models.Vendor] {
	return NewReferenceRepository[models.Vendor](db, VendorOptions)
}

func NewProductRepository(db *gorm.DB) ReferenceRepository[models.Product] {
	return NewReferenceRepository[models.Product](db, ProductOptions)
}

func (r *referenceRepo[T]) Options() ReferenceOptions {
	return r.options
}

func (r *referenceRepo[T]) Create(ctx context.Context, record *T) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", r.options.Name, err)
	}
	return nil
}

func (r *referenceRepo[T]) FindByID(ctx context.Context, id uuid.UUID, populate []string) (*T, error) {
	var record T
	err := applyPreloads(r.db.WithContext(ctx), populate).
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &record, nil
}

func (r *referenceRepo[T]) List(ctx context.Context, params ListParams) ([]T, int64, error) {
	query := r.db.WithContext(ctx).Model(new(T))
	query = applyFilters(query, params.Filters)
	query = applySearch(query, params.Search, r.options.SearchFields)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count %s records: %w", r.options.Name, err)
	}

	var records []T
	query = utils.ApplySort(query, params.PaginationParams, r.options.SortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)
	if err := applyPreloads(query, params.Populate).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list %s records: %w", r.options.Name, err)
	}
	return records, total, nil
}

func (r *referenceRepo[T]) Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error {
	return updateColumns(r.db.WithContext(ctx), new(T), id, patch)
}

func (r *referenceRepo[T]) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(new(T), "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s: %w", r.options.Name, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
