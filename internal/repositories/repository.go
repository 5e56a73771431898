// Package repositories holds the gorm-backed storage collaborators.
package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/amoghku/marketplace-pim/internal/models"
	"github.com/amoghku/marketplace-pim/internal/utils"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidReference = errors.New("referenced record does not exist")
	ErrInvalidRelation  = errors.New("invalid relation value")
)

// Preload paths shared by catalog entities.
const (
	PathValuePerPoints             = "ValuePerPoints"
	PathValuePerPointsCurrency     = "ValuePerPoints.Currency"
	PathValuePerPointsSalesChannel = "ValuePerPoints.SalesChannel"
	PathCategories                 = "Categories"
	PathCollections                = "Collections"
	PathProducts                   = "Products"
	PathParent                     = "Parent"
	PathChildren                   = "Children"
	PathApprovalTasks              = "ApprovalTasks"
	PathCategory                   = "Category"
	PathCollection                 = "Collection"
	PathVendor                     = "Vendor"
)

var valuePerPointsTree = []string{PathValuePerPoints, PathValuePerPointsCurrency, PathValuePerPointsSalesChannel}

// ListParams narrows a list query. Filters are column equality matches.
type ListParams struct {
	utils.PaginationParams
	Filters  map[string]interface{}
	Populate []string
}

func applyPreloads(db *gorm.DB, populate []string) *gorm.DB {
	for _, path := range populate {
		if path == PathValuePerPoints {
			// Deterministic read order; duplicates are collapsed before insert.
			db = db.Preload(path, func(tx *gorm.DB) *gorm.DB {
				return tx.Order("value_per_points.created_at ASC, value_per_points.id ASC")
			})
			continue
		}
		db = db.Preload(path)
	}
	return db
}

func applyFilters(db *gorm.DB, filters map[string]interface{}) *gorm.DB {
	for column, value := range filters {
		db = db.Where(column+" = ?", value)
	}
	return db
}

func applySearch(db *gorm.DB, search string, columns []string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" || len(columns) == 0 {
		return db
	}

	pattern := "%" + search + "%"
	clauses := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, column := range columns {
		clauses = append(clauses, column+" ILIKE ?")
		args = append(args, pattern)
	}
	return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// splitPatch separates plain column values from relation keys.
func splitPatch(patch map[string]interface{}, relations ...string) (map[string]interface{}, map[string]interface{}) {
	columns := make(map[string]interface{}, len(patch))
	related := make(map[string]interface{})

	for key, value := range patch {
		isRelation := false
		for _, relation := range relations {
			if key == relation {
				isRelation = true
				break
			}
		}
		if isRelation {
			related[key] = value
		} else {
			columns[key] = value
		}
	}
	return columns, related
}

// patchValuePerPoints accepts the forms handlers and services produce for the
// value_per_points relation key.
func patchValuePerPoints(value interface{}) ([]models.ValuePerPoint, error) {
	switch v := value.(type) {
	case nil:
		return []models.ValuePerPoint{}, nil
	case []models.ValuePerPoint:
		return v, nil
	default:
		return nil, ErrInvalidRelation
	}
}

// Set bundles every repository the services need.
type Set struct {
	Categories    CategoryRepository
	Collections   CollectionRepository
	ApprovalTasks ApprovalTaskRepository
	Currencies    ReferenceRepository[models.Currency]
	SalesChannels ReferenceRepository[models.SalesChannel]
	Vendors       ReferenceRepository[models.Vendor]
	Products      ReferenceRepository[models.Product]
}

func NewSet(db *gorm.DB) Set {
	return Set{
		Categories:    NewCategoryRepository(db),
		Collections:   NewCollectionRepository(db),
		ApprovalTasks: NewApprovalTaskRepository(db),
		Currencies:    NewCurrencyRepository(db),
		SalesChannels: NewSalesChannelRepository(db),
		Vendors:       NewVendorRepository(db),
		Products:      NewProductRepository(db),
	}
}
