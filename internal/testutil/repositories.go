package testutil

import (
	"context"

	"github.com/google/uuid"

	"github.com/amoghku/marketplace-pim/internal/models"
	"github.com/amoghku/marketplace-pim/internal/repositories"
)

type categoryRepo struct{ s *Store }

func (r *categoryRepo) Create(ctx context.Context, category *models.Category) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if category.ParentID != nil {
		if _, ok := s.categories[*category.ParentID]; !ok {
			return repositories.ErrInvalidReference
		}
	}
	if err := s.checkSlug(models.EntityTypeCategory, category.Slug, category.ID); err != nil {
		return err
	}

	s.stamp(&category.BaseModel)
	if err := s.replaceValuePerPoints(models.EntityTypeCategory, category.ID, category.ValuePerPoints); err != nil {
		return err
	}

	row := *category
	row.Parent, row.Children, row.Collections, row.ValuePerPoints, row.ApprovalTasks = nil, nil, nil, nil, nil
	s.categories[row.ID] = row
	return nil
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID, populate []string) (*models.Category, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.categories[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	category := s.resolveCategory(row, true)
	return &category, nil
}

func (r *categoryRepo) List(ctx context.Context, params repositories.ListParams) ([]models.Category, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]models.Category, 0, len(s.categories))
	for _, row := range s.categories {
		rows = append(rows, s.resolveCategory(row, false))
	}
	sortByCreated(rows, func(c models.Category) models.BaseModel { return c.BaseModel })
	out, total := page(rows, params)
	return out, total, nil
}

func (r *categoryRepo) Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.categories[id]
	if !ok {
		return repositories.ErrNotFound
	}

	columns, related := splitRelations(patch, models.RelationValuePerPoints)
	updated, err := overlay(row, columns)
	if err != nil {
		return err
	}
	if err := s.checkSlug(models.EntityTypeCategory, updated.Slug, id); err != nil {
		return err
	}
	if value, ok := related[models.RelationValuePerPoints]; ok {
		rows, err := valuePerPointRows(value)
		if err != nil {
			return err
		}
		if err := s.replaceValuePerPoints(models.EntityTypeCategory, id, rows); err != nil {
			return err
		}
	}

	updated.UpdatedAt = s.tick()
	s.categories[id] = updated
	return nil
}

func (r *categoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.categories, id)
	delete(s.valuePerPoints, id)
	for collectionID, ids := range s.collectionCats {
		kept := ids[:0]
		for _, categoryID := range ids {
			if categoryID != id {
				kept = append(kept, categoryID)
			}
		}
		s.collectionCats[collectionID] = kept
	}
	return nil
}

type collectionRepo struct{ s *Store }

func (r *collectionRepo) Create(ctx context.Context, collection *models.Collection) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	categoryIDs := make([]uuid.UUID, 0, len(collection.Categories))
	for _, category := range collection.Categories {
		categoryIDs = append(categoryIDs, category.ID)
	}
	if err := s.checkCategories(categoryIDs); err != nil {
		return err
	}
	if err := s.checkSlug(models.EntityTypeCollection, collection.Slug, collection.ID); err != nil {
		return err
	}

	s.stamp(&collection.BaseModel)
	if err := s.replaceValuePerPoints(models.EntityTypeCollection, collection.ID, collection.ValuePerPoints); err != nil {
		return err
	}
	s.collectionCats[collection.ID] = categoryIDs

	row := *collection
	row.Categories, row.Products, row.ValuePerPoints, row.ApprovalTasks = nil, nil, nil, nil
	s.collections[row.ID] = row
	return nil
}

func (r *collectionRepo) FindByID(ctx context.Context, id uuid.UUID, populate []string) (*models.Collection, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.collections[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	collection := s.resolveCollection(row)
	return &collection, nil
}

func (r *collectionRepo) List(ctx context.Context, params repositories.ListParams) ([]models.Collection, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]models.Collection, 0, len(s.collections))
	for _, row := range s.collections {
		rows = append(rows, s.resolveCollection(row))
	}
	sortByCreated(rows, func(c models.Collection) models.BaseModel { return c.BaseModel })
	out, total := page(rows, params)
	return out, total, nil
}

func (r *collectionRepo) Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.collections[id]
	if !ok {
		return repositories.ErrNotFound
	}

	columns, related := splitRelations(patch, models.RelationValuePerPoints, models.RelationCategories)
	updated, err := overlay(row, columns)
	if err != nil {
		return err
	}
	if err := s.checkSlug(models.EntityTypeCollection, updated.Slug, id); err != nil {
		return err
	}
	if value, ok := related[models.RelationCategories]; ok {
		ids, err := categoryIDs(value)
		if err != nil {
			return err
		}
		if err := s.checkCategories(ids); err != nil {
			return err
		}
		s.collectionCats[id] = ids
	}
	if value, ok := related[models.RelationValuePerPoints]; ok {
		rows, err := valuePerPointRows(value)
		if err != nil {
			return err
		}
		if err := s.replaceValuePerPoints(models.EntityTypeCollection, id, rows); err != nil {
			return err
		}
	}

	updated.UpdatedAt = s.tick()
	s.collections[id] = updated
	return nil
}

func (r *collectionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.collections, id)
	delete(s.collectionCats, id)
	delete(s.valuePerPoints, id)
	return nil
}

func (s *Store) checkCategories(ids []uuid.UUID) error {
	for _, id := range ids {
		if _, ok := s.categories[id]; !ok {
			return repositories.ErrInvalidReference
		}
	}
	return nil
}

func valuePerPointRows(value interface{}) ([]models.ValuePerPoint, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []models.ValuePerPoint:
		return v, nil
	default:
		return nil, repositories.ErrInvalidRelation
	}
}

func categoryIDs(value interface{}) ([]uuid.UUID, error) {
	switch v := value.(type) {
	case nil:
		return []uuid.UUID{}, nil
	case []uuid.UUID:
		return append([]uuid.UUID{}, v...), nil
	case []models.Category:
		ids := make([]uuid.UUID, 0, len(v))
		for _, category := range v {
			ids = append(ids, category.ID)
		}
		return ids, nil
	default:
		return nil, repositories.ErrInvalidRelation
	}
}

type taskRepo struct{ s *Store }

func (r *taskRepo) Create(ctx context.Context, task *models.ApprovalTask) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stamp(&task.BaseModel)
	row := *task
	row.Category, row.Collection = nil, nil
	s.tasks[row.ID] = row
	return nil
}

func (r *taskRepo) FindByID(ctx context.Context, id uuid.UUID, populate []string) (*models.ApprovalTask, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.tasks[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	task := s.resolveTask(row)
	return &task, nil
}

func (r *taskRepo) List(ctx context.Context, params repositories.ListParams) ([]models.ApprovalTask, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]models.ApprovalTask, 0, len(s.tasks))
	for _, row := range s.tasks {
		rows = append(rows, s.resolveTask(row))
	}
	sortByCreated(rows, func(t models.ApprovalTask) models.BaseModel { return t.BaseModel })
	out, total := page(rows, params)
	return out, total, nil
}

func (r *taskRepo) Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.tasks[id]
	if !ok {
		return repositories.ErrNotFound
	}
	updated, err := overlay(row, patch)
	if err != nil {
		return err
	}
	updated.UpdatedAt = s.tick()
	s.tasks[id] = updated
	return nil
}

func (r *taskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// referenceTable is the in-memory ReferenceRepository for lookup tables.
type referenceTable[T any] struct {
	s       *Store
	options repositories.ReferenceOptions
	rows    map[uuid.UUID]T
}

func newReferenceTable[T any](s *Store, options repositories.ReferenceOptions) *referenceTable[T] {
	return &referenceTable[T]{s: s, options: options, rows: make(map[uuid.UUID]T)}
}

// base reaches the embedded BaseModel every reference model carries.
func base[T any](record *T) *models.BaseModel {
	switch v := any(record).(type) {
	case *models.Currency:
		return &v.BaseModel
	case *models.SalesChannel:
		return &v.BaseModel
	case *models.Vendor:
		return &v.BaseModel
	case *models.Product:
		return &v.BaseModel
	}
	panic("testutil: unsupported reference model")
}

func (r *referenceTable[T]) Options() repositories.ReferenceOptions {
	return r.options
}

func (r *referenceTable[T]) Create(ctx context.Context, record *T) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.stamp(base(record))
	r.rows[base(record).ID] = *record
	return nil
}

func (r *referenceTable[T]) FindByID(ctx context.Context, id uuid.UUID, populate []string) (*T, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &row, nil
}

func (r *referenceTable[T]) List(ctx context.Context, params repositories.ListParams) ([]T, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rows := make([]T, 0, len(r.rows))
	for _, row := range r.rows {
		rows = append(rows, row)
	}
	sortByCreated(rows, func(row T) models.BaseModel { return *base(&row) })
	out, total := page(rows, params)
	return out, total, nil
}

func (r *referenceTable[T]) Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return repositories.ErrNotFound
	}
	updated, err := overlay(row, patch)
	if err != nil {
		return err
	}
	base(&updated).UpdatedAt = r.s.tick()
	r.rows[id] = updated
	return nil
}

func (r *referenceTable[T]) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.rows[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}
