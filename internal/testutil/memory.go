// Package testutil provides in-memory collaborators for service and handler tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amoghku/marketplace-pim/internal/models"
	"github.com/amoghku/marketplace-pim/internal/repositories"
)

// Store keeps every table in memory. Reads always return copies with the
// relations the services preload already resolved.
type Store struct {
	mu sync.Mutex

	categories     map[uuid.UUID]models.Category
	collections    map[uuid.UUID]models.Collection
	collectionCats map[uuid.UUID][]uuid.UUID
	valuePerPoints map[uuid.UUID][]models.ValuePerPoint
	tasks          map[uuid.UUID]models.ApprovalTask

	currencies    *referenceTable[models.Currency]
	salesChannels *referenceTable[models.SalesChannel]
	vendors       *referenceTable[models.Vendor]
	products      *referenceTable[models.Product]

	clock time.Time
}

func NewStore() *Store {
	s := &Store{
		categories:     make(map[uuid.UUID]models.Category),
		collections:    make(map[uuid.UUID]models.Collection),
		collectionCats: make(map[uuid.UUID][]uuid.UUID),
		valuePerPoints: make(map[uuid.UUID][]models.ValuePerPoint),
		tasks:          make(map[uuid.UUID]models.ApprovalTask),
		clock:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	s.currencies = newReferenceTable[models.Currency](s, repositories.CurrencyOptions)
	s.salesChannels = newReferenceTable[models.SalesChannel](s, repositories.SalesChannelOptions)
	s.vendors = newReferenceTable[models.Vendor](s, repositories.VendorOptions)
	s.products = newReferenceTable[models.Product](s, repositories.ProductOptions)
	return s
}

// Set exposes the store through the repository interfaces.
func (s *Store) Set() repositories.Set {
	return repositories.Set{
		Categories:    &categoryRepo{s: s},
		Collections:   &collectionRepo{s: s},
		ApprovalTasks: &taskRepo{s: s},
		Currencies:    s.currencies,
		SalesChannels: s.salesChannels,
		Vendors:       s.vendors,
		Products:      s.products,
	}
}

// checkSlug mirrors the partial unique indexes on categories.slug and
// collections.slug: empty slugs never collide.
func (s *Store) checkSlug(entityType models.EntityType, slug string, self uuid.UUID) error {
	if slug == "" {
		return nil
	}
	switch entityType {
	case models.EntityTypeCategory:
		for id, row := range s.categories {
			if id != self && row.Slug == slug {
				return gorm.ErrDuplicatedKey
			}
		}
	case models.EntityTypeCollection:
		for id, row := range s.collections {
			if id != self && row.Slug == slug {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	return nil
}

// AddCurrency inserts a currency directly and returns it.
func (s *Store) AddCurrency(code, name string) models.Currency {
	currency := models.Currency{Code: code, Name: name}
	if err := s.currencies.Create(context.Background(), &currency); err != nil {
		panic(err)
	}
	return currency
}

// AddSalesChannel inserts a sales channel directly and returns it.
func (s *Store) AddSalesChannel(name string) models.SalesChannel {
	channel := models.SalesChannel{Name: name}
	if err := s.salesChannels.Create(context.Background(), &channel); err != nil {
		panic(err)
	}
	return channel
}

// Tasks returns every approval task ordered by creation.
func (s *Store) Tasks() []models.ApprovalTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]models.ApprovalTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, s.resolveTask(task))
	}
	sortByCreated(tasks, func(t models.ApprovalTask) models.BaseModel { return t.BaseModel })
	return tasks
}

// TasksFor returns the approval tasks opened for one entity.
func (s *Store) TasksFor(entityID uuid.UUID) []models.ApprovalTask {
	var out []models.ApprovalTask
	for _, task := range s.Tasks() {
		if task.EntityID == entityID.String() {
			out = append(out, task)
		}
	}
	return out
}

func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *Store) stamp(base *models.BaseModel) {
	now := s.tick()
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	base.CreatedAt = now
	base.UpdatedAt = now
}

func (s *Store) resolveValuePerPoints(ownerID uuid.UUID) []models.ValuePerPoint {
	rows := s.valuePerPoints[ownerID]
	out := make([]models.ValuePerPoint, 0, len(rows))
	for _, row := range rows {
		if row.CurrencyID != nil {
			if currency, ok := s.currencies.rows[*row.CurrencyID]; ok {
				row.Currency = &currency
			}
		}
		if row.SalesChannelID != nil {
			if channel, ok := s.salesChannels.rows[*row.SalesChannelID]; ok {
				row.SalesChannel = &channel
			}
		}
		out = append(out, row)
	}
	return out
}

func (s *Store) replaceValuePerPoints(ownerType models.EntityType, ownerID uuid.UUID, rows []models.ValuePerPoint) error {
	stored := make([]models.ValuePerPoint, 0, len(rows))
	for _, row := range rows {
		if row.CurrencyID == nil && row.Currency != nil {
			id := row.Currency.ID
			row.CurrencyID = &id
		}
		if row.SalesChannelID == nil && row.SalesChannel != nil {
			id := row.SalesChannel.ID
			row.SalesChannelID = &id
		}
		if row.CurrencyID != nil {
			if _, ok := s.currencies.rows[*row.CurrencyID]; !ok {
				return repositories.ErrInvalidReference
			}
		}
		if row.SalesChannelID != nil {
			if _, ok := s.salesChannels.rows[*row.SalesChannelID]; !ok {
				return repositories.ErrInvalidReference
			}
		}

		row.BaseModel = models.BaseModel{}
		s.stamp(&row.BaseModel)
		row.OwnerID = ownerID
		row.OwnerType = string(ownerType)
		row.Currency = nil
		row.SalesChannel = nil
		stored = append(stored, row)
	}
	s.valuePerPoints[ownerID] = stored
	return nil
}

func (s *Store) resolveCategory(category models.Category, withCollections bool) models.Category {
	category.ValuePerPoints = s.resolveValuePerPoints(category.ID)
	if category.ParentID != nil {
		if parent, ok := s.categories[*category.ParentID]; ok {
			category.Parent = &parent
		}
	}
	if withCollections {
		for collectionID, categoryIDs := range s.collectionCats {
			for _, id := range categoryIDs {
				if id == category.ID {
					category.Collections = append(category.Collections, s.collections[collectionID])
				}
			}
		}
		sortByCreated(category.Collections, func(c models.Collection) models.BaseModel { return c.BaseModel })
	}
	return category
}

func (s *Store) resolveCollection(collection models.Collection) models.Collection {
	collection.ValuePerPoints = s.resolveValuePerPoints(collection.ID)
	for _, id := range s.collectionCats[collection.ID] {
		if category, ok := s.categories[id]; ok {
			collection.Categories = append(collection.Categories, category)
		}
	}
	return collection
}

func (s *Store) resolveTask(task models.ApprovalTask) models.ApprovalTask {
	if task.CategoryID != nil {
		if category, ok := s.categories[*task.CategoryID]; ok {
			task.Category = &category
		}
	}
	if task.CollectionID != nil {
		if collection, ok := s.collections[*task.CollectionID]; ok {
			task.Collection = &collection
		}
	}
	return task
}

// overlay applies column values onto a stored row through its JSON form;
// every column name equals the field's json tag.
func overlay[T any](row T, columns map[string]interface{}) (T, error) {
	var out T
	raw, err := json.Marshal(row)
	if err != nil {
		return out, err
	}
	doc := map[string]interface{}{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return out, err
	}
	for column, value := range columns {
		doc[column] = value
	}
	if raw, err = json.Marshal(doc); err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to apply patch: %w", err)
	}
	return out, nil
}

func splitRelations(patch map[string]interface{}, relations ...string) (map[string]interface{}, map[string]interface{}) {
	columns := make(map[string]interface{}, len(patch))
	related := make(map[string]interface{})
	for key, value := range patch {
		matched := false
		for _, relation := range relations {
			if key == relation {
				matched = true
			}
		}
		if matched {
			related[key] = value
		} else {
			columns[key] = value
		}
	}
	return columns, related
}

func sortByCreated[T any](items []T, base func(T) models.BaseModel) {
	sort.SliceStable(items, func(i, j int) bool {
		return base(items[i]).CreatedAt.Before(base(items[j]).CreatedAt)
	})
}

// page applies the list window and equality filters through each row's JSON form.
func page[T any](rows []T, params repositories.ListParams) ([]T, int64) {
	filtered := make([]T, 0, len(rows))
	for _, row := range rows {
		if matches(row, params.Filters) {
			filtered = append(filtered, row)
		}
	}

	total := int64(len(filtered))
	if params.Limit <= 0 {
		return filtered, total
	}
	start := params.Offset()
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + params.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total
}

func matches(row interface{}, filters map[string]interface{}) bool {
	if len(filters) == 0 {
		return true
	}
	raw, _ := json.Marshal(row)
	doc := map[string]interface{}{}
	_ = json.Unmarshal(raw, &doc)
	for column, want := range filters {
		if fmt.Sprint(doc[column]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
