package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/amoghku/marketplace-pim/internal/models"
)

// Snapshot is the comparable projection of a reviewable entity.
type Snapshot interface {
	EntityType() models.EntityType
	EntityID() uuid.UUID
	// Label is the name, or the slug when the entity is unnamed.
	Label() string
	SlugValue() string
	// DiffFrom compares the receiver against an older snapshot of the same type.
	DiffFrom(previous Snapshot) Diff
}

type CategorySnapshot struct {
	ID             uuid.UUID       `json:"id"`
	Name           *string         `json:"name"`
	Slug           *string         `json:"slug"`
	Description    *string         `json:"description"`
	Visibility     *string         `json:"visibility"`
	SortRank       *int            `json:"sort_rank"`
	WorkflowStatus *string         `json:"workflow_status"`
	ValuePerPoints []NormalizedVPP `json:"value_per_points"`
}

type CategoryStub struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type CollectionSnapshot struct {
	ID             uuid.UUID       `json:"id"`
	Name           *string         `json:"name"`
	Slug           *string         `json:"slug"`
	Tagline        *string         `json:"tagline"`
	Description    *string         `json:"description"`
	Visibility     *string         `json:"visibility"`
	SortRank       *int            `json:"sort_rank"`
	ScheduledStart *string         `json:"scheduled_start"`
	ScheduledEnd   *string         `json:"scheduled_end"`
	WorkflowStatus *string         `json:"workflow_status"`
	Categories     []CategoryStub  `json:"categories"`
	ValuePerPoints []NormalizedVPP `json:"value_per_points"`
}

// SerializeCategory returns nil for a nil category, meaning "did not exist".
func SerializeCategory(c *models.Category) *CategorySnapshot {
	if c == nil {
		return nil
	}

	return &CategorySnapshot{
		ID:             c.ID,
		Name:           optionalString(c.Name),
		Slug:           optionalString(c.Slug),
		Description:    optionalString(c.Description),
		Visibility:     optionalString(string(c.Visibility)),
		SortRank:       copyInt(c.SortRank),
		WorkflowStatus: optionalString(string(c.WorkflowStatus)),
		ValuePerPoints: NormalizeValuePerPoints(EntriesFromModels(c.ValuePerPoints)),
	}
}

// SerializeCollection returns nil for a nil collection, meaning "did not exist".
func SerializeCollection(c *models.Collection) *CollectionSnapshot {
	if c == nil {
		return nil
	}

	categories := make([]CategoryStub, 0, len(c.Categories))
	for _, category := range c.Categories {
		categories = append(categories, CategoryStub{
			ID:   category.ID,
			Name: category.Name,
			Slug: category.Slug,
		})
	}

	return &CollectionSnapshot{
		ID:             c.ID,
		Name:           optionalString(c.Name),
		Slug:           optionalString(c.Slug),
		Tagline:        optionalString(c.Tagline),
		Description:    optionalString(c.Description),
		Visibility:     optionalString(string(c.Visibility)),
		SortRank:       copyInt(c.SortRank),
		ScheduledStart: formatTime(c.ScheduledStart),
		ScheduledEnd:   formatTime(c.ScheduledEnd),
		WorkflowStatus: optionalString(string(c.WorkflowStatus)),
		Categories:     categories,
		ValuePerPoints: NormalizeValuePerPoints(EntriesFromModels(c.ValuePerPoints)),
	}
}

func (s *CategorySnapshot) EntityType() models.EntityType { return models.EntityTypeCategory }
func (s *CategorySnapshot) EntityID() uuid.UUID           { return s.ID }
func (s *CategorySnapshot) SlugValue() string             { return deref(s.Slug) }

func (s *CategorySnapshot) Label() string {
	if s.Name != nil {
		return *s.Name
	}
	return deref(s.Slug)
}

func (s *CategorySnapshot) DiffFrom(previous Snapshot) Diff {
	prev, _ := previous.(*CategorySnapshot)
	return ComputeCategoryDiff(prev, s)
}

func (s *CollectionSnapshot) EntityType() models.EntityType { return models.EntityTypeCollection }
func (s *CollectionSnapshot) EntityID() uuid.UUID           { return s.ID }
func (s *CollectionSnapshot) SlugValue() string             { return deref(s.Slug) }

func (s *CollectionSnapshot) Label() string {
	if s.Name != nil {
		return *s.Name
	}
	return deref(s.Slug)
}

func (s *CollectionSnapshot) DiffFrom(previous Snapshot) Diff {
	prev, _ := previous.(*CollectionSnapshot)
	return ComputeCollectionDiff(prev, s)
}

// absent treats both a nil interface and a typed nil snapshot as "no entity".
func absent(s Snapshot) bool {
	switch v := s.(type) {
	case nil:
		return true
	case *CategorySnapshot:
		return v == nil
	case *CollectionSnapshot:
		return v == nil
	}
	return false
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func formatTime(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
