package workflow_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoghku/marketplace-pim/internal/models"
	"github.com/amoghku/marketplace-pim/internal/workflow"
)

func shoesCategory() *models.Category {
	rank := 2
	return &models.Category{
		BaseModel:     models.BaseModel{ID: uuid.New()},
		Name:          "Shoes",
		Slug:          "shoes",
		Visibility:    models.VisibilityPublic,
		SortRank:      &rank,
		WorkflowState: models.WorkflowState{WorkflowStatus: models.WorkflowStatusReadyForReview},
	}
}

func TestComputeCategoryDiff_IdenticalSnapshotsAreEmpty(t *testing.T) {
	category := shoesCategory()

	diff := workflow.ComputeCategoryDiff(workflow.SerializeCategory(category), workflow.SerializeCategory(category))

	assert.Empty(t, diff)
	assert.False(t, diff.Meaningful())
}

func TestComputeCategoryDiff_Creation(t *testing.T) {
	category := shoesCategory()

	diff := workflow.ComputeCategoryDiff(nil, workflow.SerializeCategory(category))

	require.Contains(t, diff, "name")
	assert.Equal(t, workflow.FieldChange{From: nil, To: "Shoes"}, diff["name"])
	assert.Equal(t, workflow.FieldChange{From: nil, To: "shoes"}, diff["slug"])
	assert.Equal(t, workflow.FieldChange{From: nil, To: 2}, diff["sort_rank"])
	assert.Contains(t, diff, "value_per_points")
	assert.NotContains(t, diff, "description")
}

func TestComputeCategoryDiff_FieldChange(t *testing.T) {
	before := shoesCategory()
	after := *before
	after.Name = "Footwear"

	diff := workflow.ComputeCategoryDiff(workflow.SerializeCategory(before), workflow.SerializeCategory(&after))

	assert.Len(t, diff, 1)
	assert.Equal(t, workflow.FieldChange{From: "Shoes", To: "Footwear"}, diff["name"])
}

func TestComputeCategoryDiff_ValuePerPointOrderIsIgnored(t *testing.T) {
	inr := models.Currency{BaseModel: models.BaseModel{ID: uuid.New()}, Code: "INR"}
	usd := models.Currency{BaseModel: models.BaseModel{ID: uuid.New()}, Code: "USD"}
	web := models.SalesChannel{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "Web"}

	before := shoesCategory()
	before.ValuePerPoints = []models.ValuePerPoint{
		{Currency: &inr, SalesChannel: &web, VPP: decimalOf("1")},
		{Currency: &usd, SalesChannel: &web, VPP: decimalOf("2")},
	}
	after := *before
	after.ValuePerPoints = []models.ValuePerPoint{
		{Currency: &usd, SalesChannel: &web, VPP: decimalOf("2")},
		{Currency: &inr, SalesChannel: &web, VPP: decimalOf("1")},
	}

	diff := workflow.ComputeCategoryDiff(workflow.SerializeCategory(before), workflow.SerializeCategory(&after))

	assert.Empty(t, diff)
}

func TestComputeCollectionDiff_CategorySets(t *testing.T) {
	id := uuid.New()
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	apparel := models.Category{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "Apparel", Slug: "apparel"}
	shoes := models.Category{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "Shoes", Slug: "shoes"}
	bags := models.Category{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "Bags", Slug: "bags"}

	before := &models.Collection{
		BaseModel:      models.BaseModel{ID: id},
		Name:           "Summer",
		Slug:           "summer",
		ScheduledStart: &start,
		Categories:     []models.Category{apparel, shoes},
	}
	after := *before
	after.Categories = []models.Category{shoes, bags, bags}

	diff := workflow.ComputeCollectionDiff(workflow.SerializeCollection(before), workflow.SerializeCollection(&after))

	require.Len(t, diff, 1)
	change, ok := diff["categories"].(workflow.RelationChange)
	require.True(t, ok)
	assert.Equal(t, []workflow.CategoryStub{{ID: bags.ID, Name: "Bags", Slug: "bags"}}, change.Added)
	assert.Equal(t, []workflow.CategoryStub{{ID: apparel.ID, Name: "Apparel", Slug: "apparel"}}, change.Removed)
}

func TestComputeCollectionDiff_ScheduleFormatting(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	collection := &models.Collection{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "Summer", ScheduledStart: &start}

	snapshot := workflow.SerializeCollection(collection)

	require.NotNil(t, snapshot.ScheduledStart)
	assert.Equal(t, "2024-05-01T04:00:00Z", *snapshot.ScheduledStart)
	assert.Nil(t, snapshot.ScheduledEnd)
	assert.Nil(t, snapshot.Slug)
	assert.Equal(t, "Summer", snapshot.Label())
}

func decimalOf(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
