package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoghku/marketplace-pim/internal/models"
	"github.com/amoghku/marketplace-pim/internal/workflow"
)

type recordingStore struct {
	tasks []*models.ApprovalTask
	err   error
}

func (s *recordingStore) CreateTask(ctx context.Context, task *models.ApprovalTask) error {
	if s.err != nil {
		return s.err
	}
	task.ID = uuid.New()
	s.tasks = append(s.tasks, task)
	return nil
}

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func TestTaskFactory_CreationTask(t *testing.T) {
	store := &recordingStore{}
	factory := workflow.NewTaskFactory(store).WithClock(func() time.Time { return fixedNow })
	category := shoesCategory()

	task, err := factory.CreateApprovalTask(context.Background(), workflow.SerializeCategory(category), nil)

	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Len(t, store.tasks, 1)
	assert.Equal(t, "Creation request: Shoes", task.Title)
	assert.Equal(t, `Category "Shoes" was created and awaits approval.`, task.Summary)
	assert.Equal(t, models.WorkflowStatusPending, task.WorkflowStatus)
	assert.Equal(t, models.TaskPriorityMedium, task.Priority)
	assert.Equal(t, models.EntityTypeCategory, task.EntityType)
	assert.Equal(t, category.ID.String(), task.EntityID)
	assert.Equal(t, "shoes", task.EntityPreview)
	assert.Nil(t, task.StateBefore)
	assert.Nil(t, task.DecisionAt)
	require.NotNil(t, task.CategoryID)
	assert.Equal(t, category.ID, *task.CategoryID)
	assert.Nil(t, task.CollectionID)

	assert.Equal(t, "shoes", task.Metadata["category_slug"])
	assert.Equal(t, category.ID.String(), task.Metadata["category_id"])
	assert.Equal(t, "2024-03-15T10:00:00Z", task.Metadata["submitted_at"])
	assert.Nil(t, task.ContextSnapshot["previous"])
	assert.Equal(t, "Shoes", task.StateAfter["name"])
	assert.Contains(t, task.Diff, "name")
}

func TestTaskFactory_UpdateTaskForCollection(t *testing.T) {
	store := &recordingStore{}
	factory := workflow.NewTaskFactory(store)

	before := &models.Collection{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "Summer", Slug: "summer"}
	after := *before
	after.Tagline = "Hot deals"

	task, err := factory.CreateApprovalTask(context.Background(), workflow.SerializeCollection(&after), workflow.SerializeCollection(before))

	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "Update request: Summer", task.Title)
	assert.Equal(t, `Collection "Summer" was updated and awaits approval.`, task.Summary)
	assert.Equal(t, "summer", task.Metadata["collection_slug"])
	require.NotNil(t, task.CollectionID)
	assert.Equal(t, before.ID, *task.CollectionID)
	assert.Equal(t, "Summer", task.StateBefore["name"])
	assert.Equal(t, map[string]interface{}{"from": nil, "to": "Hot deals"}, task.Diff["tagline"])
	assert.Len(t, task.Diff, 1)
}

func TestTaskFactory_SkipsEmptyDiff(t *testing.T) {
	store := &recordingStore{}
	factory := workflow.NewTaskFactory(store)
	snapshot := workflow.SerializeCategory(shoesCategory())

	task, err := factory.CreateApprovalTask(context.Background(), snapshot, snapshot)

	require.NoError(t, err)
	assert.Nil(t, task)
	assert.Empty(t, store.tasks)
}

func TestTaskFactory_LabelFallsBackToSlug(t *testing.T) {
	factory := workflow.NewTaskFactory(&recordingStore{})
	category := shoesCategory()
	category.Name = ""

	task, err := factory.BuildTask(workflow.SerializeCategory(category), nil)

	require.NoError(t, err)
	assert.Equal(t, "Creation request: shoes", task.Title)
}

func TestTaskFactory_SummaryKeepsNameVerbatim(t *testing.T) {
	factory := workflow.NewTaskFactory(&recordingStore{})
	category := shoesCategory()
	category.Name = `Kids "Mini" Shoes`

	task, err := factory.BuildTask(workflow.SerializeCategory(category), nil)

	require.NoError(t, err)
	assert.Equal(t, `Category "Kids "Mini" Shoes" was created and awaits approval.`, task.Summary)
}

func TestTaskFactory_RequiresCurrentSnapshot(t *testing.T) {
	factory := workflow.NewTaskFactory(&recordingStore{})

	_, err := factory.CreateApprovalTask(context.Background(), (*workflow.CategorySnapshot)(nil), nil)
	assert.ErrorIs(t, err, workflow.ErrMissingSnapshot)

	_, err = factory.CreateApprovalTask(context.Background(), nil, nil)
	assert.ErrorIs(t, err, workflow.ErrMissingSnapshot)
}

func TestTaskFactory_WrapsStoreErrors(t *testing.T) {
	storeErr := errors.New("insert failed")
	factory := workflow.NewTaskFactory(&recordingStore{err: storeErr})

	task, err := factory.CreateApprovalTask(context.Background(), workflow.SerializeCategory(shoesCategory()), nil)

	assert.Nil(t, task)
	assert.ErrorIs(t, err, storeErr)
}
