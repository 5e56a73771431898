package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoghku/marketplace-pim/internal/models"
	"github.com/amoghku/marketplace-pim/internal/workflow"
)

type taskTable struct {
	rows map[uuid.UUID]*models.ApprovalTask
}

func (t *taskTable) LoadTask(ctx context.Context, id uuid.UUID) (*models.ApprovalTask, error) {
	row, ok := t.rows[id]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (t *taskTable) update(ctx context.Context, m *workflow.Mutation) (uuid.UUID, error) {
	row := t.rows[m.EntityID]
	for column, value := range m.Patch {
		switch column {
		case models.ColumnWorkflowStatus:
			row.WorkflowStatus = value.(models.WorkflowStatus)
		case models.ColumnPriority:
			row.Priority = value.(models.TaskPriority)
		case models.ColumnDecisionAt:
			decided := value.(time.Time)
			row.DecisionAt = &decided
		}
	}
	return m.EntityID, nil
}

type approvals struct {
	tasks []*models.ApprovalTask
	err   error
}

func (a *approvals) ApproveFromTask(ctx context.Context, task *models.ApprovalTask) error {
	a.tasks = append(a.tasks, task)
	return a.err
}

func newLifecycle(tasks ...*models.ApprovalTask) (*workflow.TaskLifecycle, *taskTable, *approvals) {
	table := &taskTable{rows: make(map[uuid.UUID]*models.ApprovalTask)}
	for _, task := range tasks {
		table.rows[task.ID] = task
	}
	logger, _ := test.NewNullLogger()
	callback := &approvals{}
	lifecycle := workflow.NewTaskLifecycle(table, logger).WithClock(func() time.Time { return fixedNow })
	lifecycle.Register(models.EntityTypeCategory, callback)
	return lifecycle, table, callback
}

func pendingTask(status models.WorkflowStatus) *models.ApprovalTask {
	return &models.ApprovalTask{
		BaseModel:      models.BaseModel{ID: uuid.New()},
		Title:          "Update request: Shoes",
		WorkflowStatus: status,
		Priority:       models.TaskPriorityMedium,
		EntityType:     models.EntityTypeCategory,
		EntityID:       uuid.NewString(),
	}
}

func decide(t *testing.T, lifecycle *workflow.TaskLifecycle, table *taskTable, id uuid.UUID, patch workflow.Patch) error {
	t.Helper()
	return workflow.Execute(context.Background(), lifecycle, workflow.NewUpdate(id, patch, workflow.OriginUser), table.update)
}

func TestTaskLifecycle_CreateAppliesDefaults(t *testing.T) {
	lifecycle, _, _ := newLifecycle()
	decided := fixedNow
	task := &models.ApprovalTask{Title: "Manual review", DecisionAt: &decided}

	err := lifecycle.Before(context.Background(), workflow.NewCreate(task, workflow.OriginUser))

	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusPending, task.WorkflowStatus)
	assert.Equal(t, models.TaskPriorityMedium, task.Priority)
	assert.Nil(t, task.DecisionAt)
}

func TestTaskLifecycle_ApprovalStampsDecisionAndFiresCallbackOnce(t *testing.T) {
	task := pendingTask(models.WorkflowStatusPending)
	lifecycle, table, callback := newLifecycle(task)

	require.NoError(t, decide(t, lifecycle, table, task.ID, workflow.Patch{models.ColumnWorkflowStatus: models.WorkflowStatusApproved}))

	require.NotNil(t, table.rows[task.ID].DecisionAt)
	assert.Equal(t, fixedNow, *table.rows[task.ID].DecisionAt)
	require.Len(t, callback.tasks, 1)
	assert.Equal(t, task.ID, callback.tasks[0].ID)

	// Editing an approved task keeps it approved without re-triggering the callback.
	require.NoError(t, decide(t, lifecycle, table, task.ID, workflow.Patch{
		models.ColumnWorkflowStatus: models.WorkflowStatusApproved,
		models.ColumnPriority:       models.TaskPriorityHigh,
	}))
	require.NoError(t, decide(t, lifecycle, table, task.ID, workflow.Patch{models.ColumnPriority: models.TaskPriorityLow}))

	assert.Len(t, callback.tasks, 1)
	assert.Equal(t, models.TaskPriorityLow, table.rows[task.ID].Priority)
}

func TestTaskLifecycle_RejectedTaskCanBeApproved(t *testing.T) {
	task := pendingTask(models.WorkflowStatusPending)
	lifecycle, table, callback := newLifecycle(task)

	now := fixedNow
	lifecycle.WithClock(func() time.Time { return now })

	require.NoError(t, decide(t, lifecycle, table, task.ID, workflow.Patch{models.ColumnWorkflowStatus: models.WorkflowStatusRejected}))
	assert.Empty(t, callback.tasks)
	assert.Equal(t, fixedNow, *table.rows[task.ID].DecisionAt)

	now = fixedNow.Add(time.Hour)
	require.NoError(t, decide(t, lifecycle, table, task.ID, workflow.Patch{models.ColumnWorkflowStatus: models.WorkflowStatusApproved}))

	assert.Len(t, callback.tasks, 1)
	assert.Equal(t, now, *table.rows[task.ID].DecisionAt)

	// Saving the same decision again keeps the approval time.
	later := now
	now = now.Add(time.Hour)
	require.NoError(t, decide(t, lifecycle, table, task.ID, workflow.Patch{models.ColumnWorkflowStatus: models.WorkflowStatusApproved}))
	assert.Equal(t, later, *table.rows[task.ID].DecisionAt)
	assert.Len(t, callback.tasks, 1)
}

func TestTaskLifecycle_ApprovedTaskCannotBeReverted(t *testing.T) {
	task := pendingTask(models.WorkflowStatusApproved)
	lifecycle, table, callback := newLifecycle(task)

	err := decide(t, lifecycle, table, task.ID, workflow.Patch{models.ColumnWorkflowStatus: models.WorkflowStatusRejected})

	assert.ErrorIs(t, err, workflow.ErrTaskDecided)
	assert.Equal(t, models.WorkflowStatusApproved, table.rows[task.ID].WorkflowStatus)
	assert.Empty(t, callback.tasks)
}

func TestTaskLifecycle_ExplicitDecisionAtIsKept(t *testing.T) {
	task := pendingTask(models.WorkflowStatusPending)
	lifecycle, table, _ := newLifecycle(task)
	supplied := time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)

	require.NoError(t, decide(t, lifecycle, table, task.ID, workflow.Patch{
		models.ColumnWorkflowStatus: models.WorkflowStatusRejected,
		models.ColumnDecisionAt:     supplied,
	}))

	assert.Equal(t, supplied, *table.rows[task.ID].DecisionAt)
}

func TestTaskLifecycle_MissingTask(t *testing.T) {
	lifecycle, table, _ := newLifecycle()

	err := decide(t, lifecycle, table, uuid.New(), workflow.Patch{models.ColumnWorkflowStatus: models.WorkflowStatusApproved})

	assert.ErrorIs(t, err, workflow.ErrTaskNotFound)
}

func TestTaskLifecycle_CallbackErrorsAreSwallowed(t *testing.T) {
	task := pendingTask(models.WorkflowStatusPending)
	lifecycle, table, callback := newLifecycle(task)
	callback.err = errors.New("sync exploded")

	err := decide(t, lifecycle, table, task.ID, workflow.Patch{models.ColumnWorkflowStatus: models.WorkflowStatusApproved})

	require.NoError(t, err)
	assert.Len(t, callback.tasks, 1)
}

func TestTaskLifecycle_UnregisteredEntityType(t *testing.T) {
	task := pendingTask(models.WorkflowStatusPending)
	task.EntityType = models.EntityTypeCollection
	lifecycle, table, callback := newLifecycle(task)

	err := decide(t, lifecycle, table, task.ID, workflow.Patch{models.ColumnWorkflowStatus: models.WorkflowStatusApproved})

	require.NoError(t, err)
	assert.Empty(t, callback.tasks)
	assert.Equal(t, models.WorkflowStatusApproved, table.rows[task.ID].WorkflowStatus)
}
