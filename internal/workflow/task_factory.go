package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amoghku/marketplace-pim/internal/models"
)

var ErrMissingSnapshot = errors.New("current snapshot is required")

// TaskStore persists approval tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, task *models.ApprovalTask) error
}

// TaskFactory opens approval tasks for meaningful diffs only.
type TaskFactory struct {
	store TaskStore
	now   func() time.Time
}

func NewTaskFactory(store TaskStore) *TaskFactory {
	return &TaskFactory{store: store, now: time.Now}
}

// WithClock replaces the submission clock.
func (f *TaskFactory) WithClock(now func() time.Time) *TaskFactory {
	f.now = now
	return f
}

// CreateApprovalTask returns nil, nil when nothing observable changed.
func (f *TaskFactory) CreateApprovalTask(ctx context.Context, current, previous Snapshot) (*models.ApprovalTask, error) {
	task, err := f.BuildTask(current, previous)
	if err != nil || task == nil {
		return nil, err
	}

	if err := f.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create approval task: %w", err)
	}
	return task, nil
}

// BuildTask builds the unsaved task, or nil when the diff is empty.
func (f *TaskFactory) BuildTask(current, previous Snapshot) (*models.ApprovalTask, error) {
	if absent(current) {
		return nil, ErrMissingSnapshot
	}
	if absent(previous) {
		previous = nil
	}

	diff := current.DiffFrom(previous)
	if !diff.Meaningful() {
		return nil, nil
	}

	isNew := previous == nil
	action, verb := "Update", "updated"
	if isNew {
		action, verb = "Creation", "created"
	}

	entityType := current.EntityType()
	kind := string(entityType)
	id := current.EntityID()
	slug := current.SlugValue()
	label := current.Label()
	submittedAt := f.now().UTC().Format(time.RFC3339Nano)

	stateAfter, err := models.ToJSONB(current)
	if err != nil {
		return nil, err
	}
	var stateBefore models.JSONB
	if !isNew {
		if stateBefore, err = models.ToJSONB(previous); err != nil {
			return nil, err
		}
	}
	diffDoc, err := models.ToJSONB(diff)
	if err != nil {
		return nil, err
	}

	task := &models.ApprovalTask{
		Title:          fmt.Sprintf("%s request: %s", action, label),
		WorkflowStatus: models.WorkflowStatusPending,
		Priority:       models.TaskPriorityMedium,
		EntityType:     entityType,
		EntityID:       id.String(),
		EntityPreview:  slug,
		Summary:        fmt.Sprintf("%s \"%s\" was %s and awaits approval.", displayName(kind), label, verb),
		ContextSnapshot: models.JSONB{
			"previous":     jsonOrNil(stateBefore),
			"current":      stateAfter,
			"submitted_at": submittedAt,
		},
		Metadata: models.JSONB{
			kind + "_slug": slug,
			kind + "_id":   id.String(),
			"submitted_at": submittedAt,
		},
		StateBefore: stateBefore,
		StateAfter:  stateAfter,
		Diff:        diffDoc,
		DecisionAt:  nil,
	}

	switch entityType {
	case models.EntityTypeCategory:
		task.CategoryID = &id
	case models.EntityTypeCollection:
		task.CollectionID = &id
	}

	return task, nil
}

func displayName(kind string) string {
	if kind == "" {
		return kind
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}

func jsonOrNil(doc models.JSONB) interface{} {
	if doc == nil {
		return nil
	}
	return doc
}
