package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/amoghku/marketplace-pim/internal/models"
)

var (
	ErrTaskNotFound = errors.New("approval task not found")
	ErrTaskDecided  = errors.New("approval task already approved")
)

// TaskLoader reads a task with its entity back-references populated.
// It returns nil and no error when the task does not exist.
type TaskLoader interface {
	LoadTask(ctx context.Context, id uuid.UUID) (*models.ApprovalTask, error)
}

// ApprovalCallback reacts to a task being approved for one entity type.
type ApprovalCallback interface {
	ApproveFromTask(ctx context.Context, task *models.ApprovalTask) error
}

// TaskLifecycle applies task defaults, stamps decisions and dispatches the
// approval callback on the pending|rejected → approved edge.
type TaskLifecycle struct {
	loader    TaskLoader
	callbacks map[models.EntityType]ApprovalCallback
	now       func() time.Time
	logger    logrus.FieldLogger
}

func NewTaskLifecycle(loader TaskLoader, logger logrus.FieldLogger) *TaskLifecycle {
	return &TaskLifecycle{
		loader:    loader,
		callbacks: make(map[models.EntityType]ApprovalCallback),
		now:       time.Now,
		logger:    logger.WithField("component", "approval_task"),
	}
}

// Register must be called before the lifecycle serves writes.
func (l *TaskLifecycle) Register(entityType models.EntityType, callback ApprovalCallback) {
	l.callbacks[entityType] = callback
}

func (l *TaskLifecycle) WithClock(now func() time.Time) *TaskLifecycle {
	l.now = now
	return l
}

func (l *TaskLifecycle) Before(ctx context.Context, m *Mutation) error {
	switch m.Op {
	case OpCreate:
		task, ok := m.Record.(*models.ApprovalTask)
		if !ok {
			return fmt.Errorf("unexpected approval task record %T", m.Record)
		}
		if task.WorkflowStatus == "" {
			task.WorkflowStatus = models.WorkflowStatusPending
		}
		if task.Priority == "" {
			task.Priority = models.TaskPriorityMedium
		}
		task.DecisionAt = nil
		return nil

	case OpUpdate:
		previous, err := l.loader.LoadTask(ctx, m.EntityID)
		if err != nil {
			return fmt.Errorf("failed to load approval task: %w", err)
		}
		if previous == nil {
			return ErrTaskNotFound
		}
		m.PreviousTask = previous

		status, ok := patchStatus(m.Patch)
		if !ok {
			return nil
		}
		// An approved task is final; a rejected one may still be approved.
		if previous.WorkflowStatus == models.WorkflowStatusApproved && status != models.WorkflowStatusApproved {
			return ErrTaskDecided
		}
		if status == models.WorkflowStatusApproved || status == models.WorkflowStatusRejected {
			// Each new decision is stamped; repeating the current one keeps its time.
			changed := previous.WorkflowStatus != status || previous.DecisionAt == nil
			if m.Patch[models.ColumnDecisionAt] == nil && changed {
				m.Patch[models.ColumnDecisionAt] = l.now().UTC()
			}
		}
		return nil
	}

	return fmt.Errorf("unsupported mutation op %s", m.Op)
}

func (l *TaskLifecycle) After(ctx context.Context, m *Mutation) {
	if m.Op != OpUpdate {
		return
	}

	logger := l.logger.WithField("task_id", m.EntityID)

	task, err := l.loader.LoadTask(ctx, m.EntityID)
	if err != nil {
		logger.WithError(err).Error("Failed to reload approval task")
		return
	}
	if task == nil {
		return
	}

	wasApproved := m.PreviousTask != nil && m.PreviousTask.WorkflowStatus == models.WorkflowStatusApproved
	if wasApproved || task.WorkflowStatus != models.WorkflowStatusApproved {
		return
	}

	logger = logger.WithFields(logrus.Fields{
		"entity_type": task.EntityType,
		"entity_id":   task.EntityID,
	})

	callback, ok := l.callbacks[task.EntityType]
	if !ok {
		logger.Warn("No approval callback registered for entity type")
		return
	}

	if err := callback.ApproveFromTask(ctx, task); err != nil {
		logger.WithError(err).Error("Failed to process approved task")
		return
	}
	logger.Info("Approved task processed")
}

func patchStatus(patch Patch) (models.WorkflowStatus, bool) {
	switch v := patch[models.ColumnWorkflowStatus].(type) {
	case models.WorkflowStatus:
		return v, v != ""
	case string:
		return models.WorkflowStatus(v), v != ""
	default:
		return "", false
	}
}
