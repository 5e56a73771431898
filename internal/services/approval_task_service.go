// internal/services/approval_task_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/amoghku/marketplace-pim/internal/models"
	"github.com/amoghku/marketplace-pim/internal/repositories"
	"github.com/amoghku/marketplace-pim/internal/workflow"
)

// ApprovalTaskService owns task writes. Every create and update goes through
// the task lifecycle, so decisions made over any route trigger the same callbacks.
type ApprovalTaskService struct {
	repo      repositories.ApprovalTaskRepository
	lifecycle *workflow.TaskLifecycle
	logger    logrus.FieldLogger
}

type CreateApprovalTaskRequest struct {
	Title         string              `json:"title" validate:"required,max=255"`
	EntityType    models.EntityType   `json:"entity_type" validate:"required,oneof=category collection"`
	EntityID      uuid.UUID           `json:"entity_id" validate:"required"`
	Priority      models.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	Summary       string              `json:"summary"`
	ReviewerNotes string              `json:"reviewer_notes"`
}

type UpdateApprovalTaskRequest struct {
	Title          *string                `json:"title,omitempty" validate:"omitempty,max=255"`
	WorkflowStatus *models.WorkflowStatus `json:"workflow_status,omitempty" validate:"omitempty,oneof=pending approved rejected"`
	Priority       *models.TaskPriority   `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	ReviewerNotes  *string                `json:"reviewer_notes,omitempty"`
	DecisionAt     *time.Time             `json:"decision_at,omitempty"`
}

// DecisionRequest is the body of the approve and reject shortcuts.
type DecisionRequest struct {
	ReviewerNotes string `json:"reviewer_notes"`
}

func NewApprovalTaskService(repo repositories.ApprovalTaskRepository, logger logrus.FieldLogger) *ApprovalTaskService {
	s := &ApprovalTaskService{
		repo:   repo,
		logger: logger.WithField("component", "approval_task_service"),
	}
	s.lifecycle = workflow.NewTaskLifecycle(s, logger)
	return s
}

func (s *ApprovalTaskService) RegisterCallback(entityType models.EntityType, callback workflow.ApprovalCallback) {
	s.lifecycle.Register(entityType, callback)
}

// Lifecycle exposes the decision handler, mainly to pin its clock.
func (s *ApprovalTaskService) Lifecycle() *workflow.TaskLifecycle {
	return s.lifecycle
}

// CreateTask persists a task built by the approval task factory.
func (s *ApprovalTaskService) CreateTask(ctx context.Context, task *models.ApprovalTask) error {
	m := workflow.NewCreate(task, workflow.OriginSystem)
	return workflow.Execute(ctx, s.lifecycle, m, func(ctx context.Context, m *workflow.Mutation) (uuid.UUID, error) {
		if err := s.repo.Create(ctx, task); err != nil {
			return uuid.Nil, err
		}
		return task.ID, nil
	})
}

// CreateManualTask opens a task from the REST surface.
func (s *ApprovalTaskService) CreateManualTask(ctx context.Context, req *CreateApprovalTaskRequest) (*models.ApprovalTask, error) {
	entityID := req.EntityID
	task := &models.ApprovalTask{
		Title:         req.Title,
		Priority:      req.Priority,
		EntityType:    req.EntityType,
		EntityID:      entityID.String(),
		Summary:       req.Summary,
		ReviewerNotes: req.ReviewerNotes,
	}
	switch req.EntityType {
	case models.EntityTypeCategory:
		task.CategoryID = &entityID
	case models.EntityTypeCollection:
		task.CollectionID = &entityID
	}

	m := workflow.NewCreate(task, workflow.OriginUser)
	err := workflow.Execute(ctx, s.lifecycle, m, func(ctx context.Context, m *workflow.Mutation) (uuid.UUID, error) {
		if err := s.repo.Create(ctx, task); err != nil {
			return uuid.Nil, err
		}
		return task.ID, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create approval task: %w", err)
	}

	return s.GetTask(ctx, task.ID, repositories.ApprovalTaskDefaultPopulate)
}

// LoadTask returns nil and no error when the task does not exist.
func (s *ApprovalTaskService) LoadTask(ctx context.Context, id uuid.UUID) (*models.ApprovalTask, error) {
	task, err := s.repo.FindByID(ctx, id, repositories.ApprovalTaskDefaultPopulate)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}

func (s *ApprovalTaskService) GetTask(ctx context.Context, id uuid.UUID, populate []string) (*models.ApprovalTask, error) {
	return s.repo.FindByID(ctx, id, populate)
}

func (s *ApprovalTaskService) ListTasks(ctx context.Context, params repositories.ListParams) ([]models.ApprovalTask, int64, error) {
	return s.repo.List(ctx, params)
}

func (s *ApprovalTaskService) UpdateTask(ctx context.Context, id uuid.UUID, req *UpdateApprovalTaskRequest) (*models.ApprovalTask, error) {
	patch := workflow.Patch{}
	if req.Title != nil {
		patch["title"] = *req.Title
	}
	if req.WorkflowStatus != nil {
		patch[models.ColumnWorkflowStatus] = *req.WorkflowStatus
	}
	if req.Priority != nil {
		patch[models.ColumnPriority] = *req.Priority
	}
	if req.ReviewerNotes != nil {
		patch["reviewer_notes"] = *req.ReviewerNotes
	}
	if req.DecisionAt != nil {
		patch[models.ColumnDecisionAt] = req.DecisionAt.UTC()
	}

	return s.applyUpdate(ctx, id, patch)
}

func (s *ApprovalTaskService) Approve(ctx context.Context, id uuid.UUID, req *DecisionRequest) (*models.ApprovalTask, error) {
	return s.decide(ctx, id, models.WorkflowStatusApproved, req)
}

func (s *ApprovalTaskService) Reject(ctx context.Context, id uuid.UUID, req *DecisionRequest) (*models.ApprovalTask, error) {
	return s.decide(ctx, id, models.WorkflowStatusRejected, req)
}

func (s *ApprovalTaskService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *ApprovalTaskService) decide(ctx context.Context, id uuid.UUID, status models.WorkflowStatus, req *DecisionRequest) (*models.ApprovalTask, error) {
	patch := workflow.Patch{models.ColumnWorkflowStatus: status}
	if req != nil && req.ReviewerNotes != "" {
		patch["reviewer_notes"] = req.ReviewerNotes
	}
	return s.applyUpdate(ctx, id, patch)
}

func (s *ApprovalTaskService) applyUpdate(ctx context.Context, id uuid.UUID, patch workflow.Patch) (*models.ApprovalTask, error) {
	m := workflow.NewUpdate(id, patch, workflow.OriginUser)
	err := workflow.Execute(ctx, s.lifecycle, m, func(ctx context.Context, m *workflow.Mutation) (uuid.UUID, error) {
		if err := s.repo.Update(ctx, m.EntityID, m.Patch); err != nil {
			return uuid.Nil, err
		}
		return m.EntityID, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update approval task: %w", err)
	}

	return s.GetTask(ctx, id, repositories.ApprovalTaskDefaultPopulate)
}
