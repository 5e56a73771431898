package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/amoghku/marketplace-pim/internal/models"
)

// SnapshotLoader reads the authoritative state of one entity type.
// It returns a nil Snapshot and no error when the entity does not exist.
type SnapshotLoader interface {
	EntityType() models.EntityType
	LoadSnapshot(ctx context.Context, id uuid.UUID) (Snapshot, error)
}

// Interceptor gates writes to one reviewable entity type: user writes are sent
// back to review and produce an approval task when something observable changed.
type Interceptor struct {
	loader  SnapshotLoader
	factory *TaskFactory
	logger  logrus.FieldLogger
}

func NewInterceptor(loader SnapshotLoader, factory *TaskFactory, logger logrus.FieldLogger) *Interceptor {
	return &Interceptor{
		loader:  loader,
		factory: factory,
		logger:  logger.WithField("entity_type", loader.EntityType()),
	}
}

func (i *Interceptor) Before(ctx context.Context, m *Mutation) error {
	switch m.Op {
	case OpCreate:
		m.forceReadyForReview()
		m.Previous = nil
		return nil

	case OpUpdate:
		if m.Origin == OriginSystem {
			m.SkipApproval = true
		} else {
			m.forceReadyForReview()
		}

		previous, err := i.loader.LoadSnapshot(ctx, m.EntityID)
		if err != nil {
			return fmt.Errorf("failed to load previous %s state: %w", i.loader.EntityType(), err)
		}
		m.Previous = previous
		return nil
	}

	return fmt.Errorf("unsupported mutation op %s", m.Op)
}

// After never fails: the write is already committed.
func (i *Interceptor) After(ctx context.Context, m *Mutation) {
	if m.SkipApproval || m.EntityID == uuid.Nil {
		return
	}

	logger := i.logger.WithFields(logrus.Fields{
		"entity_id": m.EntityID,
		"op":        m.Op.String(),
	})

	current, err := i.loader.LoadSnapshot(ctx, m.EntityID)
	if err != nil {
		logger.WithError(err).Error("Failed to reload entity for approval task")
		return
	}

	var previous Snapshot
	if m.Op == OpUpdate {
		previous = m.Previous
	}

	task, err := i.factory.CreateApprovalTask(ctx, current, previous)
	if err != nil {
		logger.WithError(err).Error("Failed to create approval task")
		return
	}
	if task == nil {
		logger.Debug("No observable changes; approval task skipped")
		return
	}

	m.Task = task
	logger.WithField("task_id", task.ID).Info("Approval task created")
}
