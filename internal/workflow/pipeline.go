package workflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/amoghku/marketplace-pim/internal/models"
)

type Op int

const (
	OpCreate Op = iota + 1
	OpUpdate
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// WriteOrigin tells the hooks who issued a write. System writes are status flips
// and sync bookkeeping issued by the workflow itself; they never open approval
// tasks.
type WriteOrigin int

const (
	OriginUser WriteOrigin = iota
	OriginSystem
)

func (o WriteOrigin) String() string {
	if o == OriginSystem {
		return "system"
	}
	return "user"
}

// Patch holds column values for an update. Relation keys (see models.Relation*)
// are applied by the repository alongside the columns.
type Patch map[string]interface{}

// Mutation is the per-write context threaded through Before, the write and After.
type Mutation struct {
	Op       Op
	Origin   WriteOrigin
	EntityID uuid.UUID

	// Record is the model being inserted (OpCreate).
	Record interface{}
	// Patch is the set of values being written (OpUpdate).
	Patch Patch

	// Captured by Before hooks.
	Previous     Snapshot
	PreviousTask *models.ApprovalTask
	SkipApproval bool

	// Set by After hooks when an approval task was opened.
	Task *models.ApprovalTask
}

func NewCreate(record interface{}, origin WriteOrigin) *Mutation {
	return &Mutation{Op: OpCreate, Origin: origin, Record: record}
}

func NewUpdate(id uuid.UUID, patch Patch, origin WriteOrigin) *Mutation {
	if patch == nil {
		patch = Patch{}
	}
	return &Mutation{Op: OpUpdate, Origin: origin, EntityID: id, Patch: patch}
}

// Hooks run around a single write. Before may veto the write; After runs only
// once the write is committed and cannot fail it.
type Hooks interface {
	Before(ctx context.Context, m *Mutation) error
	After(ctx context.Context, m *Mutation)
}

// WriteFunc persists the mutation and returns the id of the written row.
type WriteFunc func(ctx context.Context, m *Mutation) (uuid.UUID, error)

// Execute runs before → write → after for one mutation.
func Execute(ctx context.Context, hooks Hooks, m *Mutation, write WriteFunc) error {
	if hooks != nil {
		if err := hooks.Before(ctx, m); err != nil {
			return err
		}
	}

	id, err := write(ctx, m)
	if err != nil {
		return err
	}
	if id != uuid.Nil {
		m.EntityID = id
	}

	// The write has committed; follow-up work must outlive the caller.
	if hooks != nil {
		hooks.After(context.WithoutCancel(ctx), m)
	}
	return nil
}

// forceReadyForReview overrides whatever the write requested for the workflow columns.
func (m *Mutation) forceReadyForReview() {
	switch m.Op {
	case OpCreate:
		if r, ok := m.Record.(models.Reviewable); ok {
			r.ResetForReview()
		}
	case OpUpdate:
		if m.Patch == nil {
			m.Patch = Patch{}
		}
		m.Patch[models.ColumnWorkflowStatus] = models.WorkflowStatusReadyForReview
		m.Patch[models.ColumnSyncStatus] = models.SyncStatusNotSynced
		m.Patch[models.ColumnSyncError] = nil
	}
}
