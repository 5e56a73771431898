// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess      = "success"
	KeyError        = "error"
	KeyInvalidID    = "common.invalid_id"
	KeyRateLimited  = "common.rate_limited"
	KeyInternal     = "common.internal_error"
	KeyInvalidInput = "common.invalid_input"

	// Categories
	KeyCategoryCreated  = "category.created"
	KeyCategoryUpdated  = "category.updated"
	KeyCategoryDeleted  = "category.deleted"
	KeyCategoryNotFound = "category.not_found"
	KeyCategorySynced   = "category.synced"

	// Collections
	KeyCollectionCreated  = "collection.created"
	KeyCollectionUpdated  = "collection.updated"
	KeyCollectionDeleted  = "collection.deleted"
	KeyCollectionNotFound = "collection.not_found"
	KeyCollectionSynced   = "collection.synced"

	// Approval tasks
	KeyApprovalTaskCreated  = "approval_task.created"
	KeyApprovalTaskUpdated  = "approval_task.updated"
	KeyApprovalTaskDeleted  = "approval_task.deleted"
	KeyApprovalTaskNotFound = "approval_task.not_found"
	KeyApprovalTaskApproved = "approval_task.approved"
	KeyApprovalTaskRejected = "approval_task.rejected"
	KeyApprovalTaskDecided  = "approval_task.already_decided"

	// Sync
	KeySyncNotAttempted = "sync.not_attempted"
	KeySyncFailed       = "sync.failed"

	// Reference records
	KeyRecordCreated       = "record.created"
	KeyRecordUpdated       = "record.updated"
	KeyRecordDeleted       = "record.deleted"
	KeyRecordNotFound      = "record.not_found"
	KeyRecordDuplicateSlug = "record.duplicate_slug"

	// Validation
	KeyValidationRequired  = "validation.required"
	KeyValidationInvalid   = "validation.invalid"
	KeyValidationReference = "validation.invalid_reference"
	KeyValidationNegative  = "validation.negative_value"
)
