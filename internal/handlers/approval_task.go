// internal/handlers/approval_task.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/amoghku/marketplace-pim/internal/i18n"
	"github.com/amoghku/marketplace-pim/internal/repositories"
	"github.com/amoghku/marketplace-pim/internal/services"
	"github.com/amoghku/marketplace-pim/internal/utils"
)

type ApprovalTaskHandler struct {
	approvalTaskService *services.ApprovalTaskService
}

func NewApprovalTaskHandler(approvalTaskService *services.ApprovalTaskService) *ApprovalTaskHandler {
	return &ApprovalTaskHandler{approvalTaskService: approvalTaskService}
}

// GET /approval-tasks
func (h *ApprovalTaskHandler) GetApprovalTasks(c *gin.Context) {
	params := listParams(c, repositories.ApprovalTaskDefaultPopulate, repositories.ApprovalTaskPopulate,
		"workflow_status", "priority", "entity_type", "entity_id")

	tasks, total, err := h.approvalTaskService.ListTasks(c.Request.Context(), params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(tasks, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// POST /approval-tasks
func (h *ApprovalTaskHandler) CreateApprovalTask(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateApprovalTaskRequest
	if !bindAndValidate(c, &req) {
		return
	}

	task, err := h.approvalTaskService.CreateManualTask(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, i18n.KeyApprovalTaskNotFound)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":       i18n.T(lang, i18n.KeyApprovalTaskCreated),
		"approval_task": task,
	})
}

// GET /approval-tasks/:id
func (h *ApprovalTaskHandler) GetApprovalTask(c *gin.Context) {
	id, ok := parseIDParam(c, "approval task")
	if !ok {
		return
	}

	populate := utils.MergePopulate(repositories.ApprovalTaskDefaultPopulate, utils.GetPopulate(c), repositories.ApprovalTaskPopulate)
	task, err := h.approvalTaskService.GetTask(c.Request.Context(), id, populate)
	if err != nil {
		respondError(c, err, i18n.KeyApprovalTaskNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"approval_task": task,
	})
}

// PUT /approval-tasks/:id
func (h *ApprovalTaskHandler) UpdateApprovalTask(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c, "approval task")
	if !ok {
		return
	}

	var req services.UpdateApprovalTaskRequest
	if !bindAndValidate(c, &req) {
		return
	}

	task, err := h.approvalTaskService.UpdateTask(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, i18n.KeyApprovalTaskNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":       i18n.T(lang, i18n.KeyApprovalTaskUpdated),
		"approval_task": task,
	})
}

// PUT /approval-tasks/:id/approve
func (h *ApprovalTaskHandler) ApproveApprovalTask(c *gin.Context) {
	h.decide(c, true)
}

// PUT /approval-tasks/:id/reject
func (h *ApprovalTaskHandler) RejectApprovalTask(c *gin.Context) {
	h.decide(c, false)
}

// DELETE /approval-tasks/:id
func (h *ApprovalTaskHandler) DeleteApprovalTask(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c, "approval task")
	if !ok {
		return
	}

	if err := h.approvalTaskService.DeleteTask(c.Request.Context(), id); err != nil {
		respondError(c, err, i18n.KeyApprovalTaskNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyApprovalTaskDeleted),
	})
}

func (h *ApprovalTaskHandler) decide(c *gin.Context, approve bool) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c, "approval task")
	if !ok {
		return
	}

	// The body is optional for the decision shortcuts.
	var req services.DecisionRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}

	decide, messageKey := h.approvalTaskService.Reject, i18n.KeyApprovalTaskRejected
	if approve {
		decide, messageKey = h.approvalTaskService.Approve, i18n.KeyApprovalTaskApproved
	}

	task, err := decide(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, i18n.KeyApprovalTaskNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":       i18n.T(lang, messageKey),
		"approval_task": task,
	})
}
