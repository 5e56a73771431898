// internal/handlers/common.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amoghku/marketplace-pim/internal/i18n"
	"github.com/amoghku/marketplace-pim/internal/repositories"
	"github.com/amoghku/marketplace-pim/internal/services"
	"github.com/amoghku/marketplace-pim/internal/utils"
	"github.com/amoghku/marketplace-pim/internal/workflow"
)

// parseIDParam reads :id and writes a 400 when it is not a uuid.
func parseIDParam(c *gin.Context, resource string) (uuid.UUID, bool) {
	id, err := services.ParseID(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyInvalidID, resource), nil)
		return uuid.Nil, false
	}
	return id, true
}

// bindAndValidate binds the JSON body into req and runs struct validation.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

// respondError maps service and storage errors onto the response envelope.
func respondError(c *gin.Context, err error, notFoundKey string, args ...interface{}) {
	lang := utils.GetLangFromContext(c)

	switch {
	case errors.Is(err, repositories.ErrNotFound), errors.Is(err, workflow.ErrTaskNotFound):
		utils.NotFoundResponse(c, notFoundKey, args...)
	case errors.Is(err, workflow.ErrTaskDecided):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyApprovalTaskDecided))
	case errors.Is(err, gorm.ErrDuplicatedKey):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyRecordDuplicateSlug))
	case errors.Is(err, repositories.ErrInvalidReference):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationReference), nil)
	case errors.Is(err, services.ErrNegativeValuePerPoint):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationNegative), nil)
	case errors.Is(err, services.ErrInvalidID),
		errors.Is(err, services.ErrInvalidSchedule),
		errors.Is(err, services.ErrSelfParent),
		errors.Is(err, repositories.ErrInvalidRelation):
		utils.BadRequestResponse(c, err.Error(), nil)
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}

// listParams collects pagination, populate and the allowed equality filters.
func listParams(c *gin.Context, defaults []string, allowed map[string]string, filterColumns ...string) repositories.ListParams {
	filters := make(map[string]interface{})
	for _, column := range filterColumns {
		if value := c.Query(column); value != "" {
			filters[column] = value
		}
	}

	return repositories.ListParams{
		PaginationParams: utils.GetPaginationParams(c),
		Filters:          filters,
		Populate:         utils.MergePopulate(defaults, utils.GetPopulate(c), allowed),
	}
}

// respondSync reports a manual sync outcome.
func respondSync(c *gin.Context, result services.SyncResult, syncedKey, notFoundKey string) {
	lang := utils.GetLangFromContext(c)

	switch {
	case result.OK:
		utils.SuccessResponse(c, gin.H{
			"message": i18n.T(lang, syncedKey),
			"result":  result,
		})
	case result.Reason == services.ReasonEntityNotFound:
		utils.NotFoundResponse(c, notFoundKey)
	case result.Reason != "":
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "SYNC_NOT_ATTEMPTED", i18n.T(lang, i18n.KeySyncNotAttempted, result.Reason), result)
	default:
		utils.ErrorResponse(c, http.StatusBadGateway, "SYNC_FAILED", i18n.T(lang, i18n.KeySyncFailed, result.Error), result)
	}
}
