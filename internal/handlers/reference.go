// internal/handlers/reference.go
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amoghku/marketplace-pim/internal/i18n"
	"github.com/amoghku/marketplace-pim/internal/services"
	"github.com/amoghku/marketplace-pim/internal/utils"
)

// ReferenceHandler serves plain CRUD for a lookup table. C is the create
// body and U the partial update body.
type ReferenceHandler[T any, C interface{ Model() *T }, U interface{ Patch() map[string]interface{} }] struct {
	service       *services.ReferenceService[T]
	key           string
	filterColumns []string
}

// NewReferenceHandler builds a handler that responds under key, e.g. "vendor".
func NewReferenceHandler[T any, C interface{ Model() *T }, U interface{ Patch() map[string]interface{} }](
	service *services.ReferenceService[T], key string, filterColumns ...string,
) *ReferenceHandler[T, C, U] {
	return &ReferenceHandler[T, C, U]{service: service, key: key, filterColumns: filterColumns}
}

func (h *ReferenceHandler[T, C, U]) name() string {
	name := h.service.Options().Name
	if name == "" {
		return h.key
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func (h *ReferenceHandler[T, C, U]) List(c *gin.Context) {
	options := h.service.Options()
	params := listParams(c, options.DefaultPopulate, options.Populate, h.filterColumns...)

	records, total, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(records, total, params.PaginationParams))
}

func (h *ReferenceHandler[T, C, U]) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req C
	if !bindAndValidate(c, &req) {
		return
	}

	record, err := h.service.Create(c.Request.Context(), req.Model())
	if err != nil {
		respondError(c, err, i18n.KeyRecordNotFound, h.name())
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyRecordCreated, h.name()),
		h.key:     record,
	})
}

func (h *ReferenceHandler[T, C, U]) Get(c *gin.Context) {
	id, ok := parseIDParam(c, h.key)
	if !ok {
		return
	}

	options := h.service.Options()
	populate := utils.MergePopulate(options.DefaultPopulate, utils.GetPopulate(c), options.Populate)
	record, err := h.service.Get(c.Request.Context(), id, populate)
	if err != nil {
		respondError(c, err, i18n.KeyRecordNotFound, h.name())
		return
	}

	utils.SuccessResponse(c, gin.H{h.key: record})
}

func (h *ReferenceHandler[T, C, U]) Update(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c, h.key)
	if !ok {
		return
	}

	var req U
	if !bindAndValidate(c, &req) {
		return
	}

	record, err := h.service.Update(c.Request.Context(), id, req.Patch())
	if err != nil {
		respondError(c, err, i18n.KeyRecordNotFound, h.name())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyRecordUpdated, h.name()),
		h.key:     record,
	})
}

func (h *ReferenceHandler[T, C, U]) Delete(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c, h.key)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, i18n.KeyRecordNotFound, h.name())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyRecordDeleted, h.name()),
	})
}

// Register mounts the five CRUD routes on group.
func (h *ReferenceHandler[T, C, U]) Register(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}
