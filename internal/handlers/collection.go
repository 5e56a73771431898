// internal/handlers/collection.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/amoghku/marketplace-pim/internal/i18n"
	"github.com/amoghku/marketplace-pim/internal/repositories"
	"github.com/amoghku/marketplace-pim/internal/services"
	"github.com/amoghku/marketplace-pim/internal/utils"
)

type CollectionHandler struct {
	collectionService *services.CollectionService
}

func NewCollectionHandler(collectionService *services.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService}
}

// GET /collections
func (h *CollectionHandler) GetCollections(c *gin.Context) {
	params := listParams(c, repositories.CollectionDefaultPopulate, repositories.CollectionPopulate,
		"workflow_status", "sync_status", "visibility")

	collections, total, err := h.collectionService.ListCollections(c.Request.Context(), params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(collections, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// POST /collections
func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateCollectionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	collection, err := h.collectionService.CreateCollection(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, i18n.KeyCollectionNotFound)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyCollectionCreated),
		"collection": collection,
	})
}

// GET /collections/:id
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	id, ok := parseIDParam(c, "collection")
	if !ok {
		return
	}

	populate := utils.MergePopulate(repositories.CollectionDefaultPopulate, utils.GetPopulate(c), repositories.CollectionPopulate)
	collection, err := h.collectionService.GetCollection(c.Request.Context(), id, populate)
	if err != nil {
		respondError(c, err, i18n.KeyCollectionNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"collection": collection,
	})
}

// PUT /collections/:id
func (h *CollectionHandler) UpdateCollection(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c, "collection")
	if !ok {
		return
	}

	var req services.UpdateCollectionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	collection, err := h.collectionService.UpdateCollection(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, i18n.KeyCollectionNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyCollectionUpdated),
		"collection": collection,
	})
}

// DELETE /collections/:id
func (h *CollectionHandler) DeleteCollection(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c, "collection")
	if !ok {
		return
	}

	if err := h.collectionService.DeleteCollection(c.Request.Context(), id); err != nil {
		respondError(c, err, i18n.KeyCollectionNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCollectionDeleted),
	})
}

// POST /collections/:id/sync
func (h *CollectionHandler) SyncCollection(c *gin.Context) {
	id, ok := parseIDParam(c, "collection")
	if !ok {
		return
	}

	result := h.collectionService.SyncByID(c.Request.Context(), id)
	respondSync(c, result, i18n.KeyCollectionSynced, i18n.KeyCollectionNotFound)
}
