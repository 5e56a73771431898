// internal/handlers/category.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/amoghku/marketplace-pim/internal/i18n"
	"github.com/amoghku/marketplace-pim/internal/repositories"
	"github.com/amoghku/marketplace-pim/internal/services"
	"github.com/amoghku/marketplace-pim/internal/utils"
)

type CategoryHandler struct {
	categoryService *services.CategoryService
}

func NewCategoryHandler(categoryService *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// GET /categories
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	params := listParams(c, repositories.CategoryDefaultPopulate, repositories.CategoryPopulate,
		"workflow_status", "sync_status", "visibility", "parent_id")

	categories, total, err := h.categoryService.ListCategories(c.Request.Context(), params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(categories, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// POST /categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateCategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, i18n.KeyCategoryNotFound)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyCategoryCreated),
		"category": category,
	})
}

// GET /categories/:id
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "category")
	if !ok {
		return
	}

	populate := utils.MergePopulate(repositories.CategoryDefaultPopulate, utils.GetPopulate(c), repositories.CategoryPopulate)
	category, err := h.categoryService.GetCategory(c.Request.Context(), id, populate)
	if err != nil {
		respondError(c, err, i18n.KeyCategoryNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"category": category,
	})
}

// PUT /categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c, "category")
	if !ok {
		return
	}

	var req services.UpdateCategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, i18n.KeyCategoryNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyCategoryUpdated),
		"category": category,
	})
}

// DELETE /categories/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c, "category")
	if !ok {
		return
	}

	if err := h.categoryService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err, i18n.KeyCategoryNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCategoryDeleted),
	})
}

// POST /categories/:id/sync
func (h *CategoryHandler) SyncCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "category")
	if !ok {
		return
	}

	result := h.categoryService.SyncByID(c.Request.Context(), id)
	respondSync(c, result, i18n.KeyCategorySynced, i18n.KeyCategoryNotFound)
}
