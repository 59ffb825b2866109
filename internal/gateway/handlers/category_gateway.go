package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	cataloghandler "smartgadgets-system/internal/catalog/handler"
)

type CategoryHTTPHandler struct {
	categories *cataloghandler.CategoryHandler
}

func NewCategoryHTTPHandler(categories *cataloghandler.CategoryHandler) *CategoryHTTPHandler {
	return &CategoryHTTPHandler{categories: categories}
}

func (s *CategoryHTTPHandler) ListCategories(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"

	categories, err := s.categories.ListCategories(c.Request.Context(), includeInactive)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, categories)
}

func (s *CategoryHTTPHandler) GetCategory(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid category ID")
		return
	}

	category, err := s.categories.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, category)
}

func (s *CategoryHTTPHandler) GetCategoryBySlug(c *gin.Context) {
	category, err := s.categories.GetCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, category)
}

func (s *CategoryHTTPHandler) CreateCategory(c *gin.Context) {
	var req cataloghandler.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	category, err := s.categories.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusCreated, category)
}

func (s *CategoryHTTPHandler) UpdateCategory(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var req cataloghandler.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	category, err := s.categories.UpdateCategory(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, category)
}

func (s *CategoryHTTPHandler) DeleteCategory(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid category ID")
		return
	}

	if err := s.categories.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, gin.H{"deleted": true})
}
