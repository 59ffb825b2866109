package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	cataloghandler "smartgadgets-system/internal/catalog/handler"
)

type ProductHTTPHandler struct {
	products *cataloghandler.ProductHandler
}

func NewProductHTTPHandler(products *cataloghandler.ProductHandler) *ProductHTTPHandler {
	return &ProductHTTPHandler{products: products}
}

func (s *ProductHTTPHandler) ListProducts(c *gin.Context) {
	limit, page, offset := parsePagination(c)

	opts := cataloghandler.ListProductsOptions{
		CategorySlug: c.Query("category"),
		CategoryID:   parseInt64Query(c, "category_id"),
		Status:       c.DefaultQuery("status", "active"),
		Featured:     parseBoolQuery(c, "featured"),
		Search:       c.Query("search"),
		MinPrice:     parseInt64Query(c, "min_price"),
		MaxPrice:     parseInt64Query(c, "max_price"),
		SortBy:       c.Query("sort_by"),
		SortOrder:    c.Query("sort_order"),
		Limit:        limit,
		Offset:       offset,
	}

	products, total, err := s.products.ListProducts(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err)
		return
	}

	successPaginated(c, products, page, limit, total)
}

func (s *ProductHTTPHandler) GetProduct(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := s.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, product)
}

func (s *ProductHTTPHandler) GetProductBySlug(c *gin.Context) {
	product, err := s.products.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, product)
}

func (s *ProductHTTPHandler) CreateProduct(c *gin.Context) {
	var req cataloghandler.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	product, err := s.products.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusCreated, product)
}

func (s *ProductHTTPHandler) UpdateProduct(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req cataloghandler.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	product, err := s.products.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, product)
}

func (s *ProductHTTPHandler) DeleteProduct(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := s.products.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, gin.H{"deleted": true})
}

type updateStockRequest struct {
	Quantity *int `json:"quantity"`
}

func (s *ProductHTTPHandler) UpdateStock(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req updateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		fail(c, http.StatusBadRequest, "quantity is required")
		return
	}

	product, err := s.products.UpdateStock(c.Request.Context(), id, *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, product)
}

func (s *ProductHTTPHandler) ListLowStock(c *gin.Context) {
	products, err := s.products.ListLowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, products)
}
