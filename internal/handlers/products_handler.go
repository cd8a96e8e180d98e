package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"catalog-service/internal/events"
	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/sizes"
)

type ProductsHandler struct {
	repo            *repository.ProductsRepository
	registry        *sizes.Registry
	eventsPublisher *events.Publisher
	defaultCurrency string
	defaultLimit    int
	maxLimit        int
}

func NewProductsHandler(repo *repository.ProductsRepository, registry *sizes.Registry, eventsPublisher *events.Publisher, defaultCurrency string, defaultLimit, maxLimit int) *ProductsHandler {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &ProductsHandler{
		repo:            repo,
		registry:        registry,
		eventsPublisher: eventsPublisher,
		defaultCurrency: defaultCurrency,
		defaultLimit:    defaultLimit,
		maxLimit:        maxLimit,
	}
}

// HealthCheck reports service liveness
// GET /health
func (h *ProductsHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "catalog-service",
	})
}

// ListCategories returns the category registry with per-category size
// vocabularies
// GET /api/v1/categories
func (h *ProductsHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.registry.Categories(),
	})
}

// CreateProduct creates a single product directly, outside the bulk import
// flow
// POST /api/v1/products
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	partnerID := middleware.GetPartnerID(c)

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	category, ok := h.registry.ResolveCategory(req.CategoryID)
	if !ok {
		respondError(c, http.StatusBadRequest, "UNKNOWN_CATEGORY", "Category is not part of the registry")
		return
	}

	currency := h.defaultCurrency
	if req.Currency != nil && *req.Currency != "" {
		currency = *req.Currency
	}
	stock := 0
	if req.Stock != nil && *req.Stock >= 0 {
		stock = *req.Stock
	}

	product := &models.Product{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Currency:    currency,
		Stock:       stock,
		CategoryID:  category.ID,
		Sizes:       models.StringArray(req.Sizes),
		Tags:        models.StringArray(req.Tags),
		Images:      models.StringArray(req.Images),
		Metadata:    models.StringMap(req.Metadata),
		Status:      models.ProductStatusDraft,
	}

	if err := h.repo.CreateProduct(partnerID, product); err != nil {
		respondError(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create product")
		return
	}

	if h.eventsPublisher != nil {
		h.eventsPublisher.PublishProductCreated(partnerID, product)
	}

	c.JSON(http.StatusCreated, models.ProductResponse{Success: true, Data: product})
}

// ListProducts returns the partner's catalog with filters and pagination
// GET /api/v1/products
func (h *ProductsHandler) ListProducts(c *gin.Context) {
	partnerID := middleware.GetPartnerID(c)

	var req models.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = h.defaultLimit
	}
	if req.Limit > h.maxLimit {
		req.Limit = h.maxLimit
	}

	products, total, err := h.repo.GetProducts(partnerID, &req)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "LIST_FAILED", "Failed to list products")
		return
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	c.JSON(http.StatusOK, models.ProductListResponse{
		Success: true,
		Data:    products,
		Pagination: &models.PaginationInfo{
			Page:        req.Page,
			Limit:       req.Limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     req.Page < totalPages,
			HasPrevious: req.Page > 1,
		},
	})
}

// GetProduct returns one product by ID
// GET /api/v1/products/:id
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	partnerID := middleware.GetPartnerID(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_PRODUCT_ID", "Product ID must be a valid UUID")
		return
	}

	product, err := h.repo.GetProductByID(partnerID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "GET_FAILED", "Failed to fetch product")
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// DeleteProduct soft deletes a product
// DELETE /api/v1/products/:id
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	partnerID := middleware.GetPartnerID(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_PRODUCT_ID", "Product ID must be a valid UUID")
		return
	}

	if err := h.repo.DeleteProduct(partnerID, productID); err != nil {
		respondError(c, http.StatusInternalServerError, "DELETE_FAILED", "Failed to delete product")
		return
	}

	if h.eventsPublisher != nil {
		h.eventsPublisher.PublishProductDeleted(partnerID, productID)
	}

	message := "Product deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &message})
}

// GetCatalogOverview returns aggregate catalog counts for the dashboard
// GET /api/v1/products/overview
func (h *ProductsHandler) GetCatalogOverview(c *gin.Context) {
	partnerID := middleware.GetPartnerID(c)

	overview, err := h.repo.GetCatalogOverview(partnerID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "OVERVIEW_FAILED", "Failed to compute catalog overview")
		return
	}

	c.JSON(http.StatusOK, models.CatalogOverviewResponse{Success: true, Data: *overview})
}
