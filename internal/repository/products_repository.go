package repository

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"catalog-service/internal/importer"
	"catalog-service/internal/models"
)

// Cache TTL constants
const (
	ProductCacheTTL     = 5 * time.Minute // Single product cache
	ProductListCacheTTL = 2 * time.Minute // Product list cache (shorter due to frequent changes)
	OverviewCacheTTL    = 1 * time.Minute // Dashboard aggregates change with every import
)

type ProductsRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewProductsRepository(db *gorm.DB, redisClient *redis.Client) *ProductsRepository {
	return &ProductsRepository{
		db:    db,
		redis: redisClient,
	}
}

// generateListCacheKey creates a deterministic cache key for list queries
func generateListCacheKey(partnerID string, prefix string, params interface{}) string {
	data, _ := json.Marshal(params)
	hash := md5.Sum(data)
	return fmt.Sprintf("catalog:%s:%s:%s", prefix, partnerID, hex.EncodeToString(hash[:]))
}

// invalidateProductCaches invalidates all caches related to a product
func (r *ProductsRepository) invalidateProductCaches(ctx context.Context, partnerID string, productID uuid.UUID) {
	if r.redis == nil {
		return
	}
	r.redis.Del(ctx, fmt.Sprintf("catalog:product:%s:%s", partnerID, productID.String()))
	r.invalidatePartnerListCaches(ctx, partnerID)
}

// invalidatePartnerListCaches drops all list and overview caches for a partner
func (r *ProductsRepository) invalidatePartnerListCaches(ctx context.Context, partnerID string) {
	if r.redis == nil {
		return
	}

	for _, pattern := range []string{
		fmt.Sprintf("catalog:list:%s:*", partnerID),
		fmt.Sprintf("catalog:overview:%s", partnerID),
	} {
		iter := r.redis.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			r.redis.Del(ctx, iter.Val())
		}
	}
}

// Product CRUD Operations

// CreateProduct creates a new product
func (r *ProductsRepository) CreateProduct(partnerID string, product *models.Product) error {
	product.PartnerID = partnerID
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	// Ensure product has an ID before generating slug (for uniqueness)
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}

	// Generate slug from title if not provided or empty
	if product.Slug == nil || *product.Slug == "" {
		baseSlug := importer.Slugify(product.Title)
		// Ensure slug uniqueness by appending first 8 chars of product ID
		uniqueSlug := fmt.Sprintf("%s-%s", baseSlug, product.ID.String()[:8])
		product.Slug = &uniqueSlug
	}

	err := r.db.Create(product).Error
	if err == nil {
		r.invalidatePartnerListCaches(context.Background(), partnerID)
	}
	return err
}

// CreateImportedProduct persists one confirmed import row as an active
// product and returns the new product ID. Satisfies the import pipeline's
// storage contract.
func (r *ProductsRepository) CreateImportedProduct(ctx context.Context, partnerID string, row *importer.NormalizedProduct) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	product := &models.Product{
		Title:      row.Title,
		Price:      row.Price,
		Currency:   row.Currency,
		Stock:      row.Stock,
		CategoryID: row.Category,
		Sizes:      models.StringArray(row.Sizes),
		Tags:       models.StringArray(row.Tags),
		Images:     models.StringArray(row.Images),
		Metadata:   models.StringMap(row.Metadata),
		Status:     models.ProductStatusActive,
	}
	if row.Description != "" {
		product.Description = &row.Description
	}

	if err := r.CreateProduct(partnerID, product); err != nil {
		return "", err
	}
	return product.ID.String(), nil
}

// GetProductByID retrieves a product by ID with caching
func (r *ProductsRepository) GetProductByID(partnerID string, productID uuid.UUID) (*models.Product, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("catalog:product:%s:%s", partnerID, productID.String())

	// Try to get from cache first
	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				return &product, nil
			}
		}
	}

	// Query from database
	var product models.Product
	if err := r.db.Where("partner_id = ? AND id = ?", partnerID, productID).First(&product).Error; err != nil {
		return nil, err
	}

	// Cache the result
	if r.redis != nil {
		data, err := json.Marshal(product)
		if err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductCacheTTL)
		}
	}

	return &product, nil
}

// GetProducts retrieves products with filters and pagination
func (r *ProductsRepository) GetProducts(partnerID string, req *models.ListProductsRequest) ([]models.Product, int64, error) {
	ctx := context.Background()
	cacheKey := generateListCacheKey(partnerID, "list", req)

	type cachedList struct {
		Products []models.Product `json:"products"`
		Total    int64            `json:"total"`
	}

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var cached cachedList
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached.Products, cached.Total, nil
			}
		}
	}

	var products []models.Product
	var total int64

	query := r.db.Model(&models.Product{}).Where("partner_id = ?", partnerID)

	if req.CategoryID != nil && *req.CategoryID != "" {
		query = query.Where("category_id = ?", *req.CategoryID)
	}
	if req.Status != nil && *req.Status != "" {
		query = query.Where("status = ?", *req.Status)
	}
	if req.Query != nil && *req.Query != "" {
		search := "%" + strings.ToLower(*req.Query) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", search, search)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	if r.redis != nil {
		data, err := json.Marshal(cachedList{Products: products, Total: total})
		if err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductListCacheTTL)
		}
	}

	return products, total, nil
}

// UpdateProduct updates a product and invalidates cache
func (r *ProductsRepository) UpdateProduct(partnerID string, productID uuid.UUID, updates *models.Product) error {
	updates.UpdatedAt = time.Now()
	err := r.db.Model(&models.Product{}).
		Where("partner_id = ? AND id = ?", partnerID, productID).
		Updates(updates).Error

	if err == nil {
		r.invalidateProductCaches(context.Background(), partnerID, productID)
	}
	return err
}

// DeleteProduct soft deletes a product
func (r *ProductsRepository) DeleteProduct(partnerID string, productID uuid.UUID) error {
	err := r.db.Where("partner_id = ? AND id = ?", partnerID, productID).
		Delete(&models.Product{}).Error

	if err == nil {
		r.invalidateProductCaches(context.Background(), partnerID, productID)
	}
	return err
}

// GetCatalogOverview aggregates per-partner counts for the dashboard
func (r *ProductsRepository) GetCatalogOverview(partnerID string) (*models.CatalogOverview, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("catalog:overview:%s", partnerID)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var overview models.CatalogOverview
			if err := json.Unmarshal([]byte(val), &overview); err == nil {
				return &overview, nil
			}
		}
	}

	overview := &models.CatalogOverview{ByCategory: make(map[string]int64)}
	base := r.db.Model(&models.Product{}).Where("partner_id = ?", partnerID)

	if err := base.Session(&gorm.Session{}).Count(&overview.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("status = ?", models.ProductStatusActive).Count(&overview.ActiveProducts).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("status = ?", models.ProductStatusDraft).Count(&overview.DraftProducts).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("stock = 0").Count(&overview.OutOfStock).Error; err != nil {
		return nil, err
	}

	type categoryCount struct {
		CategoryID string
		Count      int64
	}
	var byCategory []categoryCount
	if err := base.Session(&gorm.Session{}).
		Select("category_id, COUNT(*) as count").
		Group("category_id").
		Scan(&byCategory).Error; err != nil {
		return nil, err
	}
	for _, c := range byCategory {
		overview.ByCategory[c.CategoryID] = c.Count
	}

	if r.redis != nil {
		data, err := json.Marshal(overview)
		if err == nil {
			r.redis.Set(ctx, cacheKey, data, OverviewCacheTTL)
		}
	}

	return overview, nil
}
