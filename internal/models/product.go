package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "DRAFT"
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusInactive ProductStatus = "INACTIVE"
	ProductStatusArchived ProductStatus = "ARCHIVED"
)

// JSON type for PostgreSQL JSONB (object/map)
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// JSONArray type for PostgreSQL JSONB (array)
type JSONArray []interface{}

func (j JSONArray) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONArray, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// StringArray converts a string slice into a JSONArray for storage.
func StringArray(values []string) *JSONArray {
	if len(values) == 0 {
		return nil
	}
	arr := make(JSONArray, len(values))
	for i, v := range values {
		arr[i] = v
	}
	return &arr
}

// StringMap converts a string map into a JSON object for storage.
func StringMap(values map[string]string) *JSON {
	if len(values) == 0 {
		return nil
	}
	obj := make(JSON, len(values))
	for k, v := range values {
		obj[k] = v
	}
	return &obj
}

// Product represents a catalog product owned by a brand partner.
// Composite indexes on partner_id keep multi-partner queries cheap.
type Product struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	PartnerID   string          `json:"partnerId" gorm:"not null;index:idx_products_partner;index:idx_products_partner_status;index:idx_products_partner_category"`
	Title       string          `json:"title" gorm:"not null"`
	Slug        *string         `json:"slug,omitempty" gorm:"index"`
	Description *string         `json:"description,omitempty"`
	Price       float64         `json:"price" gorm:"not null"`
	Currency    string          `json:"currency" gorm:"not null;default:'USD'"`
	Stock       int             `json:"stock" gorm:"not null;default:0"`
	CategoryID  string          `json:"categoryId" gorm:"not null;index:idx_products_partner_category"`
	Sizes       *JSONArray      `json:"sizes,omitempty" gorm:"type:jsonb"`
	Tags        *JSONArray      `json:"tags,omitempty" gorm:"type:jsonb"`
	Images      *JSONArray      `json:"images,omitempty" gorm:"type:jsonb"`
	Metadata    *JSON           `json:"metadata,omitempty" gorm:"type:jsonb"`
	Status      ProductStatus   `json:"status" gorm:"not null;default:'DRAFT';index:idx_products_partner_status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Title       string            `json:"title" binding:"required"`
	Description *string           `json:"description,omitempty"`
	Price       float64           `json:"price" binding:"required,gt=0"`
	Currency    *string           `json:"currency,omitempty"`
	Stock       *int              `json:"stock,omitempty"`
	CategoryID  string            `json:"categoryId" binding:"required"`
	Sizes       []string          `json:"sizes,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Images      []string          `json:"images,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ListProductsRequest represents list/query parameters for the catalog
type ListProductsRequest struct {
	CategoryID *string        `json:"categoryId,omitempty" form:"categoryId"`
	Status     *ProductStatus `json:"status,omitempty" form:"status"`
	Query      *string        `json:"query,omitempty" form:"query"`
	Page       int            `json:"page" form:"page"`
	Limit      int            `json:"limit" form:"limit"`
}

// CatalogOverview is the aggregate view backing the partner dashboard
type CatalogOverview struct {
	TotalProducts  int64            `json:"totalProducts"`
	ActiveProducts int64            `json:"activeProducts"`
	DraftProducts  int64            `json:"draftProducts"`
	OutOfStock     int64            `json:"outOfStock"`
	ByCategory     map[string]int64 `json:"byCategory"`
}

// Response types
type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
	Message *string  `json:"message,omitempty"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
}

type CatalogOverviewResponse struct {
	Success bool            `json:"success"`
	Data    CatalogOverview `json:"data"`
}

type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}
