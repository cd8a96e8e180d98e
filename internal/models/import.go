package models

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number, list, url
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// ProductImportColumns returns the column definitions for product import.
// Uploads do not have to use these headers; the field mapper resolves
// arbitrary headers onto the same canonical fields.
func ProductImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "title", Description: "Product title", Required: true, Type: "string", Example: "Neon Rain Jacket"},
		{Name: "description", Description: "Product description", Required: false, Type: "string", Example: "Water-resistant shell"},
		{Name: "price", Description: "Price, must be positive", Required: true, Type: "number", Example: "49.99"},
		{Name: "currency", Description: "ISO currency code (default USD)", Required: false, Type: "string", Example: "EUR"},
		{Name: "stock", Description: "Units in stock (default 0)", Required: false, Type: "number", Example: "10"},
		{Name: "size", Description: "Sizes, separated by , ; or |", Required: false, Type: "list", Example: "s,m,l"},
		{Name: "tags", Description: "Free-text tags, separated by , ; or |", Required: false, Type: "list", Example: "summer,rainwear"},
		{Name: "images", Description: "Image URL", Required: true, Type: "url", Example: "https://cdn.example.com/jacket.jpg"},
		{Name: "category", Description: "Category id or label", Required: true, Type: "string", Example: "clothing"},
		{Name: "metadata", Description: "Anything else worth keeping", Required: false, Type: "string", Example: ""},
	}
}

// ProductImportTemplate returns the template definition for products
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: ProductImportColumns(),
	}
}

// ImportRowEdit carries a review-surface edit of one normalized row.
// Nil fields are left unchanged; the row is re-validated after applying.
type ImportRowEdit struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Currency    *string   `json:"currency,omitempty"`
	Stock       *int      `json:"stock,omitempty"`
	Sizes       *[]string `json:"sizes,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Images      *[]string `json:"images,omitempty"`
	Category    *string   `json:"category,omitempty"`
}
