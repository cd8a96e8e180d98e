package importer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"catalog-service/internal/sizes"
)

// ValidationError is a user-correctable, per-field problem captured as data
// on the normalized row, never raised.
type ValidationError struct {
	Field   CanonicalField `json:"field"`
	Message string         `json:"message"`
}

// NormalizedProduct is the validated, schema-conformant record produced from
// one raw row. It is valid iff Errors is empty. It lives in memory until the
// review surface confirms the batch; after persistence the storage layer owns
// the record.
type NormalizedProduct struct {
	Line        int               `json:"line"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Price       float64           `json:"price"`
	Currency    string            `json:"currency"`
	Stock       int               `json:"stock"`
	Sizes       []string          `json:"sizes"`
	Tags        []string          `json:"tags,omitempty"`
	Images      []string          `json:"images"`
	Category    string            `json:"category"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Errors      []ValidationError `json:"validationErrors"`
}

// Valid reports whether the row can be committed.
func (p *NormalizedProduct) Valid() bool {
	return len(p.Errors) == 0
}

// Normalizer turns raw rows into normalized products using the category/size
// registry as the single source of truth for size vocabularies.
type Normalizer struct {
	registry        *sizes.Registry
	defaultCurrency string
}

// NewNormalizer creates a row normalizer.
func NewNormalizer(registry *sizes.Registry, defaultCurrency string) *Normalizer {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &Normalizer{registry: registry, defaultCurrency: defaultCurrency}
}

// Normalize produces a normalized product from one raw row. Every canonical
// field takes the first non-empty value among its mapped candidate columns.
// All fields are checked independently so the caller sees the complete error
// set in one pass. baseURL, when non-empty, seeds product_url metadata.
func (n *Normalizer) Normalize(row RawRow, mapping FieldMapping, baseURL string) *NormalizedProduct {
	p := &NormalizedProduct{
		Line:        row.Line(),
		Title:       strings.TrimSpace(mapping.FirstValue(row, FieldTitle)),
		Description: strings.TrimSpace(mapping.FirstValue(row, FieldDescription)),
		Currency:    strings.ToUpper(strings.TrimSpace(mapping.FirstValue(row, FieldCurrency))),
		Category:    strings.TrimSpace(mapping.FirstValue(row, FieldCategory)),
		Sizes:       splitList(mapping.FirstValue(row, FieldSize)),
		Tags:        splitList(mapping.FirstValue(row, FieldTags)),
		Metadata:    make(map[string]string),
	}

	if p.Currency == "" {
		p.Currency = n.defaultCurrency
	}

	// Non-numeric price parses to NaN and fails the > 0 check in Validate.
	if raw := mapping.FirstValue(row, FieldPrice); raw != "" {
		if price, err := strconv.ParseFloat(raw, 64); err == nil {
			p.Price = price
		} else {
			p.Price = math.NaN()
		}
	}

	// Stock is optional: default 0 on absence or parse failure.
	if raw := mapping.FirstValue(row, FieldStock); raw != "" {
		if stock, err := strconv.Atoi(raw); err == nil && stock >= 0 {
			p.Stock = stock
		}
	}

	// The bulk normalizer extracts a single image URL; multi-image rows are a
	// review-surface edit concern.
	if image := strings.TrimSpace(mapping.FirstValue(row, FieldImages)); image != "" {
		p.Images = []string{image}
	}

	n.Validate(p)

	if baseURL != "" && p.Title != "" {
		p.Metadata["product_url"] = DeriveProductURL(baseURL, p.Title)
	}

	return p
}

// Validate recomputes the row's validation errors in place against its
// current field values. The review surface applies the same rule set after
// an edit, using the row's current category.
func (n *Normalizer) Validate(p *NormalizedProduct) {
	p.Errors = p.Errors[:0]

	if p.Title == "" {
		p.addError(FieldTitle, "Title is required")
	}

	category, resolved := n.registry.ResolveCategory(p.Category)
	if !resolved {
		p.addError(FieldCategory, "Category is required")
	} else {
		p.Category = category.ID
	}

	// Size validation is category-aware and skipped entirely when the
	// category did not resolve (the category error already covers the row).
	if resolved {
		if n.registry.IsOneSize(category.ID) {
			p.Sizes = []string{sizes.OneSizeToken}
		} else {
			p.Sizes = n.filterSizes(category.ID, p.Sizes)
			if len(p.Sizes) == 0 {
				p.addError(FieldSize, fmt.Sprintf("At least one valid size is required (%s sizes: %s)",
					category.ID, vocabularyList(category.Sizes)))
			}
		}
	}

	if !(p.Price > 0) {
		p.addError(FieldPrice, "Price must be a positive number")
	}

	images := p.Images[:0]
	for _, url := range p.Images {
		if url = strings.TrimSpace(url); url != "" {
			images = append(images, url)
		}
	}
	p.Images = images
	if len(p.Images) == 0 {
		p.addError(FieldImages, "At least one image URL is required")
	}
}

func (p *NormalizedProduct) addError(field CanonicalField, message string) {
	p.Errors = append(p.Errors, ValidationError{Field: field, Message: message})
}

// filterSizes lowercases, trims and retains only tokens present in the
// category's vocabulary, preserving input order without duplicates.
func (n *Normalizer) filterSizes(categoryID string, tokens []string) []string {
	kept := make([]string, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" || seen[token] || !n.registry.IsValidSize(categoryID, token) {
			continue
		}
		seen[token] = true
		kept = append(kept, token)
	}
	return kept
}

func vocabularyList(options []sizes.SizeOption) string {
	values := make([]string, len(options))
	for i, opt := range options {
		values[i] = opt.Value
	}
	return strings.Join(values, ", ")
}

var listSeparators = regexp.MustCompile(`[,;|]`)

// splitList splits a raw cell on , ; or |, trimming tokens and dropping
// empty ones.
func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := listSeparators.Split(raw, -1)
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a title: lowercase, any run of
// characters outside [a-z0-9] collapsed to a single hyphen, leading and
// trailing hyphens stripped. Deterministic, so the same title always yields
// the same slug.
func Slugify(title string) string {
	slug := slugCleaner.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

// DeriveProductURL joins a partner storefront base URL with the title's slug.
func DeriveProductURL(baseURL, title string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + Slugify(title)
}
