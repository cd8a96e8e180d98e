package sizes

import "strings"

// OneSizeCategoryID is the category whose entire size vocabulary is the single
// "os" token. Input sizes are ignored for products in this category.
const OneSizeCategoryID = "accessories"

// OneSizeToken is the sentinel size value for one-size categories.
const OneSizeToken = "os"

// Direction selects the neighbour returned by AdjacentSize.
type Direction int

const (
	Up   Direction = 1  // next larger size
	Down Direction = -1 // next smaller size
)

// SizeOption is a single entry in a category's size vocabulary.
// Ordinal is the position within the vocabulary and defines the total order
// used for next/previous queries.
type SizeOption struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Ordinal int    `json:"ordinal"`
}

// Category is a product category with its ordered size vocabulary.
type Category struct {
	ID    string       `json:"id"`
	Label string       `json:"label"`
	Sizes []SizeOption `json:"sizes"`
}

// Registry is an immutable lookup of categories and their size vocabularies.
// It is built once at startup and safe for concurrent reads.
type Registry struct {
	categories []Category
	byID       map[string]*Category
	byLabel    map[string]*Category
}

// NewRegistry builds a registry from the given categories. Ordinals are
// assigned from slice position so callers only list values in order.
func NewRegistry(categories []Category) *Registry {
	r := &Registry{
		categories: make([]Category, len(categories)),
		byID:       make(map[string]*Category, len(categories)),
		byLabel:    make(map[string]*Category, len(categories)),
	}
	copy(r.categories, categories)
	for i := range r.categories {
		cat := &r.categories[i]
		for j := range cat.Sizes {
			cat.Sizes[j].Ordinal = j
		}
		r.byID[strings.ToLower(cat.ID)] = cat
		r.byLabel[strings.ToLower(cat.Label)] = cat
	}
	return r
}

// Default returns the registry for the marketplace's fashion categories.
func Default() *Registry {
	return NewRegistry([]Category{
		{
			ID:    "clothing",
			Label: "Clothing",
			Sizes: []SizeOption{
				{Value: "xs", Label: "XS"},
				{Value: "s", Label: "S"},
				{Value: "m", Label: "M"},
				{Value: "l", Label: "L"},
				{Value: "xl", Label: "XL"},
				{Value: "xxl", Label: "XXL"},
			},
		},
		{
			ID:    "shoes",
			Label: "Shoes",
			Sizes: []SizeOption{
				{Value: "36", Label: "EU 36"},
				{Value: "37", Label: "EU 37"},
				{Value: "38", Label: "EU 38"},
				{Value: "39", Label: "EU 39"},
				{Value: "40", Label: "EU 40"},
				{Value: "41", Label: "EU 41"},
				{Value: "42", Label: "EU 42"},
				{Value: "43", Label: "EU 43"},
				{Value: "44", Label: "EU 44"},
				{Value: "45", Label: "EU 45"},
			},
		},
		{
			ID:    "denim",
			Label: "Denim",
			Sizes: []SizeOption{
				{Value: "w24", Label: "W24"},
				{Value: "w26", Label: "W26"},
				{Value: "w28", Label: "W28"},
				{Value: "w30", Label: "W30"},
				{Value: "w32", Label: "W32"},
				{Value: "w34", Label: "W34"},
				{Value: "w36", Label: "W36"},
			},
		},
		{
			ID:    OneSizeCategoryID,
			Label: "Accessories",
			Sizes: []SizeOption{
				{Value: OneSizeToken, Label: "One Size"},
			},
		},
	})
}

// Categories returns all categories in registration order.
func (r *Registry) Categories() []Category {
	return r.categories
}

// ResolveCategory finds a category by ID or display label, case-insensitive.
func (r *Registry) ResolveCategory(idOrLabel string) (*Category, bool) {
	key := strings.ToLower(strings.TrimSpace(idOrLabel))
	if key == "" {
		return nil, false
	}
	if cat, ok := r.byID[key]; ok {
		return cat, true
	}
	if cat, ok := r.byLabel[key]; ok {
		return cat, true
	}
	return nil, false
}

// SizesFor returns the ordered size vocabulary for a category, or an empty
// slice when the category is unknown.
func (r *Registry) SizesFor(categoryID string) []SizeOption {
	cat, ok := r.ResolveCategory(categoryID)
	if !ok {
		return nil
	}
	return cat.Sizes
}

// IsValidSize reports whether token is part of the category's vocabulary.
func (r *Registry) IsValidSize(categoryID, token string) bool {
	token = strings.ToLower(strings.TrimSpace(token))
	for _, opt := range r.SizesFor(categoryID) {
		if opt.Value == token {
			return true
		}
	}
	return false
}

// IsOneSize reports whether the category uses the one-size sentinel vocabulary.
func (r *Registry) IsOneSize(categoryID string) bool {
	cat, ok := r.ResolveCategory(categoryID)
	return ok && cat.ID == OneSizeCategoryID
}

// AdjacentSize returns the next (Up) or previous (Down) size option relative
// to token within the category's vocabulary. Returns false past either end or
// when the category/token is unknown.
func (r *Registry) AdjacentSize(categoryID, token string, dir Direction) (SizeOption, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	options := r.SizesFor(categoryID)
	for _, opt := range options {
		if opt.Value != token {
			continue
		}
		next := opt.Ordinal + int(dir)
		if next < 0 || next >= len(options) {
			return SizeOption{}, false
		}
		return options[next], true
	}
	return SizeOption{}, false
}
