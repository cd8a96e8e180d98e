package importer

import "context"

// CanonicalField is one of the ten fixed product attributes the pipeline
// normalizes toward, regardless of how the uploaded columns are named.
type CanonicalField string

const (
	FieldTitle       CanonicalField = "title"
	FieldDescription CanonicalField = "description"
	FieldPrice       CanonicalField = "price"
	FieldCurrency    CanonicalField = "currency"
	FieldStock       CanonicalField = "stock"
	FieldSize        CanonicalField = "size"
	FieldTags        CanonicalField = "tags"
	FieldImages      CanonicalField = "images"
	FieldCategory    CanonicalField = "category"
	FieldMetadata    CanonicalField = "metadata"
)

// CanonicalFields returns all canonical fields in a fixed order.
func CanonicalFields() []CanonicalField {
	return []CanonicalField{
		FieldTitle, FieldDescription, FieldPrice, FieldCurrency, FieldStock,
		FieldSize, FieldTags, FieldImages, FieldCategory, FieldMetadata,
	}
}

// FieldMapping assigns each canonical field an ordered list of candidate
// source columns, most-preferred first. It is computed once per import batch
// and reused for every row in that batch.
type FieldMapping map[CanonicalField][]string

// FirstValue returns the first non-empty value among the field's candidate
// columns present in the row ("first match wins", not a merge).
func (m FieldMapping) FirstValue(row RawRow, field CanonicalField) string {
	for _, column := range m[field] {
		if value := row[column]; value != "" {
			return value
		}
	}
	return ""
}

// sanitize drops candidate columns that are not part of the header set and
// guarantees every canonical field is keyed, with an empty list when nothing
// was proposed for it.
func (m FieldMapping) sanitize(headers []string) FieldMapping {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}

	clean := make(FieldMapping, len(CanonicalFields()))
	for _, field := range CanonicalFields() {
		kept := make([]string, 0, len(m[field]))
		for _, column := range m[field] {
			if known[column] {
				kept = append(kept, column)
			}
		}
		clean[field] = kept
	}
	return clean
}

// MappingStrategy proposes a field mapping for a parsed upload. The importer
// tries strategies in order; a failing strategy is skipped, never surfaced.
type MappingStrategy interface {
	Name() string
	ProposeMapping(ctx context.Context, headers []string, sample []RawRow) (FieldMapping, error)
}
