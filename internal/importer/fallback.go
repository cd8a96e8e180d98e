package importer

import (
	"context"
	"regexp"
)

// fallbackPatterns match header names against per-field keyword patterns.
// Order matters: the first matching field claims the header, so the more
// specific fields are listed before the catch-all title patterns.
var fallbackPatterns = []struct {
	field   CanonicalField
	pattern *regexp.Regexp
}{
	{FieldCategory, regexp.MustCompile(`(?i)categor|\bcat\b`)},
	{FieldSize, regexp.MustCompile(`(?i)size`)},
	{FieldImages, regexp.MustCompile(`(?i)image|\bimg\b|photo|picture`)},
	{FieldCurrency, regexp.MustCompile(`(?i)currenc`)},
	{FieldPrice, regexp.MustCompile(`(?i)price|cost|amount`)},
	{FieldStock, regexp.MustCompile(`(?i)stock|\bqty\b|quantity|inventory`)},
	{FieldTags, regexp.MustCompile(`(?i)\btags?\b|keyword|label`)},
	{FieldDescription, regexp.MustCompile(`(?i)desc`)},
	{FieldTitle, regexp.MustCompile(`(?i)title|name|product`)},
}

// FallbackMapper is the deterministic regex-based mapping strategy. It is
// total: every header is assigned to exactly one field's candidate list, and
// any header matched by no pattern lands in metadata. It never fails, so the
// pipeline always makes progress even when the classifier is unavailable.
type FallbackMapper struct{}

// NewFallbackMapper returns the deterministic mapping strategy.
func NewFallbackMapper() *FallbackMapper {
	return &FallbackMapper{}
}

func (f *FallbackMapper) Name() string {
	return "regex-fallback"
}

func (f *FallbackMapper) ProposeMapping(_ context.Context, headers []string, _ []RawRow) (FieldMapping, error) {
	mapping := make(FieldMapping, len(CanonicalFields()))
	for _, field := range CanonicalFields() {
		mapping[field] = []string{}
	}

	for _, header := range headers {
		field := FieldMetadata
		for _, p := range fallbackPatterns {
			if p.pattern.MatchString(header) {
				field = p.field
				break
			}
		}
		mapping[field] = append(mapping[field], header)
	}

	return mapping, nil
}
