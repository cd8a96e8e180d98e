package sizes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCategory(t *testing.T) {
	r := Default()

	t.Run("by ID", func(t *testing.T) {
		cat, ok := r.ResolveCategory("clothing")
		require.True(t, ok)
		assert.Equal(t, "clothing", cat.ID)
	})

	t.Run("by label case-insensitive", func(t *testing.T) {
		cat, ok := r.ResolveCategory("SHOES")
		require.True(t, ok)
		assert.Equal(t, "shoes", cat.ID)

		cat, ok = r.ResolveCategory("Denim")
		require.True(t, ok)
		assert.Equal(t, "denim", cat.ID)
	})

	t.Run("whitespace trimmed", func(t *testing.T) {
		cat, ok := r.ResolveCategory("  accessories  ")
		require.True(t, ok)
		assert.Equal(t, "accessories", cat.ID)
	})

	t.Run("unknown", func(t *testing.T) {
		_, ok := r.ResolveCategory("electronics")
		assert.False(t, ok)
	})

	t.Run("empty", func(t *testing.T) {
		_, ok := r.ResolveCategory("")
		assert.False(t, ok)
	})
}

func TestSizeVocabularies(t *testing.T) {
	r := Default()

	assert.True(t, r.IsValidSize("clothing", "m"))
	assert.True(t, r.IsValidSize("clothing", " XL "))
	assert.False(t, r.IsValidSize("clothing", "38"))
	assert.True(t, r.IsValidSize("shoes", "38"))
	assert.True(t, r.IsValidSize("denim", "w30"))
	assert.False(t, r.IsValidSize("unknown-category", "m"))

	options := r.SizesFor("clothing")
	require.Len(t, options, 6)
	assert.Equal(t, "xs", options[0].Value)
	assert.Equal(t, "xxl", options[5].Value)
}

func TestOrdinalsFollowRegistrationOrder(t *testing.T) {
	r := Default()

	for _, cat := range r.Categories() {
		for i, opt := range cat.Sizes {
			assert.Equal(t, i, opt.Ordinal, "category %s size %s", cat.ID, opt.Value)
		}
	}
}

func TestIsOneSize(t *testing.T) {
	r := Default()

	assert.True(t, r.IsOneSize("accessories"))
	assert.True(t, r.IsOneSize("Accessories"))
	assert.False(t, r.IsOneSize("clothing"))
	assert.False(t, r.IsOneSize("unknown"))
}

func TestAdjacentSize(t *testing.T) {
	r := Default()

	t.Run("up", func(t *testing.T) {
		next, ok := r.AdjacentSize("clothing", "m", Up)
		require.True(t, ok)
		assert.Equal(t, "l", next.Value)
	})

	t.Run("down", func(t *testing.T) {
		prev, ok := r.AdjacentSize("clothing", "m", Down)
		require.True(t, ok)
		assert.Equal(t, "s", prev.Value)
	})

	t.Run("past the top end", func(t *testing.T) {
		_, ok := r.AdjacentSize("clothing", "xxl", Up)
		assert.False(t, ok)
	})

	t.Run("past the bottom end", func(t *testing.T) {
		_, ok := r.AdjacentSize("clothing", "xs", Down)
		assert.False(t, ok)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, ok := r.AdjacentSize("clothing", "42", Up)
		assert.False(t, ok)
	})

	t.Run("one size has no neighbours", func(t *testing.T) {
		_, ok := r.AdjacentSize("accessories", OneSizeToken, Up)
		assert.False(t, ok)
		_, ok = r.AdjacentSize("accessories", OneSizeToken, Down)
		assert.False(t, ok)
	})
}
