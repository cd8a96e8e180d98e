package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	input := "title,price,category\nJacket,49.99,clothing\nBoots,89.00,shoes\n"

	headers, rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"title", "price", "category"}, headers)
	require.Len(t, rows, 2)

	assert.Equal(t, "Jacket", rows[0]["title"])
	assert.Equal(t, "49.99", rows[0]["price"])
	assert.Equal(t, 2, rows[0].Line())
	assert.Equal(t, "Boots", rows[1]["title"])
	assert.Equal(t, 3, rows[1].Line())
}

func TestParseCSVTrimsHeadersAndRequiredMarkers(t *testing.T) {
	input := "title *, price ,category *\nJacket,49.99,clothing\n"

	headers, rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"title", "price", "category"}, headers)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jacket", rows[0]["title"])
}

func TestParseCSVDropsBlankRows(t *testing.T) {
	input := "title,price\nJacket,49.99\n,\n  ,  \nBoots,89.00\n"

	_, rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	// Blank rows are dropped but line numbers still reflect the file
	require.Len(t, rows, 2)
	assert.Equal(t, "Jacket", rows[0]["title"])
	assert.Equal(t, 2, rows[0].Line())
	assert.Equal(t, "Boots", rows[1]["title"])
	assert.Equal(t, 5, rows[1].Line())
}

func TestParseCSVRaggedRows(t *testing.T) {
	// Short rows leave fields absent; long rows drop the extra cells
	input := "title,price,category\nJacket,49.99\nBoots,89.00,shoes,extra\n"

	_, rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "", rows[0]["category"])
	assert.Equal(t, "shoes", rows[1]["category"])
}

func TestParseCSVEmptyInput(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader(""))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseCSVHeaderOnly(t *testing.T) {
	headers, rows, err := ParseCSV(strings.NewReader("title,price\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "price"}, headers)
	assert.Empty(t, rows)
}

func TestParseCSVMalformedQuoting(t *testing.T) {
	input := "title,price\n\"unterminated,49.99\n"

	_, _, err := ParseCSV(strings.NewReader(input))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}
