package holding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewRecord_FullRow verifies every column lands in its named field
func TestNewRecord_FullRow(t *testing.T) {
	cells := make([]string, ColumnCount)
	for i := range cells {
		cells[i] = FieldNames[i] + "-value"
	}

	record := NewRecord(cells, "")

	assert.Equal(t, cells, record.Values())
	assert.Equal(t, "sector-value", record.Sector)
	assert.Equal(t, "dateReported-value", record.DateReported)
}

// TestNewRecord_ShortRow verifies missing cells default to empty strings
func TestNewRecord_ShortRow(t *testing.T) {
	record := NewRecord([]string{"AAPL", "history", "Technology"}, "")

	assert.Equal(t, "AAPL", record.Stock)
	assert.Equal(t, "Technology", record.Sector)
	assert.Empty(t, record.SharesHeld)
	assert.Empty(t, record.DateReported)
	assert.Len(t, record.Values(), ColumnCount)
}

// TestNewRecord_ExtraCells verifies cells beyond the schema are ignored
func TestNewRecord_ExtraCells(t *testing.T) {
	cells := make([]string, ColumnCount+3)
	cells[ColDateReported] = "2024-11-14"
	cells[ColumnCount] = "overflow"

	record := NewRecord(cells, "")

	assert.Equal(t, "2024-11-14", record.DateReported)
	assert.NotContains(t, record.Values(), "overflow")
}

// TestNewRecord_NilCells verifies an empty row yields an all-empty record
func TestNewRecord_NilCells(t *testing.T) {
	record := NewRecord(nil, "")

	assert.Equal(t, Record{}, record)
}

// TestNewRecord_CompositeTicker verifies the hover name is joined to the
// ticker
func TestNewRecord_CompositeTicker(t *testing.T) {
	withName := NewRecord([]string{"AAPL"}, "Apple Inc.")
	withoutName := NewRecord([]string{"AAPL"}, "")

	assert.Equal(t, `AAPL "Apple Inc."`, withName.Stock)
	assert.Equal(t, "AAPL", withoutName.Stock)
}

// TestHeader verifies the header follows the column order and is a copy
func TestHeader(t *testing.T) {
	header := Header()

	require.Len(t, header, ColumnCount)
	assert.Equal(t, "stock", header[0])
	assert.Equal(t, "sharesHeld", header[ColSharesHeld])
	assert.Equal(t, "dateReported", header[ColumnCount-1])

	header[0] = "changed"
	assert.Equal(t, "stock", FieldNames[0], "Header should not alias FieldNames")
}
