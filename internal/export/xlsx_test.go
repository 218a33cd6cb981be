package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	headers := []string{"SKU", "NAME", "PRICE"}
	rows := [][]string{
		{"W-1", "Widget", "12.50"},
		{"G-2", "Gadget", "3.00"},
	}
	require.NoError(t, WriteXLSX(&buf, "products", headers, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"products"}, f.GetSheetList())
	got, err := f.GetRows("products")
	require.NoError(t, err)
	assert.Equal(t, append([][]string{headers}, rows...), got)

	v, err := f.GetCellValue("products", "C2")
	require.NoError(t, err)
	assert.Equal(t, "12.50", v)
}

func TestWriteXLSXEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "", []string{"ID"}, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetRows(defaultSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ID"}}, got)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "auditlogs", SheetName("audit/logs"))
	assert.Equal(t, defaultSheet, SheetName(" [] "))
	assert.Len(t, SheetName(strings.Repeat("x", 40)), maxSheetName)
}
