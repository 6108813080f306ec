// Package export writes holdings records to a flat tabular file.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pevans/holdings/holding"
	"github.com/xuri/excelize/v2"
)

// ErrEmptyResultExport is returned when there are no records to derive a
// header from. No file is written.
var ErrEmptyResultExport = errors.New("no records to export")

// DefaultPath is where a scrape writes its output.
const DefaultPath = "holdings.csv"

// sheetName is the worksheet holding the records in XLSX output.
const sheetName = "Holdings"

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFor picks the format from the path's extension. Anything other than
// .xlsx is written as CSV.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Write stores records at path with one header row followed by one row per
// record. The file is written to a temporary name and renamed into place,
// so a failure never leaves a partial file at path.
func Write(path string, records []holding.Record) error {
	if len(records) == 0 {
		return ErrEmptyResultExport
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".holdings-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	switch FormatFor(path) {
	case FormatXLSX:
		err = writeXLSX(tmp, records)
	default:
		err = writeCSV(tmp, records)
	}
	if err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, records []holding.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(holding.Header()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, record := range records {
		if err := cw.Write(record.Values()); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, records []holding.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name worksheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("failed to open worksheet: %w", err)
	}

	if err := sw.SetRow("A1", toRow(holding.Header())); err != nil {
		return fmt.Errorf("failed to write XLSX header: %w", err)
	}
	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		if err := sw.SetRow(cell, toRow(record.Values())); err != nil {
			return fmt.Errorf("failed to write XLSX row: %w", err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush worksheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write XLSX: %w", err)
	}
	return nil
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, value := range values {
		row[i] = value
	}
	return row
}
