package inventory

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/vbonduro/storagescout/internal/domain"
)

var exportHeader = []string{"Name", "Description", "Box ID", "Location", "Tags", "Created At"}

const (
	exportTimeLayout = "2006-01-02T15:04:05.000Z07:00"
	exportSheetName  = "Inventory"
)

func exportRow(it domain.Item) []string {
	created := ""
	if !it.CreatedAt.IsZero() {
		created = it.CreatedAt.UTC().Format(exportTimeLayout)
	}
	return []string{
		it.Name,
		it.Description,
		it.BoxID,
		it.Location,
		strings.Join(it.Tags, "; "),
		created,
	}
}

// WriteCSV writes items as CSV with a header row. Fields holding a comma,
// quote or line break are quoted.
func WriteCSV(w io.Writer, items []domain.Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, it := range items {
		if err := cw.Write(exportRow(it)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// WriteXLSX writes items to a single-sheet workbook with the CSV columns.
// Created At is stored as a date cell.
func WriteXLSX(w io.Writer, items []domain.Item) error {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet(exportSheetName)
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeader {
		header.AddCell().SetString(h)
	}

	for _, it := range items {
		row := sheet.AddRow()
		values := exportRow(it)
		for _, v := range values[:len(values)-1] {
			row.AddCell().SetString(v)
		}
		cell := row.AddCell()
		if it.CreatedAt.IsZero() {
			cell.SetString("")
		} else {
			cell.SetDateTime(it.CreatedAt.UTC().Truncate(time.Millisecond))
		}
	}

	if err := wb.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
