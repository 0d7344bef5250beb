// Package export renders annotation records as downloadable files.
// The tabular formats use model.ExportFields as their column set; every
// format keeps the record order it is given.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/annotation-tracker/internal/model"
	"github.com/iliyamo/annotation-tracker/internal/repository"
)

// ErrNoData is returned when there is nothing to export.
var ErrNoData = errors.New("no data to export")

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// SheetName is the worksheet holding the xlsx export.
const SheetName = "Annotations"

// columnWidths mirror the ExportFields order.
var columnWidths = []float64{15, 15, 15, 30, 100, 100, 10, 10, 10, 10, 10, 100, 100}

// Format describes how one export format is served.
type Format struct {
	Name        string
	ContentType string
	Extension   string
	write       func(w io.Writer, recs []model.Annotation) error
}

var formats = map[string]Format{
	FormatCSV:  {Name: FormatCSV, ContentType: "text/csv", Extension: ".csv", write: WriteCSV},
	FormatXLSX: {Name: FormatXLSX, ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Extension: ".xlsx", write: WriteXLSX},
	FormatJSON: {Name: FormatJSON, ContentType: "application/json", Extension: ".json", write: WriteJSON},
}

// Lookup resolves a format name, case-insensitively.
func Lookup(name string) (Format, error) {
	f, ok := formats[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Format{}, fmt.Errorf("unsupported format %q: %w", name, repository.ErrInvalidArgument)
	}
	return f, nil
}

// Filename is the attachment name for this format.
func (f Format) Filename() string { return "annotations" + f.Extension }

// Write renders recs in this format.
func (f Format) Write(w io.Writer, recs []model.Annotation) error {
	return f.write(w, recs)
}

// Write renders recs in the named format. An empty record set is
// reported before the format is checked.
func Write(w io.Writer, format string, recs []model.Annotation) error {
	if len(recs) == 0 {
		return ErrNoData
	}
	f, err := Lookup(format)
	if err != nil {
		return err
	}
	return f.Write(w, recs)
}

// WriteCSV writes a header row and one row per record.
func WriteCSV(w io.Writer, recs []model.Annotation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.ExportFields); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write(r.ExportRow()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a single-sheet workbook.
func WriteXLSX(w io.Writer, recs []model.Annotation) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, "A1", &model.ExportFields); err != nil {
		return err
	}
	for i, r := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := r.ExportRow()
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}
	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// WriteJSON writes the full records as an indented array.
func WriteJSON(w io.Writer, recs []model.Annotation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}
