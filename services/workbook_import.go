package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for file types the reader cannot open.
	ErrUnsupportedFormat = errors.New("unsupported file format: upload an .xlsx or .csv file")
	// ErrUnreadableWorkbook wraps any failure to read an otherwise supported file.
	ErrUnreadableWorkbook = errors.New("could not read the uploaded file")
)

// Sheet is the first sheet of an upload as raw rows.
type Sheet struct {
	Name     string
	Rows     []RawRow
	Warnings []string
}

// ReadUpload reads an uploaded workbook into raw rows, choosing the parser
// from the file extension. Blank rows are dropped.
func ReadUpload(file io.Reader, fileName string) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return parseExcel(file)
	case ".csv":
		return parseCSV(file)
	case ".xls":
		return nil, fmt.Errorf("%w (legacy .xls workbooks must be saved as .xlsx)", ErrUnsupportedFormat)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// parseCSV reads a CSV file; every cell is kept as text.
func parseCSV(file io.Reader) (*Sheet, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse CSV: %v", ErrUnreadableWorkbook, err)
	}
	if len(allRows) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrUnreadableWorkbook)
	}

	headers := allRows[0]
	headers[0] = strings.TrimPrefix(headers[0], byteOrderMark)
	keep, warnings := resolveHeaders(headers)
	sheet := &Sheet{Name: "csv", Warnings: warnings}
	for _, cells := range allRows[1:] {
		row := make(RawRow)
		for i, h := range headers {
			if i >= len(cells) || !keep[i] {
				continue
			}
			if v := strings.TrimSpace(cells[i]); v != "" {
				row[h] = v
			}
		}
		if len(row) > 0 {
			sheet.Rows = append(sheet.Rows, row)
		}
	}
	return sheet, nil
}

// parseExcel reads the first sheet of an xlsx workbook. Raw cell values are
// used so date-formatted cells arrive as serial numbers; cells stored as
// numbers become float64, everything else stays text.
func parseExcel(file io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("%w: open Excel file: %v", ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadableWorkbook)
	}
	sheetName := sheets[0]

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet: %v", ErrUnreadableWorkbook, err)
	}

	sheet := &Sheet{Name: sheetName}
	if ignored := visibleSheetsAfterFirst(f, sheets); len(ignored) > 0 {
		sheet.Warnings = append(sheet.Warnings, fmt.Sprintf(
			"Workbook has %d additional sheet(s) (%s); only %q was processed",
			len(ignored), strings.Join(ignored, ", "), sheetName))
	}
	if len(rows) == 0 {
		return sheet, nil
	}

	headers := rows[0]
	keep, warnings := resolveHeaders(headers)
	sheet.Warnings = append(sheet.Warnings, warnings...)
	for rowIdx, cells := range rows[1:] {
		row := make(RawRow)
		for colIdx, h := range headers {
			if colIdx >= len(cells) || !keep[colIdx] || cells[colIdx] == "" {
				continue
			}
			row[h] = excelCellValue(f, sheetName, colIdx+1, rowIdx+2, cells[colIdx])
		}
		if len(row) > 0 {
			sheet.Rows = append(sheet.Rows, row)
		}
	}
	return sheet, nil
}

// resolveHeaders marks the columns to read. Blank headers are skipped, and
// when several headers share a canonical key only the rightmost column is
// kept.
func resolveHeaders(headers []string) ([]bool, []string) {
	keep := make([]bool, len(headers))
	owner := make(map[string]int, len(headers))
	var warnings []string
	for i, h := range headers {
		key := CanonicalKey(h)
		if key == "" {
			continue
		}
		if prev, ok := owner[key]; ok {
			keep[prev] = false
			warnings = append(warnings, fmt.Sprintf(
				"Columns %q and %q both map to %s; only the later column was read",
				strings.TrimSpace(headers[prev]), strings.TrimSpace(h), key))
		}
		owner[key] = i
		keep[i] = true
	}
	return keep, warnings
}

func excelCellValue(f *excelize.File, sheet string, col, row int, raw string) any {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	cellType, err := f.GetCellType(sheet, cell)
	if err != nil {
		return raw
	}
	if cellType == excelize.CellTypeUnset || cellType == excelize.CellTypeNumber {
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
	}
	return raw
}

func visibleSheetsAfterFirst(f *excelize.File, sheets []string) []string {
	var visible []string
	for _, name := range sheets[1:] {
		if ok, err := f.GetSheetVisible(name); err == nil && ok {
			visible = append(visible, name)
		}
	}
	return visible
}

// GenerateErrorReport creates a downloadable .xlsx file from validation errors.
func GenerateErrorReport(errs []ValidationError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Errors"
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	f.SetCellValue(sheet, "A1", "Row #")
	f.SetCellValue(sheet, "B1", "Field")
	f.SetCellValue(sheet, "C1", "Error")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 24)
	f.SetColWidth(sheet, "C", "C", 80)

	for i, e := range errs {
		row := strconv.Itoa(i + 2)
		f.SetCellValue(sheet, "A"+row, e.Row)
		f.SetCellValue(sheet, "B"+row, e.Field)
		f.SetCellValue(sheet, "C"+row, e.Message)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}

// thinBorders returns a thin black border on all four sides.
func thinBorders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "#000000", Style: 1},
		{Type: "top", Color: "#000000", Style: 1},
		{Type: "right", Color: "#000000", Style: 1},
		{Type: "bottom", Color: "#000000", Style: 1},
	}
}
