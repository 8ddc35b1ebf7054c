package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// GenderOptions feeds the drop-down on every gender column of the template.
var GenderOptions = []string{"Male", "Female", "Other"}

// OrderTemplateSheet is the name of the data sheet in the template.
const OrderTemplateSheet = "Orders"

// GenerateOrderTemplate creates the downloadable .xlsx bulk order template.
// Required headers are marked with " *", which the normalizer strips.
func GenerateOrderTemplate() ([]byte, error) {
	fields := OrderTemplateFields()

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, OrderTemplateSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	requiredHeaderStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1D4ED8"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	optionalHeaderStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#6B7280"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	dateColumnStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 14})

	columns := columnLetters(len(fields))
	for i, field := range fields {
		cell := columns[i] + "1"

		headerText := field.Label
		style := optionalHeaderStyle
		if field.Core {
			headerText += " *"
			style = requiredHeaderStyle
		}
		f.SetCellValue(OrderTemplateSheet, cell, headerText)
		f.SetCellStyle(OrderTemplateSheet, cell, cell, style)

		width := max(float64(len(field.Label))*1.3, 15)
		f.SetColWidth(OrderTemplateSheet, columns[i], columns[i], width)

		rangeRef := fmt.Sprintf("%s2:%s1048576", columns[i], columns[i])
		if strings.HasSuffix(field.Key, "_gender") {
			dv := excelize.NewDataValidation(true)
			dv.Sqref = rangeRef
			dv.SetDropList(GenderOptions)
			f.AddDataValidation(OrderTemplateSheet, dv)
		}
		if IsDateField(field.Key) {
			f.SetColStyle(OrderTemplateSheet, columns[i], dateColumnStyle)
		}
	}

	f.SetPanes(OrderTemplateSheet, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	addInstructionsSheet(f, fields)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel template: %w", err)
	}
	return buf.Bytes(), nil
}

// addInstructionsSheet creates a hidden sheet with field descriptions.
func addInstructionsSheet(f *excelize.File, fields []TemplateField) {
	instSheet := "Instructions"
	f.NewSheet(instSheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
	})

	f.SetCellValue(instSheet, "A1", "Bulk Order Import - Instructions")
	f.SetCellStyle(instSheet, "A1", "A1", titleStyle)
	f.SetCellValue(instSheet, "A2", "Only the first sheet is imported. Dates may be Excel dates or YYYY-MM-DD text.")

	instructionHeaders := []string{"Field Name", "Required?", "Format Rule", "Description", "Example"}
	cols := columnLetters(len(instructionHeaders))
	for i, h := range instructionHeaders {
		cell := cols[i] + "4"
		f.SetCellValue(instSheet, cell, h)
		f.SetCellStyle(instSheet, cell, cell, headerStyle)
	}

	for i, field := range fields {
		row := fmt.Sprintf("%d", i+5)
		reqLabel := "Conditional"
		if field.Core {
			reqLabel = "Required"
		}
		f.SetCellValue(instSheet, cols[0]+row, field.Label)
		f.SetCellValue(instSheet, cols[1]+row, reqLabel)
		f.SetCellValue(instSheet, cols[2]+row, field.FormatRule)
		f.SetCellValue(instSheet, cols[3]+row, field.Description)
		f.SetCellValue(instSheet, cols[4]+row, field.ExampleValue)
	}

	widths := []float64{26, 12, 16, 70, 30}
	for i, w := range widths {
		f.SetColWidth(instSheet, cols[i], cols[i], w)
	}

	f.SetSheetVisible(instSheet, false)
}

// columnLetters returns Excel column letters for n columns: A, B, ... Z, AA, AB ...
func columnLetters(n int) []string {
	cols := make([]string, n)
	for i := 0; i < n; i++ {
		name, _ := excelize.ColumnNumberToName(i + 1)
		cols[i] = name
	}
	return cols
}
