package services

import (
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestGenerateOrderTemplate_Headers(t *testing.T) {
	data, err := GenerateOrderTemplate()
	if err != nil {
		t.Fatalf("GenerateOrderTemplate() error = %v", err)
	}

	f, err := excelize.OpenReader(bytesReader(data))
	if err != nil {
		t.Fatalf("open template: %v", err)
	}
	defer f.Close()

	if f.GetSheetName(0) != OrderTemplateSheet {
		t.Errorf("first sheet = %q, want %q", f.GetSheetName(0), OrderTemplateSheet)
	}

	rows, err := f.GetRows(OrderTemplateSheet)
	if err != nil || len(rows) == 0 {
		t.Fatalf("GetRows: %v", err)
	}
	headers := rows[0]
	fields := OrderTemplateFields()
	if len(headers) != len(fields) {
		t.Fatalf("expected %d headers, got %d", len(fields), len(headers))
	}

	required := 0
	for i, h := range headers {
		if CanonicalKey(h) != fields[i].Key {
			t.Errorf("header %q normalizes to %q, want %q", h, CanonicalKey(h), fields[i].Key)
		}
		if strings.HasSuffix(h, " *") {
			required++
		}
	}
	if required != len(CoreKeys) {
		t.Errorf("expected %d required headers, got %d", len(CoreKeys), required)
	}
}

func TestGenerateOrderTemplate_InstructionsHidden(t *testing.T) {
	data, err := GenerateOrderTemplate()
	if err != nil {
		t.Fatalf("GenerateOrderTemplate() error = %v", err)
	}
	f, err := excelize.OpenReader(bytesReader(data))
	if err != nil {
		t.Fatalf("open template: %v", err)
	}
	defer f.Close()

	visible, err := f.GetSheetVisible("Instructions")
	if err != nil {
		t.Fatalf("GetSheetVisible: %v", err)
	}
	if visible {
		t.Error("Instructions sheet should be hidden")
	}
	title, _ := f.GetCellValue("Instructions", "A1")
	if title != "Bulk Order Import - Instructions" {
		t.Errorf("A1 = %q", title)
	}
}

func TestGenerateOrderTemplate_RoundTripsThroughReader(t *testing.T) {
	data, err := GenerateOrderTemplate()
	if err != nil {
		t.Fatalf("GenerateOrderTemplate() error = %v", err)
	}
	sheet, err := ReadUpload(bytesReader(data), "template.xlsx")
	if err != nil {
		t.Fatalf("ReadUpload: %v", err)
	}
	if len(sheet.Rows) != 0 {
		t.Errorf("blank template should have no data rows, got %d", len(sheet.Rows))
	}
	if len(sheet.Warnings) != 0 {
		t.Errorf("hidden instructions sheet should not warn: %v", sheet.Warnings)
	}
}

func TestOrderTemplateFields_Coverage(t *testing.T) {
	fields := OrderTemplateFields()
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Key] {
			t.Errorf("duplicate field %q", f.Key)
		}
		seen[f.Key] = true
		if IsDateField(f.Key) && f.FormatRule != "Date" {
			t.Errorf("%s: format rule = %q, want Date", f.Key, f.FormatRule)
		}
	}
	// 18 core + 4 rider + 4*6 spouse + 8*6 kid
	if want := 18 + 4 + 24 + 48; len(fields) != want {
		t.Errorf("expected %d fields, got %d", want, len(fields))
	}
	for _, key := range DateFields {
		if !seen[key] {
			t.Errorf("date field %q missing from template", key)
		}
	}
}
