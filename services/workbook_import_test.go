package services

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildTestWorkbook(t *testing.T, fill func(f *excelize.File, sheet string)) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	fill(f, f.GetSheetName(0))

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestReadUpload_ExcelTypes(t *testing.T) {
	data := buildTestWorkbook(t, func(f *excelize.File, sheet string) {
		f.SetCellValue(sheet, "A1", "Order No")
		f.SetCellValue(sheet, "B1", "Premium")
		f.SetCellValue(sheet, "C1", "Start Date")
		f.SetCellValue(sheet, "A2", "ORD-1")
		f.SetCellValue(sheet, "B2", 12500)
		f.SetCellValue(sheet, "C2", 44927)
		f.SetCellValue(sheet, "A4", "ORD-2")
	})

	sheet, err := ReadUpload(bytesReader(data), "orders.xlsx")
	if err != nil {
		t.Fatalf("ReadUpload: %v", err)
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("expected 2 rows (blank row dropped), got %d: %+v", len(sheet.Rows), sheet.Rows)
	}

	first := sheet.Rows[0]
	if first["Order No"] != "ORD-1" {
		t.Errorf("Order No = %#v", first["Order No"])
	}
	if first["Premium"] != 12500.0 {
		t.Errorf("Premium = %#v, want float64 12500", first["Premium"])
	}

	row := Normalizer{}.Normalize(first)
	if got := row.Str("start_date"); got != "2023-01-01" {
		t.Errorf("start_date = %q, want 2023-01-01", got)
	}
	if len(sheet.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", sheet.Warnings)
	}
}

func TestReadUpload_ExtraSheetsWarn(t *testing.T) {
	data := buildTestWorkbook(t, func(f *excelize.File, sheet string) {
		f.SetCellValue(sheet, "A1", "Order No")
		f.SetCellValue(sheet, "A2", "ORD-1")
		f.NewSheet("Notes")
		f.NewSheet("Hidden")
		f.SetSheetVisible("Hidden", false)
	})

	sheet, err := ReadUpload(bytesReader(data), "orders.xlsx")
	if err != nil {
		t.Fatalf("ReadUpload: %v", err)
	}
	if len(sheet.Warnings) != 1 {
		t.Fatalf("warnings = %v", sheet.Warnings)
	}
	if !strings.Contains(sheet.Warnings[0], "Notes") || strings.Contains(sheet.Warnings[0], "Hidden") {
		t.Errorf("warning = %q", sheet.Warnings[0])
	}
}

func TestReadUpload_CSV(t *testing.T) {
	csvData := "Order No,Premium,Client Name\nORD-1,\"12,500\",Ayesha\n,,\nORD-2,900,\n"
	sheet, err := ReadUpload(strings.NewReader(csvData), "orders.CSV")
	if err != nil {
		t.Fatalf("ReadUpload: %v", err)
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("rows = %+v", sheet.Rows)
	}
	if _, ok := sheet.Rows[1]["Client Name"]; ok {
		t.Error("empty cell should be omitted")
	}

	row := Normalizer{}.Normalize(sheet.Rows[0])
	if v, ok := row.Get("premium"); !ok || v.Number != 12500 {
		t.Errorf("premium = %+v", v)
	}
}

func TestReadUpload_CSVByteOrderMark(t *testing.T) {
	csvData := "\ufeffPartner Name,Plan\nAcme,Gold\n"
	sheet, err := ReadUpload(strings.NewReader(csvData), "orders.csv")
	if err != nil {
		t.Fatalf("ReadUpload: %v", err)
	}
	if sheet.Rows[0]["Partner Name"] != "Acme" {
		t.Errorf("row = %#v", sheet.Rows[0])
	}

	row := Normalizer{}.Normalize(sheet.Rows[0])
	if got := row.Str("partner_name"); got != "Acme" {
		t.Errorf("partner_name = %q, want Acme (keys %v)", got, row)
	}
}

func TestReadUpload_DuplicateHeadersKeepLastColumn(t *testing.T) {
	csvData := "Plan,Client Name,plan\nGold,Ayesha,Silver\nBronze,Bilal,\n"
	sheet, err := ReadUpload(strings.NewReader(csvData), "orders.csv")
	if err != nil {
		t.Fatalf("ReadUpload: %v", err)
	}
	if len(sheet.Warnings) != 1 || !strings.Contains(sheet.Warnings[0], `"Plan" and "plan"`) {
		t.Errorf("warnings = %v", sheet.Warnings)
	}

	for i := 0; i < 20; i++ {
		if got := (Normalizer{}).Normalize(sheet.Rows[0]).Str("plan"); got != "Silver" {
			t.Fatalf("plan = %q, want Silver from the later column", got)
		}
	}
	if _, ok := (Normalizer{}).Normalize(sheet.Rows[1]).Get("plan"); ok {
		t.Error("the earlier duplicate column should not be read")
	}
}

func TestReadUpload_ExcelDuplicateHeaders(t *testing.T) {
	data := buildTestWorkbook(t, func(f *excelize.File, sheet string) {
		f.SetCellValue(sheet, "A1", "Client Name")
		f.SetCellValue(sheet, "B1", "client  name")
		f.SetCellValue(sheet, "A2", "Ayesha")
		f.SetCellValue(sheet, "B2", "Ayesha Khan")
	})

	sheet, err := ReadUpload(bytesReader(data), "orders.xlsx")
	if err != nil {
		t.Fatalf("ReadUpload: %v", err)
	}
	if len(sheet.Warnings) != 1 {
		t.Fatalf("warnings = %v", sheet.Warnings)
	}
	if got := (Normalizer{}).Normalize(sheet.Rows[0]).Str("client_name"); got != "Ayesha Khan" {
		t.Errorf("client_name = %q, want Ayesha Khan", got)
	}
}

func TestReadUpload_UnsupportedFormats(t *testing.T) {
	for _, name := range []string{"orders.xls", "orders.pdf", "orders"} {
		_, err := ReadUpload(strings.NewReader("x"), name)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%s: err = %v, want ErrUnsupportedFormat", name, err)
		}
	}
}

func TestReadUpload_CorruptWorkbook(t *testing.T) {
	_, err := ReadUpload(strings.NewReader("definitely not a zip"), "orders.xlsx")
	if !errors.Is(err, ErrUnreadableWorkbook) {
		t.Errorf("err = %v, want ErrUnreadableWorkbook", err)
	}
}

func TestGenerateErrorReport(t *testing.T) {
	errs := []ValidationError{
		{Row: 2, Field: "Plan", Message: "Plan is required"},
		{Row: 5, Field: "Kid1", Message: "Kid1 Dob is required because Kid1 Name is provided"},
	}
	data, err := GenerateErrorReport(errs)
	if err != nil {
		t.Fatalf("GenerateErrorReport: %v", err)
	}

	f, err := excelize.OpenReader(bytesReader(data))
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Errors")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Row #" || rows[2][0] != "5" || rows[2][1] != "Kid1" {
		t.Errorf("rows = %v", rows)
	}
}
