// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/xuri/excelize/v2"

	"bulkorder/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// ValidOrderRow returns one raw order row, keyed by template headers, that
// passes validation. Callers may mutate the returned map.
func ValidOrderRow() map[string]any {
	return map[string]any{
		"Partner Name":         "Acme Bancassurance",
		"Payment Mode":         "Annual",
		"Plan":                 "Family Health Gold",
		"Order No":             "ORD-1001",
		"Client Name":          "Ayesha Khan",
		"Client CNIC":          "35202-1234567-1",
		"Client DOB":           "1988-04-12",
		"Client Gender":        "Female",
		"Client Mobile":        "03001234567",
		"Client Email":         "ayesha@example.com",
		"Client Address":       "12 Canal View",
		"Client City":          "Lahore",
		"Client Occupation":    "Engineer",
		"Start Date":           "2026-01-01",
		"Expiry Date":          "2026-12-31",
		"Premium":              "12500",
		"Beneficiary Name":     "Imran Khan",
		"Beneficiary Relation": "Husband",
	}
}

// OrderHeaders lists the headers of ValidOrderRow in a stable order.
var OrderHeaders = []string{
	"Partner Name", "Payment Mode", "Plan", "Order No",
	"Client Name", "Client CNIC", "Client DOB", "Client Gender",
	"Client Mobile", "Client Email", "Client Address", "Client City",
	"Client Occupation", "Start Date", "Expiry Date", "Premium",
	"Beneficiary Name", "Beneficiary Relation",
}

// BuildWorkbook writes headers and rows to the first sheet of a new .xlsx
// file and returns its bytes. A nil cell is left empty.
func BuildWorkbook(t *testing.T, headers []string, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			t.Fatalf("set header %q: %v", h, err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set cell %s: %v", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// RowValues lays out row in the order of headers, leaving missing keys nil.
func RowValues(headers []string, row map[string]any) []any {
	out := make([]any, len(headers))
	for i, h := range headers {
		out[i] = row[h]
	}
	return out
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
