package services

import (
	"fmt"
	"testing"
)

func TestGenerateResultPDF_Basic(t *testing.T) {
	data := ResultReportData{
		FileName:       "orders.xlsx",
		IdempotencyKey: "5f0c5c1e-6f6a-4c0e-9d43-2f0f5b1a9d11",
		GeneratedAt:    "17 Oct 2026 15:30",
		Batch:          []CreateBulkOrder{OrderBuilder{Now: fixedNow}.Build(validRow())},
		Result: BatchResult{
			SuccessResults: []OrderResult{{OrderCode: "ORD-1001", Status: "created"}},
			FailedResults:  []OrderResult{{OrderCode: "ORD-1002", Status: "failed", Message: "duplicate order"}},
		},
	}

	result, err := GenerateResultPDF(data)
	if err != nil {
		t.Fatalf("GenerateResultPDF() error = %v", err)
	}
	if len(result) < 5 {
		t.Fatal("GenerateResultPDF() returned empty bytes")
	}
	if string(result[:5]) != "%PDF-" {
		t.Errorf("result does not start with PDF header, got %q", string(result[:5]))
	}
}

func TestGenerateResultPDF_ManyRows(t *testing.T) {
	var res BatchResult
	for i := range 120 {
		res.SuccessResults = append(res.SuccessResults, OrderResult{OrderCode: fmt.Sprintf("ORD-%04d", i), Status: "created"})
	}

	result, err := GenerateResultPDF(ResultReportData{FileName: "big.xlsx", Result: res})
	if err != nil {
		t.Fatalf("GenerateResultPDF() error = %v", err)
	}
	if string(result[:5]) != "%PDF-" {
		t.Errorf("result does not start with PDF header")
	}
}

func TestGenerateResultPDF_EmptyResult(t *testing.T) {
	result, err := GenerateResultPDF(ResultReportData{FileName: "empty.xlsx"})
	if err != nil {
		t.Fatalf("GenerateResultPDF() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateResultPDF() returned empty bytes")
	}
}
