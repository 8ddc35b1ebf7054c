package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/pocketbase/pocketbase/core"
)

func toastFrom(t *testing.T, rec *httptest.ResponseRecorder) (map[string]json.RawMessage, map[string]string) {
	t.Helper()
	trigger := rec.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("expected HX-Trigger header to be set")
	}
	var events map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trigger), &events); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	var toast map[string]string
	if err := json.Unmarshal(events["showToast"], &toast); err != nil {
		t.Fatalf("showToast is not valid JSON: %v", err)
	}
	return events, toast
}

func TestSetToast_Messages(t *testing.T) {
	tests := []struct {
		name      string
		toastType string
		message   string
	}{
		{"success", ToastSuccess, "3 order(s) ready for review"},
		{"warning", ToastWarning, "2 order(s) ready, 1 row(s) excluded"},
		{"quotes", ToastError, `File "orders.xlsx" rejected`},
		{"markup", ToastError, `<script>alert("x")</script>`},
		{"newline", ToastSuccess, "line1\nline2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e := &core.RequestEvent{}
			e.Response = rec

			SetToast(e, tt.toastType, tt.message)

			_, toast := toastFrom(t, rec)
			if toast["type"] != tt.toastType || toast["message"] != tt.message {
				t.Errorf("toast = %v, want %s/%q", toast, tt.toastType, tt.message)
			}
		})
	}
}

func TestSetToast_KeepsOtherEvents(t *testing.T) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec
	rec.Header().Set("HX-Trigger", `{"uploadsChanged":{"id":"abc"}}`)

	SetToast(e, ToastSuccess, "Upload discarded")

	events, toast := toastFrom(t, rec)
	if _, ok := events["uploadsChanged"]; !ok {
		t.Error("expected uploadsChanged to be preserved")
	}
	if toast["message"] != "Upload discarded" {
		t.Errorf("message = %q", toast["message"])
	}
}

func TestSetToast_ReplacesInvalidHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec
	rec.Header().Set("HX-Trigger", "notValidJSON")

	SetToast(e, ToastError, "Overwritten")

	events, toast := toastFrom(t, rec)
	if len(events) != 1 || toast["message"] != "Overwritten" {
		t.Errorf("events = %v", events)
	}
}

func TestErrorToast(t *testing.T) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec

	if err := ErrorToast(e, http.StatusConflict, "This batch is already being submitted"); err != nil {
		t.Fatalf("ErrorToast: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if rec.Header().Get("HX-Reswap") != "none" {
		t.Error("expected HX-Reswap: none")
	}
	if _, toast := toastFrom(t, rec); toast["type"] != ToastError {
		t.Errorf("type = %q", toast["type"])
	}
}
