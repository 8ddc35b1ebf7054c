package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"bulkorder/testhelpers"
)

func readySnapshot(t *testing.T, orderCodes ...string) Snapshot {
	t.Helper()
	rows := make([]RawRow, 0, len(orderCodes))
	for _, code := range orderCodes {
		rows = append(rows, validRawRow(code))
	}
	in := NewIngestion(DefaultOptions())
	if err := in.LoadRows("orders.xlsx", rows); err != nil {
		t.Fatalf("LoadRows: %v", err)
	}
	snap := in.Snapshot()
	if snap.State != StateReadyForReview {
		t.Fatalf("fixture not ready: %v", snap.Errors)
	}
	return snap
}

func TestUploadStore_SaveAndLoad(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	snap := readySnapshot(t, "A-1", "A-2")

	id, err := SaveUpload(app, snap)
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}

	got, err := LoadUpload(app, id)
	if err != nil {
		t.Fatalf("LoadUpload: %v", err)
	}
	if got.State != StateReadyForReview || got.FileName != "orders.xlsx" {
		t.Errorf("loaded = %+v", got)
	}
	if len(got.Batch) != 2 || got.Batch[1].OrderCode != "A-2" {
		t.Errorf("batch = %+v", got.Batch)
	}
	if got.IdempotencyKey != snap.IdempotencyKey {
		t.Errorf("key = %q, want %q", got.IdempotencyKey, snap.IdempotencyKey)
	}

	record, _ := app.FindRecordById("bulk_uploads", id)
	if record.GetInt("valid_rows") != 2 || record.GetString("policy") != "strict" {
		t.Errorf("record columns: valid_rows=%d policy=%q", record.GetInt("valid_rows"), record.GetString("policy"))
	}
}

func TestUploadStore_LoadMissing(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if _, err := LoadUpload(app, "doesnotexist123"); err == nil {
		t.Error("expected error for missing upload")
	}
}

func TestUploadStore_ClaimOnce(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	id, err := SaveUpload(app, readySnapshot(t, "A-1"))
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}

	snap, err := ClaimUploadForSubmit(app, id)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if snap.State != StateReadyForReview {
		t.Errorf("claim returned state %s, want the pre-claim ready_for_review", snap.State)
	}

	if _, err := ClaimUploadForSubmit(app, id); !errors.Is(err, ErrSubmissionInFlight) {
		t.Errorf("second claim err = %v, want ErrSubmissionInFlight", err)
	}
	if err := DeleteUpload(app, id, time.Hour); !errors.Is(err, ErrSubmissionInFlight) {
		t.Errorf("delete during submit err = %v, want ErrSubmissionInFlight", err)
	}
}

func TestUploadStore_DeleteStaleClaim(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	id, err := SaveUpload(app, readySnapshot(t, "A-1"))
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if _, err := ClaimUploadForSubmit(app, id); err != nil {
		t.Fatalf("claim: %v", err)
	}

	record, err := app.FindRecordById("bulk_uploads", id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if record.GetDateTime("claimed_at").IsZero() {
		t.Fatal("claim should record claimed_at")
	}
	record.Set("claimed_at", time.Now().Add(-2*time.Hour).UTC())
	if err := app.Save(record); err != nil {
		t.Fatalf("backdate claim: %v", err)
	}

	if err := DeleteUpload(app, id, 0); !errors.Is(err, ErrSubmissionInFlight) {
		t.Errorf("zero staleAfter err = %v, want ErrSubmissionInFlight", err)
	}
	if err := DeleteUpload(app, id, 3*time.Hour); !errors.Is(err, ErrSubmissionInFlight) {
		t.Errorf("claim younger than staleAfter err = %v, want ErrSubmissionInFlight", err)
	}
	if err := DeleteUpload(app, id, time.Hour); err != nil {
		t.Fatalf("stale claim: DeleteUpload: %v", err)
	}
	if _, err := LoadUpload(app, id); err == nil {
		t.Error("upload should be gone")
	}
}

func TestUploadStore_ClaimRejected(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	id, err := SaveUpload(app, Snapshot{State: StateRejected, FileName: "bad.xlsx", Policy: PolicyStrict})
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if _, err := ClaimUploadForSubmit(app, id); !errors.Is(err, ErrNotReady) {
		t.Errorf("err = %v, want ErrNotReady", err)
	}
}

func TestUploadStore_UpdateAndResults(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	snap := readySnapshot(t, "A-1")
	id, _ := SaveUpload(app, snap)

	result := &BatchResult{}
	for i := range 150 {
		result.SuccessResults = append(result.SuccessResults, OrderResult{OrderCode: fmt.Sprintf("S-%d", i), Status: "created"})
	}
	result.FailedResults = []OrderResult{{OrderCode: "F-1", Status: "failed", Message: "duplicate"}}

	snap.State = StateSubmitted
	snap.Result = result
	if err := UpdateUpload(app, id, snap); err != nil {
		t.Fatalf("UpdateUpload: %v", err)
	}

	saved, err := SaveOrderResults(app, id, result)
	if err != nil {
		t.Fatalf("SaveOrderResults: %v", err)
	}
	if saved != 151 {
		t.Errorf("saved = %d, want 151", saved)
	}

	failed, err := app.FindRecordsByFilter("bulk_order_results", "upload = {:id} && outcome = 'failed'", "", 0, 0, map[string]any{"id": id})
	if err != nil {
		t.Fatalf("query results: %v", err)
	}
	if len(failed) != 1 || failed[0].GetString("message") != "duplicate" {
		t.Errorf("failed results = %d", len(failed))
	}

	loaded, _ := LoadUpload(app, id)
	if loaded.State != StateSubmitted || loaded.Result == nil || len(loaded.Result.SuccessResults) != 150 {
		t.Errorf("loaded = %+v", loaded.State)
	}

	if err := DeleteUpload(app, id, time.Hour); err != nil {
		t.Fatalf("DeleteUpload: %v", err)
	}
	remaining, _ := app.FindRecordsByFilter("bulk_order_results", "upload = {:id}", "", 0, 0, map[string]any{"id": id})
	if len(remaining) != 0 {
		t.Errorf("expected results to cascade, %d remain", len(remaining))
	}
}

func TestUploadStore_RecentUploads(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	for i := range 3 {
		snap := readySnapshot(t, fmt.Sprintf("A-%d", i))
		snap.FileName = fmt.Sprintf("file-%d.xlsx", i)
		if _, err := SaveUpload(app, snap); err != nil {
			t.Fatalf("SaveUpload: %v", err)
		}
	}

	recent, err := RecentUploads(app, 2)
	if err != nil {
		t.Fatalf("RecentUploads: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(recent))
	}
	if recent[0].State != StateReadyForReview || recent[0].ValidRows != 1 {
		t.Errorf("summary = %+v", recent[0])
	}
}
