package services

import (
	"fmt"
	"log"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

const resultBatchSize = 100

// UploadSummary is one line of the recent uploads list.
type UploadSummary struct {
	ID        string
	FileName  string
	State     IngestState
	TotalRows int
	ValidRows int
	Errors    int
	Created   time.Time
}

// SaveUpload persists a new upload cycle and returns its record ID.
func SaveUpload(app *pocketbase.PocketBase, snap Snapshot) (string, error) {
	col, err := app.FindCollectionByNameOrId("bulk_uploads")
	if err != nil {
		return "", fmt.Errorf("bulk_uploads collection not found: %w", err)
	}
	record := core.NewRecord(col)
	setUploadFields(record, snap)
	if err := app.Save(record); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return record.Id, nil
}

// UpdateUpload overwrites the stored snapshot of an upload cycle.
func UpdateUpload(app *pocketbase.PocketBase, uploadID string, snap Snapshot) error {
	record, err := app.FindRecordById("bulk_uploads", uploadID)
	if err != nil {
		return fmt.Errorf("upload %s not found: %w", uploadID, err)
	}
	setUploadFields(record, snap)
	if err := app.Save(record); err != nil {
		return fmt.Errorf("update upload: %w", err)
	}
	return nil
}

// LoadUpload returns the stored snapshot of an upload cycle.
func LoadUpload(app *pocketbase.PocketBase, uploadID string) (Snapshot, error) {
	record, err := app.FindRecordById("bulk_uploads", uploadID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("upload %s not found: %w", uploadID, err)
	}
	return snapshotFromRecord(record)
}

// ClaimUploadForSubmit moves a ReadyForReview upload to Submitting inside a
// transaction, so a second confirm of the same batch is refused. It returns
// the snapshot as it was before the claim.
func ClaimUploadForSubmit(app *pocketbase.PocketBase, uploadID string) (Snapshot, error) {
	var snap Snapshot
	err := app.RunInTransaction(func(txApp core.App) error {
		record, err := txApp.FindRecordById("bulk_uploads", uploadID)
		if err != nil {
			return fmt.Errorf("upload %s not found: %w", uploadID, err)
		}
		snap, err = snapshotFromRecord(record)
		if err != nil {
			return err
		}
		switch snap.State {
		case StateReadyForReview:
		case StateSubmitting:
			return ErrSubmissionInFlight
		default:
			return fmt.Errorf("%w (state %s)", ErrNotReady, snap.State)
		}
		claimed := snap
		claimed.State = StateSubmitting
		setUploadFields(record, claimed)
		record.Set("claimed_at", time.Now().UTC())
		return txApp.Save(record)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// DeleteUpload discards an upload cycle and its stored results. An upload
// whose submission is in flight cannot be discarded until its claim is older
// than staleAfter. A zero staleAfter never expires a claim.
func DeleteUpload(app *pocketbase.PocketBase, uploadID string, staleAfter time.Duration) error {
	record, err := app.FindRecordById("bulk_uploads", uploadID)
	if err != nil {
		return fmt.Errorf("upload %s not found: %w", uploadID, err)
	}
	if IngestState(record.GetString("state")) == StateSubmitting {
		claimedAt := record.GetDateTime("claimed_at").Time()
		if staleAfter <= 0 || time.Since(claimedAt) < staleAfter {
			return ErrSubmissionInFlight
		}
		// The outcome of this batch is unknown; the key is what the backend
		// can be asked about.
		log.Printf("order_uploads: discarding stale submission %s claimed at %s (idempotency key %s)",
			uploadID, claimedAt.Format(time.RFC3339), record.GetString("idempotency_key"))
	}
	if err := app.Delete(record); err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

// RecentUploads lists the newest upload cycles first.
func RecentUploads(app *pocketbase.PocketBase, limit int) ([]UploadSummary, error) {
	records, err := app.FindRecordsByFilter("bulk_uploads", "id != ''", "-created", limit, 0)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	out := make([]UploadSummary, 0, len(records))
	for _, r := range records {
		out = append(out, UploadSummary{
			ID:        r.Id,
			FileName:  r.GetString("file_name"),
			State:     IngestState(r.GetString("state")),
			TotalRows: r.GetInt("total_rows"),
			ValidRows: r.GetInt("valid_rows"),
			Errors:    r.GetInt("error_count"),
			Created:   r.GetDateTime("created").Time(),
		})
	}
	return out, nil
}

// SaveOrderResults stores the per-order outcomes of a submitted batch in
// chunks of resultBatchSize. Each chunk is its own transaction; a failed
// chunk is logged and counted, the rest still commit.
func SaveOrderResults(app *pocketbase.PocketBase, uploadID string, result *BatchResult) (int, error) {
	if result == nil {
		return 0, nil
	}
	col, err := app.FindCollectionByNameOrId("bulk_order_results")
	if err != nil {
		return 0, fmt.Errorf("bulk_order_results collection not found: %w", err)
	}

	type outcome struct {
		kind string
		res  OrderResult
	}
	all := make([]outcome, 0, len(result.SuccessResults)+len(result.FailedResults))
	for _, r := range result.SuccessResults {
		all = append(all, outcome{"success", r})
	}
	for _, r := range result.FailedResults {
		all = append(all, outcome{"failed", r})
	}

	saved := 0
	var firstErr error
	for chunkStart := 0; chunkStart < len(all); chunkStart += resultBatchSize {
		chunkEnd := min(chunkStart+resultBatchSize, len(all))
		chunk := all[chunkStart:chunkEnd]

		err := app.RunInTransaction(func(txApp core.App) error {
			for _, o := range chunk {
				record := core.NewRecord(col)
				record.Set("upload", uploadID)
				record.Set("outcome", o.kind)
				record.Set("order_code", o.res.OrderCode)
				record.Set("status", o.res.Status)
				record.Set("message", o.res.Message)
				if err := txApp.Save(record); err != nil {
					return fmt.Errorf("save result for %q: %w", o.res.OrderCode, err)
				}
			}
			return nil
		})
		if err != nil {
			log.Printf("order_results: chunk insert rolled back: %v", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		saved += len(chunk)
	}
	return saved, firstErr
}

func setUploadFields(record *core.Record, snap Snapshot) {
	record.Set("file_name", snap.FileName)
	record.Set("state", string(snap.State))
	record.Set("policy", string(snap.Policy))
	record.Set("total_rows", snap.TotalRows)
	record.Set("valid_rows", snap.ValidRows)
	record.Set("error_count", len(snap.Errors))
	record.Set("idempotency_key", snap.IdempotencyKey)
	record.Set("snapshot", snap)
}

func snapshotFromRecord(record *core.Record) (Snapshot, error) {
	var snap Snapshot
	if err := record.UnmarshalJSONField("snapshot", &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode upload snapshot: %w", err)
	}
	snap.State = IngestState(record.GetString("state"))
	return snap, nil
}
