package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IngestState is the position of an upload in its review cycle.
type IngestState string

const (
	StateIdle           IngestState = "idle"
	StateParsing        IngestState = "parsing"
	StateRejected       IngestState = "rejected"
	StateReadyForReview IngestState = "ready_for_review"
	StateSubmitting     IngestState = "submitting"
	StateSubmitted      IngestState = "submitted"
	StateSubmitFailed   IngestState = "submit_failed"
)

// BatchPolicy decides what happens to valid rows when other rows fail.
type BatchPolicy string

const (
	// PolicyStrict rejects the whole upload when any row has an error.
	PolicyStrict BatchPolicy = "strict"
	// PolicyQuarantine drops invalid rows and lets the valid ones proceed.
	PolicyQuarantine BatchPolicy = "quarantine"
)

var (
	ErrNotReady           = errors.New("batch is not ready for submission")
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrSubmissionFailed   = errors.New("batch submission failed")
)

// Options configures an ingestion cycle.
type Options struct {
	DateOrder        DateOrder
	Policy           BatchPolicy
	AllowZeroAmounts bool
	Now              func() time.Time
}

// DefaultOptions returns the stock configuration: heuristic dates, strict
// batches, zero amounts not filled.
func DefaultOptions() Options {
	return Options{DateOrder: DateOrderAuto, Policy: PolicyStrict}
}

// OrderSubmitter sends a batch to the order-creation endpoint.
type OrderSubmitter interface {
	SubmitBulkOrders(ctx context.Context, batch []CreateBulkOrder, idempotencyKey string) (*BatchResult, error)
}

// OrderResult is the backend's outcome for one submitted order.
type OrderResult struct {
	OrderCode string `json:"order_code"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// BatchResult partitions the backend's per-order outcomes.
type BatchResult struct {
	SuccessResults []OrderResult `json:"successResults"`
	FailedResults  []OrderResult `json:"failedResults"`
}

// Snapshot is the review state of one upload cycle. It is what the upload
// store persists between requests.
type Snapshot struct {
	State          IngestState       `json:"state"`
	FileName       string            `json:"file_name"`
	SheetName      string            `json:"sheet_name"`
	Policy         BatchPolicy       `json:"policy"`
	TotalRows      int               `json:"total_rows"`
	ValidRows      int               `json:"valid_rows"`
	Warnings       []string          `json:"warnings"`
	Errors         []ValidationError `json:"errors"`
	ParseError     string            `json:"parse_error,omitempty"`
	Batch          []CreateBulkOrder `json:"batch"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	Result         *BatchResult      `json:"result,omitempty"`
	SubmitError    string            `json:"submit_error,omitempty"`
}

// ErrorReport returns the validation errors as newline-joined lines, or the
// parse error when the file could not be read.
func (s Snapshot) ErrorReport() string {
	if s.ParseError != "" {
		return s.ParseError
	}
	return FormatErrorReport(s.Errors)
}

// Ingestion drives one upload through normalize, validate, build and submit.
// A new Load replaces all state from the previous file.
type Ingestion struct {
	opts Options

	mu   sync.Mutex
	snap Snapshot
}

// NewIngestion returns an idle ingestion cycle.
func NewIngestion(opts Options) *Ingestion {
	if opts.DateOrder == "" {
		opts.DateOrder = DateOrderAuto
	}
	if opts.Policy == "" {
		opts.Policy = PolicyStrict
	}
	return &Ingestion{opts: opts, snap: Snapshot{State: StateIdle}}
}

// RestoreIngestion resumes a cycle from a persisted snapshot.
func RestoreIngestion(opts Options, snap Snapshot) *Ingestion {
	in := NewIngestion(opts)
	in.snap = snap
	return in
}

// Snapshot returns a copy of the current review state.
func (in *Ingestion) Snapshot() Snapshot {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.snap
}

// State returns the current cycle state.
func (in *Ingestion) State() IngestState {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.snap.State
}

// Load reads an uploaded file and runs the pipeline over its first sheet.
// An unreadable file leaves the cycle Rejected and returns the read error;
// validation failures are not errors and are reported through the snapshot.
func (in *Ingestion) Load(file io.Reader, fileName string) error {
	if err := in.begin(fileName); err != nil {
		return err
	}

	sheet, err := ReadUpload(file, fileName)
	if err != nil {
		log.Printf("order_ingest: read %q: %v", fileName, err)
		in.mu.Lock()
		in.snap.State = StateRejected
		in.snap.ParseError = err.Error()
		in.mu.Unlock()
		return err
	}

	in.mu.Lock()
	in.snap.SheetName = sheet.Name
	in.snap.Warnings = sheet.Warnings
	in.mu.Unlock()

	in.process(sheet.Rows)
	return nil
}

// LoadRows runs the pipeline over rows already read from a sheet.
func (in *Ingestion) LoadRows(fileName string, rows []RawRow) error {
	if err := in.begin(fileName); err != nil {
		return err
	}
	in.process(rows)
	return nil
}

func (in *Ingestion) begin(fileName string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.snap.State == StateSubmitting {
		return ErrSubmissionInFlight
	}
	in.snap = Snapshot{State: StateParsing, FileName: fileName, Policy: in.opts.Policy}
	return nil
}

func (in *Ingestion) process(rows []RawRow) {
	normalizer := Normalizer{DateOrder: in.opts.DateOrder}
	validator := RowValidator{AllowZeroAmounts: in.opts.AllowZeroAmounts}
	builder := OrderBuilder{Validator: validator, Now: in.opts.Now}

	nonBlank := make([]RawRow, 0, len(rows))
	for _, raw := range rows {
		if len(raw) > 0 {
			nonBlank = append(nonBlank, raw)
		}
	}
	rows = nonBlank

	var (
		allErrors []ValidationError
		validRows []NormalizedRow
	)
	for i, raw := range rows {
		row := normalizer.Normalize(raw)
		res := validator.Validate(row, i)
		if res.Valid {
			validRows = append(validRows, row)
			continue
		}
		allErrors = append(allErrors, res.Errors...)
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	in.snap.TotalRows = len(rows)
	in.snap.ValidRows = len(validRows)
	in.snap.Errors = allErrors

	rejected := len(validRows) == 0
	if in.opts.Policy != PolicyQuarantine && len(allErrors) > 0 {
		rejected = true
	}
	if rejected {
		if len(rows) == 0 {
			in.snap.ParseError = "The uploaded sheet contains no order rows"
		}
		in.snap.State = StateRejected
		return
	}

	batch := make([]CreateBulkOrder, 0, len(validRows))
	for _, row := range validRows {
		batch = append(batch, builder.Build(row))
	}
	in.snap.Batch = batch
	in.snap.IdempotencyKey = uuid.NewString()
	in.snap.State = StateReadyForReview
}

// Submit sends the reviewed batch in a single call. Any failure of the call
// marks the whole batch SubmitFailed; there is no partial retry.
func (in *Ingestion) Submit(ctx context.Context, submitter OrderSubmitter) (*BatchResult, error) {
	in.mu.Lock()
	switch in.snap.State {
	case StateReadyForReview:
	case StateSubmitting:
		in.mu.Unlock()
		return nil, ErrSubmissionInFlight
	default:
		state := in.snap.State
		in.mu.Unlock()
		return nil, fmt.Errorf("%w (state %s)", ErrNotReady, state)
	}
	in.snap.State = StateSubmitting
	batch := in.snap.Batch
	key := in.snap.IdempotencyKey
	in.mu.Unlock()

	result, err := submitter.SubmitBulkOrders(ctx, batch, key)

	in.mu.Lock()
	defer in.mu.Unlock()
	if err != nil {
		in.snap.State = StateSubmitFailed
		in.snap.SubmitError = err.Error()
		if !errors.Is(err, ErrSubmissionFailed) {
			err = fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
		}
		return nil, err
	}
	if result == nil {
		result = &BatchResult{}
	}
	in.snap.State = StateSubmitted
	in.snap.Result = result
	return result, nil
}

// Reset discards all state and returns the cycle to Idle. A submission that
// is already on the wire cannot be cancelled.
func (in *Ingestion) Reset() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.snap.State == StateSubmitting {
		return ErrSubmissionInFlight
	}
	in.snap = Snapshot{State: StateIdle}
	return nil
}
